package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/rating"
	"competency-assessment/internal/repository"
)

// AssessmentStore persists assessments and their ratings
type AssessmentStore interface {
	Create(ctx context.Context, a *models.Assessment) error
	GetByID(ctx context.Context, tenantID, id uint) (*models.Assessment, error)
	List(ctx context.Context, f repository.AssessmentFilter) ([]models.Assessment, error)
	UpdateStatus(ctx context.Context, a *models.Assessment, from models.AssessmentStatus) error
	UpsertRating(ctx context.Context, cr *models.CompetencyRating) error
	Delete(ctx context.Context, tenantID, id uint) error
}

// AssessorDirectory answers who evaluates whom
type AssessorDirectory interface {
	IsAssessorOf(ctx context.Context, tenantID, assessorID, employeeID uint) (bool, error)
}

// CompetencyReader resolves competencies of a tenant
type CompetencyReader interface {
	GetCompetency(ctx context.Context, tenantID, id uint) (*models.Competency, error)
}

// UserReader resolves users of a tenant
type UserReader interface {
	GetByID(ctx context.Context, tenantID, id uint) (*models.User, error)
}

// CommentCipher turns rating comments into stored values and back
type CommentCipher interface {
	Seal(ctx context.Context, comment string) (string, error)
	Open(ctx context.Context, stored string) (string, error)
}

// CreateAssessmentRequest describes a new assessment
type CreateAssessmentRequest struct {
	Type       models.AssessmentType `json:"type" validate:"required,oneof=SELF ASSESSOR CONSENSUS"`
	EmployeeID uint                  `json:"employee_id"`
	AssessorID *uint                 `json:"assessor_id,omitempty"`
}

// SaveRatingRequest describes one competency rating
type SaveRatingRequest struct {
	CompetencyID uint    `json:"competency_id" validate:"required"`
	Rating       int     `json:"rating" validate:"min=0,max=5"`
	Comment      *string `json:"comment,omitempty" validate:"omitempty,max=4000"`
}

// nextStatus lists the only allowed move out of every status
var nextStatus = map[models.AssessmentStatus]models.AssessmentStatus{
	models.AssessmentStatusPending:    models.AssessmentStatusInProgress,
	models.AssessmentStatusInProgress: models.AssessmentStatusCompleted,
	models.AssessmentStatusCompleted:  models.AssessmentStatusReviewed,
}

// AssessmentService handles the assessment lifecycle and competency ratings
type AssessmentService struct {
	assessmentRepo AssessmentStore
	assessors      AssessorDirectory
	competencies   CompetencyReader
	users          UserReader
	comments       CommentCipher
	auditSvc       *AuditService
	now            func() time.Time
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	assessmentRepo AssessmentStore,
	assessors AssessorDirectory,
	competencies CompetencyReader,
	users UserReader,
	comments CommentCipher,
	auditSvc *AuditService,
) *AssessmentService {
	return &AssessmentService{
		assessmentRepo: assessmentRepo,
		assessors:      assessors,
		competencies:   competencies,
		users:          users,
		comments:       comments,
		auditSvc:       auditSvc,
		now:            time.Now,
	}
}

// Create opens a PENDING assessment. Employees may only open their own SELF assessment;
// ASSESSOR assessments are opened by admin or HR for an assigned assessor. CONSENSUS
// assessments are derived and never stored.
func (s *AssessmentService) Create(ctx context.Context, actor auth.Identity, req CreateAssessmentRequest) (*models.AssessmentWithOverall, error) {
	a := &models.Assessment{
		TenantID: actor.TenantID,
		Type:     req.Type,
	}

	switch req.Type {
	case models.AssessmentTypeSelf:
		a.EmployeeID = req.EmployeeID
		if a.EmployeeID == 0 {
			a.EmployeeID = actor.UserID
		}
		if a.EmployeeID != actor.UserID && !isManager(actor) {
			return nil, ErrForbidden
		}
		if req.AssessorID != nil {
			return nil, invalid("a self assessment has no assessor")
		}
		if _, err := s.users.GetByID(ctx, actor.TenantID, a.EmployeeID); err != nil {
			return nil, userErr("employee", err)
		}

	case models.AssessmentTypeAssessor:
		if !isManager(actor) {
			return nil, ErrForbidden
		}
		if req.EmployeeID == 0 || req.AssessorID == nil {
			return nil, invalid("employee_id and assessor_id are required")
		}
		if _, err := s.users.GetByID(ctx, actor.TenantID, req.EmployeeID); err != nil {
			return nil, userErr("employee", err)
		}
		if _, err := s.users.GetByID(ctx, actor.TenantID, *req.AssessorID); err != nil {
			return nil, userErr("assessor", err)
		}
		assigned, err := s.assessors.IsAssessorOf(ctx, actor.TenantID, *req.AssessorID, req.EmployeeID)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, invalid("user %d is not an assessor of employee %d", *req.AssessorID, req.EmployeeID)
		}
		assessorID := *req.AssessorID
		a.EmployeeID = req.EmployeeID
		a.AssessorID = &assessorID

	case models.AssessmentTypeConsensus:
		return nil, invalid("consensus assessments are derived and cannot be created")

	default:
		return nil, invalid("unknown assessment type %q", req.Type)
	}

	if err := s.assessmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "create", "assessment",
		fmt.Sprintf("Created %s assessment (ID: %d) for employee %d", a.Type, a.ID, a.EmployeeID))

	return &models.AssessmentWithOverall{Assessment: *a}, nil
}

// Get returns an assessment the caller may see, with its overall rating
func (s *AssessmentService) Get(ctx context.Context, actor auth.Identity, id uint) (*models.AssessmentWithOverall, error) {
	a, err := s.assessmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, a) {
		return nil, ErrForbidden
	}
	return s.decorate(ctx, a)
}

// List returns the assessments visible to the caller. Admin and HR may filter the whole
// tenant; everyone else sees the assessments about them and the ones they evaluate.
func (s *AssessmentService) List(ctx context.Context, actor auth.Identity, f repository.AssessmentFilter) ([]models.AssessmentWithOverall, error) {
	f.TenantID = actor.TenantID

	var assessments []models.Assessment
	if isManager(actor) {
		list, err := s.assessmentRepo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		assessments = list
	} else {
		own := f
		own.EmployeeID = &actor.UserID
		own.AssessorID = nil
		list, err := s.assessmentRepo.List(ctx, own)
		if err != nil {
			return nil, err
		}
		assessments = list

		if actor.Role == models.RoleAssessor {
			evaluated := f
			evaluated.AssessorID = &actor.UserID
			more, err := s.assessmentRepo.List(ctx, evaluated)
			if err != nil {
				return nil, err
			}
			assessments = mergeByID(assessments, more)
		}
	}

	out := make([]models.AssessmentWithOverall, 0, len(assessments))
	for i := range assessments {
		d, err := s.decorate(ctx, &assessments[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

// Transition moves an assessment one step forward in its lifecycle
func (s *AssessmentService) Transition(ctx context.Context, actor auth.Identity, id uint, to models.AssessmentStatus) (*models.AssessmentWithOverall, error) {
	a, err := s.assessmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}

	if to == models.AssessmentStatusReviewed {
		if !isManager(actor) {
			return nil, ErrForbidden
		}
	} else if !isEvaluator(actor, a) && !isManager(actor) {
		return nil, ErrForbidden
	}

	if next, ok := nextStatus[a.Status]; !ok || next != to {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, a.Status, to)
	}

	if to == models.AssessmentStatusCompleted && rating.ComputeOverall(a.Ratings) == 0 {
		return nil, invalid("at least one competency must be rated before completing")
	}

	if err := s.advance(ctx, a, to); err != nil {
		if errors.Is(err, repository.ErrNothingRated) {
			return nil, invalid("at least one competency must be rated before completing")
		}
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "transition", "assessment",
		fmt.Sprintf("Assessment %d moved to %s", a.ID, to))

	return s.decorate(ctx, a)
}

func (s *AssessmentService) advance(ctx context.Context, a *models.Assessment, to models.AssessmentStatus) error {
	from := a.Status
	now := s.now()

	a.Status = to
	switch to {
	case models.AssessmentStatusInProgress:
		a.StartedAt = &now
	case models.AssessmentStatusCompleted:
		a.CompletedAt = &now
	case models.AssessmentStatusReviewed:
		a.ReviewedAt = &now
	}

	if err := s.assessmentRepo.UpdateStatus(ctx, a, from); err != nil {
		a.Status = from
		return err
	}
	return nil
}

// SaveRating stores the caller's rating of one competency. Only the evaluator may rate:
// the employee on a SELF assessment, the assessor on an ASSESSOR assessment. Saving into
// a PENDING assessment starts it.
func (s *AssessmentService) SaveRating(ctx context.Context, actor auth.Identity, id uint, req SaveRatingRequest) (*models.AssessmentWithOverall, error) {
	if !rating.Valid(req.Rating) {
		return nil, invalid("rating must be between %d and %d", rating.Unrated, rating.MaxRating)
	}

	a, err := s.assessmentRepo.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !isEvaluator(actor, a) {
		return nil, ErrForbidden
	}
	if a.Status.IsTerminal() {
		return nil, ErrRatingsFrozen
	}

	if _, err := s.competencies.GetCompetency(ctx, actor.TenantID, req.CompetencyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("competency %d does not exist", req.CompetencyID)
		}
		return nil, err
	}

	cr := &models.CompetencyRating{
		AssessmentID: a.ID,
		CompetencyID: req.CompetencyID,
		Rating:       req.Rating,
	}
	if req.Comment != nil && *req.Comment != "" {
		sealed, err := s.comments.Seal(ctx, *req.Comment)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt comment: %w", err)
		}
		cr.CommentCiphertext = &sealed
	}

	if err := s.assessmentRepo.UpsertRating(ctx, cr); err != nil {
		if errors.Is(err, repository.ErrFrozen) {
			return nil, ErrRatingsFrozen
		}
		return nil, err
	}

	if a.Status == models.AssessmentStatusPending {
		if err := s.advance(ctx, a, models.AssessmentStatusInProgress); err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
	}

	return s.Get(ctx, actor, id)
}

// Delete removes an assessment. Admin and HR only.
func (s *AssessmentService) Delete(ctx context.Context, actor auth.Identity, id uint) error {
	if !isManager(actor) {
		return ErrForbidden
	}
	if err := s.assessmentRepo.Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor, "delete", "assessment", fmt.Sprintf("Deleted assessment %d", id))
	return nil
}

// decorate opens stored comments and adds the overall rating
func (s *AssessmentService) decorate(ctx context.Context, a *models.Assessment) (*models.AssessmentWithOverall, error) {
	if err := openComments(ctx, s.comments, a.Ratings); err != nil {
		return nil, err
	}
	return &models.AssessmentWithOverall{
		Assessment:    *a,
		OverallRating: rating.ComputeOverall(a.Ratings),
	}, nil
}

func openComments(ctx context.Context, cipher CommentCipher, ratings []models.CompetencyRating) error {
	for i := range ratings {
		stored := ratings[i].CommentCiphertext
		if stored == nil {
			continue
		}
		comment, err := cipher.Open(ctx, *stored)
		if err != nil {
			return fmt.Errorf("failed to decrypt comment of rating %d: %w", ratings[i].ID, err)
		}
		ratings[i].Comment = &comment
	}
	return nil
}

// isEvaluator reports whether actor fills in the ratings of a
func isEvaluator(actor auth.Identity, a *models.Assessment) bool {
	switch a.Type {
	case models.AssessmentTypeSelf:
		return a.EmployeeID == actor.UserID
	case models.AssessmentTypeAssessor:
		return a.AssessorID != nil && *a.AssessorID == actor.UserID
	}
	return false
}

func canView(actor auth.Identity, a *models.Assessment) bool {
	return isManager(actor) || a.EmployeeID == actor.UserID || isEvaluator(actor, a)
}

func mergeByID(a, b []models.Assessment) []models.Assessment {
	seen := make(map[uint]bool, len(a))
	for _, x := range a {
		seen[x.ID] = true
	}
	for _, x := range b {
		if !seen[x.ID] {
			a = append(a, x)
		}
	}
	sort.Slice(a, func(i, j int) bool { return a[i].ID < a[j].ID })
	return a
}

func userErr(role string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return invalid("%s does not exist", role)
	}
	return err
}
