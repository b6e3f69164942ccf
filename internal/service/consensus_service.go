package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/consensus"
	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
)

// UserLister lists the users of a tenant
type UserLister interface {
	List(ctx context.Context, tenantID uint) ([]models.User, error)
}

// CompetencyLister lists the competencies of a tenant
type CompetencyLister interface {
	ListCompetencies(ctx context.Context, tenantID uint, categoryID *uint) ([]models.Competency, error)
}

// OrganizationReader reads the organization structure of a tenant
type OrganizationReader interface {
	ListDepartments(ctx context.Context, tenantID uint) ([]models.Department, error)
	ListJobs(ctx context.Context, tenantID uint) ([]models.Job, error)
	ListJobAssignments(ctx context.Context, tenantID uint, employeeID *uint) ([]models.JobAssignment, error)
}

// AssessmentLister lists assessments
type AssessmentLister interface {
	List(ctx context.Context, f repository.AssessmentFilter) ([]models.Assessment, error)
}

// ConsensusService derives consensus views from completed assessments
type ConsensusService struct {
	users        UserLister
	competencies CompetencyLister
	organization OrganizationReader
	assessments  AssessmentLister
	comments     CommentCipher
}

// NewConsensusService creates a new consensus service
func NewConsensusService(
	users UserLister,
	competencies CompetencyLister,
	organization OrganizationReader,
	assessments AssessmentLister,
	comments CommentCipher,
) *ConsensusService {
	return &ConsensusService{
		users:        users,
		competencies: competencies,
		organization: organization,
		assessments:  assessments,
		comments:     comments,
	}
}

// List returns the consensus views of the caller's tenant ordered by employee id.
// Assessors only get the views of assessments they evaluated.
func (s *ConsensusService) List(ctx context.Context, actor auth.Identity) ([]models.ConsensusView, error) {
	if !isManager(actor) && actor.Role != models.RoleAssessor {
		return nil, ErrForbidden
	}

	assessments, lookups, err := s.load(ctx, actor.TenantID, nil)
	if err != nil {
		return nil, err
	}

	views := consensus.BuildAll(assessments, lookups)
	if isManager(actor) {
		return views, nil
	}

	visible := make([]models.ConsensusView, 0, len(views))
	for _, v := range views {
		if v.AssessorID != nil && *v.AssessorID == actor.UserID {
			visible = append(visible, v)
		}
	}
	return visible, nil
}

// Get returns the consensus view of one employee. Employees may read their own.
func (s *ConsensusService) Get(ctx context.Context, actor auth.Identity, employeeID uint) (*models.ConsensusView, error) {
	if !isManager(actor) && actor.Role != models.RoleAssessor && actor.UserID != employeeID {
		return nil, ErrForbidden
	}

	assessments, lookups, err := s.load(ctx, actor.TenantID, &employeeID)
	if err != nil {
		return nil, err
	}

	pairs := consensus.SelectPairs(assessments)
	if len(pairs) == 0 {
		return nil, ErrNoConsensus
	}
	p := pairs[0]

	if !isManager(actor) && actor.UserID != employeeID {
		if p.Assessor.AssessorID == nil || *p.Assessor.AssessorID != actor.UserID {
			return nil, ErrForbidden
		}
	}

	view := consensus.Build(p.Self, p.Assessor, lookups)
	return &view, nil
}

// load fetches the eligible assessments and the reference data concurrently
func (s *ConsensusService) load(ctx context.Context, tenantID uint, employeeID *uint) ([]models.Assessment, consensus.Lookups, error) {
	var (
		assessments  []models.Assessment
		users        []models.User
		competencies []models.Competency
		departments  []models.Department
		jobs         []models.Job
		assignments  []models.JobAssignment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		assessments, err = s.assessments.List(gctx, repository.AssessmentFilter{
			TenantID:   tenantID,
			EmployeeID: employeeID,
			Statuses:   []models.AssessmentStatus{models.AssessmentStatusCompleted, models.AssessmentStatusReviewed},
		})
		if err != nil {
			return err
		}
		for i := range assessments {
			if err := openComments(gctx, s.comments, assessments[i].Ratings); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		users, err = s.users.List(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		competencies, err = s.competencies.ListCompetencies(gctx, tenantID, nil)
		return err
	})
	g.Go(func() (err error) {
		departments, err = s.organization.ListDepartments(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		jobs, err = s.organization.ListJobs(gctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		assignments, err = s.organization.ListJobAssignments(gctx, tenantID, employeeID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, consensus.Lookups{}, err
	}

	return assessments, consensus.NewLookups(users, competencies, departments, jobs, assignments), nil
}
