package service

import (
	"context"
	"fmt"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/rating"
)

// CompetencyStore persists the competency framework of a tenant
type CompetencyStore interface {
	CreateDomain(ctx context.Context, d *models.CompetencyDomain) error
	ListDomains(ctx context.Context, tenantID uint) ([]models.CompetencyDomain, error)
	UpdateDomain(ctx context.Context, d *models.CompetencyDomain) error
	DeleteDomain(ctx context.Context, tenantID, id uint) error

	CreateCategory(ctx context.Context, c *models.CompetencyCategory) error
	ListCategories(ctx context.Context, tenantID uint, domainID *uint) ([]models.CompetencyCategory, error)
	UpdateCategory(ctx context.Context, c *models.CompetencyCategory) error
	DeleteCategory(ctx context.Context, tenantID, id uint) error

	CreateCompetency(ctx context.Context, c *models.Competency) error
	GetCompetency(ctx context.Context, tenantID, id uint) (*models.Competency, error)
	ListCompetencies(ctx context.Context, tenantID uint, categoryID *uint) ([]models.Competency, error)
	UpdateCompetency(ctx context.Context, c *models.Competency) error
	DeleteCompetency(ctx context.Context, tenantID, id uint) error

	UpsertLevel(ctx context.Context, l *models.ProficiencyLevel) error
	ListLevels(ctx context.Context, tenantID uint) ([]models.ProficiencyLevel, error)
	DeleteLevel(ctx context.Context, tenantID, id uint) error
}

// DomainRequest creates or renames a competency domain
type DomainRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
}

// CategoryRequest creates or renames a competency category
type CategoryRequest struct {
	DomainID    uint    `json:"domain_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
}

// CompetencyRequest creates or renames a competency
type CompetencyRequest struct {
	CategoryID  uint    `json:"category_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
}

// LevelRequest labels a point of the rating scale
type LevelRequest struct {
	Level       int     `json:"level"`
	Label       string  `json:"label" validate:"required,max=100"`
	Description *string `json:"description,omitempty"`
}

// CompetencyService manages the competency framework. Reads are open to every role;
// writes are admin and HR only.
type CompetencyService struct {
	competencyRepo CompetencyStore
	auditSvc       *AuditService
}

// NewCompetencyService creates a new competency service
func NewCompetencyService(competencyRepo CompetencyStore, auditSvc *AuditService) *CompetencyService {
	return &CompetencyService{
		competencyRepo: competencyRepo,
		auditSvc:       auditSvc,
	}
}

func (s *CompetencyService) ListDomains(ctx context.Context, actor auth.Identity) ([]models.CompetencyDomain, error) {
	return s.competencyRepo.ListDomains(ctx, actor.TenantID)
}

func (s *CompetencyService) CreateDomain(ctx context.Context, actor auth.Identity, req DomainRequest) (*models.CompetencyDomain, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	d := &models.CompetencyDomain{TenantID: actor.TenantID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "competency_domain", fmt.Sprintf("Created domain %q (ID: %d)", d.Name, d.ID))
	return d, nil
}

func (s *CompetencyService) UpdateDomain(ctx context.Context, actor auth.Identity, id uint, req DomainRequest) (*models.CompetencyDomain, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	d := &models.CompetencyDomain{ID: id, TenantID: actor.TenantID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.UpdateDomain(ctx, d); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "update", "competency_domain", fmt.Sprintf("Updated domain %d", id))
	return d, nil
}

func (s *CompetencyService) DeleteDomain(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "competency_domain", id, s.competencyRepo.DeleteDomain)
}

func (s *CompetencyService) ListCategories(ctx context.Context, actor auth.Identity, domainID *uint) ([]models.CompetencyCategory, error) {
	return s.competencyRepo.ListCategories(ctx, actor.TenantID, domainID)
}

func (s *CompetencyService) CreateCategory(ctx context.Context, actor auth.Identity, req CategoryRequest) (*models.CompetencyCategory, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	c := &models.CompetencyCategory{TenantID: actor.TenantID, DomainID: req.DomainID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "competency_category", fmt.Sprintf("Created category %q (ID: %d)", c.Name, c.ID))
	return c, nil
}

func (s *CompetencyService) UpdateCategory(ctx context.Context, actor auth.Identity, id uint, req CategoryRequest) (*models.CompetencyCategory, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	c := &models.CompetencyCategory{ID: id, TenantID: actor.TenantID, DomainID: req.DomainID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "update", "competency_category", fmt.Sprintf("Updated category %d", id))
	return c, nil
}

func (s *CompetencyService) DeleteCategory(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "competency_category", id, s.competencyRepo.DeleteCategory)
}

func (s *CompetencyService) ListCompetencies(ctx context.Context, actor auth.Identity, categoryID *uint) ([]models.Competency, error) {
	return s.competencyRepo.ListCompetencies(ctx, actor.TenantID, categoryID)
}

func (s *CompetencyService) GetCompetency(ctx context.Context, actor auth.Identity, id uint) (*models.Competency, error) {
	return s.competencyRepo.GetCompetency(ctx, actor.TenantID, id)
}

func (s *CompetencyService) CreateCompetency(ctx context.Context, actor auth.Identity, req CompetencyRequest) (*models.Competency, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	c := &models.Competency{TenantID: actor.TenantID, CategoryID: req.CategoryID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.CreateCompetency(ctx, c); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "create", "competency", fmt.Sprintf("Created competency %q (ID: %d)", c.Name, c.ID))
	return c, nil
}

func (s *CompetencyService) UpdateCompetency(ctx context.Context, actor auth.Identity, id uint, req CompetencyRequest) (*models.Competency, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	c := &models.Competency{ID: id, TenantID: actor.TenantID, CategoryID: req.CategoryID, Name: req.Name, Description: req.Description}
	if err := s.competencyRepo.UpdateCompetency(ctx, c); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "update", "competency", fmt.Sprintf("Updated competency %d", id))
	return c, nil
}

func (s *CompetencyService) DeleteCompetency(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "competency", id, s.competencyRepo.DeleteCompetency)
}

func (s *CompetencyService) ListLevels(ctx context.Context, actor auth.Identity) ([]models.ProficiencyLevel, error) {
	return s.competencyRepo.ListLevels(ctx, actor.TenantID)
}

// SaveLevel creates or relabels a proficiency level. Level 0 stays reserved for "not
// yet rated".
func (s *CompetencyService) SaveLevel(ctx context.Context, actor auth.Identity, req LevelRequest) (*models.ProficiencyLevel, error) {
	if !isManager(actor) {
		return nil, ErrForbidden
	}
	if req.Level < rating.MinRating || req.Level > rating.MaxRating {
		return nil, invalid("level must be between %d and %d", rating.MinRating, rating.MaxRating)
	}
	l := &models.ProficiencyLevel{TenantID: actor.TenantID, Level: req.Level, Label: req.Label, Description: req.Description}
	if err := s.competencyRepo.UpsertLevel(ctx, l); err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "save", "proficiency_level", fmt.Sprintf("Level %d labeled %q", l.Level, l.Label))
	return l, nil
}

func (s *CompetencyService) DeleteLevel(ctx context.Context, actor auth.Identity, id uint) error {
	return s.remove(ctx, actor, "proficiency_level", id, s.competencyRepo.DeleteLevel)
}

func (s *CompetencyService) remove(ctx context.Context, actor auth.Identity, resource string, id uint, del func(context.Context, uint, uint) error) error {
	if !isManager(actor) {
		return ErrForbidden
	}
	if err := del(ctx, actor.TenantID, id); err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor, "delete", resource, fmt.Sprintf("Deleted %s %d", resource, id))
	return nil
}
