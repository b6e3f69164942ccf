package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"competency-assessment/internal/models"
)

// CompetencyRepository stores the competency framework: domains, categories,
// competencies and proficiency levels
type CompetencyRepository struct {
	db *sql.DB
}

// NewCompetencyRepository creates a new competency repository
func NewCompetencyRepository(db *sql.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

// CreateDomain creates a competency domain
func (r *CompetencyRepository) CreateDomain(ctx context.Context, d *models.CompetencyDomain) error {
	query := `
		INSERT INTO competency_domains (tenant_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, d.TenantID, d.Name, d.Description, now).Scan(&d.ID); err != nil {
		return fmt.Errorf("failed to create domain: %w", translate(err))
	}
	d.CreatedAt, d.UpdatedAt = now, now
	return nil
}

// ListDomains returns the domains of a tenant
func (r *CompetencyRepository) ListDomains(ctx context.Context, tenantID uint) ([]models.CompetencyDomain, error) {
	query := `
		SELECT id, tenant_id, name, description, created_at, updated_at
		FROM competency_domains WHERE tenant_id = $1 ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer closeRows(rows)

	domains := []models.CompetencyDomain{}
	for rows.Next() {
		var d models.CompetencyDomain
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// UpdateDomain renames a domain
func (r *CompetencyRepository) UpdateDomain(ctx context.Context, d *models.CompetencyDomain) error {
	query := `
		UPDATE competency_domains SET name = $1, description = $2, updated_at = $3
		WHERE tenant_id = $4 AND id = $5
	`

	d.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, d.Name, d.Description, d.UpdatedAt, d.TenantID, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", translate(err))
	}
	return requireAffected(res)
}

// DeleteDomain deletes a domain together with its categories and competencies
func (r *CompetencyRepository) DeleteDomain(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "competency_domains", tenantID, id)
}

// CreateCategory creates a category inside a domain of the same tenant
func (r *CompetencyRepository) CreateCategory(ctx context.Context, c *models.CompetencyCategory) error {
	query := `
		INSERT INTO competency_categories (tenant_id, domain_id, name, description, created_at, updated_at)
		SELECT $1, d.id, $3, $4, $5, $5
		FROM competency_domains d WHERE d.tenant_id = $1 AND d.id = $2
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, c.TenantID, c.DomainID, c.Name, c.Description, now).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create category: %w", translate(err))
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// ListCategories returns the categories of a tenant, optionally limited to one domain
func (r *CompetencyRepository) ListCategories(ctx context.Context, tenantID uint, domainID *uint) ([]models.CompetencyCategory, error) {
	query := `
		SELECT id, tenant_id, domain_id, name, description, created_at, updated_at
		FROM competency_categories
		WHERE tenant_id = $1 AND ($2::INTEGER IS NULL OR domain_id = $2)
		ORDER BY domain_id, name
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer closeRows(rows)

	categories := []models.CompetencyCategory{}
	for rows.Next() {
		var c models.CompetencyCategory
		if err := rows.Scan(&c.ID, &c.TenantID, &c.DomainID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory renames a category
func (r *CompetencyRepository) UpdateCategory(ctx context.Context, c *models.CompetencyCategory) error {
	query := `
		UPDATE competency_categories SET name = $1, description = $2, updated_at = $3
		WHERE tenant_id = $4 AND id = $5
	`

	c.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Description, c.UpdatedAt, c.TenantID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", translate(err))
	}
	return requireAffected(res)
}

// DeleteCategory deletes a category together with its competencies
func (r *CompetencyRepository) DeleteCategory(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "competency_categories", tenantID, id)
}

// CreateCompetency creates a competency inside a category of the same tenant
func (r *CompetencyRepository) CreateCompetency(ctx context.Context, c *models.Competency) error {
	query := `
		INSERT INTO competencies (tenant_id, category_id, name, description, created_at, updated_at)
		SELECT $1, c.id, $3, $4, $5, $5
		FROM competency_categories c WHERE c.tenant_id = $1 AND c.id = $2
		RETURNING id
	`

	now := time.Now()
	if err := r.db.QueryRowContext(ctx, query, c.TenantID, c.CategoryID, c.Name, c.Description, now).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to create competency: %w", translate(err))
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

// GetCompetency retrieves a competency of a tenant
func (r *CompetencyRepository) GetCompetency(ctx context.Context, tenantID, id uint) (*models.Competency, error) {
	query := `
		SELECT id, tenant_id, category_id, name, description, created_at, updated_at
		FROM competencies WHERE tenant_id = $1 AND id = $2
	`

	c := &models.Competency{}
	err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.CategoryID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get competency: %w", translate(err))
	}
	return c, nil
}

// ListCompetencies returns the competencies of a tenant, optionally limited to one category
func (r *CompetencyRepository) ListCompetencies(ctx context.Context, tenantID uint, categoryID *uint) ([]models.Competency, error) {
	query := `
		SELECT id, tenant_id, category_id, name, description, created_at, updated_at
		FROM competencies
		WHERE tenant_id = $1 AND ($2::INTEGER IS NULL OR category_id = $2)
		ORDER BY category_id, name
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list competencies: %w", err)
	}
	defer closeRows(rows)

	competencies := []models.Competency{}
	for rows.Next() {
		var c models.Competency
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CategoryID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan competency: %w", err)
		}
		competencies = append(competencies, c)
	}
	return competencies, rows.Err()
}

// UpdateCompetency renames a competency
func (r *CompetencyRepository) UpdateCompetency(ctx context.Context, c *models.Competency) error {
	query := `
		UPDATE competencies SET name = $1, description = $2, updated_at = $3
		WHERE tenant_id = $4 AND id = $5
	`

	c.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query, c.Name, c.Description, c.UpdatedAt, c.TenantID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update competency: %w", translate(err))
	}
	return requireAffected(res)
}

// DeleteCompetency deletes a competency and every rating of it
func (r *CompetencyRepository) DeleteCompetency(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "competencies", tenantID, id)
}

// UpsertLevel creates or relabels the proficiency level with the same number
func (r *CompetencyRepository) UpsertLevel(ctx context.Context, l *models.ProficiencyLevel) error {
	query := `
		INSERT INTO proficiency_levels (tenant_id, level, label, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (tenant_id, level)
		DO UPDATE SET label = EXCLUDED.label, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, l.TenantID, l.Level, l.Label, l.Description, now).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save proficiency level: %w", translate(err))
	}
	l.UpdatedAt = now
	return nil
}

// ListLevels returns the proficiency scale of a tenant in ascending order
func (r *CompetencyRepository) ListLevels(ctx context.Context, tenantID uint) ([]models.ProficiencyLevel, error) {
	query := `
		SELECT id, tenant_id, level, label, description, created_at, updated_at
		FROM proficiency_levels WHERE tenant_id = $1 ORDER BY level
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proficiency levels: %w", err)
	}
	defer closeRows(rows)

	levels := []models.ProficiencyLevel{}
	for rows.Next() {
		var l models.ProficiencyLevel
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Level, &l.Label, &l.Description, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan proficiency level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// DeleteLevel deletes a proficiency level
func (r *CompetencyRepository) DeleteLevel(ctx context.Context, tenantID, id uint) error {
	return r.delete(ctx, "proficiency_levels", tenantID, id)
}

// delete removes a tenant-owned row. table is always a package constant.
func (r *CompetencyRepository) delete(ctx context.Context, table string, tenantID, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, translate(err))
	}
	return requireAffected(res)
}
