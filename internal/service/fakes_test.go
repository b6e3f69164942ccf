package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
)

var (
	admin    = auth.Identity{UserID: 1, TenantID: 1, Email: "admin@example.com", Role: models.RoleAdmin}
	hr       = auth.Identity{UserID: 2, TenantID: 1, Email: "hr@example.com", Role: models.RoleHR}
	assessor = auth.Identity{UserID: 3, TenantID: 1, Email: "lead@example.com", Role: models.RoleAssessor}
	employee = auth.Identity{UserID: 4, TenantID: 1, Email: "jane@example.com", Role: models.RoleEmployee}
	other    = auth.Identity{UserID: 5, TenantID: 1, Email: "sam@example.com", Role: models.RoleEmployee}
)

func testUsers() *fakeUsers {
	return &fakeUsers{users: map[uint]*models.User{
		1: {ID: 1, TenantID: 1, Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", Role: models.RoleAdmin, IsActive: true},
		2: {ID: 2, TenantID: 1, Email: "hr@example.com", FirstName: "Hana", LastName: "Hr", Role: models.RoleHR, IsActive: true},
		3: {ID: 3, TenantID: 1, Email: "lead@example.com", FirstName: "Alex", LastName: "Lead", Role: models.RoleAssessor, IsActive: true},
		4: {ID: 4, TenantID: 1, Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", Role: models.RoleEmployee, IsActive: true},
		5: {ID: 5, TenantID: 1, Email: "sam@example.com", FirstName: "Sam", LastName: "Smith", Role: models.RoleEmployee, IsActive: true},
	}}
}

type fakeUsers struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	if f.nextID == 0 {
		f.nextID = 100
	}
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, tenantID, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, tenantID uint) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) UpdateRole(_ context.Context, tenantID, id uint, role string, isActive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok || u.TenantID != tenantID {
		return repository.ErrNotFound
	}
	u.Role = role
	u.IsActive = isActive
	return nil
}

type fakeAssessments struct {
	mu          sync.Mutex
	assessments map[uint]*models.Assessment
	nextID      uint
	nextRating  uint
}

func newFakeAssessments() *fakeAssessments {
	return &fakeAssessments{assessments: map[uint]*models.Assessment{}}
}

func (f *fakeAssessments) put(a models.Assessment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.Ratings == nil {
		a.Ratings = []models.CompetencyRating{}
	}
	f.assessments[a.ID] = &a
	if a.ID > f.nextID {
		f.nextID = a.ID
	}
}

func (f *fakeAssessments) Create(_ context.Context, a *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a.ID = f.nextID
	a.Status = models.AssessmentStatusPending
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	a.Ratings = []models.CompetencyRating{}
	cp := *a
	f.assessments[a.ID] = &cp
	return nil
}

func (f *fakeAssessments) GetByID(_ context.Context, tenantID, id uint) (*models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assessments[id]
	if !ok || a.TenantID != tenantID {
		return nil, repository.ErrNotFound
	}
	return clone(a), nil
}

func (f *fakeAssessments) List(_ context.Context, flt repository.AssessmentFilter) ([]models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Assessment{}
	for _, a := range f.assessments {
		if a.TenantID != flt.TenantID {
			continue
		}
		if flt.EmployeeID != nil && a.EmployeeID != *flt.EmployeeID {
			continue
		}
		if flt.AssessorID != nil && (a.AssessorID == nil || *a.AssessorID != *flt.AssessorID) {
			continue
		}
		if flt.Type != "" && a.Type != flt.Type {
			continue
		}
		if len(flt.Statuses) > 0 && !hasStatus(flt.Statuses, a.Status) {
			continue
		}
		out = append(out, *clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func hasStatus(statuses []models.AssessmentStatus, s models.AssessmentStatus) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}

func (f *fakeAssessments) UpdateStatus(_ context.Context, a *models.Assessment, from models.AssessmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assessments[a.ID]
	if !ok || stored.Status != from {
		return repository.ErrConflict
	}
	if a.Status == models.AssessmentStatusCompleted && !anyRated(stored.Ratings) {
		return repository.ErrNothingRated
	}
	stored.Status = a.Status
	stored.StartedAt = a.StartedAt
	stored.CompletedAt = a.CompletedAt
	stored.ReviewedAt = a.ReviewedAt
	return nil
}

func (f *fakeAssessments) UpsertRating(_ context.Context, cr *models.CompetencyRating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.assessments[cr.AssessmentID]
	if a.Status.IsTerminal() {
		return repository.ErrFrozen
	}
	for i := range a.Ratings {
		if a.Ratings[i].CompetencyID == cr.CompetencyID {
			cr.ID = a.Ratings[i].ID
			a.Ratings[i] = *cr
			return nil
		}
	}
	f.nextRating++
	cr.ID = f.nextRating
	a.Ratings = append(a.Ratings, *cr)
	return nil
}

func (f *fakeAssessments) Delete(_ context.Context, tenantID, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assessments[id]
	if !ok || a.TenantID != tenantID {
		return repository.ErrNotFound
	}
	delete(f.assessments, id)
	return nil
}

func anyRated(ratings []models.CompetencyRating) bool {
	for _, r := range ratings {
		if r.Rating > 0 {
			return true
		}
	}
	return false
}

// staleAssessments serves reads from a snapshot taken before a concurrent write
type staleAssessments struct {
	*fakeAssessments
	snapshot *models.Assessment
}

func (s *staleAssessments) GetByID(context.Context, uint, uint) (*models.Assessment, error) {
	return clone(s.snapshot), nil
}

func clone(a *models.Assessment) *models.Assessment {
	cp := *a
	cp.Ratings = append([]models.CompetencyRating{}, a.Ratings...)
	return &cp
}

// fakeOrg is an in-memory organization with one department, one job and one assessor link
type fakeOrg struct {
	mu          sync.Mutex
	departments []models.Department
	jobs        []models.Job
	jobAssigns  []models.JobAssignment
	assessorOf  []models.AssessorAssignment
}

func newFakeOrg() *fakeOrg {
	return &fakeOrg{
		departments: []models.Department{{ID: 1, TenantID: 1, Name: "Engineering"}},
		jobs:        []models.Job{{ID: 1, TenantID: 1, DepartmentID: 1, Title: "Developer"}},
		jobAssigns: []models.JobAssignment{
			{ID: 1, TenantID: 1, EmployeeID: 4, JobID: 1, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		assessorOf: []models.AssessorAssignment{{ID: 1, TenantID: 1, EmployeeID: 4, AssessorID: 3}},
	}
}

func (f *fakeOrg) IsAssessorOf(_ context.Context, tenantID, assessorID, employeeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assessorOf {
		if a.TenantID == tenantID && a.AssessorID == assessorID && a.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrg) GetDepartment(_ context.Context, tenantID, id uint) (*models.Department, error) {
	for _, d := range f.departments {
		if d.ID == id && d.TenantID == tenantID {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrg) ListDepartments(context.Context, uint) ([]models.Department, error) {
	return f.departments, nil
}

func (f *fakeOrg) ListJobs(context.Context, uint) ([]models.Job, error) {
	return f.jobs, nil
}

func (f *fakeOrg) ListJobAssignments(_ context.Context, _ uint, employeeID *uint) ([]models.JobAssignment, error) {
	out := []models.JobAssignment{}
	for _, a := range f.jobAssigns {
		if employeeID == nil || a.EmployeeID == *employeeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeOrg) CreateDepartment(_ context.Context, d *models.Department) error {
	d.ID = uint(len(f.departments) + 1)
	f.departments = append(f.departments, *d)
	return nil
}

func (f *fakeOrg) UpdateDepartment(context.Context, *models.Department) error { return nil }
func (f *fakeOrg) DeleteDepartment(context.Context, uint, uint) error         { return nil }
func (f *fakeOrg) CreateJob(context.Context, *models.Job) error               { return nil }
func (f *fakeOrg) DeleteJob(context.Context, uint, uint) error                { return nil }
func (f *fakeOrg) DeleteJobAssignment(context.Context, uint, uint) error      { return nil }
func (f *fakeOrg) DeleteAssessorAssignment(context.Context, uint, uint) error { return nil }

func (f *fakeOrg) CreateJobAssignment(_ context.Context, a *models.JobAssignment) error {
	a.ID = uint(len(f.jobAssigns) + 1)
	f.jobAssigns = append(f.jobAssigns, *a)
	return nil
}

func (f *fakeOrg) CreateAssessorAssignment(_ context.Context, a *models.AssessorAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.assessorOf {
		if x.EmployeeID == a.EmployeeID && x.AssessorID == a.AssessorID {
			return repository.ErrConflict
		}
	}
	a.ID = uint(len(f.assessorOf) + 1)
	f.assessorOf = append(f.assessorOf, *a)
	return nil
}

func (f *fakeOrg) ListAssessorAssignments(_ context.Context, _ uint, assessorID *uint) ([]models.AssessorAssignment, error) {
	out := []models.AssessorAssignment{}
	for _, a := range f.assessorOf {
		if assessorID == nil || a.AssessorID == *assessorID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCompetencies struct {
	competencies []models.Competency
}

func newFakeCompetencies() *fakeCompetencies {
	return &fakeCompetencies{competencies: []models.Competency{
		{ID: 1, TenantID: 1, CategoryID: 1, Name: "Communication"},
		{ID: 2, TenantID: 1, CategoryID: 1, Name: "Teamwork"},
		{ID: 3, TenantID: 1, CategoryID: 1, Name: "Delivery"},
	}}
}

func (f *fakeCompetencies) GetCompetency(_ context.Context, tenantID, id uint) (*models.Competency, error) {
	for _, c := range f.competencies {
		if c.ID == id && c.TenantID == tenantID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCompetencies) ListCompetencies(context.Context, uint, *uint) ([]models.Competency, error) {
	return f.competencies, nil
}

// prefixCipher marks sealed comments so tests can tell stored and shown values apart
type prefixCipher struct{}

func (prefixCipher) Seal(_ context.Context, comment string) (string, error) {
	return "sealed:" + comment, nil
}

func (prefixCipher) Open(_ context.Context, stored string) (string, error) {
	return strings.TrimPrefix(stored, "sealed:"), nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (f *fakeAudit) Create(_ context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeAudit) List(_ context.Context, _ uint, limit, offset int) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.logs) {
		return []models.AuditLog{}, nil
	}
	end := offset + limit
	if end > len(f.logs) {
		end = len(f.logs)
	}
	return f.logs[offset:end], nil
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.logs))
	for i, l := range f.logs {
		out[i] = l.Action + " " + l.Resource
	}
	return out
}
