package consensus

import (
	"fmt"

	"competency-assessment/internal/models"
)

// Placeholder labels used when a lookup misses
const (
	UnknownEmployee    = "Unknown"
	UnassignedAssessor = "Unassigned"
)

// Lookups holds the read-only reference data a consensus view is decorated with.
// Build it once per request with NewLookups and pass it by value.
type Lookups struct {
	Users        map[uint]models.User
	Competencies map[uint]models.Competency
	Departments  map[uint]models.Department
	Jobs         map[uint]models.Job
	// CurrentJobs maps an employee id to their most recent job assignment
	CurrentJobs map[uint]models.JobAssignment
}

// NewLookups indexes the supplied collections by id. When an employee has several job
// assignments the one with the latest start date wins, ties going to the highest id.
func NewLookups(
	users []models.User,
	competencies []models.Competency,
	departments []models.Department,
	jobs []models.Job,
	assignments []models.JobAssignment,
) Lookups {
	lk := Lookups{
		Users:        make(map[uint]models.User, len(users)),
		Competencies: make(map[uint]models.Competency, len(competencies)),
		Departments:  make(map[uint]models.Department, len(departments)),
		Jobs:         make(map[uint]models.Job, len(jobs)),
		CurrentJobs:  make(map[uint]models.JobAssignment),
	}
	for _, u := range users {
		lk.Users[u.ID] = u
	}
	for _, c := range competencies {
		lk.Competencies[c.ID] = c
	}
	for _, d := range departments {
		lk.Departments[d.ID] = d
	}
	for _, j := range jobs {
		lk.Jobs[j.ID] = j
	}
	for _, a := range assignments {
		current, ok := lk.CurrentJobs[a.EmployeeID]
		if !ok || newerAssignment(a, current) {
			lk.CurrentJobs[a.EmployeeID] = a
		}
	}
	return lk
}

func newerAssignment(a, b models.JobAssignment) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID > b.ID
}

// CompetencyName resolves a competency label, falling back to a placeholder with the raw id
func (lk Lookups) CompetencyName(id uint) string {
	if c, ok := lk.Competencies[id]; ok {
		return c.Name
	}
	return fmt.Sprintf("Competency #%d", id)
}

// UserName resolves a user's display name, or fallback when the user is unknown
func (lk Lookups) UserName(id uint, fallback string) string {
	u, ok := lk.Users[id]
	if !ok {
		return fallback
	}
	if name := u.FullName(); name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	return fallback
}

// Placement returns the department name and job title of an employee's current job
func (lk Lookups) Placement(employeeID uint) (department, jobTitle string) {
	assignment, ok := lk.CurrentJobs[employeeID]
	if !ok {
		return "", ""
	}
	job, ok := lk.Jobs[assignment.JobID]
	if !ok {
		return "", ""
	}
	if d, ok := lk.Departments[job.DepartmentID]; ok {
		department = d.Name
	}
	return department, job.Title
}
