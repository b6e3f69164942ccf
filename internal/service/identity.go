package service

import (
	"competency-assessment/internal/auth"
	"competency-assessment/internal/models"
)

// isManager reports whether the caller administers the tenant (admin or HR)
func isManager(actor auth.Identity) bool {
	return actor.Role == models.RoleAdmin || actor.Role == models.RoleHR
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleHR, models.RoleAssessor, models.RoleEmployee:
		return true
	}
	return false
}
