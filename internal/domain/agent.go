package domain

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// Agent models a municipal operator: field agents working the queue,
// supervisors validating resolutions, and administrators.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         workflow.Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaffRole reports whether r is a role an Agent record may carry.
func IsStaffRole(r workflow.Role) bool {
	switch r {
	case workflow.RoleAgent, workflow.RoleSupervisor, workflow.RoleAdmin:
		return true
	}
	return false
}
