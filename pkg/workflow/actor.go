package workflow

// Role enumerates the actor roles recognized by the workflow.
type Role string

const (
	RoleCitizen    Role = "CITIZEN"
	RoleAgent      Role = "AGENT"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

// IsValid reports whether r is a registered role.
func (r Role) IsValid() bool {
	switch r {
	case RoleCitizen, RoleAgent, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// Actor identifies who is invoking a command. Policies receive the actor
// explicitly rather than reading an ambient auth context, so they stay pure.
type Actor struct {
	UserID string
	Role   Role
}
