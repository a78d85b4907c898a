package workflow

import "fmt"

// EvaluateAssignment reports whether actorRole may assign targetAgentID to
// the incident. Reassignment follows the same role gate as first assignment;
// any confirmation UX belongs to the caller.
func EvaluateAssignment(incident Incident, targetAgentID string, actorRole Role) AssignmentDecision {
	if actorRole != RoleSupervisor && actorRole != RoleAdmin {
		return AssignmentDecision{
			Reason:  ErrInsufficientRole,
			Message: fmt.Sprintf("role %s may not assign agents", actorRole),
		}
	}
	if incident.Status == StatusClosed {
		return AssignmentDecision{
			Reason:  ErrInvalidStateForAssignment,
			Message: "incident is closed; reopen it before assigning an agent",
		}
	}
	if incident.AssignedAgentID != nil && *incident.AssignedAgentID == targetAgentID {
		return AssignmentDecision{
			Reason:  ErrAlreadyAssigned,
			Message: "agent is already assigned to this incident",
		}
	}
	return AssignmentDecision{Allowed: true}
}
