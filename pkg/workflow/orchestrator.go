package workflow

import (
	"fmt"
	"time"
)

// Orchestrator composes the transition rules engine and the assignment
// policy. It performs no I/O: it evaluates a command against an incident
// snapshot and returns a Decision the caller persists.
type Orchestrator struct {
	now func() time.Time
}

// NewOrchestrator constructs an orchestrator using the wall clock.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{now: time.Now}
}

// Execute validates command for actor against the incident snapshot. Checks
// run in a fixed order (rules engine, then actor identity, then evidence) so
// callers can rely on the first failing reason.
func (o *Orchestrator) Execute(incident Incident, command Command, actor Actor) Decision {
	switch cmd := command.(type) {
	case AssignAgentCommand:
		return o.executeAssign(incident, cmd, actor)
	case ChangeStatusCommand:
		return o.executeChangeStatus(incident, cmd, actor)
	default:
		panic(fmt.Sprintf("workflow: unknown command type %T", command))
	}
}

func (o *Orchestrator) executeAssign(incident Incident, cmd AssignAgentCommand, actor Actor) Decision {
	verdict := EvaluateAssignment(incident, cmd.TargetAgentID, actor.Role)
	if !verdict.Allowed {
		return reject(verdict.Reason, verdict.Message)
	}

	// Assigning a NEW incident advances it to ASSIGNED within the same
	// decision: one command, one audit entry.
	newStatus := incident.Status
	if incident.Status == StatusNew {
		newStatus = StatusAssigned
	}
	agentID := cmd.TargetAgentID
	previous := incident.lastRecordedStatus()
	return accept(
		IncidentPatch{Status: newStatus, AssignedAgentID: &agentID},
		StatusChange{
			PreviousStatus: &previous,
			NewStatus:      newStatus,
			ChangedByID:    actor.UserID,
			ChangedByRole:  actor.Role,
			ChangedAt:      o.now(),
		},
	)
}

func (o *Orchestrator) executeChangeStatus(incident Incident, cmd ChangeStatusCommand, actor Actor) Decision {
	verdict := EvaluateTransition(incident.Status, cmd.TargetStatus, actor.Role)
	if !verdict.Allowed {
		return reject(verdict.Reason, verdict.Message)
	}

	if actor.Role == RoleAgent && agentIdentityRequired(incident.Status, cmd.TargetStatus) {
		if incident.AssignedAgentID == nil || *incident.AssignedAgentID != actor.UserID {
			return reject(ErrNotAssignedAgent, "only the assigned agent may perform this transition")
		}
	}
	if actor.Role == RoleCitizen && cmd.TargetStatus == StatusReopened && actor.UserID != incident.ReporterID {
		return reject(ErrInsufficientRole, "only the citizen who reported this incident may reopen it")
	}

	if incident.Status == StatusInProgress && cmd.TargetStatus == StatusResolved && len(cmd.EvidencePhotoIDs) == 0 {
		return reject(ErrMissingEvidence, "attach at least one photo documenting the fix before resolving")
	}

	effective := EffectiveStatus(cmd.TargetStatus, incident.AssignedAgentID != nil)
	patch := IncidentPatch{Status: effective}
	now := o.now()
	if effective == StatusResolved && incident.ResolvedAt == nil {
		resolvedAt := now
		patch.ResolvedAt = &resolvedAt
	}
	previous := incident.lastRecordedStatus()
	return accept(patch, StatusChange{
		PreviousStatus: &previous,
		NewStatus:      cmd.TargetStatus,
		ChangedByID:    actor.UserID,
		ChangedByRole:  actor.Role,
		Comment:        cmd.Comment,
		ChangedAt:      now,
	})
}

// agentIdentityRequired marks the edges only the assigned agent may take.
func agentIdentityRequired(current, target Status) bool {
	switch {
	case current == StatusAssigned && target == StatusInProgress:
		return true
	case current == StatusInProgress && target == StatusResolved:
		return true
	}
	return false
}

// ApplyDecision merges an accepted decision into a copy of the incident,
// appending the audit entry to a copied history slice. The input incident is
// left untouched. Applying a rejected decision is a caller bug.
func ApplyDecision(incident Incident, decision Decision) Incident {
	if !decision.Accepted {
		panic("workflow: ApplyDecision called with a rejected decision")
	}
	updated := incident
	updated.Status = decision.Patch.Status
	if decision.Patch.AssignedAgentID != nil {
		agentID := *decision.Patch.AssignedAgentID
		updated.AssignedAgentID = &agentID
	}
	if decision.Patch.ResolvedAt != nil {
		resolvedAt := *decision.Patch.ResolvedAt
		updated.ResolvedAt = &resolvedAt
	}
	updated.UpdatedAt = decision.Audit.ChangedAt
	updated.History = make([]StatusChange, 0, len(incident.History)+1)
	updated.History = append(updated.History, incident.History...)
	updated.History = append(updated.History, decision.Audit)
	return updated
}
