package workflow

import "fmt"

// transitionRule is one directed edge in the legal transition graph together
// with the roles permitted to take it. Everything not listed is denied.
type transitionRule struct {
	target Status
	roles  []Role
}

var supervisory = []Role{RoleSupervisor, RoleAdmin}
var reopeners = []Role{RoleCitizen, RoleSupervisor, RoleAdmin}

// transitionRules is the single declarative edge table. Agent identity
// (is the actor the assigned agent, is the citizen the reporter) is checked
// by the orchestrator, which holds the full incident snapshot.
var transitionRules = map[Status][]transitionRule{
	StatusNew: {
		{target: StatusAssigned, roles: supervisory},
	},
	StatusAssigned: {
		{target: StatusInProgress, roles: []Role{RoleAgent, RoleSupervisor, RoleAdmin}},
	},
	StatusInProgress: {
		{target: StatusResolved, roles: []Role{RoleAgent}},
	},
	StatusResolved: {
		{target: StatusValidated, roles: supervisory},
		{target: StatusRejected, roles: supervisory},
		{target: StatusReopened, roles: reopeners},
	},
	StatusValidated: {
		{target: StatusClosed, roles: supervisory},
		{target: StatusReopened, roles: reopeners},
	},
	StatusClosed: {
		{target: StatusReopened, roles: reopeners},
	},
}

// EvaluateTransition reports whether actorRole may move an incident from
// current to target. It is a pure function of its inputs: evaluating the same
// edge twice yields the same decision.
func EvaluateTransition(current, target Status, actorRole Role) TransitionDecision {
	if !current.IsValid() || !target.IsValid() {
		// Unknown statuses indicate a caller bug, not a workflow outcome.
		panic(fmt.Sprintf("workflow: unknown status in transition %q -> %q", current, target))
	}
	if current == target {
		return TransitionDecision{
			Reason:  ErrAlreadyInState,
			Message: fmt.Sprintf("incident is already %s", current),
		}
	}
	var edge *transitionRule
	for i := range transitionRules[current] {
		if transitionRules[current][i].target == target {
			edge = &transitionRules[current][i]
			break
		}
	}
	if edge == nil {
		return TransitionDecision{
			Reason:  ErrInvalidTransition,
			Message: fmt.Sprintf("cannot move incident from %s to %s", current, target),
		}
	}
	for _, role := range edge.roles {
		if role == actorRole {
			return TransitionDecision{Allowed: true}
		}
	}
	return TransitionDecision{
		Reason:  ErrInsufficientRole,
		Message: fmt.Sprintf("role %s may not move incident from %s to %s", actorRole, current, target),
	}
}

// EffectiveStatus resolves the durable status an incident lands in after a
// transition to target. REJECTED sends work back to IN_PROGRESS; REOPENED
// re-enters at IN_PROGRESS when an agent is still assigned, otherwise NEW.
// Both remain visible in the audit trail as momentary statuses.
func EffectiveStatus(target Status, agentAssigned bool) Status {
	switch target {
	case StatusRejected:
		return StatusInProgress
	case StatusReopened:
		if agentAssigned {
			return StatusInProgress
		}
		return StatusNew
	default:
		return target
	}
}
