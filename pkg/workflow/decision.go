package workflow

import "time"

// ErrorKind classifies why a command was rejected. Rejections are expected
// outcomes returned as data, never as Go errors.
type ErrorKind string

const (
	ErrInvalidTransition         ErrorKind = "INVALID_TRANSITION"
	ErrAlreadyInState            ErrorKind = "ALREADY_IN_STATE"
	ErrInsufficientRole          ErrorKind = "INSUFFICIENT_ROLE"
	ErrNotAssignedAgent          ErrorKind = "NOT_ASSIGNED_AGENT"
	ErrMissingEvidence           ErrorKind = "MISSING_EVIDENCE"
	ErrInvalidStateForAssignment ErrorKind = "INVALID_STATE_FOR_ASSIGNMENT"
	ErrAlreadyAssigned           ErrorKind = "ALREADY_ASSIGNED"
)

// Command is the tagged input variant accepted by the orchestrator.
type Command interface {
	isCommand()
}

// ChangeStatusCommand requests a status transition.
type ChangeStatusCommand struct {
	TargetStatus     Status
	Comment          string
	EvidencePhotoIDs []string
}

func (ChangeStatusCommand) isCommand() {}

// AssignAgentCommand requests agent assignment or reassignment.
type AssignAgentCommand struct {
	TargetAgentID string
}

func (AssignAgentCommand) isCommand() {}

// IncidentPatch lists the fields the caller must merge into its copy of the
// incident after an accepted decision. Nil pointers mean "unchanged".
type IncidentPatch struct {
	Status          Status
	AssignedAgentID *string
	ResolvedAt      *time.Time
}

// Decision is the orchestrator output: either an accepted patch plus audit
// entry, or a rejection with a user-displayable message.
type Decision struct {
	Accepted bool
	Patch    IncidentPatch
	Audit    StatusChange
	Reason   ErrorKind
	Message  string
}

func accept(patch IncidentPatch, audit StatusChange) Decision {
	return Decision{Accepted: true, Patch: patch, Audit: audit}
}

func reject(reason ErrorKind, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

// TransitionDecision is the rules engine verdict for one edge.
type TransitionDecision struct {
	Allowed bool
	Reason  ErrorKind
	Message string
}

// AssignmentDecision is the assignment policy verdict.
type AssignmentDecision struct {
	Allowed bool
	Reason  ErrorKind
	Message string
}
