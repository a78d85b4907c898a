package workflow

import "time"

// Incident is the snapshot the workflow evaluates commands against. Callers
// own persistence; the workflow never mutates a snapshot it is given.
type Incident struct {
	ID              string
	Status          Status
	Priority        Priority
	ReporterID      string
	AssignedAgentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
	History         []StatusChange
}

// StatusChange is an append-only audit record of one accepted transition.
// PreviousStatus is nil only for the initial NEW entry written at creation.
type StatusChange struct {
	PreviousStatus *Status
	NewStatus      Status
	ChangedByID    string
	ChangedByRole  Role
	Comment        string
	ChangedAt      time.Time
}

// lastRecordedStatus returns the NewStatus of the most recent history entry,
// falling back to the current status when no history was supplied. Chaining
// from the recorded entry keeps history[i].PreviousStatus equal to
// history[i-1].NewStatus even across momentary statuses such as REJECTED.
func (i Incident) lastRecordedStatus() Status {
	if len(i.History) > 0 {
		return i.History[len(i.History)-1].NewStatus
	}
	return i.Status
}
