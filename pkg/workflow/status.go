package workflow

// Status enumerates lifecycle states for incidents.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusValidated  Status = "VALIDATED"
	StatusRejected   Status = "REJECTED"
	StatusReopened   Status = "REOPENED"
	StatusClosed     Status = "CLOSED"
)

// Priority enumerates reporting urgency. Priority never gates transitions;
// it is carried for default ordering only.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// statusOrder fixes the rendering/sort order of the primary chain. REJECTED
// and REOPENED are momentary statuses that slot next to the stage they
// interrupt.
var statusOrder = map[Status]int{
	StatusNew:        0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusResolved:   3,
	StatusRejected:   4,
	StatusValidated:  5,
	StatusReopened:   6,
	StatusClosed:     7,
}

// IsValid reports whether s is a registered status.
func (s Status) IsValid() bool {
	_, ok := statusOrder[s]
	return ok
}

// IsTerminal reports whether no forward transition exists from s except
// reopening.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// DisplayOrder returns the sort position of s for callers rendering status
// lists. Unknown statuses sort last.
func (s Status) DisplayOrder() int {
	if order, ok := statusOrder[s]; ok {
		return order
	}
	return len(statusOrder)
}

// IsValid reports whether p is a registered priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
