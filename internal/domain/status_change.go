package domain

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// StatusChange is an immutable audit trail entry for one accepted workflow
// decision. Rows are only ever appended, never updated or deleted.
type StatusChange struct {
	ID             string
	IncidentID     string
	PreviousStatus *workflow.Status
	NewStatus      workflow.Status
	ChangedByID    string
	ChangedByRole  workflow.Role
	Comment        string
	CreatedAt      time.Time
}

// WorkflowEntry strips persistence fields for the workflow snapshot.
func (c StatusChange) WorkflowEntry() workflow.StatusChange {
	return workflow.StatusChange{
		PreviousStatus: c.PreviousStatus,
		NewStatus:      c.NewStatus,
		ChangedByID:    c.ChangedByID,
		ChangedByRole:  c.ChangedByRole,
		Comment:        c.Comment,
		ChangedAt:      c.CreatedAt,
	}
}

// StatusChangeFromAudit builds the persisted row for an accepted decision.
func StatusChangeFromAudit(incidentID string, audit workflow.StatusChange) *StatusChange {
	return &StatusChange{
		IncidentID:     incidentID,
		PreviousStatus: audit.PreviousStatus,
		NewStatus:      audit.NewStatus,
		ChangedByID:    audit.ChangedByID,
		ChangedByRole:  audit.ChangedByRole,
		Comment:        audit.Comment,
		CreatedAt:      audit.ChangedAt,
	}
}
