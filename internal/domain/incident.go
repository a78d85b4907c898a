package domain

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// Incident is the aggregate for reported infrastructure issues.
type Incident struct {
	ID              string
	ExternalKey     string
	ReporterID      string
	CategoryID      string
	Title           string
	Description     string
	Status          workflow.Status
	Priority        workflow.Priority
	Latitude        float64
	Longitude       float64
	Address         string
	AssignedAgentID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}

// Snapshot converts the aggregate plus its audit trail into the pure
// workflow view commands are evaluated against.
func (i *Incident) Snapshot(history []StatusChange) workflow.Incident {
	entries := make([]workflow.StatusChange, 0, len(history))
	for _, change := range history {
		entries = append(entries, change.WorkflowEntry())
	}
	return workflow.Incident{
		ID:              i.ID,
		Status:          i.Status,
		Priority:        i.Priority,
		ReporterID:      i.ReporterID,
		AssignedAgentID: i.AssignedAgentID,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
		ResolvedAt:      i.ResolvedAt,
		History:         entries,
	}
}
