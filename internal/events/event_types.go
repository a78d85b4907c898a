package events

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated       EventType = "incident_created"
	EventIncidentStatusChanged EventType = "incident_status_changed"
	EventIncidentAssigned      EventType = "incident_assigned"
	EventIncidentCommentAdded  EventType = "incident_comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string        `json:"user_id"`
	Role   workflow.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID string      `json:"incident_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IncidentCreatedPayload payload.
type IncidentCreatedPayload struct {
	CategoryID string            `json:"category_id"`
	Priority   workflow.Priority `json:"priority"`
	Title      string            `json:"title"`
	Address    string            `json:"address,omitempty"`
}

// IncidentStatusChangedPayload payload. RecordedStatus keeps the momentary
// status (REJECTED, REOPENED) when it differs from the durable one.
type IncidentStatusChangedPayload struct {
	OldStatus      workflow.Status `json:"old_status"`
	NewStatus      workflow.Status `json:"new_status"`
	RecordedStatus workflow.Status `json:"recorded_status,omitempty"`
	Comment        string          `json:"comment,omitempty"`
}

// IncidentAssignedPayload payload.
type IncidentAssignedPayload struct {
	AssignedAgentID string          `json:"assigned_agent_id"`
	PreviousAgentID *string         `json:"previous_agent_id,omitempty"`
	Status          workflow.Status `json:"status"`
}

// IncidentCommentAddedPayload payload.
type IncidentCommentAddedPayload struct {
	CommentID   string        `json:"comment_id"`
	AuthorRole  workflow.Role `json:"author_role"`
	BodyPreview string        `json:"body_preview"`
}
