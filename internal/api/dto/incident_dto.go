package dto

import (
	"time"

	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// CreateIncidentRequest payload.
type CreateIncidentRequest struct {
	CategoryID  string            `json:"category_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Priority    workflow.Priority `json:"priority"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Address     string            `json:"address"`
	Photos      []PhotoRequest    `json:"photos"`
}

// PhotoRequest describes uploaded photo metadata.
type PhotoRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ChangeStatusRequest payload for workflow transitions.
type ChangeStatusRequest struct {
	Status           workflow.Status `json:"status"`
	Comment          string          `json:"comment"`
	EvidencePhotoIDs []string        `json:"evidence_photo_ids"`
}

// AssignAgentRequest payload.
type AssignAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// IncidentSummary response.
type IncidentSummary struct {
	ID              string            `json:"id"`
	ExternalKey     string            `json:"external_key"`
	CategoryID      string            `json:"category_id"`
	Title           string            `json:"title"`
	Status          workflow.Status   `json:"status"`
	Priority        workflow.Priority `json:"priority"`
	Address         string            `json:"address,omitempty"`
	AssignedAgentID *string           `json:"assigned_agent_id"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IncidentDetailResponse provides full incident info.
type IncidentDetailResponse struct {
	ID              string                 `json:"id"`
	ExternalKey     string                 `json:"external_key"`
	ReporterID      string                 `json:"reporter_id"`
	CategoryID      string                 `json:"category_id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Status          workflow.Status        `json:"status"`
	Priority        workflow.Priority      `json:"priority"`
	Latitude        float64                `json:"latitude"`
	Longitude       float64                `json:"longitude"`
	Address         string                 `json:"address,omitempty"`
	AssignedAgentID *string                `json:"assigned_agent_id"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	ResolvedAt      *time.Time             `json:"resolved_at"`
	History         []StatusChangeResponse `json:"history"`
	Comments        []CommentResponse      `json:"comments"`
	Photos          []PhotoResponse        `json:"photos"`
}

// StatusChangeResponse represents one audit trail entry.
type StatusChangeResponse struct {
	ID             string           `json:"id"`
	PreviousStatus *workflow.Status `json:"previous_status"`
	NewStatus      workflow.Status  `json:"new_status"`
	ChangedByID    string           `json:"changed_by_id"`
	ChangedByRole  workflow.Role    `json:"changed_by_role"`
	Comment        string           `json:"comment,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// CommentResponse represents a thread comment.
type CommentResponse struct {
	ID         string        `json:"id"`
	AuthorID   string        `json:"author_id"`
	AuthorRole workflow.Role `json:"author_role"`
	Body       string        `json:"body"`
	CreatedAt  time.Time     `json:"created_at"`
}

// PhotoResponse metadata.
type PhotoResponse struct {
	ID        string           `json:"id"`
	Kind      domain.PhotoKind `json:"kind"`
	FileName  string           `json:"file_name"`
	MimeType  string           `json:"mime_type"`
	SizeBytes int64            `json:"size_bytes"`
	CreatedAt time.Time        `json:"created_at"`
}

// CategoryResponse payload.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

// StatsResponse is the supervisor dashboard payload.
type StatsResponse struct {
	ByStatus          map[workflow.Status]int64   `json:"by_status"`
	ByCategory        map[string]int64            `json:"by_category"`
	ByPriority        map[workflow.Priority]int64 `json:"by_priority"`
	AvgResolutionSecs float64                     `json:"avg_resolution_seconds"`
	GeneratedAt       time.Time                   `json:"generated_at"`
}

// FromIncident maps the domain aggregate to a summary.
func FromIncident(incident domain.Incident) IncidentSummary {
	return IncidentSummary{
		ID:              incident.ID,
		ExternalKey:     incident.ExternalKey,
		CategoryID:      incident.CategoryID,
		Title:           incident.Title,
		Status:          incident.Status,
		Priority:        incident.Priority,
		Address:         incident.Address,
		AssignedAgentID: incident.AssignedAgentID,
		CreatedAt:       incident.CreatedAt,
		UpdatedAt:       incident.UpdatedAt,
	}
}

// FromIncidentList maps a slice of aggregates.
func FromIncidentList(incidents []domain.Incident) []IncidentSummary {
	out := make([]IncidentSummary, 0, len(incidents))
	for _, incident := range incidents {
		out = append(out, FromIncident(incident))
	}
	return out
}

// FromStatusChange maps an audit row.
func FromStatusChange(change domain.StatusChange) StatusChangeResponse {
	return StatusChangeResponse{
		ID:             change.ID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		ChangedByID:    change.ChangedByID,
		ChangedByRole:  change.ChangedByRole,
		Comment:        change.Comment,
		CreatedAt:      change.CreatedAt,
	}
}

// FromComment maps a thread comment.
func FromComment(comment domain.IncidentComment) CommentResponse {
	return CommentResponse{
		ID:         comment.ID,
		AuthorID:   comment.AuthorID,
		AuthorRole: comment.AuthorRole,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
	}
}

// FromPhoto maps photo metadata.
func FromPhoto(photo domain.IncidentPhoto) PhotoResponse {
	return PhotoResponse{
		ID:        photo.ID,
		Kind:      photo.Kind,
		FileName:  photo.FileName,
		MimeType:  photo.MimeType,
		SizeBytes: photo.SizeBytes,
		CreatedAt: photo.CreatedAt,
	}
}

// FromIncidentDetail maps the aggregate with related records.
func FromIncidentDetail(incident domain.Incident, history []domain.StatusChange, comments []domain.IncidentComment, photos []domain.IncidentPhoto) IncidentDetailResponse {
	resp := IncidentDetailResponse{
		ID:              incident.ID,
		ExternalKey:     incident.ExternalKey,
		ReporterID:      incident.ReporterID,
		CategoryID:      incident.CategoryID,
		Title:           incident.Title,
		Description:     incident.Description,
		Status:          incident.Status,
		Priority:        incident.Priority,
		Latitude:        incident.Latitude,
		Longitude:       incident.Longitude,
		Address:         incident.Address,
		AssignedAgentID: incident.AssignedAgentID,
		CreatedAt:       incident.CreatedAt,
		UpdatedAt:       incident.UpdatedAt,
		ResolvedAt:      incident.ResolvedAt,
		History:         make([]StatusChangeResponse, 0, len(history)),
		Comments:        make([]CommentResponse, 0, len(comments)),
		Photos:          make([]PhotoResponse, 0, len(photos)),
	}
	for _, change := range history {
		resp.History = append(resp.History, FromStatusChange(change))
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, FromComment(comment))
	}
	for _, photo := range photos {
		resp.Photos = append(resp.Photos, FromPhoto(photo))
	}
	return resp
}
