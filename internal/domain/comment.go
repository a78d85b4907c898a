package domain

import (
	"time"

	"github.com/cityworks/incident-service/pkg/workflow"
)

// IncidentComment captures discussion on an incident thread.
type IncidentComment struct {
	ID         string
	IncidentID string
	AuthorID   string
	AuthorRole workflow.Role
	Body       string
	CreatedAt  time.Time
}

// PhotoKind distinguishes report photos from resolution evidence.
type PhotoKind string

const (
	PhotoKindReport   PhotoKind = "REPORT"
	PhotoKindEvidence PhotoKind = "EVIDENCE"
)

// IncidentPhoto stores metadata for an uploaded photo. Binary storage lives
// behind the storage key; this service only tracks the reference.
type IncidentPhoto struct {
	ID           string
	IncidentID   string
	UploadedByID string
	Kind         PhotoKind
	StorageKey   string
	FileName     string
	MimeType     string
	SizeBytes    int64
	CreatedAt    time.Time
}
