package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/internal/events"
	"github.com/cityworks/incident-service/internal/repository"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// IncidentService coordinates incident reporting and the status workflow.
type IncidentService struct {
	incidents    repository.IncidentRepository
	changes      repository.StatusChangeRepository
	comments     repository.CommentRepository
	photos       repository.PhotoRepository
	categories   repository.CategoryRepository
	agents       repository.AgentRepository
	dispatcher   events.Dispatcher
	orchestrator *workflow.Orchestrator
}

// IncidentDependencies bundles repositories for the incident service.
type IncidentDependencies struct {
	IncidentRepo     repository.IncidentRepository
	StatusChangeRepo repository.StatusChangeRepository
	CommentRepo      repository.CommentRepository
	PhotoRepo        repository.PhotoRepository
	CategoryRepo     repository.CategoryRepository
	AgentRepo        repository.AgentRepository
	Dispatcher       events.Dispatcher
}

// IncidentCreateInput describes the citizen report payload.
type IncidentCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Priority    workflow.Priority
	Latitude    float64
	Longitude   float64
	Address     string
	Photos      []PhotoInput
}

// PhotoInput defines uploaded photo metadata.
type PhotoInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// IncidentUserFilter describes citizen listing filters.
type IncidentUserFilter struct {
	Statuses   []workflow.Status
	CategoryID *string
	Limit      int
	Offset     int
}

// IncidentQueueFilter describes agent queue filters.
type IncidentQueueFilter struct {
	Statuses    []workflow.Status
	Priorities  []workflow.Priority
	CategoryID  *string
	AssigneeID  *string
	Unassigned  bool
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// IncidentDetail groups an incident with its related records.
type IncidentDetail struct {
	Incident domain.Incident
	History  []domain.StatusChange
	Comments []domain.IncidentComment
	Photos   []domain.IncidentPhoto
}

// NewIncidentService constructs the service.
func NewIncidentService(deps IncidentDependencies) *IncidentService {
	return &IncidentService{
		incidents:    deps.IncidentRepo,
		changes:      deps.StatusChangeRepo,
		comments:     deps.CommentRepo,
		photos:       deps.PhotoRepo,
		categories:   deps.CategoryRepo,
		agents:       deps.AgentRepo,
		dispatcher:   deps.Dispatcher,
		orchestrator: workflow.NewOrchestrator(),
	}
}

// CreateIncident files a new report for a citizen. The incident starts in
// NEW regardless of input.
func (s *IncidentService) CreateIncident(ctx context.Context, reporterID string, input IncidentCreateInput) (*domain.Incident, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewConflict("category inactive", map[string]any{"category_id": category.ID})
	}

	incident := &domain.Incident{
		ExternalKey: generateIncidentKey(),
		ReporterID:  reporterID,
		CategoryID:  category.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      workflow.StatusNew,
		Priority:    input.Priority,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Address:     strings.TrimSpace(input.Address),
	}
	if incident.Priority == "" {
		incident.Priority = workflow.PriorityMedium
	}

	if err := s.incidents.Create(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, photo := range input.Photos {
		record := &domain.IncidentPhoto{
			IncidentID:   incident.ID,
			UploadedByID: reporterID,
			Kind:         domain.PhotoKindReport,
			StorageKey:   photo.StorageKey,
			FileName:     photo.FileName,
			MimeType:     photo.MimeType,
			SizeBytes:    photo.SizeBytes,
		}
		if err := s.photos.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCreated,
		IncidentID: incident.ID,
		Actor:      events.Actor{UserID: reporterID, Role: workflow.RoleCitizen},
		Payload: events.IncidentCreatedPayload{
			CategoryID: incident.CategoryID,
			Priority:   incident.Priority,
			Title:      incident.Title,
			Address:    incident.Address,
		},
	})
	return incident, nil
}

// ListUserIncidents returns a citizen's own reports.
func (s *IncidentService) ListUserIncidents(ctx context.Context, reporterID string, filter IncidentUserFilter) ([]domain.Incident, error) {
	repoFilter := repository.IncidentFilter{
		ReporterID: &reporterID,
		CategoryID: filter.CategoryID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	items, err := s.incidents.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// GetIncidentForUser fetches an incident ensuring reporter ownership.
func (s *IncidentService) GetIncidentForUser(ctx context.Context, reporterID, incidentID string) (*IncidentDetail, error) {
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.ReporterID != reporterID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.loadDetail(ctx, incident)
}

// ListQueue returns incidents visible to staff, high priority first.
func (s *IncidentService) ListQueue(ctx context.Context, agent *domain.Agent, filter IncidentQueueFilter) ([]domain.Incident, error) {
	repoFilter := repository.IncidentFilter{
		CategoryID:      filter.CategoryID,
		AssignedAgentID: filter.AssigneeID,
		Unassigned:      filter.Unassigned,
		Statuses:        filter.Statuses,
		Priorities:      filter.Priorities,
		SearchTerm:      filter.SearchTerm,
		CreatedFrom:     filter.CreatedFrom,
		CreatedTo:       filter.CreatedTo,
		Limit:           filter.Limit,
		Offset:          filter.Offset,
	}
	s.applyAgentScope(&repoFilter, agent)
	items, err := s.incidents.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// GetIncidentForAgent fetches an incident for staff access.
func (s *IncidentService) GetIncidentForAgent(ctx context.Context, agent *domain.Agent, incidentID string) (*IncidentDetail, error) {
	if agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, incident)
}

// ChangeStatus evaluates a status transition through the workflow and
// persists the outcome when accepted. Rejections map to DomainError with
// the workflow reason as code.
func (s *IncidentService) ChangeStatus(ctx context.Context, actor workflow.Actor, incidentID string, target workflow.Status, comment string, evidencePhotoIDs []string) (*domain.Incident, error) {
	if !target.IsValid() {
		return nil, apperrors.NewValidationError("unknown target status", map[string]any{"status": string(target)})
	}
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	history, err := s.changes.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if target == workflow.StatusResolved && len(evidencePhotoIDs) > 0 {
		if err := s.verifyEvidencePhotos(ctx, incident.ID, evidencePhotoIDs); err != nil {
			return nil, err
		}
	}

	command := workflow.ChangeStatusCommand{
		TargetStatus:     target,
		Comment:          strings.TrimSpace(comment),
		EvidencePhotoIDs: evidencePhotoIDs,
	}
	decision := s.orchestrator.Execute(incident.Snapshot(history), command, actor)
	if !decision.Accepted {
		return nil, apperrors.NewWorkflowRejection(decision.Reason, decision.Message)
	}

	oldStatus := incident.Status
	incident.Status = decision.Patch.Status
	if decision.Patch.AssignedAgentID != nil {
		incident.AssignedAgentID = decision.Patch.AssignedAgentID
	}
	if decision.Patch.ResolvedAt != nil {
		incident.ResolvedAt = decision.Patch.ResolvedAt
	}
	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.changes.Create(ctx, domain.StatusChangeFromAudit(incident.ID, decision.Audit)); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentStatusChanged,
		IncidentID: incident.ID,
		Actor:      events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IncidentStatusChangedPayload{
			OldStatus:      oldStatus,
			NewStatus:      incident.Status,
			RecordedStatus: decision.Audit.NewStatus,
			Comment:        decision.Audit.Comment,
		},
	})
	return incident, nil
}

// ListHistory returns the audit trail ensuring the caller may see it.
func (s *IncidentService) ListHistory(ctx context.Context, actor workflow.Actor, incidentID string) ([]domain.StatusChange, error) {
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == workflow.RoleCitizen && incident.ReporterID != actor.UserID {
		return nil, apperrors.NewForbidden("access denied")
	}
	history, err := s.changes.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return history, nil
}

// AddComment appends a comment to the incident thread.
func (s *IncidentService) AddComment(ctx context.Context, actor workflow.Actor, incidentID, body string) (*domain.IncidentComment, error) {
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == workflow.RoleCitizen && incident.ReporterID != actor.UserID {
		return nil, apperrors.NewForbidden("access denied")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body required", nil)
	}

	comment := &domain.IncidentComment{
		IncidentID: incident.ID,
		AuthorID:   actor.UserID,
		AuthorRole: actor.Role,
		Body:       body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventIncidentCommentAdded,
		IncidentID: incident.ID,
		Actor:      events.Actor{UserID: actor.UserID, Role: actor.Role},
		Payload: events.IncidentCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorRole:  comment.AuthorRole,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// AddEvidencePhoto stores resolution evidence uploaded by the assigned agent.
func (s *IncidentService) AddEvidencePhoto(ctx context.Context, agent *domain.Agent, incidentID string, input PhotoInput) (*domain.IncidentPhoto, error) {
	if agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	incident, err := s.getIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	if agent.Role == workflow.RoleAgent {
		if incident.AssignedAgentID == nil || *incident.AssignedAgentID != agent.ID {
			return nil, apperrors.NewForbidden("only the assigned agent may upload evidence")
		}
	}

	photo := &domain.IncidentPhoto{
		IncidentID:   incident.ID,
		UploadedByID: agent.ID,
		Kind:         domain.PhotoKindEvidence,
		StorageKey:   input.StorageKey,
		FileName:     input.FileName,
		MimeType:     input.MimeType,
		SizeBytes:    input.SizeBytes,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, apperrors.MapError(err)
	}
	return photo, nil
}

func (s *IncidentService) getIncident(ctx context.Context, incidentID string) (*domain.Incident, error) {
	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, apperrors.MapError(err)
	}
	return incident, nil
}

func (s *IncidentService) loadDetail(ctx context.Context, incident *domain.Incident) (*IncidentDetail, error) {
	history, err := s.changes.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	photos, err := s.photos.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &IncidentDetail{
		Incident: *incident,
		History:  history,
		Comments: comments,
		Photos:   photos,
	}, nil
}

// verifyEvidencePhotos checks that every referenced ID is an evidence photo
// belonging to the incident. The workflow itself only requires a non-empty
// list; dangling references are caught here.
func (s *IncidentService) verifyEvidencePhotos(ctx context.Context, incidentID string, photoIDs []string) error {
	existing, err := s.photos.ListByIncidentAndKind(ctx, incidentID, domain.PhotoKindEvidence)
	if err != nil {
		return apperrors.MapError(err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, photo := range existing {
		known[photo.ID] = struct{}{}
	}
	for _, id := range photoIDs {
		if _, ok := known[id]; !ok {
			return apperrors.NewValidationError("unknown evidence photo", map[string]any{"photo_id": id})
		}
	}
	return nil
}

func (s *IncidentService) applyAgentScope(filter *repository.IncidentFilter, agent *domain.Agent) {
	if agent == nil || agent.Role != workflow.RoleAgent {
		return
	}
	// Plain agents browse their own queue unless explicitly asking for
	// unassigned incidents to pick up.
	if filter.Unassigned || filter.AssignedAgentID != nil {
		return
	}
	filter.AssignedAgentID = &agent.ID
}

func generateIncidentKey() string {
	return "INC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (s *IncidentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
