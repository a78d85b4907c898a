package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cityworks/incident-service/internal/domain"
	"github.com/cityworks/incident-service/internal/events"
	"github.com/cityworks/incident-service/internal/repository"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

// AssignmentService handles incident assignment through the workflow
// assignment policy.
type AssignmentService struct {
	incidents    repository.IncidentRepository
	changes      repository.StatusChangeRepository
	agents       repository.AgentRepository
	dispatcher   events.Dispatcher
	orchestrator *workflow.Orchestrator
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	IncidentRepo     repository.IncidentRepository
	StatusChangeRepo repository.StatusChangeRepository
	AgentRepo        repository.AgentRepository
	Dispatcher       events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		incidents:    deps.IncidentRepo,
		changes:      deps.StatusChangeRepo,
		agents:       deps.AgentRepo,
		dispatcher:   deps.Dispatcher,
		orchestrator: workflow.NewOrchestrator(),
	}
}

// AssignAgent assigns or reassigns an incident to a field agent. Only
// supervisors and administrators pass the workflow policy.
func (s *AssignmentService) AssignAgent(ctx context.Context, actor workflow.Actor, incidentID, targetAgentID string) (*domain.Incident, error) {
	target, err := s.agents.GetByID(ctx, targetAgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": targetAgentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !target.Active {
		return nil, apperrors.NewConflict("agent deactivated", map[string]any{"agent_id": targetAgentID})
	}
	if target.Role != workflow.RoleAgent {
		return nil, apperrors.NewValidationError("assignee must be a field agent", map[string]any{"agent_id": targetAgentID})
	}

	incident, err := s.incidents.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("incident", map[string]any{"incident_id": incidentID})
		}
		return nil, apperrors.MapError(err)
	}
	history, err := s.changes.ListByIncident(ctx, incident.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	command := workflow.AssignAgentCommand{TargetAgentID: target.ID}
	decision := s.orchestrator.Execute(incident.Snapshot(history), command, actor)
	if !decision.Accepted {
		return nil, apperrors.NewWorkflowRejection(decision.Reason, decision.Message)
	}

	previousAgent := incident.AssignedAgentID
	incident.Status = decision.Patch.Status
	incident.AssignedAgentID = decision.Patch.AssignedAgentID
	if err := s.incidents.Update(ctx, incident); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.changes.Create(ctx, domain.StatusChangeFromAudit(incident.ID, decision.Audit)); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAssignmentEvent(ctx, actor, incident, previousAgent)
	return incident, nil
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actor workflow.Actor, incident *domain.Incident, previousAgent *string) {
	if s.dispatcher == nil || incident.AssignedAgentID == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventIncidentAssigned,
		IncidentID: incident.ID,
		Actor:      events.Actor{UserID: actor.UserID, Role: actor.Role},
		Timestamp:  time.Now(),
		Payload: events.IncidentAssignedPayload{
			AssignedAgentID: *incident.AssignedAgentID,
			PreviousAgentID: previousAgent,
			Status:          incident.Status,
		},
	})
}
