package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityworks/incident-service/internal/events"
	apperrors "github.com/cityworks/incident-service/pkg/util"
	"github.com/cityworks/incident-service/pkg/workflow"
)

func TestCreateIncidentDefaults(t *testing.T) {
	f := newFixture()
	category := f.seedCategory()

	incident, err := f.service.CreateIncident(context.Background(), "user-1", IncidentCreateInput{
		CategoryID:  category.ID,
		Title:       "  Pothole on Main St  ",
		Description: "Deep pothole near the crosswalk.",
		Photos:      []PhotoInput{{StorageKey: "s3/abc", FileName: "pothole.jpg"}},
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusNew, incident.Status)
	assert.Equal(t, workflow.PriorityMedium, incident.Priority)
	assert.Equal(t, "Pothole on Main St", incident.Title)
	assert.NotEmpty(t, incident.ExternalKey)

	photos, err := f.photos.ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "pothole.jpg", photos[0].FileName)

	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventIncidentCreated, f.dispatcher.published[0].Type)
}

func TestCreateIncidentRejectsInactiveCategory(t *testing.T) {
	f := newFixture()
	category := f.seedCategory()
	category.IsActive = false
	require.NoError(t, f.categories.Update(context.Background(), category))

	_, err := f.service.CreateIncident(context.Background(), "user-1", IncidentCreateInput{
		CategoryID:  category.ID,
		Title:       "Broken bench",
		Description: "Slats missing.",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestAssignAgentAdvancesNewIncident(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusNew, nil)

	supervisor := workflow.Actor{UserID: "sup-1", Role: workflow.RoleSupervisor}
	updated, err := f.assignment.AssignAgent(context.Background(), supervisor, incident.ID, agent.ID)
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedAgentID)
	assert.Equal(t, agent.ID, *updated.AssignedAgentID)

	history, err := f.changes.ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.StatusAssigned, history[0].NewStatus)
	assert.Equal(t, "sup-1", history[0].ChangedByID)

	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventIncidentAssigned, f.dispatcher.published[0].Type)
}

func TestAssignAgentRejectedForPlainAgent(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusNew, nil)

	actor := workflow.Actor{UserID: agent.ID, Role: workflow.RoleAgent}
	_, err := f.assignment.AssignAgent(context.Background(), actor, incident.ID, agent.ID)
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, string(workflow.ErrInsufficientRole), domainErr.Code)

	history, _ := f.changes.ListByIncident(context.Background(), incident.ID)
	assert.Empty(t, history)
	assert.Empty(t, f.dispatcher.published)
}

func TestAssignAgentRequiresFieldAgentTarget(t *testing.T) {
	f := newFixture()
	supervisorAccount := f.seedAgent(workflow.RoleSupervisor)
	incident := f.seedIncident("user-1", workflow.StatusNew, nil)

	actor := workflow.Actor{UserID: "adm-1", Role: workflow.RoleAdmin}
	_, err := f.assignment.AssignAgent(context.Background(), actor, incident.ID, supervisorAccount.ID)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestChangeStatusPersistsAuditTrail(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusAssigned, &agent.ID)

	actor := workflow.Actor{UserID: agent.ID, Role: workflow.RoleAgent}
	updated, err := f.service.ChangeStatus(context.Background(), actor, incident.ID, workflow.StatusInProgress, "on site", nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, updated.Status)

	history, err := f.changes.ListByIncident(context.Background(), incident.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.StatusInProgress, history[0].NewStatus)
	assert.Equal(t, "on site", history[0].Comment)
	require.NotNil(t, history[0].PreviousStatus)
	assert.Equal(t, workflow.StatusAssigned, *history[0].PreviousStatus)
}

func TestChangeStatusRejectionPersistsNothing(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusAssigned, &agent.ID)

	actor := workflow.Actor{UserID: agent.ID, Role: workflow.RoleAgent}
	_, err := f.service.ChangeStatus(context.Background(), actor, incident.ID, workflow.StatusValidated, "", nil)
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, string(workflow.ErrInvalidTransition), domainErr.Code)

	stored, err := f.incidents.GetByID(context.Background(), incident.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusAssigned, stored.Status)

	history, _ := f.changes.ListByIncident(context.Background(), incident.ID)
	assert.Empty(t, history)
}

func TestResolveRequiresEvidence(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusInProgress, &agent.ID)
	actor := workflow.Actor{UserID: agent.ID, Role: workflow.RoleAgent}

	_, err := f.service.ChangeStatus(context.Background(), actor, incident.ID, workflow.StatusResolved, "done", nil)
	require.Error(t, err)
	assert.Equal(t, string(workflow.ErrMissingEvidence), apperrors.ToDomainError(err).Code)

	photo, err := f.service.AddEvidencePhoto(context.Background(), agent, incident.ID, PhotoInput{
		StorageKey: "s3/evidence",
		FileName:   "fixed.jpg",
	})
	require.NoError(t, err)

	updated, err := f.service.ChangeStatus(context.Background(), actor, incident.ID, workflow.StatusResolved, "done", []string{photo.ID})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
}

func TestResolveRejectsUnknownEvidencePhoto(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusInProgress, &agent.ID)
	actor := workflow.Actor{UserID: agent.ID, Role: workflow.RoleAgent}

	_, err := f.service.ChangeStatus(context.Background(), actor, incident.ID, workflow.StatusResolved, "done", []string{"missing"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestRejectionReturnsIncidentToInProgress(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusResolved, &agent.ID)

	supervisor := workflow.Actor{UserID: "sup-1", Role: workflow.RoleSupervisor}
	updated, err := f.service.ChangeStatus(context.Background(), supervisor, incident.ID, workflow.StatusRejected, "not fixed", nil)
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusInProgress, updated.Status)

	history, _ := f.changes.ListByIncident(context.Background(), incident.ID)
	require.Len(t, history, 1)
	assert.Equal(t, workflow.StatusRejected, history[0].NewStatus)

	require.Len(t, f.dispatcher.published, 1)
	payload, ok := f.dispatcher.published[0].Payload.(events.IncidentStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, workflow.StatusRejected, payload.RecordedStatus)
	assert.Equal(t, workflow.StatusInProgress, payload.NewStatus)
}

func TestCitizenReopenOnlyByReporter(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusClosed, &agent.ID)

	stranger := workflow.Actor{UserID: "user-2", Role: workflow.RoleCitizen}
	_, err := f.service.ChangeStatus(context.Background(), stranger, incident.ID, workflow.StatusReopened, "still broken", nil)
	require.Error(t, err)
	assert.Equal(t, string(workflow.ErrInsufficientRole), apperrors.ToDomainError(err).Code)

	reporter := workflow.Actor{UserID: "user-1", Role: workflow.RoleCitizen}
	updated, err := f.service.ChangeStatus(context.Background(), reporter, incident.ID, workflow.StatusReopened, "still broken", nil)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusInProgress, updated.Status)
}

func TestGetIncidentForUserEnforcesOwnership(t *testing.T) {
	f := newFixture()
	incident := f.seedIncident("user-1", workflow.StatusNew, nil)

	_, err := f.service.GetIncidentForUser(context.Background(), "user-2", incident.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	detail, err := f.service.GetIncidentForUser(context.Background(), "user-1", incident.ID)
	require.NoError(t, err)
	assert.Equal(t, incident.ID, detail.Incident.ID)
}

func TestListQueueScopesPlainAgents(t *testing.T) {
	f := newFixture()
	agent := f.seedAgent(workflow.RoleAgent)
	mine := f.seedIncident("user-1", workflow.StatusAssigned, &agent.ID)
	f.seedIncident("user-2", workflow.StatusNew, nil)

	agentRecord, err := f.agents.GetByID(context.Background(), agent.ID)
	require.NoError(t, err)

	scoped, err := f.service.ListQueue(context.Background(), agentRecord, IncidentQueueFilter{})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, mine.ID, scoped[0].ID)

	unassigned, err := f.service.ListQueue(context.Background(), agentRecord, IncidentQueueFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Nil(t, unassigned[0].AssignedAgentID)
}

func TestEvidenceUploadRestrictedToAssignedAgent(t *testing.T) {
	f := newFixture()
	assigned := f.seedAgent(workflow.RoleAgent)
	other := f.seedAgent(workflow.RoleAgent)
	incident := f.seedIncident("user-1", workflow.StatusInProgress, &assigned.ID)

	_, err := f.service.AddEvidencePhoto(context.Background(), other, incident.ID, PhotoInput{StorageKey: "s3/x", FileName: "x.jpg"})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestAddCommentPublishesEvent(t *testing.T) {
	f := newFixture()
	incident := f.seedIncident("user-1", workflow.StatusNew, nil)

	reporter := workflow.Actor{UserID: "user-1", Role: workflow.RoleCitizen}
	comment, err := f.service.AddComment(context.Background(), reporter, incident.ID, "any update?")
	require.NoError(t, err)
	assert.Equal(t, "any update?", comment.Body)

	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventIncidentCommentAdded, f.dispatcher.published[0].Type)
}
