package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedOrchestrator(at time.Time) *Orchestrator {
	return &Orchestrator{now: func() time.Time { return at }}
}

func newIncident(status Status) Incident {
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return Incident{
		ID:         "inc-1",
		Status:     status,
		Priority:   PriorityMedium,
		ReporterID: "citizen-1",
		CreatedAt:  created,
		UpdatedAt:  created,
		History: []StatusChange{
			{NewStatus: StatusNew, ChangedByID: "citizen-1", ChangedByRole: RoleCitizen, ChangedAt: created},
		},
	}
}

func TestExecuteAssignAgent(t *testing.T) {
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)
	o := fixedOrchestrator(now)

	incident := newIncident(StatusNew)
	decision := o.Execute(incident, AssignAgentCommand{TargetAgentID: "agent-1"}, Actor{UserID: "admin-1", Role: RoleAdmin})

	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusAssigned, decision.Patch.Status)
	require.NotNil(t, decision.Patch.AssignedAgentID)
	assert.Equal(t, "agent-1", *decision.Patch.AssignedAgentID)

	require.NotNil(t, decision.Audit.PreviousStatus)
	assert.Equal(t, StatusNew, *decision.Audit.PreviousStatus)
	assert.Equal(t, StatusAssigned, decision.Audit.NewStatus)
	assert.Equal(t, "admin-1", decision.Audit.ChangedByID)
	assert.Equal(t, RoleAdmin, decision.Audit.ChangedByRole)
	assert.Equal(t, now, decision.Audit.ChangedAt)

	// The snapshot the orchestrator evaluated is untouched.
	assert.Equal(t, StatusNew, incident.Status)
	assert.Nil(t, incident.AssignedAgentID)
}

func TestExecuteReassignKeepsStatus(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	agent := "agent-1"
	incident := newIncident(StatusInProgress)
	incident.AssignedAgentID = &agent

	decision := o.Execute(incident, AssignAgentCommand{TargetAgentID: "agent-2"}, Actor{UserID: "sup-1", Role: RoleSupervisor})
	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusInProgress, decision.Patch.Status)
	assert.Equal(t, "agent-2", *decision.Patch.AssignedAgentID)
}

func TestExecuteEvidenceGate(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	agent := "agent-1"
	incident := newIncident(StatusInProgress)
	incident.AssignedAgentID = &agent
	actor := Actor{UserID: agent, Role: RoleAgent}

	decision := o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusResolved}, actor)
	require.False(t, decision.Accepted)
	assert.Equal(t, ErrMissingEvidence, decision.Reason)

	decision = o.Execute(incident, ChangeStatusCommand{
		TargetStatus:     StatusResolved,
		EvidencePhotoIDs: []string{"p1"},
	}, actor)
	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusResolved, decision.Patch.Status)
	require.NotNil(t, decision.Patch.ResolvedAt)
}

func TestExecuteIdentityGate(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	agent := "agent-1"
	incident := newIncident(StatusAssigned)
	incident.AssignedAgentID = &agent

	decision := o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusInProgress}, Actor{UserID: "agent-2", Role: RoleAgent})
	require.False(t, decision.Accepted)
	assert.Equal(t, ErrNotAssignedAgent, decision.Reason)

	// The assigned agent and supervisors pass the identity gate.
	decision = o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusInProgress}, Actor{UserID: agent, Role: RoleAgent})
	assert.True(t, decision.Accepted, decision.Message)

	decision = o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusInProgress}, Actor{UserID: "sup-1", Role: RoleSupervisor})
	assert.True(t, decision.Accepted, decision.Message)
}

func TestExecuteReopenRouting(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	reporter := Actor{UserID: "citizen-1", Role: RoleCitizen}

	agent := "agent-1"
	withAgent := newIncident(StatusClosed)
	withAgent.AssignedAgentID = &agent
	decision := o.Execute(withAgent, ChangeStatusCommand{TargetStatus: StatusReopened}, reporter)
	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusInProgress, decision.Patch.Status)
	assert.Equal(t, StatusReopened, decision.Audit.NewStatus)

	withoutAgent := newIncident(StatusClosed)
	decision = o.Execute(withoutAgent, ChangeStatusCommand{TargetStatus: StatusReopened}, reporter)
	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusNew, decision.Patch.Status)
}

func TestExecuteReopenOnlyByReporter(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	incident := newIncident(StatusResolved)

	decision := o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusReopened}, Actor{UserID: "citizen-2", Role: RoleCitizen})
	require.False(t, decision.Accepted)
	assert.Equal(t, ErrInsufficientRole, decision.Reason)

	decision = o.Execute(incident, ChangeStatusCommand{TargetStatus: StatusReopened}, Actor{UserID: "citizen-1", Role: RoleCitizen})
	assert.True(t, decision.Accepted, decision.Message)
}

func TestExecuteTerminalLock(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	incident := newIncident(StatusClosed)
	actor := Actor{UserID: "admin-1", Role: RoleAdmin}

	for _, target := range []Status{StatusAssigned, StatusInProgress, StatusResolved, StatusValidated} {
		decision := o.Execute(incident, ChangeStatusCommand{TargetStatus: target}, actor)
		require.False(t, decision.Accepted, "CLOSED -> %s must be rejected", target)
		assert.Equal(t, ErrInvalidTransition, decision.Reason)
	}
}

func TestExecuteRejectionReturnsToInProgress(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	agent := "agent-1"
	incident := newIncident(StatusResolved)
	incident.AssignedAgentID = &agent

	decision := o.Execute(incident, ChangeStatusCommand{
		TargetStatus: StatusRejected,
		Comment:      "pothole patch already cracking",
	}, Actor{UserID: "sup-1", Role: RoleSupervisor})

	require.True(t, decision.Accepted, decision.Message)
	assert.Equal(t, StatusInProgress, decision.Patch.Status)
	assert.Equal(t, StatusRejected, decision.Audit.NewStatus)
	assert.Equal(t, "pothole patch already cracking", decision.Audit.Comment)
}

func TestExecuteResolvedAtSetOnce(t *testing.T) {
	firstNow := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)
	agent := "agent-1"
	actor := Actor{UserID: agent, Role: RoleAgent}

	incident := newIncident(StatusInProgress)
	incident.AssignedAgentID = &agent

	decision := fixedOrchestrator(firstNow).Execute(incident, ChangeStatusCommand{
		TargetStatus:     StatusResolved,
		EvidencePhotoIDs: []string{"p1"},
	}, actor)
	require.True(t, decision.Accepted, decision.Message)
	incident = ApplyDecision(incident, decision)
	require.NotNil(t, incident.ResolvedAt)
	assert.Equal(t, firstNow, *incident.ResolvedAt)

	// Reject back to IN_PROGRESS, resolve again later: resolvedAt is a
	// historical fact and keeps its first value.
	decision = fixedOrchestrator(firstNow.Add(time.Hour)).Execute(incident, ChangeStatusCommand{
		TargetStatus: StatusRejected,
	}, Actor{UserID: "sup-1", Role: RoleSupervisor})
	require.True(t, decision.Accepted, decision.Message)
	incident = ApplyDecision(incident, decision)
	assert.Equal(t, firstNow, *incident.ResolvedAt)

	decision = fixedOrchestrator(firstNow.Add(2*time.Hour)).Execute(incident, ChangeStatusCommand{
		TargetStatus:     StatusResolved,
		EvidencePhotoIDs: []string{"p2"},
	}, actor)
	require.True(t, decision.Accepted, decision.Message)
	assert.Nil(t, decision.Patch.ResolvedAt)
	incident = ApplyDecision(incident, decision)
	assert.Equal(t, firstNow, *incident.ResolvedAt)
}

func TestHistoryChainInvariant(t *testing.T) {
	// Drive an incident through assignment, work, rejection, a second
	// resolution, validation, closing and reopening, applying each accepted
	// patch. The chain previousStatus == previous entry's newStatus must
	// hold throughout, including across momentary statuses.
	o := NewOrchestrator()
	incident := newIncident(StatusNew)

	steps := []struct {
		command Command
		actor   Actor
	}{
		{AssignAgentCommand{TargetAgentID: "agent-1"}, Actor{UserID: "sup-1", Role: RoleSupervisor}},
		{ChangeStatusCommand{TargetStatus: StatusInProgress}, Actor{UserID: "agent-1", Role: RoleAgent}},
		{ChangeStatusCommand{TargetStatus: StatusResolved, EvidencePhotoIDs: []string{"p1"}}, Actor{UserID: "agent-1", Role: RoleAgent}},
		{ChangeStatusCommand{TargetStatus: StatusRejected, Comment: "not fixed"}, Actor{UserID: "sup-1", Role: RoleSupervisor}},
		{ChangeStatusCommand{TargetStatus: StatusResolved, EvidencePhotoIDs: []string{"p2"}}, Actor{UserID: "agent-1", Role: RoleAgent}},
		{ChangeStatusCommand{TargetStatus: StatusValidated}, Actor{UserID: "sup-1", Role: RoleSupervisor}},
		{ChangeStatusCommand{TargetStatus: StatusClosed}, Actor{UserID: "sup-1", Role: RoleSupervisor}},
		{ChangeStatusCommand{TargetStatus: StatusReopened}, Actor{UserID: "citizen-1", Role: RoleCitizen}},
	}

	for i, step := range steps {
		decision := o.Execute(incident, step.command, step.actor)
		require.True(t, decision.Accepted, "step %d: %s", i, decision.Message)
		incident = ApplyDecision(incident, decision)
	}

	require.Len(t, incident.History, len(steps)+1)
	for i := 1; i < len(incident.History); i++ {
		require.NotNil(t, incident.History[i].PreviousStatus, "entry %d", i)
		assert.Equal(t, incident.History[i-1].NewStatus, *incident.History[i].PreviousStatus, "entry %d", i)
	}
	// Agent stayed assigned through the rejection, so reopening resumes work.
	assert.Equal(t, StatusInProgress, incident.Status)
}

func TestApplyDecisionDoesNotMutateInput(t *testing.T) {
	o := fixedOrchestrator(time.Now())
	incident := newIncident(StatusNew)
	historyLen := len(incident.History)

	decision := o.Execute(incident, AssignAgentCommand{TargetAgentID: "agent-1"}, Actor{UserID: "admin-1", Role: RoleAdmin})
	require.True(t, decision.Accepted)

	updated := ApplyDecision(incident, decision)
	assert.Equal(t, StatusNew, incident.Status)
	assert.Len(t, incident.History, historyLen)
	assert.Equal(t, StatusAssigned, updated.Status)
	assert.Len(t, updated.History, historyLen+1)
}

func TestApplyDecisionRejectedPanics(t *testing.T) {
	assert.Panics(t, func() {
		ApplyDecision(newIncident(StatusNew), Decision{Reason: ErrInvalidTransition})
	})
}
