package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []Status{
	StatusNew, StatusAssigned, StatusInProgress, StatusResolved,
	StatusValidated, StatusRejected, StatusReopened, StatusClosed,
}

var allRoles = []Role{RoleCitizen, RoleAgent, RoleSupervisor, RoleAdmin}

func TestEvaluateTransition(t *testing.T) {
	tests := []struct {
		name       string
		current    Status
		target     Status
		role       Role
		allowed    bool
		wantReason ErrorKind
	}{
		{
			name:    "supervisor assigns new incident",
			current: StatusNew,
			target:  StatusAssigned,
			role:    RoleSupervisor,
			allowed: true,
		},
		{
			name:    "admin assigns new incident",
			current: StatusNew,
			target:  StatusAssigned,
			role:    RoleAdmin,
			allowed: true,
		},
		{
			name:       "agent may not assign",
			current:    StatusNew,
			target:     StatusAssigned,
			role:       RoleAgent,
			wantReason: ErrInsufficientRole,
		},
		{
			name:    "agent starts work",
			current: StatusAssigned,
			target:  StatusInProgress,
			role:    RoleAgent,
			allowed: true,
		},
		{
			name:    "supervisor starts work",
			current: StatusAssigned,
			target:  StatusInProgress,
			role:    RoleSupervisor,
			allowed: true,
		},
		{
			name:       "citizen may not start work",
			current:    StatusAssigned,
			target:     StatusInProgress,
			role:       RoleCitizen,
			wantReason: ErrInsufficientRole,
		},
		{
			name:    "agent resolves",
			current: StatusInProgress,
			target:  StatusResolved,
			role:    RoleAgent,
			allowed: true,
		},
		{
			name:       "supervisor may not resolve on behalf of agent",
			current:    StatusInProgress,
			target:     StatusResolved,
			role:       RoleSupervisor,
			wantReason: ErrInsufficientRole,
		},
		{
			name:    "supervisor validates resolution",
			current: StatusResolved,
			target:  StatusValidated,
			role:    RoleSupervisor,
			allowed: true,
		},
		{
			name:    "admin rejects resolution",
			current: StatusResolved,
			target:  StatusRejected,
			role:    RoleAdmin,
			allowed: true,
		},
		{
			name:       "agent may not validate own work",
			current:    StatusResolved,
			target:     StatusValidated,
			role:       RoleAgent,
			wantReason: ErrInsufficientRole,
		},
		{
			name:    "supervisor closes validated incident",
			current: StatusValidated,
			target:  StatusClosed,
			role:    RoleSupervisor,
			allowed: true,
		},
		{
			name:    "citizen reopens resolved incident",
			current: StatusResolved,
			target:  StatusReopened,
			role:    RoleCitizen,
			allowed: true,
		},
		{
			name:    "citizen reopens validated incident",
			current: StatusValidated,
			target:  StatusReopened,
			role:    RoleCitizen,
			allowed: true,
		},
		{
			name:    "admin reopens closed incident",
			current: StatusClosed,
			target:  StatusReopened,
			role:    RoleAdmin,
			allowed: true,
		},
		{
			name:       "agent may not reopen",
			current:    StatusClosed,
			target:     StatusReopened,
			role:       RoleAgent,
			wantReason: ErrInsufficientRole,
		},
		{
			name:       "no shortcut from new to in_progress",
			current:    StatusNew,
			target:     StatusInProgress,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
		{
			name:       "no shortcut from new to resolved",
			current:    StatusNew,
			target:     StatusResolved,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
		{
			name:       "no shortcut from assigned to closed",
			current:    StatusAssigned,
			target:     StatusClosed,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
		{
			name:       "no going back from in_progress to assigned",
			current:    StatusInProgress,
			target:     StatusAssigned,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
		{
			name:       "closed only exits via reopen",
			current:    StatusClosed,
			target:     StatusInProgress,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
		{
			name:       "new incidents cannot be reopened",
			current:    StatusNew,
			target:     StatusReopened,
			role:       RoleAdmin,
			wantReason: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := EvaluateTransition(tt.current, tt.target, tt.role)
			if tt.allowed {
				require.True(t, verdict.Allowed, "expected edge to be allowed: %s", verdict.Message)
				return
			}
			require.False(t, verdict.Allowed)
			assert.Equal(t, tt.wantReason, verdict.Reason)
			assert.NotEmpty(t, verdict.Message)
		})
	}
}

func TestEvaluateTransitionSelfAlwaysDenied(t *testing.T) {
	for _, status := range allStatuses {
		for _, role := range allRoles {
			verdict := EvaluateTransition(status, status, role)
			require.False(t, verdict.Allowed, "self transition %s must be denied", status)
			assert.Equal(t, ErrAlreadyInState, verdict.Reason)
		}
	}
}

func TestEvaluateTransitionDefaultDeny(t *testing.T) {
	// Every (current, target) pair not in the edge table is denied with
	// INVALID_TRANSITION regardless of role.
	for _, current := range allStatuses {
		for _, target := range allStatuses {
			if current == target || edgeExists(current, target) {
				continue
			}
			for _, role := range allRoles {
				verdict := EvaluateTransition(current, target, role)
				require.False(t, verdict.Allowed, "%s -> %s as %s", current, target, role)
				assert.Equal(t, ErrInvalidTransition, verdict.Reason)
			}
		}
	}
}

func TestEvaluateTransitionIdempotent(t *testing.T) {
	first := EvaluateTransition(StatusResolved, StatusValidated, RoleAgent)
	second := EvaluateTransition(StatusResolved, StatusValidated, RoleAgent)
	assert.Equal(t, first, second)
}

func TestEvaluateTransitionUnknownStatusPanics(t *testing.T) {
	assert.Panics(t, func() {
		EvaluateTransition(Status("BOGUS"), StatusAssigned, RoleAdmin)
	})
}

func TestEffectiveStatus(t *testing.T) {
	tests := []struct {
		name          string
		target        Status
		agentAssigned bool
		want          Status
	}{
		{name: "rejected returns to in_progress", target: StatusRejected, agentAssigned: true, want: StatusInProgress},
		{name: "rejected without agent still in_progress", target: StatusRejected, agentAssigned: false, want: StatusInProgress},
		{name: "reopened with agent resumes work", target: StatusReopened, agentAssigned: true, want: StatusInProgress},
		{name: "reopened without agent restarts queue", target: StatusReopened, agentAssigned: false, want: StatusNew},
		{name: "plain target passes through", target: StatusValidated, agentAssigned: true, want: StatusValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.target, tt.agentAssigned))
		})
	}
}

func TestStatusRegistry(t *testing.T) {
	for _, status := range allStatuses {
		assert.True(t, status.IsValid())
	}
	assert.False(t, Status("UNKNOWN").IsValid())

	for _, status := range allStatuses {
		if status == StatusClosed {
			assert.True(t, status.IsTerminal())
		} else {
			assert.False(t, status.IsTerminal(), "%s must not be terminal", status)
		}
	}

	// Primary chain ordering used for rendering.
	assert.Less(t, StatusNew.DisplayOrder(), StatusAssigned.DisplayOrder())
	assert.Less(t, StatusAssigned.DisplayOrder(), StatusInProgress.DisplayOrder())
	assert.Less(t, StatusInProgress.DisplayOrder(), StatusResolved.DisplayOrder())
	assert.Less(t, StatusResolved.DisplayOrder(), StatusValidated.DisplayOrder())
	assert.Less(t, StatusValidated.DisplayOrder(), StatusClosed.DisplayOrder())
	assert.Equal(t, len(allStatuses), Status("UNKNOWN").DisplayOrder())
}

func edgeExists(current, target Status) bool {
	for _, rule := range transitionRules[current] {
		if rule.target == target {
			return true
		}
	}
	return false
}
