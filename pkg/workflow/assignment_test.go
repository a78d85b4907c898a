package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAssignment(t *testing.T) {
	agentA := "agent-a"

	tests := []struct {
		name       string
		incident   Incident
		target     string
		role       Role
		allowed    bool
		wantReason ErrorKind
	}{
		{
			name:     "supervisor assigns unassigned incident",
			incident: Incident{Status: StatusNew},
			target:   agentA,
			role:     RoleSupervisor,
			allowed:  true,
		},
		{
			name:     "admin reassigns to a different agent",
			incident: Incident{Status: StatusInProgress, AssignedAgentID: &agentA},
			target:   "agent-b",
			role:     RoleAdmin,
			allowed:  true,
		},
		{
			name:       "agent may not assign",
			incident:   Incident{Status: StatusNew},
			target:     agentA,
			role:       RoleAgent,
			wantReason: ErrInsufficientRole,
		},
		{
			name:       "citizen may not assign",
			incident:   Incident{Status: StatusNew},
			target:     agentA,
			role:       RoleCitizen,
			wantReason: ErrInsufficientRole,
		},
		{
			name:       "closed incident must be reopened first",
			incident:   Incident{Status: StatusClosed},
			target:     agentA,
			role:       RoleAdmin,
			wantReason: ErrInvalidStateForAssignment,
		},
		{
			name:       "assigning the current agent is a no-op",
			incident:   Incident{Status: StatusAssigned, AssignedAgentID: &agentA},
			target:     agentA,
			role:       RoleSupervisor,
			wantReason: ErrAlreadyAssigned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := EvaluateAssignment(tt.incident, tt.target, tt.role)
			if tt.allowed {
				require.True(t, verdict.Allowed, "expected assignment to be allowed: %s", verdict.Message)
				return
			}
			require.False(t, verdict.Allowed)
			assert.Equal(t, tt.wantReason, verdict.Reason)
			assert.NotEmpty(t, verdict.Message)
		})
	}
}

func TestEvaluateAssignmentIdempotent(t *testing.T) {
	incident := Incident{Status: StatusNew}
	first := EvaluateAssignment(incident, "agent-a", RoleSupervisor)
	second := EvaluateAssignment(incident, "agent-a", RoleSupervisor)
	assert.Equal(t, first, second)
}
