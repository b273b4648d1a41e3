package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentnexus/internal/auth"
)

func TestAllowedTransition(t *testing.T) {
	tests := []struct {
		name string
		role auth.Role
		from Status
		to   Status
		want bool
	}{
		{"admin approves", auth.RoleAdmin, StatusPending, StatusApproved, true},
		{"admin rejects", auth.RoleAdmin, StatusPending, StatusRejected, true},
		{"admin cancels pending", auth.RoleAdmin, StatusPending, StatusCancelled, true},
		{"admin cancels approved", auth.RoleAdmin, StatusApproved, StatusCancelled, true},
		{"admin completes approved", auth.RoleAdmin, StatusApproved, StatusCompleted, true},

		{"landlord approves", auth.RoleLandlord, StatusPending, StatusApproved, true},
		{"landlord rejects", auth.RoleLandlord, StatusPending, StatusRejected, true},
		{"landlord cancels approved", auth.RoleLandlord, StatusApproved, StatusCancelled, true},
		{"landlord cannot cancel pending", auth.RoleLandlord, StatusPending, StatusCancelled, false},
		{"landlord cannot complete", auth.RoleLandlord, StatusApproved, StatusCompleted, false},

		{"tenant cancels pending", auth.RoleTenant, StatusPending, StatusCancelled, true},
		{"tenant cannot approve", auth.RoleTenant, StatusPending, StatusApproved, false},
		{"tenant cannot reject", auth.RoleTenant, StatusPending, StatusRejected, false},
		{"tenant cannot cancel approved", auth.RoleTenant, StatusApproved, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedTransition(tt.role, tt.from, tt.to))
		})
	}
}

// Terminal states have no outgoing edges for anyone.
func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	roles := []auth.Role{auth.RoleTenant, auth.RoleLandlord, auth.RoleAdmin}
	statuses := []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

	for _, from := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		for _, role := range roles {
			for _, to := range statuses {
				assert.False(t, AllowedTransition(role, from, to),
					"%s should not move %s -> %s", role, from, to)
			}
		}
	}
}

// No edge re-enters PENDING: it is the unique initial state.
func TestNothingTransitionsToPending(t *testing.T) {
	roles := []auth.Role{auth.RoleTenant, auth.RoleLandlord, auth.RoleAdmin}
	statuses := []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

	for _, role := range roles {
		for _, from := range statuses {
			assert.False(t, AllowedTransition(role, from, StatusPending))
		}
	}
}
