package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnexus/internal/fault"
)

func TestParseApprovalStatus(t *testing.T) {
	for _, s := range []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected} {
		got, err := ParseApprovalStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, raw := range []string{"", "approved", "DELETED"} {
		_, err := ParseApprovalStatus(raw)
		require.Error(t, err, "ParseApprovalStatus(%q)", raw)
		assert.True(t, fault.IsKind(err, fault.KindInvalidInput))
	}
}

func TestPropertyBookable(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		approved  ApprovalStatus
		want      bool
	}{
		{"approved and available", true, ApprovalApproved, true},
		{"approved but unavailable", false, ApprovalApproved, false},
		{"available but unmoderated", true, ApprovalPending, false},
		{"available but rejected", true, ApprovalRejected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Property{Available: tt.available, Approved: tt.approved}
			assert.Equal(t, tt.want, p.Bookable())
		})
	}
}
