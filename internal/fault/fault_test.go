package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("not yours"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{InvalidInput("bad dates"), http.StatusBadRequest},
		{InvalidState("not bookable"), http.StatusUnprocessableEntity},
		{Conflict("dates taken"), http.StatusConflict},
		{Internal(errors.New("db down")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, HTTPStatus(tt.err), "error %v", tt.err)
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("dates taken")
	wrapped := fmt.Errorf("create booking: %w", base)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestMessageHidesCauses(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Wrap(KindInternal, "failed to update read model", cause)

	assert.Equal(t, "failed to update read model", Message(err))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "internal error", Message(errors.New("raw")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "dates taken", Conflict("dates taken").Error())
	assert.Equal(t, "lookup failed: boom", Wrap(KindInternal, "lookup failed", errors.New("boom")).Error())
}
