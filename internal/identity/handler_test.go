package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnexus/internal/auth"
	"rentnexus/internal/fault"
)

type stubService struct {
	users []User
	err   error
}

func (s *stubService) Register(ctx context.Context, email, name, password string, role auth.Role) (*User, error) {
	return nil, s.err
}

func (s *stubService) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	return nil, "", s.err
}

func (s *stubService) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return nil, s.err
}

func (s *stubService) ListUsers(ctx context.Context, actor auth.Identity) ([]User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users, nil
}

func (s *stubService) UpdateUserRole(ctx context.Context, actor auth.Identity, id uuid.UUID, role auth.Role) (*User, error) {
	return nil, s.err
}

func asIdentity(id auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
		})
	}
}

func TestHandleListUsers(t *testing.T) {
	admin := auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}

	serveUsers := func(svc Service, actor auth.Identity) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		rec := httptest.NewRecorder()
		NewHandler(svc).Routes(asIdentity(actor)).ServeHTTP(rec, req)
		return rec
	}

	t.Run("returns directory", func(t *testing.T) {
		u := User{ID: uuid.New(), Email: "a@example.com", Name: "A", Role: auth.RoleTenant}
		rec := serveUsers(&stubService{users: []User{u}}, admin)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []User
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, u.ID, got[0].ID)
	})

	t.Run("empty directory is a json array", func(t *testing.T) {
		rec := serveUsers(&stubService{}, admin)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("forbidden for non-admins", func(t *testing.T) {
		tenant := auth.Identity{ID: uuid.New(), Role: auth.RoleTenant}
		svc := &stubService{err: fault.Forbidden("only admins can list users")}
		rec := serveUsers(svc, tenant)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
