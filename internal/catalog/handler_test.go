package catalog

import (
	"bytes"
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

// stubService returns canned results so the handler's decoding and status
// mapping can be exercised without a database or search index.
type stubService struct {
	property  *Property
	updateIn  UpdatePropertyInput
	deletedID uuid.UUID
	err       error
}

func (s *stubService) CreateProperty(ctx context.Context, actor auth.Identity, in CreatePropertyInput) (*Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.property, nil
}

func (s *stubService) GetProperty(ctx context.Context, id uuid.UUID) (*Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.property, nil
}

func (s *stubService) UpdateProperty(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdatePropertyInput) (*Property, error) {
	s.updateIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.property, nil
}

func (s *stubService) DeleteProperty(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func (s *stubService) ListProperties(ctx context.Context, filter ListFilter) ([]Property, error) {
	return nil, s.err
}

func (s *stubService) MyProperties(ctx context.Context, actor auth.Identity) ([]Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.property == nil {
		return nil, nil
	}
	return []Property{*s.property}, nil
}

func (s *stubService) SearchProperties(ctx context.Context, query string) ([]Property, error) {
	return nil, s.err
}

func (s *stubService) SetAvailability(ctx context.Context, actor auth.Identity, id uuid.UUID, available bool) (*Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.property, nil
}

func (s *stubService) Moderate(ctx context.Context, actor auth.Identity, id uuid.UUID, status ApprovalStatus, notes string) (*Property, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.property, nil
}

func (s *stubService) AddReview(ctx context.Context, actor auth.Identity, propertyID uuid.UUID, rating int, comment string) (*Review, error) {
	return nil, s.err
}

func (s *stubService) ListReviews(ctx context.Context, propertyID uuid.UUID) ([]Review, error) {
	return nil, s.err
}

// asIdentity injects a resolved identity the way the auth middleware would.
func asIdentity(id auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
		})
	}
}

func serve(t *testing.T, svc Service, actor auth.Identity, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	rec := httptest.NewRecorder()

	h := NewHandler(svc)
	router := h.Routes(asIdentity(actor))
	router.ServeHTTP(rec, req)
	return rec
}

func sampleProperty(landlordID uuid.UUID) *Property {
	return &Property{
		ID:           uuid.New(),
		LandlordID:   landlordID,
		Title:        "Sunny loft",
		Location:     "Lisbon",
		Rent:         1400,
		Bedrooms:     2,
		Bathrooms:    1,
		PropertyType: "apartment",
		Available:    true,
		Approved:     ApprovalApproved,
		Version:      1,
	}
}

func TestHandleUpdateProperty(t *testing.T) {
	landlord := auth.Identity{ID: uuid.New(), Role: auth.RoleLandlord}
	p := sampleProperty(landlord.ID)

	t.Run("partial body only touches sent fields", func(t *testing.T) {
		svc := &stubService{property: p}
		rec := serve(t, svc, landlord, http.MethodPut, "/properties/"+p.ID.String(), map[string]interface{}{
			"rent": 1500.0,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		require.NotNil(t, svc.updateIn.Rent)
		assert.Equal(t, 1500.0, *svc.updateIn.Rent)
		assert.Nil(t, svc.updateIn.Title)
		assert.Nil(t, svc.updateIn.Description)
		assert.Nil(t, svc.updateIn.Bedrooms)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(t, &stubService{property: p}, landlord, http.MethodPut, "/properties/not-a-uuid", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/properties/"+p.ID.String(), bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router := NewHandler(&stubService{}).Routes(asIdentity(landlord))
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		tests := []struct {
			err  error
			code int
		}{
			{fault.Forbidden("cannot manage this property"), http.StatusForbidden},
			{fault.NotFound("property not found"), http.StatusNotFound},
			{fault.InvalidInput("title must not be empty"), http.StatusBadRequest},
		}
		for _, tt := range tests {
			rec := serve(t, &stubService{err: tt.err}, landlord, http.MethodPut, "/properties/"+p.ID.String(), map[string]interface{}{})
			assert.Equal(t, tt.code, rec.Code, "error %v", tt.err)
		}
	})
}

func TestHandleDeleteProperty(t *testing.T) {
	landlord := auth.Identity{ID: uuid.New(), Role: auth.RoleLandlord}
	id := uuid.New()

	t.Run("ok", func(t *testing.T) {
		svc := &stubService{}
		rec := serve(t, svc, landlord, http.MethodDelete, "/properties/"+id.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, svc.deletedID)

		var body map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "property deleted", body["message"])
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(t, &stubService{}, landlord, http.MethodDelete, "/properties/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := &stubService{err: fault.Forbidden("cannot manage this property")}
		rec := serve(t, svc, landlord, http.MethodDelete, "/properties/"+id.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandleMyProperties(t *testing.T) {
	landlord := auth.Identity{ID: uuid.New(), Role: auth.RoleLandlord}

	t.Run("returns own listings", func(t *testing.T) {
		p := sampleProperty(landlord.ID)
		rec := serve(t, &stubService{property: p}, landlord, http.MethodGet, "/properties/mine", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []Property
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, p.ID, got[0].ID)
	})

	t.Run("empty list is a json array", func(t *testing.T) {
		rec := serve(t, &stubService{}, landlord, http.MethodGet, "/properties/mine", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("forbidden for admins", func(t *testing.T) {
		admin := auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}
		svc := &stubService{err: fault.Forbidden("admins do not own listings")}
		rec := serve(t, svc, admin, http.MethodGet, "/properties/mine", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
