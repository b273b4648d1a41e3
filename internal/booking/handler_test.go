package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentnexus/internal/auth"
	"rentnexus/internal/fault"
	"rentnexus/pkg/eventstore"
)

// stubService returns canned results so the handler's decoding and status
// mapping can be exercised without a store.
type stubService struct {
	createErr error
	updateErr error
	deleteErr error
	booking   *Booking
}

func (s *stubService) CreateBooking(ctx context.Context, actor auth.Identity, in CreateInput) (*Booking, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.booking, nil
}

func (s *stubService) ListBookings(ctx context.Context, actor auth.Identity, filter ListFilter) ([]Booking, error) {
	if s.booking == nil {
		return nil, nil
	}
	return []Booking{*s.booking}, nil
}

func (s *stubService) UpdateBookingStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, to Status) (*Booking, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.booking, nil
}

func (s *stubService) DeleteBooking(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return s.deleteErr
}

func (s *stubService) BookingHistory(ctx context.Context, actor auth.Identity, id uuid.UUID) ([]eventstore.Event, error) {
	return nil, nil
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
	router := asIdentity(actor)(h.Routes())
	router.ServeHTTP(rec, req)
	return rec
}

func sampleBooking() *Booking {
	return &Booking{
		ID:         uuid.New(),
		PropertyID: uuid.New(),
		TenantID:   uuid.New(),
		LandlordID: uuid.New(),
		StartDate:  day(10),
		EndDate:    day(15),
		Status:     StatusPending,
		Version:    1,
	}
}

func TestHandleCreate(t *testing.T) {
	tenant := auth.Identity{ID: uuid.New(), Role: auth.RoleTenant}

	t.Run("created", func(t *testing.T) {
		b := sampleBooking()
		rec := serve(t, &stubService{booking: b}, tenant, http.MethodPost, "/", map[string]string{
			"property_id": b.PropertyID.String(),
			"start_date":  "2030-06-01",
			"end_date":    "2030-06-10",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var got Booking
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, b.ID, got.ID)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		router := asIdentity(tenant)(NewHandler(&stubService{}).Routes())
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing property id", func(t *testing.T) {
		rec := serve(t, &stubService{}, tenant, http.MethodPost, "/", map[string]string{
			"start_date": "2030-06-01",
			"end_date":   "2030-06-10",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unparseable dates", func(t *testing.T) {
		rec := serve(t, &stubService{}, tenant, http.MethodPost, "/", map[string]string{
			"property_id": uuid.New().String(),
			"start_date":  "June 1st",
			"end_date":    "2030-06-10",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rfc3339 dates accepted", func(t *testing.T) {
		rec := serve(t, &stubService{booking: sampleBooking()}, tenant, http.MethodPost, "/", map[string]string{
			"property_id": uuid.New().String(),
			"start_date":  "2030-06-01T00:00:00Z",
			"end_date":    "2030-06-10T00:00:00Z",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		tests := []struct {
			err  error
			code int
		}{
			{fault.Forbidden("only tenants can create bookings"), http.StatusForbidden},
			{fault.NotFound("property not found"), http.StatusNotFound},
			{fault.Conflict("dates unavailable"), http.StatusConflict},
			{fault.InvalidState("property is not available for booking"), http.StatusUnprocessableEntity},
			{fault.InvalidInput("start date must not be after end date"), http.StatusBadRequest},
		}
		for _, tt := range tests {
			rec := serve(t, &stubService{createErr: tt.err}, tenant, http.MethodPost, "/", map[string]string{
				"property_id": uuid.New().String(),
				"start_date":  "2030-06-01",
				"end_date":    "2030-06-10",
			})
			assert.Equal(t, tt.code, rec.Code, "error %v", tt.err)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, fault.Message(tt.err), body["error"])
		}
	})
}

func TestHandleList(t *testing.T) {
	tenant := auth.Identity{ID: uuid.New(), Role: auth.RoleTenant}

	t.Run("empty list is a json array", func(t *testing.T) {
		rec := serve(t, &stubService{}, tenant, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("invalid status filter", func(t *testing.T) {
		rec := serve(t, &stubService{}, tenant, http.MethodGet, "/?status=ARCHIVED", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("valid status filter", func(t *testing.T) {
		rec := serve(t, &stubService{booking: sampleBooking()}, tenant, http.MethodGet, "/?status=PENDING", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandleUpdateStatus(t *testing.T) {
	landlord := auth.Identity{ID: uuid.New(), Role: auth.RoleLandlord}
	b := sampleBooking()

	t.Run("ok", func(t *testing.T) {
		rec := serve(t, &stubService{booking: b}, landlord, http.MethodPut, "/"+b.ID.String(), map[string]string{"status": "APPROVED"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(t, &stubService{booking: b}, landlord, http.MethodPut, "/not-a-uuid", map[string]string{"status": "APPROVED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := serve(t, &stubService{booking: b}, landlord, http.MethodPut, "/"+b.ID.String(), map[string]string{"status": "ARCHIVED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict surfaces as 409", func(t *testing.T) {
		svc := &stubService{updateErr: fault.Conflict("property is already booked for the selected dates")}
		rec := serve(t, svc, landlord, http.MethodPut, "/"+b.ID.String(), map[string]string{"status": "APPROVED"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	tenant := auth.Identity{ID: uuid.New(), Role: auth.RoleTenant}
	id := uuid.New()

	t.Run("ok", func(t *testing.T) {
		rec := serve(t, &stubService{}, tenant, http.MethodDelete, "/"+id.String(), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := &stubService{deleteErr: fault.Forbidden("cannot delete this booking")}
		rec := serve(t, svc, tenant, http.MethodDelete, "/"+id.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("non-pending", func(t *testing.T) {
		svc := &stubService{deleteErr: fault.InvalidState("only pending bookings may be deleted")}
		rec := serve(t, svc, tenant, http.MethodDelete, "/"+id.String(), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestHandleHistory(t *testing.T) {
	tenant := auth.Identity{ID: uuid.New(), Role: auth.RoleTenant}
	rec := serve(t, &stubService{}, tenant, http.MethodGet, fmt.Sprintf("/%s/events", uuid.New()), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
