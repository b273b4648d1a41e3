// internal/booking/handler.go
package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rentnexus/internal/auth"
	"rentnexus/internal/fault"
	"rentnexus/internal/httpx"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the booking endpoints; the caller wraps them in the auth
// middleware so every handler can assume a resolved identity.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Put("/{id}", h.handleUpdateStatus)
	r.Delete("/{id}", h.handleDelete)
	r.Get("/{id}/events", h.handleHistory)
	return r
}

type createRequest struct {
	PropertyID uuid.UUID `json:"property_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	Message    string    `json:"message,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}
	if req.PropertyID == uuid.Nil {
		httpx.WriteError(w, fault.InvalidInput("property_id is required"))
		return
	}

	ival, err := parseInterval(req.StartDate, req.EndDate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	b, err := h.service.CreateBooking(r.Context(), actor, CreateInput{
		PropertyID: req.PropertyID,
		Interval:   ival,
		Message:    req.Message,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	var filter ListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		filter.Status = &status
	}

	bookings, err := h.service.ListBookings(r.Context(), actor, filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if bookings == nil {
		bookings = []Booking{}
	}

	httpx.WriteJSON(w, http.StatusOK, bookings)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid booking id"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	to, err := ParseStatus(req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	b, err := h.service.UpdateBookingStatus(r.Context(), actor, id, to)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid booking id"))
		return
	}

	if err := h.service.DeleteBooking(r.Context(), actor, id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "booking deleted"})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid booking id"))
		return
	}

	events, err := h.service.BookingHistory(r.Context(), actor, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, events)
}

// parseInterval accepts calendar dates (2025-01-10) or RFC 3339 instants.
func parseInterval(start, end string) (Interval, error) {
	s, err := parseDate(start)
	if err != nil {
		return Interval{}, fault.InvalidInput("invalid start date")
	}
	e, err := parseDate(end)
	if err != nil {
		return Interval{}, fault.InvalidInput("invalid end date")
	}
	return Interval{Start: s, End: e}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
