// internal/catalog/handler.go
package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

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

// Routes mounts the catalog endpoints. Reads are public; writes need an
// authenticated principal.
func (h *Handler) Routes(authmw func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/properties", h.handleList)
	r.Get("/properties/search", h.handleSearch)
	r.Get("/properties/{id}", h.handleGet)
	r.Get("/properties/{id}/reviews", h.handleListReviews)

	r.Group(func(r chi.Router) {
		r.Use(authmw)
		r.Post("/properties", h.handleCreate)
		r.Get("/properties/mine", h.handleMyProperties)
		r.Put("/properties/{id}", h.handleUpdate)
		r.Delete("/properties/{id}", h.handleDelete)
		r.Patch("/properties/{id}/availability", h.handleSetAvailability)
		r.Patch("/properties/{id}/status", h.handleModerate)
		r.Post("/properties/{id}/reviews", h.handleAddReview)
	})
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	var req struct {
		Title        string  `json:"title"`
		Description  string  `json:"description"`
		Location     string  `json:"location"`
		Rent         float64 `json:"rent"`
		Bedrooms     int     `json:"bedrooms"`
		Bathrooms    int     `json:"bathrooms"`
		PropertyType string  `json:"property_type"`
		Amenities    string  `json:"amenities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	property, err := h.service.CreateProperty(r.Context(), actor, CreatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Rent:         req.Rent,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		PropertyType: req.PropertyType,
		Amenities:    req.Amenities,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, property)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	property, err := h.service.GetProperty(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, property)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	var req struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		Location     *string  `json:"location"`
		Rent         *float64 `json:"rent"`
		Bedrooms     *int     `json:"bedrooms"`
		Bathrooms    *int     `json:"bathrooms"`
		PropertyType *string  `json:"property_type"`
		Amenities    *string  `json:"amenities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	property, err := h.service.UpdateProperty(r.Context(), actor, id, UpdatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Rent:         req.Rent,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		PropertyType: req.PropertyType,
		Amenities:    req.Amenities,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, property)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	if err := h.service.DeleteProperty(r.Context(), actor, id); err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "property deleted"})
}

func (h *Handler) handleMyProperties(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	properties, err := h.service.MyProperties(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if properties == nil {
		properties = []Property{}
	}

	httpx.WriteJSON(w, http.StatusOK, properties)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Location:     q.Get("location"),
		PropertyType: q.Get("property_type"),
	}

	if raw := q.Get("min_rent"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, fault.InvalidInput("invalid min_rent"))
			return
		}
		filter.MinRent = &v
	}
	if raw := q.Get("max_rent"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			httpx.WriteError(w, fault.InvalidInput("invalid max_rent"))
			return
		}
		filter.MaxRent = &v
	}
	if raw := q.Get("bedrooms"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, fault.InvalidInput("invalid bedrooms"))
			return
		}
		filter.Bedrooms = &v
	}
	if raw := q.Get("status"); raw != "" {
		status, err := ParseApprovalStatus(raw)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		filter.Status = &status
	}

	properties, err := h.service.ListProperties(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if properties == nil {
		properties = []Property{}
	}

	httpx.WriteJSON(w, http.StatusOK, properties)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	properties, err := h.service.SearchProperties(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if properties == nil {
		properties = []Property{}
	}

	httpx.WriteJSON(w, http.StatusOK, properties)
}

func (h *Handler) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	var req struct {
		Available *bool `json:"available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Available == nil {
		httpx.WriteError(w, fault.InvalidInput("available is required"))
		return
	}

	property, err := h.service.SetAvailability(r.Context(), actor, id, *req.Available)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, property)
}

func (h *Handler) handleModerate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}
	status, err := ParseApprovalStatus(req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	property, err := h.service.Moderate(r.Context(), actor, id, status, req.Notes)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, property)
}

func (h *Handler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	review, err := h.service.AddReview(r.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid property id"))
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if reviews == nil {
		reviews = []Review{}
	}

	httpx.WriteJSON(w, http.StatusOK, reviews)
}
