// internal/identity/handler.go
package identity

import (
	"encoding/json"
	"net/http"

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

// Routes mounts the identity endpoints. Register/login/profile lookup are
// open; the role change route needs an authenticated admin.
func (h *Handler) Routes(authmw func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Get("/users/{id}", h.handleGetUser)
	r.With(authmw).Get("/users", h.handleListUsers)
	r.With(authmw).Patch("/users/{id}/role", h.handleUpdateRole)
	return r
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if users == nil {
		users = []User{}
	}

	httpx.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	if req.Role == "" {
		req.Role = string(auth.RoleTenant)
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password, role)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}

	user, token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid user id"))
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, fault.Unauthenticated("not authenticated"))
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, fault.InvalidInput("invalid user id"))
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, fault.InvalidInput("malformed request body"))
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), actor, id, role)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}
