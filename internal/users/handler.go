package users

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler exposes user administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes. All routes require the ADMIN role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireRole(shared.RoleAdmin))
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}/role", h.handleChangeRole)
	r.Put("/{id}/authorize", h.handleAuthorize)
}

type userResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	Authorized bool      `json:"authorized"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(u User) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Authorized: u.Authorized,
		CreatedAt:  u.CreatedAt,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not list users")
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toResponse(u))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("get user", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not load user")
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*user))
}

func (h *Handler) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role := r.URL.Query().Get("role")
	if err := h.service.ChangeRole(r.Context(), id, role); err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			shared.RespondMessage(w, http.StatusBadRequest, "role must be ADMIN or SELLER")
		case errors.Is(err, shared.ErrNotFound):
			shared.RespondMessage(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("change role", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not change role")
		}
		return
	}
	shared.RespondMessage(w, http.StatusOK, "role updated")
}

func (h *Handler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Authorize(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("authorize user", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not authorize user")
		return
	}
	shared.RespondMessage(w, http.StatusOK, "user authorized")
}
