package categories

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler exposes category endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireUser)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleAdmin))
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleRename)
		r.Delete("/{id}", h.handleDelete)
		r.Put("/{id}/restore", h.handleRestore)
	})
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type categoryResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func toResponse(c Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, DeletedAt: c.DeletedAt}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	includeDeleted := r.URL.Query().Get("deleted") == "true"
	list, err := h.service.List(r.Context(), includeDeleted)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not list categories")
		return
	}
	out := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toResponse(c))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("get category", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not load category")
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*c))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameTaken):
			shared.RespondMessage(w, http.StatusBadRequest, "category name already in use")
		case errors.Is(err, ErrEmptyName):
			shared.RespondMessage(w, http.StatusBadRequest, "name is required")
		default:
			h.logger.Error("create category", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not create category")
		}
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(*c))
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := h.service.Rename(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.RespondMessage(w, http.StatusNotFound, "category not found")
		case errors.Is(err, ErrNameTaken):
			shared.RespondMessage(w, http.StatusBadRequest, "category name already in use")
		default:
			h.logger.Error("rename category", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not rename category")
		}
		return
	}
	shared.RespondMessage(w, http.StatusOK, "category updated")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.RespondMessage(w, http.StatusNotFound, "category not found")
		case errors.Is(err, ErrInUse):
			shared.RespondMessage(w, http.StatusConflict, "category still has products attached")
		default:
			h.logger.Error("delete category", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not delete category")
		}
		return
	}
	shared.RespondMessage(w, http.StatusOK, "category deleted")
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Restore(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "category not found or not deleted")
			return
		}
		h.logger.Error("restore category", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not restore category")
		return
	}
	shared.RespondMessage(w, http.StatusOK, "category restored")
}
