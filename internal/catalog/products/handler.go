package products

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler exposes product endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, audit: audit, validator: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireUser)
	r.Get("/", h.handleList)
	r.Get("/count", h.handleCount)
	r.Get("/{id}", h.handleGet)
	r.Group(func(r chi.Router) {
		r.Use(shared.RequireRole(shared.RoleAdmin))
		r.Post("/", h.handleCreate)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}/name", h.handleRename)
		r.Delete("/{id}", h.handleDelete)
		r.Put("/{id}/restore", h.handleRestore)
	})
}

type sizePayload struct {
	Label    string `json:"label" validate:"required"`
	Quantity int    `json:"quantity"`
}

type productPayload struct {
	Name        string        `json:"name" validate:"required,min=1,max=150"`
	Description string        `json:"description" validate:"max=500"`
	Price       float64       `json:"price" validate:"gte=0"`
	Cost        float64       `json:"cost" validate:"gte=0"`
	CategoryID  string        `json:"categoryId" validate:"required"`
	Sizes       []sizePayload `json:"sizes" validate:"dive"`
}

type renamePayload struct {
	Name string `json:"name" validate:"required,min=1,max=150"`
}

type sizeResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
}

type productResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	Price        float64        `json:"price"`
	Cost         float64        `json:"cost"`
	Quantity     int            `json:"quantity"`
	QuantitySold int            `json:"quantitySold"`
	CategoryID   string         `json:"categoryId"`
	Sizes        []sizeResponse `json:"sizes"`
	CreatedAt    time.Time      `json:"createdAt"`
	DeletedAt    *time.Time     `json:"deletedAt,omitempty"`
}

func toResponse(p Product) productResponse {
	sizes := make([]sizeResponse, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, sizeResponse{ID: s.ID, Label: s.Label, Quantity: s.Quantity})
	}
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Cost:         p.Cost,
		Quantity:     p.Quantity,
		QuantitySold: p.QuantitySold,
		CategoryID:   p.CategoryID,
		Sizes:        sizes,
		CreatedAt:    p.CreatedAt,
		DeletedAt:    p.DeletedAt,
	}
}

func toSizeInputs(payload []sizePayload) []SizeInput {
	inputs := make([]SizeInput, 0, len(payload))
	for _, s := range payload {
		inputs = append(inputs, SizeInput{Label: s.Label, Quantity: s.Quantity})
	}
	return inputs
}

func (h *Handler) recordAudit(r *http.Request, action, productID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "product",
		EntityID: productID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit product action", slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListLive
	switch r.URL.Query().Get("filter") {
	case "deleted":
		filter = ListDeleted
	case "all":
		filter = ListAll
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not list products")
		return
	}
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toResponse(p))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountLive(r.Context())
	if err != nil {
		h.logger.Error("count products", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not count products")
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not load product")
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	p, err := h.service.Create(r.Context(), CreateProductRequest{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Cost:        payload.Cost,
		CategoryID:  payload.CategoryID,
		Sizes:       toSizeInputs(payload.Sizes),
	})
	if err != nil {
		h.respondServiceError(w, "create product", err)
		return
	}
	h.recordAudit(r, "product.create", p.ID, map[string]any{"name": p.Name})
	shared.RespondJSON(w, http.StatusCreated, toResponse(*p))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid product payload")
		return
	}

	id := chi.URLParam(r, "id")
	p, err := h.service.Update(r.Context(), id, UpdateProductRequest{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Cost:        payload.Cost,
		CategoryID:  payload.CategoryID,
		Sizes:       toSizeInputs(payload.Sizes),
	})
	if err != nil {
		h.respondServiceError(w, "update product", err)
		return
	}
	h.recordAudit(r, "product.update", id, map[string]any{"name": p.Name})
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

func (h *Handler) handleRename(w http.ResponseWriter, r *http.Request) {
	var payload renamePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.service.Rename(r.Context(), id, payload.Name); err != nil {
		h.respondServiceError(w, "rename product", err)
		return
	}
	h.recordAudit(r, "product.rename", id, map[string]any{"name": payload.Name})
	shared.RespondMessage(w, http.StatusOK, "product renamed")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, "delete product", err)
		return
	}
	h.recordAudit(r, "product.delete", id, nil)
	shared.RespondMessage(w, http.StatusOK, "product deleted")
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Restore(r.Context(), id); err != nil {
		h.respondServiceError(w, "restore product", err)
		return
	}
	h.recordAudit(r, "product.restore", id, nil)
	shared.RespondMessage(w, http.StatusOK, "product restored")
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		shared.RespondMessage(w, http.StatusNotFound, "product not found")
	case errors.Is(err, ErrProductLimitReached):
		shared.RespondMessage(w, http.StatusForbidden, "product limit reached")
	case errors.Is(err, ErrNameTaken):
		shared.RespondMessage(w, http.StatusBadRequest, "product name already in use")
	case errors.Is(err, ErrCategoryNotFound):
		shared.RespondMessage(w, http.StatusBadRequest, "category not found")
	case errors.Is(err, ErrTooManySizes),
		errors.Is(err, ErrEmptySizeLabel),
		errors.Is(err, ErrNegativeSizeQuantity),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrEmptyName):
		shared.RespondMessage(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "internal error")
	}
}
