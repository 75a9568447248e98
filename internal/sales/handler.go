package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler exposes sale endpoints.
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

// MountRoutes registers sale routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireUser)
	r.Get("/", h.handleList)
	r.Get("/last", h.handleLastFive)
	r.Get("/{id}", h.handleGet)
	r.Post("/", h.handleCreate)
	r.Delete("/{id}", h.handleDelete)
}

type saleItemPayload struct {
	ProductID string `json:"productId" validate:"required"`
	SizeID    string `json:"sizeId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type salePayload struct {
	PaymentMethod string            `json:"paymentMethod" validate:"required"`
	Discount      float64           `json:"discount"`
	Gift          bool              `json:"gift"`
	Observation   string            `json:"observation" validate:"max=500"`
	Items         []saleItemPayload `json:"items" validate:"dive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload salePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid sale payload")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	items := make([]CreateSaleItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, CreateSaleItem{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
		})
	}

	view, err := h.service.CreateSale(r.Context(), CreateSaleRequest{
		UserID:        sess.User(),
		PaymentMethod: payload.PaymentMethod,
		Discount:      payload.Discount,
		Gift:          payload.Gift,
		Observation:   payload.Observation,
		Items:         items,
	})
	if err != nil {
		h.respondSaleError(w, err)
		return
	}
	h.recordAudit(r, "sale.create", view.ID, map[string]any{
		"total":    view.TotalAmount,
		"subtotal": view.Subtotal,
		"items":    len(view.Items),
	})
	shared.RespondJSON(w, http.StatusCreated, view)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteSale(r.Context(), id); err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "sale not found")
			return
		}
		h.logger.Error("delete sale", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not delete sale")
		return
	}
	h.recordAudit(r, "sale.delete", id, nil)
	shared.RespondMessage(w, http.StatusOK, "sale deleted")
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			shared.RespondMessage(w, http.StatusNotFound, "sale not found")
			return
		}
		h.logger.Error("get sale", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not load sale")
		return
	}
	shared.RespondJSON(w, http.StatusOK, view)
}

// handleList serves /sales with optional start, end and gift query
// parameters. Dates use YYYY-MM-DD; the end date is inclusive.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startRaw, endRaw, giftRaw := q.Get("start"), q.Get("end"), q.Get("gift")

	var (
		views []SaleView
		err   error
	)
	switch {
	case startRaw != "" && endRaw != "" && giftRaw != "":
		start, end, perr := parseRange(startRaw, endRaw)
		if perr != nil {
			shared.RespondMessage(w, http.StatusBadRequest, "invalid date range")
			return
		}
		views, err = h.service.ListByDateRangeAndGift(r.Context(), start, end, giftRaw == "true")
	case startRaw != "" && endRaw != "":
		start, end, perr := parseRange(startRaw, endRaw)
		if perr != nil {
			shared.RespondMessage(w, http.StatusBadRequest, "invalid date range")
			return
		}
		views, err = h.service.ListByDateRange(r.Context(), start, end)
	case giftRaw != "":
		views, err = h.service.ListByGift(r.Context(), giftRaw == "true")
	default:
		views, err = h.service.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("list sales", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not list sales")
		return
	}
	shared.RespondJSON(w, http.StatusOK, views)
}

func (h *Handler) handleLastFive(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListLastFive(r.Context())
	if err != nil {
		h.logger.Error("list last sales", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not list sales")
		return
	}
	shared.RespondJSON(w, http.StatusOK, views)
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, nil
}

func (h *Handler) recordAudit(r *http.Request, action, saleID string, meta map[string]any) {
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
		Entity:   "sale",
		EntityID: saleID,
		Meta:     meta,
	}); err != nil {
		h.logger.Warn("audit sale action", slog.String("action", action), slog.Any("error", err))
	}
}

func (h *Handler) respondSaleError(w http.ResponseWriter, err error) {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		shared.RespondMessage(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, ErrInvalidPaymentMethod),
		errors.Is(err, ErrInvalidDiscount),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrSizeMismatch),
		errors.Is(err, ErrDiscountExceedsTotal):
		shared.RespondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrSizeNotFound):
		shared.RespondMessage(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("create sale", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not record sale")
	}
}
