package reports

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/sales"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler exposes report endpoints.
type Handler struct {
	logger    *slog.Logger
	sales     *sales.Service
	products  *products.Service
	numbers   NumbersSource
	gotenberg *GotenbergClient
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, salesSvc *sales.Service, productsSvc *products.Service, numbers NumbersSource, gotenberg *GotenbergClient) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		sales:     salesSvc,
		products:  productsSvc,
		numbers:   numbers,
		gotenberg: gotenberg,
	}
}

// MountRoutes registers report routes. Reports are restricted to admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(shared.RequireRole(shared.RoleAdmin))
	r.Get("/sales", h.handleSalesReport)
	r.Get("/products", h.handleProductsReport)
	r.Get("/numbers", h.handleNumbers)
}

func (h *Handler) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var views []sales.SaleView
	var err error
	if q.Get("start") != "" && q.Get("end") != "" {
		start, perr := time.Parse("2006-01-02", q.Get("start"))
		if perr != nil {
			shared.RespondMessage(w, http.StatusBadRequest, "invalid start date")
			return
		}
		end, perr := time.Parse("2006-01-02", q.Get("end"))
		if perr != nil {
			shared.RespondMessage(w, http.StatusBadRequest, "invalid end date")
			return
		}
		views, err = h.sales.ListByDateRange(r.Context(), start, end.Add(24*time.Hour-time.Nanosecond))
	} else {
		views, err = h.sales.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("load sales report data", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not build report")
		return
	}

	switch q.Get("format") {
	case "pdf":
		h.servePDF(w, r, BuildSalesHTML(views), "vendas.pdf")
	default:
		var buf bytes.Buffer
		if err := WriteSalesCSV(&buf, views); err != nil {
			h.logger.Error("write sales csv", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not build report")
			return
		}
		serveCSV(w, buf.Bytes(), "vendas.csv")
	}
}

func (h *Handler) handleProductsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := products.ListLive
	switch q.Get("deleted") {
	case "true":
		filter = products.ListDeleted
	case "all":
		filter = products.ListAll
	}
	withProfit := q.Get("profit") == "true"

	list, err := h.products.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("load products report data", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not build report")
		return
	}

	switch q.Get("format") {
	case "pdf":
		h.servePDF(w, r, BuildProductsHTML(list, withProfit), "produtos.pdf")
	default:
		var buf bytes.Buffer
		if err := WriteProductsCSV(&buf, list, withProfit); err != nil {
			h.logger.Error("write products csv", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not build report")
			return
		}
		serveCSV(w, buf.Bytes(), "produtos.csv")
	}
}

func (h *Handler) handleNumbers(w http.ResponseWriter, r *http.Request) {
	numbers, err := CollectNumbers(r.Context(), h.numbers, time.Now())
	if err != nil {
		h.logger.Error("collect dashboard numbers", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusInternalServerError, "could not collect numbers")
		return
	}
	shared.RespondJSON(w, http.StatusOK, numbers)
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, html, filename string) {
	if h.gotenberg == nil {
		shared.RespondMessage(w, http.StatusServiceUnavailable, "pdf rendering unavailable")
		return
	}
	pdf, err := h.gotenberg.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render pdf", slog.Any("error", err))
		shared.RespondMessage(w, http.StatusBadGateway, "pdf rendering failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func serveCSV(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
