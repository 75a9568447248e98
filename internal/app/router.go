package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrine-pos/vitrine-pos/internal/auth"
	"github.com/vitrine-pos/vitrine-pos/internal/catalog/categories"
	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/observability"
	"github.com/vitrine-pos/vitrine-pos/internal/reports"
	"github.com/vitrine-pos/vitrine-pos/internal/sales"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	"github.com/vitrine-pos/vitrine-pos/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	SalesHandler      *sales.Handler
	ReportsHandler    *reports.Handler
	Pool              *pgxpool.Pool
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Clients fetch the CSRF token here before issuing mutating requests.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("issue csrf token", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		shared.RespondJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.CategoriesHandler != nil {
		r.Route("/categories", params.CategoriesHandler.MountRoutes)
	}
	if params.ProductsHandler != nil {
		r.Route("/products", params.ProductsHandler.MountRoutes)
	}
	if params.SalesHandler != nil {
		r.Route("/sales", params.SalesHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
