package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/depletion"
	"github.com/simplepos/simplepos/internal/observability"
	"github.com/simplepos/simplepos/internal/sale"
	"github.com/simplepos/simplepos/internal/stock"
	"github.com/simplepos/simplepos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	StockHandler     *stock.Handler
	DepletionHandler *depletion.Handler
	SaleHandler      *sale.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with SimplePOS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/catalog", func(r chi.Router) {
		params.CatalogHandler.MountRoutes(r)
		params.DepletionHandler.MountRoutes(r)
	})
	r.Route("/stock", params.StockHandler.MountRoutes)
	r.Route("/sale", params.SaleHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
