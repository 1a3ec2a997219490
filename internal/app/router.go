package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bukumitra/bukumitra/internal/audit"
	"github.com/bukumitra/bukumitra/internal/business"
	"github.com/bukumitra/bukumitra/internal/capital"
	"github.com/bukumitra/bukumitra/internal/distribution"
	"github.com/bukumitra/bukumitra/internal/equity"
	"github.com/bukumitra/bukumitra/internal/ledger"
	"github.com/bukumitra/bukumitra/internal/observability"
	"github.com/bukumitra/bukumitra/internal/reports"
	"github.com/bukumitra/bukumitra/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	BusinessHandler     *business.Handler
	LedgerHandler       *ledger.Handler
	CapitalHandler      *capital.Handler
	EquityHandler       *equity.Handler
	ReportsHandler      *reports.Handler
	DistributionHandler *distribution.Handler
	AuditHandler        *audit.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with BukuMitra defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/businesses", func(r chi.Router) {
		params.BusinessHandler.MountRoutes(r)
		r.Route("/{businessID}", func(r chi.Router) {
			params.BusinessHandler.MountBusinessRoutes(r)
			r.Route("/transactions", params.LedgerHandler.MountRoutes)
			r.Route("/capital", params.CapitalHandler.MountRoutes)
			r.Route("/equity", params.EquityHandler.MountRoutes)
			r.Route("/reports", params.ReportsHandler.MountRoutes)
			r.Route("/distributions", params.DistributionHandler.MountRoutes)
			r.Route("/activity", params.AuditHandler.MountRoutes)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
