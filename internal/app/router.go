package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/ledger"
	"github.com/emberbank/emberbank/internal/ledger/export"
	"github.com/emberbank/emberbank/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	LedgerHandler   *ledger.Handler
	ExportHandler   *export.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Emberbank defaults.
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

	r.Route("/api/accounts", func(r chi.Router) {
		params.AccountsHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		if params.ExportHandler != nil {
			params.ExportHandler.MountRoutes(r)
		}
	})

	return r
}
