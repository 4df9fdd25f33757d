package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/salonledger/salonledger/internal/admin"
	"github.com/salonledger/salonledger/internal/appointments"
	"github.com/salonledger/salonledger/internal/auth"
	"github.com/salonledger/salonledger/internal/catalog"
	"github.com/salonledger/salonledger/internal/ledger"
	"github.com/salonledger/salonledger/internal/observability"
	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/reports"
	"github.com/salonledger/salonledger/internal/shared"
	"github.com/salonledger/salonledger/jobs"
	"github.com/salonledger/salonledger/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler        *auth.Handler
	CatalogHandler     *catalog.Handler
	LedgerHandler      *ledger.Handler
	AppointmentHandler *appointments.Handler
	ReportsHandler     *reports.Handler
	AdminHandler       *admin.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}
	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			user := shared.SessionFromContext(r.Context()).User()
			httpx.Success(w, "", httpx.Envelope{"user": user})
		})

		r.Route("/api", func(r chi.Router) {
			if params.AuthHandler != nil {
				params.AuthHandler.MountUserRoutes(r)
			}
			if params.CatalogHandler != nil {
				params.CatalogHandler.MountRoutes(r)
			}
			if params.LedgerHandler != nil {
				params.LedgerHandler.MountRoutes(r)
			}
			if params.AppointmentHandler != nil {
				params.AppointmentHandler.MountRoutes(r)
			}
			if params.ReportsHandler != nil {
				params.ReportsHandler.MountRoutes(r)
			}
			if params.AdminHandler != nil {
				r.Route("/admin", params.AdminHandler.MountRoutes)
			}
		})

		if params.ReportHandler != nil {
			params.ReportHandler.MountDownloads(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
