package reports

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/forecast"
	"github.com/salonledger/salonledger/internal/platform/httpx"
)

const requestTimeout = 15 * time.Second

// Reporter is the use-case contract the HTTP layer depends on.
type Reporter interface {
	Summary(ctx context.Context, day, branch string) (DailySummary, error)
	Statistics(ctx context.Context, month, branch string) (Statistics, error)
	Prediction(ctx context.Context, branch string) (forecast.RevenueForecast, error)
	Demand(ctx context.Context, branch string) (forecast.DemandForecast, error)
	Patterns(ctx context.Context, branch string) (forecast.RevenuePatterns, error)
}

// Handler exposes the report views over JSON.
type Handler struct {
	logger  *slog.Logger
	service Reporter
}

// NewHandler builds a report handler.
func NewHandler(logger *slog.Logger, service Reporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the report endpoints under the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.handleSummary)
	r.Get("/statistics", h.handleStatistics)
	r.Get("/prediction", h.handlePrediction)
	r.Get("/service-demand", h.handleDemand)
	r.Get("/revenue-patterns", h.handlePatterns)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	q := r.URL.Query()
	summary, err := h.service.Summary(ctx, q.Get("date"), q.Get("sede"))
	if err != nil {
		h.fail(w, "summary", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": summary.Rows, "totals": summary.Totals})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	q := r.URL.Query()
	stats, err := h.service.Statistics(ctx, q.Get("month"), q.Get("sede"))
	if err != nil {
		h.fail(w, "statistics", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": stats})
}

func (h *Handler) handlePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	fc, err := h.service.Prediction(ctx, r.URL.Query().Get("sede"))
	if err != nil {
		h.fail(w, "prediction", err)
		return
	}
	fields := httpx.Envelope{"historical": fc.Historical, "prediction": fc.Prediction}
	if fc.Trend != "" {
		fields["trend"] = fc.Trend
	}
	httpx.Success(w, "", fields)
}

func (h *Handler) handleDemand(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	fc, err := h.service.Demand(ctx, r.URL.Query().Get("sede"))
	if err != nil {
		h.fail(w, "service demand", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{
		"historical":    fc.Historical,
		"prediction":    fc.Prediction,
		"growthService": fc.GrowthService,
	})
}

func (h *Handler) handlePatterns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	p, err := h.service.Patterns(ctx, r.URL.Query().Get("sede"))
	if err != nil {
		h.fail(w, "revenue patterns", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"heatmap": p.Heatmap, "patterns": p.Patterns, "inference": p.Inference})
}

func (h *Handler) fail(w http.ResponseWriter, report string, err error) {
	if httpx.Status(err) == http.StatusInternalServerError {
		h.logger.Error("report failed", slog.String("report", report), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
