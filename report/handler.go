package report

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/reports"
	"github.com/salonledger/salonledger/internal/reports/export"
)

const renderTimeout = 45 * time.Second

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
	Ping(ctx context.Context) error
}

// SummarySource provides the printable daily summary.
type SummarySource interface {
	Printable(ctx context.Context, day, branch string) (reports.Printable, error)
}

// Handler manages report endpoints.
type Handler struct {
	renderer  Renderer
	summaries SummarySource
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a report handler.
func NewHandler(renderer Renderer, summaries SummarySource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{renderer: renderer, summaries: summaries, logger: logger, now: time.Now}
}

// WithClock replaces the clock that dates certificates.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	if now != nil {
		h.now = now
	}
	return h
}

// MountRoutes registers operational report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
}

// MountDownloads registers the PDF downloads. Failures answer plain text.
func (h *Handler) MountDownloads(r chi.Router) {
	r.Get("/export_pdf", h.exportSummary)
	r.Get("/certificado/descargar", h.downloadCertificate)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) exportSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	q := r.URL.Query()
	printable, err := h.summaries.Printable(ctx, q.Get("date"), q.Get("sede"))
	if err != nil {
		status := httpx.Status(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("load summary for pdf", slog.Any("error", err))
		}
		http.Error(w, httpx.Message(err), status)
		return
	}
	html, err := export.SummaryHTML(printable)
	if err != nil {
		h.logger.Error("build summary html", slog.Any("error", err))
		http.Error(w, "Error generating PDF", http.StatusInternalServerError)
		return
	}
	h.writePDF(ctx, w, html, export.SummaryFilename(printable.Branch, printable.Date), "Error generating PDF")
}

func (h *Handler) downloadCertificate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	html, err := export.CertificateHTML(h.now())
	if err != nil {
		h.logger.Error("build certificate html", slog.Any("error", err))
		http.Error(w, "Error al generar el PDF del certificado", http.StatusInternalServerError)
		return
	}
	h.writePDF(ctx, w, html, export.CertificateFilename, "Error al generar el PDF del certificado")
}

func (h *Handler) writePDF(ctx context.Context, w http.ResponseWriter, html, filename, failure string) {
	pdf, err := h.renderer.RenderHTML(ctx, html)
	if err != nil {
		h.logger.Error("render pdf", slog.String("file", filename), slog.Any("error", err))
		http.Error(w, failure, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
