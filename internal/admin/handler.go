package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

const requestTimeout = 10 * time.Second

// Editor is the use-case contract the HTTP layer depends on.
type Editor interface {
	List(ctx context.Context, table, branch, day, limit, offset string) (Page, error)
	Get(ctx context.Context, table, id string) (Record, error)
	Create(ctx context.Context, table string, fields map[string]any) (string, error)
	Update(ctx context.Context, table, id string, fields map[string]any) error
	Delete(ctx context.Context, table, id string) error
}

// Handler exposes the admin editor over JSON.
type Handler struct {
	logger  *slog.Logger
	service Editor
}

// NewHandler builds an admin handler.
func NewHandler(logger *slog.Logger, service Editor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the editor under /api/admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{table}", h.handleList)
	r.Post("/{table}", h.handleCreate)
	r.Get("/{table}/{id}", h.handleGet)
	r.Put("/{table}/{id}", h.handleUpdate)
	r.Delete("/{table}/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	q := r.URL.Query()
	page, err := h.service.List(ctx, chi.URLParam(r, "table"), q.Get("sede"), q.Get("fecha"), q.Get("limit"), q.Get("offset"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": page.Data, "columns": page.Columns})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rec, err := h.service.Get(ctx, chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": rec})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := h.service.Create(ctx, chi.URLParam(r, "table"), fields)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.Success(w, "Registro creado", httpx.Envelope{"id": id})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := httpx.DecodeJSON(r, &fields); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.service.Update(ctx, chi.URLParam(r, "table"), chi.URLParam(r, "id"), fields); err != nil {
		h.fail(w, err)
		return
	}
	httpx.Success(w, "Registro actualizado", nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.service.Delete(ctx, chi.URLParam(r, "table"), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	httpx.Success(w, "Registro eliminado", nil)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if httpx.Status(err) == http.StatusInternalServerError {
		h.logger.Error("admin request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
