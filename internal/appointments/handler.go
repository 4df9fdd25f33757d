package appointments

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// Booker is the use-case contract used by the HTTP layer.
type Booker interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	List(ctx context.Context, branch, day string) ([]Appointment, error)
	Update(ctx context.Context, id string, patch Patch) (Appointment, error)
	Delete(ctx context.Context, id string) error
	Alerts(ctx context.Context) ([]Alert, error)
}

// Handler serves the booking endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Booker
	validator *httpx.Validator
}

// NewHandler builds the appointments handler.
func NewHandler(logger *slog.Logger, service Booker) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers the endpoints under the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/appointment", h.handleCreate)
	r.Put("/appointment/{id}", h.handleUpdate)
	r.Delete("/appointment/{id}", h.handleDelete)
	r.Get("/appointments", h.handleList)
	r.Get("/alerts", h.handleAlerts)
}

type createRequest struct {
	Branch  string `json:"sede"`
	Fecha   string `json:"fecha" validate:"required"`
	Hora    string `json:"hora" validate:"required"`
	Client  string `json:"cliente" validate:"required"`
	Phone   string `json:"telefono"`
	Service string `json:"servicio"`
	Notes   string `json:"notas"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	created, err := h.service.Create(ctx, Appointment{
		Branch:  req.Branch,
		Fecha:   req.Fecha,
		Hora:    req.Hora,
		Client:  req.Client,
		Phone:   req.Phone,
		Service: req.Service,
		Notes:   req.Notes,
	})
	if err != nil {
		h.fail(w, "create appointment", err)
		return
	}
	httpx.Success(w, "Cita agendada correctamente", httpx.Envelope{"id": created.ID})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.service.Update(ctx, chi.URLParam(r, "id"), patch); err != nil {
		h.fail(w, "update appointment", err)
		return
	}
	httpx.Success(w, "Cita actualizada correctamente", nil)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete appointment", err)
		return
	}
	httpx.Success(w, "Cita eliminada correctamente", nil)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	list, err := h.service.List(ctx, q.Get("sede"), q.Get("date"))
	if err != nil {
		h.fail(w, "list appointments", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": list})
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	alerts, err := h.service.Alerts(ctx)
	if err != nil {
		h.fail(w, "appointment alerts", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"alerts": alerts})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.Status(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
