package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

const requestTimeout = 3 * time.Second

// Handler serves catalog maintenance endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the endpoints under the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/stylists", h.handleListStylists)
	r.Post("/stylist", h.handleAddStylist)
	r.Delete("/stylist", h.handleDeleteStylist)

	r.Get("/service-items", h.handleListServiceItems)
	r.Post("/service-item", h.handleAddServiceItem)
	r.Delete("/service-item", h.handleDeleteServiceItem)

	r.Get("/sedes", h.handleListBranches)
	r.Post("/sede", h.handleAddBranch)
	r.Delete("/sede", h.handleDeleteBranch)
}

type nameRequest struct {
	Name string `json:"name"`
}

type serviceItemRequest struct {
	Name  string       `json:"name"`
	Value httpx.Number `json:"value"`
}

func (h *Handler) handleListStylists(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	list, err := h.service.Stylists(ctx)
	h.respondList(w, "list stylists", list, err)
}

func (h *Handler) handleAddStylist(w http.ResponseWriter, r *http.Request) {
	h.withName(w, r, "add stylist", "Estilista agregado", h.service.AddStylist)
}

func (h *Handler) handleDeleteStylist(w http.ResponseWriter, r *http.Request) {
	h.withName(w, r, "delete stylist", "Estilista eliminado", h.service.DeleteStylist)
}

func (h *Handler) handleListServiceItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	items, err := h.service.ServiceItems(ctx)
	h.respondList(w, "list service items", items, err)
}

func (h *Handler) handleAddServiceItem(w http.ResponseWriter, r *http.Request) {
	var req serviceItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.service.AddServiceItem(ctx, ServiceItem{Name: req.Name, Value: req.Value.Value}); err != nil {
		h.fail(w, "add service item", err)
		return
	}
	httpx.Success(w, "Servicio agregado", nil)
}

func (h *Handler) handleDeleteServiceItem(w http.ResponseWriter, r *http.Request) {
	h.withName(w, r, "delete service item", "Servicio eliminado", h.service.DeleteServiceItem)
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	list, err := h.service.Branches(ctx)
	h.respondList(w, "list branches", list, err)
}

func (h *Handler) handleAddBranch(w http.ResponseWriter, r *http.Request) {
	h.withName(w, r, "add branch", "Sede agregada", h.service.AddBranch)
}

func (h *Handler) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	h.withName(w, r, "delete branch", "Sede eliminada", h.service.DeleteBranch)
}

func (h *Handler) withName(w http.ResponseWriter, r *http.Request, op, message string, fn func(context.Context, string) error) {
	var req nameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := fn(ctx, req.Name); err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.Success(w, message, nil)
}

func (h *Handler) respondList(w http.ResponseWriter, op string, data any, err error) {
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": data})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.Status(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
