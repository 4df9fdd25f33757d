package ledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// Recorder is the use-case contract the HTTP layer depends on.
type Recorder interface {
	RecordService(ctx context.Context, in ServiceSaleInput) (ServiceSale, error)
	RecordProduct(ctx context.Context, in ProductSaleInput) (ProductSaleResult, error)
	RecordExpense(ctx context.Context, in ExpenseInput) (Expense, error)
	UpdateSale(ctx context.Context, kind string, id int64, amount, commission float64) error
	Inventory(ctx context.Context, branch string) ([]InventoryItem, error)
	UpsertInventory(ctx context.Context, in InventoryInput) (bool, error)
	DeleteInventory(ctx context.Context, key InventoryKey) error
	SaveFixedExpenses(ctx context.Context, branch, month string, lines []FixedExpenseLine) error
	FixedExpenses(ctx context.Context, branch, month string) ([]FixedExpense, error)
}

// Handler exposes the ledger over JSON.
type Handler struct {
	logger    *slog.Logger
	service   Recorder
	validator *httpx.Validator
}

// NewHandler builds a ledger handler.
func NewHandler(logger *slog.Logger, service Recorder) *Handler {
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers the ledger endpoints under the /api router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/service", h.handleRecordService)
	r.Post("/product", h.handleRecordProduct)
	r.Post("/expense", h.handleRecordExpense)
	r.Post("/summary/update", h.handleUpdateSale)
	r.Get("/inventory", h.handleListInventory)
	r.Post("/inventory", h.handleUpsertInventory)
	r.Delete("/inventory", h.handleDeleteInventory)
	r.Get("/monthly-expenses", h.handleListFixedExpenses)
	r.Post("/monthly-expenses", h.handleSaveFixedExpenses)
}

type serviceSaleRequest struct {
	Stylist       string       `json:"estilista" validate:"required"`
	Service       string       `json:"servicio" validate:"required"`
	Amount        httpx.Number `json:"valor"`
	PaymentMethod string       `json:"metodo_pago"`
	Branch        string       `json:"sede"`
}

func (h *Handler) handleRecordService(w http.ResponseWriter, r *http.Request) {
	var req serviceSaleRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !req.Amount.Set {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Campo requerido: valor"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sale, err := h.service.RecordService(ctx, ServiceSaleInput{
		Stylist:       req.Stylist,
		Service:       req.Service,
		Amount:        req.Amount.Value,
		PaymentMethod: req.PaymentMethod,
		Branch:        req.Branch,
	})
	if err != nil {
		h.fail(w, "record service", err)
		return
	}
	httpx.Success(w, "Servicio registrado", httpx.Envelope{"comision": sale.Commission, "id": sale.ID})
}

type productSaleRequest struct {
	Stylist       string       `json:"estilista" validate:"required"`
	Product       string       `json:"producto" validate:"required"`
	Brand         string       `json:"marca"`
	Description   string       `json:"descripcion"`
	Amount        httpx.Number `json:"valor"`
	PaymentMethod string       `json:"metodo_pago"`
	Branch        string       `json:"sede"`
}

func (h *Handler) handleRecordProduct(w http.ResponseWriter, r *http.Request) {
	var req productSaleRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !req.Amount.Set {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Campo requerido: valor"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.service.RecordProduct(ctx, ProductSaleInput{
		Stylist:       req.Stylist,
		Product:       req.Product,
		Brand:         req.Brand,
		Description:   req.Description,
		Amount:        req.Amount.Value,
		PaymentMethod: req.PaymentMethod,
		Branch:        req.Branch,
	})
	if err != nil {
		h.fail(w, "record product", err)
		return
	}
	fields := httpx.Envelope{"comision": result.Sale.Commission, "id": result.Sale.ID}
	if result.Inventory != nil {
		fields["inventario"] = result.Inventory
	}
	httpx.Success(w, "Producto registrado y descontado del inventario", fields)
}

type expenseRequest struct {
	Description string       `json:"descripcion" validate:"required"`
	Amount      httpx.Number `json:"valor"`
	Branch      string       `json:"sede"`
}

func (h *Handler) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !req.Amount.Set {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Campo requerido: valor"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	expense, err := h.service.RecordExpense(ctx, ExpenseInput{Description: req.Description, Amount: req.Amount.Value, Branch: req.Branch})
	if err != nil {
		h.fail(w, "record expense", err)
		return
	}
	httpx.Success(w, "Gasto registrado", httpx.Envelope{"id": expense.ID})
}

type saleUpdateRequest struct {
	Sheet      string       `json:"sheet"`
	ID         httpx.Number `json:"id"`
	Amount     httpx.Number `json:"valor"`
	Commission httpx.Number `json:"comision"`
}

func (h *Handler) handleUpdateSale(w http.ResponseWriter, r *http.Request) {
	var req saleUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Dato numérico inválido"))
		return
	}
	if !req.ID.Set || !req.Amount.Set || !req.Commission.Set || req.ID.Value != float64(int64(req.ID.Value)) {
		httpx.RespondError(w, httpx.Errorf(httpx.ErrValidation, "Dato numérico inválido"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.UpdateSale(ctx, req.Sheet, int64(req.ID.Value), req.Amount.Value, req.Commission.Value); err != nil {
		h.fail(w, "update sale", err)
		return
	}
	httpx.Success(w, "Item actualizado", nil)
}

func (h *Handler) handleListInventory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	items, err := h.service.Inventory(ctx, r.URL.Query().Get("sede"))
	if err != nil {
		h.fail(w, "list inventory", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": items})
}

type inventoryRequest struct {
	Branch      string       `json:"sede"`
	Product     string       `json:"producto"`
	Brand       string       `json:"marca"`
	Description string       `json:"descripcion"`
	Quantity    httpx.Number `json:"cantidad"`
	Unit        string       `json:"unidad"`
	UnitValue   httpx.Number `json:"valor"`
	Status      string       `json:"estado"`
}

func (h *Handler) handleUpsertInventory(w http.ResponseWriter, r *http.Request) {
	var req inventoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	created, err := h.service.UpsertInventory(ctx, InventoryInput{
		Branch:      req.Branch,
		Product:     strings.TrimSpace(req.Product),
		Brand:       req.Brand,
		Description: req.Description,
		Quantity:    req.Quantity.Value,
		Unit:        req.Unit,
		UnitValue:   req.UnitValue.Value,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(w, "upsert inventory", err)
		return
	}
	if created {
		httpx.Success(w, "Producto agregado al inventario", nil)
		return
	}
	httpx.Success(w, "Producto actualizado", nil)
}

func (h *Handler) handleDeleteInventory(w http.ResponseWriter, r *http.Request) {
	var req InventoryKey
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.DeleteInventory(ctx, req); err != nil {
		h.fail(w, "delete inventory", err)
		return
	}
	httpx.Success(w, "Producto eliminado del inventario", nil)
}

func (h *Handler) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := r.URL.Query()
	rows, err := h.service.FixedExpenses(ctx, q.Get("sede"), q.Get("mes"))
	if err != nil {
		h.fail(w, "list fixed expenses", err)
		return
	}
	httpx.Success(w, "", httpx.Envelope{"data": rows})
}

type fixedExpensesRequest struct {
	Branch   string `json:"sede"`
	Month    string `json:"mes"`
	Expenses []struct {
		Type   string       `json:"tipo"`
		Amount httpx.Number `json:"valor"`
	} `json:"expenses"`
}

func (h *Handler) handleSaveFixedExpenses(w http.ResponseWriter, r *http.Request) {
	var req fixedExpensesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lines := make([]FixedExpenseLine, 0, len(req.Expenses))
	for _, e := range req.Expenses {
		lines = append(lines, FixedExpenseLine{Type: strings.TrimSpace(e.Type), Amount: e.Amount.Value})
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.SaveFixedExpenses(ctx, req.Branch, strings.TrimSpace(req.Month), lines); err != nil {
		h.fail(w, "save fixed expenses", err)
		return
	}
	httpx.Success(w, "Gastos mensuales guardados correctamente", nil)
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return err
	}
	return h.validator.Struct(target)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.Status(err) == http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
