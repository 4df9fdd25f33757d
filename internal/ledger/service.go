package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/salonledger/salonledger/internal/commission"
	"github.com/salonledger/salonledger/internal/dates"
	"github.com/salonledger/salonledger/internal/platform/db"
	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Store is the persistence port of the ledger.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	InsertServiceSale(ctx context.Context, sale ServiceSale) (int64, error)
	InsertExpense(ctx context.Context, expense Expense) (int64, error)
	UpdateSaleAmounts(ctx context.Context, kind string, id int64, amount, commission float64) error
	ListInventory(ctx context.Context, filter Filter) ([]InventoryItem, error)
	UpsertInventory(ctx context.Context, item InventoryItem) (bool, error)
	DeleteInventory(ctx context.Context, key InventoryKey) error
	ListFixedExpenses(ctx context.Context, filter Filter, month string) ([]FixedExpense, error)
}

// TxStore exposes the operations that must share a transaction.
type TxStore interface {
	InsertProductSale(ctx context.Context, sale ProductSale) (int64, error)
	FindInventoryForSale(ctx context.Context, key InventoryKey) (InventoryItem, error)
	UpdateInventoryStock(ctx context.Context, item InventoryItem) error
	UpsertFixedExpense(ctx context.Context, expense FixedExpense) error
}

// BranchRegistry resolves the branch a write applies to.
type BranchRegistry interface {
	Resolve(ctx context.Context, branch string) (string, error)
}

// Invalidator drops cached aggregates after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Observer is notified of every recorded sale.
type Observer interface {
	SaleRecorded(kind, branch string, amount float64)
}

// Service implements the ledger use cases.
type Service struct {
	store    Store
	branches BranchRegistry
	cache    Invalidator
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the ledger service. cache and observer may be nil.
func NewService(store Store, branches BranchRegistry, cache Invalidator, observer Observer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, branches: branches, cache: cache, observer: observer, logger: logger, now: time.Now}
}

// WithClock replaces the clock that stamps records. The returned time's
// location decides the calendar day a record lands on.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// ServiceSaleInput carries a service sale to record.
type ServiceSaleInput struct {
	Stylist       string
	Service       string
	Amount        float64
	PaymentMethod string
	Branch        string
}

// RecordService stores a service sale with its derived commission.
func (s *Service) RecordService(ctx context.Context, in ServiceSaleInput) (ServiceSale, error) {
	if strings.TrimSpace(in.Stylist) == "" || strings.TrimSpace(in.Service) == "" {
		return ServiceSale{}, httpx.Errorf(httpx.ErrValidation, "Estilista y servicio son requeridos")
	}
	if in.Amount < 0 {
		return ServiceSale{}, httpx.Errorf(httpx.ErrValidation, "Valor inválido")
	}
	branch, err := s.resolveBranch(ctx, in.Branch)
	if err != nil {
		return ServiceSale{}, err
	}
	sale := ServiceSale{
		Branch:        branch,
		Fecha:         db.Timestamp(s.now()),
		Stylist:       in.Stylist,
		Service:       in.Service,
		Amount:        in.Amount,
		Commission:    commission.ForService(in.Stylist, in.Service, in.Amount),
		PaymentMethod: paymentOrDefault(in.PaymentMethod),
	}
	id, err := s.store.InsertServiceSale(ctx, sale)
	if err != nil {
		return ServiceSale{}, err
	}
	sale.ID = id
	s.afterWrite(ctx)
	if s.observer != nil {
		s.observer.SaleRecorded(KindServices, branch, sale.Amount)
	}
	return sale, nil
}

// ProductSaleInput carries a product sale to record.
type ProductSaleInput struct {
	Stylist       string
	Product       string
	Brand         string
	Description   string
	Amount        float64
	PaymentMethod string
	Branch        string
}

// ProductSaleResult is the stored sale and, when stock was found, the
// inventory row after the sale.
type ProductSaleResult struct {
	Sale      ProductSale
	Inventory *InventoryItem
}

// RecordProduct stores a product sale and draws one unit from the matching
// inventory row in the same transaction.
func (s *Service) RecordProduct(ctx context.Context, in ProductSaleInput) (ProductSaleResult, error) {
	if strings.TrimSpace(in.Stylist) == "" || strings.TrimSpace(in.Product) == "" {
		return ProductSaleResult{}, httpx.Errorf(httpx.ErrValidation, "Estilista y producto son requeridos")
	}
	if in.Amount < 0 {
		return ProductSaleResult{}, httpx.Errorf(httpx.ErrValidation, "Valor inválido")
	}
	branch, err := s.resolveBranch(ctx, in.Branch)
	if err != nil {
		return ProductSaleResult{}, err
	}
	now := db.Timestamp(s.now())
	sale := ProductSale{
		Branch:        branch,
		Fecha:         now,
		Stylist:       in.Stylist,
		Product:       in.Product,
		Brand:         in.Brand,
		Description:   in.Description,
		Amount:        in.Amount,
		Commission:    commission.ForProduct(in.Amount),
		PaymentMethod: paymentOrDefault(in.PaymentMethod),
	}

	var result ProductSaleResult
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		id, err := tx.InsertProductSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		result.Sale = sale

		item, err := tx.FindInventoryForSale(ctx, InventoryKey{Branch: branch, Product: in.Product, Brand: in.Brand, Description: in.Description})
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil
			}
			return err
		}
		updated, changed := item.AfterSale()
		if changed {
			updated.UpdatedAt = now
			if err := tx.UpdateInventoryStock(ctx, updated); err != nil {
				return err
			}
		}
		result.Inventory = &updated
		return nil
	})
	if err != nil {
		return ProductSaleResult{}, err
	}
	s.afterWrite(ctx)
	if s.observer != nil {
		s.observer.SaleRecorded(KindProducts, branch, sale.Amount)
	}
	return result, nil
}

// ExpenseInput carries a variable expense.
type ExpenseInput struct {
	Description string
	Amount      float64
	Branch      string
}

// RecordExpense stores a variable expense.
func (s *Service) RecordExpense(ctx context.Context, in ExpenseInput) (Expense, error) {
	if strings.TrimSpace(in.Description) == "" {
		return Expense{}, httpx.Errorf(httpx.ErrValidation, "Descripción requerida")
	}
	if in.Amount < 0 {
		return Expense{}, httpx.Errorf(httpx.ErrValidation, "Valor inválido")
	}
	branch, err := s.resolveBranch(ctx, in.Branch)
	if err != nil {
		return Expense{}, err
	}
	expense := Expense{Branch: branch, Fecha: db.Timestamp(s.now()), Description: in.Description, Amount: in.Amount}
	id, err := s.store.InsertExpense(ctx, expense)
	if err != nil {
		return Expense{}, err
	}
	expense.ID = id
	s.afterWrite(ctx)
	return expense, nil
}

// UpdateSale corrects the amount and commission of a recorded sale by its id.
func (s *Service) UpdateSale(ctx context.Context, kind string, id int64, amount, commission float64) error {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !IsSaleKind(kind) {
		return httpx.Errorf(httpx.ErrValidation, "Tabla inválida")
	}
	if err := s.store.UpdateSaleAmounts(ctx, kind, id, amount, commission); err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

// Inventory lists the stock of a branch (the default branch when empty).
func (s *Service) Inventory(ctx context.Context, branch string) ([]InventoryItem, error) {
	branch, err := s.resolveBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListInventory(ctx, Filter{Branch: branch})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []InventoryItem{}
	}
	return items, nil
}

// InventoryInput is an inventory upsert.
type InventoryInput struct {
	Branch      string
	Product     string
	Brand       string
	Description string
	Quantity    float64
	Unit        string
	UnitValue   float64
	Status      string
}

// UpsertInventory creates or replaces the stock row identified by
// (branch, product, brand, description). It reports whether a row was created.
func (s *Service) UpsertInventory(ctx context.Context, in InventoryInput) (bool, error) {
	if strings.TrimSpace(in.Product) == "" {
		return false, httpx.Errorf(httpx.ErrValidation, "Nombre del producto requerido")
	}
	branch, err := s.resolveBranch(ctx, in.Branch)
	if err != nil {
		return false, err
	}
	status := in.Status
	if status == "" {
		status = StatusNew
	}
	created, err := s.store.UpsertInventory(ctx, InventoryItem{
		Branch:      branch,
		Product:     in.Product,
		Brand:       in.Brand,
		Description: in.Description,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		UnitValue:   in.UnitValue,
		Status:      status,
		UpdatedAt:   db.Timestamp(s.now()),
	})
	if err != nil {
		return false, err
	}
	s.afterWrite(ctx)
	return created, nil
}

// DeleteInventory removes the stock row with the given identity.
func (s *Service) DeleteInventory(ctx context.Context, key InventoryKey) error {
	branch, err := s.resolveBranch(ctx, key.Branch)
	if err != nil {
		return err
	}
	key.Branch = branch
	if err := s.store.DeleteInventory(ctx, key); err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

// SaveFixedExpenses upserts the fixed expenses of a branch for month; each
// (branch, month, type) keeps exactly one row holding the latest amount.
func (s *Service) SaveFixedExpenses(ctx context.Context, branch, month string, lines []FixedExpenseLine) error {
	if _, ok := dates.ParseMonth(month); !ok || len(lines) == 0 {
		return httpx.Errorf(httpx.ErrValidation, "Datos incompletos")
	}
	for _, line := range lines {
		if strings.TrimSpace(line.Type) == "" {
			return httpx.Errorf(httpx.ErrValidation, "Tipo de gasto requerido")
		}
	}
	branch, err := s.resolveBranch(ctx, branch)
	if err != nil {
		return err
	}
	now := db.Timestamp(s.now())
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		for _, line := range lines {
			if err := tx.UpsertFixedExpense(ctx, FixedExpense{
				Branch:     branch,
				Month:      month,
				Type:       line.Type,
				Amount:     line.Amount,
				RecordedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

// FixedExpenses lists the fixed expenses of a branch, optionally for one month.
func (s *Service) FixedExpenses(ctx context.Context, branch, month string) ([]FixedExpense, error) {
	branch, err := s.resolveBranch(ctx, branch)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListFixedExpenses(ctx, Filter{Branch: branch}, month)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []FixedExpense{}
	}
	return out, nil
}

func (s *Service) resolveBranch(ctx context.Context, branch string) (string, error) {
	branch = strings.TrimSpace(branch)
	if s.branches == nil {
		return branch, nil
	}
	return s.branches.Resolve(ctx, branch)
}

func (s *Service) afterWrite(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}

func paymentOrDefault(method string) string {
	if strings.TrimSpace(method) == "" {
		return DefaultPaymentMethod
	}
	return method
}
