package ledger

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

type memStore struct {
	mu        sync.Mutex
	nextID    int64
	services  []ServiceSale
	products  []ProductSale
	expenses  []Expense
	inventory []InventoryItem
	fixed     []FixedExpense
	failTx    error
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := struct {
		products  []ProductSale
		inventory []InventoryItem
		fixed     []FixedExpense
	}{
		append([]ProductSale(nil), m.products...),
		append([]InventoryItem(nil), m.inventory...),
		append([]FixedExpense(nil), m.fixed...),
	}
	if err := fn(ctx, m); err != nil {
		m.products, m.inventory, m.fixed = snapshot.products, snapshot.inventory, snapshot.fixed
		return err
	}
	if m.failTx != nil {
		m.products, m.inventory, m.fixed = snapshot.products, snapshot.inventory, snapshot.fixed
		return m.failTx
	}
	return nil
}

func (m *memStore) InsertServiceSale(_ context.Context, sale ServiceSale) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sale.ID = m.id()
	m.services = append(m.services, sale)
	return sale.ID, nil
}

func (m *memStore) InsertProductSale(_ context.Context, sale ProductSale) (int64, error) {
	sale.ID = m.id()
	m.products = append(m.products, sale)
	return sale.ID, nil
}

func (m *memStore) InsertExpense(_ context.Context, expense Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense.ID = m.id()
	m.expenses = append(m.expenses, expense)
	return expense.ID, nil
}

func (m *memStore) UpdateSaleAmounts(_ context.Context, kind string, id int64, amount, commission float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch kind {
	case KindServices:
		for i := range m.services {
			if m.services[i].ID == id {
				m.services[i].Amount, m.services[i].Commission = amount, commission
				return nil
			}
		}
	case KindProducts:
		for i := range m.products {
			if m.products[i].ID == id {
				m.products[i].Amount, m.products[i].Commission = amount, commission
				return nil
			}
		}
	default:
		return httpx.Errorf(httpx.ErrValidation, "Tabla inválida")
	}
	return httpx.Errorf(httpx.ErrNotFound, "Item no encontrado")
}

func (m *memStore) ListInventory(_ context.Context, filter Filter) ([]InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []InventoryItem
	for _, item := range m.inventory {
		if filter.Branch == "" || item.Branch == filter.Branch {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) UpsertInventory(_ context.Context, item InventoryItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.inventory {
		if m.inventory[i].Key() == item.Key() {
			item.ID = m.inventory[i].ID
			m.inventory[i] = item
			return false, nil
		}
	}
	item.ID = m.id()
	m.inventory = append(m.inventory, item)
	return true, nil
}

func (m *memStore) DeleteInventory(_ context.Context, key InventoryKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.inventory {
		if m.inventory[i].Key() == key {
			m.inventory = append(m.inventory[:i], m.inventory[i+1:]...)
			return nil
		}
	}
	return httpx.Errorf(httpx.ErrNotFound, "Producto no encontrado")
}

func (m *memStore) FindInventoryForSale(_ context.Context, key InventoryKey) (InventoryItem, error) {
	var candidates []InventoryItem
	for _, item := range m.inventory {
		if item.Branch == key.Branch && item.Product == key.Product {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return InventoryItem{}, httpx.ErrNotFound
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		ei := candidates[i].Brand == key.Brand && candidates[i].Description == key.Description
		ej := candidates[j].Brand == key.Brand && candidates[j].Description == key.Description
		if ei != ej {
			return ei
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], nil
}

func (m *memStore) UpdateInventoryStock(_ context.Context, item InventoryItem) error {
	for i := range m.inventory {
		if m.inventory[i].ID == item.ID {
			m.inventory[i].Quantity = item.Quantity
			m.inventory[i].Status = item.Status
			m.inventory[i].UpdatedAt = item.UpdatedAt
			return nil
		}
	}
	return httpx.ErrNotFound
}

func (m *memStore) UpsertFixedExpense(_ context.Context, expense FixedExpense) error {
	for i := range m.fixed {
		f := m.fixed[i]
		if f.Branch == expense.Branch && f.Month == expense.Month && f.Type == expense.Type {
			m.fixed[i].Amount = expense.Amount
			m.fixed[i].RecordedAt = expense.RecordedAt
			return nil
		}
	}
	expense.ID = m.id()
	m.fixed = append(m.fixed, expense)
	return nil
}

func (m *memStore) ListFixedExpenses(_ context.Context, filter Filter, month string) ([]FixedExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []FixedExpense
	for _, f := range m.fixed {
		if (filter.Branch == "" || f.Branch == filter.Branch) && (month == "" || f.Month == month) {
			out = append(out, f)
		}
	}
	return out, nil
}

type stubBranches struct{ known []string }

func (s stubBranches) Resolve(_ context.Context, branch string) (string, error) {
	if branch == "" {
		return s.known[0], nil
	}
	for _, b := range s.known {
		if b == branch {
			return b, nil
		}
	}
	return "", httpx.Errorf(httpx.ErrValidation, "Sede desconocida: %s", branch)
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}

type recordingObserver struct{ kinds []string }

func (o *recordingObserver) SaleRecorded(kind, _ string, _ float64) {
	o.kinds = append(o.kinds, kind)
}

func newTestService(store *memStore) (*Service, *countingCache, *recordingObserver) {
	cache := &countingCache{}
	obs := &recordingObserver{}
	svc := NewService(store, stubBranches{known: []string{"Principal", "Norte"}}, cache, obs, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }
	return svc, cache, obs
}

func TestRecordServiceDerivesCommission(t *testing.T) {
	store := newMemStore()
	svc, cache, obs := newTestService(store)

	sale, err := svc.RecordService(context.Background(), ServiceSaleInput{
		Stylist: "Monica", Service: "Tinte rubio", Amount: 100000,
	})
	require.NoError(t, err)
	require.Equal(t, 50000.0, sale.Commission)
	require.Equal(t, "Principal", sale.Branch)
	require.Equal(t, DefaultPaymentMethod, sale.PaymentMethod)
	require.Equal(t, "2025-06-01 10:30:00", sale.Fecha)
	require.Len(t, store.services, 1)
	require.Equal(t, 1, cache.bumps)
	require.Equal(t, []string{KindServices}, obs.kinds)
}

func TestRecordServiceRejectsUnknownBranch(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	_, err := svc.RecordService(context.Background(), ServiceSaleInput{Stylist: "Ana", Service: "Corte", Amount: 1, Branch: "Sur"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRecordProductDrawsStockDownToZero(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.UpsertInventory(ctx, InventoryInput{Product: "Shampoo X", Quantity: 1, Unit: "und", UnitValue: 20000})
	require.NoError(t, err)

	res, err := svc.RecordProduct(ctx, ProductSaleInput{Stylist: "Ana", Product: "Shampoo X", Amount: 45000})
	require.NoError(t, err)
	require.InDelta(t, 4500.0, res.Sale.Commission, 1e-9)
	require.NotNil(t, res.Inventory)
	require.Equal(t, 0.0, store.inventory[0].Quantity)
	require.Equal(t, StatusDepleted, store.inventory[0].Status)

	_, err = svc.RecordProduct(ctx, ProductSaleInput{Stylist: "Ana", Product: "Shampoo X", Amount: 45000})
	require.NoError(t, err)
	require.Equal(t, 0.0, store.inventory[0].Quantity)
	require.Equal(t, StatusDepleted, store.inventory[0].Status)
	require.Len(t, store.products, 2)
}

func TestRecordProductPrefersExactVariant(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.UpsertInventory(ctx, InventoryInput{Product: "Tinte", Brand: "Igora", Quantity: 5})
	require.NoError(t, err)
	_, err = svc.UpsertInventory(ctx, InventoryInput{Product: "Tinte", Brand: "Loreal", Quantity: 3})
	require.NoError(t, err)

	_, err = svc.RecordProduct(ctx, ProductSaleInput{Stylist: "Ana", Product: "Tinte", Brand: "Loreal", Amount: 30000})
	require.NoError(t, err)
	require.Equal(t, 5.0, store.inventory[0].Quantity)
	require.Equal(t, 2.0, store.inventory[1].Quantity)
	require.Equal(t, StatusNew, store.inventory[1].Status)
}

func TestRecordProductWithoutStockStillRecordsSale(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)

	res, err := svc.RecordProduct(context.Background(), ProductSaleInput{Stylist: "Ana", Product: "Gel", Amount: 10000})
	require.NoError(t, err)
	require.Nil(t, res.Inventory)
	require.Len(t, store.products, 1)
}

func TestRecordProductRollsBackOnFailure(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()
	_, err := svc.UpsertInventory(ctx, InventoryInput{Product: "Gel", Quantity: 2})
	require.NoError(t, err)

	store.failTx = errors.New("commit failed")
	_, err = svc.RecordProduct(ctx, ProductSaleInput{Stylist: "Ana", Product: "Gel", Amount: 10000})
	require.Error(t, err)
	require.Empty(t, store.products)
	require.Equal(t, 2.0, store.inventory[0].Quantity)
}

func TestSaveFixedExpensesKeepsLatestValue(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.SaveFixedExpenses(ctx, "", "2025-06", []FixedExpenseLine{{Type: "Arriendo", Amount: 500000}}))
	require.NoError(t, svc.SaveFixedExpenses(ctx, "", "2025-06", []FixedExpenseLine{{Type: "Arriendo", Amount: 600000}}))

	rows, err := svc.FixedExpenses(ctx, "", "2025-06")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 600000.0, rows[0].Amount)
}

func TestSaveFixedExpensesRequiresMonthAndLines(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	ctx := context.Background()

	err := svc.SaveFixedExpenses(ctx, "", "", []FixedExpenseLine{{Type: "Luz", Amount: 1}})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, "Datos incompletos", httpx.Message(err))

	err = svc.SaveFixedExpenses(ctx, "", "2025-06", nil)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateSaleValidatesKind(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	err := svc.UpdateSale(ctx, "gastos", 1, 1, 1)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, "Tabla inválida", httpx.Message(err))

	err = svc.UpdateSale(ctx, "Servicios", 99, 1, 1)
	require.ErrorIs(t, err, httpx.ErrNotFound)

	sale, err := svc.RecordService(ctx, ServiceSaleInput{Stylist: "Ana", Service: "Corte", Amount: 30000})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateSale(ctx, "SERVICIOS", sale.ID, 35000, 17500))
	require.Equal(t, 35000.0, store.services[0].Amount)
	require.Equal(t, 17500.0, store.services[0].Commission)
}

func TestDeleteInventoryNotFound(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	err := svc.DeleteInventory(context.Background(), InventoryKey{Product: "Nada"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestInventoryReturnsEmptySlice(t *testing.T) {
	svc, _, _ := newTestService(newMemStore())
	items, err := svc.Inventory(context.Background(), "Norte")
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}

func TestAfterSaleFloorsAtZero(t *testing.T) {
	item := InventoryItem{Quantity: 2, Status: StatusNew}
	next, changed := item.AfterSale()
	require.True(t, changed)
	require.Equal(t, 1.0, next.Quantity)
	require.Equal(t, StatusNew, next.Status)

	next, _ = next.AfterSale()
	require.Equal(t, 0.0, next.Quantity)
	require.Equal(t, StatusDepleted, next.Status)

	_, changed = next.AfterSale()
	require.False(t, changed)

	next, changed = InventoryItem{Quantity: 0.5, Status: StatusNew}.AfterSale()
	require.True(t, changed)
	require.Equal(t, 0.0, next.Quantity)
	require.Equal(t, StatusDepleted, next.Status)
}
