// Package ledger records the salon's day-to-day transactions: service and
// product sales, expenses, inventory and monthly fixed expenses.
package ledger

import "strings"

// Sale kinds double as table names for sale corrections.
const (
	KindServices = "servicios"
	KindProducts = "productos"
)

// Summary row labels per sale kind.
const (
	LabelService = "Servicio"
	LabelProduct = "Producto"
)

// Inventory statuses.
const (
	StatusNew      = "Nuevo"
	StatusDepleted = "Agotado"
)

// DefaultPaymentMethod is assumed when a sale arrives without one.
const DefaultPaymentMethod = "Efectivo"

// ServiceSale is a performed service. Fecha keeps the stored text as-is;
// reports normalize it.
type ServiceSale struct {
	ID            int64   `json:"id"`
	Branch        string  `json:"sede"`
	Fecha         string  `json:"fecha"`
	Stylist       string  `json:"estilista"`
	Service       string  `json:"servicio"`
	Amount        float64 `json:"valor"`
	Commission    float64 `json:"comision"`
	PaymentMethod string  `json:"metodo_pago"`
}

// ProductSale is a retail product sold by a stylist.
type ProductSale struct {
	ID            int64   `json:"id"`
	Branch        string  `json:"sede"`
	Fecha         string  `json:"fecha"`
	Stylist       string  `json:"estilista"`
	Product       string  `json:"producto"`
	Brand         string  `json:"marca"`
	Description   string  `json:"descripcion"`
	Amount        float64 `json:"valor"`
	Commission    float64 `json:"comision"`
	PaymentMethod string  `json:"metodo_pago"`
}

// Expense is a variable, uncategorized expense.
type Expense struct {
	ID          int64   `json:"id"`
	Branch      string  `json:"sede"`
	Fecha       string  `json:"fecha"`
	Description string  `json:"descripcion"`
	Amount      float64 `json:"valor"`
}

// InventoryKey identifies an inventory row.
type InventoryKey struct {
	Branch      string `json:"sede"`
	Product     string `json:"producto"`
	Brand       string `json:"marca"`
	Description string `json:"descripcion"`
}

// InventoryItem is the stock of one product variant at a branch.
type InventoryItem struct {
	ID          int64   `json:"id"`
	Branch      string  `json:"sede"`
	Product     string  `json:"producto"`
	Brand       string  `json:"marca"`
	Description string  `json:"descripcion"`
	Quantity    float64 `json:"cantidad"`
	Unit        string  `json:"unidad"`
	UnitValue   float64 `json:"valor"`
	Status      string  `json:"estado"`
	UpdatedAt   string  `json:"fecha_actualizacion"`
}

// Key returns the identity tuple of the item.
func (i InventoryItem) Key() InventoryKey {
	return InventoryKey{Branch: i.Branch, Product: i.Product, Brand: i.Brand, Description: i.Description}
}

// AfterSale applies one unit sold. Stock is only taken while quantity is
// positive, so the quantity floors at zero; the second return value is false
// when nothing changed.
func (i InventoryItem) AfterSale() (InventoryItem, bool) {
	if i.Quantity <= 0 {
		return i, false
	}
	i.Quantity = max(0, i.Quantity-1)
	if i.Quantity > 0 {
		i.Status = StatusNew
	} else {
		i.Status = StatusDepleted
	}
	return i, true
}

// FixedExpense is a recurring cost entered once per branch, month and type.
type FixedExpense struct {
	ID         int64   `json:"id"`
	Branch     string  `json:"sede"`
	Month      string  `json:"mes"`
	Type       string  `json:"tipo"`
	Amount     float64 `json:"valor"`
	RecordedAt string  `json:"fecha_registro"`
}

// FixedExpenseLine is one {tipo, valor} entry of a monthly upsert.
type FixedExpenseLine struct {
	Type   string  `json:"tipo"`
	Amount float64 `json:"valor"`
}

// Filter scopes listings to a branch; an empty branch means every branch.
type Filter struct {
	Branch string
}

// IsSaleKind reports whether kind names a sale table.
func IsSaleKind(kind string) bool {
	switch strings.ToLower(kind) {
	case KindServices, KindProducts:
		return true
	}
	return false
}
