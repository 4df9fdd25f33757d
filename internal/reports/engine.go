// Package reports turns ledger records into the daily summary, the monthly
// statistics and the forecast views, and caches the results in redis.
package reports

import (
	"sort"
	"strconv"
	"time"

	"github.com/salonledger/salonledger/internal/dates"
	"github.com/salonledger/salonledger/internal/ledger"
)

// topServicesLimit caps the most-frequent services listing.
const topServicesLimit = 10

// timelineYears is the number of calendar years in the sales timeline.
const timelineYears = 3

// missingPayment labels sales stored without a payment method.
const missingPayment = "N/A"

// Dataset is the raw material of every report. Callers load it already
// scoped to the branch they need.
type Dataset struct {
	Services      []ledger.ServiceSale
	Products      []ledger.ProductSale
	Expenses      []ledger.Expense
	Inventory     []ledger.InventoryItem
	FixedExpenses []ledger.FixedExpense
}

// SummaryRow is one sale of the daily summary.
type SummaryRow struct {
	ID            int64   `json:"id"`
	Sheet         string  `json:"sheet"`
	Stylist       string  `json:"estilista"`
	Description   string  `json:"descripcion"`
	Amount        float64 `json:"valor"`
	Commission    float64 `json:"comision"`
	Kind          string  `json:"tipo"`
	PaymentMethod string  `json:"metodo_pago"`
}

// Totals closes a day: profit is sales minus expenses minus commissions.
type Totals struct {
	Sales      float64 `json:"valor"`
	Commission float64 `json:"comision"`
	Expenses   float64 `json:"gastos"`
	Profit     float64 `json:"utilidad"`
}

// DailySummary lists the sales of one branch on one day.
type DailySummary struct {
	Date   string       `json:"fecha"`
	Branch string       `json:"sede"`
	Rows   []SummaryRow `json:"data"`
	Totals Totals       `json:"totals"`
}

// BuildDailySummary collects services then products whose date falls on
// day at branch, plus that day's expenses. Rows with malformed dates are
// skipped.
func BuildDailySummary(ds Dataset, day time.Time, branch string) DailySummary {
	day = dates.Day(day)
	out := DailySummary{Date: dates.Format(day), Branch: branch, Rows: []SummaryRow{}}
	on := func(rowBranch, fecha string) bool {
		if rowBranch != branch {
			return false
		}
		d, ok := dates.Normalize(fecha)
		return ok && d.Equal(day)
	}

	for _, s := range ds.Services {
		if !on(s.Branch, s.Fecha) {
			continue
		}
		out.Rows = append(out.Rows, SummaryRow{
			ID:            s.ID,
			Sheet:         ledger.KindServices,
			Stylist:       s.Stylist,
			Description:   s.Service,
			Amount:        s.Amount,
			Commission:    s.Commission,
			Kind:          ledger.LabelService,
			PaymentMethod: paymentOrDefault(s.PaymentMethod),
		})
	}
	for _, p := range ds.Products {
		if !on(p.Branch, p.Fecha) {
			continue
		}
		out.Rows = append(out.Rows, SummaryRow{
			ID:            p.ID,
			Sheet:         ledger.KindProducts,
			Stylist:       p.Stylist,
			Description:   p.Product,
			Amount:        p.Amount,
			Commission:    p.Commission,
			Kind:          ledger.LabelProduct,
			PaymentMethod: paymentOrDefault(p.PaymentMethod),
		})
	}
	for _, row := range out.Rows {
		out.Totals.Sales += row.Amount
		out.Totals.Commission += row.Commission
	}
	for _, e := range ds.Expenses {
		if on(e.Branch, e.Fecha) {
			out.Totals.Expenses += e.Amount
		}
	}
	out.Totals.Profit = out.Totals.Sales - out.Totals.Expenses - out.Totals.Commission
	return out
}

func paymentOrDefault(method string) string {
	if method == "" {
		return missingPayment
	}
	return method
}

// PrintableRow is a summary row without storage identifiers.
type PrintableRow struct {
	Stylist       string
	Description   string
	Amount        float64
	Commission    float64
	Kind          string
	PaymentMethod string
}

// Printable is the daily summary as rendered to PDF.
type Printable struct {
	Date   string
	Branch string
	Rows   []PrintableRow
	Totals Totals
}

// ToPrintable drops the row identifiers of a summary.
func ToPrintable(s DailySummary) Printable {
	rows := make([]PrintableRow, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = PrintableRow{
			Stylist:       r.Stylist,
			Description:   r.Description,
			Amount:        r.Amount,
			Commission:    r.Commission,
			Kind:          r.Kind,
			PaymentMethod: r.PaymentMethod,
		}
	}
	return Printable{Date: s.Date, Branch: s.Branch, Rows: rows, Totals: s.Totals}
}

// StatisticsTotals are the month's headline figures.
type StatisticsTotals struct {
	Sales           float64 `json:"ventas"`
	Expenses        float64 `json:"gastos"`
	Payroll         float64 `json:"nomina"`
	OperatingProfit float64 `json:"utilidad_operativa"`
	FixedExpenses   float64 `json:"gastos_fijos"`
	NetProfit       float64 `json:"utilidad_real"`
}

// InventoryStatus counts inventory rows with and without stock.
type InventoryStatus struct {
	Available int `json:"Disponibles"`
	Depleted  int `json:"Agotados"`
}

// InventoryRollup is the stock of one product name across its variants.
type InventoryRollup struct {
	Product    string  `json:"producto"`
	Quantity   float64 `json:"cantidad"`
	Unit       string  `json:"unidad"`
	TotalValue float64 `json:"valor_total"`
}

// Statistics is the monthly statistics view.
type Statistics struct {
	Totals           StatisticsTotals          `json:"totales"`
	FixedExpenses    []ledger.FixedExpenseLine `json:"gastos_mensuales_detalle"`
	PayrollByStylist map[string]float64        `json:"nomina_por_estilista"`
	SalesByStylist   map[string]float64        `json:"ventas_por_estilista"`
	TopServices      map[string]int            `json:"top_servicios"`
	InventoryStatus  InventoryStatus           `json:"estado_inventario"`
	Inventory        []InventoryRollup         `json:"inventario"`
	Timeline         map[string][12]float64    `json:"timeline"`
}

// BuildStatistics aggregates a month. ds must already be filtered to the
// requested branch (or hold every branch). Inventory figures describe the
// current stock and ignore the month.
func BuildStatistics(ds Dataset, month dates.Month) Statistics {
	out := Statistics{
		FixedExpenses:    []ledger.FixedExpenseLine{},
		PayrollByStylist: map[string]float64{},
		SalesByStylist:   map[string]float64{},
		TopServices:      map[string]int{},
		Inventory:        []InventoryRollup{},
		Timeline:         map[string][12]float64{},
	}

	timeline := make(map[int]*[12]float64, timelineYears)
	for y := month.Year - timelineYears + 1; y <= month.Year; y++ {
		timeline[y] = &[12]float64{}
	}
	addSale := func(day time.Time, stylist string, amount, commission float64) {
		if row, ok := timeline[day.Year()]; ok {
			row[day.Month()-1] += amount
		}
		if !month.Contains(day) {
			return
		}
		out.Totals.Sales += amount
		out.Totals.Payroll += commission
		if stylist != "" {
			out.SalesByStylist[stylist] += amount
			out.PayrollByStylist[stylist] += commission
		}
	}

	serviceCounts := map[string]int{}
	for _, s := range ds.Services {
		day, ok := dates.Normalize(s.Fecha)
		if !ok {
			continue
		}
		addSale(day, s.Stylist, s.Amount, s.Commission)
		if month.Contains(day) && s.Service != "" {
			serviceCounts[s.Service]++
		}
	}
	for _, p := range ds.Products {
		if day, ok := dates.Normalize(p.Fecha); ok {
			addSale(day, p.Stylist, p.Amount, p.Commission)
		}
	}
	for _, e := range ds.Expenses {
		if day, ok := dates.Normalize(e.Fecha); ok && month.Contains(day) {
			out.Totals.Expenses += e.Amount
		}
	}
	out.Totals.OperatingProfit = out.Totals.Sales - out.Totals.Expenses - out.Totals.Payroll

	key := month.String()
	for _, f := range ds.FixedExpenses {
		if f.Month != key {
			continue
		}
		out.FixedExpenses = append(out.FixedExpenses, ledger.FixedExpenseLine{Type: f.Type, Amount: f.Amount})
		out.Totals.FixedExpenses += f.Amount
	}
	out.Totals.NetProfit = out.Totals.OperatingProfit - out.Totals.FixedExpenses

	out.TopServices = topServices(serviceCounts, topServicesLimit)
	out.Inventory, out.InventoryStatus = rollupInventory(ds.Inventory)
	for y, row := range timeline {
		out.Timeline[strconv.Itoa(y)] = *row
	}
	return out
}

// topServices keeps the limit most frequent names; equal counts are
// ordered by name.
func topServices(counts map[string]int, limit int) map[string]int {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		out[name] = counts[name]
	}
	return out
}

func rollupInventory(items []ledger.InventoryItem) ([]InventoryRollup, InventoryStatus) {
	var status InventoryStatus
	rollup := []InventoryRollup{}
	index := map[string]int{}
	for _, item := range items {
		if item.Quantity > 0 {
			status.Available++
		} else {
			status.Depleted++
		}
		if item.Product == "" {
			continue
		}
		i, ok := index[item.Product]
		if !ok {
			index[item.Product] = len(rollup)
			rollup = append(rollup, InventoryRollup{Product: item.Product, Unit: item.Unit})
			i = len(rollup) - 1
		}
		rollup[i].Quantity += item.Quantity
		rollup[i].TotalValue += item.Quantity * item.UnitValue
	}
	return rollup, status
}
