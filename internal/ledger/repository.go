package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonledger/salonledger/internal/platform/db"
	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Repository persists ledger records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	queries
}

// queries holds the statements shared by the pool and transaction scopes.
type queries struct {
	db db.DBTX
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, queries: queries{db: pool}}
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &queries{db: tx})
	})
}

func (q *queries) InsertServiceSale(ctx context.Context, sale ServiceSale) (int64, error) {
	const stmt = `INSERT INTO servicios (sede, fecha, estilista, servicio, valor, comision, metodo_pago)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id int64
	err := q.db.QueryRow(ctx, stmt, sale.Branch, sale.Fecha, sale.Stylist, sale.Service, sale.Amount, sale.Commission, sale.PaymentMethod).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert service sale: %w", err)
	}
	return id, nil
}

func (q *queries) InsertProductSale(ctx context.Context, sale ProductSale) (int64, error) {
	const stmt = `INSERT INTO productos (sede, fecha, estilista, producto, marca, descripcion, valor, comision, metodo_pago)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id int64
	err := q.db.QueryRow(ctx, stmt, sale.Branch, sale.Fecha, sale.Stylist, sale.Product, sale.Brand, sale.Description,
		sale.Amount, sale.Commission, sale.PaymentMethod).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ledger: insert product sale: %w", err)
	}
	return id, nil
}

func (q *queries) InsertExpense(ctx context.Context, expense Expense) (int64, error) {
	const stmt = `INSERT INTO gastos (sede, fecha, descripcion, valor) VALUES ($1, $2, $3, $4) RETURNING id`
	var id int64
	if err := q.db.QueryRow(ctx, stmt, expense.Branch, expense.Fecha, expense.Description, expense.Amount).Scan(&id); err != nil {
		return 0, fmt.Errorf("ledger: insert expense: %w", err)
	}
	return id, nil
}

func (q *queries) UpdateSaleAmounts(ctx context.Context, kind string, id int64, amount, commission float64) error {
	var stmt string
	switch kind {
	case KindServices:
		stmt = `UPDATE servicios SET valor = $1, comision = $2 WHERE id = $3`
	case KindProducts:
		stmt = `UPDATE productos SET valor = $1, comision = $2 WHERE id = $3`
	default:
		return httpx.Errorf(httpx.ErrValidation, "Tabla inválida")
	}
	tag, err := q.db.Exec(ctx, stmt, amount, commission, id)
	if err != nil {
		return fmt.Errorf("ledger: update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Item no encontrado")
	}
	return nil
}

func (q *queries) ListServiceSales(ctx context.Context, filter Filter) ([]ServiceSale, error) {
	sql, args := withBranch(`SELECT id, sede, fecha, estilista, servicio, valor, comision, metodo_pago FROM servicios`, filter)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list service sales: %w", err)
	}
	defer rows.Close()

	var out []ServiceSale
	for rows.Next() {
		var (
			sale                     ServiceSale
			fecha, stylist, svc, pay pgtype.Text
			amount, commission       pgtype.Float8
		)
		if err := rows.Scan(&sale.ID, &sale.Branch, &fecha, &stylist, &svc, &amount, &commission, &pay); err != nil {
			return nil, err
		}
		sale.Fecha, sale.Stylist, sale.Service, sale.PaymentMethod = fecha.String, stylist.String, svc.String, pay.String
		sale.Amount, sale.Commission = amount.Float64, commission.Float64
		out = append(out, sale)
	}
	return out, rows.Err()
}

func (q *queries) ListProductSales(ctx context.Context, filter Filter) ([]ProductSale, error) {
	sql, args := withBranch(`SELECT id, sede, fecha, estilista, producto, marca, descripcion, valor, comision, metodo_pago FROM productos`, filter)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list product sales: %w", err)
	}
	defer rows.Close()

	var out []ProductSale
	for rows.Next() {
		var (
			sale                                 ProductSale
			fecha, stylist, product, brand, desc pgtype.Text
			pay                                  pgtype.Text
			amount, commission                   pgtype.Float8
		)
		if err := rows.Scan(&sale.ID, &sale.Branch, &fecha, &stylist, &product, &brand, &desc, &amount, &commission, &pay); err != nil {
			return nil, err
		}
		sale.Fecha, sale.Stylist, sale.Product = fecha.String, stylist.String, product.String
		sale.Brand, sale.Description, sale.PaymentMethod = brand.String, desc.String, pay.String
		sale.Amount, sale.Commission = amount.Float64, commission.Float64
		out = append(out, sale)
	}
	return out, rows.Err()
}

func (q *queries) ListExpenses(ctx context.Context, filter Filter) ([]Expense, error) {
	sql, args := withBranch(`SELECT id, sede, fecha, descripcion, valor FROM gastos`, filter)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list expenses: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		var (
			expense     Expense
			fecha, desc pgtype.Text
			amount      pgtype.Float8
		)
		if err := rows.Scan(&expense.ID, &expense.Branch, &fecha, &desc, &amount); err != nil {
			return nil, err
		}
		expense.Fecha, expense.Description, expense.Amount = fecha.String, desc.String, amount.Float64
		out = append(out, expense)
	}
	return out, rows.Err()
}

const inventoryColumns = `id, sede, producto, marca, descripcion, cantidad, unidad, valor, estado, fecha_actualizacion`

func (q *queries) ListInventory(ctx context.Context, filter Filter) ([]InventoryItem, error) {
	sql, args := withBranch(`SELECT `+inventoryColumns+` FROM inventario`, filter)
	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (q *queries) UpsertInventory(ctx context.Context, item InventoryItem) (bool, error) {
	const stmt = `INSERT INTO inventario (sede, producto, marca, descripcion, cantidad, unidad, valor, estado, fecha_actualizacion)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT ON CONSTRAINT inventario_identity DO UPDATE SET
    cantidad = EXCLUDED.cantidad,
    unidad = EXCLUDED.unidad,
    valor = EXCLUDED.valor,
    estado = EXCLUDED.estado,
    fecha_actualizacion = EXCLUDED.fecha_actualizacion
RETURNING (xmax = 0)`
	var inserted bool
	err := q.db.QueryRow(ctx, stmt, item.Branch, item.Product, item.Brand, item.Description, item.Quantity,
		item.Unit, item.UnitValue, item.Status, item.UpdatedAt).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("ledger: upsert inventory: %w", err)
	}
	return inserted, nil
}

func (q *queries) DeleteInventory(ctx context.Context, key InventoryKey) error {
	const stmt = `DELETE FROM inventario WHERE sede = $1 AND producto = $2 AND marca = $3 AND descripcion = $4`
	tag, err := q.db.Exec(ctx, stmt, key.Branch, key.Product, key.Brand, key.Description)
	if err != nil {
		return fmt.Errorf("ledger: delete inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Producto no encontrado")
	}
	return nil
}

// FindInventoryForSale locks the inventory row a product sale draws from:
// same branch and product, preferring an exact brand/description match.
func (q *queries) FindInventoryForSale(ctx context.Context, key InventoryKey) (InventoryItem, error) {
	const stmt = `SELECT ` + inventoryColumns + ` FROM inventario
WHERE sede = $1 AND producto = $2
ORDER BY (marca = $3 AND descripcion = $4) DESC, id
LIMIT 1
FOR UPDATE`
	item, err := scanInventory(q.db.QueryRow(ctx, stmt, key.Branch, key.Product, key.Brand, key.Description))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryItem{}, httpx.ErrNotFound
		}
		return InventoryItem{}, fmt.Errorf("ledger: find inventory: %w", err)
	}
	return item, nil
}

func (q *queries) UpdateInventoryStock(ctx context.Context, item InventoryItem) error {
	const stmt = `UPDATE inventario SET cantidad = $1, estado = $2, fecha_actualizacion = $3 WHERE id = $4`
	if _, err := q.db.Exec(ctx, stmt, item.Quantity, item.Status, item.UpdatedAt, item.ID); err != nil {
		return fmt.Errorf("ledger: update inventory stock: %w", err)
	}
	return nil
}

func (q *queries) UpsertFixedExpense(ctx context.Context, expense FixedExpense) error {
	const stmt = `INSERT INTO gastos_mensuales (sede, mes, tipo, valor, fecha_registro)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT ON CONSTRAINT gastos_mensuales_identity DO UPDATE SET
    valor = EXCLUDED.valor,
    fecha_registro = EXCLUDED.fecha_registro`
	if _, err := q.db.Exec(ctx, stmt, expense.Branch, expense.Month, expense.Type, expense.Amount, expense.RecordedAt); err != nil {
		return fmt.Errorf("ledger: upsert fixed expense: %w", err)
	}
	return nil
}

func (q *queries) ListFixedExpenses(ctx context.Context, filter Filter, month string) ([]FixedExpense, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Branch != "" {
		args = append(args, filter.Branch)
		conds = append(conds, fmt.Sprintf("sede = $%d", len(args)))
	}
	if month != "" {
		args = append(args, month)
		conds = append(conds, fmt.Sprintf("mes = $%d", len(args)))
	}
	sql := `SELECT id, sede, mes, tipo, valor, fecha_registro FROM gastos_mensuales`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY id"

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list fixed expenses: %w", err)
	}
	defer rows.Close()

	var out []FixedExpense
	for rows.Next() {
		var (
			expense  FixedExpense
			amount   pgtype.Float8
			recorded pgtype.Text
		)
		if err := rows.Scan(&expense.ID, &expense.Branch, &expense.Month, &expense.Type, &amount, &recorded); err != nil {
			return nil, err
		}
		expense.Amount, expense.RecordedAt = amount.Float64, recorded.String
		out = append(out, expense)
	}
	return out, rows.Err()
}

func withBranch(base string, filter Filter) (string, []any) {
	if filter.Branch == "" {
		return base + " ORDER BY id", nil
	}
	return base + " WHERE sede = $1 ORDER BY id", []any{filter.Branch}
}

func scanInventory(row pgx.Row) (InventoryItem, error) {
	var (
		item                    InventoryItem
		unit, status, updatedAt pgtype.Text
		quantity, unitValue     pgtype.Float8
	)
	if err := row.Scan(&item.ID, &item.Branch, &item.Product, &item.Brand, &item.Description,
		&quantity, &unit, &unitValue, &status, &updatedAt); err != nil {
		return InventoryItem{}, err
	}
	item.Quantity, item.UnitValue = quantity.Float64, unitValue.Float64
	item.Unit, item.Status, item.UpdatedAt = unit.String, status.String, updatedAt.String
	return item, nil
}
