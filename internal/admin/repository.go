package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/shared"
)

// Record is one row keyed by column name.
type Record map[string]any

// ListQuery filters and pages a listing.
type ListQuery struct {
	Branch string
	Day    string
	Page   shared.Page
}

// Repository runs admin statements against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// buildList renders the listing statement of t.
func buildList(t Table, q ListQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Branch != "" {
		args = append(args, q.Branch)
		conds = append(conds, fmt.Sprintf("sede = $%d", len(args)))
	}
	if q.Day != "" {
		args = append(args, q.Day)
		conds = append(conds, fmt.Sprintf("left(%s, 10) = $%d", t.DateColumn, len(args)))
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(t.ColumnNames(), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(t.Name)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, q.Page.Limit, q.Page.Offset)
	fmt.Fprintf(&sb, " ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return sb.String(), args
}

// buildInsert renders an INSERT of the given columns returning the id.
func buildInsert(t Table, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
		t.Name, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// buildUpdate renders an UPDATE of the given columns; the id is the last argument.
func buildUpdate(t Table, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id::text = $%d", t.Name, strings.Join(sets, ", "), len(columns)+1)
}

// List returns one page of t.
func (r *Repository) List(ctx context.Context, t Table, q ListQuery) ([]Record, error) {
	sql, args := buildList(t, q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("admin: list %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// All returns every row of t in id order.
func (r *Repository) All(ctx context.Context, t Table) ([]Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(t.ColumnNames(), ", "), t.Name)
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("admin: dump %s: %w", t.Name, err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the row of t with the given id.
func (r *Repository) Get(ctx context.Context, t Table, id string) (Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id::text = $1", strings.Join(t.ColumnNames(), ", "), t.Name)
	rows, err := r.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("admin: get %s: %w", t.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, httpx.Errorf(httpx.ErrNotFound, "Registro no encontrado")
	}
	return scanRecord(rows)
}

// Insert stores a row and returns its id.
func (r *Repository) Insert(ctx context.Context, t Table, columns []string, values []any) (string, error) {
	var id string
	if err := r.pool.QueryRow(ctx, buildInsert(t, columns), values...).Scan(&id); err != nil {
		return "", fmt.Errorf("admin: insert %s: %w", t.Name, err)
	}
	return id, nil
}

// Update changes the given columns of one row.
func (r *Repository) Update(ctx context.Context, t Table, id string, columns []string, values []any) error {
	tag, err := r.pool.Exec(ctx, buildUpdate(t, columns), append(values, id)...)
	if err != nil {
		return fmt.Errorf("admin: update %s: %w", t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Registro no encontrado")
	}
	return nil
}

// Delete removes one row.
func (r *Repository) Delete(ctx context.Context, t Table, id string) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id::text = $1", t.Name), id)
	if err != nil {
		return fmt.Errorf("admin: delete %s: %w", t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Registro no encontrado")
	}
	return nil
}

func scanRecord(rows pgx.Rows) (Record, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	rec := make(Record, len(values))
	for i, fd := range rows.FieldDescriptions() {
		rec[fd.Name] = values[i]
	}
	return rec, nil
}
