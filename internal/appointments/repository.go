package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Repository persists appointments in the citas table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `SELECT id, sede, fecha, hora, cliente, telefono, servicio, notas, estado FROM citas`

// Insert stores a new appointment.
func (r *Repository) Insert(ctx context.Context, a Appointment) error {
	const stmt = `INSERT INTO citas (id, sede, fecha, hora, cliente, telefono, servicio, notas, estado)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.pool.Exec(ctx, stmt, a.ID, a.Branch, a.Fecha, a.Hora, a.Client, a.Phone, a.Service, a.Notes, a.Status); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// List returns the appointments of branch; an empty branch lists every branch.
func (r *Repository) List(ctx context.Context, branch string) ([]Appointment, error) {
	sql := selectColumns
	var args []any
	if branch != "" {
		sql += ` WHERE sede = $1`
		args = append(args, branch)
	}
	sql += ` ORDER BY hora, id`
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get loads one appointment by id.
func (r *Repository) Get(ctx context.Context, id string) (Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, httpx.Errorf(httpx.ErrNotFound, "Cita no encontrada")
	}
	return a, err
}

// Update replaces the mutable fields of an appointment.
func (r *Repository) Update(ctx context.Context, a Appointment) error {
	const stmt = `UPDATE citas SET fecha = $2, hora = $3, cliente = $4, telefono = $5, servicio = $6, notas = $7, estado = $8
WHERE id = $1`
	tag, err := r.pool.Exec(ctx, stmt, a.ID, a.Fecha, a.Hora, a.Client, a.Phone, a.Service, a.Notes, a.Status)
	if err != nil {
		return fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Cita no encontrada")
	}
	return nil
}

// Delete removes an appointment.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM citas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.Errorf(httpx.ErrNotFound, "Cita no encontrada")
	}
	return nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		a                                                  Appointment
		fecha, hora, client, phone, service, notes, status pgtype.Text
	)
	if err := row.Scan(&a.ID, &a.Branch, &fecha, &hora, &client, &phone, &service, &notes, &status); err != nil {
		return Appointment{}, err
	}
	a.Fecha, a.Hora, a.Client, a.Phone = fecha.String, hora.String, client.String, phone.String
	a.Service, a.Notes, a.Status = service.String, notes.String, status.String
	return a, nil
}
