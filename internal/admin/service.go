package admin

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/salonledger/salonledger/internal/dates"
	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/shared"
)

// Store is the persistence port of the admin editor.
type Store interface {
	List(ctx context.Context, t Table, q ListQuery) ([]Record, error)
	Get(ctx context.Context, t Table, id string) (Record, error)
	Insert(ctx context.Context, t Table, columns []string, values []any) (string, error)
	Update(ctx context.Context, t Table, id string, columns []string, values []any) error
	Delete(ctx context.Context, t Table, id string) error
}

// Invalidator drops cached aggregates after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service validates admin requests against the table allow-list.
type Service struct {
	store  Store
	cache  Invalidator
	logger *slog.Logger
	newID  func() string
}

// NewService constructs the admin service. cache may be nil.
func NewService(store Store, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, logger: logger, newID: uuid.NewString}
}

// Page is one listing page with the table's column order.
type Page struct {
	Data    []Record `json:"data"`
	Columns []string `json:"columns"`
}

// List pages through table, newest first. day filters on the calendar day
// (YYYY-MM-DD) of the table's date column.
func (s *Service) List(ctx context.Context, table, branch, day, limit, offset string) (Page, error) {
	t, err := Lookup(table)
	if err != nil {
		return Page{}, err
	}
	page, err := shared.ParsePage(limit, offset)
	if err != nil {
		return Page{}, httpx.Errorf(httpx.ErrValidation, "Paginación inválida")
	}
	day = strings.TrimSpace(day)
	if day != "" {
		if _, ok := dates.ParseDay(day); !ok {
			return Page{}, httpx.Errorf(httpx.ErrValidation, "Fecha inválida: %s", day)
		}
	}
	rows, err := s.store.List(ctx, t, ListQuery{Branch: strings.TrimSpace(branch), Day: day, Page: page})
	if err != nil {
		return Page{}, err
	}
	return Page{Data: rows, Columns: t.ColumnNames()}, nil
}

// Get returns one row.
func (s *Service) Get(ctx context.Context, table, id string) (Record, error) {
	t, err := Lookup(table)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, t, id)
}

// Create inserts a row built from fields and returns its id.
func (s *Service) Create(ctx context.Context, table string, fields map[string]any) (string, error) {
	t, err := Lookup(table)
	if err != nil {
		return "", err
	}
	columns, values, err := coerce(t, fields)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", httpx.Errorf(httpx.ErrValidation, "Datos incompletos")
	}
	if t.TextID {
		columns = append([]string{"id"}, columns...)
		values = append([]any{s.newID()}, values...)
	}
	id, err := s.store.Insert(ctx, t, columns, values)
	if err != nil {
		return "", err
	}
	s.afterWrite(ctx)
	return id, nil
}

// Update changes the given fields of one row.
func (s *Service) Update(ctx context.Context, table, id string, fields map[string]any) error {
	t, err := Lookup(table)
	if err != nil {
		return err
	}
	columns, values, err := coerce(t, fields)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return httpx.Errorf(httpx.ErrValidation, "Datos incompletos")
	}
	if err := s.store.Update(ctx, t, id, columns, values); err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

// Delete removes one row.
func (s *Service) Delete(ctx context.Context, table, id string) error {
	t, err := Lookup(table)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, t, id); err != nil {
		return err
	}
	s.afterWrite(ctx)
	return nil
}

func (s *Service) afterWrite(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}

// coerce checks every field against the table's columns and converts the
// values to their column kind. Columns come back in name order; "id" is
// never writable and is ignored.
func coerce(t Table, fields map[string]any) ([]string, []any, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		if name != "id" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	values := make([]any, 0, len(names))
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, nil, httpx.Errorf(httpx.ErrValidation, "Columna no permitida: %s", name)
		}
		v, err := coerceValue(col, fields[name])
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	return names, values, nil
}

func coerceValue(col Column, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch col.Kind {
	case Real:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case string:
			v = strings.TrimSpace(v)
			if v == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, httpx.Errorf(httpx.ErrValidation, "Valor numérico inválido en %s", col.Name)
			}
			return f, nil
		}
	default:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}
	}
	return nil, httpx.Errorf(httpx.ErrValidation, "Valor inválido en %s", col.Name)
}
