// Package workbook moves the store's tables in and out of .xlsx workbooks:
// dated backups written by the worker and the import of legacy spreadsheets.
package workbook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/salonledger/salonledger/internal/admin"
)

// Sheets maps every table to its sheet name, in workbook order.
var Sheets = []struct {
	Table string
	Sheet string
}{
	{"servicios", "Servicios"},
	{"productos", "Productos"},
	{"gastos", "Gastos"},
	{"inventario", "Inventario"},
	{"citas", "Citas"},
	{"gastos_mensuales", "GastosMensuales"},
}

// Source reads whole tables for export.
type Source interface {
	All(ctx context.Context, t admin.Table) ([]admin.Record, error)
}

// Sink stores imported rows.
type Sink interface {
	Insert(ctx context.Context, t admin.Table, columns []string, values []any) (string, error)
}

// Counts holds the number of rows moved per sheet.
type Counts map[string]int

// Total sums the rows of every sheet.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// BackupName returns the file name of a backup taken at t.
func BackupName(t time.Time) string {
	return "database_" + t.Format("2006-01-02_150405") + ".xlsx"
}

// Export writes one sheet per table to w. The header row holds the column
// names, id first.
func Export(ctx context.Context, src Source, w io.Writer) (Counts, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	counts := Counts{}
	for i, entry := range Sheets {
		t, err := admin.Lookup(entry.Table)
		if err != nil {
			return nil, err
		}
		rows, err := src.All(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("workbook: read %s: %w", entry.Table, err)
		}
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), entry.Sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(entry.Sheet); err != nil {
			return nil, err
		}

		names := t.ColumnNames()
		header := make([]any, len(names))
		for j, n := range names {
			header[j] = n
		}
		if err := f.SetSheetRow(entry.Sheet, "A1", &header); err != nil {
			return nil, err
		}
		for r, rec := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			values := make([]any, len(names))
			for j, n := range names {
				values[j] = rec[n]
			}
			if err := f.SetSheetRow(entry.Sheet, cell, &values); err != nil {
				return nil, err
			}
		}
		counts[entry.Sheet] = len(rows)
	}
	if _, err := f.WriteTo(w); err != nil {
		return nil, fmt.Errorf("workbook: write: %w", err)
	}
	return counts, nil
}

// WriteBackup exports the store into dir under BackupName(now) and returns
// the file path.
func WriteBackup(ctx context.Context, src Source, dir string, now time.Time) (string, Counts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("workbook: backup dir: %w", err)
	}
	path := filepath.Join(dir, BackupName(now))
	file, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("workbook: create backup: %w", err)
	}
	counts, err := Export(ctx, src, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, counts, nil
}

// Importer loads legacy workbooks into the store.
type Importer struct {
	sink   Sink
	logger *slog.Logger
	newID  func() string
}

// NewImporter constructs an Importer.
func NewImporter(sink Sink, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{sink: sink, logger: logger, newID: uuid.NewString}
}

// Import appends every known sheet of r to its table. Missing sheets are
// skipped. Headers are matched case-insensitively with spaces read as
// underscores; unknown columns are ignored. Numeric cells that do not parse
// are stored as NULL.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Counts, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("workbook: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	present := map[string]bool{}
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	counts := Counts{}
	for _, entry := range Sheets {
		if !present[entry.Sheet] {
			im.logger.Warn("sheet missing, skipped", slog.String("sheet", entry.Sheet))
			continue
		}
		t, err := admin.Lookup(entry.Table)
		if err != nil {
			return counts, err
		}
		rows, err := f.GetRows(entry.Sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return counts, fmt.Errorf("workbook: read sheet %s: %w", entry.Sheet, err)
		}
		n, err := im.importRows(ctx, t, rows)
		counts[entry.Sheet] = n
		if err != nil {
			return counts, fmt.Errorf("workbook: import %s: %w", entry.Sheet, err)
		}
	}
	return counts, nil
}

func (im *Importer) importRows(ctx context.Context, t admin.Table, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	type target struct {
		index  int
		column admin.Column
	}
	var (
		targets []target
		idIndex = -1
	)
	for i, h := range rows[0] {
		name := normalizeHeader(h)
		if name == "id" {
			idIndex = i
			continue
		}
		if col, ok := t.Column(name); ok {
			targets = append(targets, target{index: i, column: col})
		}
	}

	inserted := 0
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		columns := make([]string, 0, len(targets)+1)
		values := make([]any, 0, len(targets)+1)
		if t.TextID {
			id := ""
			if idIndex >= 0 && idIndex < len(row) {
				id = strings.TrimSpace(row[idIndex])
			}
			if id == "" {
				id = im.newID()
			}
			columns = append(columns, "id")
			values = append(values, id)
		}
		for _, tg := range targets {
			cell := ""
			if tg.index < len(row) {
				cell = row[tg.index]
			}
			columns = append(columns, tg.column.Name)
			values = append(values, cellValue(tg.column, cell))
		}
		if _, err := im.sink.Insert(ctx, t, columns, values); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellValue(col admin.Column, raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if col.Kind == admin.Real {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return v
	}
	return raw
}
