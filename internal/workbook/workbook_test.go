package workbook

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/salonledger/salonledger/internal/admin"
)

type memTables struct {
	rows map[string][]admin.Record
	err  error
}

func (m *memTables) All(_ context.Context, t admin.Table) ([]admin.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[t.Name], nil
}

func (m *memTables) Insert(_ context.Context, t admin.Table, columns []string, values []any) (string, error) {
	if m.rows == nil {
		m.rows = map[string][]admin.Record{}
	}
	rec := admin.Record{}
	for i, c := range columns {
		rec[c] = values[i]
	}
	m.rows[t.Name] = append(m.rows[t.Name], rec)
	return "", nil
}

func TestBackupName(t *testing.T) {
	at := time.Date(2025, 6, 1, 2, 5, 9, 0, time.UTC)
	require.Equal(t, "database_2025-06-01_020509.xlsx", BackupName(at))
}

func TestExportWritesEverySheet(t *testing.T) {
	src := &memTables{rows: map[string][]admin.Record{
		"servicios": {
			{"id": int64(1), "sede": "Principal", "fecha": "2025-06-01 09:00:00", "estilista": "Ana", "servicio": "Corte", "valor": 45000.0, "comision": 18000.0, "metodo_pago": "Efectivo"},
		},
		"citas": {
			{"id": "c-1", "sede": "Principal", "fecha": "2025-06-02", "hora": "10:00", "cliente": "Laura"},
		},
	}}

	var buf bytes.Buffer
	counts, err := Export(context.Background(), src, &buf)
	require.NoError(t, err)
	require.Equal(t, 1, counts["Servicios"])
	require.Equal(t, 0, counts["Gastos"])
	require.Equal(t, 2, counts.Total())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Servicios", "Productos", "Gastos", "Inventario", "Citas", "GastosMensuales"}, f.GetSheetList())

	rows, err := f.GetRows("Servicios")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"id", "sede", "fecha", "estilista", "servicio", "valor", "comision", "metodo_pago"}, rows[0])
	require.Equal(t, "Corte", rows[1][4])
	require.Equal(t, "45000", rows[1][5])

	rows, err = f.GetRows("Gastos")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestExportPropagatesReadErrors(t *testing.T) {
	_, err := Export(context.Background(), &memTables{err: errors.New("db down")}, &bytes.Buffer{})
	require.ErrorContains(t, err, "db down")
}

func TestWriteBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Backup")
	at := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)

	path, counts, err := WriteBackup(context.Background(), &memTables{}, dir, at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "database_2025-06-01_020000.xlsx"), path)
	require.Equal(t, 0, counts.Total())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())
}

func legacyWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Servicios"))
	require.NoError(t, f.SetSheetRow("Servicios", "A1", &[]any{"Sede", "Fecha", "Estilista", "Servicio", "Valor", "Comision", "Metodo Pago", "Extra"}))
	require.NoError(t, f.SetSheetRow("Servicios", "A2", &[]any{"Principal", "2025-06-01 09:00:00", "Ana", "Corte", 45000, 18000, "Efectivo", "x"}))
	require.NoError(t, f.SetSheetRow("Servicios", "A3", &[]any{"Norte", "2025-06-01 10:00:00", "Luis", "Tinte", "n/a", "", "Tarjeta"}))
	require.NoError(t, f.SetSheetRow("Servicios", "A5", &[]any{"Norte", "2025-06-02 10:00:00", "Luis", "Barba", 20000, 8000, "Nequi"}))

	_, err := f.NewSheet("Citas")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Citas", "A1", &[]any{"id", "sede", "fecha", "hora", "cliente"}))
	require.NoError(t, f.SetSheetRow("Citas", "A2", &[]any{"cita-7", "Principal", "2025-06-03", "11:00", "Laura"}))
	require.NoError(t, f.SetSheetRow("Citas", "A3", &[]any{"", "Principal", "2025-06-03", "12:00", "Marta"}))

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestImportLegacyWorkbook(t *testing.T) {
	sink := &memTables{}
	im := NewImporter(sink, nil)
	im.newID = func() string { return "generated" }

	counts, err := im.Import(context.Background(), legacyWorkbook(t))
	require.NoError(t, err)
	require.Equal(t, 3, counts["Servicios"])
	require.Equal(t, 2, counts["Citas"])
	_, seen := counts["Gastos"]
	require.False(t, seen)

	servicios := sink.rows["servicios"]
	require.Len(t, servicios, 3)
	require.Equal(t, "Corte", servicios[0]["servicio"])
	require.Equal(t, 45000.0, servicios[0]["valor"])
	require.Equal(t, "Efectivo", servicios[0]["metodo_pago"])
	require.NotContains(t, servicios[0], "extra")
	require.Nil(t, servicios[1]["valor"])
	require.Nil(t, servicios[1]["comision"])
	require.Equal(t, "Barba", servicios[2]["servicio"])

	citas := sink.rows["citas"]
	require.Equal(t, "cita-7", citas[0]["id"])
	require.Equal(t, "generated", citas[1]["id"])
}

func TestImportRejectsNonWorkbook(t *testing.T) {
	_, err := NewImporter(&memTables{}, nil).Import(context.Background(), bytes.NewBufferString("not a workbook"))
	require.Error(t, err)
}
