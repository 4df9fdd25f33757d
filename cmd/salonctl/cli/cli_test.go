package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/salonledger/salonledger/internal/admin"
	"github.com/salonledger/salonledger/jobs"
)

type memTables struct {
	rows map[string][]admin.Record
}

func (m *memTables) All(_ context.Context, t admin.Table) ([]admin.Record, error) {
	return m.rows[t.Name], nil
}

func (m *memTables) Insert(_ context.Context, t admin.Table, columns []string, values []any) (string, error) {
	rec := admin.Record{}
	for i, c := range columns {
		rec[c] = values[i]
	}
	m.rows[t.Name] = append(m.rows[t.Name], rec)
	return "", nil
}

type fakeEnqueuer struct {
	enqueued []string
	closed   bool
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, taskType string) (*asynq.TaskInfo, error) {
	f.enqueued = append(f.enqueued, taskType)
	return &asynq.TaskInfo{ID: "t-1", Type: taskType, Queue: jobs.QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

func testDeps(tables *memTables, enq *fakeEnqueuer) Deps {
	return Deps{
		Migrate: func(context.Context) error { return nil },
		OpenTables: func(context.Context) (Tables, func(), error) {
			return tables, func() {}, nil
		},
		OpenJobs: func() (Enqueuer, error) { return enq, nil },
		Now:      func() time.Time { return time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC) },
	}
}

func TestMigrate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), testDeps(&memTables{}, nil), []string{"migrate"}, &out))
	require.Contains(t, out.String(), "migrations applied")

	deps := testDeps(&memTables{}, nil)
	deps.Migrate = func(context.Context) error { return errors.New("dial tcp: refused") }
	require.ErrorContains(t, Execute(context.Background(), deps, []string{"migrate"}, &out), "refused")
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	tables := &memTables{rows: map[string][]admin.Record{
		"gastos": {{"id": int64(1), "sede": "Principal", "descripcion": "Aseo", "valor": 5000.0}},
	}}
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), testDeps(tables, nil), []string{"backup", "--dir", dir}, &out))

	path := filepath.Join(dir, "database_2025-06-01_020000.xlsx")
	_, err := os.Stat(path)
	require.NoError(t, err)
	require.Contains(t, out.String(), "backup written to "+path)
	require.Contains(t, out.String(), "Gastos")
}

func TestImport(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Gastos"))
	require.NoError(t, f.SetSheetRow("Gastos", "A1", &[]any{"Sede", "Fecha", "Descripcion", "Valor"}))
	require.NoError(t, f.SetSheetRow("Gastos", "A2", &[]any{"Principal", "2025-06-01", "Aseo", 5000}))
	path := filepath.Join(t.TempDir(), "database.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tables := &memTables{rows: map[string][]admin.Record{}}
	deps := testDeps(tables, nil)
	invalidated := false
	deps.Invalidate = func(context.Context) error {
		invalidated = true
		return nil
	}

	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), deps, []string{"import", path}, &out))
	require.Len(t, tables.rows["gastos"], 1)
	require.Equal(t, 5000.0, tables.rows["gastos"][0]["valor"])
	require.True(t, invalidated)
	require.Contains(t, out.String(), "imported 1 rows")

	require.Error(t, Execute(context.Background(), deps, []string{"import"}, &out))
}

func TestJobsEnqueue(t *testing.T) {
	enq := &fakeEnqueuer{}
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), testDeps(nil, enq), []string{"jobs", "enqueue", jobs.TaskReportsWarmup}, &out))
	require.Equal(t, []string{jobs.TaskReportsWarmup}, enq.enqueued)
	require.True(t, enq.closed)
	require.Contains(t, out.String(), "enqueued reports:warmup id=t-1")

	require.Error(t, Execute(context.Background(), testDeps(nil, enq), []string{"jobs", "enqueue", "mail:send"}, &out))
	require.Len(t, enq.enqueued, 1)
}
