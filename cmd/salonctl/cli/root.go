// Package cli implements the salonctl command tree.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/salonledger/salonledger/internal/admin"
)

// Tables reads and writes whole store tables.
type Tables interface {
	All(ctx context.Context, t admin.Table) ([]admin.Record, error)
	Insert(ctx context.Context, t admin.Table, columns []string, values []any) (string, error)
}

// Enqueuer submits background jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string) (*asynq.TaskInfo, error)
	Close() error
}

// Deps opens the resources commands need. Each opener returns a release
// function the command calls when done.
type Deps struct {
	Migrate    func(ctx context.Context) error
	OpenTables func(ctx context.Context) (Tables, func(), error)
	OpenJobs   func() (Enqueuer, error)
	// Invalidate drops cached reports after an import; optional.
	Invalidate func(ctx context.Context) error
	BackupDir  string
	Now        func() time.Time
}

// NewRootCmd builds the salonctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	root := &cobra.Command{
		Use:           "salonctl",
		Short:         "Operations tooling for the salon ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(deps),
		newBackupCmd(deps),
		newImportCmd(deps),
		newJobsCmd(deps),
	)
	return root
}

// Execute runs the command tree with args, writing output to out.
func Execute(ctx context.Context, deps Deps, args []string, out io.Writer) error {
	root := NewRootCmd(deps)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

func newMigrateCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := deps.Migrate(ctx); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}
