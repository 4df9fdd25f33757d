package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/salonledger/salonledger/internal/workbook"
)

type backupCmd struct {
	deps Deps
	dir  string
}

func newBackupCmd(deps Deps) *cobra.Command {
	bc := &backupCmd{deps: deps}
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a dated workbook backup of every table",
		Args:  cobra.NoArgs,
		RunE:  bc.run,
	}
	cmd.Flags().StringVar(&bc.dir, "dir", deps.BackupDir, "Directory the backup is written to")
	return cmd
}

func (bc *backupCmd) run(cmd *cobra.Command, _ []string) error {
	if bc.dir == "" {
		return fmt.Errorf("backup directory not set")
	}
	tables, release, err := bc.deps.OpenTables(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	path, counts, err := workbook.WriteBackup(cmd.Context(), tables, bc.dir, bc.deps.Now())
	if err != nil {
		return err
	}
	printCounts(cmd, counts)
	cmd.Printf("backup written to %s\n", path)
	return nil
}

func newImportCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Append the sheets of a legacy workbook to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			tables, release, err := deps.OpenTables(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			counts, err := workbook.NewImporter(tables, nil).Import(cmd.Context(), file)
			printCounts(cmd, counts)
			if err != nil {
				return err
			}
			if deps.Invalidate != nil {
				if err := deps.Invalidate(cmd.Context()); err != nil {
					cmd.PrintErrf("warning: report cache not invalidated: %v\n", err)
				}
			}
			cmd.Printf("imported %d rows\n", counts.Total())
			return nil
		},
	}
}

func printCounts(cmd *cobra.Command, counts workbook.Counts) {
	for _, entry := range workbook.Sheets {
		if n, ok := counts[entry.Sheet]; ok {
			cmd.Printf("%-16s %d\n", entry.Sheet, n)
		}
	}
}
