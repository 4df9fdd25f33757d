package cli

import (
	"github.com/spf13/cobra"

	"github.com/salonledger/salonledger/jobs"
)

func newJobsCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage background jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "enqueue <task>",
		Short:     "Enqueue a background job",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{jobs.TaskBackupWorkbook, jobs.TaskReportsWarmup},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := deps.OpenJobs()
			if err != nil {
				return err
			}
			defer client.Close()

			info, err := client.Enqueue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	})
	return cmd
}
