package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/erp/posbridge/internal/domain/catalogsync"
)

func newSyncCommand(opts *RootOptions, factory EnvFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Catalog reconciliation",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one catalog sync and print its summary",
		Long: `Run one CRM to POS catalog reconciliation in this process.

The run is independent of any server-side scheduler. The exit code is 1
when the run aborted, even though a partial summary is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := factory(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "setup failed", Err: err}
			}

			summary, runErr := env.Runner.Run(cmd.Context())
			out := newFormatter(opts, cmd.OutOrStdout())
			if summary != nil {
				if err := printSummary(out, summary); err != nil {
					return err
				}
			}
			if runErr != nil {
				return &ExitError{Code: ExitFailure, Message: "catalog sync aborted", Err: runErr}
			}
			return nil
		},
	})

	return cmd
}

func printSummary(out *formatter, summary *catalogsync.RunSummary) error {
	if out.isJSON() {
		return out.json(summary)
	}

	out.line("units: %d  created: %d  updated: %d  skipped: %d  errors: %d",
		summary.Units, summary.Created, summary.Updated, summary.Skipped, len(summary.Errors))
	out.line("duration: %s", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	if summary.Error != "" {
		out.line("aborted: %s", summary.Error)
	}
	if len(summary.Errors) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(summary.Errors))
	for i, e := range summary.Errors {
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Unit, e.Stage, e.Code, e.Message})
	}
	return out.table([]string{"#", "UNIT", "STAGE", "CODE", "MESSAGE"}, rows)
}
