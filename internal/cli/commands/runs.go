package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int) error {
	cfg := getConfig(cmd)
	renderer := getRenderer(cmd)

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}
	return renderer.Runs(runs)
}
