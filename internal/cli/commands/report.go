package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/cli/config"
	"github.com/alignstack-labs/tokalign/internal/engine"
	"github.com/alignstack-labs/tokalign/internal/state"
	"github.com/alignstack-labs/tokalign/pkg/align"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var runID string
	var showErrors bool
	var topTypes int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render reports from a stored run",
		Long: `Render the cross-language reports of a persisted analysis run without
re-analyzing the corpus. Defaults to the most recent run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, runID, showErrors, topTypes)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID to report on (default: latest)")
	cmd.Flags().BoolVar(&showErrors, "errors", false, "Include the run's per-file errors")
	cmd.Flags().IntVar(&topTypes, "top-types", 0, "Show the N most common rule types per model")

	return cmd
}

func runReport(cmd *cobra.Command, runID string, showErrors bool, topTypes int) error {
	cfg := getConfig(cmd)
	renderer := getRenderer(cmd)

	store, run, err := openRun(cfg, runID)
	if err != nil {
		return err
	}
	defer store.Close()

	reports, err := engine.ReportsFromStore(store, run.ID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("run %s has no stored results", run.ID)
	}

	if renderer.JSON() {
		return renderer.Raw(reports)
	}
	for _, rep := range reports {
		if err := renderer.Report(rep); err != nil {
			return err
		}
	}
	if topTypes > 0 {
		langResults, err := store.LanguageResults(run.ID)
		if err != nil {
			return err
		}
		for _, model := range modelsOf(langResults) {
			types := align.CommonTypes(mergeByType(langResults, model))
			if len(types) > topTypes {
				types = types[:topTypes]
			}
			title := fmt.Sprintf("Most common rule types (%s)", model)
			if err := renderer.TypeCounts(title, types); err != nil {
				return err
			}
		}
	}
	if showErrors {
		errs, err := store.Errors(run.ID)
		if err != nil {
			return err
		}
		if err := renderer.Errors(errs); err != nil {
			return err
		}
	}
	return nil
}

// openRun opens the state store and resolves a run ID, defaulting to the
// latest run. The caller closes the store.
func openRun(cfg *config.Config, runID string) (*state.SQLiteStore, *state.Run, error) {
	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, err
	}

	var run *state.Run
	var err error
	if runID != "" {
		run, err = store.GetRun(runID)
	} else {
		run, err = store.LatestRun()
		if err == nil && run == nil {
			err = fmt.Errorf("no runs recorded yet; run 'tokalign analyze' first")
		}
	}
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, run, nil
}
