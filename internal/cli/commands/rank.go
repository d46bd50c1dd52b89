package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/cli/output"
	"github.com/alignstack-labs/tokalign/internal/engine"
	"github.com/alignstack-labs/tokalign/pkg/align"
)

// NewRankCommand creates the rank command.
func NewRankCommand() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:       "rank [languages|models|files|types|depth|throughput]",
		Short:     "Rank languages, models, files, or rule groups by alignment score",
		Long: `Rank entities of a stored run by rule-level alignment score. Ties break
by total rule count, then by name; undefined scores rank last.

"types" and "depth" rank grammar rule types and nesting-depth buckets by
their per-group alignment rate. "throughput" ranks languages by analysis
speed instead of score.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"languages", "models", "files", "types", "depth", "throughput"},
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := "languages"
			if len(args) > 0 {
				subject = args[0]
			}
			return runRank(cmd, runID, subject)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID to rank (default: latest)")

	return cmd
}

func runRank(cmd *cobra.Command, runID, subject string) error {
	cfg := getConfig(cmd)
	renderer := getRenderer(cmd)

	store, run, err := openRun(cfg, runID)
	if err != nil {
		return err
	}
	defer store.Close()

	switch subject {
	case "languages":
		reports, err := engine.ReportsFromStore(store, run.ID)
		if err != nil {
			return err
		}
		for _, rep := range reports {
			title := fmt.Sprintf("Language rankings (%s)", rep.Model)
			if err := renderer.Rankings(title, rep.Rankings); err != nil {
				return err
			}
		}
		return nil

	case "models":
		reports, err := engine.ReportsFromStore(store, run.ID)
		if err != nil {
			return err
		}
		return renderer.Rankings("Model rankings", align.RankModels(reports))

	case "files":
		files, err := store.FileResults(run.ID)
		if err != nil {
			return err
		}
		// The same file appears once per model; one table per model keeps
		// the rows attributable.
		for _, model := range fileModels(files) {
			var subset []align.FileResult
			for _, fr := range files {
				if fr.Model == model {
					subset = append(subset, fr)
				}
			}
			title := fmt.Sprintf("File rankings (%s)", model)
			if err := renderer.Rankings(title, align.RankFiles(subset)); err != nil {
				return err
			}
		}
		return nil

	case "types", "depth":
		langResults, err := store.LanguageResults(run.ID)
		if err != nil {
			return err
		}
		for _, model := range modelsOf(langResults) {
			var entries []align.RankEntry
			if subject == "types" {
				entries = align.RankGroups(mergeByType(langResults, model))
			} else {
				entries = align.RankGroups(mergeByDepth(langResults, model))
			}
			title := fmt.Sprintf("%s rankings (%s)", subjectTitle(subject), model)
			if err := renderer.Rankings(title, entries); err != nil {
				return err
			}
		}
		return nil

	case "throughput":
		langResults, err := store.LanguageResults(run.ID)
		if err != nil {
			return err
		}
		for _, model := range modelsOf(langResults) {
			title := fmt.Sprintf("Throughput rankings (%s)", model)
			if err := renderer.Throughput(title, throughputRows(langResults, model)); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown ranking subject %q", subject)
	}
}

func subjectTitle(subject string) string {
	if subject == "depth" {
		return "Depth bucket"
	}
	return "Rule type"
}

func fileModels(files []align.FileResult) []string {
	var models []string
	seen := map[string]bool{}
	for _, fr := range files {
		if !seen[fr.Model] {
			seen[fr.Model] = true
			models = append(models, fr.Model)
		}
	}
	sort.Strings(models)
	return models
}

func modelsOf(langResults []align.LanguageResult) []string {
	var models []string
	seen := map[string]bool{}
	for _, lr := range langResults {
		if !seen[lr.Model] {
			seen[lr.Model] = true
			models = append(models, lr.Model)
		}
	}
	sort.Strings(models)
	return models
}

func mergeByType(langResults []align.LanguageResult, model string) map[string]align.GroupCount {
	merged := map[string]align.GroupCount{}
	for _, lr := range langResults {
		if lr.Model != model {
			continue
		}
		for typ, g := range lr.ByType {
			merged[typ] = merged[typ].Add(g)
		}
	}
	return merged
}

func mergeByDepth(langResults []align.LanguageResult, model string) map[align.DepthBucket]align.GroupCount {
	merged := map[align.DepthBucket]align.GroupCount{}
	for _, lr := range langResults {
		if lr.Model != model {
			continue
		}
		for b, g := range lr.ByDepthBucket {
			merged[b] = merged[b].Add(g)
		}
	}
	return merged
}

func throughputRows(langResults []align.LanguageResult, model string) []output.ThroughputRow {
	var rows []output.ThroughputRow
	for _, lr := range langResults {
		if lr.Model != model || lr.DurationMS == 0 {
			continue
		}
		rows = append(rows, output.ThroughputRow{
			Entity:      lr.Language,
			Bytes:       lr.ByteSize,
			DurationMS:  lr.DurationMS,
			BytesPerSec: float64(lr.ByteSize) / (float64(lr.DurationMS) / 1000),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BytesPerSec != rows[j].BytesPerSec {
			return rows[i].BytesPerSec > rows[j].BytesPerSec
		}
		return rows[i].Entity < rows[j].Entity
	})
	return rows
}
