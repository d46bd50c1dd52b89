package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/cli/config"
	"github.com/alignstack-labs/tokalign/internal/corpus"
	"github.com/alignstack-labs/tokalign/internal/engine"
	"github.com/alignstack-labs/tokalign/internal/parser"
	"github.com/alignstack-labs/tokalign/internal/tokenizer"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	var noPersist bool
	var events bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze tokenizer alignment over a corpus",
		Long: `Parse every corpus file, tokenize it with each configured model, and
score how well token boundaries coincide with grammar rule boundaries.

Results are persisted to the state database so reports and rankings can
be re-rendered later without re-analyzing.`,
		Example: `  # Analyze the default corpus directory with the default model
  tokalign analyze

  # Compare two tokenizers over a JSONL corpus
  tokalign analyze --corpus-file corpus.jsonl --models gpt-4o,cl100k_base

  # Score a pre-tokenized offsets export
  tokalign analyze --offsets hf-offsets.json --models ""`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, noPersist, events)
		},
	}

	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Skip writing results to the state database")
	cmd.Flags().BoolVar(&events, "events", false, "Stream JSON-line progress events while analyzing")

	return cmd
}

func runAnalyze(cmd *cobra.Command, noPersist, events bool) error {
	cfg := getConfig(cmd)
	renderer := getRenderer(cmd)
	logger := getLogger(cmd)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateCorpus(); err != nil {
		return err
	}

	tokenizers, err := buildTokenizers(cfg)
	if err != nil {
		return err
	}

	statePath := cfg.StatePath
	if noPersist {
		statePath = ""
	} else if dir := filepath.Dir(statePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	var onEvent func(engine.Event)
	if events {
		enc := json.NewEncoder(cmd.OutOrStdout())
		onEvent = func(ev engine.Event) { _ = enc.Encode(ev) }
	}

	eng, err := engine.New(engine.Config{
		Parser:           parser.NewTreeSitter(),
		Tokenizers:       tokenizers,
		StatePath:        statePath,
		Workers:          cfg.Workers,
		FileTimeout:      cfg.FileTimeout,
		SkipTypes:        cfg.SkipTypeSet(),
		IncludeTextEdges: cfg.IncludeTextEdges,
		Logger:           logger,
		OnEvent:          onEvent,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	source, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	summary, err := eng.Run(cmd.Context(), source)
	if err != nil {
		return err
	}

	if renderer.JSON() {
		return renderer.Raw(summary)
	}

	for _, rep := range summary.Reports {
		if err := renderer.Report(rep); err != nil {
			return err
		}
	}
	if err := renderer.Errors(summary.Errors); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s: %s (%d files, %d skipped, %dms)\n",
		summary.RunID, summary.Status, summary.FilesTotal, summary.FilesSkipped, summary.DurationMS)
	return nil
}

// buildTokenizers assembles the models under evaluation: tiktoken
// encodings plus any pre-tokenized offsets exports.
func buildTokenizers(cfg *config.Config) ([]tokenizer.Tokenizer, error) {
	var toks []tokenizer.Tokenizer
	for _, model := range cfg.Models {
		tk, err := tokenizer.NewTiktoken(model)
		if err != nil {
			return nil, fmt.Errorf("unknown model %q: %w", model, err)
		}
		toks = append(toks, tk)
	}
	for _, path := range cfg.OffsetsFiles {
		of, err := tokenizer.LoadOffsetsFile(path)
		if err != nil {
			return nil, fmt.Errorf("offsets file %s: %w", path, err)
		}
		toks = append(toks, of)
	}
	return toks, nil
}

func buildSource(cfg *config.Config, logger *slog.Logger) (corpus.Source, error) {
	if cfg.CorpusFile != "" {
		return corpus.NewJSONLSource(cfg.CorpusFile, logger)
	}
	return corpus.NewDirSource(cfg.CorpusDir, cfg.Languages, logger)
}
