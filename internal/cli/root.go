// Package cli provides the command-line interface for tokalign.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alignstack-labs/tokalign/internal/cli/commands"
	"github.com/alignstack-labs/tokalign/internal/cli/config"
	"github.com/alignstack-labs/tokalign/internal/cli/output"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tokalign",
		Short: "tokalign - Tokenizer-grammar boundary alignment scorer",
		Long: `tokalign quantifies how well a tokenizer's segment boundaries agree
with the rule boundaries a grammar parser assigns to the same source
files, across languages and models.

A corpus is parsed once per file; each configured tokenizer is scored
against the resulting grammar rule spans, and the per-file scores are
folded into per-language and cross-language reports.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)

			mode := output.Mode(cfg.OutputFormat)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
			ctx = commands.WithRenderer(ctx, renderer)

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			ctx = commands.WithLogger(ctx, logger)

			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tokalign.yaml)")
	rootCmd.PersistentFlags().String("corpus-dir", "", "Path to the corpus directory (one subdirectory per language)")
	rootCmd.PersistentFlags().String("corpus-file", "", "Path to a JSONL corpus file")
	rootCmd.PersistentFlags().StringSlice("models", nil, "Tiktoken models or encodings to evaluate")
	rootCmd.PersistentFlags().StringSlice("offsets", nil, "Pre-tokenized offsets files to evaluate")
	rootCmd.PersistentFlags().StringSlice("languages", nil, "Restrict analysis to these languages")
	rootCmd.PersistentFlags().String("state", "", "Path to the state database")
	rootCmd.PersistentFlags().Int("workers", 0, "Concurrent file analysis limit (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Duration("file-timeout", 0, "Per-file parse+tokenize timeout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewRankCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewLanguagesCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
