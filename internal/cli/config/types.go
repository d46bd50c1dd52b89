// Package config provides configuration management for the tokalign CLI.
// Values are resolved from defaults, a config file, environment variables,
// and flags, in increasing order of precedence.
package config

import "time"

// Default configuration values.
const (
	DefaultCorpusDir   = "corpus"
	DefaultStateFile   = ".tokalign/state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultFileTimeout = 30 * time.Second
)

// DefaultModels are the tokenizers evaluated when none are configured.
var DefaultModels = []string{"gpt-4o"}

// Config holds all CLI configuration options.
type Config struct {
	// CorpusDir is a directory with one subdirectory per language.
	CorpusDir string `koanf:"corpus_dir"`
	// CorpusFile is a JSONL corpus; when set it takes precedence over
	// CorpusDir.
	CorpusFile string `koanf:"corpus_file"`
	// Models are tiktoken encoding or model names to evaluate.
	Models []string `koanf:"models"`
	// OffsetsFiles are pre-tokenized offset exports, evaluated alongside
	// Models.
	OffsetsFiles []string `koanf:"offsets_files"`
	// Languages restricts analysis to the named languages. Empty means all
	// supported languages.
	Languages []string `koanf:"languages"`
	// SkipTypes overrides the node types excluded from rule extraction.
	SkipTypes []string `koanf:"skip_types"`
	// IncludeTextEdges seeds offsets 0 and len(text) into every boundary set.
	IncludeTextEdges bool `koanf:"include_text_edges"`

	StatePath   string        `koanf:"state_path"`
	Workers     int           `koanf:"workers"`
	FileTimeout time.Duration `koanf:"file_timeout"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// SkipTypeSet returns SkipTypes as a set, or nil when unset so the engine
// default applies.
func (c *Config) SkipTypeSet() map[string]bool {
	if len(c.SkipTypes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.SkipTypes))
	for _, t := range c.SkipTypes {
		set[t] = true
	}
	return set
}
