// Package engine orchestrates corpus analysis: parsing files, scoring
// tokenizer boundaries against grammar rule boundaries, and folding the
// per-file results into per-language and cross-language aggregates.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/alignstack-labs/tokalign/internal/parser"
	"github.com/alignstack-labs/tokalign/internal/state"
	"github.com/alignstack-labs/tokalign/internal/tokenizer"
	"github.com/alignstack-labs/tokalign/pkg/align"
)

// DefaultFileTimeout bounds parsing plus tokenization of a single file.
const DefaultFileTimeout = 30 * time.Second

// Engine runs alignment analysis over a corpus.
type Engine struct {
	parser     parser.Parser
	tokenizers []tokenizer.Tokenizer
	store      *state.SQLiteStore
	logger     *slog.Logger

	workers     int
	fileTimeout time.Duration
	extractOpts align.ExtractOptions
	textEdges   bool
	onEvent     func(Event)
}

// Config holds engine configuration.
type Config struct {
	// Parser produces grammar trees for the corpus languages.
	Parser parser.Parser
	// Tokenizers are the models under evaluation. At least one is required.
	Tokenizers []tokenizer.Tokenizer
	// StatePath is the SQLite database for run persistence. Empty disables
	// persistence; use ":memory:" for a throwaway store.
	StatePath string
	// Workers caps concurrent file analysis. Defaults to GOMAXPROCS.
	Workers int
	// FileTimeout bounds per-file work. Defaults to DefaultFileTimeout.
	FileTimeout time.Duration
	// SkipTypes are node types excluded from rule extraction. Nil selects
	// align.DefaultSkipTypes.
	SkipTypes map[string]bool
	// IncludeTextEdges seeds every boundary set with offsets 0 and len(text).
	IncludeTextEdges bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// OnEvent, when set, receives progress events. Calls are serialized.
	OnEvent func(Event)
}

// Event is a progress notification emitted during a run.
type Event struct {
	Type       string `json:"event"` // run_start, file_complete, run_complete
	RunID      string `json:"run_id,omitempty"`
	FileID     string `json:"file_id,omitempty"`
	Language   string `json:"language,omitempty"`
	Files      int    `json:"files,omitempty"`
	Errors     int    `json:"errors,omitempty"`
	Status     string `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// New creates an engine. The state store, when configured, is opened and
// migrated immediately.
func New(cfg Config) (*Engine, error) {
	if cfg.Parser == nil {
		return nil, fmt.Errorf("engine requires a parser")
	}
	if len(cfg.Tokenizers) == 0 {
		return nil, fmt.Errorf("engine requires at least one tokenizer")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	fileTimeout := cfg.FileTimeout
	if fileTimeout <= 0 {
		fileTimeout = DefaultFileTimeout
	}
	skipTypes := cfg.SkipTypes
	if skipTypes == nil {
		skipTypes = align.DefaultSkipTypes()
	}

	var store *state.SQLiteStore
	if cfg.StatePath != "" {
		store = state.NewSQLiteStore()
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("open state store: %w", err)
		}
	}

	logger.Debug("initializing engine",
		"tokenizers", len(cfg.Tokenizers),
		"workers", workers,
		"file_timeout", fileTimeout,
		"persistent", store != nil)

	return &Engine{
		parser:      cfg.Parser,
		tokenizers:  cfg.Tokenizers,
		store:       store,
		logger:      logger,
		workers:     workers,
		fileTimeout: fileTimeout,
		extractOpts: align.ExtractOptions{SkipTypes: skipTypes},
		textEdges:   cfg.IncludeTextEdges,
		onEvent:     cfg.OnEvent,
	}, nil
}

// Close releases the engine's state store, if any.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store exposes the engine's state store for report re-rendering. Nil when
// persistence is disabled.
func (e *Engine) Store() *state.SQLiteStore { return e.store }

// Models returns the tokenizer names under evaluation, in configured order.
func (e *Engine) Models() []string {
	names := make([]string, len(e.tokenizers))
	for i, tok := range e.tokenizers {
		names[i] = tok.Name()
	}
	return names
}
