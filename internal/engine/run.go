package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alignstack-labs/tokalign/internal/corpus"
	"github.com/alignstack-labs/tokalign/internal/state"
	"github.com/alignstack-labs/tokalign/internal/tokenizer"
	"github.com/alignstack-labs/tokalign/pkg/align"
)

// RunSummary is the complete outcome of one analysis run. Cancelled runs
// carry status partial: every file that finished before cancellation is
// still folded into the aggregates.
type RunSummary struct {
	RunID        string          `json:"run_id,omitempty"`
	Status       state.RunStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
	FilesTotal   int             `json:"files_total"`
	FilesSkipped int             `json:"files_skipped"`
	DurationMS   int64           `json:"duration_ms"`

	FileResults     []align.FileResult          `json:"file_results,omitempty"`
	LanguageResults []align.LanguageResult      `json:"language_results"`
	Reports         []align.CrossLanguageReport `json:"reports"`
	Errors          []align.FileError           `json:"errors,omitempty"`
}

// Run analyzes every file the source yields against every configured
// tokenizer. Per-file failures are recorded and skipped; only aggregation
// invariant violations abort the run.
func (e *Engine) Run(ctx context.Context, source corpus.Source) (*RunSummary, error) {
	start := time.Now()
	e.logger.Info("starting run", "models", e.Models(), "workers", e.workers)

	var runID string
	if e.store != nil {
		run, err := e.store.CreateRun(e.Models(), e.parser.Languages())
		if err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
		runID = run.ID
		e.logger.Debug("created run", "run_id", runID)
	}

	var (
		mu          sync.Mutex
		fileResults []align.FileResult
		fileErrors  []align.FileError
		filesTotal  int
	)

	// emit serializes event delivery; workers report completions
	// concurrently.
	emit := func(ev Event) {
		if e.onEvent == nil {
			return
		}
		ev.RunID = runID
		e.onEvent(ev)
	}
	emit(Event{Type: "run_start"})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	var srcErr error
	for {
		f, err := source.Next(gctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			// Sources skip bad entries internally, so a non-context error
			// here means the stream itself broke. The run must not pass
			// as completed: the remaining records were never seen.
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				srcErr = err
			}
			break
		}
		filesTotal++
		g.Go(func() error {
			fileStart := time.Now()
			results, errs := e.analyzeFile(gctx, f)
			mu.Lock()
			fileResults = append(fileResults, results...)
			fileErrors = append(fileErrors, errs...)
			emit(Event{
				Type:       "file_complete",
				FileID:     f.ID,
				Language:   f.Language,
				Errors:     len(errs),
				DurationMS: time.Since(fileStart).Milliseconds(),
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	cancelled := ctx.Err() != nil
	if srcErr != nil {
		e.logger.Error("corpus source failed", "run_id", runID, "error", srcErr)
		fileErrors = append(fileErrors, align.FileError{
			Kind:    align.ClassifyError(srcErr),
			Message: fmt.Sprintf("corpus source: %v", srcErr),
		})
	}

	// Workers finish in arbitrary order; sort for reproducible output and
	// a deterministic fold (associativity makes the fold order-independent,
	// but floating-point reproducibility is still worth having).
	sort.Slice(fileResults, func(i, j int) bool {
		if fileResults[i].FileID != fileResults[j].FileID {
			return fileResults[i].FileID < fileResults[j].FileID
		}
		return fileResults[i].Model < fileResults[j].Model
	})
	sort.Slice(fileErrors, func(i, j int) bool {
		if fileErrors[i].FileID != fileErrors[j].FileID {
			return fileErrors[i].FileID < fileErrors[j].FileID
		}
		return fileErrors[i].Model < fileErrors[j].Model
	})

	langResults, err := e.foldResults(fileResults)
	if err != nil {
		if e.store != nil {
			_ = e.store.CompleteRun(runID, state.RunStatusFailed, err.Error(), filesTotal, source.Skipped())
		}
		e.logger.Error("run failed", "run_id", runID, "error", err)
		return nil, err
	}

	reports, err := e.buildReports(langResults)
	if err != nil {
		if e.store != nil {
			_ = e.store.CompleteRun(runID, state.RunStatusFailed, err.Error(), filesTotal, source.Skipped())
		}
		return nil, err
	}

	status := state.RunStatusCompleted
	switch {
	case srcErr != nil:
		status = state.RunStatusFailed
	case cancelled:
		status = state.RunStatusPartial
	}

	var errMsg string
	if srcErr != nil {
		errMsg = fmt.Sprintf("corpus source: %v", srcErr)
	}

	summary := &RunSummary{
		RunID:           runID,
		Status:          status,
		Error:           errMsg,
		FilesTotal:      filesTotal,
		FilesSkipped:    source.Skipped(),
		DurationMS:      time.Since(start).Milliseconds(),
		FileResults:     fileResults,
		LanguageResults: langResults,
		Reports:         reports,
		Errors:          fileErrors,
	}

	if e.store != nil {
		if err := e.persist(runID, summary); err != nil {
			return nil, err
		}
	}

	emit(Event{
		Type:       "run_complete",
		Status:     string(status),
		Files:      filesTotal,
		Errors:     len(fileErrors),
		DurationMS: summary.DurationMS,
	})
	e.logger.Info("run finished",
		"run_id", runID,
		"status", status,
		"files", filesTotal,
		"skipped", summary.FilesSkipped,
		"errors", len(fileErrors),
		"duration_ms", summary.DurationMS)
	return summary, nil
}

// analyzeFile parses once and scores every tokenizer against the same rule
// spans. All failures are local to the (file, model) pair.
func (e *Engine) analyzeFile(ctx context.Context, f corpus.File) ([]align.FileResult, []align.FileError) {
	ctx, cancel := context.WithTimeout(ctx, e.fileTimeout)
	defer cancel()
	start := time.Now()

	root, err := e.parser.Parse(ctx, []byte(f.Text), f.Language)
	if err != nil {
		// A cancelled file was never analyzed; the run itself is marked
		// partial, so there is nothing to record for it.
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		e.logger.Warn("parse failed", "file", f.ID, "language", f.Language, "error", err)
		return nil, []align.FileError{{
			FileID:   f.ID,
			Language: f.Language,
			Kind:     align.ClassifyError(err),
			Message:  err.Error(),
		}}
	}
	spans := align.ExtractRuleSpans(root, e.extractOpts)

	var results []align.FileResult
	var errs []align.FileError
	for _, tok := range e.tokenizers {
		fr, err := e.scoreTokenizer(ctx, f, spans, tok)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			e.logger.Warn("scoring failed", "file", f.ID, "model", tok.Name(), "error", err)
			errs = append(errs, align.FileError{
				FileID:   f.ID,
				Language: f.Language,
				Model:    tok.Name(),
				Kind:     align.ClassifyError(err),
				Message:  err.Error(),
			})
			continue
		}
		fr.DurationMS = time.Since(start).Milliseconds()
		if fr.Undefined() {
			// Not a failure: the file is excluded from aggregates, and the
			// exclusion is recorded so report consumers can see why.
			errs = append(errs, align.FileError{
				FileID:   f.ID,
				Language: f.Language,
				Model:    tok.Name(),
				Kind:     align.KindUndefinedScore,
				Message:  "no grammar rules extracted",
			})
		}
		results = append(results, fr)
	}
	return results, errs
}

func (e *Engine) scoreTokenizer(ctx context.Context, f corpus.File, spans []align.RuleSpan, tok tokenizer.Tokenizer) (align.FileResult, error) {
	tokSpans, coord, err := tok.Tokenize(ctx, f.ID, f.Text)
	if err != nil {
		return align.FileResult{}, err
	}
	boundaries, err := align.TokenBoundaries(f.Text, tokSpans, coord, e.textEdges)
	if err != nil {
		return align.FileResult{}, err
	}
	fs, err := align.ScoreAlignment(spans, boundaries)
	if err != nil {
		return align.FileResult{}, err
	}
	fr := align.NewFileResult(f.ID, f.Language, tok.Name(), fs)
	fr.ByteSize = len(f.Text)
	return fr, nil
}

// foldResults builds one LanguageResult per (model, language) pair.
func (e *Engine) foldResults(fileResults []align.FileResult) ([]align.LanguageResult, error) {
	agg := make(map[string]align.LanguageResult)
	var keys []string
	for _, fr := range fileResults {
		key := fr.Model + "\x00" + fr.Language
		lr, ok := agg[key]
		if !ok {
			lr = align.NewLanguageResult(fr.Language, fr.Model)
			keys = append(keys, key)
		}
		folded, err := lr.Fold(fr)
		if err != nil {
			return nil, err
		}
		agg[key] = folded
	}
	sort.Strings(keys)
	out := make([]align.LanguageResult, 0, len(keys))
	for _, key := range keys {
		out = append(out, agg[key])
	}
	return out, nil
}

// buildReports produces one cross-language report per model, in configured
// tokenizer order.
func (e *Engine) buildReports(langResults []align.LanguageResult) ([]align.CrossLanguageReport, error) {
	byModel := make(map[string][]align.LanguageResult)
	for _, lr := range langResults {
		byModel[lr.Model] = append(byModel[lr.Model], lr)
	}
	var reports []align.CrossLanguageReport
	for _, model := range e.Models() {
		langs, ok := byModel[model]
		if !ok {
			continue
		}
		rep, err := align.NewCrossLanguageReport(model, langs)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

func (e *Engine) persist(runID string, summary *RunSummary) error {
	for _, fr := range summary.FileResults {
		if err := e.store.SaveFileResult(runID, fr); err != nil {
			return err
		}
	}
	for _, lr := range summary.LanguageResults {
		if err := e.store.SaveLanguageResult(runID, lr); err != nil {
			return err
		}
	}
	for _, fe := range summary.Errors {
		if err := e.store.RecordError(runID, fe); err != nil {
			return err
		}
	}
	if err := e.store.CompleteRun(runID, summary.Status, summary.Error, summary.FilesTotal, summary.FilesSkipped); err != nil {
		return err
	}
	return nil
}

// ReportsFromStore re-renders the cross-language reports of a persisted
// run without re-analyzing the corpus.
func ReportsFromStore(store *state.SQLiteStore, runID string) ([]align.CrossLanguageReport, error) {
	if store == nil {
		return nil, errors.New("no state store configured")
	}
	langResults, err := store.LanguageResults(runID)
	if err != nil {
		return nil, err
	}
	byModel := make(map[string][]align.LanguageResult)
	var models []string
	for _, lr := range langResults {
		if _, ok := byModel[lr.Model]; !ok {
			models = append(models, lr.Model)
		}
		byModel[lr.Model] = append(byModel[lr.Model], lr)
	}
	sort.Strings(models)
	var reports []align.CrossLanguageReport
	for _, model := range models {
		rep, err := align.NewCrossLanguageReport(model, byModel[model])
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
