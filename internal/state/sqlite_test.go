package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore()

	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSQLiteStore_Migrations(t *testing.T) {
	store := setupTestStore(t)

	tables := []string{"runs", "file_results", "language_results", "run_errors"}
	for _, table := range tables {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		} else {
			rows.Close()
		}
	}

	version, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version < 1 {
		t.Errorf("expected schema version >= 1, got %d", version)
	}
}

func TestSQLiteStore_InMemoryConcurrentAccess(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun([]string{"gpt-4o"}, []string{"go"})
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	// Each pool connection to ":memory:" would see its own empty
	// database; concurrent readers must all hit the migrated one.
	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.GetRun(run.ID)
			if err != nil {
				errCh <- err
				return
			}
			if got.ID != run.ID {
				errCh <- fmt.Errorf("unexpected run %q", got.ID)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent read failed: %v", err)
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	if _, err := store.CreateRun(nil, nil); err == nil {
		t.Error("expected error on unopened store")
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.CreateRun([]string{"gpt-4o", "o200k_base"}, []string{"go", "python"})
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if run.ID == "" {
		t.Error("run ID should not be empty")
	}
	if run.Status != RunStatusRunning {
		t.Errorf("expected status %q, got %q", RunStatusRunning, run.Status)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("expected ID %q, got %q", run.ID, got.ID)
	}
	if len(got.Models) != 2 || got.Models[0] != "gpt-4o" {
		t.Errorf("unexpected models: %v", got.Models)
	}
	if len(got.Languages) != 2 || got.Languages[1] != "python" {
		t.Errorf("unexpected languages: %v", got.Languages)
	}
	if got.CompletedAt != nil {
		t.Error("new run should not have a completion time")
	}

	if err := store.CompleteRun(run.ID, RunStatusCompleted, "", 42, 3); err != nil {
		t.Fatalf("failed to complete run: %v", err)
	}
	got, err = store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("failed to re-get run: %v", err)
	}
	if got.Status != RunStatusCompleted {
		t.Errorf("expected status %q, got %q", RunStatusCompleted, got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("completed run should have a completion time")
	}
	if got.FilesTotal != 42 || got.FilesSkipped != 3 {
		t.Errorf("unexpected counters: total=%d skipped=%d", got.FilesTotal, got.FilesSkipped)
	}
}

func TestSQLiteStore_LatestRun(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.LatestRun()
	if err != nil {
		t.Fatalf("unexpected error on empty store: %v", err)
	}
	if latest != nil {
		t.Error("expected nil run for empty store")
	}

	first, err := store.CreateRun([]string{"gpt-4o"}, nil)
	if err != nil {
		t.Fatalf("failed to create first run: %v", err)
	}
	second, err := store.CreateRun([]string{"gpt-4o"}, nil)
	if err != nil {
		t.Fatalf("failed to create second run: %v", err)
	}
	// Two runs created back to back can share a timestamp; force an
	// unambiguous order.
	if _, err := store.db.Exec(`UPDATE runs SET started_at = ? WHERE id = ?`, second.StartedAt.Add(time.Hour), second.ID); err != nil {
		t.Fatalf("failed to bump started_at: %v", err)
	}

	latest, err = store.LatestRun()
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("expected latest run %q, got %v", second.ID, latest)
	}

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second.ID || runs[1].ID != first.ID {
		t.Error("runs not ordered newest first")
	}
}

func TestSQLiteStore_FileResults(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun([]string{"gpt-4o"}, []string{"go"})
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	fr := align.FileResult{
		FileID:       "go/main.go",
		Language:     "go",
		Model:        "gpt-4o",
		TotalRules:   10,
		AlignedRules: 7,
		RuleScore:    align.DefinedScore(70),
		BoundaryScore: align.DefinedScore(85),
		ByType: map[string]align.GroupCount{
			"identifier": {Total: 6, Aligned: 5},
			"call_expression": {Total: 4, Aligned: 2},
		},
		ByDepthBucket: map[align.DepthBucket]align.GroupCount{
			align.BucketShallow: {Total: 3, Aligned: 3},
			align.BucketMid:     {Total: 7, Aligned: 4},
		},
		GrammarBoundaries:    14,
		MismatchedBoundaries: 2,
		ByteSize:             512,
		DurationMS:           12,
	}
	if err := store.SaveFileResult(run.ID, fr); err != nil {
		t.Fatalf("failed to save file result: %v", err)
	}

	// Undefined scores must round-trip as NULL, not 0.
	undef := align.FileResult{
		FileID:   "go/empty.go",
		Language: "go",
		Model:    "gpt-4o",
		ByType:   map[string]align.GroupCount{},
		ByDepthBucket: map[align.DepthBucket]align.GroupCount{},
	}
	if err := store.SaveFileResult(run.ID, undef); err != nil {
		t.Fatalf("failed to save undefined result: %v", err)
	}

	got, err := store.FileResults(run.ID)
	if err != nil {
		t.Fatalf("failed to load file results: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 file results, got %d", len(got))
	}

	// Ordered by file_id: empty.go before main.go.
	if got[0].FileID != "go/empty.go" || got[1].FileID != "go/main.go" {
		t.Fatalf("unexpected order: %q, %q", got[0].FileID, got[1].FileID)
	}
	if got[0].RuleScore.Defined {
		t.Error("undefined rule score must stay undefined after round-trip")
	}
	rt := got[1]
	if !rt.RuleScore.Defined || rt.RuleScore.Percent != 70 {
		t.Errorf("unexpected rule score: %+v", rt.RuleScore)
	}
	if rt.ByType["identifier"] != (align.GroupCount{Total: 6, Aligned: 5}) {
		t.Errorf("by_type lost in round-trip: %+v", rt.ByType)
	}
	if rt.ByDepthBucket[align.BucketMid] != (align.GroupCount{Total: 7, Aligned: 4}) {
		t.Errorf("by_depth_bucket lost in round-trip: %+v", rt.ByDepthBucket)
	}
	if rt.GrammarBoundaries != 14 || rt.MismatchedBoundaries != 2 {
		t.Errorf("boundary counts lost: %d/%d", rt.GrammarBoundaries, rt.MismatchedBoundaries)
	}
}

func TestSQLiteStore_LanguageResults(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun([]string{"gpt-4o"}, []string{"go", "python"})
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	lr := align.NewLanguageResult("python", "gpt-4o")
	lr.Files = 5
	lr.ExcludedFiles = 1
	lr.TotalRules = 100
	lr.AlignedRules = 60
	lr.GrammarBoundaries = 220
	lr.MismatchedBoundaries = 40
	lr.ByType["function_definition"] = align.GroupCount{Total: 20, Aligned: 15}
	if err := store.SaveLanguageResult(run.ID, lr); err != nil {
		t.Fatalf("failed to save language result: %v", err)
	}

	lr2 := align.NewLanguageResult("go", "gpt-4o")
	lr2.Files = 2
	lr2.TotalRules = 40
	lr2.AlignedRules = 30
	if err := store.SaveLanguageResult(run.ID, lr2); err != nil {
		t.Fatalf("failed to save second language result: %v", err)
	}

	// Re-saving the same (run, model, language) violates the unique key.
	if err := store.SaveLanguageResult(run.ID, lr2); err == nil {
		t.Error("expected duplicate (run, model, language) to be rejected")
	}

	got, err := store.LanguageResults(run.ID)
	if err != nil {
		t.Fatalf("failed to load language results: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 language results, got %d", len(got))
	}
	if got[0].Language != "go" || got[1].Language != "python" {
		t.Fatalf("unexpected order: %q, %q", got[0].Language, got[1].Language)
	}
	py := got[1]
	if py.Files != 5 || py.ExcludedFiles != 1 {
		t.Errorf("file counters lost: files=%d excluded=%d", py.Files, py.ExcludedFiles)
	}
	if s := py.RuleScore(); !s.Defined || s.Percent != 60 {
		t.Errorf("unexpected recomputed rule score: %+v", s)
	}
	if py.ByType["function_definition"] != (align.GroupCount{Total: 20, Aligned: 15}) {
		t.Errorf("by_type lost in round-trip: %+v", py.ByType)
	}
}

func TestSQLiteStore_Errors(t *testing.T) {
	store := setupTestStore(t)
	run, err := store.CreateRun([]string{"gpt-4o"}, []string{"go"})
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	errs := []align.FileError{
		{FileID: "go/bad.go", Language: "go", Model: "gpt-4o", Kind: align.KindParse, Message: "syntax error at byte 10"},
		{FileID: "go/slow.go", Language: "go", Model: "gpt-4o", Kind: align.KindTimeout, Message: "deadline exceeded"},
	}
	for _, fe := range errs {
		if err := store.RecordError(run.ID, fe); err != nil {
			t.Fatalf("failed to record error: %v", err)
		}
	}

	got, err := store.Errors(run.ID)
	if err != nil {
		t.Fatalf("failed to load errors: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(got))
	}
	if got[0].Kind != align.KindParse || got[1].Kind != align.KindTimeout {
		t.Errorf("kinds lost in round-trip: %q, %q", got[0].Kind, got[1].Kind)
	}
	if got[0].FileID != "go/bad.go" {
		t.Errorf("unexpected first error file: %q", got[0].FileID)
	}
}
