package corpus

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func drain(t *testing.T, src Source) []File {
	t.Helper()
	var files []File
	for {
		f, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return files
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		files = append(files, f)
	}
}

func TestDirSource_WalksLanguageDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "python", "a.py"), "print(1)\n")
	writeFile(t, filepath.Join(root, "python", "b.py"), "print(2)\n")
	writeFile(t, filepath.Join(root, "python", "notes.txt"), "not code")
	writeFile(t, filepath.Join(root, "go", "m.go"), "package m\n")

	src, err := NewDirSource(root, []string{"python", "go"}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	files := drain(t, src)

	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	// Deterministic order: languages sorted, then directory order.
	if files[0].Language != "go" || files[0].ID != "go/m.go" {
		t.Errorf("expected go/m.go first, got %+v", files[0])
	}
	if files[1].ID != "python/a.py" || files[2].ID != "python/b.py" {
		t.Errorf("unexpected python order: %v, %v", files[1].ID, files[2].ID)
	}
}

func TestDirSource_SkipsEmptyFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "python", "empty.py"), "  \n")
	writeFile(t, filepath.Join(root, "python", "real.py"), "x = 1\n")

	src, err := NewDirSource(root, []string{"python"}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	files := drain(t, src)
	if len(files) != 1 || files[0].ID != "python/real.py" {
		t.Fatalf("expected only real.py, got %+v", files)
	}
	if src.Skipped() != 1 {
		t.Errorf("expected 1 skipped, got %d", src.Skipped())
	}
}

func TestDirSource_MissingLanguageDirTolerated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "python", "a.py"), "x = 1\n")

	src, err := NewDirSource(root, []string{"python", "rust"}, nil)
	if err != nil {
		t.Fatalf("missing language dir must not fail: %v", err)
	}
	if got := len(drain(t, src)); got != 1 {
		t.Errorf("expected 1 file, got %d", got)
	}
}

func TestDirSource_RootMustExist(t *testing.T) {
	if _, err := NewDirSource(filepath.Join(t.TempDir(), "nope"), nil, nil); err == nil {
		t.Error("expected error for missing corpus root")
	}
}

func TestJSONLSource_StreamsAndSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	writeFile(t, path, `{"file_id":"a.py","language":"python","text":"x = 1"}
not json at all
{"file_id":"","language":"python","text":"missing id"}

{"file_id":"b.py","language":"python","text":"y = 2"}
`)

	src, err := NewJSONLSource(path, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer src.Close()

	files := drain(t, src)
	if len(files) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(files))
	}
	if files[0].ID != "a.py" || files[1].ID != "b.py" {
		t.Errorf("unexpected records: %+v", files)
	}
	if src.Skipped() != 2 {
		t.Errorf("expected 2 skipped, got %d", src.Skipped())
	}
}

func TestJSONLSource_OversizedLineSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	huge := `{"file_id":"huge.py","language":"python","text":"` + strings.Repeat("x", 8<<20) + `"}`
	writeFile(t, path,
		`{"file_id":"a.py","language":"python","text":"x = 1"}`+"\n"+
			huge+"\n"+
			`{"file_id":"b.py","language":"python","text":"y = 2"}`+"\n")

	src, err := NewJSONLSource(path, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer src.Close()

	// The oversized line must not end the stream: the record after it
	// still arrives.
	files := drain(t, src)
	if len(files) != 2 {
		t.Fatalf("expected 2 valid records, got %d", len(files))
	}
	if files[0].ID != "a.py" || files[1].ID != "b.py" {
		t.Errorf("unexpected records: %v, %v", files[0].ID, files[1].ID)
	}
	if src.Skipped() != 1 {
		t.Errorf("expected 1 skipped, got %d", src.Skipped())
	}
}

func TestJSONLSource_ContextCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	writeFile(t, path, `{"file_id":"a.py","language":"python","text":"x = 1"}`)

	src, err := NewJSONLSource(path, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
