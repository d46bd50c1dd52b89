package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirSource reads a samples directory laid out one subdirectory per
// language (samples/python/*.py, samples/go/*.go, ...). Files are
// enumerated up front in a deterministic order; contents are read lazily
// on Next so a huge corpus does not sit in memory.
type DirSource struct {
	root    string
	logger  *slog.Logger
	pending []fileRef
	skipped int
}

type fileRef struct {
	path     string
	id       string
	language string
}

// NewDirSource enumerates files for the requested languages under root.
// Languages without a known extension set or without a subdirectory are
// skipped with a log line, not an error, so a partial corpus still runs.
func NewDirSource(root string, languages []string, logger *slog.Logger) (*DirSource, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", root)
	}

	if len(languages) == 0 {
		languages = Languages()
	}
	sort.Strings(languages)

	src := &DirSource{root: root, logger: logger}
	for _, lang := range languages {
		exts := Extensions(lang)
		if exts == nil {
			logger.Warn("unknown language, skipping", "language", lang)
			continue
		}
		langDir := filepath.Join(root, lang)
		entries, err := os.ReadDir(langDir)
		if err != nil {
			logger.Debug("no samples for language", "language", lang, "dir", langDir)
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !hasExt(e.Name(), exts) {
				continue
			}
			src.pending = append(src.pending, fileRef{
				path:     filepath.Join(langDir, e.Name()),
				id:       lang + "/" + e.Name(),
				language: lang,
			})
		}
	}
	return src, nil
}

func hasExt(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Len reports how many files remain to be read.
func (s *DirSource) Len() int { return len(s.pending) }

// Next reads the next file. Unreadable or empty files are skipped.
func (s *DirSource) Next(ctx context.Context) (File, error) {
	for {
		if err := ctxErr(ctx); err != nil {
			return File{}, err
		}
		if len(s.pending) == 0 {
			return File{}, io.EOF
		}
		ref := s.pending[0]
		s.pending = s.pending[1:]

		data, err := os.ReadFile(ref.path)
		if err != nil {
			s.skipped++
			s.logger.Warn("skipping unreadable file", "file", ref.path, "error", err)
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			s.skipped++
			s.logger.Debug("skipping empty file", "file", ref.path)
			continue
		}
		return File{ID: ref.id, Language: ref.language, Text: string(data)}, nil
	}
}

// Skipped reports the number of files passed over.
func (s *DirSource) Skipped() int { return s.skipped }
