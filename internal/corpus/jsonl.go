package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// JSONLSource streams a dataset exported as JSON lines, one record per
// line: {"file_id": ..., "language": ..., "text": ...}. Malformed,
// incomplete, and oversized lines are skipped with a counter, matching
// how external corpora occasionally carry broken entries.
type JSONLSource struct {
	f       *os.File
	r       *bufio.Reader
	logger  *slog.Logger
	line    int
	skipped int
}

type jsonlRecord struct {
	FileID   string `json:"file_id"`
	Language string `json:"language"`
	Text     string `json:"text"`
}

// maxRecordBytes bounds a single dataset line; source files above this
// size are not representative samples anyway. Longer lines are drained
// and counted as skipped so the records after them still stream.
const maxRecordBytes = 8 << 20

// NewJSONLSource opens a JSONL dataset file for streaming.
func NewJSONLSource(path string, logger *slog.Logger) (*JSONLSource, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	return &JSONLSource{f: f, r: bufio.NewReaderSize(f, 64*1024), logger: logger}, nil
}

// Next returns the next valid record, io.EOF at end of stream.
func (s *JSONLSource) Next(ctx context.Context) (File, error) {
	for {
		if err := ctxErr(ctx); err != nil {
			return File{}, err
		}
		line, oversized, err := s.readLine()
		if err == io.EOF {
			return File{}, io.EOF
		}
		if err != nil {
			return File{}, fmt.Errorf("dataset read: %w", err)
		}
		s.line++
		if oversized {
			s.skipped++
			s.logger.Warn("skipping oversized dataset line", "line", s.line, "limit_bytes", maxRecordBytes)
			continue
		}
		raw := strings.TrimSpace(string(line))
		if raw == "" {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.skipped++
			s.logger.Warn("skipping malformed dataset line", "line", s.line, "error", err)
			continue
		}
		if rec.FileID == "" || rec.Language == "" || rec.Text == "" {
			s.skipped++
			s.logger.Warn("skipping incomplete dataset record", "line", s.line)
			continue
		}
		return File{ID: rec.FileID, Language: rec.Language, Text: rec.Text}, nil
	}
}

// readLine returns the next line. A line longer than maxRecordBytes is
// consumed to its end, with memory use capped at the limit, and reported
// as oversized so the caller can skip it and keep streaming.
func (s *JSONLSource) readLine() ([]byte, bool, error) {
	var buf []byte
	size := 0
	for {
		chunk, err := s.r.ReadSlice('\n')
		size += len(chunk)
		if size <= maxRecordBytes {
			buf = append(buf, chunk...)
		}
		switch {
		case err == bufio.ErrBufferFull:
			continue
		case err == io.EOF:
			if size == 0 {
				return nil, false, io.EOF
			}
			return buf, size > maxRecordBytes, nil
		case err != nil:
			return nil, false, err
		default:
			return buf, size > maxRecordBytes, nil
		}
	}
}

// Skipped reports the number of records passed over.
func (s *JSONLSource) Skipped() int { return s.skipped }

// Close releases the underlying file.
func (s *JSONLSource) Close() error { return s.f.Close() }

var _ io.Closer = (*JSONLSource)(nil)
