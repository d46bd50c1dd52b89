package tokenizer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// OffsetsFile serves offset mappings exported ahead of time from a
// tokenizer library that cannot run in-process (typically HuggingFace
// tokenizers, whose offset mappings are character-indexed). The file
// declares its coordinate system once; the engine converts to byte
// offsets downstream.
//
// Format:
//
//	{
//	  "model": "bigcode/starcoder2-3b",
//	  "coord": "char",
//	  "files": {"python/a.py": [[0, 3], [3, 4]], ...}
//	}
type OffsetsFile struct {
	model string
	coord align.Coord
	files map[string][]align.Span
}

type offsetsDoc struct {
	Model string             `json:"model"`
	Coord string             `json:"coord"`
	Files map[string][][]int `json:"files"`
}

// LoadOffsetsFile parses an exported offset-mapping file.
func LoadOffsetsFile(path string) (*OffsetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("offsets file: %w", err)
	}
	var doc offsetsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("offsets file %s: %w", path, err)
	}
	if doc.Model == "" {
		return nil, fmt.Errorf("offsets file %s: missing model name", path)
	}
	coord, err := align.ParseCoord(doc.Coord)
	if err != nil {
		return nil, fmt.Errorf("offsets file %s: %w", path, err)
	}

	files := make(map[string][]align.Span, len(doc.Files))
	for id, pairs := range doc.Files {
		spans := make([]align.Span, 0, len(pairs))
		for _, p := range pairs {
			if len(p) != 2 {
				return nil, fmt.Errorf("offsets file %s: entry %s has a %d-element pair", path, id, len(p))
			}
			spans = append(spans, align.Span{Start: p[0], End: p[1]})
		}
		files[id] = spans
	}
	return &OffsetsFile{model: doc.Model, coord: coord, files: files}, nil
}

// Name returns the model the offsets were exported from.
func (o *OffsetsFile) Name() string { return o.model }

// Tokenize returns the pre-exported mapping for fileID. A file without an
// entry is a tokenization failure for that file only.
func (o *OffsetsFile) Tokenize(ctx context.Context, fileID, _ string) ([]align.Span, align.Coord, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	spans, ok := o.files[fileID]
	if !ok || len(spans) == 0 {
		return nil, 0, &align.TokenizationError{Model: o.model, Err: fmt.Errorf("no offsets for file %s", fileID)}
	}
	return spans, o.coord, nil
}
