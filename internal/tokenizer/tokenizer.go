// Package tokenizer provides tokenizer collaborators that report token
// offset mappings. Each implementation declares the coordinate system of
// its offsets; the engine converts everything to byte offsets before
// scoring.
package tokenizer

import (
	"context"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// Tokenizer produces one (start, end) offset pair per token, in the
// declared coordinate system. The fileID lets adapters that carry
// pre-exported offset mappings look up the right entry; text-driven
// adapters ignore it.
type Tokenizer interface {
	// Name identifies the model in results and reports.
	Name() string
	// Tokenize returns the offset mapping and its coordinate system, or
	// *align.TokenizationError when the tokenizer failed or produced no
	// offsets.
	Tokenize(ctx context.Context, fileID, text string) ([]align.Span, align.Coord, error)
}
