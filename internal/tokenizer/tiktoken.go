package tokenizer

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// Tiktoken tokenizes with an OpenAI BPE encoding. BPE output is a
// partition of the input bytes, so the offset mapping is reconstructed by
// accumulating the byte length of each decoded token; the result is
// already in byte coordinates.
type Tiktoken struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewTiktoken loads the encoding for a model name (e.g. "gpt2",
// "gpt-4"); names that are not models are tried as encoding names
// ("cl100k_base").
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(model)
	}
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", model, err)
	}
	return &Tiktoken{name: model, enc: enc}, nil
}

// Name returns the model name.
func (t *Tiktoken) Name() string { return t.name }

// Tokenize encodes text and rebuilds byte offsets from per-token decodes.
func (t *Tiktoken) Tokenize(ctx context.Context, _ string, text string) ([]align.Span, align.Coord, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	ids := t.enc.Encode(text, nil, nil)
	if len(ids) == 0 {
		return nil, 0, &align.TokenizationError{Model: t.name, Err: fmt.Errorf("no tokens produced")}
	}

	spans := make([]align.Span, 0, len(ids))
	pos := 0
	for _, id := range ids {
		piece := t.enc.Decode([]int{id})
		end := pos + len(piece)
		if end > len(text) {
			return nil, 0, &align.TokenizationError{
				Model: t.name,
				Err:   fmt.Errorf("token bytes overrun text at offset %d", pos),
			}
		}
		spans = append(spans, align.Span{Start: pos, End: end})
		pos = end
	}
	return spans, align.CoordByte, nil
}
