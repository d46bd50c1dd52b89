package align

import (
	"fmt"
	"sort"
)

// BoundarySet is a strictly increasing, duplicate-free sequence of byte
// offsets, built as the union of every token's start and end offset.
type BoundarySet []int

// NewBoundarySet builds a valid BoundarySet from arbitrary offsets,
// sorting and deduplicating.
func NewBoundarySet(offsets ...int) BoundarySet {
	out := make([]int, len(offsets))
	copy(out, offsets)
	sort.Ints(out)
	dedup := out[:0]
	for i, v := range out {
		if i == 0 || v != out[i-1] {
			dedup = append(dedup, v)
		}
	}
	return BoundarySet(dedup)
}

// TokenBoundaries converts a tokenizer's offset mapping into a
// BoundarySet over text. Spans are converted from coord into byte
// offsets; empty spans (special/added tokens) are discarded; both
// endpoints of every remaining span join the set. When includeTextEdges
// is set, offsets 0 and len(text) are seeded in as well, matching how
// offset mappings were post-processed in the measurement corpus. The
// result is not required to be contiguous or to cover the text.
func TokenBoundaries(text string, spans []Span, coord Coord, includeTextEdges bool) (BoundarySet, error) {
	kept := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Empty() {
			continue
		}
		kept = append(kept, sp)
	}
	byteSpans, err := ToByteSpans(text, kept, coord)
	if err != nil {
		return nil, err
	}
	offsets := make([]int, 0, 2*len(byteSpans)+2)
	for _, sp := range byteSpans {
		offsets = append(offsets, sp.Start, sp.End)
	}
	if includeTextEdges {
		offsets = append(offsets, 0, len(text))
	}
	return NewBoundarySet(offsets...), nil
}

// Contains reports whether off is a member, by binary search.
func (b BoundarySet) Contains(off int) bool {
	i := sort.SearchInts(b, off)
	return i < len(b) && b[i] == off
}

// Validate checks the strictly-increasing, non-negative invariant. The
// scorer calls this as a precondition so a hand-built set cannot silently
// produce a wrong score.
func (b BoundarySet) Validate() error {
	for i, v := range b {
		if v < 0 {
			return &MalformedInputError{Reason: fmt.Sprintf("negative boundary offset %d at index %d", v, i)}
		}
		if i > 0 && v <= b[i-1] {
			return &MalformedInputError{Reason: fmt.Sprintf("boundary set not strictly increasing at index %d (%d then %d)", i, b[i-1], v)}
		}
	}
	return nil
}
