package align

import (
	"encoding/json"
	"fmt"
)

// Score is a percentage that may be undefined. A file with zero rules has
// no meaningful score: it is reported as undefined (JSON null), never as
// 0 or 100, and contributes nothing to weighted aggregates.
type Score struct {
	Defined bool
	Percent float64
}

// DefinedScore wraps a percentage value.
func DefinedScore(p float64) Score { return Score{Defined: true, Percent: p} }

// Ratio builds a Score from raw counts; total = 0 yields undefined.
func Ratio(part, total int) Score {
	if total == 0 {
		return Score{}
	}
	return DefinedScore(float64(part) / float64(total) * 100)
}

func (s Score) String() string {
	if !s.Defined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", s.Percent)
}

// MarshalJSON encodes undefined scores as null so report consumers cannot
// mistake them for zero.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.Percent)
}

// UnmarshalJSON accepts null as undefined.
func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Score{}
		return nil
	}
	var p float64
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = DefinedScore(p)
	return nil
}

// AlignmentOutcome records, for one rule span, whether each endpoint
// coincided with a token boundary. The span is aligned iff both did.
type AlignmentOutcome struct {
	Span         RuleSpan `json:"span"`
	StartAligned bool     `json:"start_aligned"`
	EndAligned   bool     `json:"end_aligned"`
}

// Aligned reports whether both endpoints matched.
func (o AlignmentOutcome) Aligned() bool { return o.StartAligned && o.EndAligned }

// FileScore is the scorer's output for one (file, model) pair.
type FileScore struct {
	Outcomes     []AlignmentOutcome
	TotalRules   int
	AlignedRules int

	// RuleScore is the primary metric: the share of rule spans whose
	// both boundaries are token boundaries, i.e. syntactic units that
	// can be extracted without splitting a token.
	RuleScore Score

	// BoundaryScore measures raw coverage: the share of distinct
	// grammar boundaries (any span start or end) present among token
	// boundaries, independent of which rule they belong to.
	BoundaryScore        Score
	GrammarBoundaries    int
	MismatchedBoundaries int
}

// ScoreAlignment matches rule spans against the token boundary set.
// Inputs are never mutated; repeated spans are scored independently, not
// deduplicated. Malformed inputs (negative offsets, inverted spans, a
// non-monotonic boundary set) return a *MalformedInputError that fails
// this file's analysis; the function never panics.
func ScoreAlignment(spans []RuleSpan, boundaries BoundarySet) (*FileScore, error) {
	if err := boundaries.Validate(); err != nil {
		return nil, err
	}
	for _, sp := range spans {
		if sp.Start < 0 {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("rule span %q has negative start %d", sp.Type, sp.Start)}
		}
		if sp.End < sp.Start {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("rule span %q has end %d before start %d", sp.Type, sp.End, sp.Start)}
		}
		if sp.Depth < 0 {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("rule span %q has negative depth %d", sp.Type, sp.Depth)}
		}
	}

	fs := &FileScore{
		Outcomes:   make([]AlignmentOutcome, 0, len(spans)),
		TotalRules: len(spans),
	}

	grammar := make(map[int]bool, 2*len(spans))
	for _, sp := range spans {
		out := AlignmentOutcome{
			Span:         sp,
			StartAligned: boundaries.Contains(sp.Start),
			EndAligned:   boundaries.Contains(sp.End),
		}
		if out.Aligned() {
			fs.AlignedRules++
		}
		fs.Outcomes = append(fs.Outcomes, out)
		grammar[sp.Start] = true
		grammar[sp.End] = true
	}

	for off := range grammar {
		if !boundaries.Contains(off) {
			fs.MismatchedBoundaries++
		}
	}
	fs.GrammarBoundaries = len(grammar)

	fs.RuleScore = Ratio(fs.AlignedRules, fs.TotalRules)
	if fs.TotalRules > 0 {
		matched := fs.GrammarBoundaries - fs.MismatchedBoundaries
		fs.BoundaryScore = Ratio(matched, fs.GrammarBoundaries)
	}
	return fs, nil
}
