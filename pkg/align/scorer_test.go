package align

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestScoreAlignment_ScenarioA_BothAligned(t *testing.T) {
	spans := []RuleSpan{
		{Type: "a", Start: 0, End: 10, Depth: 1},
		{Type: "b", Start: 2, End: 5, Depth: 2},
	}
	boundaries := NewBoundarySet(0, 2, 5, 10)

	fs, err := ScoreAlignment(spans, boundaries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.AlignedRules != 2 {
		t.Errorf("expected 2 aligned rules, got %d", fs.AlignedRules)
	}
	if !fs.RuleScore.Defined || fs.RuleScore.Percent != 100 {
		t.Errorf("expected rule score 100, got %v", fs.RuleScore)
	}
	if !fs.BoundaryScore.Defined || fs.BoundaryScore.Percent != 100 {
		t.Errorf("expected boundary score 100, got %v", fs.BoundaryScore)
	}
}

func TestScoreAlignment_ScenarioB_HalfAligned(t *testing.T) {
	spans := []RuleSpan{
		{Type: "a", Start: 0, End: 10, Depth: 1},
		{Type: "b", Start: 2, End: 5, Depth: 2},
	}
	boundaries := NewBoundarySet(0, 10)

	fs, err := ScoreAlignment(spans, boundaries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.AlignedRules != 1 {
		t.Errorf("expected 1 aligned rule, got %d", fs.AlignedRules)
	}
	if fs.RuleScore.Percent != 50 {
		t.Errorf("expected rule score 50, got %v", fs.RuleScore)
	}
	// Grammar boundaries {0,2,5,10}; 2 and 5 are absent.
	if fs.GrammarBoundaries != 4 || fs.MismatchedBoundaries != 2 {
		t.Errorf("expected 4 grammar / 2 mismatched, got %d / %d", fs.GrammarBoundaries, fs.MismatchedBoundaries)
	}
	if fs.BoundaryScore.Percent != 50 {
		t.Errorf("expected boundary score 50, got %v", fs.BoundaryScore)
	}
}

func TestScoreAlignment_FullCoverage(t *testing.T) {
	spans := []RuleSpan{
		{Type: "x", Start: 1, End: 8},
		{Type: "y", Start: 3, End: 6},
		{Type: "z", Start: 6, End: 8},
	}
	// Superset of every start and end.
	boundaries := NewBoundarySet(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)

	fs, err := ScoreAlignment(spans, boundaries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.RuleScore.Percent != 100 || fs.BoundaryScore.Percent != 100 {
		t.Errorf("expected both scores 100, got rule=%v boundary=%v", fs.RuleScore, fs.BoundaryScore)
	}
}

func TestScoreAlignment_EmptyBoundarySet(t *testing.T) {
	spans := []RuleSpan{{Type: "a", Start: 0, End: 4}}

	fs, err := ScoreAlignment(spans, NewBoundarySet())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fs.RuleScore.Defined || fs.RuleScore.Percent != 0 {
		t.Errorf("expected rule score 0 with non-empty rules, got %v", fs.RuleScore)
	}
}

func TestScoreAlignment_ZeroRulesUndefined(t *testing.T) {
	fs, err := ScoreAlignment(nil, NewBoundarySet(0, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.RuleScore.Defined || fs.BoundaryScore.Defined {
		t.Errorf("expected undefined scores for zero rules, got rule=%v boundary=%v", fs.RuleScore, fs.BoundaryScore)
	}
}

func TestScoreAlignment_RepeatedSpansScoredIndependently(t *testing.T) {
	spans := []RuleSpan{
		{Type: "a", Start: 0, End: 4},
		{Type: "a", Start: 0, End: 4},
	}
	fs, err := ScoreAlignment(spans, NewBoundarySet(0, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.TotalRules != 2 || fs.AlignedRules != 2 {
		t.Errorf("repeated spans must not be deduplicated: total=%d aligned=%d", fs.TotalRules, fs.AlignedRules)
	}
	// But boundary offsets are distinct.
	if fs.GrammarBoundaries != 2 {
		t.Errorf("expected 2 distinct grammar boundaries, got %d", fs.GrammarBoundaries)
	}
}

func TestScoreAlignment_ZeroWidthSpan(t *testing.T) {
	// A zero-width span aligns iff its single offset is a boundary.
	spans := []RuleSpan{{Type: "empty", Start: 5, End: 5}}

	fs, err := ScoreAlignment(spans, NewBoundarySet(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.AlignedRules != 1 {
		t.Errorf("expected zero-width span on a boundary to align, got %d", fs.AlignedRules)
	}

	fs, err = ScoreAlignment(spans, NewBoundarySet(4, 6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fs.AlignedRules != 0 {
		t.Errorf("expected zero-width span off a boundary to misalign, got %d", fs.AlignedRules)
	}
}

func TestScoreAlignment_RejectsMalformedInputs(t *testing.T) {
	tests := []struct {
		name       string
		spans      []RuleSpan
		boundaries BoundarySet
	}{
		{"negative span start", []RuleSpan{{Type: "a", Start: -1, End: 3}}, NewBoundarySet(0)},
		{"inverted span", []RuleSpan{{Type: "a", Start: 5, End: 2}}, NewBoundarySet(0)},
		{"negative depth", []RuleSpan{{Type: "a", Start: 0, End: 2, Depth: -1}}, NewBoundarySet(0)},
		{"non-monotonic boundary set", []RuleSpan{{Type: "a", Start: 0, End: 2}}, BoundarySet{3, 1}},
		{"negative boundary", []RuleSpan{{Type: "a", Start: 0, End: 2}}, BoundarySet{-2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreAlignment(tt.spans, tt.boundaries)
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("expected MalformedInputError, got %v", err)
			}
		})
	}
}

func TestScore_JSONNullWhenUndefined(t *testing.T) {
	data, err := json.Marshal(Score{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("expected null, got %s", data)
	}

	data, err = json.Marshal(DefinedScore(42.5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "42.5" {
		t.Errorf("expected 42.5, got %s", data)
	}

	var s Score
	if err := json.Unmarshal([]byte("null"), &s); err != nil || s.Defined {
		t.Errorf("expected undefined from null, got %v (%v)", s, err)
	}
	if err := json.Unmarshal([]byte("17.5"), &s); err != nil || !s.Defined || s.Percent != 17.5 {
		t.Errorf("expected 17.5, got %v (%v)", s, err)
	}
}
