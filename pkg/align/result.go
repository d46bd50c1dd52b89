package align

import (
	"fmt"
	"sort"
)

// FileResult is the per-(file, model) analysis record. It is produced
// once, never mutated, and merged exactly once into its language
// aggregate. Field names are stable: downstream reporting tools consume
// them without re-deriving any score.
type FileResult struct {
	FileID        string                      `json:"file_id"`
	Language      string                      `json:"language"`
	Model         string                      `json:"model"`
	TotalRules    int                         `json:"total_rules"`
	AlignedRules  int                         `json:"aligned_rules"`
	RuleScore     Score                       `json:"rule_score"`
	BoundaryScore Score                       `json:"boundary_score"`
	ByType        map[string]GroupCount       `json:"by_type"`
	ByDepthBucket map[DepthBucket]GroupCount  `json:"by_depth_bucket"`

	GrammarBoundaries    int `json:"grammar_boundaries"`
	MismatchedBoundaries int `json:"mismatched_boundaries"`

	ByteSize   int   `json:"byte_size"`
	DurationMS int64 `json:"duration_ms"`
}

// NewFileResult assembles a FileResult from a scorer output.
func NewFileResult(fileID, language, model string, fs *FileScore) FileResult {
	return FileResult{
		FileID:               fileID,
		Language:             language,
		Model:                model,
		TotalRules:           fs.TotalRules,
		AlignedRules:         fs.AlignedRules,
		RuleScore:            fs.RuleScore,
		BoundaryScore:        fs.BoundaryScore,
		ByType:               GroupByType(fs.Outcomes),
		ByDepthBucket:        GroupByDepth(fs.Outcomes),
		GrammarBoundaries:    fs.GrammarBoundaries,
		MismatchedBoundaries: fs.MismatchedBoundaries,
	}
}

// Undefined reports whether the file carries no score (zero rules). Such
// files contribute zero to both numerator and denominator of every
// ancestor aggregate: they are excluded, not counted as 0.
func (r FileResult) Undefined() bool { return r.TotalRules == 0 }

// LanguageResult is the count-weighted fold of FileResults for one
// (language, model) pair. Scores are recomputed from summed counts, never
// averaged from per-file percentages: mean-of-means is not associative
// under uneven file sizes, and the fold must stay associative so partial
// results from parallel workers can merge in any order.
type LanguageResult struct {
	Language      string                      `json:"language"`
	Model         string                      `json:"model"`
	Files         int                         `json:"files"`
	ExcludedFiles int                         `json:"excluded_files"`
	TotalRules    int                         `json:"total_rules"`
	AlignedRules  int                         `json:"aligned_rules"`
	ByType        map[string]GroupCount       `json:"by_type"`
	ByDepthBucket map[DepthBucket]GroupCount  `json:"by_depth_bucket"`

	GrammarBoundaries    int `json:"grammar_boundaries"`
	MismatchedBoundaries int `json:"mismatched_boundaries"`

	ByteSize   int64 `json:"byte_size"`
	DurationMS int64 `json:"duration_ms"`
}

// NewLanguageResult returns an empty aggregate (the fold identity).
func NewLanguageResult(language, model string) LanguageResult {
	return LanguageResult{
		Language:      language,
		Model:         model,
		ByType:        map[string]GroupCount{},
		ByDepthBucket: map[DepthBucket]GroupCount{},
	}
}

// RuleScore is the weighted rule-level score over all folded files.
func (l LanguageResult) RuleScore() Score { return Ratio(l.AlignedRules, l.TotalRules) }

// BoundaryScore is the weighted boundary-level score over all folded files.
func (l LanguageResult) BoundaryScore() Score {
	return Ratio(l.GrammarBoundaries-l.MismatchedBoundaries, l.GrammarBoundaries)
}

// validateCounts guards the aggregation invariant. Negative counts mean a
// correctness bug rather than bad input data, so they are fatal to the run.
func validateCounts(what string, total, aligned int) error {
	if total < 0 || aligned < 0 || aligned > total {
		return fmt.Errorf("aggregation invariant violated for %s: aligned=%d total=%d", what, aligned, total)
	}
	return nil
}

// Fold returns a new aggregate with fr folded in. The receiver is not
// mutated. Files with zero rules are counted as excluded and contribute
// nothing to any count.
func (l LanguageResult) Fold(fr FileResult) (LanguageResult, error) {
	if err := validateCounts("file "+fr.FileID, fr.TotalRules, fr.AlignedRules); err != nil {
		return LanguageResult{}, err
	}
	out := l.clone()
	if fr.Undefined() {
		out.ExcludedFiles++
		out.ByteSize += int64(fr.ByteSize)
		out.DurationMS += fr.DurationMS
		return out, nil
	}
	out.Files++
	out.TotalRules += fr.TotalRules
	out.AlignedRules += fr.AlignedRules
	out.GrammarBoundaries += fr.GrammarBoundaries
	out.MismatchedBoundaries += fr.MismatchedBoundaries
	out.ByteSize += int64(fr.ByteSize)
	out.DurationMS += fr.DurationMS
	for typ, g := range fr.ByType {
		out.ByType[typ] = out.ByType[typ].Add(g)
	}
	for b, g := range fr.ByDepthBucket {
		out.ByDepthBucket[b] = out.ByDepthBucket[b].Add(g)
	}
	return out, nil
}

// Merge combines two partial aggregates for the same (language, model)
// pair. Merge(Fold(a), Fold(b)) equals folding a then b directly, in any
// order: the associativity the parallel runner relies on.
func (l LanguageResult) Merge(other LanguageResult) (LanguageResult, error) {
	if err := validateCounts("language "+other.Language, other.TotalRules, other.AlignedRules); err != nil {
		return LanguageResult{}, err
	}
	out := l.clone()
	out.Files += other.Files
	out.ExcludedFiles += other.ExcludedFiles
	out.TotalRules += other.TotalRules
	out.AlignedRules += other.AlignedRules
	out.GrammarBoundaries += other.GrammarBoundaries
	out.MismatchedBoundaries += other.MismatchedBoundaries
	out.ByteSize += other.ByteSize
	out.DurationMS += other.DurationMS
	for typ, g := range other.ByType {
		out.ByType[typ] = out.ByType[typ].Add(g)
	}
	for b, g := range other.ByDepthBucket {
		out.ByDepthBucket[b] = out.ByDepthBucket[b].Add(g)
	}
	return out, nil
}

func (l LanguageResult) clone() LanguageResult {
	out := l
	out.ByType = make(map[string]GroupCount, len(l.ByType))
	for k, v := range l.ByType {
		out.ByType[k] = v
	}
	out.ByDepthBucket = make(map[DepthBucket]GroupCount, len(l.ByDepthBucket))
	for k, v := range l.ByDepthBucket {
		out.ByDepthBucket[k] = v
	}
	return out
}

// ReportSummary carries the cross-language totals for one model.
type ReportSummary struct {
	AnalyzedLanguages    int   `json:"analyzed_languages"`
	TotalFiles           int   `json:"total_files"`
	ExcludedFiles        int   `json:"excluded_files"`
	TotalRules           int   `json:"total_rules"`
	TotalAlignedRules    int   `json:"total_aligned_rules"`
	OverallAlignmentRate Score `json:"overall_alignment_rate"`
	TotalByteSize        int64 `json:"total_byte_size"`
	DurationMS           int64 `json:"duration_ms"`
}

// CrossLanguageReport folds one model's LanguageResults into the shape
// report consumers read: ranked languages plus summed totals. The same
// weighted-fold rule applies here as below: the overall rate comes from
// summed counts, not a mean of per-language percentages.
type CrossLanguageReport struct {
	Model     string           `json:"model"`
	Languages []LanguageResult `json:"languages"`
	Rankings  []RankEntry      `json:"language_rankings"`
	Summary   ReportSummary    `json:"analysis_summary"`
}

// NewCrossLanguageReport builds the report for one model. Languages are
// emitted in ranking order.
func NewCrossLanguageReport(model string, langs []LanguageResult) (CrossLanguageReport, error) {
	rep := CrossLanguageReport{Model: model}
	for _, lr := range langs {
		if err := validateCounts("language "+lr.Language, lr.TotalRules, lr.AlignedRules); err != nil {
			return CrossLanguageReport{}, err
		}
		rep.Summary.AnalyzedLanguages++
		rep.Summary.TotalFiles += lr.Files
		rep.Summary.ExcludedFiles += lr.ExcludedFiles
		rep.Summary.TotalRules += lr.TotalRules
		rep.Summary.TotalAlignedRules += lr.AlignedRules
		rep.Summary.TotalByteSize += lr.ByteSize
		rep.Summary.DurationMS += lr.DurationMS
	}
	rep.Summary.OverallAlignmentRate = Ratio(rep.Summary.TotalAlignedRules, rep.Summary.TotalRules)
	rep.Rankings = RankLanguages(langs)

	ordered := make([]LanguageResult, len(langs))
	copy(ordered, langs)
	byName := make(map[string]int, len(ordered))
	for i, e := range rep.Rankings {
		byName[e.Entity] = i
	}
	sort.Slice(ordered, func(i, j int) bool {
		return byName[ordered[i].Language] < byName[ordered[j].Language]
	})
	rep.Languages = ordered
	return rep, nil
}
