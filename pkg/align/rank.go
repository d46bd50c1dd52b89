package align

import "sort"

// RankEntry is one row of a ranking: entity identifier, rule-level score
// and the rule count backing it.
type RankEntry struct {
	Entity     string `json:"entity"`
	Score      Score  `json:"score"`
	TotalRules int    `json:"total_rules"`
}

// Rank orders entries by rule-level score descending, ties broken by
// total rule count descending, then by entity name ascending. The
// three-level tie-break is exact so report ordering is reproducible
// across runs and across parallel execution orders. Entries with an
// undefined score sort after every defined one, under the same secondary
// tie-breaks.
func Rank(entries []RankEntry) []RankEntry {
	out := make([]RankEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score.Defined != b.Score.Defined {
			return a.Score.Defined
		}
		if a.Score.Defined && a.Score.Percent != b.Score.Percent {
			return a.Score.Percent > b.Score.Percent
		}
		if a.TotalRules != b.TotalRules {
			return a.TotalRules > b.TotalRules
		}
		return a.Entity < b.Entity
	})
	return out
}

// RankLanguages ranks one model's language aggregates.
func RankLanguages(langs []LanguageResult) []RankEntry {
	entries := make([]RankEntry, 0, len(langs))
	for _, lr := range langs {
		entries = append(entries, RankEntry{
			Entity:     lr.Language,
			Score:      lr.RuleScore(),
			TotalRules: lr.TotalRules,
		})
	}
	return Rank(entries)
}

// RankModels ranks model-level aggregates built by merging each model's
// language results. The model score comes from summed counts.
func RankModels(reports []CrossLanguageReport) []RankEntry {
	entries := make([]RankEntry, 0, len(reports))
	for _, rep := range reports {
		entries = append(entries, RankEntry{
			Entity:     rep.Model,
			Score:      rep.Summary.OverallAlignmentRate,
			TotalRules: rep.Summary.TotalRules,
		})
	}
	return Rank(entries)
}

// RankFiles ranks per-file results.
func RankFiles(files []FileResult) []RankEntry {
	entries := make([]RankEntry, 0, len(files))
	for _, fr := range files {
		entries = append(entries, RankEntry{
			Entity:     fr.FileID,
			Score:      fr.RuleScore,
			TotalRules: fr.TotalRules,
		})
	}
	return Rank(entries)
}

// RankGroups ranks grouped counts (rule types or depth buckets) by their
// alignment rate.
func RankGroups[K ~string](groups map[K]GroupCount) []RankEntry {
	entries := make([]RankEntry, 0, len(groups))
	for key, g := range groups {
		entries = append(entries, RankEntry{
			Entity:     string(key),
			Score:      g.Rate(),
			TotalRules: g.Total,
		})
	}
	return Rank(entries)
}
