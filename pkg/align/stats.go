package align

import "sort"

// GroupCount accumulates aligned/total counts for one grouping key.
// Accumulation is a per-key sum, commutative, so grouping is
// deterministic regardless of outcome order.
type GroupCount struct {
	Total   int `json:"total"`
	Aligned int `json:"aligned"`
}

// Add returns the sum of two counts.
func (g GroupCount) Add(other GroupCount) GroupCount {
	return GroupCount{Total: g.Total + other.Total, Aligned: g.Aligned + other.Aligned}
}

// Rate is the group's alignment rate; undefined when the group is empty.
func (g GroupCount) Rate() Score { return Ratio(g.Aligned, g.Total) }

// DepthBucket is a coarse classification of nesting depth. The corpus
// shows qualitatively different alignment behavior across these bands
// (shallow and deep rules align better than mid-depth ones), and the
// exact partition must be stable for comparability across runs.
type DepthBucket string

const (
	BucketShallow DepthBucket = "shallow" // depth 0-2
	BucketMid     DepthBucket = "mid"     // depth 3-7
	BucketDeep    DepthBucket = "deep"    // depth 8+
)

// BucketForDepth places a non-negative depth into exactly one bucket.
func BucketForDepth(depth int) DepthBucket {
	switch {
	case depth <= 2:
		return BucketShallow
	case depth <= 7:
		return BucketMid
	default:
		return BucketDeep
	}
}

// GroupByType accumulates outcomes per grammar node-type label. The type
// taxonomy is open-ended and grammar-specific, hence a map keyed by
// string rather than an enumeration.
func GroupByType(outcomes []AlignmentOutcome) map[string]GroupCount {
	byType := make(map[string]GroupCount)
	for _, o := range outcomes {
		g := byType[o.Span.Type]
		g.Total++
		if o.Aligned() {
			g.Aligned++
		}
		byType[o.Span.Type] = g
	}
	return byType
}

// GroupByDepth accumulates outcomes per depth bucket.
func GroupByDepth(outcomes []AlignmentOutcome) map[DepthBucket]GroupCount {
	byDepth := make(map[DepthBucket]GroupCount)
	for _, o := range outcomes {
		b := BucketForDepth(o.Span.Depth)
		g := byDepth[b]
		g.Total++
		if o.Aligned() {
			g.Aligned++
		}
		byDepth[b] = g
	}
	return byDepth
}

// TypeCount pairs a node-type label with its counts, for ordered output.
type TypeCount struct {
	Type string `json:"type"`
	GroupCount
}

// CommonTypes orders a by-type map for "most common rule types" output:
// total count descending, ties broken by type name ascending so report
// ordering is reproducible.
func CommonTypes(byType map[string]GroupCount) []TypeCount {
	out := make([]TypeCount, 0, len(byType))
	for typ, g := range byType {
		out = append(out, TypeCount{Type: typ, GroupCount: g})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Type < out[j].Type
	})
	return out
}
