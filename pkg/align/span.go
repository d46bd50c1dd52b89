package align

// Node is the minimal view of a concrete syntax tree node the extractor
// needs. The tree-sitter adapter in internal/parser satisfies it; tests
// use a literal fake.
type Node interface {
	// Kind returns the grammar's node-type label, e.g. "function_definition".
	Kind() string
	// IsNamed reports whether the node is a named production rather than
	// an anonymous punctuation/keyword token.
	IsNamed() bool
	StartByte() uint32
	EndByte() uint32
	ChildCount() int
	Child(i int) Node
}

// RuleSpan is the source-text interval covered by one named grammar
// production. Immutable once created.
type RuleSpan struct {
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Depth int    `json:"depth"`
}

// ExtractOptions controls rule-span extraction.
type ExtractOptions struct {
	// SkipTypes are node types excluded from emission. Their subtrees are
	// still traversed and a skipped node does not add nesting depth.
	SkipTypes map[string]bool
}

// DefaultSkipTypes returns the node types excluded by default: free-text
// leaves whose boundaries say nothing about syntax.
func DefaultSkipTypes() map[string]bool {
	return map[string]bool{
		"comment":         true,
		"string_content":  true,
		"escape_sequence": true,
	}
}

// ExtractRuleSpans walks the tree in pre-order depth-first order and emits
// one RuleSpan per named node. Depth counts named ancestors: the root is
// depth 0 and anonymous nodes neither emit spans nor deepen their
// children. The output order is the traversal order, stable for a given
// tree. A tree with zero named nodes yields an empty slice; callers must
// treat total_rules = 0 as an undefined score, never as a division.
func ExtractRuleSpans(root Node, opts ExtractOptions) []RuleSpan {
	if root == nil {
		return nil
	}
	var spans []RuleSpan
	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		childDepth := depth
		if n.IsNamed() {
			if !opts.SkipTypes[n.Kind()] {
				spans = append(spans, RuleSpan{
					Type:  n.Kind(),
					Start: int(n.StartByte()),
					End:   int(n.EndByte()),
					Depth: depth,
				})
				childDepth = depth + 1
			}
		}
		for i := 0; i < n.ChildCount(); i++ {
			walk(n.Child(i), childDepth)
		}
	}
	walk(root, 0)
	return spans
}
