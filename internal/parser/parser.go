// Package parser adapts tree-sitter grammars to the align.Node interface.
// Grammar installation and compilation are out of scope: only pre-built
// language bindings are registered here.
package parser

import (
	"context"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// Parser turns source text into a syntax tree for a named language.
type Parser interface {
	// Parse returns the tree root, or *align.ParseError when the grammar
	// cannot parse the text.
	Parse(ctx context.Context, text []byte, language string) (align.Node, error)
	// Languages lists the language names this parser accepts.
	Languages() []string
}
