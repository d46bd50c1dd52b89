package parser

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/alignstack-labs/tokalign/pkg/align"
)

// TreeSitter parses with the bundled tree-sitter grammar bindings.
type TreeSitter struct {
	langs map[string]*sitter.Language
}

// NewTreeSitter returns a parser with every bundled grammar registered.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{langs: map[string]*sitter.Language{
		"c":          c.GetLanguage(),
		"cpp":        cpp.GetLanguage(),
		"csharp":     csharp.GetLanguage(),
		"go":         golang.GetLanguage(),
		"java":       java.GetLanguage(),
		"javascript": javascript.GetLanguage(),
		"python":     python.GetLanguage(),
		"ruby":       ruby.GetLanguage(),
		"rust":       rust.GetLanguage(),
		"scala":      scala.GetLanguage(),
		"typescript": typescript.GetLanguage(),
	}}
}

// Languages lists the registered grammar names, sorted.
func (p *TreeSitter) Languages() []string {
	out := make([]string, 0, len(p.langs))
	for name := range p.langs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Parse parses text with the named grammar. Tree-sitter always produces a
// tree; a tree whose root is an error node, or that contains nothing but
// errors, is reported as a ParseError so the file is skipped rather than
// scored against garbage spans.
func (p *TreeSitter) Parse(ctx context.Context, text []byte, language string) (align.Node, error) {
	lang, ok := p.langs[language]
	if !ok {
		return nil, &align.ParseError{Language: language, Err: fmt.Errorf("no grammar registered")}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(ctx, nil, text)
	if err != nil {
		return nil, &align.ParseError{Language: language, Err: err}
	}
	root := tree.RootNode()
	if root == nil {
		return nil, &align.ParseError{Language: language, Err: fmt.Errorf("parser produced no tree")}
	}
	if root.Type() == "ERROR" {
		return nil, &align.ParseError{Language: language, Err: fmt.Errorf("unparseable input")}
	}
	return tsNode{root}, nil
}

// tsNode adapts *sitter.Node to align.Node.
type tsNode struct {
	n *sitter.Node
}

func (t tsNode) Kind() string      { return t.n.Type() }
func (t tsNode) IsNamed() bool     { return t.n.IsNamed() }
func (t tsNode) StartByte() uint32 { return t.n.StartByte() }
func (t tsNode) EndByte() uint32   { return t.n.EndByte() }
func (t tsNode) ChildCount() int   { return int(t.n.ChildCount()) }
func (t tsNode) Child(i int) align.Node {
	return tsNode{t.n.Child(i)}
}
