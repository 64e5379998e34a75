/*
Package parser turns TypeScript text into a small syntax tree the rewrite
passes can query without holding on to tree-sitter memory.

	text --tree-sitter--> *sitter.Tree --Converter--> *Node (named nodes only)

The generated text of a partially rewritten ETS file is not always valid
TypeScript; tree-sitter recovers and the converter keeps what it can,
including calls that only survive inside ERROR nodes.
*/
package parser

import (
	"context"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"gitlab.com/tozd/go/errors"
)

const (
	KindProgram        = "program"
	KindCallExpression = "call_expression"
	KindArguments      = "arguments"
	KindStatementBlock = "statement_block"
	KindClassBody      = "class_body"
	KindClassHeritage  = "class_heritage"
	KindExtendsClause  = "extends_clause"
	KindError          = "ERROR"
)

// Tree is a parsed revision of one text.
type Tree struct {
	Root *Node
	Text string
	// HasError is set when the parser had to recover from a syntax error.
	HasError bool
}

// Parse parses text with the TypeScript grammar.
func Parse(ctx context.Context, text string) (*Tree, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(typescript.GetLanguage())

	content := []byte(text)
	tstree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Errorf("parsing typescript: %w", err)
	}
	defer tstree.Close()

	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("parse canceled: %w", err)
	}

	root := tstree.RootNode()
	if root == nil {
		return nil, errors.New("parser returned no root node")
	}

	tree := &Tree{
		Root:     NewConverter(text).Convert(root),
		Text:     text,
		HasError: root.HasError(),
	}

	zerolog.Ctx(ctx).Trace().
		Int("bytes", len(text)).
		Bool("has_error", tree.HasError).
		Msg("parsed typescript")

	return tree, nil
}

// NodeText returns the source text a node covers.
func (me *Tree) NodeText(n *Node) string {
	if n == nil || n.End > len(me.Text) {
		return ""
	}
	return me.Text[n.Start:n.End]
}
