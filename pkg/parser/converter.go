package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is one named syntax node. Offsets are byte offsets into the parsed
// text, End exclusive.
type Node struct {
	Kind     string
	Start    int
	End      int
	Parent   *Node
	Children []*Node
	// Missing marks a node the parser inserted during error recovery.
	Missing bool
}

func (n *Node) IsError() bool {
	return n.Kind == KindError
}

// Contains reports whether off is inside [Start, End).
func (n *Node) Contains(off int) bool {
	return n.Start <= off && off < n.End
}

// Converter converts tree-sitter nodes into Nodes
type Converter struct {
	// source is the text the tree-sitter tree was parsed from
	source string
}

func NewConverter(source string) *Converter {
	return &Converter{source: source}
}

// Convert copies every named node below root. Anonymous tokens such as
// punctuation are dropped.
func (c *Converter) Convert(root *sitter.Node) *Node {
	return c.convertNode(root, nil)
}

func (c *Converter) convertNode(tsnode *sitter.Node, parent *Node) *Node {
	n := &Node{
		Kind:    tsnode.Type(),
		Start:   int(tsnode.StartByte()),
		End:     int(tsnode.EndByte()),
		Parent:  parent,
		Missing: tsnode.IsMissing(),
	}

	count := int(tsnode.ChildCount())
	for i := 0; i < count; i++ {
		child := tsnode.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() && child.Type() != KindError {
			continue
		}
		n.Children = append(n.Children, c.convertNode(child, n))
	}

	if n.IsError() {
		n.Children = c.recoverCalls(n)
	}

	return n
}

// recoverCalls rebuilds call expressions the parser split apart while
// recovering: a callee directly followed by its argument list.
//
//	ERROR
//	  identifier  "Column"      ->   ERROR
//	  arguments   "()"                 call_expression "Column()"
func (c *Converter) recoverCalls(errNode *Node) []*Node {
	out := make([]*Node, 0, len(errNode.Children))
	for i := 0; i < len(errNode.Children); i++ {
		cur := errNode.Children[i]
		if i+1 < len(errNode.Children) && isCallee(cur.Kind) {
			next := errNode.Children[i+1]
			if next.Kind == KindArguments && c.onlySpaceBetween(cur.End, next.Start) {
				call := &Node{
					Kind:     KindCallExpression,
					Start:    cur.Start,
					End:      next.End,
					Parent:   errNode,
					Children: []*Node{cur, next},
				}
				cur.Parent = call
				next.Parent = call
				out = append(out, call)
				i++
				continue
			}
		}
		out = append(out, cur)
	}
	return out
}

func isCallee(kind string) bool {
	switch kind {
	case "identifier", "member_expression", KindCallExpression:
		return true
	}
	return false
}

func (c *Converter) onlySpaceBetween(start, end int) bool {
	if start > end || end > len(c.source) {
		return false
	}
	for i := start; i < end; i++ {
		switch c.source[i] {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
