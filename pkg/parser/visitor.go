package parser

// Visitor is called for every node in depth-first pre-order. Returning false
// skips the node's children.
type Visitor func(n *Node) bool

// Walk visits root and its descendants.
func Walk(root *Node, visit Visitor) {
	if root == nil {
		return
	}
	if !visit(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, visit)
	}
}

// Collect returns every node matching keep, in source order.
func Collect(root *Node, keep func(*Node) bool) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if keep(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// CallExpressions returns every call expression, outer calls before the
// calls nested in them.
func CallExpressions(root *Node) []*Node {
	return Collect(root, func(n *Node) bool {
		return n.Kind == KindCallExpression
	})
}

// IsBlock reports whether n is a brace-delimited block: a statement block
// or a class body.
func IsBlock(n *Node) bool {
	return n.Kind == KindStatementBlock || n.Kind == KindClassBody
}

// Blocks returns every block node.
func Blocks(root *Node) []*Node {
	return Collect(root, IsBlock)
}

// InnermostBlock returns the smallest block whose [Start, End) contains off,
// or nil when off is not inside any block.
func InnermostBlock(root *Node, off int) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if !n.Contains(off) {
			return false
		}
		if IsBlock(n) {
			found = n
		}
		return true
	})
	return found
}

// BlockAt returns the block that opens at off, if the parser produced one.
func BlockAt(root *Node, off int) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if found != nil || !n.Contains(off) {
			return false
		}
		if IsBlock(n) && n.Start == off {
			found = n
			return false
		}
		return true
	})
	return found
}

// HasAncestor reports whether any ancestor of n has one of kinds.
func HasAncestor(n *Node, kinds ...string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, k := range kinds {
			if p.Kind == k {
				return true
			}
		}
	}
	return false
}
