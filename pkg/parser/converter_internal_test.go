package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_recoverCalls(t *testing.T) {
	source := "Column() {\n  Text ('x') ;\n}"

	errNode := &Node{Kind: KindError, Start: 0, End: len(source)}
	errNode.Children = []*Node{
		{Kind: "identifier", Start: 0, End: 6, Parent: errNode},
		{Kind: KindArguments, Start: 6, End: 8, Parent: errNode},
		{Kind: "identifier", Start: 13, End: 17, Parent: errNode},
		{Kind: KindArguments, Start: 18, End: 23, Parent: errNode},
		{Kind: "identifier", Start: 24, End: 25, Parent: errNode},
	}

	got := NewConverter(source).recoverCalls(errNode)
	require.Len(t, got, 3)

	assert.Equal(t, KindCallExpression, got[0].Kind)
	assert.Equal(t, "Column()", source[got[0].Start:got[0].End])
	assert.Same(t, got[0], got[0].Children[0].Parent)

	assert.Equal(t, KindCallExpression, got[1].Kind)
	assert.Equal(t, "Text ('x')", source[got[1].Start:got[1].End])

	assert.Equal(t, "identifier", got[2].Kind)
}

func TestConverter_recoverCallsNeedsAdjacency(t *testing.T) {
	source := "a; ()"

	errNode := &Node{Kind: KindError, Start: 0, End: len(source)}
	errNode.Children = []*Node{
		{Kind: "identifier", Start: 0, End: 1, Parent: errNode},
		{Kind: KindArguments, Start: 3, End: 5, Parent: errNode},
	}

	got := NewConverter(source).recoverCalls(errNode)
	require.Len(t, got, 2)
	assert.Equal(t, "identifier", got[0].Kind)
}
