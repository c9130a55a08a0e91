package grapht

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondGraph(t *testing.T) *Graph {
	t.Helper()
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: "Top", Constructors: ctor(point("Left"), point("Right"))},
		TypeSpec{Name: "Left", Constructors: ctor(point("Base"))},
		TypeSpec{Name: "Right", Constructors: ctor(point("Base"))},
		TypeSpec{Name: "Base", Constructors: ctor(point("Leaf"))},
		TypeSpec{Name: "Leaf"},
	)
	g, err := solve(t, u, nil, root("Top"))
	require.NoError(t, err)
	return g
}

func typesOf(nodes []*Node) []Type {
	out := make([]Type, len(nodes))
	for i, n := range nodes {
		out[i] = n.Type()
	}
	return out
}

func TestGraph_NodesAreNumberedDepthFirst(t *testing.T) {
	g := diamondGraph(t)

	require.Equal(t, 7, g.Len())
	assert.Equal(t, []Type{
		TypeName("Top"), TypeName("Left"), TypeName("Base"), TypeName("Leaf"),
		TypeName("Right"), TypeName("Base"), TypeName("Leaf"),
	}, typesOf(g.Nodes()))
	for i, n := range g.Nodes() {
		assert.Equal(t, i, n.ID)
		got, ok := g.Node(i)
		require.True(t, ok)
		assert.Same(t, n, got)
	}
	_, ok := g.Node(99)
	assert.False(t, ok)
}

func TestGraph_DependenciesAndDependents(t *testing.T) {
	g := diamondGraph(t)
	top := g.Roots()[0]

	deps := g.Dependencies(top)
	require.Len(t, deps, 2)
	assert.Same(t, top, deps[0].From)
	assert.Equal(t, TypeName("Left"), deps[0].To.Type())
	assert.Equal(t, TypeName("Right"), deps[1].To.Type())

	left := deps[0].To
	dependents := g.Dependents(left)
	require.Len(t, dependents, 1)
	assert.Same(t, top, dependents[0].From)

	assert.Empty(t, g.Dependents(top))
	assert.Len(t, g.Edges(), 6)
	assert.Len(t, g.RootEdges(), 1)
}

func TestGraph_Walk(t *testing.T) {
	g := diamondGraph(t)

	depths := map[int]int{}
	var order []Type
	g.Walk(func(n *Node, depth int) bool {
		depths[n.ID] = depth
		order = append(order, n.Type())
		return true
	})
	assert.Equal(t, []Type{
		TypeName("Top"), TypeName("Left"), TypeName("Right"),
		TypeName("Base"), TypeName("Base"), TypeName("Leaf"), TypeName("Leaf"),
	}, order)
	assert.Equal(t, 0, depths[0])
	assert.Equal(t, 3, depths[3])

	visited := 0
	g.Walk(func(*Node, int) bool {
		visited++
		return visited < 2
	})
	assert.Equal(t, 2, visited)
}

func TestGraph_Topological(t *testing.T) {
	g := diamondGraph(t)

	order := g.Topological()
	require.Len(t, order, g.Len())
	pos := make(map[int]int, len(order))
	for i, n := range order {
		pos[n.ID] = i
	}
	for _, e := range g.Edges() {
		assert.Less(t, pos[e.To.ID], pos[e.From.ID], "%s before %s", e.To, e.From)
	}
	assert.Equal(t, TypeName("Top"), order[len(order)-1].Type())
}

func TestGraph_Simplify(t *testing.T) {
	g := diamondGraph(t)

	s := g.Simplify()
	require.Equal(t, 5, s.Len())
	top := s.Roots()[0]
	deps := s.Dependencies(top)
	require.Len(t, deps, 2)
	leftBase := s.Dependencies(deps[0].To)[0].To
	rightBase := s.Dependencies(deps[1].To)[0].To
	assert.Same(t, leftBase, rightBase)
	assert.Len(t, s.Dependents(leftBase), 2)

	// The original graph is untouched.
	assert.Equal(t, 7, g.Len())
}
