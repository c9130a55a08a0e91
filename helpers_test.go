package grapht

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	typeA  TypeName = "A"
	typeB  TypeName = "B"
	typeC  TypeName = "C"
	typeAp TypeName = "Ap"
	typeBp TypeName = "Bp"
	typeCp TypeName = "Cp"
)

// hierarchyUniverse holds three unrelated concrete types, each with one
// subtype.
func hierarchyUniverse(t *testing.T) *Universe {
	t.Helper()
	u := NewUniverse()
	define(t, u,
		TypeSpec{Name: typeA},
		TypeSpec{Name: typeB},
		TypeSpec{Name: typeC},
		TypeSpec{Name: typeAp, Supertypes: []TypeName{typeA}},
		TypeSpec{Name: typeBp, Supertypes: []TypeName{typeB}},
		TypeSpec{Name: typeCp, Supertypes: []TypeName{typeC}},
	)
	return u
}

func define(t testing.TB, u *Universe, specs ...TypeSpec) {
	t.Helper()
	for _, s := range specs {
		require.NoError(t, u.Define(s))
	}
}

func makeContext(types ...Type) InjectionContext {
	ctx := EmptyContext()
	for _, typ := range types {
		ctx = ctx.Extend(Class(typ), Qualifier{})
	}
	return ctx
}

func point(typ TypeName) PointSpec {
	return PointSpec{Type: typ}
}

func ctor(points ...PointSpec) [][]PointSpec {
	return [][]PointSpec{points}
}

// graphShape flattens a graph into comparable strings: one entry per node
// and one per edge, keyed by satisfaction and context rather than ID.
type graphShape struct {
	Nodes []string
	Edges []string
	Roots []string
}

func shapeOf(g *Graph) graphShape {
	label := func(n *Node) string {
		return n.Satisfaction.String() + " in " + n.Context.String()
	}
	var s graphShape
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, label(n))
		for _, e := range g.Dependencies(n) {
			s.Edges = append(s.Edges, label(n)+" -> "+label(e.To))
		}
	}
	for _, n := range g.Roots() {
		s.Roots = append(s.Roots, label(n))
	}
	return s
}
