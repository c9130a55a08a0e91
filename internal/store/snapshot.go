package store

import (
	"fmt"

	"github.com/jward/grapht"
)

// FromGraph flattens a solved graph into a snapshot ready for SaveGraph.
// Instance values are stored in printed form; the snapshot records what
// was resolved, not how to rebuild the values.
func FromGraph(name string, g *grapht.Graph) *Snapshot {
	snap := &Snapshot{Name: name, Metadata: map[string]string{}}
	for _, n := range g.Nodes() {
		snap.Nodes = append(snap.Nodes, nodeRecord(n))
	}
	for _, e := range g.RootEdges() {
		snap.Edges = append(snap.Edges, edgeRecord(e))
	}
	for _, e := range g.Edges() {
		snap.Edges = append(snap.Edges, edgeRecord(e))
	}
	return snap
}

func nodeRecord(n *grapht.Node) *Node {
	sat := n.Satisfaction
	rec := &Node{
		Index:          n.ID,
		Kind:           sat.Kind().String(),
		TypeName:       sat.Type().String(),
		QualifierClass: n.Qualifier.Class,
		QualifierValue: n.Qualifier.Value,
		Context:        n.Context.String(),
	}
	switch sat.Kind() {
	case grapht.InstanceSatisfaction:
		rec.Instance = fmt.Sprint(sat.Instance())
	case grapht.ProviderClassSatisfaction:
		rec.ProviderType = sat.ProviderType().String()
	case grapht.ProviderInstanceSatisfaction:
		rec.ProviderType = fmt.Sprintf("%T", sat.Provider())
	}
	return rec
}

func edgeRecord(e grapht.Edge) *Edge {
	d := e.Desire
	rec := &Edge{
		From:           -1,
		To:             e.To.ID,
		Point:          d.Point().String(),
		QualifierClass: d.Qualifier().Class,
		QualifierValue: d.Qualifier().Value,
		Nullable:       d.Nullable(),
	}
	if e.From != nil {
		rec.From = e.From.ID
	}
	return rec
}
