package main

import (
	"time"

	"github.com/jward/grapht"
	"github.com/jward/grapht/internal/store"
)

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIGraph is a JSON-friendly solved graph.
type CLIGraph struct {
	ID    int64     `json:"id,omitempty"`
	Name  string    `json:"name"`
	Hash  string    `json:"hash"`
	Roots []int     `json:"roots"`
	Nodes []CLINode `json:"nodes"`
	Edges []CLIEdge `json:"edges"`
}

// CLINode is a JSON-friendly graph node.
type CLINode struct {
	ID        int    `json:"id"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Provider  string `json:"provider,omitempty"`
	Instance  string `json:"instance,omitempty"`
	Qualifier string `json:"qualifier,omitempty"`
	Context   string `json:"context"`
}

// CLIEdge is a JSON-friendly dependency edge. Root edges have From -1.
type CLIEdge struct {
	From     int    `json:"from"`
	To       int    `json:"to"`
	Point    string `json:"point"`
	Nullable bool   `json:"nullable,omitempty"`
}

// CLIGraphSummary is a JSON-friendly stored graph listing.
type CLIGraphSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

func qualifierString(class, value string) string {
	q := grapht.Qualifier{Class: class, Value: value}
	if q.IsZero() {
		return ""
	}
	return q.String()
}

// snapshotToCLI converts a snapshot to a CLIGraph.
func snapshotToCLI(snap *store.Snapshot) CLIGraph {
	g := CLIGraph{
		ID:    snap.ID,
		Name:  snap.Name,
		Hash:  snap.Hash,
		Roots: []int{},
		Nodes: make([]CLINode, 0, len(snap.Nodes)),
		Edges: []CLIEdge{},
	}
	for _, n := range snap.Nodes {
		g.Nodes = append(g.Nodes, CLINode{
			ID:        n.Index,
			Kind:      n.Kind,
			Type:      n.TypeName,
			Provider:  n.ProviderType,
			Instance:  n.Instance,
			Qualifier: qualifierString(n.QualifierClass, n.QualifierValue),
			Context:   n.Context,
		})
	}
	for _, e := range snap.Edges {
		if e.From < 0 {
			g.Roots = append(g.Roots, e.To)
			continue
		}
		g.Edges = append(g.Edges, CLIEdge{From: e.From, To: e.To, Point: e.Point, Nullable: e.Nullable})
	}
	return g
}

func summaryToCLI(s *store.Summary) CLIGraphSummary {
	return CLIGraphSummary{
		ID:        s.ID,
		Name:      s.Name,
		Hash:      s.Hash,
		CreatedAt: s.CreatedAt,
		NodeCount: s.NodeCount,
		EdgeCount: s.EdgeCount,
	}
}
