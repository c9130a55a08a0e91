package store

import "time"

// Snapshot is a solved dependency graph in storable form. Nodes and edges
// refer to each other by Index, the node's position in the solved graph,
// so a snapshot can be saved and compared before it has row IDs.
type Snapshot struct {
	ID        int64
	Name      string
	Hash      string
	CreatedAt time.Time
	Nodes     []*Node
	Edges     []*Edge
	Metadata  map[string]string
}

// Roots returns the snapshot's root edges in request order.
func (s *Snapshot) Roots() []*Edge {
	var roots []*Edge
	for _, e := range s.Edges {
		if e.From < 0 {
			roots = append(roots, e)
		}
	}
	return roots
}

type Node struct {
	ID             int64
	GraphID        int64
	Index          int
	Kind           string
	TypeName       string
	ProviderType   string
	Instance       string
	QualifierClass string
	QualifierValue string
	Context        string
}

// Edge links two nodes by index. Root edges have From set to -1.
type Edge struct {
	ID             int64
	GraphID        int64
	From           int
	To             int
	Point          string
	QualifierClass string
	QualifierValue string
	Nullable       bool
}

// Summary is the listing form of a stored snapshot.
type Summary struct {
	ID        int64
	Name      string
	Hash      string
	CreatedAt time.Time
	NodeCount int
	EdgeCount int
}
