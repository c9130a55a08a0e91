package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// ComputeGraphHash computes a deterministic hash from a snapshot's
// structure. Covers: node recipes, qualifiers and contexts, edges and
// their injection points. Names, metadata, timestamps and row IDs do NOT
// affect the hash.
func ComputeGraphHash(snap *Snapshot) string {
	h := sha256.New()

	// Nodes sorted by index.
	nodes := make([]*Node, len(snap.Nodes))
	copy(nodes, snap.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Index < nodes[j].Index })
	for _, n := range nodes {
		fmt.Fprintf(h, "node:%d:%s:%s:%s:%s:%s:%s:%s\n",
			n.Index, n.Kind, n.TypeName, n.ProviderType, n.Instance,
			n.QualifierClass, n.QualifierValue, n.Context)
	}

	// Edges keep their order, which is injection-point order.
	for _, e := range snap.Edges {
		fmt.Fprintf(h, "edge:%d:%d:%s:%s:%s:%v\n",
			e.From, e.To, e.Point, e.QualifierClass, e.QualifierValue, e.Nullable)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
