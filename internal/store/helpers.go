package store

import (
	"database/sql"
	"fmt"
)

// nullString stores empty strings as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// validateSnapshot checks that every edge endpoint names a node in the
// snapshot and that node indexes are unique.
func validateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	seen := make(map[int]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if seen[n.Index] {
			return fmt.Errorf("duplicate node index %d", n.Index)
		}
		seen[n.Index] = true
	}
	for _, e := range snap.Edges {
		if e.From >= 0 && !seen[e.From] {
			return fmt.Errorf("edge from unknown node %d", e.From)
		}
		if !seen[e.To] {
			return fmt.Errorf("edge to unknown node %d", e.To)
		}
	}
	return nil
}
