package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SaveGraph inserts a snapshot within a single transaction and returns its
// ID. Nodes are inserted first; edge endpoints are then rewritten from
// node indexes to the assigned node row IDs. The snapshot's ID, Hash and
// CreatedAt are filled in.
func (s *Store) SaveGraph(ctx context.Context, snap *Snapshot) (int64, error) {
	if err := validateSnapshot(snap); err != nil {
		return 0, fmt.Errorf("save graph: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save graph: begin: %w", err)
	}
	defer tx.Rollback()

	if snap.Hash == "" {
		snap.Hash = ComputeGraphHash(snap)
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO graphs (name, hash, created_at) VALUES (?, ?, ?)",
		snap.Name, snap.Hash, snap.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("save graph: insert graph: %w", err)
	}
	graphID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save graph: last insert id: %w", err)
	}

	indexToRow := make(map[int]int64, len(snap.Nodes))
	for _, n := range snap.Nodes {
		n.GraphID = graphID
		rowID, err := insertNodeTx(ctx, tx, n)
		if err != nil {
			return 0, fmt.Errorf("save graph: node %d (%s): %w", n.Index, n.TypeName, err)
		}
		n.ID = rowID
		indexToRow[n.Index] = rowID
	}

	for i, e := range snap.Edges {
		e.GraphID = graphID
		var from sql.NullInt64
		if e.From >= 0 {
			from = sql.NullInt64{Int64: indexToRow[e.From], Valid: true}
		}
		rowID, err := insertEdgeTx(ctx, tx, e, from, indexToRow[e.To], i)
		if err != nil {
			return 0, fmt.Errorf("save graph: edge %d -> %d: %w", e.From, e.To, err)
		}
		e.ID = rowID
	}

	for k, v := range snap.Metadata {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO metadata (graph_id, key, value) VALUES (?, ?, ?)", graphID, k, v,
		); err != nil {
			return 0, fmt.Errorf("save graph: metadata %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save graph: commit: %w", err)
	}
	snap.ID = graphID
	return graphID, nil
}

func insertNodeTx(ctx context.Context, tx *sql.Tx, n *Node) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO nodes (graph_id, idx, kind, type_name, provider_type, instance,
			qualifier_class, qualifier_value, context)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.GraphID, n.Index, n.Kind, n.TypeName, nullString(n.ProviderType), nullString(n.Instance),
		nullString(n.QualifierClass), nullString(n.QualifierValue), n.Context,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertEdgeTx(ctx context.Context, tx *sql.Tx, e *Edge, from sql.NullInt64, to int64, ordinal int) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO edges (graph_id, from_node_id, to_node_id, ordinal, point,
			qualifier_class, qualifier_value, nullable)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GraphID, from, to, ordinal, e.Point,
		nullString(e.QualifierClass), nullString(e.QualifierValue), e.Nullable,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
