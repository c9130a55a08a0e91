package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a snapshot ID does not exist.
var ErrNotFound = errors.New("store: graph not found")

// Store is the SQLite data access layer for solved graph snapshots.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the snapshot tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS graphs (
  id              INTEGER PRIMARY KEY,
  name            TEXT NOT NULL,
  hash            TEXT NOT NULL,
  created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
  id              INTEGER PRIMARY KEY,
  graph_id        INTEGER NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
  idx             INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  type_name       TEXT NOT NULL,
  provider_type   TEXT,
  instance        TEXT,
  qualifier_class TEXT,
  qualifier_value TEXT,
  context         TEXT,
  UNIQUE (graph_id, idx)
);

CREATE TABLE IF NOT EXISTS edges (
  id              INTEGER PRIMARY KEY,
  graph_id        INTEGER NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
  from_node_id    INTEGER REFERENCES nodes(id) ON DELETE CASCADE,
  to_node_id      INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
  ordinal         INTEGER NOT NULL,
  point           TEXT,
  qualifier_class TEXT,
  qualifier_value TEXT,
  nullable        BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS metadata (
  graph_id        INTEGER NOT NULL REFERENCES graphs(id) ON DELETE CASCADE,
  key             TEXT NOT NULL,
  value           TEXT,
  PRIMARY KEY (graph_id, key)
);

CREATE INDEX IF NOT EXISTS idx_graphs_hash ON graphs(hash);
CREATE INDEX IF NOT EXISTS idx_nodes_graph ON nodes(graph_id);
CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type_name);
CREATE INDEX IF NOT EXISTS idx_edges_graph ON edges(graph_id);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_node_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_node_id);
`

// LoadGraph reads a snapshot with its nodes, edges and metadata.
func (s *Store) LoadGraph(ctx context.Context, id int64) (*Snapshot, error) {
	snap := &Snapshot{ID: id, Metadata: map[string]string{}}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, hash, created_at FROM graphs WHERE id = ?", id,
	).Scan(&snap.Name, &snap.Hash, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load graph %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load graph %d: %w", id, err)
	}

	rowToIndex := make(map[int64]int)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idx, kind, type_name, provider_type, instance, qualifier_class, qualifier_value, context
		 FROM nodes WHERE graph_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	for rows.Next() {
		n := &Node{GraphID: id}
		var provider, instance, qclass, qvalue, nctx sql.NullString
		if err := rows.Scan(&n.ID, &n.Index, &n.Kind, &n.TypeName, &provider, &instance, &qclass, &qvalue, &nctx); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.ProviderType = provider.String
		n.Instance = instance.String
		n.QualifierClass = qclass.String
		n.QualifierValue = qvalue.String
		n.Context = nctx.String
		rowToIndex[n.ID] = n.Index
		snap.Nodes = append(snap.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT id, from_node_id, to_node_id, point, qualifier_class, qualifier_value, nullable
		 FROM edges WHERE graph_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	for rows.Next() {
		e := &Edge{GraphID: id, From: -1}
		var from sql.NullInt64
		var to int64
		var point, qclass, qvalue sql.NullString
		if err := rows.Scan(&e.ID, &from, &to, &point, &qclass, &qvalue, &e.Nullable); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if from.Valid {
			e.From = rowToIndex[from.Int64]
		}
		e.To = rowToIndex[to]
		e.Point = point.String
		e.QualifierClass = qclass.String
		e.QualifierValue = qvalue.String
		snap.Edges = append(snap.Edges, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, "SELECT key, value FROM metadata WHERE graph_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		snap.Metadata[k] = v.String
	}
	return snap, rows.Err()
}

// ListGraphs returns a summary of every stored snapshot, newest first.
func (s *Store) ListGraphs(ctx context.Context) ([]*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.hash, g.created_at,
		       (SELECT COUNT(*) FROM nodes n WHERE n.graph_id = g.id),
		       (SELECT COUNT(*) FROM edges e WHERE e.graph_id = g.id AND e.from_node_id IS NOT NULL)
		FROM graphs g ORDER BY g.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		sum := &Summary{}
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Hash, &sum.CreatedAt, &sum.NodeCount, &sum.EdgeCount); err != nil {
			return nil, fmt.Errorf("scan graph summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// FindByHash returns the ID of a stored snapshot with the given content
// hash, if any.
func (s *Store) FindByHash(ctx context.Context, hash string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM graphs WHERE hash = ? ORDER BY id LIMIT 1", hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find graph by hash: %w", err)
	}
	return id, true, nil
}

// DeleteGraph removes a snapshot. Nodes, edges and metadata go with it.
func (s *Store) DeleteGraph(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM graphs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete graph %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete graph %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete graph %d: %w", id, ErrNotFound)
	}
	return nil
}
