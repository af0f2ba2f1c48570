package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nilenso/ai-knowledge-graph/pkg/termgraph"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// InsertBuild stores the build metadata row.
func InsertBuild(db DBExecutor, b Build) error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("build id must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO builds (id, source, created_at, node_count, full_count, edge_count, skipped, duplicates, mentions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Source, b.CreatedAt, b.Stats.Nodes, b.Stats.Full, b.Stats.Edges, b.Skipped, b.Duplicates, b.Mentions)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// InsertNode stores one node at position seq. Stub nodes get NULL text columns.
func InsertNode(db DBExecutor, buildID string, seq int, n *termgraph.Node) error {
	var def, expl, cat interface{}
	if !n.Stub {
		def, expl, cat = n.Definition, n.Explanation, n.Category
	}
	_, err := db.Exec(`INSERT INTO nodes (build_id, seq, id, term, definition, explanation, category, stub)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		buildID, seq, n.ID, n.Term, def, expl, cat, n.Stub)
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	return nil
}

// InsertEdges stores the edges of n, keeping their order.
func InsertEdges(db DBExecutor, buildID string, n *termgraph.Node) error {
	for i, e := range n.Edges {
		_, err := db.Exec(`INSERT INTO edges (build_id, source_id, position, type, target_id) VALUES (?, ?, ?, ?, ?)`,
			buildID, n.ID, i, string(e.Type), e.Target)
		if err != nil {
			return fmt.Errorf("insert edge %s -> %s: %w", n.ID, e.Target, err)
		}
	}
	return nil
}

// SaveGraph writes the build row, every node and then every edge through a
// BatchWriter. Nodes go in before any edge so edge targets always exist.
func SaveGraph(ctx context.Context, conn *sql.DB, b Build, nodes []*termgraph.Node, batchSize int) error {
	return saveGraph(ctx, conn, b, nodes, batchSize, nil)
}

// saveGraph is SaveGraph with onError reporting the first failed batch.
func saveGraph(ctx context.Context, conn *sql.DB, b Build, nodes []*termgraph.Node, batchSize int, onError func(error)) error {
	bw := NewBatchWriter(ctx, conn, batchSize)
	bw.OnError = onError

	submit := func(w WriteFunc) error {
		if err := bw.Submit(w); err != nil {
			_ = bw.Close()
			return err
		}
		return nil
	}

	if err := submit(func(ctx context.Context, tx *sql.Tx) error {
		return InsertBuild(tx, b)
	}); err != nil {
		return err
	}
	for i, n := range nodes {
		if err := submit(func(ctx context.Context, tx *sql.Tx) error {
			return InsertNode(tx, b.ID, i, n)
		}); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		if len(n.Edges) == 0 {
			continue
		}
		if err := submit(func(ctx context.Context, tx *sql.Tx) error {
			return InsertEdges(tx, b.ID, n)
		}); err != nil {
			return err
		}
	}
	return bw.Close()
}

// GetBuild returns the metadata row for id.
func GetBuild(db DBExecutor, id string) (Build, error) {
	var b Build
	err := db.QueryRow(`SELECT id, source, created_at, node_count, full_count, edge_count, skipped, duplicates, mentions
		FROM builds WHERE id = ?`, id).Scan(
		&b.ID, &b.Source, &b.CreatedAt, &b.Stats.Nodes, &b.Stats.Full, &b.Stats.Edges, &b.Skipped, &b.Duplicates, &b.Mentions)
	if err != nil {
		return Build{}, err
	}
	return b, nil
}

// LoadGraph reads back the nodes of a build in their original order, edges
// included.
func LoadGraph(db DBExecutor, buildID string) ([]*termgraph.Node, error) {
	rows, err := db.Query(`SELECT id, term, definition, explanation, category, stub
		FROM nodes WHERE build_id = ? ORDER BY seq`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*termgraph.Node
	byID := make(map[string]*termgraph.Node)
	for rows.Next() {
		n := &termgraph.Node{}
		var def, expl, cat sql.NullString
		if err := rows.Scan(&n.ID, &n.Term, &def, &expl, &cat, &n.Stub); err != nil {
			return nil, err
		}
		n.Definition, n.Explanation, n.Category = def.String, expl.String, cat.String
		nodes = append(nodes, n)
		byID[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edges, err := db.Query(`SELECT source_id, type, target_id FROM edges
		WHERE build_id = ? ORDER BY source_id, position`, buildID)
	if err != nil {
		return nil, err
	}
	defer edges.Close()
	for edges.Next() {
		var src, typ, target string
		if err := edges.Scan(&src, &typ, &target); err != nil {
			return nil, err
		}
		n, ok := byID[src]
		if !ok {
			return nil, fmt.Errorf("edge from unknown node %q", src)
		}
		n.Edges = append(n.Edges, termgraph.Edge{Type: termgraph.EdgeType(typ), Target: target})
	}
	if err := edges.Err(); err != nil {
		return nil, err
	}
	return nodes, nil
}
