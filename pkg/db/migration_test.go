package db

import (
	"os"
	"path/filepath"
	"testing"
)

func tableColumns(t *testing.T, db DBExecutor, table string) map[string]bool {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragma %s: %v", table, err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

func TestInitDBCreatesSchema(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	want := map[string][]string{
		"builds": {"id", "source", "created_at", "node_count", "full_count", "edge_count", "skipped", "duplicates", "mentions"},
		"nodes":  {"build_id", "seq", "id", "term", "definition", "explanation", "category", "stub"},
		"edges":  {"build_id", "source_id", "position", "type", "target_id"},
	}
	for table, cols := range want {
		got := tableColumns(t, conn, table)
		for _, c := range cols {
			if !got[c] {
				t.Errorf("table %s: missing column %s (have %v)", table, c, got)
			}
		}
	}
}

func TestInitDBIsRepeatable(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()
	if err := InitDB(conn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestEdgeTypeIsChecked(t *testing.T) {
	conn := setupTestDB(t)
	defer conn.Close()

	g := buildGraph(t, glossaryRow("Alpha", "first", "", "ML"))
	b := NewBuild("", "test", g, 0)
	if err := InsertBuild(conn, b); err != nil {
		t.Fatalf("insert build: %v", err)
	}
	if err := InsertNode(conn, b.ID, 0, g.Nodes[0]); err != nil {
		t.Fatalf("insert node: %v", err)
	}
	_, err := conn.Exec(`INSERT INTO edges (build_id, source_id, position, type, target_id) VALUES (?, ?, 0, 'likes', ?)`,
		b.ID, "alpha", "alpha")
	if err == nil {
		t.Fatal("expected CHECK constraint to reject unknown edge type")
	}
}

func TestOpenPathWithURICharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary?v=1#draft%41.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := InitDB(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database at %q: %v", path, err)
	}
}
