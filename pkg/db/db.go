package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var migrationsSQL string

// uriEscaper keeps characters that are special in a sqlite URI filename from
// being read as a query string or fragment.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// Open opens the sqlite database at path with foreign keys enforced.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+uriEscaper.Replace(path)+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// One writer; keeps :memory: databases on a single connection too.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
