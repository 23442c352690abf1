// Package db opens the DuckDB database and stores the session journal.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Config holds database configuration. An empty DataDir opens an
// in-memory database.
type Config struct {
	DataDir string
	DBName  string
}

// Path returns the database file path, or "" for in-memory.
func (c Config) Path() string {
	if c.DataDir == "" {
		return ""
	}
	name := c.DBName
	if name == "" {
		name = "waterfront"
	}
	return filepath.Join(c.DataDir, "duckdb", name+".duckdb")
}

// Open connects to DuckDB and creates the journal table.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	path := cfg.Path()
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create duckdb directory: %w", err)
		}
	}

	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return conn, nil
}

// Tables lists the tables of the main schema.
func Tables(ctx context.Context, conn *sql.DB) ([]string, error) {
	rows, err := conn.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
