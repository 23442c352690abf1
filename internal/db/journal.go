package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS map_events (
	ts      TIMESTAMP NOT NULL,
	session VARCHAR   NOT NULL,
	kind    VARCHAR   NOT NULL,
	detail  VARCHAR
)`

// Entry is one journaled session event.
type Entry struct {
	Time    time.Time `json:"time" doc:"When the event happened"`
	Session string    `json:"session" doc:"Session id"`
	Kind    string    `json:"kind" doc:"Event kind" example:"style.requested"`
	Detail  string    `json:"detail,omitempty" doc:"Free-form detail" example:"night"`
}

// Journal appends session events to DuckDB.
type Journal struct {
	conn *sql.DB
}

// NewJournal wraps an open connection.
func NewJournal(conn *sql.DB) *Journal {
	return &Journal{conn: conn}
}

// Record appends e. A zero Time is set to now.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := j.conn.ExecContext(ctx,
		"INSERT INTO map_events (ts, session, kind, detail) VALUES (?, ?, ?, ?)",
		e.Time.UTC(), e.Session, e.Kind, e.Detail)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Query filters Recent and Count.
type Query struct {
	Session string
	Kind    string
	Limit   int
	Offset  int
}

func (q Query) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q.Session != "" {
		clauses = append(clauses, "session = ?")
		args = append(args, q.Session)
	}
	if q.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, q.Kind)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Count returns how many entries match q, ignoring its paging.
func (j *Journal) Count(ctx context.Context, q Query) (int, error) {
	where, args := q.where()
	var n int
	if err := j.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM map_events"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("journal count: %w", err)
	}
	return n, nil
}

// Recent returns the newest entries first.
func (j *Journal) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := max(q.Offset, 0)

	where, args := q.where()
	stmt := "SELECT ts, session, kind, COALESCE(detail, '') FROM map_events" + where
	stmt += fmt.Sprintf(" ORDER BY ts DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := j.conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Time, &e.Session, &e.Kind, &e.Detail); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
