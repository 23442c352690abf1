package api

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-waterfront/internal/db"
	"github.com/joeblew999/plat-waterfront/internal/humastar"
)

// DBHandler handles database-related endpoints.
type DBHandler struct {
	conn    *sql.DB
	journal *db.Journal
}

// NewDBHandler creates a database handler. A nil conn answers 503.
func NewDBHandler(conn *sql.DB) *DBHandler {
	h := &DBHandler{conn: conn}
	if conn != nil {
		h.journal = db.NewJournal(conn)
	}
	return h
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("journal"))
	huma.Get(api, "/api/v1/journal", h.ListJournal, huma.OperationTags("journal"))
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []string `json:"tables" doc:"List of table names"`
	}
}

// ListTables returns all DuckDB tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.conn == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	tables, err := db.Tables(ctx, h.conn)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	out := &TablesOutput{}
	out.Body.Tables = tables
	return out, nil
}

// JournalInput filters and pages the journal.
type JournalInput struct {
	Session string `query:"session" doc:"Only entries of this session"`
	Kind    string `query:"kind" doc:"Only entries of this kind" example:"style.requested"`
	Offset  int    `query:"offset" minimum:"0" default:"0" doc:"Entries to skip"`
	Limit   int    `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

// JournalOutput is a page of journal entries, newest first.
type JournalOutput struct {
	Body humastar.PageBody[db.Entry]
}

// ListJournal returns session events, newest first.
func (h *DBHandler) ListJournal(ctx context.Context, input *JournalInput) (*JournalOutput, error) {
	if h.journal == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	q := db.Query{Session: input.Session, Kind: input.Kind, Offset: input.Offset, Limit: input.Limit}

	total, err := h.journal.Count(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to count journal", err)
	}
	entries, err := h.journal.Recent(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read journal", err)
	}
	return &JournalOutput{Body: humastar.NewPage(total, input.Offset, input.Limit, entries)}, nil
}
