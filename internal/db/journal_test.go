package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T, cfg Config) *Journal {
	t.Helper()
	conn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewJournal(conn)
}

func TestJournal_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, Config{})

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, Entry{Time: base, Session: "a", Kind: "session.opened"}))
	require.NoError(t, j.Record(ctx, Entry{Time: base.Add(time.Second), Session: "a", Kind: "style.requested", Detail: "night"}))
	require.NoError(t, j.Record(ctx, Entry{Time: base.Add(2 * time.Second), Session: "b", Kind: "session.opened"}))

	all, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Session, "newest first")

	a, err := j.Recent(ctx, Query{Session: "a"})
	require.NoError(t, err)
	require.Len(t, a, 2)
	assert.Equal(t, "night", a[0].Detail)
	assert.True(t, a[0].Time.Equal(base.Add(time.Second)))

	styles, err := j.Recent(ctx, Query{Kind: "style.requested", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, styles, 1)
}

func TestJournal_CountAndOffset(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, Config{})

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, j.Record(ctx, Entry{Time: base.Add(time.Duration(i) * time.Second), Session: "a", Kind: "camera.moved"}))
	}
	require.NoError(t, j.Record(ctx, Entry{Time: base, Session: "b", Kind: "session.opened"}))

	n, err := j.Count(ctx, Query{Session: "a", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page, err := j.Recent(ctx, Query{Session: "a", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Time.Equal(base.Add(2*time.Second)))
	assert.True(t, page[1].Time.Equal(base.Add(time.Second)))
}

func TestJournal_DefaultTime(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, Config{})

	require.NoError(t, j.Record(ctx, Entry{Session: "a", Kind: "camera.moved"}))

	got, err := j.Recent(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].Time.IsZero())
}

func TestOpen_FileAndTables(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{DataDir: dir, DBName: "test"}

	conn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer conn.Close()

	_, err = os.Stat(cfg.Path())
	require.NoError(t, err)

	tables, err := Tables(context.Background(), conn)
	require.NoError(t, err)
	assert.Contains(t, tables, "map_events")
}

func TestConfig_Path(t *testing.T) {
	assert.Equal(t, "", Config{}.Path())
	assert.Equal(t, "/data/duckdb/waterfront.duckdb", Config{DataDir: "/data"}.Path())
}
