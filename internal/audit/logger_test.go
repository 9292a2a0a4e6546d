package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLogger_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	l, err := Open(path, zerolog.Nop())
	require.NoError(t, err)

	l.LogAsync(&Entry{Tool: "list_databases", DurationMs: 3})
	l.LogAsync(&Entry{Tool: "execute_sql", Error: "table 'missing' doesn't exist"})
	require.NoError(t, l.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var total int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM audit_log`).Scan(&total))
	assert.Equal(t, 2, total)

	var status string
	require.NoError(t, db.QueryRow(
		`SELECT status FROM audit_log WHERE tool = ?`, "execute_sql").Scan(&status))
	assert.Equal(t, "error", status)

	var entryID string
	var ts int64
	require.NoError(t, db.QueryRow(
		`SELECT entry_id, timestamp FROM audit_log WHERE tool = ?`, "list_databases").Scan(&entryID, &ts))
	assert.True(t, len(entryID) > 4 && entryID[:4] == "aud_", entryID)
	assert.NotZero(t, ts)
}

func TestSQLiteLogger_SyncLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	l, err := Open(path, zerolog.Nop())
	require.NoError(t, err)

	entry := &Entry{Tool: "reload_config"}
	require.NoError(t, l.Log(context.Background(), entry))
	assert.Equal(t, "success", entry.Status)

	var got string
	require.NoError(t, l.db.QueryRow(
		`SELECT status FROM audit_log WHERE entry_id = ?`, entry.EntryID).Scan(&got))
	assert.Equal(t, "success", got)

	require.NoError(t, l.Close())
}

func TestSQLiteLogger_CloseIdempotent(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
