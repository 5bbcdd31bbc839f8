package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCoversAllTables(t *testing.T) {
	tables := schemaTables()
	require.Len(t, tables, 5)

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.name)
		assert.Contains(t, table.sqlite, "CREATE TABLE IF NOT EXISTS "+table.name)
		assert.Contains(t, table.postgres, "CREATE TABLE IF NOT EXISTS "+table.name)
	}
	assert.Equal(t, []string{"users", "flashcards", "card_states", "review_log", "quiz_results"}, names)
}

func TestPostgresSchemaUsesPostgresDialect(t *testing.T) {
	for _, table := range schemaTables() {
		assert.NotContains(t, table.postgres, "AUTOINCREMENT",
			"table %s must not use the SQLite autoincrement keyword", table.name)
		assert.NotContains(t, table.postgres, " REAL",
			"table %s should use DOUBLE PRECISION for floats", table.name)
		if table.name != "review_log" {
			assert.Contains(t, table.postgres, "BIGSERIAL PRIMARY KEY",
				"table %s needs a serial primary key", table.name)
		}
	}
}

func TestSQLiteSchemaBootstraps(t *testing.T) {
	setupTestDB(t)

	for _, table := range schemaTables() {
		var name string
		err := DB.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table.name)
		require.NoError(t, err, "table %s missing after bootstrap", table.name)
		assert.Equal(t, table.name, name)
	}
}
