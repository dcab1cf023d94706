// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/spaces/internal/db"
)

// New returns a migrated sqlite database living in the test's temp dir
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	conn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Open("sqlite", conn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.Migrate(database.DB, "sqlite"))
	return database
}
