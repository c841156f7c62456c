package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// newTestStorage opens a migrated store for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh in-memory SQLite instance.
func newTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = ":memory:"
	}
	s, err := Open(dsn)
	require.NoError(t, err, "open test store")
	s.db.Logger = s.db.Logger.LogMode(logger.Silent)

	if dsn != ":memory:" {
		// Clean before AND after to ensure test isolation.
		cleanupTables(t, s)
		t.Cleanup(func() { cleanupTables(t, s) })
	}
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func cleanupTables(t *testing.T, s *GormStorage) {
	t.Helper()
	for _, tbl := range []string{"submitted_jobs", "submissions"} {
		s.db.Exec("DELETE FROM " + tbl)
	}
}
