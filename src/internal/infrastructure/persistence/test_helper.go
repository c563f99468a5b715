package persistence

import (
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB opens a migrated in-memory SQLite database through Open, the
// same path the service uses.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      "file::memory:",
		LogLevel: "silent",
	}, zap.NewNop())
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
