package gormtx

import (
	"context"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"gorm.io/gorm"
)

// Manager implements shared.TransactionManager on top of gorm.DB.Transaction:
//   - fn returns nil: commit
//   - fn returns an error: rollback, the error is returned unchanged
//   - fn panics: rollback, then the panic propagates
type Manager struct {
	db *gorm.DB
}

// NewManager creates a manager over the default connection pool.
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

var _ shared.TransactionManager = (*Manager)(nil)

// InTransaction runs fn in one database transaction bound to ctx.
func (m *Manager) InTransaction(ctx context.Context, fn func(tx shared.TransactionContext) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewContext(tx))
	})
}
