package gormtx

import (
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"gorm.io/gorm"
)

// ===========================
// GORM TransactionContext
// ===========================

// transactionContext wraps the *gorm.DB of an open transaction. It satisfies
// shared.TransactionContext, which has no methods, so the domain never sees
// GORM.
type transactionContext struct {
	db *gorm.DB
}

// NewContext wraps db as a TransactionContext.
func NewContext(db *gorm.DB) shared.TransactionContext {
	return &transactionContext{db: db}
}

// GetDB exposes the transaction handle to infrastructure code only.
func (c *transactionContext) GetDB() *gorm.DB {
	return c.db
}

// DB resolves the handle repositories should use: the transaction when ctx
// came from Manager.InTransaction, otherwise fallback (auto-commit).
func DB(ctx shared.TransactionContext, fallback *gorm.DB) *gorm.DB {
	if tc, ok := ctx.(*transactionContext); ok && tc != nil {
		return tc.db
	}
	return fallback
}
