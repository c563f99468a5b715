package gormtx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, IsUniqueConstraintError(nil))
	assert.True(t, IsUniqueConstraintError(errors.New("UNIQUE constraint failed: partners.number")))
	assert.True(t, IsUniqueConstraintError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_partners_number" (SQLSTATE 23505)`)))
	assert.True(t, IsUniqueConstraintError(fmt.Errorf("save: %w", gorm.ErrDuplicatedKey)))
	assert.False(t, IsUniqueConstraintError(errors.New("CHECK constraint failed: chk_affiliate_accounts_balance")))
}

func TestIsCheckConstraintError(t *testing.T) {
	assert.True(t, IsCheckConstraintError(errors.New("CHECK constraint failed: chk_affiliate_accounts_balance")))
	assert.True(t, IsCheckConstraintError(errors.New(`new row violates check constraint "chk_affiliate_accounts_balance"`)))
	assert.False(t, IsCheckConstraintError(errors.New("disk full")))
}

func TestConstraintName(t *testing.T) {
	assert.Equal(t, "affiliate_accounts.code", ConstraintName(errors.New("UNIQUE constraint failed: affiliate_accounts.code")))
	assert.Equal(t, "idx_partners_number", ConstraintName(errors.New(`ERROR: duplicate key value violates unique constraint "idx_partners_number" (SQLSTATE 23505)`)))
	assert.Equal(t, "", ConstraintName(errors.New("other")))
}
