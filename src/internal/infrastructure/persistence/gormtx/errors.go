package gormtx

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsUniqueConstraintError reports a unique index violation for the drivers
// in use (SQLite and PostgreSQL).
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return containsAny(err.Error(),
		"UNIQUE constraint failed",   // SQLite
		"duplicate key value",        // PostgreSQL
		"violates unique constraint", // PostgreSQL
		"SQLSTATE 23505",             // pgx
	)
}

// IsCheckConstraintError reports a CHECK constraint violation.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	return containsAny(err.Error(),
		"CHECK constraint failed",   // SQLite
		"violates check constraint", // PostgreSQL
		"SQLSTATE 23514",            // pgx
	)
}

// ConstraintName best-effort extracts which index or column failed, for
// mapping one insert to different domain errors.
func ConstraintName(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	// SQLite: "UNIQUE constraint failed: affiliate_accounts.code"
	if i := strings.Index(msg, "constraint failed: "); i >= 0 {
		return strings.TrimSpace(msg[i+len("constraint failed: "):])
	}
	// PostgreSQL: `... violates unique constraint "idx_affiliate_accounts_code" (SQLSTATE 23505)`
	if i := strings.Index(msg, "constraint \""); i >= 0 {
		rest := msg[i+len("constraint \""):]
		if j := strings.Index(rest, "\""); j >= 0 {
			return rest[:j]
		}
	}
	return ""
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
