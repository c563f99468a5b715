package uow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

var (
	errConflict = shared.NewDomainError("TEST_CONFLICT", "conflict")
	errOther    = errors.New("boom")
)

// fakeTxManager runs fn directly and counts attempts.
type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) InTransaction(_ context.Context, fn func(tx shared.TransactionContext) error) error {
	m.calls++
	return fn(nil)
}

func TestRunner_RetriesConflicts(t *testing.T) {
	// Arrange
	txm := &fakeTxManager{}
	runner := NewRunner(txm, 3).WithBackoff(time.Millisecond)
	attempts := 0

	// Act
	err := runner.Run(context.Background(), func(shared.TransactionContext) error {
		attempts++
		if attempts < 3 {
			return errConflict.WithContext("attempt", attempts)
		}
		return nil
	}, errConflict)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 3, txm.calls)
}

func TestRunner_GivesUpAfterRetries(t *testing.T) {
	txm := &fakeTxManager{}
	runner := NewRunner(txm, 2).WithBackoff(time.Millisecond)

	err := runner.Run(context.Background(), func(shared.TransactionContext) error {
		return errConflict
	}, errConflict)

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 3, txm.calls, "first attempt plus two retries")
}

func TestRunner_DoesNotRetryOtherErrors(t *testing.T) {
	txm := &fakeTxManager{}
	runner := NewRunner(txm, 5).WithBackoff(time.Millisecond)

	err := runner.Run(context.Background(), func(shared.TransactionContext) error {
		return errOther
	}, errConflict)

	assert.ErrorIs(t, err, errOther)
	assert.Equal(t, 1, txm.calls)
}

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, func(context.Context) error {
		calls++
		if calls == 2 {
			return nil
		}
		return errConflict
	}, errConflict)

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 4, func(context.Context) error {
		calls++
		return errConflict
	}, errConflict)

	assert.ErrorIs(t, err, errConflict)
	assert.Equal(t, 4, calls)
}
