// Package uow runs units of work against the transaction manager and hands
// their side effects out once they committed.
package uow

import (
	"context"
	"errors"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/sethvargo/go-retry"
)

const defaultBackoff = 10 * time.Millisecond

// Runner executes fn in a transaction. When the transaction fails with one
// of the listed conflict errors the whole unit of work, reads included, is
// replayed with exponential backoff.
type Runner struct {
	txManager shared.TransactionManager
	retries   uint64
	backoff   time.Duration
}

// NewRunner returns a runner that replays a conflicting unit of work up to
// retries times.
func NewRunner(txManager shared.TransactionManager, retries int) *Runner {
	if retries < 0 {
		retries = 0
	}
	return &Runner{txManager: txManager, retries: uint64(retries), backoff: defaultBackoff}
}

// WithBackoff overrides the first backoff interval.
func (r *Runner) WithBackoff(d time.Duration) *Runner {
	cp := *r
	cp.backoff = d
	return &cp
}

// Run executes fn. The error of the last attempt is returned unchanged.
func (r *Runner) Run(ctx context.Context, fn func(tx shared.TransactionContext) error, conflicts ...error) error {
	b := retry.WithMaxRetries(r.retries, retry.NewExponential(r.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := r.txManager.InTransaction(ctx, fn)
		if err == nil {
			return nil
		}
		for _, c := range conflicts {
			if errors.Is(err, c) {
				return retry.RetryableError(err)
			}
		}
		return err
	})
}

// Retry replays fn (outside any transaction) while it fails with one of the
// listed errors. Used for collision retries on generated identifiers.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error, retryOn ...error) error {
	if attempts < 1 {
		attempts = 1
	}
	b := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		for _, target := range retryOn {
			if errors.Is(err, target) {
				return retry.RetryableError(err)
			}
		}
		return err
	})
}
