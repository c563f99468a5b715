package affiliate

import (
	"context"
	"fmt"
	"iter"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
)

const (
	defaultTransactionLimit = 20
	transactionPageSize     = 50
)

// ListTransactionsQuery asks for up to Limit recent entries.
type ListTransactionsQuery struct {
	AccountID string
	Limit     int
}

// ListTransactionsUseCase implements getRecentTransactions.
type ListTransactionsUseCase struct {
	accounts     affiliate.AccountRepository
	transactions affiliate.TransactionRepository
	pageSize     int
}

func NewListTransactionsUseCase(deps Dependencies) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		accounts:     deps.Accounts,
		transactions: deps.Transactions,
		pageSize:     transactionPageSize,
	}
}

// Execute checks the account exists and returns a lazy sequence of up to
// Limit entries, newest first. Nothing is read until the sequence is ranged
// over; ranging again starts over from the newest entry. Storage errors end
// the sequence with a non-nil error.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, q ListTransactionsQuery) (iter.Seq2[TransactionResult, error], error) {
	accountID, err := affiliate.AccountIDFromString(q.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.accounts.FindByID(nil, accountID); err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	return func(yield func(TransactionResult, error) bool) {
		var cursor affiliate.TransactionCursor
		remaining := limit
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				yield(TransactionResult{}, err)
				return
			}
			want := min(remaining, uc.pageSize)
			page, err := uc.transactions.ListBefore(nil, accountID, cursor, want)
			if err != nil {
				yield(TransactionResult{}, fmt.Errorf("failed to list transactions: %w", err))
				return
			}
			for _, entry := range page {
				if !yield(newTransactionResult(entry), nil) {
					return
				}
			}
			remaining -= len(page)
			if len(page) < want {
				return
			}
			last := page[len(page)-1]
			cursor = affiliate.TransactionCursor{CreatedAt: last.CreatedAt(), ID: last.ID()}
		}
	}, nil
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[TransactionResult, error]) ([]TransactionResult, error) {
	out := []TransactionResult{}
	for entry, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
