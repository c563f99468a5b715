package affiliate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amountsOf(entries []TransactionResult) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Amount)
	}
	return out
}

func TestListTransactionsUseCase_NewestFirstAcrossPages(t *testing.T) {
	// Arrange
	f := setup(t)
	account := f.createAccount(t, "rider-1")
	for i := int64(1); i <= 7; i++ {
		f.earn(t, account.AccountID, i)
		time.Sleep(2 * time.Millisecond)
	}
	uc := NewListTransactionsUseCase(f.deps)
	uc.pageSize = 2

	// Act
	seq, err := uc.Execute(context.Background(), ListTransactionsQuery{AccountID: account.AccountID, Limit: 5})
	require.NoError(t, err)
	entries, err := Collect(seq)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 6, 5, 4, 3}, amountsOf(entries))
}

func TestListTransactionsUseCase_LazyAndRestartable(t *testing.T) {
	f := setup(t)
	account := f.createAccount(t, "rider-1")
	f.earn(t, account.AccountID, 1)
	time.Sleep(2 * time.Millisecond)
	uc := NewListTransactionsUseCase(f.deps)
	uc.pageSize = 1

	seq, err := uc.Execute(context.Background(), ListTransactionsQuery{AccountID: account.AccountID, Limit: 10})
	require.NoError(t, err)

	// written after the sequence was built, read when it is ranged
	f.earn(t, account.AccountID, 2)

	first, err := Collect(seq)
	require.NoError(t, err)
	second, err := Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, amountsOf(first))
	assert.Equal(t, amountsOf(first), amountsOf(second))
}

func TestListTransactionsUseCase_EarlyBreak(t *testing.T) {
	f := setup(t)
	account := f.createAccount(t, "rider-1")
	for i := int64(1); i <= 3; i++ {
		f.earn(t, account.AccountID, i)
	}

	seq, err := NewListTransactionsUseCase(f.deps).Execute(context.Background(), ListTransactionsQuery{AccountID: account.AccountID})
	require.NoError(t, err)

	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestListTransactionsUseCase_Errors(t *testing.T) {
	f := setup(t)
	account := f.createAccount(t, "rider-1")
	uc := NewListTransactionsUseCase(f.deps)

	_, err := uc.Execute(context.Background(), ListTransactionsQuery{AccountID: affiliate.NewAccountID().String()})
	assert.ErrorIs(t, err, affiliate.ErrAccountNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	seq, err := uc.Execute(ctx, ListTransactionsQuery{AccountID: account.AccountID})
	require.NoError(t, err)
	cancel()
	_, err = Collect(seq)
	assert.True(t, errors.Is(err, context.Canceled))
}
