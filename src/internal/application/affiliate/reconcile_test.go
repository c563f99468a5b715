package affiliate

import (
	"context"
	"testing"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileUseCase_ReconcileAccount_FixesDrift(t *testing.T) {
	// Arrange
	f := setup(t)
	account := f.createAccount(t, "rider-1")
	f.earn(t, account.AccountID, 300)
	require.NoError(t, f.db.Exec(
		"UPDATE affiliate_accounts SET total_points = total_points + 40 WHERE id = ?", account.AccountID,
	).Error)
	uc := NewReconcileUseCase(f.deps)

	// Act
	res, err := uc.ReconcileAccount(context.Background(), account.AccountID)

	// Assert
	require.NoError(t, err)
	assert.True(t, res.Drift)
	assert.Equal(t, int64(340), res.Before.TotalPoints)
	assert.Equal(t, int64(300), res.After.TotalPoints)
	assert.Contains(t, f.publisher.types(), affiliate.EventLedgerReconciled)

	again, err := uc.ReconcileAccount(context.Background(), account.AccountID)
	require.NoError(t, err)
	assert.False(t, again.Drift)
}

func TestReconcileUseCase_ReconcileAll(t *testing.T) {
	f := setup(t)
	ids := make([]string, 0, 3)
	for _, ext := range []string{"rider-1", "rider-2", "rider-3"} {
		a := f.createAccount(t, ext)
		f.earn(t, a.AccountID, 100)
		ids = append(ids, a.AccountID)
	}
	require.NoError(t, f.db.Exec(
		"UPDATE affiliate_accounts SET redeemed_points = 10 WHERE id = ?", ids[1],
	).Error)

	report, err := NewReconcileUseCase(f.deps).ReconcileAll(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, report.Corrected, 1)
	assert.Equal(t, ids[1], report.Corrected[0].AccountID)
	assert.Equal(t, int64(0), report.Corrected[0].After.RedeemedPoints)
}

func TestReconcileUseCase_ReconcileAccount_NotFound(t *testing.T) {
	f := setup(t)

	_, err := NewReconcileUseCase(f.deps).ReconcileAccount(context.Background(), affiliate.NewAccountID().String())

	assert.ErrorIs(t, err, affiliate.ErrAccountNotFound)
}
