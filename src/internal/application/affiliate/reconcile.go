package affiliate

import (
	"context"
	"fmt"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"go.uber.org/multierr"
)

const defaultReconcileBatch = 200

// Counters is a snapshot of the ledger-derived account fields.
type Counters struct {
	TotalPoints    int64  `json:"total_points"`
	RedeemedPoints int64  `json:"redeemed_points"`
	TotalEarnings  string `json:"total_earnings"`
}

// ReconcileResult reports the counters before and after a reconciliation.
// Drift is true when the stored counters disagreed with the log.
type ReconcileResult struct {
	AccountID string   `json:"account_id"`
	Drift     bool     `json:"drift"`
	Before    Counters `json:"before"`
	After     Counters `json:"after"`
}

// ReconcileReport summarises a ReconcileAll run.
type ReconcileReport struct {
	Checked   int
	Corrected []ReconcileResult
	Failed    int
}

// ReconcileUseCase recomputes totalPoints, redeemedPoints and totalEarnings
// from the transaction log and overwrites drifted counters.
type ReconcileUseCase struct {
	deps Dependencies
}

func NewReconcileUseCase(deps Dependencies) *ReconcileUseCase {
	return &ReconcileUseCase{deps: deps}
}

// ReconcileAccount reconciles one account.
func (uc *ReconcileUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconcileResult, error) {
	id, err := affiliate.AccountIDFromString(accountID)
	if err != nil {
		return nil, err
	}
	return uc.reconcile(ctx, id)
}

func (uc *ReconcileUseCase) reconcile(ctx context.Context, id affiliate.AccountID) (*ReconcileResult, error) {
	var (
		result *ReconcileResult
		events []shared.DomainEvent
	)
	err := uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		events = nil
		account, err := uc.deps.Accounts.FindByID(tx, id)
		if err != nil {
			return err
		}
		totals, err := uc.deps.Transactions.Totals(tx, id)
		if err != nil {
			return err
		}

		before := countersOf(account)
		changed, err := account.Reconcile(totals)
		if err != nil {
			return err
		}
		if changed {
			if err := uc.deps.Accounts.Update(tx, account); err != nil {
				return err
			}
			events = account.PullEvents()
		}
		result = &ReconcileResult{
			AccountID: id.String(),
			Drift:     changed,
			Before:    before,
			After:     countersOf(account),
		}
		return nil
	}, affiliate.ErrConcurrentModification)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile account %s: %w", id, err)
	}

	uc.deps.Dispatcher.Publish(ctx, "reconcile", events)
	return result, nil
}

// ReconcileAll walks every account in id order, batchSize at a time. A
// failing account does not stop the run; the failures are combined into
// the returned error.
func (uc *ReconcileUseCase) ReconcileAll(ctx context.Context, batchSize int) (*ReconcileReport, error) {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatch
	}

	report := &ReconcileReport{}
	var errs error
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, multierr.Append(errs, err)
		}
		ids, err := uc.deps.Accounts.ListIDsAfter(nil, after, batchSize)
		if err != nil {
			return report, multierr.Append(errs, fmt.Errorf("failed to list accounts: %w", err))
		}
		for _, id := range ids {
			report.Checked++
			result, err := uc.reconcile(ctx, id)
			if err != nil {
				report.Failed++
				errs = multierr.Append(errs, err)
				continue
			}
			if result.Drift {
				report.Corrected = append(report.Corrected, *result)
			}
		}
		if len(ids) < batchSize {
			return report, errs
		}
		after = ids[len(ids)-1].String()
	}
}

func countersOf(a *affiliate.AffiliateAccount) Counters {
	return Counters{
		TotalPoints:    a.TotalPoints(),
		RedeemedPoints: a.RedeemedPoints(),
		TotalEarnings:  a.TotalEarnings().StringFixed(2),
	}
}
