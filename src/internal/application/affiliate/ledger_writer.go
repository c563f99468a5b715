package affiliate

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/notification"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

type accountLookup func(tx shared.TransactionContext) (*affiliate.AffiliateAccount, error)

type accountChange func(a *affiliate.AffiliateAccount) (*affiliate.PointTransaction, error)

// ledgerWriter runs the read-modify-write cycle shared by every ledger
// command:
//  1. load the account inside a transaction
//  2. short-circuit if eventRef was already recorded
//  3. apply the change, append the entry, write the counters under the version guard
//  4. after commit, publish events and notify
//
// A version conflict or a concurrent insert of the same eventRef replays the
// whole cycle; the replay then sees the winner's state.
type ledgerWriter struct {
	deps Dependencies
}

func (w ledgerWriter) apply(ctx context.Context, op string, lookup accountLookup, eventRef string, change accountChange) (*LedgerResult, error) {
	var (
		account   *affiliate.AffiliateAccount
		entry     *affiliate.PointTransaction
		duplicate bool
		before    affiliate.Tier
		events    []shared.DomainEvent
	)

	err := w.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		account, entry, duplicate, events = nil, nil, false, nil

		a, err := lookup(tx)
		if err != nil {
			return err
		}
		if eventRef != "" {
			existing, err := w.deps.Transactions.FindByEventRef(tx, a.ID(), eventRef)
			if err == nil {
				account, entry, duplicate = a, existing, true
				return nil
			}
			if !errors.Is(err, affiliate.ErrTransactionNotFound) {
				return fmt.Errorf("failed to check event ref: %w", err)
			}
		}

		before = w.deps.Policy.Evaluate(a.TotalPoints(), a.SuccessfulReferrals())
		e, err := change(a)
		if err != nil {
			return err
		}
		if err := w.deps.Transactions.Append(tx, e); err != nil {
			return err
		}
		if err := w.deps.Accounts.Update(tx, a); err != nil {
			return err
		}
		account, entry, events = a, e, a.PullEvents()
		return nil
	}, affiliate.ErrConcurrentModification, affiliate.ErrDuplicateEvent)
	if err != nil {
		return nil, err
	}

	result := &LedgerResult{
		Transaction: newTransactionResult(entry),
		Account:     newAccountResult(account, w.deps.Policy),
		Duplicate:   duplicate,
	}
	if duplicate {
		return result, nil
	}

	w.deps.Dispatcher.Publish(ctx, op, events)
	w.deps.Dispatcher.Notify(ctx, op, w.messages(account, entry, before)...)
	return result, nil
}

func (w ledgerWriter) messages(a *affiliate.AffiliateAccount, entry *affiliate.PointTransaction, before affiliate.Tier) []notification.Message {
	recipient := notification.Recipient{ExternalUserID: a.ExternalUserID()}
	var msgs []notification.Message

	if entry.IsRedemption() {
		msgs = append(msgs, notification.Message{
			Kind:      notification.KindPointsRedeemed,
			Recipient: recipient,
			Subject:   "Points redeemed",
			Body:      fmt.Sprintf("You redeemed %d points. %d points remain available.", -entry.Amount(), a.AvailablePoints()),
			Data: map[string]string{
				"account_id":     a.ID().String(),
				"transaction_id": entry.ID().String(),
			},
		})
	}

	after := w.deps.Policy.Evaluate(a.TotalPoints(), a.SuccessfulReferrals())
	if after != before {
		msgs = append(msgs, notification.Message{
			Kind:      notification.KindTierChanged,
			Recipient: recipient,
			Subject:   "Your affiliate tier changed",
			Body:      fmt.Sprintf("Your tier moved from %s to %s.", before, after),
			Data: map[string]string{
				"account_id":    a.ID().String(),
				"previous_tier": string(before),
				"tier":          string(after),
			},
		})
	}
	return msgs
}

func byAccountID(repo affiliate.AccountRepository, id affiliate.AccountID) accountLookup {
	return func(tx shared.TransactionContext) (*affiliate.AffiliateAccount, error) {
		return repo.FindByID(tx, id)
	}
}

func byCode(repo affiliate.AccountRepository, code string) accountLookup {
	normalized := affiliate.NormalizeCode(code)
	return func(tx shared.TransactionContext) (*affiliate.AffiliateAccount, error) {
		return repo.FindByCode(tx, normalized)
	}
}

func refOf(eventRef string) shared.Ref[string] {
	if eventRef == "" {
		return shared.Unlinked[string]()
	}
	return shared.Linked(eventRef)
}
