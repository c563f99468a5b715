package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// GetStatsQuery selects an account by exactly one of its identifiers.
type GetStatsQuery struct {
	AccountID      string
	ExternalUserID string
}

// GetStatsUseCase implements getStats.
type GetStatsUseCase struct {
	accounts affiliate.AccountRepository
	policy   affiliate.TierPolicy
}

func NewGetStatsUseCase(deps Dependencies) *GetStatsUseCase {
	return &GetStatsUseCase{accounts: deps.Accounts, policy: deps.Policy}
}

// Execute fails with ErrAccountNotFound when the account does not exist.
func (uc *GetStatsUseCase) Execute(ctx context.Context, q GetStatsQuery) (*AccountResult, error) {
	var (
		account *affiliate.AffiliateAccount
		err     error
	)
	switch {
	case q.AccountID != "":
		var id affiliate.AccountID
		if id, err = affiliate.AccountIDFromString(q.AccountID); err != nil {
			return nil, err
		}
		account, err = uc.accounts.FindByID(nil, id)
	case q.ExternalUserID != "":
		account, err = uc.accounts.FindByExternalUserID(nil, strings.TrimSpace(q.ExternalUserID))
	default:
		return nil, affiliate.ErrInvalidAccountID.WithContext("reason", "account id or external user id is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return newAccountResult(account, uc.policy), nil
}

// FindByCodeUseCase resolves a generated or custom code.
type FindByCodeUseCase struct {
	accounts affiliate.AccountRepository
	policy   affiliate.TierPolicy
}

func NewFindByCodeUseCase(deps Dependencies) *FindByCodeUseCase {
	return &FindByCodeUseCase{accounts: deps.Accounts, policy: deps.Policy}
}

// Execute normalizes code before the lookup.
func (uc *FindByCodeUseCase) Execute(ctx context.Context, code string) (*AccountResult, error) {
	normalized := affiliate.NormalizeCode(code)
	if normalized == "" {
		return nil, affiliate.ErrInvalidCode.WithContext("code", code)
	}
	account, err := uc.accounts.FindByCode(nil, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by code: %w", err)
	}
	return newAccountResult(account, uc.policy), nil
}

// SetCustomCodeCommand assigns a vanity code.
type SetCustomCodeCommand struct {
	AccountID string
	Code      string
}

// SetCustomCodeUseCase validates and stores a custom code. Uniqueness across
// generated and custom codes is enforced by storage (ErrCodeTaken).
type SetCustomCodeUseCase struct {
	deps Dependencies
}

func NewSetCustomCodeUseCase(deps Dependencies) *SetCustomCodeUseCase {
	return &SetCustomCodeUseCase{deps: deps}
}

func (uc *SetCustomCodeUseCase) Execute(ctx context.Context, cmd SetCustomCodeCommand) (*AccountResult, error) {
	accountID, err := affiliate.AccountIDFromString(cmd.AccountID)
	if err != nil {
		return nil, err
	}
	if err := affiliate.ValidateCustomCode(cmd.Code); err != nil {
		return nil, err
	}
	code := affiliate.NormalizeCode(cmd.Code)

	var account *affiliate.AffiliateAccount
	err = uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
		a, err := uc.deps.Accounts.FindByID(tx, accountID)
		if err != nil {
			return err
		}
		other, err := uc.deps.Accounts.FindByCode(tx, code)
		switch {
		case err == nil && !other.ID().Equals(a.ID()):
			return affiliate.ErrCodeTaken.WithContext("code", code)
		case err != nil && !errors.Is(err, affiliate.ErrAccountNotFound):
			return err
		}
		if err := a.SetCustomCode(code); err != nil {
			return err
		}
		if err := uc.deps.Accounts.Update(tx, a); err != nil {
			return err
		}
		account = a
		return nil
	}, affiliate.ErrConcurrentModification)
	if err != nil {
		return nil, fmt.Errorf("failed to set custom code: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "set_custom_code", account.PullEvents())
	return newAccountResult(account, uc.deps.Policy), nil
}
