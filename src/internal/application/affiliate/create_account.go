package affiliate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
)

// CreateAccountCommand links an external identity to a new affiliate account.
type CreateAccountCommand struct {
	ExternalUserID string
	UserRef        string // optional platform user id
}

// CreateAccountResult reports whether the account was created by this call.
type CreateAccountResult struct {
	Account *AccountResult
	Created bool
}

// CreateAccountUseCase creates the account on first link. Linking an
// identity that already has an account returns it unchanged.
type CreateAccountUseCase struct {
	deps Dependencies
}

func NewCreateAccountUseCase(deps Dependencies) *CreateAccountUseCase {
	return &CreateAccountUseCase{deps: deps}
}

// Execute generates an MR- code and inserts the account. A code collision
// on the unique index mints a new code, up to CodeAttempts times.
func (uc *CreateAccountUseCase) Execute(ctx context.Context, cmd CreateAccountCommand) (*CreateAccountResult, error) {
	externalID := strings.TrimSpace(cmd.ExternalUserID)
	userRef := shared.Unlinked[string]()
	if ref := strings.TrimSpace(cmd.UserRef); ref != "" {
		userRef = shared.Linked(ref)
	}

	var account *affiliate.AffiliateAccount
	err := uow.Retry(ctx, uc.deps.CodeAttempts, func(ctx context.Context) error {
		a, err := affiliate.NewAffiliateAccount(externalID, userRef, uc.deps.generateCode())
		if err != nil {
			return err
		}
		if err := uc.deps.Runner.Run(ctx, func(tx shared.TransactionContext) error {
			return uc.deps.Accounts.Save(tx, a)
		}); err != nil {
			return err
		}
		account = a
		return nil
	}, affiliate.ErrCodeTaken)

	switch {
	case errors.Is(err, affiliate.ErrAccountAlreadyExists):
		existing, findErr := uc.deps.Accounts.FindByExternalUserID(nil, externalID)
		if findErr != nil {
			return nil, fmt.Errorf("failed to load existing account: %w", findErr)
		}
		return &CreateAccountResult{Account: newAccountResult(existing, uc.deps.Policy)}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to create affiliate account: %w", err)
	}

	uc.deps.Dispatcher.Publish(ctx, "create_account", account.PullEvents())
	return &CreateAccountResult{Account: newAccountResult(account, uc.deps.Policy), Created: true}, nil
}
