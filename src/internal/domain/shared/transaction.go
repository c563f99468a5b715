package shared

import "context"

// TransactionContext is an opaque handle to an open unit of work.
//
// Repository contract:
//   - writes (Save, Update, Claim...) require a non-nil TransactionContext
//   - reads accept nil, in which case they run in auto-commit mode against
//     the default connection
//
// The handle exposes no methods; infrastructure type-asserts it back to its
// own implementation so the domain never sees *gorm.DB.
//
//	txManager.InTransaction(ctx, func(tx TransactionContext) error {
//	    account, err := repo.FindByID(tx, accountID)
//	    if err != nil {
//	        return err
//	    }
//	    if _, err := account.EarnPoints(amount, category, reason, eventRef); err != nil {
//	        return err
//	    }
//	    return repo.Update(tx, account)
//	})
type TransactionContext interface{}

// TransactionManager runs fn inside a single database transaction. Returning
// an error (or panicking) rolls back; returning nil commits.
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(tx TransactionContext) error) error
}
