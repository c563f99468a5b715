package affiliate

import (
	"fmt"

	"github.com/fortyseven/affiliate_ledger/src/internal/application/uow"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/affiliate"
)

// Rewards is the number of points credited per referral event.
type Rewards struct {
	ReferralSignup   affiliate.PointsAmount
	ReferralPurchase affiliate.PointsAmount
	ProConversion    affiliate.PointsAmount
}

// NewRewards validates the configured point values.
func NewRewards(signup, purchase, proConversion int64) (Rewards, error) {
	s, err := affiliate.NewPointsAmount(signup)
	if err != nil {
		return Rewards{}, fmt.Errorf("referral signup reward: %w", err)
	}
	p, err := affiliate.NewPointsAmount(purchase)
	if err != nil {
		return Rewards{}, fmt.Errorf("referral purchase reward: %w", err)
	}
	c, err := affiliate.NewPointsAmount(proConversion)
	if err != nil {
		return Rewards{}, fmt.Errorf("pro conversion reward: %w", err)
	}
	return Rewards{ReferralSignup: s, ReferralPurchase: p, ProConversion: c}, nil
}

// Dependencies groups the collaborators shared by the affiliate use cases.
type Dependencies struct {
	Accounts     affiliate.AccountRepository
	Transactions affiliate.TransactionRepository
	Runner       *uow.Runner
	Dispatcher   *uow.Dispatcher
	Policy       affiliate.TierPolicy
	Rewards      Rewards

	// CodeAttempts bounds the generate-and-insert loop of CreateAccount.
	CodeAttempts int
	// GenerateCode defaults to affiliate.GenerateCode.
	GenerateCode func() string
}

func (d Dependencies) generateCode() string {
	if d.GenerateCode != nil {
		return d.GenerateCode()
	}
	return affiliate.GenerateCode()
}
