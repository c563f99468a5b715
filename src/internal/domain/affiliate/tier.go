package affiliate

// ===========================
// Tier / eligibility evaluation
// ===========================

// Tier is a named reward bracket.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// TierThreshold is one row of the threshold table. An account qualifies when
// it meets both cutoffs.
type TierThreshold struct {
	Tier         Tier
	MinPoints    int64
	MinReferrals int
}

// TierPolicy holds the tunable thresholds used to derive tier and partner
// eligibility. Results are always recomputed from counters, never stored.
type TierPolicy struct {
	thresholds               []TierThreshold
	partnerMinReferrals      int
	partnerMinProConversions int
}

// NewTierPolicy validates the table:
//   - at least one row
//   - the first row has zero cutoffs so every account has a tier
//   - cutoffs never decrease from one row to the next
//   - eligibility minimums are positive
func NewTierPolicy(thresholds []TierThreshold, partnerMinReferrals, partnerMinProConversions int) (TierPolicy, error) {
	if len(thresholds) == 0 {
		return TierPolicy{}, ErrInvalidTierPolicy.WithContext("reason", "threshold table is empty")
	}
	if thresholds[0].MinPoints != 0 || thresholds[0].MinReferrals != 0 {
		return TierPolicy{}, ErrInvalidTierPolicy.WithContext("reason", "first tier must have zero cutoffs", "tier", string(thresholds[0].Tier))
	}

	seen := make(map[Tier]bool, len(thresholds))
	for i, th := range thresholds {
		if th.Tier == "" {
			return TierPolicy{}, ErrInvalidTierPolicy.WithContext("reason", "tier name is empty", "index", i)
		}
		if seen[th.Tier] {
			return TierPolicy{}, ErrInvalidTierPolicy.WithContext("reason", "duplicate tier", "tier", string(th.Tier))
		}
		seen[th.Tier] = true

		if i == 0 {
			continue
		}
		prev := thresholds[i-1]
		if th.MinPoints < prev.MinPoints || th.MinReferrals < prev.MinReferrals {
			return TierPolicy{}, ErrInvalidTierPolicy.WithContext("reason", "cutoffs must be ascending", "tier", string(th.Tier))
		}
	}

	if partnerMinReferrals <= 0 || partnerMinProConversions <= 0 {
		return TierPolicy{}, ErrInvalidTierPolicy.WithContext(
			"reason", "partner eligibility minimums must be positive",
			"min_referrals", partnerMinReferrals,
			"min_pro_conversions", partnerMinProConversions,
		)
	}

	table := make([]TierThreshold, len(thresholds))
	copy(table, thresholds)

	return TierPolicy{
		thresholds:               table,
		partnerMinReferrals:      partnerMinReferrals,
		partnerMinProConversions: partnerMinProConversions,
	}, nil
}

// DefaultTierThresholds is the table used when configuration provides none.
func DefaultTierThresholds() []TierThreshold {
	return []TierThreshold{
		{Tier: TierBronze, MinPoints: 0, MinReferrals: 0},
		{Tier: TierSilver, MinPoints: 1000, MinReferrals: 3},
		{Tier: TierGold, MinPoints: 5000, MinReferrals: 10},
		{Tier: TierPlatinum, MinPoints: 15000, MinReferrals: 25},
	}
}

// DefaultTierPolicy uses DefaultTierThresholds with partner eligibility at
// 10 successful referrals or 3 pro conversions.
func DefaultTierPolicy() TierPolicy {
	p, err := NewTierPolicy(DefaultTierThresholds(), 10, 3)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether p was not built by NewTierPolicy.
func (p TierPolicy) IsZero() bool {
	return len(p.thresholds) == 0
}

// Evaluate returns the highest tier whose cutoffs are met. A zero policy has
// no tiers and yields "".
func (p TierPolicy) Evaluate(totalPoints int64, successfulReferrals int) Tier {
	if p.IsZero() {
		return ""
	}
	tier := p.thresholds[0].Tier
	for _, th := range p.thresholds[1:] {
		if totalPoints >= th.MinPoints && successfulReferrals >= th.MinReferrals {
			tier = th.Tier
		}
	}
	return tier
}

// PartnerEligible reports whether either eligibility minimum is reached.
// Nobody is eligible under a zero policy.
func (p TierPolicy) PartnerEligible(successfulReferrals, proConversions int) bool {
	if p.IsZero() {
		return false
	}
	return successfulReferrals >= p.partnerMinReferrals || proConversions >= p.partnerMinProConversions
}

// Thresholds returns a copy of the table.
func (p TierPolicy) Thresholds() []TierThreshold {
	out := make([]TierThreshold, len(p.thresholds))
	copy(out, p.thresholds)
	return out
}
