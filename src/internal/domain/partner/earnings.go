package partner

import "github.com/shopspring/decimal"

// Earnings compares the stored aggregate with the value recomputed from
// commission rows, broken down by status. Voided commissions are excluded.
type Earnings struct {
	PartnerID  PartnerID
	Stored     decimal.Decimal
	Recomputed decimal.Decimal
	Pending    decimal.Decimal
	Included   decimal.Decimal
	Paid       decimal.Decimal
}

// Consistent reports whether the stored aggregate matches the commission rows.
func (e Earnings) Consistent() bool {
	return e.Stored.Equal(e.Recomputed)
}

// EarningsByStatus is the per-status sum returned by storage.
type EarningsByStatus map[CommissionStatus]decimal.Decimal

// Total sums every non-voided status.
func (s EarningsByStatus) Total() decimal.Decimal {
	total := decimal.Zero
	for status, amount := range s {
		if status == CommissionVoided {
			continue
		}
		total = total.Add(amount)
	}
	return total
}

func (s EarningsByStatus) of(status CommissionStatus) decimal.Decimal {
	if v, ok := s[status]; ok {
		return v
	}
	return decimal.Zero
}

// NewEarnings assembles the read model for p.
func NewEarnings(p *Partner, byStatus EarningsByStatus) Earnings {
	return Earnings{
		PartnerID:  p.ID(),
		Stored:     p.TotalEarnings(),
		Recomputed: byStatus.Total(),
		Pending:    byStatus.of(CommissionPending),
		Included:   byStatus.of(CommissionIncluded),
		Paid:       byStatus.of(CommissionPaid),
	}
}
