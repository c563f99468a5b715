package partner

import (
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/partner"
	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/gormtx"
	"github.com/shopspring/decimal"
)

// ===========================
// GORM models
// ===========================

// 儲存格式：
//   - 費率、基準金額、百分比以 decimal 文字儲存
//   - 加總用的金額欄位以 int64 分儲存（centsOf 檢查範圍）

// PartnerModel maps partners.
type PartnerModel struct {
	ID                 string              `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Number             string              `gorm:"column:partner_number;type:varchar(20);uniqueIndex;not null" json:"partner_number"`
	Name               string              `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email              string              `gorm:"column:email;type:varchar(255);not null" json:"email"`
	Phone              *string             `gorm:"column:phone;type:varchar(20)" json:"phone"`
	UserID             *string             `gorm:"column:user_id;type:varchar(128);index" json:"user_id"`
	PayoutAccountID    *string             `gorm:"column:payout_account_id;type:varchar(128)" json:"payout_account_id"`
	FirstSaleRate      decimal.NullDecimal `gorm:"column:first_sale_rate;type:varchar(32)" json:"first_sale_rate"`
	RecurringRate      decimal.NullDecimal `gorm:"column:recurring_rate;type:varchar(32)" json:"recurring_rate"`
	ShopRate           decimal.NullDecimal `gorm:"column:shop_rate;type:varchar(32)" json:"shop_rate"`
	CommissionType     string              `gorm:"column:commission_type;type:varchar(16);not null" json:"commission_type"`
	TotalEarningsCents int64               `gorm:"column:total_earnings_cents;not null;default:0;check:chk_partners_total_earnings,total_earnings_cents >= 0" json:"total_earnings_cents"`
	Version            int                 `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt          time.Time           `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (PartnerModel) TableName() string {
	return "partners"
}

// CommissionModel maps partner_commissions. payout_id is set exactly when the
// status is INCLUDED or PAID. (partner_id, event_ref) is unique; NULL refs
// never collide.
type CommissionModel struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	PartnerID   string          `gorm:"column:partner_id;type:varchar(36);not null;index:idx_partner_commissions_partner_status,priority:1;uniqueIndex:idx_partner_commissions_event_ref,priority:1" json:"partner_id"`
	Type        string          `gorm:"column:commission_type;type:varchar(16);not null" json:"commission_type"`
	BaseAmount  decimal.Decimal `gorm:"column:base_amount;type:varchar(32);not null" json:"base_amount"`
	Rate        decimal.Decimal `gorm:"column:rate;type:varchar(32);not null" json:"rate"`
	AmountCents int64           `gorm:"column:amount_cents;not null;check:chk_partner_commissions_amount,amount_cents >= 0" json:"amount_cents"`
	Status      string          `gorm:"column:status;type:varchar(16);not null;index:idx_partner_commissions_partner_status,priority:2" json:"status"`
	PayoutID    *string         `gorm:"column:payout_id;type:varchar(36);index" json:"payout_id"`
	LeadRef     *string         `gorm:"column:lead_ref;type:varchar(128)" json:"lead_ref"`
	EventRef    *string         `gorm:"column:event_ref;type:varchar(128);uniqueIndex:idx_partner_commissions_event_ref,priority:2" json:"event_ref"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null" json:"created_at"`
	PaidAt      *time.Time      `gorm:"column:paid_at" json:"paid_at"`
}

func (CommissionModel) TableName() string {
	return "partner_commissions"
}

// CancellationModel maps commission_cancellations; one per voided commission.
type CancellationModel struct {
	ID           string    `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	CommissionID string    `gorm:"column:commission_id;type:varchar(36);uniqueIndex;not null" json:"commission_id"`
	PartnerID    string    `gorm:"column:partner_id;type:varchar(36);index;not null" json:"partner_id"`
	AmountCents  int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Reason       string    `gorm:"column:reason;type:varchar(255)" json:"reason"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (CancellationModel) TableName() string {
	return "commission_cancellations"
}

// PayoutModel maps partner_payouts. The commission list is not stored here;
// it is the set of partner_commissions rows pointing at the payout.
type PayoutModel struct {
	ID          string     `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	PartnerID   string     `gorm:"column:partner_id;type:varchar(36);index;not null" json:"partner_id"`
	Number      string     `gorm:"column:payout_number;type:varchar(20);uniqueIndex;not null" json:"payout_number"`
	AmountCents int64      `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Currency    string     `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Status      string     `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Version     int        `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	PaidAt      *time.Time `gorm:"column:paid_at" json:"paid_at"`
}

func (PayoutModel) TableName() string {
	return "partner_payouts"
}

// SequenceModel backs partner numbering with a portable counter row.
type SequenceModel struct {
	Name  string `gorm:"column:name;type:varchar(64);primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (SequenceModel) TableName() string {
	return "id_sequences"
}

// Models lists every table of this package for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&PartnerModel{},
		&CommissionModel{},
		&CancellationModel{},
		&PayoutModel{},
		&SequenceModel{},
	}
}

// ===========================
// Mappers
// ===========================

func (m *PartnerModel) toDomain() (*partner.Partner, error) {
	id, err := partner.PartnerIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	ctype, err := partner.ParseCommissionType(m.CommissionType)
	if err != nil {
		return nil, err
	}
	phone := ""
	if m.Phone != nil {
		phone = *m.Phone
	}
	return partner.ReconstructPartner(partner.PartnerSnapshot{
		ID:               id,
		Number:           m.Number,
		Name:             m.Name,
		Email:            m.Email,
		Phone:            phone,
		UserRef:          shared.RefFromPointer(m.UserID),
		PayoutAccountRef: shared.RefFromPointer(m.PayoutAccountID),
		Rates: partner.CommissionRates{
			FirstSale: m.FirstSaleRate,
			Recurring: m.RecurringRate,
			Shop:      m.ShopRate,
		},
		CommissionType: ctype,
		TotalEarnings:  gormtx.FromCents(m.TotalEarningsCents),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	})
}

func partnerToModel(p *partner.Partner) (*PartnerModel, error) {
	earnings, err := centsOf(p.TotalEarnings(), "partner_id", p.ID().String())
	if err != nil {
		return nil, err
	}
	var phone *string
	if !p.Phone().IsZero() {
		s := p.Phone().String()
		phone = &s
	}
	rates := p.Rates()
	return &PartnerModel{
		ID:                 p.ID().String(),
		Number:             p.Number(),
		Name:               p.Name(),
		Email:              p.Email(),
		Phone:              phone,
		UserID:             p.UserRef().Pointer(),
		PayoutAccountID:    p.PayoutAccountRef().Pointer(),
		FirstSaleRate:      rates.FirstSale,
		RecurringRate:      rates.Recurring,
		ShopRate:           rates.Shop,
		CommissionType:     p.CommissionType().String(),
		TotalEarningsCents: earnings,
		Version:            p.Version(),
		CreatedAt:          p.CreatedAt(),
		UpdatedAt:          p.UpdatedAt(),
	}, nil
}

func (m *CommissionModel) toDomain() (*partner.Commission, error) {
	id, err := partner.CommissionIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	partnerID, err := partner.PartnerIDFromString(m.PartnerID)
	if err != nil {
		return nil, err
	}
	ctype, err := partner.ParseCommissionType(m.Type)
	if err != nil {
		return nil, err
	}
	status, err := partner.ParseCommissionStatus(m.Status)
	if err != nil {
		return nil, err
	}
	payoutRef := shared.Unlinked[partner.PayoutID]()
	if m.PayoutID != nil {
		payoutID, err := partner.PayoutIDFromString(*m.PayoutID)
		if err != nil {
			return nil, err
		}
		payoutRef = shared.Linked(payoutID)
	}
	var paidAt time.Time
	if m.PaidAt != nil {
		paidAt = m.PaidAt.UTC()
	}
	return partner.ReconstructCommission(partner.CommissionSnapshot{
		ID:         id,
		PartnerID:  partnerID,
		Type:       ctype,
		BaseAmount: m.BaseAmount,
		Rate:       m.Rate,
		Amount:     gormtx.FromCents(m.AmountCents),
		Status:     status,
		PayoutRef:  payoutRef,
		LeadRef:    shared.RefFromPointer(m.LeadRef),
		EventRef:   shared.RefFromPointer(m.EventRef),
		CreatedAt:  m.CreatedAt.UTC(),
		PaidAt:     paidAt,
	})
}

func commissionToModel(c *partner.Commission) (*CommissionModel, error) {
	amount, err := centsOf(c.Amount(), "commission_id", c.ID().String())
	if err != nil {
		return nil, err
	}
	var payoutID *string
	if id, ok := c.PayoutRef().Get(); ok {
		s := id.String()
		payoutID = &s
	}
	return &CommissionModel{
		ID:          c.ID().String(),
		PartnerID:   c.PartnerID().String(),
		Type:        c.Type().String(),
		BaseAmount:  c.BaseAmount(),
		Rate:        c.Rate(),
		AmountCents: amount,
		Status:      string(c.Status()),
		PayoutID:    payoutID,
		LeadRef:     c.LeadRef().Pointer(),
		EventRef:    c.EventRef().Pointer(),
		CreatedAt:   c.CreatedAt(),
		PaidAt:      timePtr(c.PaidAt()),
	}, nil
}

func cancellationToModel(c *partner.CommissionCancellation) (*CancellationModel, error) {
	amount, err := centsOf(c.Amount(), "commission_id", c.CommissionID().String())
	if err != nil {
		return nil, err
	}
	return &CancellationModel{
		ID:           c.ID().String(),
		CommissionID: c.CommissionID().String(),
		PartnerID:    c.PartnerID().String(),
		AmountCents:  amount,
		Reason:       c.Reason(),
		CreatedAt:    c.CreatedAt(),
	}, nil
}

func (m *CancellationModel) toDomain() (*partner.CommissionCancellation, error) {
	id, err := partner.CancellationIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	commissionID, err := partner.CommissionIDFromString(m.CommissionID)
	if err != nil {
		return nil, err
	}
	partnerID, err := partner.PartnerIDFromString(m.PartnerID)
	if err != nil {
		return nil, err
	}
	return partner.ReconstructCancellation(id, commissionID, partnerID, gormtx.FromCents(m.AmountCents), m.Reason, m.CreatedAt.UTC()), nil
}

func (m *PayoutModel) toDomain(commissionIDs []string) (*partner.Payout, error) {
	id, err := partner.PayoutIDFromString(m.ID)
	if err != nil {
		return nil, err
	}
	partnerID, err := partner.PartnerIDFromString(m.PartnerID)
	if err != nil {
		return nil, err
	}
	status, err := partner.ParsePayoutStatus(m.Status)
	if err != nil {
		return nil, err
	}
	ids := make([]partner.CommissionID, 0, len(commissionIDs))
	for _, s := range commissionIDs {
		cid, err := partner.CommissionIDFromString(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, cid)
	}
	var paidAt time.Time
	if m.PaidAt != nil {
		paidAt = m.PaidAt.UTC()
	}
	return partner.ReconstructPayout(partner.PayoutSnapshot{
		ID:            id,
		PartnerID:     partnerID,
		Number:        m.Number,
		Amount:        gormtx.FromCents(m.AmountCents),
		Currency:      m.Currency,
		Status:        status,
		CommissionIDs: ids,
		CreatedAt:     m.CreatedAt.UTC(),
		PaidAt:        paidAt,
		Version:       m.Version,
	})
}

func payoutToModel(p *partner.Payout) (*PayoutModel, error) {
	amount, err := centsOf(p.Amount(), "payout_id", p.ID().String())
	if err != nil {
		return nil, err
	}
	return &PayoutModel{
		ID:          p.ID().String(),
		PartnerID:   p.PartnerID().String(),
		Number:      p.Number(),
		AmountCents: amount,
		Currency:    p.Currency(),
		Status:      string(p.Status()),
		Version:     p.Version(),
		CreatedAt:   p.CreatedAt(),
		PaidAt:      timePtr(p.PaidAt()),
	}, nil
}

// centsOf refuses amounts the cents columns cannot hold.
func centsOf(d decimal.Decimal, key, id string) (int64, error) {
	cents, err := gormtx.ToCents(d)
	if err != nil {
		return 0, partner.ErrInvalidBaseAmount.WithContext(key, id, "amount", d.String(), "reason", "out of storage range")
	}
	return cents, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
