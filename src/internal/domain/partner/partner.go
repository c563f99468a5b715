package partner

import (
	"strings"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// Partner aggregate root
// ===========================

// Partner 合作夥伴聚合根（領取現金佣金的商家）
//
// 設計原則：
//  1. 佣金是獨立實體，不放在聚合內；Partner 只持有彙總值
//  2. totalEarnings 只在 EarnCommission 與 VoidCommission 中變動，
//     呼叫端須與佣金列在同一交易內寫入
//  3. 以版本號做樂觀鎖，衝突時由 uow.Runner 重放整個工作單元
//
// 業務不變條件：
//   - totalEarnings = 所有未作廢佣金金額之和
//   - 0 <= totalEarnings <= MaxTotalEarnings
type Partner struct {
	id               PartnerID
	number           string
	name             string
	email            string
	phone            PhoneNumber
	userRef          shared.Ref[string]
	payoutAccountRef shared.Ref[string]
	rates            CommissionRates
	commissionType   CommissionType
	totalEarnings    decimal.Decimal
	version          int
	createdAt        time.Time
	updatedAt        time.Time

	events []shared.DomainEvent
}

// NewPartnerParams groups the inputs of NewPartner.
type NewPartnerParams struct {
	Number           string
	Name             string
	Email            string
	Phone            string
	UserRef          shared.Ref[string]
	PayoutAccountRef shared.Ref[string]
	Rates            CommissionRates
	// CommissionType applies to lead conversions; FIRST_SALE when empty.
	CommissionType CommissionType
}

// NewPartner validates params and creates a partner with zero earnings.
func NewPartner(p NewPartnerParams) (*Partner, error) {
	if !ValidatePartnerNumber(p.Number) {
		return nil, ErrInvalidPartner.WithContext("partner_number", p.Number, "reason", "malformed partner number")
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, ErrInvalidPartner.WithContext("reason", "name is required")
	}
	email, err := normalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}
	var phone PhoneNumber
	if strings.TrimSpace(p.Phone) != "" {
		if phone, err = NewPhoneNumber(p.Phone); err != nil {
			return nil, err
		}
	}
	if err := p.Rates.Validate(); err != nil {
		return nil, err
	}
	ctype := p.CommissionType
	if ctype == "" {
		ctype = CommissionFirstSale
	}
	if ctype == CommissionShop {
		return nil, ErrInvalidCommissionType.WithContext("type", string(ctype), "reason", "lead commissions use FIRST_SALE or RECURRING")
	}
	if _, err := ParseCommissionType(string(ctype)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	partner := &Partner{
		id:               NewPartnerID(),
		number:           p.Number,
		name:             name,
		email:            email,
		phone:            phone,
		userRef:          p.UserRef,
		payoutAccountRef: p.PayoutAccountRef,
		rates:            p.Rates,
		commissionType:   ctype,
		totalEarnings:    decimal.Zero,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}
	partner.events = append(partner.events, &PartnerCreatedEvent{
		BaseEvent:     shared.NewBaseEvent(EventPartnerCreated, partner.id.String()),
		PartnerNumber: partner.number,
		Name:          partner.name,
	})
	return partner, nil
}

// PartnerSnapshot carries persisted state into ReconstructPartner.
type PartnerSnapshot struct {
	ID               PartnerID
	Number           string
	Name             string
	Email            string
	Phone            string
	UserRef          shared.Ref[string]
	PayoutAccountRef shared.Ref[string]
	Rates            CommissionRates
	CommissionType   CommissionType
	TotalEarnings    decimal.Decimal
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ReconstructPartner rebuilds a partner from storage.
func ReconstructPartner(s PartnerSnapshot) (*Partner, error) {
	if s.ID.IsEmpty() {
		return nil, ErrInvalidID.WithContext("reason", "empty partner id in storage")
	}
	if s.TotalEarnings.IsNegative() {
		return nil, ErrInvariantViolation.WithContext("partner_id", s.ID.String(), "total_earnings", s.TotalEarnings.String())
	}
	var phone PhoneNumber
	if s.Phone != "" {
		var err error
		if phone, err = NewPhoneNumber(s.Phone); err != nil {
			return nil, err
		}
	}
	return &Partner{
		id:               s.ID,
		number:           s.Number,
		name:             s.Name,
		email:            s.Email,
		phone:            phone,
		userRef:          s.UserRef,
		payoutAccountRef: s.PayoutAccountRef,
		rates:            s.Rates,
		commissionType:   s.CommissionType,
		totalEarnings:    s.TotalEarnings,
		version:          s.Version,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}, nil
}

func (p *Partner) ID() PartnerID {
	return p.id
}

func (p *Partner) Number() string {
	return p.number
}

func (p *Partner) Name() string {
	return p.name
}

func (p *Partner) Email() string {
	return p.email
}

func (p *Partner) Phone() PhoneNumber {
	return p.phone
}

func (p *Partner) UserRef() shared.Ref[string] {
	return p.userRef
}

// PayoutAccountRef is the payment-rail destination (a connected account id).
func (p *Partner) PayoutAccountRef() shared.Ref[string] {
	return p.payoutAccountRef
}

func (p *Partner) Rates() CommissionRates {
	return p.rates
}

func (p *Partner) CommissionType() CommissionType {
	return p.commissionType
}

func (p *Partner) TotalEarnings() decimal.Decimal {
	return p.totalEarnings
}

func (p *Partner) Version() int {
	return p.version
}

func (p *Partner) CreatedAt() time.Time {
	return p.createdAt
}

func (p *Partner) UpdatedAt() time.Time {
	return p.updatedAt
}

// AdvanceVersion is called by the repository after a versioned write.
func (p *Partner) AdvanceVersion() {
	p.version++
}

// PullEvents returns and clears the pending events.
func (p *Partner) PullEvents() []shared.DomainEvent {
	events := p.events
	p.events = nil
	return events
}

// EarnCommission records a PENDING commission for a qualifying event. An
// empty t means a lead conversion and uses the partner's commission type.
func (p *Partner) EarnCommission(t CommissionType, base decimal.Decimal, leadRef shared.Ref[string]) (*Commission, error) {
	return p.EarnCommissionForEvent(t, base, leadRef, shared.Unlinked[string]())
}

// EarnCommissionForEvent 為外部事件記錄一筆 PENDING 佣金
//
// 參數：
//   - t：佣金類型；空值代表名單成交，使用夥伴的預設類型
//   - base：計算基準金額（0 < base <= MaxBaseAmount）
//   - leadRef：可選的名單參考
//   - eventRef：外部事件參考；儲存層保證 (partner_id, event_ref) 唯一
//
// 返回：
//   - *Commission：待儲存的佣金
//   - error：ErrInvalidBaseAmount、ErrInvalidRate、ErrInvalidCommissionType
//
// 業務規則：
//   - 超過 MaxTotalEarnings 時拒絕，聚合保持原狀
func (p *Partner) EarnCommissionForEvent(t CommissionType, base decimal.Decimal, leadRef, eventRef shared.Ref[string]) (*Commission, error) {
	if t == "" {
		t = p.commissionType
	}
	rate, err := p.rates.RateFor(t)
	if err != nil {
		return nil, err
	}
	c, err := newCommission(p.id, t, base, rate, leadRef, eventRef)
	if err != nil {
		return nil, err
	}
	if total := p.totalEarnings.Add(c.Amount()); total.GreaterThan(MaxTotalEarnings) {
		return nil, ErrInvalidBaseAmount.WithContext(
			"partner_id", p.id.String(),
			"reason", "partner earnings limit reached",
			"max_total_earnings", MaxTotalEarnings.String(),
		)
	}

	p.totalEarnings = p.totalEarnings.Add(c.Amount())
	p.updatedAt = time.Now().UTC()
	p.events = append(p.events, &CommissionRecordedEvent{
		BaseEvent:    shared.NewBaseEvent(EventCommissionRecorded, p.id.String()),
		CommissionID: c.ID().String(),
		Type:         t,
		BaseAmount:   base,
		Rate:         c.Rate(),
		Amount:       c.Amount(),
	})
	return c, nil
}

// VoidCommission cancels one of this partner's PENDING commissions and takes
// its amount out of totalEarnings.
func (p *Partner) VoidCommission(c *Commission, reason string) (*CommissionCancellation, error) {
	if !c.PartnerID().Equals(p.id) {
		return nil, ErrCommissionNotEligible.WithContext("commission_id", c.ID().String(), "reason", "belongs to another partner")
	}
	if err := c.void(); err != nil {
		return nil, err
	}

	p.totalEarnings = p.totalEarnings.Sub(c.Amount())
	if p.totalEarnings.IsNegative() {
		// Only reachable with a corrupted aggregate.
		p.totalEarnings = decimal.Zero
	}
	now := time.Now().UTC()
	p.updatedAt = now

	cancellation := &CommissionCancellation{
		id:           NewCancellationID(),
		commissionID: c.ID(),
		partnerID:    p.id,
		amount:       c.Amount(),
		reason:       strings.TrimSpace(reason),
		createdAt:    now,
	}
	p.events = append(p.events, &CommissionVoidedEvent{
		BaseEvent:    shared.NewBaseEvent(EventCommissionVoided, p.id.String()),
		CommissionID: c.ID().String(),
		Amount:       c.Amount(),
		Reason:       cancellation.reason,
	})
	return cancellation, nil
}

// PayoutDestination returns the linked payout account or ErrNoPayoutAccount.
func (p *Partner) PayoutDestination() (string, error) {
	dest, ok := p.payoutAccountRef.Get()
	if !ok {
		return "", ErrNoPayoutAccount.WithContext("partner_id", p.id.String())
	}
	return dest, nil
}
