package affiliate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ===========================
// AffiliateAccount aggregate root
// ===========================

// AffiliateAccount 推薦帳戶聚合根（每位使用者一個帳本頭）
//
// 設計原則：
//  1. 輕量級聚合：帳本明細不放在記憶體，儲存在獨立的 point_transactions 表
//  2. 每個修改方法回傳它產生的明細，由呼叫端在同一交易內 Append
//  3. 所有狀態變更都記錄領域事件，提交後由 Dispatcher 發布
//  4. 計數器在修改前檢查溢位，失敗時聚合保持原狀
//
// 業務不變條件：
//   - totalPoints 只增不減，且只經由獲得類明細增加
//   - redeemedPoints 只增不減，且只經由兌換明細增加
//   - redeemedPoints <= totalPoints（AvailablePoints 永不為負）
//   - totalEarnings <= MaxTotalEarnings
type AffiliateAccount struct {
	id             AccountID
	externalUserID string
	userRef        shared.Ref[string]
	code           string
	customCode     shared.Ref[string]

	totalPoints    int64
	redeemedPoints int64

	totalReferrals      int
	successfulReferrals int
	proConversions      int
	totalEarnings       decimal.Decimal

	version   int
	createdAt time.Time
	updatedAt time.Time

	events []shared.DomainEvent
}

// NewAffiliateAccount 為外部身份建立新帳戶
//
// 參數：
//   - externalUserID：外部使用者 ID（必填，會去除空白）
//   - userRef：可選的內部使用者連結
//   - code：新產生的 MR-XXXXXX 推薦碼
//
// 返回：
//   - *AffiliateAccount：新帳戶，計數器皆為 0
//   - error：ErrInvalidExternalUserID 或 ErrInvalidCode
func NewAffiliateAccount(externalUserID string, userRef shared.Ref[string], code string) (*AffiliateAccount, error) {
	externalUserID = strings.TrimSpace(externalUserID)
	if externalUserID == "" {
		return nil, ErrInvalidExternalUserID
	}
	code = NormalizeCode(code)
	if !ValidateCode(code) {
		return nil, ErrInvalidCode.WithContext("code", code)
	}

	now := time.Now().UTC()
	a := &AffiliateAccount{
		id:             NewAccountID(),
		externalUserID: externalUserID,
		userRef:        userRef,
		code:           code,
		customCode:     shared.Unlinked[string](),
		totalEarnings:  decimal.Zero,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}
	a.addEvent(newAccountCreatedEvent(a))
	return a, nil
}

// AccountSnapshot carries persisted state into ReconstructAffiliateAccount.
type AccountSnapshot struct {
	ID                  AccountID
	ExternalUserID      string
	UserRef             shared.Ref[string]
	Code                string
	CustomCode          shared.Ref[string]
	TotalPoints         int64
	RedeemedPoints      int64
	TotalReferrals      int
	SuccessfulReferrals int
	ProConversions      int
	TotalEarnings       decimal.Decimal
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReconstructAffiliateAccount rebuilds an aggregate from storage. Corrupted
// counters are rejected rather than loaded.
func ReconstructAffiliateAccount(s AccountSnapshot) (*AffiliateAccount, error) {
	if s.ID.IsEmpty() {
		return nil, ErrInvalidAccountID.WithContext("reason", "empty id in storage")
	}
	if s.TotalPoints < 0 || s.RedeemedPoints < 0 || s.RedeemedPoints > s.TotalPoints {
		return nil, ErrInvariantViolation.WithContext(
			"account_id", s.ID.String(),
			"total_points", s.TotalPoints,
			"redeemed_points", s.RedeemedPoints,
		)
	}
	if s.TotalReferrals < 0 || s.SuccessfulReferrals < 0 || s.ProConversions < 0 || s.TotalEarnings.IsNegative() {
		return nil, ErrInvariantViolation.WithContext(
			"account_id", s.ID.String(),
			"reason", "negative counter",
		)
	}

	return &AffiliateAccount{
		id:                  s.ID,
		externalUserID:      s.ExternalUserID,
		userRef:             s.UserRef,
		code:                s.Code,
		customCode:          s.CustomCode,
		totalPoints:         s.TotalPoints,
		redeemedPoints:      s.RedeemedPoints,
		totalReferrals:      s.TotalReferrals,
		successfulReferrals: s.SuccessfulReferrals,
		proConversions:      s.ProConversions,
		totalEarnings:       s.TotalEarnings,
		version:             s.Version,
		createdAt:           s.CreatedAt,
		updatedAt:           s.UpdatedAt,
	}, nil
}

// ===========================
// Getters
// ===========================

func (a *AffiliateAccount) ID() AccountID                  { return a.id }
func (a *AffiliateAccount) ExternalUserID() string         { return a.externalUserID }
func (a *AffiliateAccount) UserRef() shared.Ref[string]    { return a.userRef }
func (a *AffiliateAccount) Code() string                   { return a.code }
func (a *AffiliateAccount) CustomCode() shared.Ref[string] { return a.customCode }
func (a *AffiliateAccount) TotalPoints() int64             { return a.totalPoints }
func (a *AffiliateAccount) RedeemedPoints() int64          { return a.redeemedPoints }
func (a *AffiliateAccount) TotalReferrals() int            { return a.totalReferrals }
func (a *AffiliateAccount) SuccessfulReferrals() int       { return a.successfulReferrals }
func (a *AffiliateAccount) ProConversions() int            { return a.proConversions }
func (a *AffiliateAccount) TotalEarnings() decimal.Decimal { return a.totalEarnings }
func (a *AffiliateAccount) Version() int                   { return a.version }
func (a *AffiliateAccount) CreatedAt() time.Time           { return a.createdAt }
func (a *AffiliateAccount) UpdatedAt() time.Time           { return a.updatedAt }

// AvailablePoints is always derived: totalPoints - redeemedPoints.
func (a *AffiliateAccount) AvailablePoints() int64 {
	return a.totalPoints - a.redeemedPoints
}

// Stats evaluates tier and partner eligibility against policy.
func (a *AffiliateAccount) Stats(policy TierPolicy) AccountStats {
	return AccountStats{
		AccountID:           a.id,
		Code:                a.code,
		CustomCode:          a.customCode,
		TotalPoints:         a.totalPoints,
		AvailablePoints:     a.AvailablePoints(),
		RedeemedPoints:      a.redeemedPoints,
		TotalReferrals:      a.totalReferrals,
		SuccessfulReferrals: a.successfulReferrals,
		ProConversions:      a.proConversions,
		TotalEarnings:       a.totalEarnings,
		Tier:                policy.Evaluate(a.totalPoints, a.successfulReferrals),
		PartnerEligible:     policy.PartnerEligible(a.successfulReferrals, a.proConversions),
	}
}

// MatchesCode reports whether code (normalized) is this account's generated or
// custom code.
func (a *AffiliateAccount) MatchesCode(code string) bool {
	code = NormalizeCode(code)
	if code == a.code {
		return true
	}
	custom, ok := a.customCode.Get()
	return ok && custom == code
}

// ===========================
// Events
// ===========================

func (a *AffiliateAccount) addEvent(e shared.DomainEvent) {
	a.events = append(a.events, e)
}

// PullEvents returns and clears the pending events.
func (a *AffiliateAccount) PullEvents() []shared.DomainEvent {
	events := a.events
	a.events = nil
	return events
}

// AdvanceVersion is called by the repository after a successful versioned
// write so a second write in the same unit of work targets the new row version.
func (a *AffiliateAccount) AdvanceVersion() {
	a.version++
}

// ===========================
// Ledger commands
// ===========================

// EarnPoints 產生一筆獲得明細並增加 totalPoints
//
// 參數：
//   - amount：正整數積分
//   - category：必須是獲得類別（不可為 REDEMPTION）
//   - eventRef：外部事件參考，儲存層以 (account_id, event_ref) 去重
//
// 返回：
//   - *PointTransaction：待 Append 的明細
//   - error：ErrInvalidAmount（含 totalPoints 溢位）、ErrInvalidCategory
func (a *AffiliateAccount) EarnPoints(amount PointsAmount, category TransactionCategory, reason string, eventRef shared.Ref[string]) (*PointTransaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount.WithContext("account_id", a.id.String(), "amount", 0)
	}
	if !category.IsEarning() {
		return nil, ErrInvalidCategory.WithContext("category", string(category), "operation", "earn")
	}
	if amount.Value() > math.MaxInt64-a.totalPoints {
		return nil, ErrInvalidAmount.WithContext(
			"account_id", a.id.String(),
			"amount", amount.Value(),
			"total_points", a.totalPoints,
			"reason", "points total would overflow",
		)
	}

	now := time.Now().UTC()
	tx := newPointTransaction(a.id, amount.Value(), category, reason, eventRef, now)

	a.totalPoints += amount.Value()
	a.updatedAt = now
	a.addEvent(newPointsEarnedEvent(a, tx))

	a.assertInvariants()
	return tx, nil
}

// RedeemPoints 產生一筆負數明細並增加 redeemedPoints
//
// 業務規則：
//   - amount 不可超過 AvailablePoints，否則回傳 ErrInsufficientBalance
//   - 檢查與遞增一起完成；儲存層以版本號與 CHECK 約束再次把關
func (a *AffiliateAccount) RedeemPoints(amount PointsAmount, reason string, eventRef shared.Ref[string]) (*PointTransaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount.WithContext("account_id", a.id.String(), "amount", 0)
	}
	available := a.AvailablePoints()
	if amount.Value() > available {
		return nil, ErrInsufficientBalance.WithContext(
			"account_id", a.id.String(),
			"requested", amount.Value(),
			"available", available,
		)
	}

	now := time.Now().UTC()
	tx := newPointTransaction(a.id, -amount.Value(), CategoryRedemption, reason, eventRef, now)

	a.redeemedPoints += amount.Value()
	a.updatedAt = now
	a.addEvent(newPointsRedeemedEvent(a, tx))

	a.assertInvariants()
	return tx, nil
}

// RecordReferralSignup counts a referred signup and credits reward.
func (a *AffiliateAccount) RecordReferralSignup(reward PointsAmount, referredExternalID string, eventRef shared.Ref[string]) (*PointTransaction, error) {
	if a.totalReferrals == math.MaxInt {
		return nil, a.counterFull("total_referrals")
	}
	tx, err := a.EarnPoints(reward, CategoryReferralSignup, "referral signup: "+referredExternalID, eventRef)
	if err != nil {
		return nil, err
	}
	a.totalReferrals++
	return tx, nil
}

// RecordReferralPurchase counts a successful referral, credits reward and
// adds earnings (rounded to cents) to the stored totalEarnings aggregate. The
// returned entry carries the same earnings.
func (a *AffiliateAccount) RecordReferralPurchase(reward PointsAmount, earnings decimal.Decimal, eventRef shared.Ref[string]) (*PointTransaction, error) {
	if earnings.IsNegative() {
		return nil, ErrInvalidAmount.WithContext("earnings", earnings.String())
	}
	earnings = earnings.Round(2)
	if a.totalEarnings.Add(earnings).GreaterThan(MaxTotalEarnings) {
		return nil, ErrInvalidAmount.WithContext(
			"account_id", a.id.String(),
			"earnings", earnings.String(),
			"reason", "earnings limit reached",
		)
	}
	if a.successfulReferrals == math.MaxInt {
		return nil, a.counterFull("successful_referrals")
	}
	tx, err := a.EarnPoints(reward, CategoryReferralPurchase, "referred purchase", eventRef)
	if err != nil {
		return nil, err
	}
	tx.earnings = earnings
	a.successfulReferrals++
	a.totalEarnings = a.totalEarnings.Add(earnings)
	return tx, nil
}

// RecordProConversion counts a referred pro upgrade and credits reward.
func (a *AffiliateAccount) RecordProConversion(reward PointsAmount, eventRef shared.Ref[string]) (*PointTransaction, error) {
	if a.proConversions == math.MaxInt {
		return nil, a.counterFull("pro_conversions")
	}
	tx, err := a.EarnPoints(reward, CategoryProConversion, "pro conversion", eventRef)
	if err != nil {
		return nil, err
	}
	a.proConversions++
	return tx, nil
}

func (a *AffiliateAccount) counterFull(counter string) error {
	return ErrInvalidAmount.WithContext("account_id", a.id.String(), "counter", counter, "reason", "counter would overflow")
}

// SetCustomCode assigns a vanity code. Uniqueness is enforced by storage.
func (a *AffiliateAccount) SetCustomCode(code string) error {
	if err := ValidateCustomCode(code); err != nil {
		return err
	}
	normalized := NormalizeCode(code)
	a.customCode = shared.Linked(normalized)
	a.updatedAt = time.Now().UTC()
	a.addEvent(&CustomCodeSetEvent{
		BaseEvent:  shared.NewBaseEvent(EventCustomCodeSet, a.id.String()),
		CustomCode: normalized,
	})
	return nil
}

// Reconcile replaces the counters (points and earnings) with totals
// recomputed from the ledger and reports whether anything changed. Totals
// that would break the redeemed <= total invariant are rejected.
func (a *AffiliateAccount) Reconcile(totals LedgerTotals) (bool, error) {
	if totals.Earned < 0 || totals.Redeemed < 0 || totals.Redeemed > totals.Earned || totals.Earnings.IsNegative() {
		return false, ErrInvariantViolation.WithContext(
			"account_id", a.id.String(),
			"ledger_earned", totals.Earned,
			"ledger_redeemed", totals.Redeemed,
			"ledger_earnings", totals.Earnings.String(),
		)
	}
	if totals.Earned == a.totalPoints && totals.Redeemed == a.redeemedPoints && totals.Earnings.Equal(a.totalEarnings) {
		return false, nil
	}

	a.addEvent(&LedgerReconciledEvent{
		BaseEvent:        shared.NewBaseEvent(EventLedgerReconciled, a.id.String()),
		PreviousTotal:    a.totalPoints,
		PreviousRedeemed: a.redeemedPoints,
		PreviousEarnings: a.totalEarnings,
		TotalPoints:      totals.Earned,
		RedeemedPoints:   totals.Redeemed,
		TotalEarnings:    totals.Earnings,
	})
	a.totalPoints = totals.Earned
	a.redeemedPoints = totals.Redeemed
	a.totalEarnings = totals.Earnings
	a.updatedAt = time.Now().UTC()
	return true, nil
}

// assertInvariants panics on a bug in a command method, never on user input.
func (a *AffiliateAccount) assertInvariants() {
	if a.redeemedPoints > a.totalPoints {
		panic(fmt.Sprintf(
			"invariant violation: redeemedPoints (%d) > totalPoints (%d) for account %s",
			a.redeemedPoints, a.totalPoints, a.id.String(),
		))
	}
}
