package persistence

import (
	"context"
	"sort"

	"github.com/fortyseven/affiliate_ledger/src/internal/domain/shared"
	affiliatestore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/affiliate"
	partnerstore "github.com/fortyseven/affiliate_ledger/src/internal/infrastructure/persistence/partner"
	"gorm.io/gorm"
)

// ===========================
// Admin data browser
// ===========================

// Resource names a browsable table. The set is closed: each value has a typed
// list function in the dispatch table, and nothing else can be browsed.
type Resource string

const (
	ResourceAffiliateAccounts  Resource = "affiliate_accounts"
	ResourcePointTransactions  Resource = "point_transactions"
	ResourcePartners           Resource = "partners"
	ResourcePartnerCommissions Resource = "partner_commissions"
	ResourcePartnerPayouts     Resource = "partner_payouts"
)

const ErrCodeUnknownResource shared.ErrorCode = "ADMIN_RESOURCE_NOT_FOUND"

// ErrUnknownResource the requested name is not in the browsable set.
var ErrUnknownResource = shared.NewDomainError(ErrCodeUnknownResource, "unknown admin resource")

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Page is one slice of a table. Rows holds a typed model slice.
type Page struct {
	Resource Resource    `json:"resource"`
	Total    int64       `json:"total"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
	Rows     interface{} `json:"rows"`
}

type lister func(ctx context.Context, db *gorm.DB, limit, offset int) (interface{}, int64, error)

// Browser serves read-only paged listings for the admin API.
type Browser struct {
	db      *gorm.DB
	listers map[Resource]lister
}

// NewBrowser builds the dispatch table.
func NewBrowser(db *gorm.DB) *Browser {
	return &Browser{
		db: db,
		listers: map[Resource]lister{
			ResourceAffiliateAccounts:  listModels[affiliatestore.AccountModel]("created_at DESC, id DESC"),
			ResourcePointTransactions:  listModels[affiliatestore.TransactionModel]("created_at DESC, id DESC"),
			ResourcePartners:           listModels[partnerstore.PartnerModel]("partner_number ASC"),
			ResourcePartnerCommissions: listModels[partnerstore.CommissionModel]("created_at DESC, id DESC"),
			ResourcePartnerPayouts:     listModels[partnerstore.PayoutModel]("created_at DESC, id DESC"),
		},
	}
}

// Resources returns the browsable names, sorted.
func (b *Browser) Resources() []Resource {
	out := make([]Resource, 0, len(b.listers))
	for r := range b.listers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List returns one page of resource. limit is clamped to [1, 200].
func (b *Browser) List(ctx context.Context, resource Resource, limit, offset int) (*Page, error) {
	list, ok := b.listers[resource]
	if !ok {
		return nil, ErrUnknownResource.WithContext("resource", string(resource))
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := list(ctx, b.db, limit, offset)
	if err != nil {
		return nil, err
	}
	return &Page{Resource: resource, Total: total, Limit: limit, Offset: offset, Rows: rows}, nil
}

func listModels[M any](order string) lister {
	return func(ctx context.Context, db *gorm.DB, limit, offset int) (interface{}, int64, error) {
		var total int64
		if err := db.WithContext(ctx).Model(new(M)).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		rows := make([]M, 0, limit)
		if err := db.WithContext(ctx).Order(order).Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
			return nil, 0, err
		}
		return rows, total, nil
	}
}
