package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page             int
	PageSize         int
	Keyword          string
	Role             string
	Status           string
	ReferredByUserID uint
	CreatedFrom      *time.Time
	CreatedTo        *time.Time
}

// CommissionListFilter 查询佣金列表的过滤条件
type CommissionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	OrderNo     string
	Level       int
	Status      string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionStatsAggregate 佣金汇总统计
type CommissionStatsAggregate struct {
	TotalCount      int64
	PendingAmount   decimal.Decimal
	ApprovedAmount  decimal.Decimal
	PaidAmount      decimal.Decimal
	CancelledAmount decimal.Decimal
}

// WithdrawalListFilter 查询提现列表的过滤条件
type WithdrawalListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AffiliateLinkListFilter 查询推广链接列表的过滤条件
type AffiliateLinkListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	LinkType string
	Status   string
	Keyword  string
}

// BankAccountListFilter 查询银行账户列表的过滤条件
type BankAccountListFilter struct {
	Page         int
	PageSize     int
	UserID       uint
	VerifiedOnly bool
	Keyword      string
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page            int
	PageSize        int
	UserID          uint
	AffiliateUserID uint
	Status          string
	OrderNo         string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page          int
	PageSize      int
	CategoryID    uint
	Search        string
	OnlyActive    bool
	AffiliateOnly bool
	WithCategory  bool
}

// LedgerListFilter 查询账本流水的过滤条件
type LedgerListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	EntryType   string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
