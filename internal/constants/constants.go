package constants

// 订单状态常量
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 用户角色常量
const (
	UserRoleCustomer     = "CUSTOMER"
	UserRoleCollaborator = "COLLABORATOR"
	UserRoleAgent        = "AGENT"
	UserRoleStaff        = "STAFF"
	UserRoleAdmin        = "ADMIN"
)

// 用户状态常量
const (
	UserStatusActive   = "ACTIVE"
	UserStatusInactive = "INACTIVE"
	UserStatusPending  = "PENDING"
)

// 佣金状态常量
const (
	CommissionStatusPending   = "PENDING"
	CommissionStatusApproved  = "APPROVED"
	CommissionStatusPaid      = "PAID"
	CommissionStatusCancelled = "CANCELLED"
)

// 佣金类型常量（直推 / 二级）
const (
	CommissionTypeDirect = "DIRECT"
	CommissionTypeLevel  = "LEVEL"
)

// 佣金层级常量
const (
	CommissionLevelDirect = 1
	CommissionLevelSecond = 2
)

// 提现状态常量
const (
	WithdrawalStatusPending   = "PENDING"
	WithdrawalStatusApproved  = "APPROVED"
	WithdrawalStatusRejected  = "REJECTED"
	WithdrawalStatusCompleted = "COMPLETED"
	WithdrawalStatusCancelled = "CANCELLED"
)

// 提现审核动作常量
const (
	WithdrawalActionApprove = "approve"
	WithdrawalActionReject  = "reject"
)

// 推广链接类型常量
const (
	AffiliateLinkTypeGeneral  = "GENERAL"
	AffiliateLinkTypeProduct  = "PRODUCT"
	AffiliateLinkTypeCategory = "CATEGORY"
)

// 推广链接状态常量
const (
	AffiliateLinkStatusActive  = "ACTIVE"
	AffiliateLinkStatusPaused  = "PAUSED"
	AffiliateLinkStatusExpired = "EXPIRED"
)

// 账本流水类型常量
const (
	LedgerEntryCommissionCredit = "commission_credit"
	LedgerEntryWithdrawReserve  = "withdraw_reserve"
	LedgerEntryWithdrawRelease  = "withdraw_release"
	LedgerEntryWithdrawComplete = "withdraw_complete"
)

// 账本流水方向常量
const (
	LedgerDirectionIn  = "in"
	LedgerDirectionOut = "out"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskCommissionSettle   = "commission:settle"
	TaskCommissionCancel   = "commission:cancel"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vc"
)

// 访客标识 Cookie 名（推广点击与下单归因共用）
const (
	VisitorKeyCookie = "vc_visitor_key"
)

// 设置键常量
const (
	SettingKeySiteConfig      = "site_config"
	SettingKeyAffiliateConfig = "affiliate_config"
)

// 币种常量（越南盾，无小数单位）
const (
	SiteCurrencyDefault = "VND"
)

// 站点语言常量
const (
	LocaleViVN = "vi-VN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleViVN, LocaleEnUS}
