package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Commission 分销佣金记录
type Commission struct {
	ID              uint            `gorm:"primarykey" json:"id"`                                                              // 主键
	UserID          uint            `gorm:"not null;index;index:idx_commission_unique,unique" json:"user_id"`                  // 获佣用户ID
	OrderID         uint            `gorm:"not null;index;index:idx_commission_unique,unique" json:"order_id"`                 // 订单ID
	Level           int             `gorm:"not null;default:1;index:idx_commission_unique,unique" json:"level"`                // 佣金层级（1 直推 / 2 二级）
	OrderItemID     *uint           `gorm:"index" json:"order_item_id,omitempty"`                                              // 订单项ID
	ProductID       *uint           `gorm:"index" json:"product_id,omitempty"`                                                 // 商品ID
	AffiliateLinkID *uint           `gorm:"index" json:"affiliate_link_id,omitempty"`                                          // 归因推广链接ID
	ReferredUserID  *uint           `gorm:"index" json:"referred_user_id,omitempty"`                                           // 下单用户ID
	CommissionType  string          `gorm:"type:varchar(20);not null;default:'DIRECT'" json:"commission_type"`                 // 佣金类型
	OrderAmount     Money           `gorm:"type:decimal(20,0);not null;default:0" json:"order_amount"`                         // 佣金基数金额
	CommissionRate  decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_rate"`                      // 佣金比例（0~1）
	Amount          Money           `gorm:"type:decimal(20,0);not null;default:0" json:"amount"`                               // 佣金金额
	Status          string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`                   // 佣金状态
	ConfirmAt       *time.Time      `gorm:"index" json:"confirm_at,omitempty"`                                                 // 确认期到期时间
	CreditedAt      *time.Time      `gorm:"index" json:"credited_at,omitempty"`                                                // 入账时间（余额累加标记）
	PaidAt          *time.Time      `gorm:"index" json:"paid_at,omitempty"`                                                    // 支付时间
	CancelReason    string          `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`                                  // 取消原因
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                                                           // 创建时间
	UpdatedAt       time.Time       `gorm:"index" json:"updated_at"`                                                           // 更新时间
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`                                                                    // 软删除时间

	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`                    // 获佣用户
	Order         *Order         `gorm:"foreignKey:OrderID" json:"order,omitempty"`                  // 关联订单
	AffiliateLink *AffiliateLink `gorm:"foreignKey:AffiliateLinkID" json:"affiliate_link,omitempty"` // 归因推广链接
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
