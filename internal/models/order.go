package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID          uint           `gorm:"index;not null" json:"user_id"`                             // 下单用户ID
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency        string         `gorm:"not null" json:"currency"`                                  // 币种
	TotalAmount     Money          `gorm:"type:decimal(20,0);not null;default:0" json:"total_amount"` // 实付金额
	AffiliateLinkID *uint          `gorm:"index" json:"affiliate_link_id,omitempty"`                  // 归因推广链接ID（下单时快照）
	AffiliateUserID *uint          `gorm:"index" json:"affiliate_user_id,omitempty"`                  // 归因分销员ID（下单时快照）
	ReferralCode    string         `gorm:"type:varchar(32)" json:"referral_code,omitempty"`           // 下单携带的推荐码快照
	ClientIP        string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`               // 下单客户端IP
	ExpiresAt       *time.Time     `gorm:"index" json:"expires_at"`                                   // 支付过期时间
	PaidAt          *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	CompletedAt     *time.Time     `gorm:"index" json:"completed_at"`                                 // 完成时间
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at"`                                  // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 下单用户
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
