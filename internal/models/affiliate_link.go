package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AffiliateLink 推广链接表
type AffiliateLink struct {
	ID              uint             `gorm:"primarykey" json:"id"`                                           // 主键
	UserID          uint             `gorm:"not null;index" json:"user_id"`                                  // 归属分销员ID
	Slug            string           `gorm:"type:varchar(64);not null;uniqueIndex" json:"slug"`              // 链接短码
	LinkType        string           `gorm:"type:varchar(20);not null;default:'GENERAL';index" json:"link_type"` // 链接类型
	TargetID        *uint            `gorm:"index" json:"target_id,omitempty"`                               // 目标ID（商品/分类）
	Status          string           `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"` // 链接状态
	CommissionRate  *decimal.Decimal `gorm:"type:decimal(10,4)" json:"commission_rate,omitempty"`            // 链接级佣金比例覆盖（0~1）
	ClickCount      int64            `gorm:"not null;default:0" json:"click_count"`                          // 点击次数
	ConversionCount int64            `gorm:"not null;default:0" json:"conversion_count"`                     // 成交次数
	TotalCommission Money            `gorm:"type:decimal(20,0);not null;default:0" json:"total_commission"`  // 累计佣金
	ExpiresAt       *time.Time       `gorm:"index" json:"expires_at,omitempty"`                              // 过期时间
	CreatedAt       time.Time        `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time        `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`                                                 // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 归属分销员
}

// TableName 指定表名
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}
