package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User 用户表（含分销员档案字段）
type User struct {
	ID                 uint             `gorm:"primarykey" json:"id"`                                         // 主键
	Email              string           `gorm:"uniqueIndex;not null" json:"email"`                            // 邮箱
	PasswordHash       string           `gorm:"not null" json:"-"`                                            // 密码哈希（不返回给前端）
	DisplayName        string           `gorm:"default:''" json:"display_name"`                               // 昵称
	Phone              string           `gorm:"type:varchar(32);index" json:"phone,omitempty"`                // 手机号
	Locale             string           `gorm:"default:'vi-VN'" json:"locale"`                                // 语言偏好
	Role               string           `gorm:"type:varchar(20);not null;default:'CUSTOMER';index" json:"role"` // 角色
	Status             string           `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"` // 账号状态
	ReferralCode       string           `gorm:"type:varchar(32);uniqueIndex" json:"referral_code"`            // 推荐码
	ReferredByUserID   *uint            `gorm:"index" json:"referred_by_user_id,omitempty"`                   // 上级推荐人ID
	CommissionRate     *decimal.Decimal `gorm:"type:decimal(10,4)" json:"commission_rate,omitempty"`          // 个人佣金比例覆盖（0~1）
	TotalCommission    Money            `gorm:"type:decimal(20,0);not null;default:0" json:"total_commission"` // 累计佣金
	AvailableBalance   Money            `gorm:"type:decimal(20,0);not null;default:0" json:"available_balance"` // 可提现余额
	TotalWithdrawn     Money            `gorm:"type:decimal(20,0);not null;default:0" json:"total_withdrawn"` // 累计已提现
	TokenVersion       uint64           `gorm:"not null;default:0" json:"-"`                                  // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time       `gorm:"index" json:"-"`                                               // 该时间点前签发的 Token 失效
	LastLoginAt        *time.Time       `json:"last_login_at"`                                                // 最后登录时间
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt          time.Time        `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`                                               // 软删除时间

	ReferredByUser *User `gorm:"foreignKey:ReferredByUserID" json:"referred_by_user,omitempty"` // 上级推荐人
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
