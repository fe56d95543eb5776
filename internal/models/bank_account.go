package models

import (
	"time"

	"gorm.io/gorm"
)

// BankAccount 分销员收款银行账户表
type BankAccount struct {
	ID            uint           `gorm:"primarykey" json:"id"`                              // 主键
	UserID        uint           `gorm:"not null;index" json:"user_id"`                     // 用户ID
	BankName      string         `gorm:"type:varchar(128);not null" json:"bank_name"`       // 银行名称
	AccountNumber string         `gorm:"type:varchar(64);not null" json:"account_number"`   // 账号
	AccountName   string         `gorm:"type:varchar(128);not null" json:"account_name"`    // 户名
	Branch        string         `gorm:"type:varchar(128)" json:"branch,omitempty"`         // 开户支行
	IsDefault     bool           `gorm:"not null;default:false;index" json:"is_default"`    // 是否默认账户
	IsVerified    bool           `gorm:"not null;default:false;index" json:"is_verified"`   // 是否已审核通过
	VerifiedAt    *time.Time     `json:"verified_at,omitempty"`                             // 审核通过时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (BankAccount) TableName() string {
	return "bank_accounts"
}
