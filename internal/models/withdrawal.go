package models

import (
	"time"

	"gorm.io/gorm"
)

// Withdrawal 提现申请表
type Withdrawal struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                            // 主键
	UserID        uint           `gorm:"not null;index" json:"user_id"`                                   // 申请用户ID
	BankAccountID uint           `gorm:"not null;index" json:"bank_account_id"`                           // 收款银行账户ID
	Amount        Money          `gorm:"type:decimal(20,0);not null;default:0" json:"amount"`             // 申请金额
	Fee           Money          `gorm:"type:decimal(20,0);not null;default:0" json:"fee"`                // 手续费
	NetAmount     Money          `gorm:"type:decimal(20,0);not null;default:0" json:"net_amount"`         // 实际到账金额
	Status        string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // 提现状态
	UserNote      string         `gorm:"type:varchar(255)" json:"user_note,omitempty"`                    // 用户备注
	AdminNote     string         `gorm:"type:varchar(255)" json:"admin_note,omitempty"`                   // 审核备注
	TransactionID string         `gorm:"type:varchar(64);index" json:"transaction_id,omitempty"`          // 打款流水号
	RequestedAt   time.Time      `gorm:"index;not null" json:"requested_at"`                              // 申请时间
	ApprovedAt    *time.Time     `json:"approved_at,omitempty"`                                           // 批准时间
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`                                          // 打款完成时间
	RejectedAt    *time.Time     `json:"rejected_at,omitempty"`                                           // 驳回时间
	CancelledAt   *time.Time     `json:"cancelled_at,omitempty"`                                          // 用户取消时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                         // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                         // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                  // 软删除时间

	User        *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`                // 申请用户
	BankAccount *BankAccount `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"` // 收款银行账户
}

// TableName 指定表名
func (Withdrawal) TableName() string {
	return "withdrawals"
}
