package models

import "time"

// LedgerEntry 余额账本流水（仅追加，不更新）
type LedgerEntry struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                       // 主键
	UserID       uint      `gorm:"not null;index" json:"user_id"`                              // 用户ID
	EntryType    string    `gorm:"type:varchar(32);not null;index" json:"entry_type"`          // 流水类型
	Direction    string    `gorm:"type:varchar(8);not null" json:"direction"`                  // 方向（in/out）
	Amount       Money     `gorm:"type:decimal(20,0);not null;default:0" json:"amount"`        // 变动金额（正数）
	BalanceAfter Money     `gorm:"type:decimal(20,0);not null;default:0" json:"balance_after"` // 变动后可提现余额快照
	Reference    string    `gorm:"type:varchar(64);index" json:"reference"`                    // 业务引用（commission:ID / withdrawal:ID）
	Remark       string    `gorm:"type:varchar(255)" json:"remark,omitempty"`                  // 备注
	CreatedAt    time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
}

// TableName 指定表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
