package models

import "time"

// AffiliateClick 推广链接点击记录
type AffiliateClick struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                       // 主键
	AffiliateLinkID uint      `gorm:"not null;index" json:"affiliate_link_id"`                    // 推广链接ID
	UserID          uint      `gorm:"not null;index" json:"user_id"`                              // 归属分销员ID
	VisitorKey      string    `gorm:"type:varchar(128);index" json:"visitor_key"`                 // 访客标识
	LandingPath     string    `gorm:"type:varchar(512)" json:"landing_path"`                      // 落地页面路径
	Referrer        string    `gorm:"type:varchar(1024)" json:"referrer"`                         // 来源地址
	ClientIP        string    `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	UserAgent       string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	CreatedAt       time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间

	AffiliateLink AffiliateLink `gorm:"foreignKey:AffiliateLinkID" json:"affiliate_link,omitempty"` // 推广链接
}

// TableName 指定表名
func (AffiliateClick) TableName() string {
	return "affiliate_clicks"
}
