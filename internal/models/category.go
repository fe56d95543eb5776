package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JSON 类型定义，用于存储多语言内容
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// StringArray 字符串数组类型，用于存储tags、images等
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Category 商品分类表，推广链接可按分类归因
type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`  // 唯一标识
	NameJSON  JSON           `gorm:"type:json;not null" json:"name"`    // 多语言名称
	Icon      string         `gorm:"type:varchar(500)" json:"icon"`     // 分类图标（图片路径）
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// LocalizedName 按语言取名称，缺失时退回任意已填写语言。
func (c *Category) LocalizedName(locale string) string {
	if name, ok := c.NameJSON[locale].(string); ok && name != "" {
		return name
	}
	for _, v := range c.NameJSON {
		if name, ok := v.(string); ok && name != "" {
			return name
		}
	}
	return c.Slug
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
