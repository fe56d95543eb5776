package repository

import (
	"errors"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository 设置数据访问接口，联盟分成配置以 JSON 行存放。
type SettingRepository interface {
	GetByKey(key string) (*models.Setting, error)
	Upsert(key string, value models.JSON) (*models.Setting, error)
}

// GormSettingRepository GORM 实现
type GormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建设置仓库
func NewSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// GetByKey 获取设置，不存在时返回 nil 而非错误
func (r *GormSettingRepository) GetByKey(key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert 按主键写入或覆盖设置
func (r *GormSettingRepository) Upsert(key string, value models.JSON) (*models.Setting, error) {
	setting := &models.Setting{Key: key, ValueJSON: value}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value_json", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}
