package repository

import (
	"strings"
	"time"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository 账本流水数据访问接口（仅追加）
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository

	Create(entry *models.LedgerEntry) error
	List(filter LedgerListFilter) ([]models.LedgerEntry, int64, error)
	GetLatestByUser(userID uint) (*models.LedgerEntry, error)
	ListActiveUserIDs(since time.Time, limit int) ([]uint, error)
}

// GormLedgerRepository GORM 实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓库
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Create 追加流水
func (r *GormLedgerRepository) Create(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

// List 查询流水列表
func (r *GormLedgerRepository) List(filter LedgerListFilter) ([]models.LedgerEntry, int64, error) {
	query := r.db.Model(&models.LedgerEntry{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if entryType := strings.TrimSpace(filter.EntryType); entryType != "" {
		query = query.Where("entry_type = ?", entryType)
	}
	if reference := strings.TrimSpace(filter.Reference); reference != "" {
		query = query.Where("reference = ?", reference)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.LedgerEntry
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetLatestByUser 查询用户最近一条流水
func (r *GormLedgerRepository) GetLatestByUser(userID uint) (*models.LedgerEntry, error) {
	if userID == 0 {
		return nil, nil
	}
	var entry models.LedgerEntry
	err := r.db.Where("user_id = ?", userID).Order("id desc").Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

// ListActiveUserIDs 查询近期有流水变动的用户ID（供对账巡检）
func (r *GormLedgerRepository) ListActiveUserIDs(since time.Time, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 500
	}
	var ids []uint
	if err := r.db.Model(&models.LedgerEntry{}).
		Where("created_at >= ?", since).
		Distinct().
		Limit(limit).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
