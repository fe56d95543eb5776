package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRepository 佣金数据访问接口
type CommissionRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRepository

	Create(commission *models.Commission) error
	Update(commission *models.Commission) error
	GetByID(id uint) (*models.Commission, error)
	GetByOrderUserLevel(orderID, userID uint, level int) (*models.Commission, error)
	ListByIDsForUpdate(ids []uint) ([]models.Commission, error)
	ListByOrderForUpdate(orderID uint, statuses []string) ([]models.Commission, error)
	List(filter CommissionListFilter) ([]models.Commission, int64, error)
	ListConfirmDueForUpdate(before time.Time, limit int) ([]models.Commission, error)
	SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error)
	Stats(filter CommissionListFilter) (CommissionStatsAggregate, error)
	BatchUpdate(ids []uint, updates map[string]interface{}) error
}

// GormCommissionRepository GORM 实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓库
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) CommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// Update 更新佣金记录
func (r *GormCommissionRepository) Update(commission *models.Commission) error {
	return r.db.Save(commission).Error
}

// GetByID 按 ID 获取佣金记录
func (r *GormCommissionRepository) GetByID(id uint) (*models.Commission, error) {
	if id == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.Preload("User").Preload("Order").First(&commission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// GetByOrderUserLevel 按唯一键（订单+用户+层级）查询佣金
func (r *GormCommissionRepository) GetByOrderUserLevel(orderID, userID uint, level int) (*models.Commission, error) {
	if orderID == 0 || userID == 0 {
		return nil, nil
	}
	var commission models.Commission
	if err := r.db.Where("order_id = ? AND user_id = ? AND level = ?", orderID, userID, level).
		First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}

// ListByIDsForUpdate 批量锁定查询佣金记录
func (r *GormCommissionRepository) ListByIDsForUpdate(ids []uint) ([]models.Commission, error) {
	if len(ids) == 0 {
		return []models.Commission{}, nil
	}
	var rows []models.Commission
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByOrderForUpdate 按订单锁定查询佣金记录
func (r *GormCommissionRepository) ListByOrderForUpdate(orderID uint, statuses []string) ([]models.Commission, error) {
	if orderID == 0 {
		return []models.Commission{}, nil
	}
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.Commission
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询佣金列表
func (r *GormCommissionRepository) List(filter CommissionListFilter) ([]models.Commission, int64, error) {
	query := r.db.Model(&models.Commission{}).Preload("User").Preload("Order")
	if filter.UserID != 0 {
		query = query.Where("commissions.user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("commissions.order_id = ?", filter.OrderID)
	}
	if filter.Level != 0 {
		query = query.Where("commissions.level = ?", filter.Level)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Joins("LEFT JOIN orders ON orders.id = commissions.order_id").
			Where("orders.order_no LIKE ?", "%"+orderNo+"%")
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("commissions.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN users u ON u.id = commissions.user_id").
			Where("(u.email LIKE ? OR u.display_name LIKE ? OR u.referral_code LIKE ?)", like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("commissions.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("commissions.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Commission
	if err := query.Order("commissions.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListConfirmDueForUpdate 锁定查询确认期已到的待结算佣金
func (r *GormCommissionRepository) ListConfirmDueForUpdate(before time.Time, limit int) ([]models.Commission, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Commission
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND confirm_at IS NOT NULL AND confirm_at <= ?",
			constants.CommissionStatusPending, before).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByUserAndStatuses 汇总用户指定状态的佣金金额
func (r *GormCommissionRepository) SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Commission{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(0), nil
}

// Stats 按过滤条件汇总佣金统计
func (r *GormCommissionRepository) Stats(filter CommissionListFilter) (CommissionStatsAggregate, error) {
	stats := CommissionStatsAggregate{
		PendingAmount:   decimal.Zero,
		ApprovedAmount:  decimal.Zero,
		PaidAmount:      decimal.Zero,
		CancelledAmount: decimal.Zero,
	}

	query := r.db.Model(&models.Commission{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	if err := query.Session(&gorm.Session{}).Count(&stats.TotalCount).Error; err != nil {
		return stats, err
	}

	var rows []struct {
		Status string          `gorm:"column:status"`
		Total  decimal.Decimal `gorm:"column:total"`
	}
	if err := query.Session(&gorm.Session{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return stats, err
	}
	for _, row := range rows {
		amount := row.Total.Round(0)
		switch row.Status {
		case constants.CommissionStatusPending:
			stats.PendingAmount = amount
		case constants.CommissionStatusApproved:
			stats.ApprovedAmount = amount
		case constants.CommissionStatusPaid:
			stats.PaidAmount = amount
		case constants.CommissionStatusCancelled:
			stats.CancelledAmount = amount
		}
	}
	return stats, nil
}

// BatchUpdate 批量更新佣金记录
func (r *GormCommissionRepository) BatchUpdate(ids []uint, updates map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Commission{}).Where("id IN ?", ids).Updates(updates).Error
}
