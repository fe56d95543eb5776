package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	Update(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	CreateItems(items []models.OrderItem) error
	ListItems(orderID uint) ([]models.OrderItem, error)
	CountByAffiliateUser(userID uint, since *time.Time) (int64, error)
	ListExpiredPending(before time.Time, limit int) ([]models.Order, error)
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update 更新订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// GetByID 按 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 按 ID 锁定获取订单
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	normalized := strings.TrimSpace(orderNo)
	if normalized == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Preload("Items").Where("order_no = ?", normalized).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 查询订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Preload("Items")

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.AffiliateUserID != 0 {
		query = query.Where("affiliate_user_id = ?", filter.AffiliateUserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+orderNo+"%")
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

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CreateItems 批量创建订单项
func (r *GormOrderRepository) CreateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// ListItems 查询订单项
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	if orderID == 0 {
		return []models.OrderItem{}, nil
	}
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CountByAffiliateUser 统计归因到分销员的订单数
func (r *GormOrderRepository) CountByAffiliateUser(userID uint, since *time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.Order{}).
		Where("affiliate_user_id = ? AND status IN ?", userID,
			[]string{constants.OrderStatusPaid, constants.OrderStatusCompleted})
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListExpiredPending 查询支付超时的待支付订单
func (r *GormOrderRepository) ListExpiredPending(before time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	if err := r.db.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		constants.OrderStatusPendingPayment, before).
		Order("id asc").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
