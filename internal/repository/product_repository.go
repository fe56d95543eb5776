package repository

import (
	"errors"
	"strings"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository

	GetByID(id uint) (*models.Product, error)
	GetByIDForUpdate(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	List(filter ProductListFilter) ([]models.Product, int64, error)
	LockStock(id uint, quantity int) error
	ReleaseStock(id uint, quantity int) error
	CommitStock(id uint, quantity int) error
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// GetByID 按 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("Category").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByIDForUpdate 按 ID 锁定获取商品（库存变更前必须加锁）
func (r *GormProductRepository) GetByIDForUpdate(id uint) (*models.Product, error) {
	if id == 0 {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 按 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	normalized := strings.TrimSpace(slug)
	if normalized == "" {
		return nil, nil
	}
	var product models.Product
	if err := r.db.Preload("Category").Where("slug = ?", normalized).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Product{}, id).Error
}

// List 查询商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.WithCategory {
		query = query.Preload("Category")
	}
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.AffiliateOnly {
		query = query.Where("is_affiliate_enabled = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("slug LIKE ?", like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var products []models.Product
	if err := query.Order("sort_order DESC, id DESC").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// LockStock 占用库存（下单待支付）
func (r *GormProductRepository) LockStock(id uint, quantity int) error {
	if id == 0 || quantity <= 0 {
		return nil
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND (stock_total = 0 OR stock_total - stock_locked - stock_sold >= ?)", id, quantity).
		Update("stock_locked", gorm.Expr("stock_locked + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReleaseStock 释放占用库存（取消/超时）
func (r *GormProductRepository) ReleaseStock(id uint, quantity int) error {
	if id == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock_locked", gorm.Expr("CASE WHEN stock_locked >= ? THEN stock_locked - ? ELSE 0 END", quantity, quantity)).Error
}

// CommitStock 支付成功后占用转已售
func (r *GormProductRepository) CommitStock(id uint, quantity int) error {
	if id == 0 || quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_locked": gorm.Expr("CASE WHEN stock_locked >= ? THEN stock_locked - ? ELSE 0 END", quantity, quantity),
			"stock_sold":   gorm.Expr("stock_sold + ?", quantity),
		}).Error
}
