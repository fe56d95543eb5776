package repository

import (
	"errors"
	"strings"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	ListAll() ([]models.Category, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
	Delete(id uint) error
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// GetByID 按 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	if id == 0 {
		return nil, nil
	}
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug 按 slug 获取分类
func (r *GormCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	normalized := strings.TrimSpace(slug)
	if normalized == "" {
		return nil, nil
	}
	var category models.Category
	if err := r.db.Where("slug = ?", normalized).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListAll 查询全部分类
func (r *GormCategoryRepository) ListAll() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("sort_order DESC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create 创建分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update 更新分类
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}

// Delete 删除分类
func (r *GormCategoryRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Category{}, id).Error
}
