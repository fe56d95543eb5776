package repository

import (
	"errors"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
)

// AdminRepository 管理员数据访问接口
type AdminRepository interface {
	GetByUsername(username string) (*models.Admin, error)
	GetByID(id uint) (*models.Admin, error)
	Create(admin *models.Admin) error
	Update(admin *models.Admin) error
}

// GormAdminRepository GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository 创建管理员仓库
func NewAdminRepository(db *gorm.DB) *GormAdminRepository {
	return &GormAdminRepository{db: db}
}

// firstAdmin 查询单个管理员，未命中返回 nil
func (r *GormAdminRepository) firstAdmin(query *gorm.DB) (*models.Admin, error) {
	var admin models.Admin
	err := query.First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByUsername 根据用户名获取管理员
func (r *GormAdminRepository) GetByUsername(username string) (*models.Admin, error) {
	return r.firstAdmin(r.db.Where("username = ?", username))
}

// GetByID 根据 ID 获取管理员
func (r *GormAdminRepository) GetByID(id uint) (*models.Admin, error) {
	if id == 0 {
		return nil, nil
	}
	return r.firstAdmin(r.db.Where("id = ?", id))
}

// Create 创建管理员
func (r *GormAdminRepository) Create(admin *models.Admin) error {
	return r.db.Create(admin).Error
}

// Update 更新管理员
func (r *GormAdminRepository) Update(admin *models.Admin) error {
	return r.db.Save(admin).Error
}
