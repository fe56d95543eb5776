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

// UserRepository 用户数据访问接口
type UserRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) UserRepository

	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	GetByIDForUpdate(id uint) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	List(filter UserListFilter) ([]models.User, int64, error)
	ListDirectReferrals(userID uint, page, pageSize int) ([]models.User, int64, error)
	CountReferrals(userID uint, since *time.Time) (int64, error)
	ListChildIDs(parentIDs []uint) ([]uint, error)
	BatchUpdateStatus(userIDs []uint, status string) (int64, error)
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDForUpdate 根据 ID 锁定获取用户（余额变更前必须加锁）
func (r *GormUserRepository) GetByIDForUpdate(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode 根据推荐码获取用户
func (r *GormUserRepository) GetByReferralCode(code string) (*models.User, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("referral_code = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("email LIKE ? OR display_name LIKE ? OR referral_code LIKE ?", like, like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ReferredByUserID != 0 {
		query = query.Where("referred_by_user_id = ?", filter.ReferredByUserID)
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

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListDirectReferrals 查询直接下级用户（分页）
func (r *GormUserRepository) ListDirectReferrals(userID uint, page, pageSize int) ([]models.User, int64, error) {
	if userID == 0 {
		return []models.User{}, 0, nil
	}
	query := r.db.Model(&models.User{}).Where("referred_by_user_id = ? AND id <> ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var users []models.User
	if err := query.Order("id DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// CountReferrals 统计直接下级数量（可按时间过滤）
func (r *GormUserRepository) CountReferrals(userID uint, since *time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.User{}).Where("referred_by_user_id = ?", userID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListChildIDs 批量查询直接下级用户ID（用于推荐树遍历）
func (r *GormUserRepository) ListChildIDs(parentIDs []uint) ([]uint, error) {
	if len(parentIDs) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	if err := r.db.Model(&models.User{}).
		Where("referred_by_user_id IN ?", parentIDs).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// BatchUpdateStatus 批量更新用户状态
func (r *GormUserRepository) BatchUpdateStatus(userIDs []uint, status string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	if strings.ToUpper(strings.TrimSpace(status)) == constants.UserStatusInactive {
		updates["token_invalid_before"] = now
		updates["token_version"] = gorm.Expr("token_version + 1")
	}
	result := r.db.Model(&models.User{}).Where("id IN ?", userIDs).Updates(updates)
	return result.RowsAffected, result.Error
}
