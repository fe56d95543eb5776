package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
)

// BankAccountRepository 银行账户数据访问接口
type BankAccountRepository interface {
	GetByID(id uint) (*models.BankAccount, error)
	ListByUser(userID uint) ([]models.BankAccount, error)
	List(filter BankAccountListFilter) ([]models.BankAccount, int64, error)
	Create(account *models.BankAccount) error
	Update(account *models.BankAccount) error
	Delete(id uint) error
	ClearDefault(userID uint) error
	SetVerified(id uint, verified bool, verifiedAt *time.Time) error
}

// GormBankAccountRepository GORM 实现
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewBankAccountRepository 创建银行账户仓库
func NewBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// GetByID 根据 ID 获取银行账户
func (r *GormBankAccountRepository) GetByID(id uint) (*models.BankAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.BankAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ListByUser 查询用户全部银行账户
func (r *GormBankAccountRepository) ListByUser(userID uint) ([]models.BankAccount, error) {
	if userID == 0 {
		return []models.BankAccount{}, nil
	}
	var accounts []models.BankAccount
	if err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// List 查询银行账户列表
func (r *GormBankAccountRepository) List(filter BankAccountListFilter) ([]models.BankAccount, int64, error) {
	query := r.db.Model(&models.BankAccount{}).Preload("User")
	if filter.UserID != 0 {
		query = query.Where("bank_accounts.user_id = ?", filter.UserID)
	}
	if filter.VerifiedOnly {
		query = query.Where("bank_accounts.is_verified = ?", true)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(bank_accounts.bank_name LIKE ? OR bank_accounts.account_number LIKE ? OR bank_accounts.account_name LIKE ?)",
			like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.BankAccount
	if err := query.Order("bank_accounts.id DESC").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Create 创建银行账户
func (r *GormBankAccountRepository) Create(account *models.BankAccount) error {
	return r.db.Create(account).Error
}

// Update 更新银行账户
func (r *GormBankAccountRepository) Update(account *models.BankAccount) error {
	return r.db.Save(account).Error
}

// Delete 删除银行账户
func (r *GormBankAccountRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.BankAccount{}, id).Error
}

// ClearDefault 清除用户默认账户标记
func (r *GormBankAccountRepository) ClearDefault(userID uint) error {
	if userID == 0 {
		return nil
	}
	return r.db.Model(&models.BankAccount{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// SetVerified 设置审核状态
func (r *GormBankAccountRepository) SetVerified(id uint, verified bool, verifiedAt *time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.BankAccount{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified": verified,
			"verified_at": verifiedAt,
		}).Error
}
