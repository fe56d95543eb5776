package repository

import (
	"errors"
	"strings"

	"github.com/vietcart-next/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawalRepository 提现数据访问接口
type WithdrawalRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) WithdrawalRepository

	Create(withdrawal *models.Withdrawal) error
	Update(withdrawal *models.Withdrawal) error
	GetByID(id uint) (*models.Withdrawal, error)
	GetByIDForUpdate(id uint) (*models.Withdrawal, error)
	List(filter WithdrawalListFilter) ([]models.Withdrawal, int64, error)
	SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error)
}

// GormWithdrawalRepository GORM 实现
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现仓库
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) WithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWithdrawalRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormWithdrawalRepository) Create(withdrawal *models.Withdrawal) error {
	return r.db.Create(withdrawal).Error
}

// Update 更新提现申请
func (r *GormWithdrawalRepository) Update(withdrawal *models.Withdrawal) error {
	return r.db.Save(withdrawal).Error
}

// GetByID 按 ID 查询提现申请
func (r *GormWithdrawalRepository) GetByID(id uint) (*models.Withdrawal, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Withdrawal
	if err := r.db.Preload("User").Preload("BankAccount").First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdate 按 ID 锁定查询提现申请
func (r *GormWithdrawalRepository) GetByIDForUpdate(id uint) (*models.Withdrawal, error) {
	if id == 0 {
		return nil, nil
	}
	var row models.Withdrawal
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询提现申请列表
func (r *GormWithdrawalRepository) List(filter WithdrawalListFilter) ([]models.Withdrawal, int64, error) {
	query := r.db.Model(&models.Withdrawal{}).Preload("User").Preload("BankAccount")

	if filter.UserID != 0 {
		query = query.Where("withdrawals.user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("withdrawals.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN users u ON u.id = withdrawals.user_id").
			Joins("LEFT JOIN bank_accounts ba ON ba.id = withdrawals.bank_account_id").
			Where("(u.email LIKE ? OR u.display_name LIKE ? OR ba.account_number LIKE ? OR withdrawals.transaction_id LIKE ?)",
				like, like, like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("withdrawals.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("withdrawals.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Withdrawal
	if err := query.Order("withdrawals.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SumByUserAndStatuses 汇总用户指定状态的提现金额
func (r *GormWithdrawalRepository) SumByUserAndStatuses(userID uint, statuses []string) (decimal.Decimal, error) {
	if userID == 0 || len(statuses) == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(0), nil
}
