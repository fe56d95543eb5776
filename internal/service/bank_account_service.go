package service

import (
	"strings"
	"time"

	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
)

// BankAccountService 收款银行账户服务
type BankAccountService struct {
	repo repository.BankAccountRepository
}

// NewBankAccountService 创建银行账户服务
func NewBankAccountService(repo repository.BankAccountRepository) *BankAccountService {
	return &BankAccountService{repo: repo}
}

// BankAccountInput 银行账户输入
type BankAccountInput struct {
	BankName      string
	AccountNumber string
	AccountName   string
	Branch        string
	IsDefault     bool
}

// Create 绑定收款账户，新账户待管理端审核后方可提现
func (s *BankAccountService) Create(userID uint, input BankAccountInput) (*models.BankAccount, error) {
	if userID == 0 {
		return nil, ErrValidation
	}
	bankName := strings.TrimSpace(input.BankName)
	accountNumber := strings.TrimSpace(input.AccountNumber)
	accountName := strings.TrimSpace(input.AccountName)
	if bankName == "" || accountNumber == "" || accountName == "" {
		return nil, ErrValidation
	}

	if input.IsDefault {
		if err := s.repo.ClearDefault(userID); err != nil {
			return nil, err
		}
	}
	account := &models.BankAccount{
		UserID:        userID,
		BankName:      bankName,
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Branch:        strings.TrimSpace(input.Branch),
		IsDefault:     input.IsDefault,
	}
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// Update 更新收款账户，关键字段变更后需重新审核
func (s *BankAccountService) Update(userID, id uint, input BankAccountInput) (*models.BankAccount, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, ErrNotFound
	}

	var sensitiveChanged bool
	if bankName := strings.TrimSpace(input.BankName); bankName != "" && bankName != account.BankName {
		account.BankName = bankName
		sensitiveChanged = true
	}
	if accountNumber := strings.TrimSpace(input.AccountNumber); accountNumber != "" && accountNumber != account.AccountNumber {
		account.AccountNumber = accountNumber
		sensitiveChanged = true
	}
	if accountName := strings.TrimSpace(input.AccountName); accountName != "" && accountName != account.AccountName {
		account.AccountName = accountName
		sensitiveChanged = true
	}
	if branch := strings.TrimSpace(input.Branch); branch != "" {
		account.Branch = branch
	}
	if input.IsDefault && !account.IsDefault {
		if err := s.repo.ClearDefault(userID); err != nil {
			return nil, err
		}
		account.IsDefault = true
	}
	if sensitiveChanged {
		account.IsVerified = false
		account.VerifiedAt = nil
	}
	account.UpdatedAt = time.Now()

	if err := s.repo.Update(account); err != nil {
		return nil, err
	}
	return account, nil
}

// Delete 删除收款账户
func (s *BankAccountService) Delete(userID, id uint) error {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if account == nil || account.UserID != userID {
		return ErrNotFound
	}
	return s.repo.Delete(id)
}

// ListByUser 查询用户收款账户
func (s *BankAccountService) ListByUser(userID uint) ([]models.BankAccount, error) {
	return s.repo.ListByUser(userID)
}

// List 管理端查询收款账户列表
func (s *BankAccountService) List(filter repository.BankAccountListFilter) ([]models.BankAccount, int64, error) {
	return s.repo.List(filter)
}

// Verify 管理端审核收款账户
func (s *BankAccountService) Verify(id uint, verified bool) (*models.BankAccount, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	var verifiedAt *time.Time
	if verified {
		now := time.Now()
		verifiedAt = &now
	}
	if err := s.repo.SetVerified(id, verified, verifiedAt); err != nil {
		return nil, err
	}
	account.IsVerified = verified
	account.VerifiedAt = verifiedAt
	return account, nil
}
