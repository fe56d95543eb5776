package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalService 提现业务服务
type WithdrawalService struct {
	repo            repository.WithdrawalRepository
	userRepo        repository.UserRepository
	bankAccountRepo repository.BankAccountRepository
	ledgerRepo      repository.LedgerRepository
	settingService  *SettingService
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	repo repository.WithdrawalRepository,
	userRepo repository.UserRepository,
	bankAccountRepo repository.BankAccountRepository,
	ledgerRepo repository.LedgerRepository,
	settingService *SettingService,
) *WithdrawalService {
	return &WithdrawalService{
		repo:            repo,
		userRepo:        userRepo,
		bankAccountRepo: bankAccountRepo,
		ledgerRepo:      ledgerRepo,
		settingService:  settingService,
	}
}

// RequestWithdrawalInput 提现申请输入
type RequestWithdrawalInput struct {
	BankAccountID uint
	Amount        decimal.Decimal
	UserNote      string
}

// CalculateFee 按当前配置计算提现手续费：max(round(金额×比例), 下限)
func CalculateFee(amount decimal.Decimal, setting AffiliateSetting) decimal.Decimal {
	fee := amount.Mul(decimal.NewFromFloat(setting.FeePercent)).Round(0)
	floor := decimal.NewFromFloat(setting.FeeFloor).Round(0)
	if fee.LessThan(floor) {
		fee = floor
	}
	return fee
}

// Request 发起提现申请（同事务冻结可提现余额）
func (s *WithdrawalService) Request(userID uint, input RequestWithdrawalInput) (*models.Withdrawal, error) {
	if userID == 0 || input.BankAccountID == 0 {
		return nil, ErrValidation
	}
	amount := input.Amount.Round(0)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidation
	}

	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return nil, err
	}
	if amount.LessThan(decimal.NewFromFloat(setting.MinWithdrawAmount).Round(0)) {
		return nil, ErrBelowMinimum
	}

	account, err := s.bankAccountRepo.GetByID(input.BankAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.UserID != userID {
		return nil, ErrNotFound
	}
	if !account.IsVerified {
		return nil, ErrUnverifiedBankAccount
	}

	fee := CalculateFee(amount, setting)
	net := amount.Sub(fee)
	if net.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidation
	}

	var withdrawal *models.Withdrawal
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		userRepoTx := s.userRepo.WithTx(tx)
		user, err := userRepoTx.GetByIDForUpdate(userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNotFound
		}
		if user.AvailableBalance.Decimal.LessThan(amount) {
			return ErrInsufficientBalance
		}

		now := time.Now()
		user.AvailableBalance = models.NewMoneyFromDecimal(user.AvailableBalance.Decimal.Sub(amount))
		user.UpdatedAt = now
		if err := userRepoTx.Update(user); err != nil {
			return err
		}

		withdrawal = &models.Withdrawal{
			UserID:        userID,
			BankAccountID: input.BankAccountID,
			Amount:        models.NewMoneyFromDecimal(amount),
			Fee:           models.NewMoneyFromDecimal(fee),
			NetAmount:     models.NewMoneyFromDecimal(net),
			Status:        constants.WithdrawalStatusPending,
			UserNote:      strings.TrimSpace(input.UserNote),
			RequestedAt:   now,
		}
		if err := s.repo.WithTx(tx).Create(withdrawal); err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			UserID:       userID,
			EntryType:    constants.LedgerEntryWithdrawReserve,
			Direction:    constants.LedgerDirectionOut,
			Amount:       models.NewMoneyFromDecimal(amount),
			BalanceAfter: user.AvailableBalance,
			Reference:    fmt.Sprintf("withdrawal:%d", withdrawal.ID),
			CreatedAt:    now,
		}
		return s.ledgerRepo.WithTx(tx).Create(entry)
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ReviewWithdrawalInput 提现审核输入
type ReviewWithdrawalInput struct {
	Action        string
	AdminNote     string
	TransactionID string
}

// Review 管理端审核提现申请
// 批准即视为打款完成；驳回必须填写备注并解冻余额
func (s *WithdrawalService) Review(adminID, id uint, input ReviewWithdrawalInput) (*models.Withdrawal, error) {
	if id == 0 {
		return nil, ErrValidation
	}

	var result *models.Withdrawal
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		withdrawal, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if withdrawal == nil {
			return ErrNotFound
		}

		now := time.Now()
		switch input.Action {
		case constants.WithdrawalActionApprove:
			if withdrawal.Status != constants.WithdrawalStatusPending &&
				withdrawal.Status != constants.WithdrawalStatusApproved {
				return ErrInvalidTransition
			}
			transactionID := strings.TrimSpace(input.TransactionID)
			if transactionID == "" {
				transactionID = uuid.NewString()
			}
			withdrawal.Status = constants.WithdrawalStatusCompleted
			withdrawal.AdminNote = strings.TrimSpace(input.AdminNote)
			withdrawal.TransactionID = transactionID
			withdrawal.ApprovedAt = &now
			withdrawal.CompletedAt = &now
			withdrawal.UpdatedAt = now
			if err := repoTx.Update(withdrawal); err != nil {
				return err
			}

			userRepoTx := s.userRepo.WithTx(tx)
			user, err := userRepoTx.GetByIDForUpdate(withdrawal.UserID)
			if err != nil {
				return err
			}
			if user == nil {
				return ErrNotFound
			}
			user.TotalWithdrawn = models.NewMoneyFromDecimal(user.TotalWithdrawn.Decimal.Add(withdrawal.Amount.Decimal))
			user.UpdatedAt = now
			if err := userRepoTx.Update(user); err != nil {
				return err
			}

			entry := &models.LedgerEntry{
				UserID:       withdrawal.UserID,
				EntryType:    constants.LedgerEntryWithdrawComplete,
				Direction:    constants.LedgerDirectionOut,
				Amount:       withdrawal.NetAmount,
				BalanceAfter: user.AvailableBalance,
				Reference:    fmt.Sprintf("withdrawal:%d", withdrawal.ID),
				Remark:       transactionID,
				CreatedAt:    now,
			}
			if err := s.ledgerRepo.WithTx(tx).Create(entry); err != nil {
				return err
			}

		case constants.WithdrawalActionReject:
			if withdrawal.Status != constants.WithdrawalStatusPending &&
				withdrawal.Status != constants.WithdrawalStatusApproved {
				return ErrInvalidTransition
			}
			note := strings.TrimSpace(input.AdminNote)
			if note == "" {
				return ErrValidation
			}
			withdrawal.Status = constants.WithdrawalStatusRejected
			withdrawal.AdminNote = note
			withdrawal.RejectedAt = &now
			withdrawal.UpdatedAt = now
			if err := repoTx.Update(withdrawal); err != nil {
				return err
			}
			if err := s.releaseTx(tx, withdrawal, now); err != nil {
				return err
			}

		default:
			return ErrValidation
		}

		result = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel 用户撤回待审核的提现申请并解冻余额
func (s *WithdrawalService) Cancel(userID, id uint) (*models.Withdrawal, error) {
	if userID == 0 || id == 0 {
		return nil, ErrValidation
	}

	var result *models.Withdrawal
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		withdrawal, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if withdrawal == nil || withdrawal.UserID != userID {
			return ErrNotFound
		}
		if withdrawal.Status != constants.WithdrawalStatusPending {
			return ErrInvalidTransition
		}

		now := time.Now()
		withdrawal.Status = constants.WithdrawalStatusCancelled
		withdrawal.CancelledAt = &now
		withdrawal.UpdatedAt = now
		if err := repoTx.Update(withdrawal); err != nil {
			return err
		}
		if err := s.releaseTx(tx, withdrawal, now); err != nil {
			return err
		}
		result = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID 查询提现申请
func (s *WithdrawalService) GetByID(id uint) (*models.Withdrawal, error) {
	withdrawal, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if withdrawal == nil {
		return nil, ErrNotFound
	}
	return withdrawal, nil
}

// List 查询提现申请列表
func (s *WithdrawalService) List(filter repository.WithdrawalListFilter) ([]models.Withdrawal, int64, error) {
	return s.repo.List(filter)
}

// releaseTx 解冻提现冻结金额并记录账本流水
func (s *WithdrawalService) releaseTx(tx *gorm.DB, withdrawal *models.Withdrawal, now time.Time) error {
	userRepoTx := s.userRepo.WithTx(tx)
	user, err := userRepoTx.GetByIDForUpdate(withdrawal.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	user.AvailableBalance = models.NewMoneyFromDecimal(user.AvailableBalance.Decimal.Add(withdrawal.Amount.Decimal))
	user.UpdatedAt = now
	if err := userRepoTx.Update(user); err != nil {
		return err
	}

	entry := &models.LedgerEntry{
		UserID:       withdrawal.UserID,
		EntryType:    constants.LedgerEntryWithdrawRelease,
		Direction:    constants.LedgerDirectionIn,
		Amount:       withdrawal.Amount,
		BalanceAfter: user.AvailableBalance,
		Reference:    fmt.Sprintf("withdrawal:%d", withdrawal.ID),
		CreatedAt:    now,
	}
	return s.ledgerRepo.WithTx(tx).Create(entry)
}
