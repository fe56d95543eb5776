package service

import (
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/logger"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
)

// LedgerService 余额账本服务
type LedgerService struct {
	repo           repository.LedgerRepository
	userRepo       repository.UserRepository
	commissionRepo repository.CommissionRepository
	withdrawalRepo repository.WithdrawalRepository
}

// NewLedgerService 创建账本服务
func NewLedgerService(
	repo repository.LedgerRepository,
	userRepo repository.UserRepository,
	commissionRepo repository.CommissionRepository,
	withdrawalRepo repository.WithdrawalRepository,
) *LedgerService {
	return &LedgerService{
		repo:           repo,
		userRepo:       userRepo,
		commissionRepo: commissionRepo,
		withdrawalRepo: withdrawalRepo,
	}
}

// List 查询账本流水
func (s *LedgerService) List(filter repository.LedgerListFilter) ([]models.LedgerEntry, int64, error) {
	return s.repo.List(filter)
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	UserID          uint            `json:"user_id"`
	StoredBalance   models.Money    `json:"stored_balance"`   // 用户表上的可提现余额
	ExpectedBalance models.Money    `json:"expected_balance"` // 按佣金与提现重算的余额
	Delta           decimal.Decimal `json:"delta"`            // 存储值 - 重算值
	Consistent      bool            `json:"consistent"`
}

// Reconcile 核对单个用户的可提现余额
// 期望余额 = 已入账佣金合计 - 占用中提现合计（待审核/已批准/已完成）
func (s *LedgerService) Reconcile(userID uint) (*ReconcileResult, error) {
	if userID == 0 {
		return nil, ErrValidation
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	credited, err := s.commissionRepo.SumByUserAndStatuses(userID, []string{
		constants.CommissionStatusApproved,
		constants.CommissionStatusPaid,
	})
	if err != nil {
		return nil, err
	}
	occupied, err := s.withdrawalRepo.SumByUserAndStatuses(userID, []string{
		constants.WithdrawalStatusPending,
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	expected := credited.Sub(occupied).Round(0)
	stored := user.AvailableBalance.Decimal.Round(0)
	delta := stored.Sub(expected)

	return &ReconcileResult{
		UserID:          userID,
		StoredBalance:   models.NewMoneyFromDecimal(stored),
		ExpectedBalance: models.NewMoneyFromDecimal(expected),
		Delta:           delta,
		Consistent:      delta.IsZero(),
	}, nil
}

// ReconcileSweep 巡检近期有流水变动的用户余额，返回不一致的结果（定时任务调用）
func (s *LedgerService) ReconcileSweep(since time.Time) ([]ReconcileResult, error) {
	ids, err := s.repo.ListActiveUserIDs(since, 500)
	if err != nil {
		return nil, err
	}
	var inconsistent []ReconcileResult
	for _, id := range ids {
		result, err := s.Reconcile(id)
		if err != nil {
			logger.Warnw("ledger_reconcile_user_failed", "user_id", id, "error", err)
			continue
		}
		if !result.Consistent {
			logger.Errorw("ledger_reconcile_mismatch",
				"user_id", id,
				"stored_balance", result.StoredBalance.String(),
				"expected_balance", result.ExpectedBalance.String(),
				"delta", result.Delta.String(),
			)
			inconsistent = append(inconsistent, *result)
		}
	}
	return inconsistent, nil
}

// LatestBalance 读取用户最近一条流水的余额快照
func (s *LedgerService) LatestBalance(userID uint) (models.Money, error) {
	if userID == 0 {
		return models.NewMoneyFromInt(0), ErrValidation
	}
	entry, err := s.repo.GetLatestByUser(userID)
	if err != nil {
		return models.NewMoneyFromInt(0), err
	}
	if entry == nil {
		return models.NewMoneyFromInt(0), nil
	}
	return entry.BalanceAfter, nil
}
