package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionService 佣金业务服务
type CommissionService struct {
	repo           repository.CommissionRepository
	userRepo       repository.UserRepository
	ledgerRepo     repository.LedgerRepository
	linkRepo       repository.AffiliateLinkRepository
	settingService *SettingService
}

// NewCommissionService 创建佣金服务
func NewCommissionService(
	repo repository.CommissionRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	linkRepo repository.AffiliateLinkRepository,
	settingService *SettingService,
) *CommissionService {
	return &CommissionService{
		repo:           repo,
		userRepo:       userRepo,
		ledgerRepo:     ledgerRepo,
		linkRepo:       linkRepo,
		settingService: settingService,
	}
}

// CreateCommissionInput 创建佣金输入
type CreateCommissionInput struct {
	UserID          uint
	OrderID         uint
	OrderItemID     *uint
	ProductID       *uint
	AffiliateLinkID *uint
	ReferredUserID  *uint
	Level           int
	CommissionType  string
	OrderAmount     decimal.Decimal
	CommissionRate  decimal.Decimal
	ConfirmAt       *time.Time
}

// CreateCommission 创建佣金记录（唯一键：订单+用户+层级）
func (s *CommissionService) CreateCommission(input CreateCommissionInput) (*models.Commission, error) {
	if input.UserID == 0 || input.OrderID == 0 {
		return nil, ErrValidation
	}
	if input.Level != constants.CommissionLevelDirect && input.Level != constants.CommissionLevelSecond {
		return nil, ErrValidation
	}
	rate := input.CommissionRate
	if rate.LessThan(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidRate
	}
	orderAmount := input.OrderAmount.Round(0)
	if orderAmount.LessThan(decimal.Zero) {
		return nil, ErrValidation
	}

	existing, err := s.repo.GetByOrderUserLevel(input.OrderID, input.UserID, input.Level)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCommission
	}

	commissionType := strings.TrimSpace(input.CommissionType)
	if commissionType == "" {
		commissionType = constants.CommissionTypeDirect
		if input.Level == constants.CommissionLevelSecond {
			commissionType = constants.CommissionTypeLevel
		}
	}

	commission := &models.Commission{
		UserID:          input.UserID,
		OrderID:         input.OrderID,
		OrderItemID:     input.OrderItemID,
		ProductID:       input.ProductID,
		AffiliateLinkID: input.AffiliateLinkID,
		ReferredUserID:  input.ReferredUserID,
		Level:           input.Level,
		CommissionType:  commissionType,
		OrderAmount:     models.NewMoneyFromDecimal(orderAmount),
		CommissionRate:  rate.Round(4),
		Amount:          models.NewMoneyFromDecimal(orderAmount.Mul(rate)),
		Status:          constants.CommissionStatusPending,
		ConfirmAt:       input.ConfirmAt,
	}
	if err := s.repo.Create(commission); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCommission
		}
		return nil, err
	}
	return commission, nil
}

// HandleOrderPaid 订单支付成功后生成直推与二级佣金
func (s *CommissionService) HandleOrderPaid(order *models.Order) error {
	if order == nil || order.ID == 0 {
		return nil
	}
	if order.AffiliateUserID == nil || *order.AffiliateUserID == 0 {
		return nil
	}
	setting, err := s.settingService.GetAffiliateSetting()
	if err != nil {
		return err
	}
	if !setting.Enabled {
		return nil
	}

	earnerID := *order.AffiliateUserID
	// 自购不产生佣金
	if earnerID == order.UserID {
		return nil
	}
	earner, err := s.userRepo.GetByID(earnerID)
	if err != nil {
		return err
	}
	if earner == nil || earner.Status != constants.UserStatusActive {
		return nil
	}

	base := order.TotalAmount.Decimal.Round(0)
	if base.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	paidAt := time.Now()
	if order.PaidAt != nil {
		paidAt = *order.PaidAt
	}
	var confirmAt *time.Time
	if setting.ConfirmDays > 0 {
		t := paidAt.Add(time.Duration(setting.ConfirmDays) * 24 * time.Hour)
		confirmAt = &t
	}

	level1Rate, err := s.resolveLevel1Rate(order, earner, setting)
	if err != nil {
		return err
	}

	referredUserID := order.UserID
	if level1Rate.GreaterThan(decimal.Zero) {
		_, err := s.CreateCommission(CreateCommissionInput{
			UserID:          earnerID,
			OrderID:         order.ID,
			AffiliateLinkID: order.AffiliateLinkID,
			ReferredUserID:  &referredUserID,
			Level:           constants.CommissionLevelDirect,
			CommissionType:  constants.CommissionTypeDirect,
			OrderAmount:     base,
			CommissionRate:  level1Rate,
			ConfirmAt:       confirmAt,
		})
		if err != nil && err != ErrDuplicateCommission {
			return err
		}
		if err == nil && order.AffiliateLinkID != nil {
			amount := models.NewMoneyFromDecimal(base.Mul(level1Rate))
			if linkErr := s.linkRepo.IncrementConversion(*order.AffiliateLinkID, amount); linkErr != nil {
				return linkErr
			}
		}
	}

	// 二级佣金归上级推荐人
	if earner.ReferredByUserID == nil || *earner.ReferredByUserID == 0 {
		return nil
	}
	level2Rate := decimal.NewFromFloat(setting.Level2Rate).Round(4)
	if level2Rate.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	referrerID := *earner.ReferredByUserID
	if referrerID == order.UserID {
		return nil
	}
	referrer, err := s.userRepo.GetByID(referrerID)
	if err != nil {
		return err
	}
	if referrer == nil || referrer.Status != constants.UserStatusActive {
		return nil
	}
	_, err = s.CreateCommission(CreateCommissionInput{
		UserID:         referrerID,
		OrderID:        order.ID,
		ReferredUserID: &referredUserID,
		Level:          constants.CommissionLevelSecond,
		CommissionType: constants.CommissionTypeLevel,
		OrderAmount:    base,
		CommissionRate: level2Rate,
		ConfirmAt:      confirmAt,
	})
	if err != nil && err != ErrDuplicateCommission {
		return err
	}
	return nil
}

// HandleOrderCanceled 订单取消后作废未入账佣金
func (s *CommissionService) HandleOrderCanceled(orderID uint, reason string) error {
	if orderID == 0 {
		return nil
	}
	reasonText := strings.TrimSpace(reason)
	if reasonText == "" {
		reasonText = "order_canceled"
	}
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		rows, err := repoTx.ListByOrderForUpdate(orderID, []string{constants.CommissionStatusPending})
		if err != nil {
			return err
		}
		now := time.Now()
		for i := range rows {
			item := rows[i]
			item.Status = constants.CommissionStatusCancelled
			item.CancelReason = reasonText
			item.UpdatedAt = now
			if err := repoTx.Update(&item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Approve 管理端批量批准佣金（整批成功或整批失败，批准即付款）
// 重复批准已付款记录为幂等空操作；首次进入已批准/已付款时入账一次
func (s *CommissionService) Approve(adminID uint, ids []uint) error {
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return ErrValidation
	}
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		rows, err := repoTx.ListByIDsForUpdate(normalized)
		if err != nil {
			return err
		}
		if len(rows) != len(normalized) {
			return ErrNotFound
		}
		for _, row := range rows {
			switch row.Status {
			case constants.CommissionStatusPending, constants.CommissionStatusApproved, constants.CommissionStatusPaid:
			default:
				return ErrInvalidTransition
			}
		}

		now := time.Now()
		for i := range rows {
			item := rows[i]
			if item.Status == constants.CommissionStatusPaid {
				continue
			}
			if err := s.creditTx(tx, &item, now); err != nil {
				return err
			}
			item.Status = constants.CommissionStatusPaid
			item.PaidAt = &now
			item.UpdatedAt = now
			if err := repoTx.Update(&item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reject 管理端批量作废佣金（整批成功或整批失败）
func (s *CommissionService) Reject(adminID uint, ids []uint, reason string) error {
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return ErrValidation
	}
	reasonText := strings.TrimSpace(reason)
	if reasonText == "" {
		reasonText = "admin_rejected"
	}
	return s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		rows, err := repoTx.ListByIDsForUpdate(normalized)
		if err != nil {
			return err
		}
		if len(rows) != len(normalized) {
			return ErrNotFound
		}
		for _, row := range rows {
			if row.Status != constants.CommissionStatusPending {
				return ErrInvalidTransition
			}
		}

		now := time.Now()
		for i := range rows {
			item := rows[i]
			item.Status = constants.CommissionStatusCancelled
			item.CancelReason = reasonText
			item.UpdatedAt = now
			if err := repoTx.Update(&item); err != nil {
				return err
			}
		}
		return nil
	})
}

// SettleConfirmDue 确认期到期的待确认佣金转已批准并入账（后台任务调用）
func (s *CommissionService) SettleConfirmDue(now time.Time) (int64, error) {
	var settled int64
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		rows, err := repoTx.ListConfirmDueForUpdate(now, 200)
		if err != nil {
			return err
		}
		for i := range rows {
			item := rows[i]
			if err := s.creditTx(tx, &item, now); err != nil {
				return err
			}
			item.Status = constants.CommissionStatusApproved
			item.UpdatedAt = now
			if err := repoTx.Update(&item); err != nil {
				return err
			}
			settled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return settled, nil
}

// GetByID 查询佣金记录
func (s *CommissionService) GetByID(id uint) (*models.Commission, error) {
	commission, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if commission == nil {
		return nil, ErrNotFound
	}
	return commission, nil
}

// List 查询佣金列表
func (s *CommissionService) List(filter repository.CommissionListFilter) ([]models.Commission, int64, error) {
	return s.repo.List(filter)
}

// Stats 佣金汇总统计
func (s *CommissionService) Stats(filter repository.CommissionListFilter) (repository.CommissionStatsAggregate, error) {
	return s.repo.Stats(filter)
}

// creditTx 佣金首次入账（同事务锁定用户行，creditedAt 保证只入账一次）
func (s *CommissionService) creditTx(tx *gorm.DB, commission *models.Commission, now time.Time) error {
	if commission.CreditedAt != nil {
		return nil
	}
	userRepoTx := s.userRepo.WithTx(tx)
	user, err := userRepoTx.GetByIDForUpdate(commission.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	amount := commission.Amount.Decimal.Round(0)
	user.TotalCommission = models.NewMoneyFromDecimal(user.TotalCommission.Decimal.Add(amount))
	user.AvailableBalance = models.NewMoneyFromDecimal(user.AvailableBalance.Decimal.Add(amount))
	user.UpdatedAt = now
	if err := userRepoTx.Update(user); err != nil {
		return err
	}

	entry := &models.LedgerEntry{
		UserID:       user.ID,
		EntryType:    constants.LedgerEntryCommissionCredit,
		Direction:    constants.LedgerDirectionIn,
		Amount:       models.NewMoneyFromDecimal(amount),
		BalanceAfter: user.AvailableBalance,
		Reference:    fmt.Sprintf("commission:%d", commission.ID),
		CreatedAt:    now,
	}
	if err := s.ledgerRepo.WithTx(tx).Create(entry); err != nil {
		return err
	}

	commission.CreditedAt = &now
	return nil
}

// resolveLevel1Rate 直推佣金比例：链接覆盖 > 用户覆盖 > 商品覆盖（全部商品一致时）> 默认
func (s *CommissionService) resolveLevel1Rate(order *models.Order, earner *models.User, setting AffiliateSetting) (decimal.Decimal, error) {
	if order.AffiliateLinkID != nil && *order.AffiliateLinkID > 0 {
		link, err := s.linkRepo.GetByID(*order.AffiliateLinkID)
		if err != nil {
			return decimal.Zero, err
		}
		if link != nil && link.CommissionRate != nil {
			return link.CommissionRate.Round(4), nil
		}
	}
	if earner != nil && earner.CommissionRate != nil {
		return earner.CommissionRate.Round(4), nil
	}
	return decimal.NewFromFloat(setting.Level1Rate).Round(4), nil
}

func normalizeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
