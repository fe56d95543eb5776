package service

import (
	"context"
	"time"

	"github.com/vietcart-next/internal/cache"
	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
)

// UserService 管理端用户/分销员管理服务
type UserService struct {
	repo           repository.UserRepository
	orderRepo      repository.OrderRepository
	linkRepo       repository.AffiliateLinkRepository
	commissionRepo repository.CommissionRepository
}

// NewUserService 创建用户管理服务
func NewUserService(
	repo repository.UserRepository,
	orderRepo repository.OrderRepository,
	linkRepo repository.AffiliateLinkRepository,
	commissionRepo repository.CommissionRepository,
) *UserService {
	return &UserService{
		repo:           repo,
		orderRepo:      orderRepo,
		linkRepo:       linkRepo,
		commissionRepo: commissionRepo,
	}
}

// List 查询用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.repo.List(filter)
}

// GetByID 查询用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateRole 调整用户角色
func (s *UserService) UpdateRole(id uint, role string) (*models.User, error) {
	switch role {
	case constants.UserRoleCustomer, constants.UserRoleCollaborator,
		constants.UserRoleAgent, constants.UserRoleStaff, constants.UserRoleAdmin:
	default:
		return nil, ErrValidation
	}
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, nil
}

// SetCommissionRate 设置个人佣金比例覆盖，rate 为 nil 时清除覆盖
func (s *UserService) SetCommissionRate(id uint, rate *decimal.Decimal) (*models.User, error) {
	if rate != nil {
		value := *rate
		if value.LessThan(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidRate
		}
		rounded := value.Round(4)
		rate = &rounded
	}
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	user.CommissionRate = rate
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// BatchUpdateStatus 批量调整用户状态，停用时旧 Token 全量失效
func (s *UserService) BatchUpdateStatus(ids []uint, status string) (int64, error) {
	switch status {
	case constants.UserStatusActive, constants.UserStatusInactive, constants.UserStatusPending:
	default:
		return 0, ErrValidation
	}
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return 0, ErrValidation
	}
	affected, err := s.repo.BatchUpdateStatus(normalized, status)
	if err != nil {
		return 0, err
	}
	for _, id := range normalized {
		_ = cache.DelUserAuthState(context.Background(), id)
	}
	return affected, nil
}

// AffiliateOverview 分销员概览
type AffiliateOverview struct {
	User            *models.User                        `json:"user"`
	ReferralCount   int64                               `json:"referral_count"`
	ClickCount      int64                               `json:"click_count"`
	PaidOrderCount  int64                               `json:"paid_order_count"`
	CommissionStats repository.CommissionStatsAggregate `json:"commission_stats"`
}

// GetAffiliateOverview 查询分销员的推广概览
func (s *UserService) GetAffiliateOverview(id uint) (*AffiliateOverview, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	referralCount, err := s.repo.CountReferrals(id, nil)
	if err != nil {
		return nil, err
	}
	clickCount, err := s.linkRepo.CountClicksByUser(id, nil)
	if err != nil {
		return nil, err
	}
	orderCount, err := s.orderRepo.CountByAffiliateUser(id, nil)
	if err != nil {
		return nil, err
	}
	stats, err := s.commissionRepo.Stats(repository.CommissionListFilter{UserID: id})
	if err != nil {
		return nil, err
	}

	return &AffiliateOverview{
		User:            user,
		ReferralCount:   referralCount,
		ClickCount:      clickCount,
		PaidOrderCount:  orderCount,
		CommissionStats: stats,
	}, nil
}
