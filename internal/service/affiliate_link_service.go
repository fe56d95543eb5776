package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/shopspring/decimal"
)

const (
	linkSlugLength         = 10
	clickDedupeWindow      = 30 * time.Minute
	defaultAttributionHour = 72
)

// AffiliateLinkService 推广链接业务服务
type AffiliateLinkService struct {
	repo              repository.AffiliateLinkRepository
	userRepo          repository.UserRepository
	attributionWindow time.Duration
}

// NewAffiliateLinkService 创建推广链接服务
func NewAffiliateLinkService(
	repo repository.AffiliateLinkRepository,
	userRepo repository.UserRepository,
	attributionWindow time.Duration,
) *AffiliateLinkService {
	if attributionWindow <= 0 {
		attributionWindow = defaultAttributionHour * time.Hour
	}
	return &AffiliateLinkService{
		repo:              repo,
		userRepo:          userRepo,
		attributionWindow: attributionWindow,
	}
}

// CreateLinkInput 创建推广链接输入
type CreateLinkInput struct {
	LinkType       string
	TargetID       *uint
	CommissionRate *decimal.Decimal
	ExpiresAt      *time.Time
}

// Create 创建推广链接（短码唯一，冲突时重试）
func (s *AffiliateLinkService) Create(userID uint, input CreateLinkInput) (*models.AffiliateLink, error) {
	if userID == 0 {
		return nil, ErrValidation
	}
	linkType := strings.TrimSpace(input.LinkType)
	if linkType == "" {
		linkType = constants.AffiliateLinkTypeGeneral
	}
	switch linkType {
	case constants.AffiliateLinkTypeGeneral:
	case constants.AffiliateLinkTypeProduct, constants.AffiliateLinkTypeCategory:
		if input.TargetID == nil || *input.TargetID == 0 {
			return nil, ErrValidation
		}
	default:
		return nil, ErrValidation
	}
	if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if rate.LessThan(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidRate
		}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Status != constants.UserStatusActive {
		return nil, ErrAccountDisabled
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		slug, err := generateLinkSlug()
		if err != nil {
			return nil, err
		}
		link := &models.AffiliateLink{
			UserID:         userID,
			Slug:           slug,
			LinkType:       linkType,
			TargetID:       input.TargetID,
			Status:         constants.AffiliateLinkStatusActive,
			CommissionRate: input.CommissionRate,
			ExpiresAt:      input.ExpiresAt,
		}
		if err := s.repo.Create(link); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return link, nil
	}
	return nil, ErrValidation
}

// UpdateLinkInput 更新推广链接输入
type UpdateLinkInput struct {
	Status         *string
	CommissionRate *decimal.Decimal
	ClearRate      bool
	ExpiresAt      *time.Time
}

// Update 更新推广链接（归属用户或管理端调用）
func (s *AffiliateLinkService) Update(id uint, ownerID *uint, input UpdateLinkInput) (*models.AffiliateLink, error) {
	link, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	if ownerID != nil && link.UserID != *ownerID {
		return nil, ErrNotFound
	}

	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		switch status {
		case constants.AffiliateLinkStatusActive, constants.AffiliateLinkStatusPaused:
		default:
			return nil, ErrValidation
		}
		// 已过期链接不允许重新激活
		if link.Status == constants.AffiliateLinkStatusExpired {
			return nil, ErrInvalidTransition
		}
		link.Status = status
	}
	if input.ClearRate {
		link.CommissionRate = nil
	} else if input.CommissionRate != nil {
		rate := *input.CommissionRate
		if rate.LessThan(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidRate
		}
		link.CommissionRate = input.CommissionRate
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}
	link.UpdatedAt = time.Now()

	if err := s.repo.Update(link); err != nil {
		return nil, err
	}
	return link, nil
}

// GetByID 查询推广链接
func (s *AffiliateLinkService) GetByID(id uint) (*models.AffiliateLink, error) {
	link, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

// List 查询推广链接列表
func (s *AffiliateLinkService) List(filter repository.AffiliateLinkListFilter) ([]models.AffiliateLink, int64, error) {
	return s.repo.List(filter)
}

// TrackClickInput 点击上报输入
type TrackClickInput struct {
	Slug        string
	VisitorKey  string
	LandingPath string
	Referrer    string
	ClientIP    string
	UserAgent   string
}

// TrackClick 记录推广链接点击并返回链接
// 同一访客短时间内重复点击只计一次
func (s *AffiliateLinkService) TrackClick(input TrackClickInput) (*models.AffiliateLink, error) {
	link, err := s.repo.GetBySlug(input.Slug)
	if err != nil {
		return nil, err
	}
	if link == nil || link.Status != constants.AffiliateLinkStatusActive {
		return nil, ErrNotFound
	}
	now := time.Now()
	if link.ExpiresAt != nil && !link.ExpiresAt.After(now) {
		return nil, ErrNotFound
	}

	visitorKey := strings.TrimSpace(input.VisitorKey)
	if visitorKey != "" {
		duplicated, err := s.repo.HasRecentClick(link.ID, visitorKey, now.Add(-clickDedupeWindow))
		if err != nil {
			return nil, err
		}
		if duplicated {
			return link, nil
		}
	}

	click := &models.AffiliateClick{
		AffiliateLinkID: link.ID,
		UserID:          link.UserID,
		VisitorKey:      visitorKey,
		LandingPath:     strings.TrimSpace(input.LandingPath),
		Referrer:        strings.TrimSpace(input.Referrer),
		ClientIP:        strings.TrimSpace(input.ClientIP),
		UserAgent:       strings.TrimSpace(input.UserAgent),
		CreatedAt:       now,
	}
	if err := s.repo.CreateClick(click); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementClickCount(link.ID); err != nil {
		return nil, err
	}
	return link, nil
}

// OrderAttribution 下单归因结果
type OrderAttribution struct {
	AffiliateLinkID *uint
	AffiliateUserID *uint
	ReferralCode    string
}

// ResolveOrderAttribution 解析订单归因
// 归因窗口内按最后点击优先，其次回退买家绑定的推荐人；自购永不归因
func (s *AffiliateLinkService) ResolveOrderAttribution(buyerID uint, visitorKey string) (OrderAttribution, error) {
	var result OrderAttribution

	if key := strings.TrimSpace(visitorKey); key != "" {
		since := time.Now().Add(-s.attributionWindow)
		link, err := s.repo.GetLatestClickedLinkByVisitorKey(key, since)
		if err != nil {
			return result, err
		}
		if link != nil && link.UserID != buyerID {
			owner, err := s.userRepo.GetByID(link.UserID)
			if err != nil {
				return result, err
			}
			if owner != nil && owner.Status == constants.UserStatusActive {
				linkID := link.ID
				userID := link.UserID
				result.AffiliateLinkID = &linkID
				result.AffiliateUserID = &userID
				result.ReferralCode = owner.ReferralCode
				return result, nil
			}
		}
	}

	buyer, err := s.userRepo.GetByID(buyerID)
	if err != nil {
		return result, err
	}
	if buyer == nil || buyer.ReferredByUserID == nil || *buyer.ReferredByUserID == 0 {
		return result, nil
	}
	referrerID := *buyer.ReferredByUserID
	if referrerID == buyerID {
		return result, nil
	}
	referrer, err := s.userRepo.GetByID(referrerID)
	if err != nil {
		return result, err
	}
	if referrer == nil || referrer.Status != constants.UserStatusActive {
		return result, nil
	}
	result.AffiliateUserID = &referrerID
	result.ReferralCode = referrer.ReferralCode
	return result, nil
}

// DashboardStats 分销员链接看板
type DashboardStats struct {
	TotalClicks  int64                  `json:"total_clicks"`
	RecentClicks int64                  `json:"recent_clicks"` // 最近 30 天点击数
	TopLinks     []models.AffiliateLink `json:"top_links"`
}

// Dashboard 分销员链接数据看板
func (s *AffiliateLinkService) Dashboard(userID uint) (*DashboardStats, error) {
	if userID == 0 {
		return nil, ErrValidation
	}
	totalClicks, err := s.repo.CountClicksByUser(userID, nil)
	if err != nil {
		return nil, err
	}
	since := time.Now().AddDate(0, 0, -30)
	recentClicks, err := s.repo.CountClicksByUser(userID, &since)
	if err != nil {
		return nil, err
	}
	topLinks, err := s.repo.ListTopByUser(userID, 5)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalClicks:  totalClicks,
		RecentClicks: recentClicks,
		TopLinks:     topLinks,
	}, nil
}

// ExpireLinks 批量将到期链接置为过期（后台任务调用）
func (s *AffiliateLinkService) ExpireLinks(now time.Time) (int64, error) {
	return s.repo.MarkExpired(now)
}

func generateLinkSlug() (string, error) {
	const alphabet = "abcdefghjkmnpqrstuvwxyz23456789"
	var builder strings.Builder
	builder.Grow(linkSlugLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < linkSlugLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}
