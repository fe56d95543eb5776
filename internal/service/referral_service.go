package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
)

const referralCodeLength = 8

// ReferralService 推荐关系业务服务
type ReferralService struct {
	userRepo repository.UserRepository
}

// NewReferralService 创建推荐关系服务
func NewReferralService(userRepo repository.UserRepository) *ReferralService {
	return &ReferralService{userRepo: userRepo}
}

// ResolveReferrer 根据推荐码解析推荐人
func (s *ReferralService) ResolveReferrer(code string) (*models.User, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	return s.userRepo.GetByReferralCode(normalized)
}

// SetReferrer 绑定上级推荐人
// 推荐人已绑定、指向自身或指向自己的下级时拒绝（推荐树必须无环）
func (s *ReferralService) SetReferrer(userID, referrerID uint) error {
	if userID == 0 || referrerID == 0 {
		return ErrValidation
	}
	if userID == referrerID {
		return ErrCyclicReferral
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.ReferredByUserID != nil && *user.ReferredByUserID != 0 {
		return ErrCyclicReferral
	}

	referrer, err := s.userRepo.GetByID(referrerID)
	if err != nil {
		return err
	}
	if referrer == nil {
		return ErrNotFound
	}

	descendant, err := s.isDescendant(userID, referrerID)
	if err != nil {
		return err
	}
	if descendant {
		return ErrCyclicReferral
	}

	user.ReferredByUserID = &referrerID
	user.UpdatedAt = time.Now()
	return s.userRepo.Update(user)
}

// GetReferrer 获取用户的上级推荐人
func (s *ReferralService) GetReferrer(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.ReferredByUserID == nil || *user.ReferredByUserID == 0 {
		return nil, nil
	}
	return s.userRepo.GetByID(*user.ReferredByUserID)
}

// DirectReferrals 查询直接下级（分页，不包含用户自身）
func (s *ReferralService) DirectReferrals(userID uint, page, pageSize int) ([]models.User, int64, error) {
	if userID == 0 {
		return []models.User{}, 0, nil
	}
	return s.userRepo.ListDirectReferrals(userID, page, pageSize)
}

// CountReferrals 统计直接下级数量（可按起始时间过滤）
func (s *ReferralService) CountReferrals(userID uint, since *time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.userRepo.CountReferrals(userID, since)
}

// EnsureReferralCode 确保用户持有推荐码，缺失时生成并保存
func (s *ReferralService) EnsureReferralCode(user *models.User) error {
	if user == nil || user.ID == 0 {
		return ErrNotFound
	}
	if strings.TrimSpace(user.ReferralCode) != "" {
		return nil
	}

	const maxRetry = 8
	for i := 0; i < maxRetry; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return err
		}
		user.ReferralCode = code
		if err := s.userRepo.Update(user); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return err
		}
		return nil
	}
	return ErrValidation
}

// isDescendant 判断 candidate 是否位于 rootID 的推荐树下（逐层 BFS）
func (s *ReferralService) isDescendant(rootID, candidateID uint) (bool, error) {
	frontier := []uint{rootID}
	visited := map[uint]struct{}{rootID: {}}
	for len(frontier) > 0 {
		children, err := s.userRepo.ListChildIDs(frontier)
		if err != nil {
			return false, err
		}
		next := make([]uint, 0, len(children))
		for _, id := range children {
			if id == candidateID {
				return true, nil
			}
			if _, ok := visited[id]; ok {
				continue
			}
			visited[id] = struct{}{}
			next = append(next, id)
		}
		frontier = next
	}
	return false, nil
}

func generateReferralCode() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	var builder strings.Builder
	builder.Grow(referralCodeLength)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < referralCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(alphabet[n.Int64()])
	}
	return builder.String(), nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
