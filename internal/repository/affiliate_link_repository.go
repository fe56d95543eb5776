package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"

	"gorm.io/gorm"
)

// AffiliateLinkRepository 推广链接数据访问接口
type AffiliateLinkRepository interface {
	WithTx(tx *gorm.DB) AffiliateLinkRepository

	GetByID(id uint) (*models.AffiliateLink, error)
	GetBySlug(slug string) (*models.AffiliateLink, error)
	Create(link *models.AffiliateLink) error
	Update(link *models.AffiliateLink) error
	List(filter AffiliateLinkListFilter) ([]models.AffiliateLink, int64, error)
	ListTopByUser(userID uint, limit int) ([]models.AffiliateLink, error)
	IncrementClickCount(id uint) error
	IncrementConversion(id uint, commission models.Money) error
	MarkExpired(now time.Time) (int64, error)

	CreateClick(click *models.AffiliateClick) error
	HasRecentClick(linkID uint, visitorKey string, since time.Time) (bool, error)
	GetLatestClickedLinkByVisitorKey(visitorKey string, since time.Time) (*models.AffiliateLink, error)
	CountClicksByUser(userID uint, since *time.Time) (int64, error)
}

// GormAffiliateLinkRepository GORM 实现
type GormAffiliateLinkRepository struct {
	db *gorm.DB
}

// NewAffiliateLinkRepository 创建推广链接仓库
func NewAffiliateLinkRepository(db *gorm.DB) *GormAffiliateLinkRepository {
	return &GormAffiliateLinkRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAffiliateLinkRepository) WithTx(tx *gorm.DB) AffiliateLinkRepository {
	if tx == nil {
		return r
	}
	return &GormAffiliateLinkRepository{db: tx}
}

// GetByID 按 ID 获取推广链接
func (r *GormAffiliateLinkRepository) GetByID(id uint) (*models.AffiliateLink, error) {
	if id == 0 {
		return nil, nil
	}
	var link models.AffiliateLink
	if err := r.db.First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// GetBySlug 按短码获取推广链接
func (r *GormAffiliateLinkRepository) GetBySlug(slug string) (*models.AffiliateLink, error) {
	normalized := strings.TrimSpace(slug)
	if normalized == "" {
		return nil, nil
	}
	var link models.AffiliateLink
	if err := r.db.Where("slug = ?", normalized).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// Create 创建推广链接
func (r *GormAffiliateLinkRepository) Create(link *models.AffiliateLink) error {
	return r.db.Create(link).Error
}

// Update 更新推广链接
func (r *GormAffiliateLinkRepository) Update(link *models.AffiliateLink) error {
	return r.db.Save(link).Error
}

// List 查询推广链接列表
func (r *GormAffiliateLinkRepository) List(filter AffiliateLinkListFilter) ([]models.AffiliateLink, int64, error) {
	query := r.db.Model(&models.AffiliateLink{})
	if filter.UserID != 0 {
		query = query.Where("affiliate_links.user_id = ?", filter.UserID)
	}
	if linkType := strings.TrimSpace(filter.LinkType); linkType != "" {
		query = query.Where("affiliate_links.link_type = ?", linkType)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("affiliate_links.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = affiliate_links.user_id").
			Where("(affiliate_links.slug LIKE ? OR users.email LIKE ? OR users.display_name LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var links []models.AffiliateLink
	if err := query.Order("affiliate_links.id DESC").Find(&links).Error; err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// ListTopByUser 查询用户累计佣金最高的链接
func (r *GormAffiliateLinkRepository) ListTopByUser(userID uint, limit int) ([]models.AffiliateLink, error) {
	if userID == 0 {
		return []models.AffiliateLink{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	var links []models.AffiliateLink
	if err := r.db.Where("user_id = ?", userID).
		Order("total_commission DESC, click_count DESC").
		Limit(limit).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// IncrementClickCount 点击计数累加
func (r *GormAffiliateLinkRepository) IncrementClickCount(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateLink{}).
		Where("id = ?", id).
		Update("click_count", gorm.Expr("click_count + 1")).Error
}

// IncrementConversion 成交计数与累计佣金累加
func (r *GormAffiliateLinkRepository) IncrementConversion(id uint, commission models.Money) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.AffiliateLink{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"conversion_count": gorm.Expr("conversion_count + 1"),
			"total_commission": gorm.Expr("total_commission + ?", commission),
		}).Error
}

// MarkExpired 批量将到期链接置为过期
func (r *GormAffiliateLinkRepository) MarkExpired(now time.Time) (int64, error) {
	result := r.db.Model(&models.AffiliateLink{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			constants.AffiliateLinkStatusActive, now).
		Updates(map[string]interface{}{
			"status":     constants.AffiliateLinkStatusExpired,
			"updated_at": now,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreateClick 创建点击记录
func (r *GormAffiliateLinkRepository) CreateClick(click *models.AffiliateClick) error {
	return r.db.Create(click).Error
}

// HasRecentClick 查询是否存在近期重复点击记录
func (r *GormAffiliateLinkRepository) HasRecentClick(linkID uint, visitorKey string, since time.Time) (bool, error) {
	if linkID == 0 || strings.TrimSpace(visitorKey) == "" {
		return false, nil
	}
	var total int64
	if err := r.db.Model(&models.AffiliateClick{}).
		Where("affiliate_link_id = ? AND visitor_key = ? AND created_at >= ?",
			linkID, strings.TrimSpace(visitorKey), since).
		Count(&total).Error; err != nil {
		return false, err
	}
	return total > 0, nil
}

// GetLatestClickedLinkByVisitorKey 查询访客最近一次点击的有效链接（最后点击归因）
func (r *GormAffiliateLinkRepository) GetLatestClickedLinkByVisitorKey(visitorKey string, since time.Time) (*models.AffiliateLink, error) {
	key := strings.TrimSpace(visitorKey)
	if key == "" {
		return nil, nil
	}
	var link models.AffiliateLink
	err := r.db.Model(&models.AffiliateLink{}).
		Joins("JOIN affiliate_clicks ac ON ac.affiliate_link_id = affiliate_links.id").
		Where("ac.visitor_key = ? AND ac.created_at >= ? AND affiliate_links.status = ?",
			key, since, constants.AffiliateLinkStatusActive).
		Order("ac.created_at DESC, ac.id DESC").
		Limit(1).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// CountClicksByUser 统计用户全部链接的点击数
func (r *GormAffiliateLinkRepository) CountClicksByUser(userID uint, since *time.Time) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.AffiliateClick{}).Where("user_id = ?", userID)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
