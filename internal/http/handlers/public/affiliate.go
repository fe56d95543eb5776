package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLinkRequest 创建推广链接请求
type CreateLinkRequest struct {
	LinkType       string  `json:"link_type"`
	TargetID       *uint   `json:"target_id"`
	CommissionRate *string `json:"commission_rate"`
	ExpiresAt      *string `json:"expires_at"`
}

// UpdateLinkRequest 更新推广链接请求
type UpdateLinkRequest struct {
	Status         *string `json:"status"`
	CommissionRate *string `json:"commission_rate"`
	ClearRate      bool    `json:"clear_rate"`
	ExpiresAt      *string `json:"expires_at"`
}

func parseRate(raw *string) (*decimal.Decimal, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func parseTimeAt(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		return nil, err
	}
	return &at, nil
}

// GetMyReferral 获取我的推荐码与直推概况
func (h *Handler) GetMyReferral(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.GetByID(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if user.ReferralCode == "" {
		if err := h.ReferralService.EnsureReferralCode(user); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	referralCount, err := h.ReferralService.CountReferrals(uid, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payload := gin.H{
		"referral_code":  user.ReferralCode,
		"referral_count": referralCount,
	}
	if referrer, err := h.ReferralService.GetReferrer(uid); err == nil && referrer != nil {
		payload["referrer"] = gin.H{
			"id":           referrer.ID,
			"display_name": referrer.DisplayName,
		}
	}
	response.Success(c, payload)
}

// BindReferrerRequest 绑定推荐人请求
type BindReferrerRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// BindMyReferrer 绑定推荐人（仅允许绑定一次）
func (h *Handler) BindMyReferrer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req BindReferrerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	referrer, err := h.ReferralService.ResolveReferrer(strings.TrimSpace(req.ReferralCode))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := h.ReferralService.SetReferrer(uid, referrer.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListMyReferrals 获取我的直推用户列表
func (h *Handler) ListMyReferrals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.ReferralService.DirectReferrals(uid, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, users, pagination)
}

// CreateMyLink 创建推广链接
func (h *Handler) CreateMyLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rate, err := parseRate(req.CommissionRate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_rate", err)
		return
	}
	expiresAt, err := parseTimeAt(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	link, err := h.LinkService.Create(uid, service.CreateLinkInput{
		LinkType:       strings.TrimSpace(req.LinkType),
		TargetID:       req.TargetID,
		CommissionRate: rate,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, link)
}

// UpdateMyLink 更新推广链接
func (h *Handler) UpdateMyLink(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rate, err := parseRate(req.CommissionRate)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_rate", err)
		return
	}
	expiresAt, err := parseTimeAt(req.ExpiresAt)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	link, err := h.LinkService.Update(uint(id), &uid, service.UpdateLinkInput{
		Status:         req.Status,
		CommissionRate: rate,
		ClearRate:      req.ClearRate,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, link)
}

// ListMyLinks 获取我的推广链接列表
func (h *Handler) ListMyLinks(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	links, total, err := h.LinkService.List(repository.AffiliateLinkListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
		LinkType: strings.TrimSpace(c.Query("link_type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, links, pagination)
}

// GetMyAffiliateDashboard 获取我的推广数据看板
func (h *Handler) GetMyAffiliateDashboard(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := h.LinkService.Dashboard(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// TrackLinkClick 记录推广链接点击（游客可访问）
// 首次访问时下发访客 Cookie，归因窗口内复用
func (h *Handler) TrackLinkClick(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	key := visitorKey(c)
	if key == "" {
		key = uuid.NewString()
		maxAge := h.Config.Affiliate.AttributionWindowHours * int(time.Hour.Seconds())
		c.SetCookie(constants.VisitorKeyCookie, key, maxAge, "/", "", false, true)
	}

	link, err := h.LinkService.TrackClick(service.TrackClickInput{
		Slug:        slug,
		VisitorKey:  key,
		LandingPath: strings.TrimSpace(c.Query("path")),
		Referrer:    c.GetHeader("Referer"),
		ClientIP:    c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"link_type":   link.LinkType,
		"target_id":   link.TargetID,
		"visitor_key": key,
	})
}

// ListMyCommissions 获取我的佣金记录
func (h *Handler) ListMyCommissions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	commissions, total, err := h.CommissionService.List(repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, commissions, pagination)
}

// GetMyCommissionStats 获取我的佣金汇总
func (h *Handler) GetMyCommissionStats(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	stats, err := h.CommissionService.Stats(repository.CommissionListFilter{UserID: uid})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// ListMyLedger 获取我的账本流水
func (h *Handler) ListMyLedger(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	entries, total, err := h.LedgerService.List(repository.LedgerListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		EntryType: strings.TrimSpace(c.Query("entry_type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, entries, pagination)
}
