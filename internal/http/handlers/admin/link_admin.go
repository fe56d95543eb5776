package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpdateLinkRequest 管理端更新推广链接请求
type UpdateLinkRequest struct {
	Status         *string `json:"status"`
	CommissionRate *string `json:"commission_rate"`
	ClearRate      bool    `json:"clear_rate"`
}

// ListLinks 获取推广链接列表
func (h *Handler) ListLinks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	links, total, err := h.LinkService.List(repository.AffiliateLinkListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		LinkType: strings.TrimSpace(c.Query("link_type")),
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, links, pagination)
}

// GetLink 获取推广链接详情
func (h *Handler) GetLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	link, err := h.LinkService.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, link)
}

// UpdateLink 管理端更新推广链接（可强制暂停）
func (h *Handler) UpdateLink(c *gin.Context) {
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
	var rate *decimal.Decimal
	if req.CommissionRate != nil && strings.TrimSpace(*req.CommissionRate) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*req.CommissionRate))
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.invalid_rate", err)
			return
		}
		rate = &parsed
	}
	link, err := h.LinkService.Update(uint(id), nil, service.UpdateLinkInput{
		Status:         req.Status,
		CommissionRate: rate,
		ClearRate:      req.ClearRate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, link)
}
