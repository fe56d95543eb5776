package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpdateUserRoleRequest 调整用户角色请求
type UpdateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// SetUserRateRequest 设置用户专属佣金比例请求
type SetUserRateRequest struct {
	CommissionRate *string `json:"commission_rate"`
}

// BatchUpdateUserStatusRequest 批量调整用户状态请求
type BatchUpdateUserStatusRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// ListUsers 获取用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	referredBy, _ := strconv.ParseUint(c.Query("referred_by"), 10, 64)

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:             page,
		PageSize:         pageSize,
		Keyword:          strings.TrimSpace(c.Query("keyword")),
		Role:             strings.TrimSpace(c.Query("role")),
		Status:           strings.TrimSpace(c.Query("status")),
		ReferredByUserID: uint(referredBy),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, users, pagination)
}

// GetUser 获取用户详情
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserService.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateUserRole 调整用户角色
func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserService.UpdateRole(uint(id), strings.TrimSpace(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// SetUserCommissionRate 设置用户专属佣金比例（空值清除覆盖）
func (h *Handler) SetUserCommissionRate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req SetUserRateRequest
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
	user, err := h.UserService.SetCommissionRate(uint(id), rate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// BatchUpdateUserStatus 批量调整用户状态
func (h *Handler) BatchUpdateUserStatus(c *gin.Context) {
	var req BatchUpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	affected, err := h.UserService.BatchUpdateStatus(req.UserIDs, strings.TrimSpace(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"affected": affected})
}

// GetUserAffiliateOverview 获取用户推广概览
func (h *Handler) GetUserAffiliateOverview(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	overview, err := h.UserService.GetAffiliateOverview(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, overview)
}
