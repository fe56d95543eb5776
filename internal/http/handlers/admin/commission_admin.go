package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ReviewCommissionsRequest 批量审核佣金请求
type ReviewCommissionsRequest struct {
	CommissionIDs []uint `json:"commission_ids" binding:"required"`
	Action        string `json:"action" binding:"required"`
	Reason        string `json:"reason"`
}

func commissionFilterFromQuery(c *gin.Context) repository.CommissionListFilter {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)
	level, _ := strconv.Atoi(c.Query("level"))

	return repository.CommissionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		OrderID:  uint(orderID),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
		Level:    level,
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	}
}

// ListCommissions 获取佣金列表
func (h *Handler) ListCommissions(c *gin.Context) {
	filter := commissionFilterFromQuery(c)
	commissions, total, err := h.CommissionService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(filter.Page, filter.PageSize, total)
	response.SuccessWithPage(c, commissions, pagination)
}

// GetCommissionStats 获取佣金汇总统计
func (h *Handler) GetCommissionStats(c *gin.Context) {
	filter := commissionFilterFromQuery(c)
	stats, err := h.CommissionService.Stats(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// ReviewCommissions 批量审核佣金（整批成功或整批失败）
func (h *Handler) ReviewCommissions(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ReviewCommissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case constants.WithdrawalActionApprove:
		if err := h.CommissionService.Approve(adminID, req.CommissionIDs); err != nil {
			respondServiceError(c, err)
			return
		}
	case constants.WithdrawalActionReject:
		if err := h.CommissionService.Reject(adminID, req.CommissionIDs, strings.TrimSpace(req.Reason)); err != nil {
			respondServiceError(c, err)
			return
		}
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	response.Success(c, nil)
}
