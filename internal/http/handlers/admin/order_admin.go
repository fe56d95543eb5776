package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelOrderRequest 管理端取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	affiliateUserID, _ := strconv.ParseUint(c.Query("affiliate_user_id"), 10, 64)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:            page,
		PageSize:        pageSize,
		UserID:          uint(userID),
		AffiliateUserID: uint(affiliateUserID),
		Status:          strings.TrimSpace(c.Query("status")),
		OrderNo:         strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// MarkOrderPaid 人工标记订单已支付
func (h *Handler) MarkOrderPaid(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.MarkPaid(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CompleteOrder 标记订单完成
func (h *Handler) CompleteOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	order, err := h.OrderService.Complete(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 管理端取消待支付订单
func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "admin_cancelled"
	}
	order, err := h.OrderService.Cancel(uint(id), reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}
