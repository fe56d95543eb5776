package public

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items        []CreateOrderItemRequest `json:"items" binding:"required"`
	ReferralCode string                   `json:"referral_code"`
}

// CreateOrderItemRequest 下单商品行
type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// visitorKey 读取访客标识（Cookie 优先，其次请求头）
func visitorKey(c *gin.Context) string {
	if key, err := c.Cookie(constants.VisitorKeyCookie); err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(c.GetHeader("X-Visitor-Key"))
}

// CreateOrder 用户下单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	items := make([]service.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	order, err := h.OrderService.CreateOrder(uid, service.CreateOrderInput{
		Items:        items,
		VisitorKey:   visitorKey(c),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListMyOrders 获取当前用户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
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
	response.SuccessWithPage(c, orders, pagination)
}

// GetMyOrder 获取当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByOrderNo(strings.TrimSpace(c.Param("order_no")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.UserID != uid {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	response.Success(c, order)
}

// PayMyOrder 支付订单（沙箱直接标记已支付）
func (h *Handler) PayMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByOrderNo(strings.TrimSpace(c.Param("order_no")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.UserID != uid {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	paid, err := h.OrderService.MarkPaid(order.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, paid)
}

// CancelMyOrder 用户取消待支付订单
func (h *Handler) CancelMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByOrderNo(strings.TrimSpace(c.Param("order_no")))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.UserID != uid {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	canceled, err := h.OrderService.Cancel(order.ID, "user_cancelled")
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, canceled)
}
