package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	CategoryID         uint               `json:"category_id"`
	Slug               string             `json:"slug"`
	Title              models.JSON        `json:"title"`
	Description        models.JSON        `json:"description"`
	PriceAmount        *string            `json:"price_amount"`
	Images             models.StringArray `json:"images"`
	Tags               models.StringArray `json:"tags"`
	StockTotal         *int               `json:"stock_total"`
	IsAffiliateEnabled *bool              `json:"is_affiliate_enabled"`
	CommissionRate     *string            `json:"commission_rate"`
	ClearRate          bool               `json:"clear_rate"`
	IsActive           *bool              `json:"is_active"`
	SortOrder          *int               `json:"sort_order"`
}

func (r ProductRequest) toInput() (service.ProductInput, error) {
	input := service.ProductInput{
		CategoryID:         r.CategoryID,
		Slug:               strings.TrimSpace(r.Slug),
		TitleJSON:          r.Title,
		DescriptionJSON:    r.Description,
		Images:             r.Images,
		Tags:               r.Tags,
		StockTotal:         r.StockTotal,
		IsAffiliateEnabled: r.IsAffiliateEnabled,
		ClearRate:          r.ClearRate,
		IsActive:           r.IsActive,
		SortOrder:          r.SortOrder,
	}
	if r.PriceAmount != nil && strings.TrimSpace(*r.PriceAmount) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.PriceAmount))
		if err != nil {
			return input, err
		}
		input.PriceAmount = &price
	}
	if r.CommissionRate != nil && strings.TrimSpace(*r.CommissionRate) != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(*r.CommissionRate))
		if err != nil {
			return input, err
		}
		input.CommissionRate = &rate
	}
	return input, nil
}

// ListAllProducts 获取商品列表（含下架）
func (h *Handler) ListAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   uint(categoryID),
		Search:       strings.TrimSpace(c.Query("search")),
		WithCategory: true,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetProductDetail 获取商品详情
func (h *Handler) GetProductDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(uint(id), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.ProductService.Delete(uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
