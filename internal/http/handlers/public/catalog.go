package public

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCategories 获取分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, categories)
}

// ListProducts 获取上架商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   uint(categoryID),
		Search:       strings.TrimSpace(c.Query("search")),
		OnlyActive:   true,
		WithCategory: true,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetProduct 按 slug 获取商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	product, err := h.ProductService.GetBySlug(slug)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, product)
}
