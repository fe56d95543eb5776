package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryRequest 分类创建/更新请求
type CategoryRequest struct {
	Slug      string      `json:"slug"`
	Name      models.JSON `json:"name"`
	Icon      string      `json:"icon"`
	SortOrder *int        `json:"sort_order"`
}

// ListAllCategories 获取分类列表
func (h *Handler) ListAllCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, categories)
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Create(service.CategoryInput{
		Slug:      strings.TrimSpace(req.Slug),
		NameJSON:  req.Name,
		Icon:      strings.TrimSpace(req.Icon),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, category)
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	category, err := h.CategoryService.Update(uint(id), service.CategoryInput{
		Slug:      strings.TrimSpace(req.Slug),
		NameJSON:  req.Name,
		Icon:      strings.TrimSpace(req.Icon),
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, category)
}

// DeleteCategory 删除分类（分类下仍有商品时拒绝）
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.CategoryService.Delete(uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
