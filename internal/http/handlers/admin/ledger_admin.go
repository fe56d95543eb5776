package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListLedgerEntries 获取账本流水列表
func (h *Handler) ListLedgerEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	entries, total, err := h.LedgerService.List(repository.LedgerListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uint(userID),
		EntryType: strings.TrimSpace(c.Query("entry_type")),
		Reference: strings.TrimSpace(c.Query("reference")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, entries, pagination)
}

// ReconcileUserLedger 核对单个用户余额
func (h *Handler) ReconcileUserLedger(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.LedgerService.Reconcile(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, result)
}
