package admin

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewWithdrawalRequest 审核提现请求
type ReviewWithdrawalRequest struct {
	Action        string `json:"action" binding:"required"`
	AdminNote     string `json:"admin_note"`
	TransactionID string `json:"transaction_id"`
}

// ListWithdrawals 获取提现申请列表
func (h *Handler) ListWithdrawals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	withdrawals, total, err := h.WithdrawalService.List(repository.WithdrawalListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, withdrawals, pagination)
}

// GetWithdrawal 获取提现申请详情
func (h *Handler) GetWithdrawal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	withdrawal, err := h.WithdrawalService.GetByID(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ReviewWithdrawal 审核提现申请（批准即打款完成，驳回需填备注）
func (h *Handler) ReviewWithdrawal(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req ReviewWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	withdrawal, err := h.WithdrawalService.Review(adminID, uint(id), service.ReviewWithdrawalInput{
		Action:        strings.ToLower(strings.TrimSpace(req.Action)),
		AdminNote:     strings.TrimSpace(req.AdminNote),
		TransactionID: strings.TrimSpace(req.TransactionID),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// VerifyBankAccountRequest 收款账户验证请求
type VerifyBankAccountRequest struct {
	Verified bool `json:"verified"`
}

// ListBankAccounts 获取收款账户列表
func (h *Handler) ListBankAccounts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	accounts, total, err := h.BankAccountService.List(repository.BankAccountListFilter{
		Page:         page,
		PageSize:     pageSize,
		UserID:       uint(userID),
		VerifiedOnly: c.Query("verified_only") == "true",
		Keyword:      strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, accounts, pagination)
}

// VerifyBankAccount 标记收款账户验证状态
func (h *Handler) VerifyBankAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req VerifyBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	account, err := h.BankAccountService.Verify(uint(id), req.Verified)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}
