package public

import (
	"strconv"
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/repository"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// BankAccountRequest 收款账户请求
type BankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	Branch        string `json:"branch"`
	IsDefault     bool   `json:"is_default"`
}

// WithdrawalRequest 提现申请请求
type WithdrawalRequest struct {
	BankAccountID uint   `json:"bank_account_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	UserNote      string `json:"user_note"`
}

// ListMyBankAccounts 获取我的收款账户
func (h *Handler) ListMyBankAccounts(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	accounts, err := h.BankAccountService.ListByUser(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, accounts)
}

// CreateMyBankAccount 新增收款账户
func (h *Handler) CreateMyBankAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req BankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	account, err := h.BankAccountService.Create(uid, service.BankAccountInput{
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountName:   strings.TrimSpace(req.AccountName),
		Branch:        strings.TrimSpace(req.Branch),
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}

// UpdateMyBankAccount 更新收款账户
// 关键字段变更后需重新验证
func (h *Handler) UpdateMyBankAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req BankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	account, err := h.BankAccountService.Update(uid, uint(id), service.BankAccountInput{
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountName:   strings.TrimSpace(req.AccountName),
		Branch:        strings.TrimSpace(req.Branch),
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, account)
}

// DeleteMyBankAccount 删除收款账户
func (h *Handler) DeleteMyBankAccount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.BankAccountService.Delete(uid, uint(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// RequestWithdrawal 提交提现申请
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	withdrawal, err := h.WithdrawalService.Request(uid, service.RequestWithdrawalInput{
		BankAccountID: req.BankAccountID,
		Amount:        amount,
		UserNote:      strings.TrimSpace(req.UserNote),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// CancelMyWithdrawal 取消待审核提现申请
func (h *Handler) CancelMyWithdrawal(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	withdrawal, err := h.WithdrawalService.Cancel(uid, uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, withdrawal)
}

// ListMyWithdrawals 获取我的提现申请记录
func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	withdrawals, total, err := h.WithdrawalService.List(repository.WithdrawalListFilter{
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
	response.SuccessWithPage(c, withdrawals, pagination)
}
