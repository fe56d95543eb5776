package public

import (
	"strings"

	"github.com/vietcart-next/internal/http/response"
	"github.com/vietcart-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterRequest 用户注册请求
type RegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	DisplayName  string `json:"display_name"`
	Phone        string `json:"phone"`
	Locale       string `json:"locale"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest 用户登录请求
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateProfileRequest 更新资料请求
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Locale      *string `json:"locale"`
}

// Register 用户注册
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.Register(service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Phone:        strings.TrimSpace(req.Phone),
		Locale:       strings.TrimSpace(req.Locale),
		ReferralCode: strings.TrimSpace(req.ReferralCode),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	token, expiresAt, err := h.UserAuthService.GenerateJWT(user, false)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}

// Login 用户登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password, req.RememberMe)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}

// GetProfile 获取当前用户资料
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetProfile(uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateProfile 更新当前用户资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.UpdateProfile(uid, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Locale:      req.Locale,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// ChangePassword 修改当前用户密码
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.UserAuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
