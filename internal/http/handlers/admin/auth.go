package admin

import (
	"github.com/vietcart-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 管理员修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	admin, token, expiresAt, err := h.AuthService.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"admin": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
	})
}

// ChangePassword 管理员修改密码（旧 token 全部失效）
func (h *Handler) ChangePassword(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.AuthService.ChangePassword(adminID, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
