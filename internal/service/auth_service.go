package service

import (
	"context"
	"errors"
	"time"

	"github.com/vietcart-next/internal/cache"
	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理端认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *AuthService) ValidatePassword(password string) error {
	if s == nil || s.cfg == nil {
		return nil
	}
	return validatePassword(s.cfg.Security.PasswordPolicy, password)
}

// JWTClaims 管理端 JWT 声明，携带 token_version 支持全量吊销。
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成管理端 JWT Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析管理端 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("无效的 token")
	}
	return claims, nil
}

// Login 管理员登录，成功后刷新登录时间并回填鉴权缓存。
func (s *AuthService) Login(username, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin))

	return admin, token, expiresAt, nil
}

// ChangePassword 修改管理员密码，令牌版本递增使旧 Token 全量失效。
func (s *AuthService) ChangePassword(adminID uint, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrNotFound
	}
	if err := s.VerifyPassword(admin.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	admin.PasswordHash = hashedPassword
	admin.TokenVersion++
	admin.TokenInvalidBefore = &now
	if err := s.adminRepo.Update(admin); err != nil {
		return err
	}
	_ = cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin))
	return nil
}
