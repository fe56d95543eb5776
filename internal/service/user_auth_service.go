package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vietcart-next/internal/cache"
	"github.com/vietcart-next/internal/config"
	"github.com/vietcart-next/internal/constants"
	"github.com/vietcart-next/internal/models"
	"github.com/vietcart-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserAuthService 用户端认证服务
type UserAuthService struct {
	cfg             *config.Config
	userRepo        repository.UserRepository
	referralService *ReferralService
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository, referralService *ReferralService) *UserAuthService {
	return &UserAuthService{
		cfg:             cfg,
		userRepo:        userRepo,
		referralService: referralService,
	}
}

// UserJWTClaims 用户端 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// RegisterInput 注册输入
type RegisterInput struct {
	Email        string
	Password     string
	DisplayName  string
	Phone        string
	Locale       string
	ReferralCode string
}

// Register 用户注册，携带推荐码时绑定上级推荐人
func (s *UserAuthService) Register(input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrValidation
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, input.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = constants.LocaleViVN
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Phone:        strings.TrimSpace(input.Phone),
		Locale:       locale,
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if err := s.referralService.EnsureReferralCode(user); err != nil {
		return nil, err
	}

	if code := strings.TrimSpace(input.ReferralCode); code != "" {
		referrer, err := s.referralService.ResolveReferrer(code)
		if err != nil {
			return nil, err
		}
		if referrer != nil {
			if err := s.referralService.SetReferrer(user.ID, referrer.ID); err != nil &&
				!errors.Is(err, ErrCyclicReferral) {
				return nil, err
			}
		}
	}
	return user, nil
}

// Login 用户登录
func (s *UserAuthService) Login(email, password string, rememberMe bool) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if user == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrAccountDisabled
	}

	token, expiresAt, err := s.GenerateJWT(user, rememberMe)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))

	return user, token, expiresAt, nil
}

// GenerateJWT 生成用户端 JWT Token
func (s *UserAuthService) GenerateJWT(user *models.User, rememberMe bool) (string, time.Time, error) {
	expireHours := s.cfg.UserJWT.ExpireHours
	if rememberMe && s.cfg.UserJWT.RememberMeExpireHours > 0 {
		expireHours = s.cfg.UserJWT.RememberMeExpireHours
	}
	if expireHours <= 0 {
		expireHours = 24
	}
	expiresAt := time.Now().Add(time.Duration(expireHours) * time.Hour)

	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析用户端 JWT Token
func (s *UserAuthService) ParseJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &UserJWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// ChangePassword 修改用户密码（旧 Token 全量失效）
func (s *UserAuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidPassword
	}
	if err := validatePassword(s.cfg.Security.PasswordPolicy, newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user.PasswordHash = string(hash)
	user.TokenVersion++
	user.TokenInvalidBefore = &now
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return nil
}

// GetProfile 获取当前用户资料
func (s *UserAuthService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// UpdateProfileInput 更新资料输入
type UpdateProfileInput struct {
	DisplayName *string
	Phone       *string
	Locale      *string
}

// UpdateProfile 更新当前用户资料
func (s *UserAuthService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Locale != nil {
		locale := strings.TrimSpace(*input.Locale)
		for _, supported := range constants.SupportedLocales {
			if locale == supported {
				user.Locale = locale
				break
			}
		}
	}
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	_ = cache.SetUserAuthState(context.Background(), cache.BuildUserAuthState(user))
	return user, nil
}
