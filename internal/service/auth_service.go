package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 管理员认证服务
// Token 为无状态 HS256 JWT，撤销依赖 token_version 与管理员是否仍存在。
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
	now       func() time.Time
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
		now:       time.Now,
	}
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

// JWTClaims JWT 声明
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成 JWT Token
func (s *AuthService) GenerateJWT(admin *models.AdminUser) (string, time.Time, error) {
	now := s.now()
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	expiresAt := now.Add(time.Duration(hours) * time.Hour)

	claims := JWTClaims{
		AdminID:      admin.ID,
		Email:        admin.Email,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	if strings.TrimSpace(s.cfg.JWT.SecretKey) == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.AdminID > 0 {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Authenticate 校验 Token 并确认管理员仍然有效
// 优先读取 Redis 鉴权快照，未命中时回源数据库。
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*Actor, error) {
	claims, err := s.ParseJWT(tokenString)
	if err != nil {
		return nil, ErrForbidden
	}

	if cached, hit, cacheErr := cache.GetAdminAuthState(ctx, claims.AdminID); cacheErr == nil && hit && cached != nil {
		if cached.TokenVersion != claims.TokenVersion {
			return nil, ErrForbidden
		}
		return &Actor{AdminID: claims.AdminID, Email: cached.Email}, nil
	}

	admin, err := s.adminRepo.GetByID(claims.AdminID)
	if err != nil {
		logger.Warnw("auth_admin_lookup_failed", "admin_id", claims.AdminID, "error", err)
		return nil, ErrForbidden
	}
	if admin == nil || admin.TokenVersion != claims.TokenVersion {
		return nil, ErrForbidden
	}
	_ = cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin))
	return &Actor{AdminID: admin.ID, Email: admin.Email}, nil
}

// Login 管理员登录
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AdminUser, string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, storageErr("find admin", err)
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

	now := s.now()
	if err := s.adminRepo.TouchLastLogin(admin.ID, now); err != nil {
		logger.Warnw("admin_touch_last_login_failed", "admin_id", admin.ID, "error", err)
	} else {
		admin.LastLoginAt = &now
	}
	_ = cache.SetAdminAuthState(ctx, cache.BuildAdminAuthState(admin))
	return admin, token, expiresAt, nil
}

// RegisterAdminInput 创建管理员参数
type RegisterAdminInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterAdmin 由已登录管理员创建新管理员
func (s *AuthService) RegisterAdmin(input RegisterAdminInput) (*models.AdminUser, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "must be a valid email address")
	}
	if input.Password == "" {
		return nil, invalid("password", "is required")
	}
	if err := s.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	existing, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, storageErr("find admin", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.AdminUser{Name: name, Email: email, PasswordHash: hash}
	if err := s.adminRepo.Create(admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, storageErr("create admin", err)
	}
	logger.Infow("admin_registered", "admin_id", admin.ID, "email", admin.Email)
	return admin, nil
}

// GetAdmin 获取管理员资料
func (s *AuthService) GetAdmin(adminID uint) (*models.AdminUser, error) {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return nil, storageErr("find admin", err)
	}
	if admin == nil {
		return nil, ErrNotFound
	}
	return admin, nil
}

// RevokeAdmin 管理员被删除后清理鉴权快照
func (s *AuthService) RevokeAdmin(ctx context.Context, adminID uint) {
	if err := cache.DelAdminAuthState(ctx, adminID); err != nil {
		logger.Warnw("admin_auth_state_del_failed", "admin_id", adminID, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
