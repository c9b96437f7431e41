package models

import (
	"errors"
	"strings"

	"github.com/polbel-next/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureDefaultAdmin 库中没有管理员时按配置创建首个管理员
func EnsureDefaultAdmin(db *gorm.DB, name, email, password string) error {
	if db == nil {
		return errors.New("database is not initialized")
	}
	var count int64
	if err := db.Model(&AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		logger.Warnw("default_admin_skipped", "reason", "default_admin.email or default_admin.password not configured")
		return nil
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := AdminUser{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	return nil
}
