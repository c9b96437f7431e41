package models

import "time"

// AdminUser 管理员表
type AdminUser struct {
	ID           uint       `gorm:"primarykey" json:"id"`                       // 主键
	Name         string     `gorm:"size:128;not null" json:"name"`              // 显示名称
	Email        string     `gorm:"size:191;uniqueIndex;not null" json:"email"` // 登录邮箱
	PasswordHash string     `gorm:"size:255;not null" json:"-"`                 // 密码哈希（不返回给前端）
	TokenVersion uint64     `gorm:"not null" json:"-"`                          // Token 版本（用于全量失效）
	LastLoginAt  *time.Time `json:"last_login_at"`                              // 最后登录时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                    // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                 // 更新时间
}

// TableName 指定表名
func (AdminUser) TableName() string {
	return "admin_users"
}
