package models

import "time"

// SiteContent 站点文案表，按 section_key 覆盖写入
type SiteContent struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SectionKey  string    `gorm:"size:191;uniqueIndex;not null" json:"section_key"`
	Value       string    `gorm:"type:text" json:"value"`
	ContentType string    `gorm:"size:32;not null" json:"content_type"`
	Page        string    `gorm:"size:64;not null;index" json:"page"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SiteContent) TableName() string {
	return "site_content"
}
