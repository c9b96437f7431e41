package models

import "time"

// Post 博客文章表
// tags 以 JSON 文本存储，publish_date 允许为空。
type Post struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Excerpt     string    `gorm:"type:text" json:"excerpt"`
	Content     string    `gorm:"type:text" json:"content"`
	CoverImage  string    `gorm:"size:512" json:"cover_image"`
	Category    string    `gorm:"size:32;index" json:"category"`
	Tags        string    `gorm:"type:text" json:"tags"`
	AuthorName  string    `gorm:"size:128" json:"author_name"`
	PublishDate *string   `gorm:"type:date" json:"publish_date"`
	Published   bool      `gorm:"not null;index" json:"published"`
	ReadTime    int       `gorm:"not null" json:"read_time"`
	Views       int64     `gorm:"not null" json:"views"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Post) TableName() string {
	return "blog_posts"
}
