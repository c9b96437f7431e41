package models

import "time"

// Comment 文章评论表，新评论默认未审核
type Comment struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	PostID      uint      `gorm:"not null;index" json:"post_id"`
	AuthorName  string    `gorm:"size:128;not null" json:"author_name"`
	AuthorEmail string    `gorm:"size:255" json:"author_email"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Approved    bool      `gorm:"not null;index" json:"approved"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "blog_comments"
}
