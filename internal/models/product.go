package models

import "time"

// Product 商品/服务表
type Product struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Slug             string    `gorm:"size:191;uniqueIndex;not null" json:"slug"`
	Description      string    `gorm:"type:text" json:"description"`
	ShortDescription string    `gorm:"size:512" json:"short_description"`
	Price            Money     `gorm:"type:decimal(12,2);not null" json:"price"`
	PriceUnit        string    `gorm:"size:16" json:"price_unit"`
	Category         string    `gorm:"size:32;index" json:"category"`
	Image            string    `gorm:"size:512" json:"image"`
	InStock          bool      `gorm:"not null" json:"in_stock"`
	Featured         bool      `gorm:"not null;index" json:"featured"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
