package models

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/polbel-next/internal/constants"

	"github.com/shopspring/decimal"
)

// Order 订单表
// items 为下单时的商品快照（JSON 文本），不随商品表变化。
type Order struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	OrderNumber     string    `gorm:"size:64;uniqueIndex;not null" json:"order_number"`
	CustomerName    string    `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone   string    `gorm:"size:64;not null" json:"customer_phone"`
	CustomerEmail   string    `gorm:"size:255" json:"customer_email"`
	CustomerAddress string    `gorm:"type:text" json:"customer_address"`
	DeliveryDate    *string   `gorm:"type:date" json:"delivery_date"`
	Notes           string    `gorm:"type:text" json:"notes"`
	Items           string    `gorm:"type:text" json:"items"`
	Total           Money     `gorm:"type:decimal(12,2);not null" json:"total"`
	Status          string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderLine 订单行快照
type OrderLine struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	PriceUnit string `json:"price_unit,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Subtotal 单价 × 数量
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ErrInvalidOrderLines 订单行无法解析
var ErrInvalidOrderLines = errors.New("invalid order items")

// ParseOrderLines 解析订单行，接受 JSON 文本或已解码的数组
func ParseOrderLines(raw interface{}) ([]OrderLine, error) {
	var body []byte
	switch v := raw.(type) {
	case nil:
		return nil, ErrInvalidOrderLines
	case []OrderLine:
		return v, nil
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOrderLines, err)
		}
		body = encoded
	}
	var lines []OrderLine
	if err := json.Unmarshal(body, &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrderLines, err)
	}
	return lines, nil
}

// SumOrderLines 计算 Σ(单价 × 数量)
func SumOrderLines(lines []OrderLine) Money {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return NewMoneyFromDecimal(total)
}

// GenerateOrderNumber 生成订单号：前缀 + base36 毫秒时间戳 + 4 位随机串
// 同一毫秒内仍有极小概率冲突，写入时由唯一索引兜底。
func GenerateOrderNumber(now time.Time) string {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return constants.OrderNumberPrefix + stamp + "-" + randAlphanumeric(4)
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randAlphanumeric(length int) string {
	var b strings.Builder
	limit := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			b.WriteByte('0')
			continue
		}
		b.WriteByte(orderNumberAlphabet[n.Int64()])
	}
	return b.String()
}
