package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money 统一金额类型（保留 2 位小数）
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(2)}
}

// ParseMoney 解析字符串或数字金额
func ParseMoney(value interface{}) (Money, error) {
	switch v := value.(type) {
	case Money:
		return v, nil
	case decimal.Decimal:
		return NewMoneyFromDecimal(v), nil
	case float64:
		return NewMoneyFromDecimal(decimal.NewFromFloat(v)), nil
	case float32:
		return NewMoneyFromDecimal(decimal.NewFromFloat32(v)), nil
	case int:
		return NewMoneyFromDecimal(decimal.NewFromInt(int64(v))), nil
	case int64:
		return NewMoneyFromDecimal(decimal.NewFromInt(v)), nil
	case json.Number:
		return ParseMoney(string(v))
	case []byte:
		return ParseMoney(string(v))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(v, ",", ".")))
		if err != nil {
			return Money{}, fmt.Errorf("invalid amount %q", v)
		}
		return NewMoneyFromDecimal(d), nil
	case nil:
		return Money{}, fmt.Errorf("amount is empty")
	default:
		return Money{}, fmt.Errorf("unsupported amount type %T", value)
	}
}

// MarshalJSON 输出数值（保留 2 位小数）
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.Round(2).StringFixed(2)), nil
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(2).Value()
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(2)
	return nil
}

// Float 返回 float64 形式，供 JSON 响应使用
func (m Money) Float() float64 {
	f, _ := m.Decimal.Round(2).Float64()
	return f
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}
