// Package transform converts records between the JSON shapes clients send
// and the column values the relational store keeps, driven by the schema
// registry.
package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/schema"

	"github.com/shopspring/decimal"
)

// Mode 写入模式
type Mode int

// 写入模式
const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Audience 读取方
type Audience int

// 读取方
const (
	AudienceGuest Audience = iota
	AudienceAdmin
)

const dateLayout = "2006-01-02"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// FieldError 字段校验错误
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate 校验必填字段与 slug 格式
func Validate(def *schema.Definition, record map[string]interface{}, mode Mode) error {
	for _, f := range def.Fields {
		if !f.Writable(mode == ModeUpdate) {
			continue
		}
		value, present := record[f.Name]
		if f.Required {
			if mode == ModeCreate && !present {
				return &FieldError{Field: f.Name, Reason: "is required"}
			}
			if present && isBlank(value) {
				return &FieldError{Field: f.Name, Reason: "must not be empty"}
			}
		}
		if f.Name == "slug" && present {
			slug, _ := value.(string)
			if !slugPattern.MatchString(slug) {
				return &FieldError{Field: f.Name, Reason: "must contain only lowercase letters, digits and single hyphens"}
			}
		}
	}
	return nil
}

// ToStorage 将客户端记录转换为可写入的列值
// 未登记字段、只读字段和 id 会被丢弃；更新模式下不可变字段同样丢弃。
func ToStorage(def *schema.Definition, record map[string]interface{}, mode Mode) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(record))
	for key, value := range record {
		if key == "id" {
			continue
		}
		f, ok := def.Field(key)
		if !ok || !f.Writable(mode == ModeUpdate) {
			continue
		}
		stored, err := toColumn(f, value)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Reason: err.Error()}
		}
		out[f.Name] = stored
	}
	return out, nil
}

// FromStorage 将数据库行转换为客户端形态
// JSON 字段解析失败时返回空数组，不向调用方报错。
func FromStorage(def *schema.Definition, row map[string]interface{}, audience Audience) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for column, value := range row {
		if column == "id" {
			out["id"] = normalizeID(value)
			continue
		}
		f, ok := def.Field(column)
		if !ok || f.Hidden {
			continue
		}
		if f.AdminOnly && audience != AudienceAdmin {
			continue
		}
		out[column] = fromColumn(f, value)
	}
	return out
}

// Filters 将等值筛选条件转换为列值，布尔字段保留 bool 以兼容各方言
// 未登记或不可筛选的字段被忽略；取值按字段类型校验，失败时返回 FieldError。
func Filters(def *schema.Definition, params map[string]interface{}, audience Audience) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for key, value := range params {
		f, ok := def.Field(key)
		if !ok || !f.Filterable(audience == AudienceAdmin) {
			continue
		}
		if f.Kind == schema.KindBool {
			out[f.Name] = Truthy(value)
			continue
		}
		stored, err := toColumn(f, value)
		if err != nil {
			return nil, &FieldError{Field: f.Name, Reason: err.Error()}
		}
		out[f.Name] = stored
	}
	return out, nil
}

// Matches 判断数据库行是否满足 Filters 产出的全部条件
func Matches(def *schema.Definition, row map[string]interface{}, conds map[string]interface{}) bool {
	for column, want := range conds {
		f, ok := def.Field(column)
		if !ok {
			return false
		}
		if fmt.Sprint(fromColumn(f, row[column])) != fmt.Sprint(fromColumn(f, want)) {
			return false
		}
	}
	return true
}

// Truthy 按宽松规则判断布尔值
func Truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int8:
		return v != 0
	case int16:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case uint:
		return v != 0
	case uint8:
		return v != 0
	case uint64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case []byte:
		return Truthy(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "0", "false", "no", "off", "null":
			return false
		}
		return true
	default:
		return true
	}
}

func toColumn(f schema.Field, value interface{}) (interface{}, error) {
	switch f.Kind {
	case schema.KindBool:
		if Truthy(value) {
			return 1, nil
		}
		return 0, nil
	case schema.KindJSON:
		return encodeJSON(value)
	case schema.KindDate:
		return normalizeDate(value)
	case schema.KindDecimal:
		amount, err := models.ParseMoney(value)
		if err != nil {
			return nil, err
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("must not be negative")
		}
		return amount.Decimal, nil
	case schema.KindInt:
		return toInt64(value)
	default:
		text, err := toText(value)
		if err != nil {
			return nil, err
		}
		if !f.Allowed(text) {
			return nil, fmt.Errorf("must be one of %s", strings.Join(f.Enum, ", "))
		}
		return text, nil
	}
}

func fromColumn(f schema.Field, value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	switch f.Kind {
	case schema.KindBool:
		return Truthy(value)
	case schema.KindJSON:
		return decodeJSON(value)
	case schema.KindDate:
		if value == nil {
			return nil
		}
		if date, err := normalizeDate(value); err == nil {
			return date
		}
		return value
	case schema.KindDecimal:
		if value == nil {
			return nil
		}
		amount, err := models.ParseMoney(value)
		if err != nil {
			return value
		}
		return amount.Float()
	case schema.KindInt:
		if value == nil {
			return nil
		}
		if n, err := toInt64(value); err == nil {
			return n
		}
		return value
	default:
		return value
	}
}

func encodeJSON(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return "[]", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("cannot be encoded as JSON")
	}
	return string(b), nil
}

func decodeJSON(value interface{}) interface{} {
	var raw string
	switch v := value.(type) {
	case nil:
		return []interface{}{}
	case string:
		raw = v
	case []interface{}, map[string]interface{}:
		return v
	default:
		return []interface{}{}
	}
	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed == nil {
		return []interface{}{}
	}
	return parsed
}

func normalizeDate(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		return v.Format(dateLayout), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return normalizeDate(*v)
	case []byte:
		return normalizeDate(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t.Format(dateLayout), nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.Format(dateLayout), nil
		}
		if len(s) > len(dateLayout) {
			if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
				return t.Format(dateLayout), nil
			}
		}
		return nil, fmt.Errorf("must be a date in YYYY-MM-DD format")
	default:
		return nil, fmt.Errorf("must be a date in YYYY-MM-DD format")
	}
}

func toText(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool, int, int64, float64, json.Number:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("must be a string")
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("must be an integer")
		}
		return int64(v), nil
	case json.Number:
		return toInt64(string(v))
	case []byte:
		return toInt64(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be an integer")
		}
		return n, nil
	case decimal.Decimal:
		return v.IntPart(), nil
	default:
		return 0, fmt.Errorf("must be an integer")
	}
}

func normalizeID(value interface{}) interface{} {
	if n, err := toInt64(value); err == nil {
		return n
	}
	return value
}

func isBlank(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}
