package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string // 包含一个 %d 占位符，表示需等待的秒数
}

const rateLimitUnavailable = "rate limiter unavailable"

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 固定窗口限流
// 未配置 Redis 时直接放行；Redis 异常时拒绝请求。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := rule.key(c, keyFunc)
		count, wait, err := rule.hit(c.Request.Context(), client, key)
		if err != nil {
			logger.Errorw("rate_limit_script_failed", "prefix", rule.Prefix, "error", err)
			response.AbortError(c, response.CodeInternal, rateLimitUnavailable)
			return
		}
		if count > int64(rule.MaxRequests) {
			c.Header("Retry-After", strconv.Itoa(wait))
			logger.Warnw("rate_limited", "prefix", rule.Prefix, "key", key, "count", count, "path", c.FullPath())
			response.AbortError(c, response.CodeTooManyRequests, fmt.Sprintf(rule.message(), wait))
			return
		}
		c.Next()
	}
}

func (r RateLimitRule) key(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if r.Prefix == "" {
		return key
	}
	return r.Prefix + ":" + key
}

// hit 计数加一，返回窗口内次数与剩余秒数
func (r RateLimitRule) hit(ctx context.Context, client *redis.Client, key string) (int64, int, error) {
	result, err := rateLimitScript.Run(ctx, client, []string{key}, r.WindowSeconds).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected script result %T", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return 0, 0, fmt.Errorf("unexpected counter %v", values[0])
	}
	ttl, _ := toInt64(values[1])
	wait := int(ttl)
	if wait < 1 {
		wait = r.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return count, wait, nil
}

func (r RateLimitRule) message() string {
	if format := strings.TrimSpace(r.Message); format != "" {
		return format
	}
	return "too many requests, retry in %d seconds"
}

// LoginRateLimitRule 由配置生成登录限流规则
// 封禁时长大于窗口时以封禁时长作为计数窗口。
func LoginRateLimitRule(cfg config.LoginRateLimitConfig) RateLimitRule {
	window := cfg.WindowSeconds
	if cfg.BlockSeconds > window {
		window = cfg.BlockSeconds
	}
	return RateLimitRule{
		Prefix:        cache.BuildKey("rl:login"),
		WindowSeconds: window,
		MaxRequests:   cfg.MaxAttempts,
		Message:       "too many login attempts, retry in %d seconds",
	}
}

// PublicRateLimitRule 由配置生成游客写入限流规则
func PublicRateLimitRule(cfg config.LoginRateLimitConfig) RateLimitRule {
	return RateLimitRule{
		Prefix:        cache.BuildKey("rl:public"),
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxAttempts,
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	value, ok := payload[field]
	if !ok {
		return ""
	}
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	default:
		return 0, false
	}
}
