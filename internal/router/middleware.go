package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/polbel-next/internal/authz"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/constants"
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const forbiddenMessage = "admin authorization required"

// ActorResolver 由 Bearer Token 解析调用方
type ActorResolver interface {
	Authenticate(ctx context.Context, token string) (*service.Actor, error)
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = logger.Z()
	}
	sugar := base.Named("http").Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		switch {
		case len(c.Errors) > 0:
			log.Errorw("request", "errors", c.Errors.String())
		case c.Writer.Status() >= 500:
			log.Errorw("request")
		case c.Writer.Status() >= 400:
			log.Warnw("request")
		default:
			log.Infow("request")
		}
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// OptionalAdminMiddleware 解析可选的管理员身份
// 携带有效 Token 时写入 actor，否则按游客继续处理。
func OptionalAdminMiddleware(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || resolver == nil {
			c.Next()
			return
		}
		actor, err := resolver.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Debugw("optional_admin_token_rejected",
				"request_id", getRequestID(c),
				"path", c.Request.URL.Path,
				"error", err,
			)
			c.Next()
			return
		}
		handlershared.SetActor(c, actor)
		c.Next()
	}
}

// AdminGuardMiddleware 要求已认证管理员，否则返回 403
func AdminGuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !handlershared.GetActor(c).IsAdmin() {
			response.AbortError(c, response.CodeForbidden, forbiddenMessage)
			return
		}
		c.Next()
	}
}

// AccessMiddleware 按调用方角色执行 casbin 路由授权
// 匹配对象使用实际请求路径，通配实体路由由策略中的 keyMatch2 覆盖。
func AccessMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("access_authz_service_unavailable")
			response.AbortError(c, response.CodeForbidden, forbiddenMessage)
			return
		}

		role := constants.RoleGuest
		actor := handlershared.GetActor(c)
		if actor.IsAdmin() {
			role = constants.RoleAdmin
		}
		allowed, err := authzService.EnforceRole(role, c.Request.URL.Path, c.Request.Method)
		if err != nil {
			logger.Errorw("access_enforce_failed",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.AbortError(c, response.CodeForbidden, forbiddenMessage)
			return
		}
		if !allowed {
			logger.Debugw("access_denied",
				"role", role,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			response.AbortError(c, response.CodeForbidden, forbiddenMessage)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
