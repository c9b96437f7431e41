package shared

import (
	"errors"
	"strings"

	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const redactedMark = "[redacted]"

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
}

// serviceErrorRules 按顺序匹配，先命中者生效。
var serviceErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound},
	{target: service.ErrOperationNotAllowed, code: response.CodeMethodNotAllowed},
	{target: service.ErrOrderTotalMismatch, code: response.CodeBadRequest},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest},
	{target: service.ErrEmailExists, code: response.CodeBadRequest},
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest},
	{target: service.ErrValidation, code: response.CodeBadRequest},
	{target: service.ErrSlugExists, code: response.CodeConflict},
	{target: service.ErrConflict, code: response.CodeConflict},
	{target: service.ErrInvalidOrderStatus, code: response.CodeConflict},
	{target: service.ErrOrderNumberExists, code: response.CodeConflict},
	{target: service.ErrUnauthorized, code: response.CodeForbidden},
	{target: service.ErrForbidden, code: response.CodeForbidden},
}

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// RespondServiceError 按错误类型映射 HTTP 状态
// 存储错误返回 500 与脱敏后的 details，其余错误只返回 {error}。
func RespondServiceError(c *gin.Context, err error, secrets []string) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.Message(c, response.CodeUnauthorized, err.Error())
		return
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.code, err.Error())
			return
		}
	}

	appErr := response.WrapError(response.CodeInternal, "internal server error", err)
	appErr.Details = Redact(err.Error(), secrets)
	RequestLog(c).Errorw("handler_error",
		"code", appErr.Code,
		"path", c.Request.URL.Path,
		"error", appErr.Details,
	)
	if errors.Is(err, service.ErrStorage) {
		appErr.Message = "storage failure"
	}
	response.ErrorWithDetails(c, appErr.Code, appErr.Message, appErr.Details)
}

// Redact 将敏感片段替换为占位符
func Redact(msg string, secrets []string) string {
	for _, secret := range secrets {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactedMark)
	}
	return msg
}
