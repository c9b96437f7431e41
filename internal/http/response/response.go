package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应结构
type ErrorBody struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// MessageBody 操作结果响应结构
type MessageBody struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Success 200 响应，数据原样输出
func Success(c *gin.Context, data interface{}) {
	c.JSON(CodeOK, data)
}

// Created 201 响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(CodeCreated, data)
}

// Message 带提示消息的响应
func Message(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, MessageBody{Message: msg, RequestID: requestID(c)})
}

// Error 错误响应 {error}
func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, ErrorBody{Error: msg, RequestID: requestID(c)})
}

// ErrorWithDetails 错误响应 {error, details}
func ErrorWithDetails(c *gin.Context, statusCode int, msg, details string) {
	c.JSON(statusCode, ErrorBody{Error: msg, Details: details, RequestID: requestID(c)})
}

// AbortError 中断后续处理并返回错误
func AbortError(c *gin.Context, statusCode int, msg string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: msg, RequestID: requestID(c)})
}

// NotFound 404响应
func NotFound(c *gin.Context, msg string) {
	Error(c, CodeNotFound, msg)
}

// Forbidden 403响应
func Forbidden(c *gin.Context, msg string) {
	Error(c, CodeForbidden, msg)
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
