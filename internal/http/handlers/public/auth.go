package public

import (
	"time"

	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/models"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string            `json:"token"`
	User      *models.AdminUser `json:"user"`
	ExpiresAt string            `json:"expires_at"`
}

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "request body must be a JSON object", nil)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	handlershared.RequestLog(c).Infow("admin_login", "admin_id", admin.ID)
	response.Success(c, LoginResponse{
		Token:     token,
		User:      admin,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
