package admin

import (
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RegisterAdmin 创建管理员
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req service.RegisterAdminInput
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "request body must be a JSON object", nil)
		return
	}
	admin, err := h.AuthService.RegisterAdmin(req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	var byAdminID uint
	if actor := handlershared.GetActor(c); actor != nil {
		byAdminID = actor.AdminID
	}
	handlershared.RequestLog(c).Infow("admin_register_served",
		"admin_id", admin.ID,
		"by_admin_id", byAdminID,
	)
	response.Message(c, response.CodeCreated, "admin registered")
}

// GetCurrentAdmin 获取当前管理员
func (h *Handler) GetCurrentAdmin(c *gin.Context) {
	actor := handlershared.GetActor(c)
	if !actor.IsAdmin() {
		h.respondServiceError(c, service.ErrForbidden)
		return
	}
	admin, err := h.AuthService.GetAdmin(actor.AdminID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, admin)
}
