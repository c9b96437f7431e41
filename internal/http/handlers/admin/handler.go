package admin

import (
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，路由层已保证调用方为管理员。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func (h *Handler) respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, h.Config.Database.Secrets())
}
