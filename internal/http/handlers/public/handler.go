package public

import (
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 公共接口处理器
type Handler struct {
	*provider.Container
}

// New 创建公共接口处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func (h *Handler) respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, h.Config.Database.Secrets())
}
