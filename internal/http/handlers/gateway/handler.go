// Package gateway serves every registered entity through one set of generic
// list/get/create/update/delete handlers.
package gateway

import (
	"strings"

	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/provider"
	"github.com/polbel-next/internal/schema"

	"github.com/gin-gonic/gin"
)

// Handler 实体网关处理器
type Handler struct {
	*provider.Container
}

// New 创建实体网关处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

const entityKey = "entity"

// BindEntity 将路由对应的实体写入上下文
func BindEntity(entity schema.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(entityKey, entity)
		c.Next()
	}
}

func entityParam(c *gin.Context) schema.Entity {
	if value, ok := c.Get(entityKey); ok {
		if entity, ok := value.(schema.Entity); ok {
			return entity
		}
	}
	return schema.Entity(strings.TrimSpace(c.Param("entity")))
}

func (h *Handler) respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err, h.Config.Database.Secrets())
}
