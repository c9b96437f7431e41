package shared

import (
	"github.com/polbel-next/internal/service"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ActorKey   = "actor"
	AdminIDKey = "admin_id"
)

// SetActor 写入当前调用方
func SetActor(c *gin.Context, actor *service.Actor) {
	if actor == nil {
		return
	}
	c.Set(ActorKey, actor)
	c.Set(AdminIDKey, actor.AdminID)
}

// GetActor 读取当前调用方，游客返回 nil
func GetActor(c *gin.Context) *service.Actor {
	value, exists := c.Get(ActorKey)
	if !exists {
		return nil
	}
	actor, _ := value.(*service.Actor)
	return actor
}
