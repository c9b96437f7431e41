package gateway

import (
	handlershared "github.com/polbel-next/internal/http/handlers/shared"
	"github.com/polbel-next/internal/http/response"
	"github.com/polbel-next/internal/schema"

	"github.com/gin-gonic/gin"
)

const postViewsField = "views"

// List 获取实体列表，查询参数 ?field=value 作为等值筛选
func (h *Handler) List(c *gin.Context) {
	filters := make(map[string]interface{})
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	records, err := h.EntityService.List(c.Request.Context(), entityParam(c), filters, handlershared.GetActor(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, records)
}

// Get 按 id 或 slug 获取实体
func (h *Handler) Get(c *gin.Context) {
	record, err := h.EntityService.Get(c.Request.Context(), entityParam(c), c.Param("id"), handlershared.GetActor(c))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, record)
}

// Create 创建实体
func (h *Handler) Create(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "request body must be a JSON object", nil)
		return
	}

	entity := entityParam(c)
	actor := handlershared.GetActor(c)
	if entity == schema.EntityComment && !actor.IsAdmin() && h.CaptchaService.CommentEnabled() {
		captcha := handlershared.CaptchaPayloadFromRecord(payload)
		if err := h.CaptchaService.Verify(captcha.ToServicePayload()); err != nil {
			h.respondServiceError(c, err)
			return
		}
	}

	record, err := h.EntityService.Create(c.Request.Context(), entity, payload, actor)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Created(c, record)
}

// Update 按 id 更新实体
func (h *Handler) Update(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "request body must be a JSON object", nil)
		return
	}
	if err := h.EntityService.Update(c.Request.Context(), entityParam(c), c.Param("id"), payload, handlershared.GetActor(c)); err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Message(c, response.CodeOK, "updated")
}

// Delete 按 id 删除实体
func (h *Handler) Delete(c *gin.Context) {
	if err := h.EntityService.Delete(c.Request.Context(), entityParam(c), c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Message(c, response.CodeOK, "deleted")
}

// IncrementPostView 文章浏览量 +1
func (h *Handler) IncrementPostView(c *gin.Context) {
	if err := h.EntityService.Increment(c.Request.Context(), schema.EntityPost, c.Param("id"), postViewsField); err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Message(c, response.CodeOK, "view recorded")
}
