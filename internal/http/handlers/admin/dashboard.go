package admin

import (
	"strings"

	"github.com/polbel-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboardStats 获取仪表盘统计
func (h *Handler) GetDashboardStats(c *gin.Context) {
	forceRefresh := parseBoolQuery(c.Query("force_refresh"))
	stats, err := h.DashboardService.GetStats(c.Request.Context(), forceRefresh)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// GetOrderStatuses 获取订单状态及可流转目标
func (h *Handler) GetOrderStatuses(c *gin.Context) {
	response.Success(c, h.DashboardService.OrderStatusOptions())
}

func parseBoolQuery(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
