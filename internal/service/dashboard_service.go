package service

import (
	"context"
	"time"

	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
)

const (
	dashboardCacheTTL = 45 * time.Second
	dashboardCacheKey = "dashboard:stats"
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页核心经营数据。
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService 创建仪表盘服务
// 统计涉及的实体发生写入时清除缓存。
func NewDashboardService(repo repository.DashboardRepository, entities *EntityService) *DashboardService {
	s := &DashboardService{repo: repo}
	if entities != nil {
		hooks := EntityHooks{
			AfterCreate: func(ctx context.Context, _ uint, _ Record) { s.InvalidateStats(ctx) },
			AfterUpdate: func(ctx context.Context, _ uint, _ Record, _ Record) { s.InvalidateStats(ctx) },
			AfterDelete: func(ctx context.Context, _ uint) { s.InvalidateStats(ctx) },
		}
		for _, entity := range []schema.Entity{schema.EntityOrder, schema.EntityProduct, schema.EntityPost, schema.EntityComment} {
			entities.Use(entity, hooks)
		}
	}
	return s
}

// DashboardStats 仪表盘统计
type DashboardStats struct {
	OrdersTotal     int64        `json:"orders_total"`
	NewOrders       int64        `json:"new_orders"`
	CompletedOrders int64        `json:"completed_orders"`
	Products        int64        `json:"products"`
	PublishedPosts  int64        `json:"published_posts"`
	PendingComments int64        `json:"pending_comments"`
	Revenue         models.Money `json:"revenue"`
}

// OrderStatusOption 订单状态及可流转目标
type OrderStatusOption struct {
	Status      string   `json:"status"`
	Transitions []string `json:"transitions"`
}

// GetStats 获取仪表盘统计，forceRefresh 时跳过缓存
func (s *DashboardService) GetStats(ctx context.Context, forceRefresh bool) (*DashboardStats, error) {
	if !forceRefresh {
		var cached DashboardStats
		hit, cacheErr := cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if cacheErr != nil {
			logger.Debugw("dashboard_cache_read_failed", "error", cacheErr)
		}
		if hit {
			return &cached, nil
		}
	}

	row, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, storageErr("dashboard stats", err)
	}
	stats := &DashboardStats{
		OrdersTotal:     row.OrdersTotal,
		NewOrders:       row.NewOrders,
		CompletedOrders: row.CompletedOrders,
		Products:        row.Products,
		PublishedPosts:  row.PublishedPosts,
		PendingComments: row.PendingComments,
		Revenue:         row.Revenue,
	}
	_ = cache.SetJSON(ctx, dashboardCacheKey, stats, dashboardCacheTTL)
	return stats, nil
}

// InvalidateStats 清除仪表盘缓存
func (s *DashboardService) InvalidateStats(ctx context.Context) {
	if err := cache.Del(ctx, dashboardCacheKey); err != nil {
		logger.Debugw("dashboard_cache_invalidate_failed", "error", err)
	}
}

// OrderStatusOptions 返回全部订单状态及其允许的流转
func (s *DashboardService) OrderStatusOptions() []OrderStatusOption {
	out := make([]OrderStatusOption, 0, len(constants.OrderStatuses))
	for _, status := range constants.OrderStatuses {
		out = append(out, OrderStatusOption{Status: status, Transitions: AllowedTransitions(status)})
	}
	return out
}
