package repository

import (
	"context"

	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/models"

	"gorm.io/gorm"
)

// DashboardStatsRow 仪表盘统计原始数据
type DashboardStatsRow struct {
	OrdersTotal     int64
	NewOrders       int64
	CompletedOrders int64
	Products        int64
	PublishedPosts  int64
	PendingComments int64
	Revenue         models.Money
}

// DashboardRepository 仪表盘数据访问接口
type DashboardRepository interface {
	GetStats(ctx context.Context) (DashboardStatsRow, error)
	SumCompletedRevenue(ctx context.Context) (models.Money, error)
}

// GormDashboardRepository GORM 实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetStats 获取后台首页统计
func (r *GormDashboardRepository) GetStats(ctx context.Context) (DashboardStatsRow, error) {
	result := DashboardStatsRow{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Order{}).Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", constants.OrderStatusNew).Count(&result.NewOrders).Error; err != nil {
		return result, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", constants.OrderStatusCompleted).Count(&result.CompletedOrders).Error; err != nil {
		return result, err
	}
	if err := db.Model(&models.Product{}).Count(&result.Products).Error; err != nil {
		return result, err
	}
	if err := db.Model(&models.Post{}).Where("published = ?", true).Count(&result.PublishedPosts).Error; err != nil {
		return result, err
	}
	if err := db.Model(&models.Comment{}).Where("approved = ?", false).Count(&result.PendingComments).Error; err != nil {
		return result, err
	}

	revenue, err := r.SumCompletedRevenue(ctx)
	if err != nil {
		return result, err
	}
	result.Revenue = revenue
	return result, nil
}

// SumCompletedRevenue 汇总已完成订单金额，其他状态不计入营收
func (r *GormDashboardRepository) SumCompletedRevenue(ctx context.Context) (models.Money, error) {
	var total models.Money
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", constants.OrderStatusCompleted).
		Select("COALESCE(SUM(total), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return models.Money{}, err
	}
	return total, nil
}
