package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/queue"
	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"

	"github.com/shopspring/decimal"
)

// orderTotalTolerance 客户端金额与订单行合计允许的误差
var orderTotalTolerance = decimal.RequireFromString("0.01")

const orderNumberAttempts = 3

// allowedTransitions 订单状态流转表；completed 与 cancelled 为终态
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusNew: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusInProgress: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusInProgress: {
		constants.OrderStatusCompleted: true,
	},
}

// OrderEventPublisher 订单事件投递
type OrderEventPublisher interface {
	EnqueueOrderCreated(payload queue.OrderCreatedPayload) error
	EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload) error
}

// OrderService 订单生命周期
// 订单读写仍走实体网关，这里只挂载状态机与订单号钩子。
type OrderService struct {
	repo      repository.EntityRepository
	dashboard repository.DashboardRepository
	publisher OrderEventPublisher
	now       func() time.Time
}

// NewOrderService 创建订单服务并注册订单钩子
func NewOrderService(entities *EntityService, repo repository.EntityRepository, dashboardRepo repository.DashboardRepository, publisher OrderEventPublisher) *OrderService {
	s := &OrderService{
		repo:      repo,
		dashboard: dashboardRepo,
		publisher: publisher,
		now:       time.Now,
	}
	entities.Use(schema.EntityOrder, EntityHooks{
		BeforeCreate: s.beforeCreate,
		AfterCreate:  s.afterCreate,
		BeforeUpdate: s.beforeUpdate,
		AfterUpdate:  s.afterUpdate,
	})
	return s
}

// Revenue 已完成订单的金额合计
func (s *OrderService) Revenue(ctx context.Context) (models.Money, error) {
	total, err := s.dashboard.SumCompletedRevenue(ctx)
	if err != nil {
		return models.Money{}, storageErr("sum revenue", err)
	}
	return total, nil
}

// AllowedTransitions 返回给定状态可流转到的状态
func AllowedTransitions(status string) []string {
	out := make([]string, 0, 2)
	for _, next := range constants.OrderStatuses {
		if allowedTransitions[status][next] {
			out = append(out, next)
		}
	}
	return out
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func (s *OrderService) beforeCreate(ctx context.Context, _ *Actor, record Record) error {
	record["status"] = constants.OrderStatusNew

	if err := checkOrderTotal(record["items"], record["total"]); err != nil {
		return err
	}

	def := schema.MustGet(schema.EntityOrder)
	number := strings.TrimSpace(fmt.Sprint(valueOrEmpty(record["order_number"])))
	if number != "" {
		count, err := s.repo.CountByField(ctx, def, "order_number", number, 0)
		if err != nil {
			return storageErr("check order number", err)
		}
		if count > 0 {
			return ErrOrderNumberExists
		}
		record["order_number"] = number
		return nil
	}

	for i := 0; i < orderNumberAttempts; i++ {
		candidate := models.GenerateOrderNumber(s.now())
		count, err := s.repo.CountByField(ctx, def, "order_number", candidate, 0)
		if err != nil {
			return storageErr("check order number", err)
		}
		if count == 0 {
			record["order_number"] = candidate
			return nil
		}
	}
	return ErrOrderNumberExists
}

func (s *OrderService) beforeUpdate(_ context.Context, _ *Actor, current Record, changes Record) error {
	if raw, ok := changes["status"]; ok {
		text, isText := raw.(string)
		target := strings.TrimSpace(text)
		if !isText || !isKnownOrderStatus(target) {
			return invalid("status", "must be one of "+strings.Join(constants.OrderStatuses, ", "))
		}
		from := fmt.Sprint(valueOrEmpty(current["status"]))
		if !isTransitionAllowed(from, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidOrderStatus, from, target)
		}
		changes["status"] = target
	}

	_, itemsChanged := changes["items"]
	_, totalChanged := changes["total"]
	if !itemsChanged && !totalChanged {
		return nil
	}
	items, total := current["items"], current["total"]
	if itemsChanged {
		items = changes["items"]
	}
	if totalChanged {
		total = changes["total"]
	}
	return checkOrderTotal(items, total)
}

func (s *OrderService) afterCreate(_ context.Context, id uint, record Record) {
	number := fmt.Sprint(valueOrEmpty(record["order_number"]))
	logger.Infow("order_created", "order_id", id, "order_number", number)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.EnqueueOrderCreated(queue.OrderCreatedPayload{OrderID: id, OrderNumber: number}); err != nil {
		logger.Warnw("order_created_enqueue_failed", "order_id", id, "error", err)
	}
}

func (s *OrderService) afterUpdate(_ context.Context, id uint, current Record, changes Record) {
	raw, ok := changes["status"]
	if !ok {
		return
	}
	target := fmt.Sprint(raw)
	previous := fmt.Sprint(valueOrEmpty(current["status"]))
	if target == previous {
		return
	}
	logger.Infow("order_status_changed", "order_id", id, "from", previous, "to", target)
	if s.publisher == nil {
		return
	}
	payload := queue.OrderStatusEmailPayload{OrderID: id, Status: target, Previous: previous}
	if err := s.publisher.EnqueueOrderStatusEmail(payload); err != nil {
		logger.Warnw("order_status_email_enqueue_failed", "order_id", id, "status", target, "error", err)
	}
}

// checkOrderTotal 校验客户端金额与 Σ(单价 × 数量) 一致
func checkOrderTotal(rawItems, rawTotal interface{}) error {
	lines, err := models.ParseOrderLines(rawItems)
	if err != nil {
		return invalid("items", "must be a list of order lines")
	}
	if len(lines) == 0 {
		return invalid("items", "must contain at least one item")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return invalid("items", "quantity must be positive")
		}
		if line.Price.IsNegative() {
			return invalid("items", "price must not be negative")
		}
	}
	total, err := models.ParseMoney(rawTotal)
	if err != nil {
		return invalid("total", err.Error())
	}
	expected := models.SumOrderLines(lines)
	if total.Decimal.Sub(expected.Decimal).Abs().GreaterThan(orderTotalTolerance) {
		return fmt.Errorf("%w: total %s, items sum %s", ErrOrderTotalMismatch, total.String(), expected.String())
	}
	return nil
}

func isKnownOrderStatus(status string) bool {
	for _, known := range constants.OrderStatuses {
		if known == status {
			return true
		}
	}
	return false
}

func valueOrEmpty(value interface{}) interface{} {
	if value == nil {
		return ""
	}
	return value
}
