package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/polbel-next/internal/cart"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
)

var (
	// ErrEmptyCart 购物车为空
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCustomerIncomplete 客户信息缺少必填项
	ErrCustomerIncomplete = errors.New("customer details incomplete")
)

// Customer 下单客户信息
type Customer struct {
	Name         string
	Phone        string
	Email        string
	Address      string
	DeliveryDate string
	Notes        string
}

// Validate 姓名、电话、地址必填
func (c Customer) Validate() error {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(c.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrCustomerIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// CartProduct 转为加购快照
func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		PriceUnit: p.PriceUnit,
		Slug:      p.Slug,
		Image:     p.Image,
	}
}

// BuildOrder 由购物车快照构造订单
// 订单号基于毫秒时间戳加随机后缀，冲突概率可忽略但不为零，服务端唯一索引兜底。
func BuildOrder(items []cart.Item, customer Customer, now time.Time) Order {
	lines := make([]models.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, models.OrderLine{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			PriceUnit: item.PriceUnit,
			Quantity:  item.Quantity,
		})
	}
	return Order{
		OrderNumber:     models.GenerateOrderNumber(now),
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerPhone:   strings.TrimSpace(customer.Phone),
		CustomerEmail:   strings.TrimSpace(customer.Email),
		CustomerAddress: strings.TrimSpace(customer.Address),
		DeliveryDate:    strings.TrimSpace(customer.DeliveryDate),
		Notes:           strings.TrimSpace(customer.Notes),
		Items:           lines,
		Total:           models.SumOrderLines(lines),
	}
}

// Checkout 提交购物车为一笔订单
// 只在服务端确认创建后清空购物车；创建失败时购物车保持原样。
func (c *Client) Checkout(ctx context.Context, store *cart.Store, customer Customer) (*Order, error) {
	if store == nil || store.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}

	order := BuildOrder(store.Snapshot(), customer, time.Now())
	created, err := c.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if created.OrderNumber == "" {
		created.OrderNumber = order.OrderNumber
	}

	if err := store.Clear(ctx); err != nil {
		// 订单已创建，清空失败只记录，不回滚
		logger.Warnw("checkout_cart_clear_failed", "order_number", created.OrderNumber, "error", err)
	}
	logger.Infow("checkout_completed", "order_number", created.OrderNumber, "total", created.Total.String())
	return created, nil
}
