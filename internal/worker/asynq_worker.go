package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/provider"
	"github.com/polbel-next/internal/queue"
	"github.com/polbel-next/internal/schema"
	"github.com/polbel-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderCreated, c.handleOrderCreated)
	mux.HandleFunc(queue.TaskOrderStatusEmail, c.handleOrderStatusEmail)
}

func (c *Consumer) handleOrderCreated(ctx context.Context, task *asynq.Task) error {
	var payload queue.OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_created_unmarshal_failed", "error", err)
		return err
	}
	receiver := strings.TrimSpace(c.Config.App.NotifyAddress)
	if receiver == "" || !c.EmailService.Enabled() {
		logger.Debugw("worker_order_created_skip_notify", "order_id", payload.OrderID, "receiver_set", receiver != "")
		return nil
	}
	input, _, err := c.loadOrder(ctx, payload.OrderID)
	if err != nil || input == nil {
		return err
	}
	if err := c.EmailService.SendOrderCreatedEmail(receiver, *input); err != nil {
		logger.Warnw("worker_order_created_send_failed", "order_id", payload.OrderID, "order_number", input.OrderNumber, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleOrderStatusEmail(ctx context.Context, task *asynq.Task) error {
	var payload queue.OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_email_unmarshal_failed", "error", err)
		return err
	}
	if !c.EmailService.Enabled() {
		logger.Debugw("worker_order_status_email_skip_disabled", "order_id", payload.OrderID)
		return nil
	}
	input, receiver, err := c.loadOrder(ctx, payload.OrderID)
	if err != nil || input == nil {
		return err
	}
	if receiver == "" {
		logger.Debugw("worker_order_status_email_skip_empty_receiver", "order_id", payload.OrderID, "order_number", input.OrderNumber)
		return nil
	}
	if status := strings.TrimSpace(payload.Status); status != "" {
		input.Status = status
	}
	if err := c.EmailService.SendOrderStatusEmail(receiver, *input); err != nil {
		if errors.Is(err, service.ErrEmailRejected) || errors.Is(err, service.ErrInvalidEmail) {
			// 地址本身不可投递，重试没有意义
			logger.Warnw("worker_order_status_email_receiver_rejected", "order_id", payload.OrderID, "receiver_email", receiver)
			return nil
		}
		logger.Warnw("worker_order_status_email_send_failed",
			"order_id", payload.OrderID,
			"order_number", input.OrderNumber,
			"receiver_email", receiver,
			"status", input.Status,
			"error", err,
		)
		return err
	}
	return nil
}

// loadOrder 读取订单并组装邮件内容，订单已被删除时返回 nil
func (c *Consumer) loadOrder(ctx context.Context, orderID uint) (*service.OrderEmailInput, string, error) {
	if orderID == 0 {
		return nil, "", nil
	}
	record, err := c.EntityService.Get(ctx, schema.EntityOrder, fmt.Sprint(orderID), nil)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Debugw("worker_order_skip_not_found", "order_id", orderID)
			return nil, "", nil
		}
		logger.Warnw("worker_order_fetch_failed", "order_id", orderID, "error", err)
		return nil, "", err
	}
	input := buildOrderEmailInput(record)
	return &input, strings.TrimSpace(stringField(record, "customer_email")), nil
}

func buildOrderEmailInput(record service.Record) service.OrderEmailInput {
	lines, err := models.ParseOrderLines(record["items"])
	if err != nil {
		lines = nil
	}
	total, err := models.ParseMoney(record["total"])
	if err != nil {
		total = models.Money{}
	}
	return service.OrderEmailInput{
		OrderNumber:  stringField(record, "order_number"),
		CustomerName: stringField(record, "customer_name"),
		Phone:        stringField(record, "customer_phone"),
		Address:      stringField(record, "customer_address"),
		DeliveryDate: stringField(record, "delivery_date"),
		Status:       stringField(record, "status"),
		Total:        total,
		Lines:        lines,
	}
}

func stringField(record service.Record, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
