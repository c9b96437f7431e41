package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderCreated 新订单通知任务
	TaskOrderCreated = "order:created"
	// TaskOrderStatusEmail 订单状态邮件通知任务
	TaskOrderStatusEmail = "order:status_email"
)

// OrderCreatedPayload 新订单任务载荷
type OrderCreatedPayload struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// OrderStatusEmailPayload 订单状态邮件任务载荷
type OrderStatusEmailPayload struct {
	OrderID  uint   `json:"order_id"`
	Status   string `json:"status"`
	Previous string `json:"previous"`
}

// NewOrderCreatedTask 创建新订单通知任务
func NewOrderCreatedTask(payload OrderCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderCreated, body), nil
}

// NewOrderStatusEmailTask 创建订单状态邮件任务
func NewOrderStatusEmailTask(payload OrderStatusEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusEmail, body), nil
}
