package queue

import (
	"encoding/json"
	"testing"

	"github.com/polbel-next/internal/config"
)

func TestDisabledClientIsNoop(t *testing.T) {
	c := NewClient(&config.QueueConfig{Enabled: false})
	if c.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := c.EnqueueOrderCreated(OrderCreatedPayload{OrderID: 1}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client must report disabled")
	}
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2, Concurrency: 3})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 3 || cfg.Queues[CriticalQueue] != 2 {
		t.Fatalf("unexpected server config: %+v", cfg)
	}

	opt, _ = BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected default addr %s", opt.Addr)
	}
}

func TestTaskPayloads(t *testing.T) {
	task, err := NewOrderStatusEmailTask(OrderStatusEmailPayload{OrderID: 9, Status: "confirmed", Previous: "new"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if task.Type() != TaskOrderStatusEmail {
		t.Fatalf("want %s got %s", TaskOrderStatusEmail, task.Type())
	}
	var payload OrderStatusEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.OrderID != 9 || payload.Previous != "new" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
