package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/queue"
	"github.com/polbel-next/internal/repository"

	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := models.OpenDB("sqlite", dsn, models.DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = models.CloseDB(db) })
	return db
}

type recordingPublisher struct {
	mu      sync.Mutex
	created []queue.OrderCreatedPayload
	status  []queue.OrderStatusEmailPayload
}

func (p *recordingPublisher) EnqueueOrderCreated(payload queue.OrderCreatedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, payload)
	return nil
}

func (p *recordingPublisher) EnqueueOrderStatusEmail(payload queue.OrderStatusEmailPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = append(p.status, payload)
	return nil
}

type gatewayFixture struct {
	db        *gorm.DB
	entities  *EntityService
	orders    *OrderService
	publisher *recordingPublisher
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	db := setupServiceDB(t)
	repo := repository.NewEntityRepository(db)
	entities := NewEntityService(repo)
	publisher := &recordingPublisher{}
	orders := NewOrderService(entities, repo, repository.NewDashboardRepository(db), publisher)
	NewCommentPolicy(entities, repo)
	return &gatewayFixture{db: db, entities: entities, orders: orders, publisher: publisher}
}

var adminActor = &Actor{AdminID: 1, Email: "admin@example.com"}

func toIdent(id interface{}) string {
	return fmt.Sprint(id)
}
