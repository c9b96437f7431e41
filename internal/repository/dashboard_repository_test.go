package repository

import (
	"context"
	"testing"

	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/models"
)

func TestSumCompletedRevenueOnlyCountsCompleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDashboardRepository(db)

	orders := []struct {
		number string
		status string
		total  string
	}{
		{"POL-1", constants.OrderStatusCompleted, "35.00"},
		{"POL-2", constants.OrderStatusCompleted, "14.50"},
		{"POL-3", constants.OrderStatusNew, "100.00"},
		{"POL-4", constants.OrderStatusCancelled, "999.00"},
		{"POL-5", constants.OrderStatusInProgress, "10.00"},
	}
	for _, o := range orders {
		total, _ := models.ParseMoney(o.total)
		order := &models.Order{
			OrderNumber:     o.number,
			CustomerName:    "c",
			CustomerPhone:   "p",
			CustomerAddress: "a",
			Items:           "[]",
			Total:           total,
			Status:          o.status,
		}
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	revenue, err := repo.SumCompletedRevenue(context.Background())
	if err != nil {
		t.Fatalf("sum revenue failed: %v", err)
	}
	if revenue.String() != "49.50" {
		t.Fatalf("want 49.50 got %s", revenue.String())
	}

	stats, err := repo.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.OrdersTotal != 5 || stats.NewOrders != 1 || stats.CompletedOrders != 2 {
		t.Fatalf("unexpected order counts: %+v", stats)
	}
	if stats.Revenue.String() != "49.50" {
		t.Fatalf("want stats revenue 49.50 got %s", stats.Revenue.String())
	}
}

func TestStatsCountsContent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDashboardRepository(db)

	db.Create(&models.Post{Title: "a", Slug: "a", Published: true})
	db.Create(&models.Post{Title: "b", Slug: "b", Published: false})
	db.Create(&models.Comment{PostID: 1, AuthorName: "x", Content: "y"})
	db.Create(&models.Comment{PostID: 1, AuthorName: "x", Content: "z", Approved: true})

	stats, err := repo.GetStats(context.Background())
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.PublishedPosts != 1 || stats.PendingComments != 1 {
		t.Fatalf("unexpected content counts: %+v", stats)
	}
	if stats.Revenue.String() != "0.00" {
		t.Fatalf("want zero revenue got %s", stats.Revenue.String())
	}
}

func TestSumCompletedRevenueKeepsCents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDashboardRepository(db)

	for i, amount := range []string{"0.10", "0.20", "33.33", "33.33", "33.03"} {
		total, _ := models.ParseMoney(amount)
		order := &models.Order{
			OrderNumber:     "POL-C" + string(rune('A'+i)),
			CustomerName:    "c",
			CustomerPhone:   "p",
			CustomerAddress: "a",
			Items:           "[]",
			Total:           total,
			Status:          constants.OrderStatusCompleted,
		}
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	revenue, err := repo.SumCompletedRevenue(context.Background())
	if err != nil {
		t.Fatalf("sum revenue failed: %v", err)
	}
	if revenue.String() != "99.99" {
		t.Fatalf("want 99.99 got %s", revenue.String())
	}
}
