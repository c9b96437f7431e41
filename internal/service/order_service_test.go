package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/schema"
)

func orderPayload(total interface{}) Record {
	return Record{
		"customer_name":    "Anna Kowalska",
		"customer_phone":   "+48 600 100 200",
		"customer_email":   "anna@example.com",
		"customer_address": "ul. Polna 1, Kraków",
		"items": []interface{}{
			map[string]interface{}{"product_id": 1, "name": "Piasek", "price": 10, "quantity": 2},
			map[string]interface{}{"product_id": 2, "name": "Żwir", "price": 5, "quantity": 3},
		},
		"total":  total,
		"status": constants.OrderStatusCompleted,
	}
}

func createOrder(t *testing.T, f *gatewayFixture) string {
	t.Helper()
	created, err := f.entities.Create(context.Background(), schema.EntityOrder, orderPayload(35), nil)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return toIdent(created["id"])
}

func TestOrderCreateForcesNewAndGeneratesNumber(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	numbers := map[string]bool{}
	for i := 0; i < 3; i++ {
		created, err := f.entities.Create(ctx, schema.EntityOrder, orderPayload("35.00"), nil)
		if err != nil {
			t.Fatalf("create order failed: %v", err)
		}
		if created["status"] != constants.OrderStatusNew {
			t.Fatalf("status must be forced to new, got %v", created["status"])
		}
		number, _ := created["order_number"].(string)
		if !strings.HasPrefix(number, constants.OrderNumberPrefix) {
			t.Fatalf("unexpected order number %q", number)
		}
		numbers[number] = true
	}
	if len(numbers) != 3 {
		t.Fatalf("order numbers must be unique: %v", numbers)
	}
	if len(f.publisher.created) != 3 {
		t.Fatalf("want 3 order created events got %d", len(f.publisher.created))
	}
}

func TestOrderCreateRejectsDuplicateNumber(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()
	payload := orderPayload(35)
	payload["order_number"] = "POL-FIXED-0001"
	if _, err := f.entities.Create(ctx, schema.EntityOrder, payload, nil); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	payload = orderPayload(35)
	payload["order_number"] = "POL-FIXED-0001"
	if _, err := f.entities.Create(ctx, schema.EntityOrder, payload, nil); !errors.Is(err, ErrOrderNumberExists) {
		t.Fatalf("want ErrOrderNumberExists got %v", err)
	}
}

func TestOrderCreateTotalCheck(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	if _, err := f.entities.Create(ctx, schema.EntityOrder, orderPayload("35.005"), nil); err != nil {
		t.Fatalf("rounding difference should be accepted: %v", err)
	}
	if _, err := f.entities.Create(ctx, schema.EntityOrder, orderPayload(30), nil); !errors.Is(err, ErrOrderTotalMismatch) {
		t.Fatalf("want ErrOrderTotalMismatch got %v", err)
	}

	empty := orderPayload(0)
	empty["items"] = []interface{}{}
	if _, err := f.entities.Create(ctx, schema.EntityOrder, empty, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation for empty items got %v", err)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()
	ident := createOrder(t, f)

	steps := []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusConfirmed,
		constants.OrderStatusInProgress,
		constants.OrderStatusCompleted,
	}
	for _, status := range steps {
		if err := f.entities.Update(ctx, schema.EntityOrder, ident, Record{"status": status}, adminActor); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}
	err := f.entities.Update(ctx, schema.EntityOrder, ident, Record{"status": constants.OrderStatusCancelled}, adminActor)
	if !errors.Is(err, ErrInvalidOrderStatus) {
		t.Fatalf("completed is terminal, want ErrInvalidOrderStatus got %v", err)
	}
	for _, bad := range []interface{}{5, "shipped", "", nil} {
		err = f.entities.Update(ctx, schema.EntityOrder, ident, Record{"status": bad}, adminActor)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("status %#v want ErrValidation got %v", bad, err)
		}
	}

	got, _ := f.entities.Get(ctx, schema.EntityOrder, ident, adminActor)
	if got["status"] != constants.OrderStatusCompleted {
		t.Fatalf("want completed got %v", got["status"])
	}
	// same-state update does not emit an event
	if len(f.publisher.status) != 3 {
		t.Fatalf("want 3 status events got %d", len(f.publisher.status))
	}
	last := f.publisher.status[len(f.publisher.status)-1]
	if last.Previous != constants.OrderStatusInProgress || last.Status != constants.OrderStatusCompleted {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestOrderInvalidTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{constants.OrderStatusNew, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusNew, constants.OrderStatusCancelled, true},
		{constants.OrderStatusNew, constants.OrderStatusCompleted, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusCancelled, true},
		{constants.OrderStatusInProgress, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusNew, false},
		{constants.OrderStatusCompleted, constants.OrderStatusCompleted, true},
		{constants.OrderStatusNew, "shipped", false},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.ok {
			t.Fatalf("%s -> %s: want %v got %v", tc.from, tc.to, tc.ok, got)
		}
	}

	if got := AllowedTransitions(constants.OrderStatusConfirmed); len(got) != 2 || got[0] != constants.OrderStatusInProgress {
		t.Fatalf("unexpected transitions from confirmed: %v", got)
	}
	if got := AllowedTransitions(constants.OrderStatusCancelled); len(got) != 0 {
		t.Fatalf("cancelled is terminal: %v", got)
	}
}

func TestOrderNumberIsImmutable(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()
	ident := createOrder(t, f)
	before, _ := f.entities.Get(ctx, schema.EntityOrder, ident, adminActor)

	if err := f.entities.Update(ctx, schema.EntityOrder, ident, Record{"order_number": "POL-HACK", "notes": "zadzwonić"}, adminActor); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	after, _ := f.entities.Get(ctx, schema.EntityOrder, ident, adminActor)
	if after["order_number"] != before["order_number"] {
		t.Fatalf("order number changed: %v -> %v", before["order_number"], after["order_number"])
	}
	if after["notes"] != "zadzwonić" {
		t.Fatalf("notes not updated: %v", after["notes"])
	}
}

func TestRevenueCountsCompletedOnly(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	done := createOrder(t, f)
	createOrder(t, f)
	for _, status := range []string{constants.OrderStatusConfirmed, constants.OrderStatusInProgress, constants.OrderStatusCompleted} {
		if err := f.entities.Update(ctx, schema.EntityOrder, done, Record{"status": status}, adminActor); err != nil {
			t.Fatalf("transition failed: %v", err)
		}
	}

	revenue, err := f.orders.Revenue(ctx)
	if err != nil {
		t.Fatalf("revenue failed: %v", err)
	}
	if revenue.String() != "35.00" {
		t.Fatalf("want 35.00 got %s", revenue.String())
	}
}
