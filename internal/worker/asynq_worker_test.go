package worker

import (
	"testing"

	"github.com/polbel-next/internal/service"
)

func TestBuildOrderEmailInput(t *testing.T) {
	record := service.Record{
		"order_number":     "POL-LX1-AB12",
		"customer_name":    "Anna",
		"customer_address": "ul. Polna 1",
		"delivery_date":    nil,
		"status":           "confirmed",
		"total":            35.0,
		"items": []interface{}{
			map[string]interface{}{"product_id": 1.0, "name": "Piasek", "price": 10.0, "quantity": 2.0},
			map[string]interface{}{"product_id": 2.0, "name": "Żwir", "price": 5.0, "quantity": 3.0},
		},
	}

	input := buildOrderEmailInput(record)
	if input.OrderNumber != "POL-LX1-AB12" || input.Status != "confirmed" {
		t.Fatalf("unexpected input %+v", input)
	}
	if input.DeliveryDate != "" {
		t.Fatalf("nil delivery date should be empty, got %q", input.DeliveryDate)
	}
	if len(input.Lines) != 2 || input.Lines[1].Quantity != 3 {
		t.Fatalf("unexpected lines %+v", input.Lines)
	}
	if input.Total.String() != "35.00" {
		t.Fatalf("want total 35.00 got %s", input.Total.String())
	}
}

func TestBuildOrderEmailInputToleratesBrokenItems(t *testing.T) {
	input := buildOrderEmailInput(service.Record{"items": "{broken", "total": "abc"})
	if len(input.Lines) != 0 {
		t.Fatalf("broken items should yield no lines: %+v", input.Lines)
	}
	if !input.Total.IsZero() {
		t.Fatalf("broken total should be zero: %s", input.Total.String())
	}
}
