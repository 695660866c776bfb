package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestNewOrder(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("totals lines and completes the order", func(t *testing.T) {
		lines := []domain.CartLine{
			{ProductID: "p1", Name: "Lamp", Price: decimal.NewFromInt(100), Quantity: 2},
			{ProductID: "p2", Name: "Rug", Price: decimal.NewFromInt(50), Quantity: 1},
		}

		order, err := NewOrder("ana@example.com", lines, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !order.Total.Equal(decimal.NewFromInt(250)) {
			t.Errorf("expected total 250, got %s", order.Total)
		}
		if order.Status != domain.OrderStatusCompleted {
			t.Errorf("expected COMPLETED, got %s", order.Status)
		}
		if len(order.Items) != 2 || order.Items[0].Quantity != 2 || order.Items[1].Quantity != 1 {
			t.Errorf("unexpected items %+v", order.Items)
		}
		if !order.Items[0].Price.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected price copied from line, got %s", order.Items[0].Price)
		}
		if !order.CreatedAt.Equal(now) || order.CustomerEmail != "ana@example.com" {
			t.Errorf("unexpected header %+v", order)
		}
	})

	t.Run("decimal prices", func(t *testing.T) {
		order, err := NewOrder("x@example.com", []domain.CartLine{
			{ProductID: "p1", Price: decimal.RequireFromString("19.99"), Quantity: 3},
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !order.Total.Equal(decimal.RequireFromString("59.97")) {
			t.Errorf("expected 59.97, got %s", order.Total)
		}
	})

	t.Run("rejects empty and malformed lines", func(t *testing.T) {
		_, err := NewOrder("x@example.com", nil, now)
		var verr *domain.ValidationError
		if !errors.As(err, &verr) || verr.Fields["items"] == "" {
			t.Fatalf("expected items validation error, got %v", err)
		}

		_, err = NewOrder("x@example.com", []domain.CartLine{
			{ProductID: "", Price: decimal.NewFromInt(-1), Quantity: 0},
		}, now)
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"items[0].id", "items[0].quantity", "items[0].price"} {
			if verr.Fields[field] == "" {
				t.Errorf("expected error on %s, got %v", field, verr.Fields)
			}
		}
	})
}

func TestService_CustomerEmail(t *testing.T) {
	s := &Service{guestEmail: DefaultGuestEmail}

	if got := s.CustomerEmail(domain.Principal{}); got != "guest@example.com" {
		t.Errorf("expected guest placeholder, got %s", got)
	}

	p := domain.Principal{UserID: "u1", Email: "ana@example.com", Role: domain.RoleUser}
	if got := s.CustomerEmail(p); got != "ana@example.com" {
		t.Errorf("expected principal email, got %s", got)
	}

	WithGuestEmail("walk-in@shop.test")(s)
	if got := s.CustomerEmail(domain.Principal{}); got != "walk-in@shop.test" {
		t.Errorf("expected configured guest email, got %s", got)
	}
}
