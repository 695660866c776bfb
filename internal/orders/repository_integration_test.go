//go:build integration

package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/testinfra"
)

func TestOrderRepository_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := testinfra.SetupPostgres(ctx, t)
	repo := NewOrderRepository(db)
	products := catalog.NewProductRepository(db)

	category := testinfra.CategoryBooks
	book := &domain.Product{
		Name:       "Field Guide",
		Price:      decimal.NewFromInt(30),
		Stock:      5,
		Images:     []string{"https://img.example.com/guide.png"},
		CategoryID: &category,
	}
	if err := products.Create(ctx, book); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	place := func(t *testing.T, email string, at time.Time) *domain.Order {
		t.Helper()
		order := &domain.Order{
			CustomerEmail: email,
			Status:        domain.OrderStatusCompleted,
			Total:         decimal.NewFromInt(60),
			CreatedAt:     at,
			Items: []domain.OrderItem{
				{ProductID: book.ID, Quantity: 2, Price: decimal.NewFromInt(30)},
			},
		}
		if err := Insert(ctx, db, order); err != nil {
			t.Fatalf("insert: %v", err)
		}
		return order
	}

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	first := place(t, "ada@example.com", base)
	second := place(t, "ada@example.com", base.Add(time.Hour))
	place(t, "bo@example.com", base.Add(2*time.Hour))

	t.Run("customer history newest first with product details", func(t *testing.T) {
		mine, err := repo.ListByCustomer(ctx, "ada@example.com")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(mine) != 2 || mine[0].ID != second.ID || mine[1].ID != first.ID {
			t.Fatalf("history = %+v", mine)
		}
		item := mine[0].Items[0]
		if item.ProductName != "Field Guide" || item.ProductImage != "https://img.example.com/guide.png" {
			t.Errorf("item = %+v", item)
		}
	})

	t.Run("admin list covers every customer", func(t *testing.T) {
		all, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("orders = %d, want 3", len(all))
		}
	})

	t.Run("deleted product leaves a dangling item", func(t *testing.T) {
		if err := products.Delete(ctx, book.ID); err != nil {
			t.Fatalf("delete product: %v", err)
		}

		order, err := repo.GetByID(ctx, first.ID)
		if err != nil || order == nil {
			t.Fatalf("get: %v", err)
		}
		item := order.Items[0]
		if item.ProductID != book.ID || item.ProductName != "" || item.ProductImage != "" {
			t.Errorf("item = %+v", item)
		}
		if !order.Total.Equal(decimal.NewFromInt(60)) {
			t.Errorf("total = %s, want 60", order.Total)
		}
	})

	t.Run("unknown and malformed ids read as nil", func(t *testing.T) {
		for _, id := range []string{"nope", "3b0f5cc4-3f5e-4f0e-8f43-6f7a0d4b9c11"} {
			order, err := repo.GetByID(ctx, id)
			if err != nil || order != nil {
				t.Errorf("GetByID(%q) = %+v, %v", id, order, err)
			}
		}
	})

	t.Run("items come back in the order they were placed", func(t *testing.T) {
		order := &domain.Order{
			CustomerEmail: "cy@example.com",
			Status:        domain.OrderStatusCompleted,
			Total:         decimal.NewFromInt(12),
			CreatedAt:     base.Add(3 * time.Hour),
		}
		for range 12 {
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: uuid.NewString(), Quantity: 1, Price: decimal.NewFromInt(1),
			})
		}
		if err := Insert(ctx, db, order); err != nil {
			t.Fatalf("insert: %v", err)
		}

		got, err := repo.GetByID(ctx, order.ID)
		if err != nil || got == nil {
			t.Fatalf("get: %v", err)
		}
		if len(got.Items) != len(order.Items) {
			t.Fatalf("items = %d, want %d", len(got.Items), len(order.Items))
		}
		for i, item := range got.Items {
			if item.ProductID != order.Items[i].ProductID {
				t.Errorf("item %d = %s, want %s", i, item.ProductID, order.Items[i].ProductID)
			}
		}
	})
}
