//go:build integration

package checkout

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/testinfra"
)

func seedProduct(ctx context.Context, t *testing.T, repo *catalog.ProductRepository, name string, price int64, stock int) *domain.Product {
	t.Helper()
	category := testinfra.CategoryElectronics
	p := &domain.Product{
		Name:       name,
		Price:      decimal.NewFromInt(price),
		Stock:      stock,
		Images:     []string{"https://img.example.com/" + name + ".png"},
		CategoryID: &category,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return p
}

func stockOf(ctx context.Context, t *testing.T, repo *catalog.ProductRepository, id string) int {
	t.Helper()
	p, err := repo.GetByID(ctx, id)
	if err != nil || p == nil {
		t.Fatalf("failed to load product %s: %v", id, err)
	}
	return p.Stock
}

func countOrders(ctx context.Context, t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	return n
}

type capturePublisher struct {
	keys   []string
	events []any
}

func (c *capturePublisher) Publish(_ context.Context, key string, event any) error {
	c.keys = append(c.keys, key)
	c.events = append(c.events, event)
	return nil
}

func TestCheckout_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db := testinfra.SetupPostgres(ctx, t)
	products := catalog.NewProductRepository(db)
	history := orders.NewOrderRepository(db)
	customer := domain.Principal{UserID: "u1", Email: "ada@example.com", Role: domain.RoleUser}

	t.Run("cart becomes one order and stock drops", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)
		p1 := seedProduct(ctx, t, products, "lamp", 100, 10)
		p2 := seedProduct(ctx, t, products, "mug", 50, 5)

		publisher := &capturePublisher{}
		svc, err := NewService(db, testinfra.Logger(), WithPublisher(publisher))
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		order, err := svc.Checkout(ctx, customer, []domain.CartLine{
			{ProductID: p1.ID, Name: p1.Name, Price: p1.Price, Quantity: 2},
			{ProductID: p2.ID, Name: p2.Name, Price: p2.Price, Quantity: 1},
		})
		if err != nil {
			t.Fatalf("checkout failed: %v", err)
		}

		if !order.Total.Equal(decimal.NewFromInt(250)) {
			t.Errorf("total = %s, want 250", order.Total)
		}
		if got := stockOf(ctx, t, products, p1.ID); got != 8 {
			t.Errorf("p1 stock = %d, want 8", got)
		}
		if got := stockOf(ctx, t, products, p2.ID); got != 4 {
			t.Errorf("p2 stock = %d, want 4", got)
		}

		stored, err := history.GetByID(ctx, order.ID)
		if err != nil || stored == nil {
			t.Fatalf("failed to load order: %v", err)
		}
		if stored.Status != domain.OrderStatusCompleted {
			t.Errorf("status = %s, want COMPLETED", stored.Status)
		}
		if len(stored.Items) != 2 {
			t.Fatalf("items = %d, want 2", len(stored.Items))
		}
		quantities := map[string]int{}
		for _, item := range stored.Items {
			quantities[item.ProductID] = item.Quantity
		}
		if quantities[p1.ID] != 2 || quantities[p2.ID] != 1 {
			t.Errorf("quantities = %v", quantities)
		}

		if len(publisher.keys) != 1 || publisher.keys[0] != order.ID {
			t.Errorf("published keys = %v", publisher.keys)
		}
	})

	t.Run("item price is captured at purchase", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)
		p := seedProduct(ctx, t, products, "lamp", 100, 10)

		svc, err := NewService(db, testinfra.Logger())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		order, err := svc.BuyNow(ctx, customer, p.ID, 1, p.Price)
		if err != nil {
			t.Fatalf("buy now failed: %v", err)
		}

		p.Price = decimal.NewFromInt(999)
		if err := products.Update(ctx, p); err != nil {
			t.Fatalf("failed to reprice: %v", err)
		}

		stored, err := history.GetByID(ctx, order.ID)
		if err != nil || stored == nil {
			t.Fatalf("failed to load order: %v", err)
		}
		if !stored.Items[0].Price.Equal(decimal.NewFromInt(100)) || !stored.Total.Equal(decimal.NewFromInt(100)) {
			t.Errorf("item price %s total %s, want 100", stored.Items[0].Price, stored.Total)
		}
	})

	t.Run("oversell allowed without guard", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)
		p := seedProduct(ctx, t, products, "lamp", 100, 1)

		svc, err := NewService(db, testinfra.Logger())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		if _, err := svc.BuyNow(ctx, customer, p.ID, 3, p.Price); err != nil {
			t.Fatalf("buy now failed: %v", err)
		}
		if got := stockOf(ctx, t, products, p.ID); got != -2 {
			t.Errorf("stock = %d, want -2", got)
		}
	})

	t.Run("guard rolls back the whole order", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)
		p1 := seedProduct(ctx, t, products, "lamp", 100, 10)
		p2 := seedProduct(ctx, t, products, "mug", 50, 1)

		svc, err := NewService(db, testinfra.Logger(), WithOversellGuard(true))
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		_, err = svc.Checkout(ctx, customer, []domain.CartLine{
			{ProductID: p1.ID, Price: p1.Price, Quantity: 2},
			{ProductID: p2.ID, Price: p2.Price, Quantity: 3},
		})
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}

		if got := stockOf(ctx, t, products, p1.ID); got != 10 {
			t.Errorf("p1 stock = %d, want 10 after rollback", got)
		}
		if n := countOrders(ctx, t, db); n != 0 {
			t.Errorf("orders = %d, want 0", n)
		}
	})

	t.Run("unknown product rolls back", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)

		svc, err := NewService(db, testinfra.Logger())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		_, err = svc.BuyNow(ctx, customer, "3b0f5cc4-3f5e-4f0e-8f43-6f7a0d4b9c11", 1, decimal.NewFromInt(5))
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
		if n := countOrders(ctx, t, db); n != 0 {
			t.Errorf("orders = %d, want 0", n)
		}
	})

	t.Run("guest order uses placeholder email", func(t *testing.T) {
		testinfra.Reset(ctx, t, db)
		p := seedProduct(ctx, t, products, "lamp", 100, 10)

		svc, err := NewService(db, testinfra.Logger())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		order, err := svc.BuyNow(ctx, domain.Principal{}, p.ID, 1, p.Price)
		if err != nil {
			t.Fatalf("buy now failed: %v", err)
		}

		mine, err := history.ListByCustomer(ctx, DefaultGuestEmail)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(mine) != 1 || mine[0].ID != order.ID {
			t.Errorf("guest orders = %+v", mine)
		}
	})
}
