package orders

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/database"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Insert writes the order and its items on q, assigning ids. It does not
// open a transaction; callers that need one pass a *sql.Tx.
func Insert(ctx context.Context, q database.DBTX, order *domain.Order) error {
	order.ID = uuid.New().String()

	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, customer_email, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, order.ID, order.CustomerEmail, order.Status, order.Total, order.CreatedAt)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New().String()
		_, err = q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, order.ID, item.ProductID, item.Quantity, item.Price, i)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListByCustomer returns the orders placed under email, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, email string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, customer_email, status, total, created_at
		FROM orders
		WHERE customer_email = $1
		ORDER BY created_at DESC
	`, email)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT id, customer_email, status, total, created_at
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	orders, err := r.list(ctx, `
		SELECT id, customer_email, status, total, created_at
		FROM orders
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// list loads the orders selected by query, then all their items in one
// query. Items whose product has been deleted keep empty name and image.
func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerEmail, &order.Status, &order.Total, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.price,
		       COALESCE(p.name, ''), COALESCE(p.images[1], '')
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ID, &item.ProductID, &item.Quantity, &item.Price,
			&item.ProductName, &item.ProductImage); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}
