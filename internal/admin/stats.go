package admin

import (
	"context"
	"database/sql"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Stats counts products, categories and USER accounts, and sums the totals
// of COMPLETED orders.
func (r *StatsRepository) Stats(ctx context.Context) (domain.StoreStats, error) {
	var s domain.StoreStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM users WHERE role = 'USER'),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status = 'COMPLETED')
	`).Scan(&s.Products, &s.Categories, &s.Customers, &s.Revenue)
	return s, err
}

// CategoryRevenue sums completed sales per category, largest first.
// Items of deleted or uncategorized products are grouped as "Uncategorized".
func (r *StatsRepository) CategoryRevenue(ctx context.Context) ([]domain.ChartPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Uncategorized') AS name, SUM(oi.price * oi.quantity) AS value
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id AND o.status = 'COMPLETED'
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		GROUP BY 1
		ORDER BY 2 DESC, 1
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	points := []domain.ChartPoint{}
	for rows.Next() {
		var p domain.ChartPoint
		if err := rows.Scan(&p.Name, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}
