package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/database"
	"github.com/joao-fontenele/storefront/internal/domain"
)

// ErrUnknownCategory is returned by writes naming a category that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

const selectProduct = `
	SELECT p.id, p.name, p.description, p.price, p.stock, p.images, p.category_id, p.created_at,
	       c.id, c.name
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListAvailable returns products with stock left, newest first.
func (r *ProductRepository) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, selectProduct+`
		WHERE p.stock > 0
		ORDER BY p.created_at DESC
	`)
}

// ListAll returns every product with its category, newest first.
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, selectProduct+`
		ORDER BY p.created_at DESC
	`)
}

// GetByID returns nil, nil when no product has the id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProduct+`WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *ProductRepository) CategoryExists(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, stock, images, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, pq.Array(p.Images), p.CategoryID, p.CreatedAt)
	return mapWriteError(err)
}

// Update overwrites every editable field, stock included, as an absolute value.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return domain.ErrProductNotFound
	}

	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, images = $6, category_id = $7
		WHERE id = $1
		RETURNING created_at
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, pq.Array(p.Images), p.CategoryID).Scan(&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProductNotFound
	}
	return mapWriteError(err)
}

// Delete removes the product whether or not orders reference it.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrProductNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// DecrementStock subtracts quantity from a product's stock on q, which is
// normally the checkout transaction. With guard set the update only applies
// when enough stock remains; without it stock may go negative.
func DecrementStock(ctx context.Context, q database.DBTX, productID string, quantity int, guard bool) error {
	if _, err := uuid.Parse(productID); err != nil {
		return domain.ErrProductNotFound
	}

	query := `UPDATE products SET stock = stock - $2 WHERE id = $1`
	if guard {
		query += ` AND stock >= $2`
	}

	result, err := q.ExecContext(ctx, query, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected > 0 {
		return nil
	}

	if !guard {
		return domain.ErrProductNotFound
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrProductNotFound
	}
	return domain.ErrInsufficientStock
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p            domain.Product
		images       pq.StringArray
		categoryID   sql.NullString
		categoryKey  sql.NullString
		categoryName sql.NullString
	)

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &images, &categoryID, &p.CreatedAt,
		&categoryKey, &categoryName)
	if err != nil {
		return nil, err
	}

	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.String
	}
	if categoryKey.Valid {
		p.Category = &domain.Category{ID: categoryKey.String, Name: categoryName.String}
	}

	return &p, nil
}

func (r *ProductRepository) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrUnknownCategory
	}
	return err
}
