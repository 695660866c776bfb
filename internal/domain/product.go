package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	CategoryID  *string         `json:"category_id,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FirstImage returns the cover image or "" when the product has none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
