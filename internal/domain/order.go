package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderItem records one product's quantity and the price paid at checkout.
// Price is a copy, later product price changes never touch it.
type OrderItem struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ProductName  string          `json:"product_name,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID            string          `json:"id"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
