package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCompletedEvent struct {
	OrderID       string          `json:"order_id"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Timestamp     time.Time       `json:"timestamp"`
}

const EventOrderCompleted = "order.completed"

func (OrderCompletedEvent) EventType() string { return EventOrderCompleted }
