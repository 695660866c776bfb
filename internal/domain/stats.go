package domain

import "github.com/shopspring/decimal"

type StoreStats struct {
	Products   int             `json:"products"`
	Categories int             `json:"categories"`
	Customers  int             `json:"customers"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// ChartPoint is a {name, value} pair consumed by dashboard charts.
type ChartPoint struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}
