package domain

import "github.com/shopspring/decimal"

// CartLine is one product in a shopper's in-progress selection. It is never
// stored in the database; the JSON shape is what the cart cookie holds.
type CartLine struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums price times quantity over lines.
func LinesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
