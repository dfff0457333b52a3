package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartContent is the JSON document embedded in an order row. It is always
// written back whole; the store does not track partial mutation of nested
// structures.
type CartContent struct {
	Products []int64         `json:"products"`
	Total    decimal.Decimal `json:"total"`
}

// Add returns the content with productID appended and cost added to the
// running total.
func (c CartContent) Add(productID int64, cost decimal.Decimal) CartContent {
	products := make([]int64, 0, len(c.Products)+1)
	products = append(products, c.Products...)
	products = append(products, productID)

	return CartContent{
		Products: products,
		Total:    c.Total.Add(cost),
	}
}

type Order struct {
	ID          string
	UserID      int64
	Content     CartContent
	Subtotal    decimal.Decimal
	PromocodeID *int64
	TotalAmount decimal.Decimal
	Review      string
	Description string
	Paid        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderSnapshot is the detached view returned to callers. Total is derived
// at read time from the subtotal and the attached promocode's discount, so
// it always reflects the current state of both.
type OrderSnapshot struct {
	ID       string          `json:"id"`
	UserID   int64           `json:"user_id"`
	Content  CartContent     `json:"content"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
	Paid     bool            `json:"paid"`
}

// FinalTotal applies a percentage discount to the subtotal, rounded to two
// decimal places with the half-up rule. A zero discount returns the subtotal
// unchanged.
func FinalTotal(subtotal, discount decimal.Decimal) decimal.Decimal {
	if discount.IsZero() {
		return subtotal
	}
	factor := decimal.NewFromInt(1).Sub(discount.Div(decimal.NewFromInt(100)))
	return subtotal.Mul(factor).Round(2)
}
