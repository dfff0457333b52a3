package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPaidEvent is published when an open cart is finalized, so a front-end
// can notify the user.
type OrderPaidEvent struct {
	OrderID   string          `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Products  []int64         `json:"products"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}
