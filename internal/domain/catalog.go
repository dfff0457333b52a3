package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID            int64
	Name          string
	Cost          decimal.Decimal
	ProductTypeID int64
	Description   string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductView is what catalog queries return: only what a menu needs, cost
// as a decimal so currency never passes through binary floats.
type ProductView struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Cost        decimal.Decimal `json:"cost"`
	Description string          `json:"description"`
}
