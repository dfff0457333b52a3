package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Promocode struct {
	ID        int64
	Code      string
	Discount  decimal.Decimal
	ValidFrom time.Time
	ValidTo   *time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidAt reports whether the code can be applied at the given instant:
// manually enabled and inside its validity window. A nil ValidTo means the
// code never expires.
func (p Promocode) ValidAt(t time.Time) bool {
	if !p.Active {
		return false
	}
	if t.Before(p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && !t.Before(*p.ValidTo) {
		return false
	}
	return true
}
