package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side indicates whether an order buys or sells shares.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a participant's resting intent to buy or sell a quantity of an
// instrument at a fixed price. Identity and price are immutable; only the
// remaining quantity changes, reduced in place on each partial fill.
type Order struct {
	ID        uuid.UUID
	OwnerID   string
	Symbol    string
	Side      Side
	Remaining int64
	Price     decimal.Decimal
	CreatedAt time.Time
}

// NewOrder creates an order with a fresh id and the full quantity remaining.
func NewOrder(ownerID, symbol string, side Side, quantity int64, price decimal.Decimal) *Order {
	return &Order{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Symbol:    symbol,
		Side:      side,
		Remaining: quantity,
		Price:     price,
		CreatedAt: time.Now(),
	}
}

// Reduce lowers the remaining quantity by qty, flooring at zero.
func (o *Order) Reduce(qty int64) {
	o.Remaining -= qty
	if o.Remaining < 0 {
		o.Remaining = 0
	}
}

// Filled reports whether nothing remains to match.
func (o *Order) Filled() bool {
	return o.Remaining == 0
}
