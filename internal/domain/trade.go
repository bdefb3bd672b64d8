package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is an immutable record of a single fill between one buy and one
// sell order. The engine appends exactly one per match; the full history
// is an append-only, time-ordered sequence.
type Trade struct {
	ID         uuid.UUID
	BuyerID    string
	SellerID   string
	Symbol     string
	Quantity   int64
	Price      decimal.Decimal // execution price per share
	ExecutedAt time.Time
}

// Total returns quantity × execution price.
func (t Trade) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Quantity))
}
