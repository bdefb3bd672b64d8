package domain

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// PriceFloor is the minimum legal quoted price. A drift that would take
// the price to or below the floor is rejected, leaving the price unchanged.
var PriceFloor = decimal.RequireFromString("0.1")

// driftBound caps the per-fill random walk at ±5%.
const driftBound = 0.05

// Instrument represents a tradable company listing. The quoted price is
// mutated only by the engine, inside its critical section; everything
// else reads it through engine snapshots.
type Instrument struct {
	Symbol    string
	Name      string
	BasePrice decimal.Decimal
	Shares    int64

	currentPrice decimal.Decimal
}

// NewInstrument creates an instrument quoted at its base price.
func NewInstrument(symbol, name string, basePrice decimal.Decimal, shares int64) *Instrument {
	return &Instrument{
		Symbol:       symbol,
		Name:         name,
		BasePrice:    basePrice,
		Shares:       shares,
		currentPrice: basePrice,
	}
}

// CurrentPrice returns the last quoted price. Callers outside the engine's
// critical section must go through Engine.Quote instead.
func (i *Instrument) CurrentPrice() decimal.Decimal {
	return i.currentPrice
}

// Drift applies the post-fill random walk: price × (1 + u), u uniform in
// [-5%, +5%]. The execution price of the fill is deliberately not used;
// quoted price and execution price are decoupled. Returns ErrPriceFloor
// and leaves the price unchanged when the result would breach the floor.
func (i *Instrument) Drift(rng *rand.Rand) error {
	u := rng.Float64()*2*driftBound - driftBound
	next := i.currentPrice.Mul(decimal.NewFromFloat(1 + u))
	if next.Cmp(PriceFloor) <= 0 {
		return ErrPriceFloor
	}
	i.currentPrice = next
	return nil
}
