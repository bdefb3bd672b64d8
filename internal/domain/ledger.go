package domain

import "github.com/shopspring/decimal"

// Ledger holds a participant's cash balance and per-symbol holdings.
// Ledgers are registered with the engine before trading starts and are
// mutated exclusively by it, under the same critical section as the
// match that caused the mutation. Agents observe their own ledger only
// through engine snapshots.
type Ledger struct {
	ID       string
	Cash     decimal.Decimal
	Holdings map[string]int64
}

// NewLedger creates a ledger with the given starting cash and no holdings.
func NewLedger(id string, cash decimal.Decimal) *Ledger {
	return &Ledger{
		ID:       id,
		Cash:     cash,
		Holdings: make(map[string]int64),
	}
}

// ApplyBuy debits the cash paid and credits the purchased shares.
func (l *Ledger) ApplyBuy(symbol string, qty int64, total decimal.Decimal) {
	l.Cash = l.Cash.Sub(total)
	l.Holdings[symbol] += qty
}

// ApplySell credits the proceeds and debits the sold shares. A holding
// that reaches zero is removed from the map, not retained as zero.
func (l *Ledger) ApplySell(symbol string, qty int64, total decimal.Decimal) {
	l.Cash = l.Cash.Add(total)
	rem := l.Holdings[symbol] - qty
	if rem <= 0 {
		delete(l.Holdings, symbol)
		return
	}
	l.Holdings[symbol] = rem
}

// Holding returns the quantity held for symbol, zero if absent.
func (l *Ledger) Holding(symbol string) int64 {
	return l.Holdings[symbol]
}

// Clone returns a deep copy, used for snapshots handed out of the
// engine's critical section.
func (l *Ledger) Clone() *Ledger {
	h := make(map[string]int64, len(l.Holdings))
	for k, v := range l.Holdings {
		h[k] = v
	}
	return &Ledger{ID: l.ID, Cash: l.Cash, Holdings: h}
}
