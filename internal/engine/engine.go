package engine

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
)

var two = decimal.NewFromInt(2)

// TradeRecorder persists completed trades. A recorder failure is logged
// and the trade stands; it is never propagated to the trading path.
type TradeRecorder interface {
	Record(t domain.Trade) error
}

// InstrumentView is a copyable snapshot of an instrument's quoted state.
type InstrumentView struct {
	Symbol       string
	Name         string
	BasePrice    decimal.Decimal
	CurrentPrice decimal.Decimal
	Shares       int64
}

// Engine is the exchange core. It owns the order book and the trade
// history, holds references to participant ledgers and instruments
// registered before trading begins, and serializes every mutation
// (passive matching, directed trades, and book snapshots) under one
// mutex. Registration is not safe concurrently with trading.
type Engine struct {
	mu          sync.Mutex
	book        *Book
	history     []domain.Trade
	instruments map[string]*domain.Instrument
	symbols     []string // registration order, for random selection
	buyers      map[string]*domain.Ledger
	sellers     map[string]*domain.Ledger
	rng         *rand.Rand
	recorder    TradeRecorder
	log         *slog.Logger
}

// New creates an engine. recorder may be nil when no persistence
// collaborator is configured. rng drives instrument selection and the
// post-fill price walk; pass a seeded source for deterministic runs.
func New(recorder TradeRecorder, rng *rand.Rand, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		book:        NewBook(),
		instruments: make(map[string]*domain.Instrument),
		buyers:      make(map[string]*domain.Ledger),
		sellers:     make(map[string]*domain.Ledger),
		rng:         rng,
		recorder:    recorder,
		log:         log,
	}
}

// ListInstrument registers a tradable instrument. Call before trading starts.
func (e *Engine) ListInstrument(ins *domain.Instrument) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.instruments[ins.Symbol]; !ok {
		e.symbols = append(e.symbols, ins.Symbol)
	}
	e.instruments[ins.Symbol] = ins
}

// RegisterBuyer registers a buyer ledger. Call before trading starts.
func (e *Engine) RegisterBuyer(l *domain.Ledger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buyers[l.ID] = l
}

// RegisterSeller registers a seller ledger. Call before trading starts.
func (e *Engine) RegisterSeller(l *domain.Ledger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sellers[l.ID] = l
}

// Submit admits an order into the book and runs the matching scan.
// Fire-and-forget: fills are observable through the trade history and
// ledger snapshots. Orders with nothing remaining are ignored.
func (e *Engine) Submit(o *domain.Order) {
	if o == nil || o.Remaining <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book.Insert(o)
	e.matchLocked()
}

// matchLocked runs one matching pass: buy orders in priority order, each
// scanned against the sell side in priority order, at most one fill per
// buy order per pass. A crossable pair this pass leaves behind is picked
// up on the next admission; the scan is deliberately not run to a
// fixpoint.
func (e *Engine) matchLocked() {
	for _, buy := range e.book.BuyOrders() {
		if buy.Filled() {
			continue
		}
		var sell *domain.Order
		e.book.WalkSells(func(s *domain.Order) bool {
			if s.Symbol != buy.Symbol {
				return true
			}
			if buy.Price.LessThan(s.Price) {
				return true
			}
			sell = s
			return false
		})
		if sell == nil {
			continue
		}
		e.fillLocked(buy, sell)
	}
}

// fillLocked executes one fill between a compatible buy/sell pair at the
// midpoint of the two resting prices.
func (e *Engine) fillLocked(buy, sell *domain.Order) {
	qty := buy.Remaining
	if sell.Remaining < qty {
		qty = sell.Remaining
	}
	price := buy.Price.Add(sell.Price).Div(two)

	e.settleLocked(buy.OwnerID, sell.OwnerID, buy.Symbol, qty, price)

	buy.Reduce(qty)
	sell.Reduce(qty)
	if buy.Filled() {
		e.book.Remove(buy.ID)
	}
	if sell.Filled() {
		e.book.Remove(sell.ID)
	}
}

// settleLocked mutates both ledgers, appends the trade record, offers it
// to the persistence collaborator, and applies the instrument price walk.
// Recorder and price-floor failures are logged; the trade stands.
func (e *Engine) settleLocked(buyerID, sellerID, symbol string, qty int64, price decimal.Decimal) {
	total := price.Mul(decimal.NewFromInt(qty))

	if buyer, ok := e.buyers[buyerID]; ok {
		buyer.ApplyBuy(symbol, qty, total)
	}
	if seller, ok := e.sellers[sellerID]; ok {
		seller.ApplySell(symbol, qty, total)
	}

	t := domain.Trade{
		ID:         uuid.New(),
		BuyerID:    buyerID,
		SellerID:   sellerID,
		Symbol:     symbol,
		Quantity:   qty,
		Price:      price,
		ExecutedAt: time.Now(),
	}
	e.history = append(e.history, t)

	if e.recorder != nil {
		if err := e.recorder.Record(t); err != nil {
			e.log.Error("trade journal write failed",
				slog.String("trade_id", t.ID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if ins, ok := e.instruments[symbol]; ok {
		if err := ins.Drift(e.rng); err != nil {
			e.log.Warn("price update rejected",
				slog.String("symbol", symbol),
				slog.String("price", ins.CurrentPrice().String()),
			)
		}
	}
}

// Take executes a directed trade: buyerID buys qty shares from the
// resting sell order with the given id at that order's price, no
// averaging. All preconditions are checked under the engine lock and a
// failure mutates nothing.
func (e *Engine) Take(buyerID string, orderID uuid.UUID, qty int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sell, ok := e.book.SellOrder(orderID)
	if !ok {
		return domain.ErrOrderNotFound
	}
	if qty <= 0 || qty > sell.Remaining {
		return domain.ErrInvalidQuantity
	}
	buyer, ok := e.buyers[buyerID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	total := sell.Price.Mul(decimal.NewFromInt(qty))
	if buyer.Cash.LessThan(total) {
		return domain.ErrInsufficientBalance
	}

	e.settleLocked(buyerID, sell.OwnerID, sell.Symbol, qty, sell.Price)

	sell.Reduce(qty)
	if sell.Filled() {
		e.book.Remove(sell.ID)
	}
	return nil
}

// SellOffers returns a snapshot of resting sell orders for symbol,
// cheapest first. Orders are copied; mutating the result has no effect
// on the book.
func (e *Engine) SellOffers(symbol string) []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	var offers []domain.Order
	e.book.WalkSells(func(s *domain.Order) bool {
		if s.Symbol == symbol {
			offers = append(offers, *s)
		}
		return true
	})
	return offers
}

// BuyOffers returns a snapshot of resting buy orders for symbol, best
// bid first.
func (e *Engine) BuyOffers(symbol string) []domain.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	var offers []domain.Order
	for _, b := range e.book.BuyOrders() {
		if b.Symbol == symbol {
			offers = append(offers, *b)
		}
	}
	return offers
}

// History returns a copy of the trade history in execution order.
func (e *Engine) History() []domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Trade, len(e.history))
	copy(out, e.history)
	return out
}

// Quote returns the instrument's current quoted price.
func (e *Engine) Quote(symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ins, ok := e.instruments[symbol]
	if !ok {
		return decimal.Decimal{}, domain.ErrInstrumentNotFound
	}
	return ins.CurrentPrice(), nil
}

// RandomInstrument returns the symbol of a randomly chosen listed
// instrument, false when none are listed.
func (e *Engine) RandomInstrument() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.symbols) == 0 {
		return "", false
	}
	return e.symbols[e.rng.Intn(len(e.symbols))], true
}

// InstrumentViews returns snapshots of all listed instruments in
// registration order.
func (e *Engine) InstrumentViews() []InstrumentView {
	e.mu.Lock()
	defer e.mu.Unlock()
	views := make([]InstrumentView, 0, len(e.symbols))
	for _, sym := range e.symbols {
		ins := e.instruments[sym]
		views = append(views, InstrumentView{
			Symbol:       ins.Symbol,
			Name:         ins.Name,
			BasePrice:    ins.BasePrice,
			CurrentPrice: ins.CurrentPrice(),
			Shares:       ins.Shares,
		})
	}
	return views
}

// BuyerLedger returns a snapshot of the buyer's ledger. Eventually
// consistent with trading: the copy is taken under the engine lock but
// is stale the moment it is returned.
func (e *Engine) BuyerLedger(id string) (*domain.Ledger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.buyers[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return l.Clone(), nil
}

// SellerLedger returns a snapshot of the seller's ledger.
func (e *Engine) SellerLedger(id string) (*domain.Ledger, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.sellers[id]
	if !ok {
		return nil, domain.ErrParticipantNotFound
	}
	return l.Clone(), nil
}

// Ledgers returns snapshots of every registered buyer and seller ledger.
func (e *Engine) Ledgers() (buyers, sellers []*domain.Ledger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.buyers {
		buyers = append(buyers, l.Clone())
	}
	for _, l := range e.sellers {
		sellers = append(sellers, l.Clone())
	}
	return buyers, sellers
}
