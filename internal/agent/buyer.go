package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
)

// maxClipSize caps how many shares an agent trades per decision.
const maxClipSize = 5

// Buyer repeatedly picks a random instrument and tries to take the
// cheapest resting sell offer for it. When no offers exist it places a
// passive bid slightly above the current quote instead.
type Buyer struct {
	id       string
	exchange Exchange
	submit   Submitter
	rng      *rand.Rand
	minWait  time.Duration
	maxWait  time.Duration
	log      *slog.Logger
}

// NewBuyer creates a buyer agent. rng must not be shared with other
// goroutines.
func NewBuyer(id string, ex Exchange, submit Submitter, rng *rand.Rand, minWait, maxWait time.Duration, log *slog.Logger) *Buyer {
	if log == nil {
		log = slog.Default()
	}
	return &Buyer{
		id:       id,
		exchange: ex,
		submit:   submit,
		rng:      rng,
		minWait:  minWait,
		maxWait:  maxWait,
		log:      log,
	}
}

// Run loops until ctx is cancelled, exiting within one decision interval
// of the cancellation.
func (b *Buyer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		b.step()
		if !sleep(ctx, b.wait()) {
			return
		}
	}
}

func (b *Buyer) step() {
	symbol, ok := b.exchange.RandomInstrument()
	if !ok {
		return
	}

	offers := b.exchange.SellOffers(symbol)
	if len(offers) == 0 {
		b.placeBid(symbol)
		return
	}

	// Offers come back cheapest first.
	best := offers[0]
	qty := b.rng.Int63n(maxClipSize) + 1
	if best.Remaining < qty {
		qty = best.Remaining
	}
	if err := b.exchange.Take(b.id, best.ID, qty); err != nil {
		// The offer may have been filled since the snapshot.
		b.log.Debug("directed trade rejected",
			slog.String("buyer", b.id),
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return
	}
	b.log.Info("directed trade executed",
		slog.String("buyer", b.id),
		slog.String("symbol", symbol),
		slog.Int64("quantity", qty),
		slog.String("price", best.Price.String()),
		slog.String("seller", best.OwnerID),
	)
}

// placeBid submits a passive buy at the current quote plus up to 5%.
func (b *Buyer) placeBid(symbol string) {
	quote, err := b.exchange.Quote(symbol)
	if err != nil {
		return
	}
	limit := quote.Mul(decimal.NewFromFloat(1 + b.rng.Float64()*0.05)).Round(2)
	order := domain.NewOrder(b.id, symbol, domain.SideBuy, b.rng.Int63n(maxClipSize)+1, limit)
	b.submit.Submit(order)
	b.log.Info("buy order placed",
		slog.String("buyer", b.id),
		slog.String("symbol", symbol),
		slog.Int64("quantity", order.Remaining),
		slog.String("price", limit.String()),
	)
}

func (b *Buyer) wait() time.Duration {
	span := b.maxWait - b.minWait
	if span <= 0 {
		return b.minWait
	}
	return b.minWait + time.Duration(b.rng.Int63n(int64(span)))
}
