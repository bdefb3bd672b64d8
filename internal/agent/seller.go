package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
)

// Seller repeatedly picks a random instrument it holds and posts a sell
// order for a random slice of the position, priced around the current
// quote (±5%).
type Seller struct {
	id       string
	exchange Exchange
	submit   Submitter
	rng      *rand.Rand
	minWait  time.Duration
	maxWait  time.Duration
	log      *slog.Logger
}

// NewSeller creates a seller agent. rng must not be shared with other
// goroutines.
func NewSeller(id string, ex Exchange, submit Submitter, rng *rand.Rand, minWait, maxWait time.Duration, log *slog.Logger) *Seller {
	if log == nil {
		log = slog.Default()
	}
	return &Seller{
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
func (s *Seller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		s.step()
		if !sleep(ctx, s.wait()) {
			return
		}
	}
}

func (s *Seller) step() {
	ledger, err := s.exchange.SellerLedger(s.id)
	if err != nil || len(ledger.Holdings) == 0 {
		return
	}

	// Sorted so a seeded rng picks deterministically.
	symbols := make([]string, 0, len(ledger.Holdings))
	for sym := range ledger.Holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	symbol := symbols[s.rng.Intn(len(symbols))]
	held := ledger.Holdings[symbol]

	quote, err := s.exchange.Quote(symbol)
	if err != nil {
		return
	}

	qty := s.rng.Int63n(held) + 1
	price := quote.Mul(decimal.NewFromFloat(0.95 + s.rng.Float64()*0.1)).Round(2)

	order := domain.NewOrder(s.id, symbol, domain.SideSell, qty, price)
	s.submit.Submit(order)
	s.log.Info("sell order placed",
		slog.String("seller", s.id),
		slog.String("symbol", symbol),
		slog.Int64("quantity", qty),
		slog.String("price", price.String()),
	)
}

func (s *Seller) wait() time.Duration {
	span := s.maxWait - s.minWait
	if span <= 0 {
		return s.minWait
	}
	return s.minWait + time.Duration(s.rng.Int63n(int64(span)))
}
