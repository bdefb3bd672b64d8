package agent

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
	"github.com/quotelab/marketsim/internal/engine"
)

func newTestExchange() *engine.Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(nil, rand.New(rand.NewSource(1)), log)
	e.ListInstrument(domain.NewInstrument("X", "X Corp", decimal.NewFromInt(100), 1000))
	return e
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuyer_TakesCheapestOffer(t *testing.T) {
	e := newTestExchange()
	e.RegisterBuyer(domain.NewLedger("B1", decimal.NewFromInt(10000)))
	seller := domain.NewLedger("S1", decimal.Zero)
	seller.Holdings["X"] = 100
	e.RegisterSeller(seller)

	e.Submit(domain.NewOrder("S1", "X", domain.SideSell, 10, decimal.NewFromInt(99)))
	e.Submit(domain.NewOrder("S1", "X", domain.SideSell, 10, decimal.NewFromInt(95)))

	b := NewBuyer("B1", e, e, rand.New(rand.NewSource(3)), time.Millisecond, time.Millisecond, discardLogger())
	b.step()

	history := e.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 directed trade, got %d", len(history))
	}
	// The cheapest resting offer is taken, at its own price.
	if !history[0].Price.Equal(decimal.NewFromInt(95)) {
		t.Errorf("expected execution at 95, got %s", history[0].Price)
	}
	if history[0].Quantity < 1 || history[0].Quantity > maxClipSize {
		t.Errorf("expected clip between 1 and %d, got %d", maxClipSize, history[0].Quantity)
	}

	ledger, _ := e.BuyerLedger("B1")
	if !ledger.Cash.LessThan(decimal.NewFromInt(10000)) {
		t.Error("expected buyer cash to decrease")
	}
}

func TestBuyer_PlacesBidWhenNoOffers(t *testing.T) {
	e := newTestExchange()
	e.RegisterBuyer(domain.NewLedger("B1", decimal.NewFromInt(10000)))

	b := NewBuyer("B1", e, e, rand.New(rand.NewSource(3)), time.Millisecond, time.Millisecond, discardLogger())
	b.step()

	bids := e.BuyOffers("X")
	if len(bids) != 1 {
		t.Fatalf("expected 1 resting bid, got %d", len(bids))
	}
	// Bid within [quote, quote × 1.05].
	if bids[0].Price.LessThan(decimal.NewFromInt(100)) ||
		bids[0].Price.GreaterThan(decimal.NewFromInt(105)) {
		t.Errorf("bid price %s outside [100, 105]", bids[0].Price)
	}
}

func TestSeller_PostsOfferAroundQuote(t *testing.T) {
	e := newTestExchange()
	ledger := domain.NewLedger("S1", decimal.Zero)
	ledger.Holdings["X"] = 40
	e.RegisterSeller(ledger)

	s := NewSeller("S1", e, e, rand.New(rand.NewSource(9)), time.Millisecond, time.Millisecond, discardLogger())
	s.step()

	offers := e.SellOffers("X")
	if len(offers) != 1 {
		t.Fatalf("expected 1 resting offer, got %d", len(offers))
	}
	o := offers[0]
	if o.Remaining < 1 || o.Remaining > 40 {
		t.Errorf("offer quantity %d outside held range", o.Remaining)
	}
	if o.Price.LessThan(decimal.NewFromInt(95)) || o.Price.GreaterThan(decimal.NewFromInt(105)) {
		t.Errorf("offer price %s outside quote ±5%%", o.Price)
	}
}

func TestSeller_IdleWithoutHoldings(t *testing.T) {
	e := newTestExchange()
	e.RegisterSeller(domain.NewLedger("S1", decimal.Zero))

	s := NewSeller("S1", e, e, rand.New(rand.NewSource(9)), time.Millisecond, time.Millisecond, discardLogger())
	s.step()

	if len(e.SellOffers("X")) != 0 {
		t.Error("seller with no holdings placed an offer")
	}
}

func TestAgents_StopWithinOneInterval(t *testing.T) {
	e := newTestExchange()
	e.RegisterBuyer(domain.NewLedger("B1", decimal.NewFromInt(10000)))
	ledger := domain.NewLedger("S1", decimal.Zero)
	ledger.Holdings["X"] = 40
	e.RegisterSeller(ledger)

	const interval = 20 * time.Millisecond
	b := NewBuyer("B1", e, e, rand.New(rand.NewSource(1)), interval, 2*interval, discardLogger())
	s := NewSeller("S1", e, e, rand.New(rand.NewSource(2)), interval, 2*interval, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{}, 2)
	go func() { b.Run(ctx); done <- struct{}{} }()
	go func() { s.Run(ctx); done <- struct{}{} }()

	time.Sleep(3 * interval)
	cancel()

	deadline := time.After(2*interval + 500*time.Millisecond)
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-deadline:
			t.Fatal("agent did not stop within one decision interval")
		}
	}
}

func TestAgents_CancelledBeforeStart(t *testing.T) {
	e := newTestExchange()
	e.RegisterBuyer(domain.NewLedger("B1", decimal.NewFromInt(10000)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuyer("B1", e, e, rand.New(rand.NewSource(1)), time.Second, time.Second, discardLogger())
	done := make(chan struct{})
	go func() { b.Run(ctx); close(done) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("agent with cancelled context did not return promptly")
	}
}
