// Package agent implements the simulated market participants. Agents
// are pure order producers: they decide what to trade and hand the
// decision to the engine front door. They never touch their own ledger;
// balances and holdings are read back as engine snapshots.
package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
)

// Submitter is the passive order entry point. Both the engine itself
// (direct-call mode) and the queue worker satisfy it.
type Submitter interface {
	Submit(o *domain.Order)
}

// Exchange is what agents observe and act on beyond passive submission.
// *engine.Engine satisfies it.
type Exchange interface {
	RandomInstrument() (string, bool)
	SellOffers(symbol string) []domain.Order
	Take(buyerID string, orderID uuid.UUID, qty int64) error
	Quote(symbol string) (decimal.Decimal, error)
	SellerLedger(id string) (*domain.Ledger, error)
}

// sleep waits for d or until ctx is cancelled, reporting whether the
// full interval elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
