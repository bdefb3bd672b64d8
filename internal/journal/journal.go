// Package journal persists completed trades. It is the engine's optional
// persistence collaborator: a write failure is reported to the engine,
// which logs it and lets the trade stand.
package journal

import (
	"github.com/quotelab/marketsim/internal/domain"
	"github.com/quotelab/marketsim/internal/engine"
)

// Noop discards trades. Used when no journal path is configured.
type Noop struct{}

func (Noop) Record(domain.Trade) error { return nil }
func (Noop) Close() error              { return nil }

var _ engine.TradeRecorder = Noop{}
var _ engine.TradeRecorder = (*Pebble)(nil)
