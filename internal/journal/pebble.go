package journal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/quotelab/marketsim/internal/domain"
)

// Pebble is a durable trade journal backed by a pebble key-value store.
// Trades are keyed by a monotonic sequence number, so iteration returns
// them in execution order. Reopening an existing journal resumes the
// numbering.
type Pebble struct {
	mu  sync.Mutex
	db  *pebble.DB
	seq uint64
}

// keys: trade/<16-digit-seq>
func tradeKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("trade/%016d", seq))
}

var (
	tradeKeyLower = []byte("trade/")
	tradeKeyUpper = []byte("trade0") // '0' sorts right after '/'
)

// Open opens (or creates) a journal at path.
func Open(path string) (*Pebble, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade journal: %w", err)
	}
	j := &Pebble{db: db}
	if err := j.loadSeq(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// loadSeq finds the highest existing sequence number.
func (j *Pebble) loadSeq() error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: tradeKeyLower,
		UpperBound: tradeKeyUpper,
	})
	if err != nil {
		return fmt.Errorf("scan trade journal: %w", err)
	}
	defer iter.Close()
	if iter.Last() {
		var seq uint64
		if _, err := fmt.Sscanf(string(iter.Key()), "trade/%d", &seq); err == nil {
			j.seq = seq
		}
	}
	return iter.Error()
}

// Record appends one trade, synced to disk.
func (j *Pebble) Record(t domain.Trade) error {
	val, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode trade: %w", err)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	if err := j.db.Set(tradeKey(j.seq), val, pebble.Sync); err != nil {
		return fmt.Errorf("write trade: %w", err)
	}
	return nil
}

// Trades returns every journaled trade in execution order.
func (j *Pebble) Trades() ([]domain.Trade, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: tradeKeyLower,
		UpperBound: tradeKeyUpper,
	})
	if err != nil {
		return nil, fmt.Errorf("scan trade journal: %w", err)
	}
	defer iter.Close()

	var trades []domain.Trade
	for iter.First(); iter.Valid(); iter.Next() {
		var t domain.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode trade %s: %w", iter.Key(), err)
		}
		trades = append(trades, t)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return trades, nil
}

// Close closes the underlying store.
func (j *Pebble) Close() error {
	return j.db.Close()
}
