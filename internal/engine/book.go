package engine

import (
	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quotelab/marketsim/internal/domain"
)

// BookEntry is a single order resting on one side of the book.
type BookEntry struct {
	Price decimal.Decimal
	Seq   uint64
	Order *domain.Order
}

// buyLess orders the buy side by price descending (best bid first).
// Ties keep existing book order via the monotonic insertion sequence,
// matching the behavior of a stable sort.
func buyLess(a, b BookEntry) bool {
	switch a.Price.Cmp(b.Price) {
	case 1:
		return true
	case -1:
		return false
	}
	return a.Seq < b.Seq
}

// sellLess orders the sell side by price ascending (best ask first),
// ties by insertion sequence.
func sellLess(a, b BookEntry) bool {
	switch a.Price.Cmp(b.Price) {
	case -1:
		return true
	case 1:
		return false
	}
	return a.Seq < b.Seq
}

// Book holds the buy and sell sides for all instruments, using B-trees
// with a secondary index for removal by order id. The book carries no
// lock of its own: the engine's single mutex guards every access.
type Book struct {
	buys  *btree.BTreeG[BookEntry]
	sells *btree.BTreeG[BookEntry]
	index map[uuid.UUID]BookEntry
	seq   uint64
}

// NewBook creates an empty book.
func NewBook() *Book {
	const degree = 32
	return &Book{
		buys:  btree.NewG[BookEntry](degree, buyLess),
		sells: btree.NewG[BookEntry](degree, sellLess),
		index: make(map[uuid.UUID]BookEntry),
	}
}

// Insert adds the order to the side named by its Side field. A partially
// filled order keeps its original entry; Insert is only for new orders.
func (b *Book) Insert(o *domain.Order) {
	b.seq++
	entry := BookEntry{Price: o.Price, Seq: b.seq, Order: o}
	if o.Side == domain.SideBuy {
		b.buys.ReplaceOrInsert(entry)
	} else {
		b.sells.ReplaceOrInsert(entry)
	}
	b.index[o.ID] = entry
}

// Remove deletes an order from the book by id. It tries both sides;
// Delete is a no-op on the side that doesn't hold the entry.
func (b *Book) Remove(id uuid.UUID) {
	entry, ok := b.index[id]
	if !ok {
		return
	}
	delete(b.index, id)
	b.buys.Delete(entry)
	b.sells.Delete(entry)
}

// SellOrder returns the resting sell order with the given id, if present.
func (b *Book) SellOrder(id uuid.UUID) (*domain.Order, bool) {
	entry, ok := b.index[id]
	if !ok || entry.Order.Side != domain.SideSell {
		return nil, false
	}
	return entry.Order, true
}

// BuyOrders returns the buy side in priority order (best bid first).
func (b *Book) BuyOrders() []*domain.Order {
	orders := make([]*domain.Order, 0, b.buys.Len())
	b.buys.Ascend(func(entry BookEntry) bool {
		orders = append(orders, entry.Order)
		return true
	})
	return orders
}

// SellOrders returns the sell side in priority order (best ask first).
func (b *Book) SellOrders() []*domain.Order {
	orders := make([]*domain.Order, 0, b.sells.Len())
	b.sells.Ascend(func(entry BookEntry) bool {
		orders = append(orders, entry.Order)
		return true
	})
	return orders
}

// WalkSells iterates the sell side in priority order. The callback
// returns true to continue, false to stop. The callback must not mutate
// the book; the matching scan collects its target and fills afterwards.
func (b *Book) WalkSells(fn func(*domain.Order) bool) {
	b.sells.Ascend(func(entry BookEntry) bool {
		return fn(entry.Order)
	})
}

// BuyCount returns the number of resting buy orders.
func (b *Book) BuyCount() int {
	return b.buys.Len()
}

// SellCount returns the number of resting sell orders.
func (b *Book) SellCount() int {
	return b.sells.Len()
}
