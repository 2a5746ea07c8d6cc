package engine

import (
	"fmt"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/google/btree"
)

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// Snapshot is an immutable copy of both sides of the book, each in
// priority order (best first).
type Snapshot struct {
	Bids []domain.Order
	Asks []domain.Order
}

// bidLess orders the bid side: price descending, then arrival sequence
// ascending. Min() returns the best bid.
func bidLess(a, b domain.Order) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return a.Seq < b.Seq
}

// askLess orders the ask side: price ascending, then arrival sequence
// ascending. Min() returns the best ask.
func askLess(a, b domain.Order) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.Seq < b.Seq
}

// OrderBook holds the bid and ask sides of a single book in B-trees.
// It is not safe for concurrent use; the owning service serializes
// access.
type OrderBook struct {
	bids    *btree.BTreeG[domain.Order]
	asks    *btree.BTreeG[domain.Order]
	nextSeq uint64
}

const degree = 32

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: btree.NewG[domain.Order](degree, bidLess),
		asks: btree.NewG[domain.Order](degree, askLess),
	}
}

func (ob *OrderBook) side(s domain.Side) *btree.BTreeG[domain.Order] {
	if s == domain.SideBid {
		return ob.bids
	}
	return ob.asks
}

// InsertBid adds an order to the bid side and returns it with its
// arrival sequence assigned.
func (ob *OrderBook) InsertBid(o domain.Order) (domain.Order, error) {
	return ob.insert(domain.SideBid, o)
}

// InsertAsk adds an order to the ask side and returns it with its
// arrival sequence assigned.
func (ob *OrderBook) InsertAsk(o domain.Order) (domain.Order, error) {
	return ob.insert(domain.SideAsk, o)
}

func (ob *OrderBook) insert(s domain.Side, o domain.Order) (domain.Order, error) {
	if err := o.Validate(); err != nil {
		return domain.Order{}, fmt.Errorf("insert %s: %w", s, err)
	}
	ob.nextSeq++
	o.Seq = ob.nextSeq
	ob.side(s).ReplaceOrInsert(o)
	return o, nil
}

// RemoveByPrice deletes every order on the given side whose price equals
// price exactly and returns how many were removed. Removing from an
// empty level is a no-op.
func (ob *OrderBook) RemoveByPrice(s domain.Side, price int64) int {
	tree := ob.side(s)

	// Within one price level entries are ordered by Seq, so the pivot
	// with Seq 0 sorts before all of them on either side.
	var doomed []domain.Order
	tree.AscendGreaterOrEqual(domain.Order{Price: price}, func(o domain.Order) bool {
		if o.Price != price {
			return false
		}
		doomed = append(doomed, o)
		return true
	})
	for _, o := range doomed {
		tree.Delete(o)
	}
	return len(doomed)
}

// Snapshot copies both sides in priority order.
func (ob *OrderBook) Snapshot() Snapshot {
	return Snapshot{
		Bids: collect(ob.bids),
		Asks: collect(ob.asks),
	}
}

func collect(tree *btree.BTreeG[domain.Order]) []domain.Order {
	out := make([]domain.Order, 0, tree.Len())
	tree.Ascend(func(o domain.Order) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Replace swaps both sides for the given orders. Orders keep the
// sequence numbers they carry, so residuals returned by Match retain
// their time priority. Orders with no remaining quantity are dropped.
func (ob *OrderBook) Replace(bids, asks []domain.Order) {
	ob.bids.Clear(false)
	ob.asks.Clear(false)
	ob.refill(ob.bids, bids)
	ob.refill(ob.asks, asks)
}

func (ob *OrderBook) refill(tree *btree.BTreeG[domain.Order], orders []domain.Order) {
	for _, o := range orders {
		if o.Quantity <= 0 {
			continue
		}
		tree.ReplaceOrInsert(o)
		// Later arrivals must never sort ahead of a residual.
		ob.nextSeq = max(ob.nextSeq, o.Seq)
	}
}

// BestBid returns the highest-priority bid (highest price, earliest arrival).
func (ob *OrderBook) BestBid() (domain.Order, bool) {
	return ob.bids.Min()
}

// BestAsk returns the highest-priority ask (lowest price, earliest arrival).
func (ob *OrderBook) BestAsk() (domain.Order, bool) {
	return ob.asks.Min()
}

// BidCount returns the number of individual bid orders on the book.
func (ob *OrderBook) BidCount() int {
	return ob.bids.Len()
}

// AskCount returns the number of individual ask orders on the book.
func (ob *OrderBook) AskCount() int {
	return ob.asks.Len()
}

// Levels aggregates up to n price levels from one side, best first.
func (ob *OrderBook) Levels(s domain.Side, n int) []PriceLevel {
	return topLevels(ob.side(s), n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels.
func topLevels(tree *btree.BTreeG[domain.Order], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(o domain.Order) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == o.Price {
			levels[len(levels)-1].TotalQuantity += o.Quantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         o.Price,
			TotalQuantity: o.Quantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}
