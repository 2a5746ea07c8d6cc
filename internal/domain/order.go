package domain

import "time"

// Side indicates whether an order is a bid (buy) or ask (sell).
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Valid reports whether s is one of the two book sides.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// Order is a single resting limit order. Price is in minor units of the
// quote currency (see PriceScale); Quantity is the remaining size.
type Order struct {
	ID            string
	Price         int64
	Quantity      int64
	SettlementRef string // opaque, copied verbatim into trades
	Seq           uint64 // arrival sequence, breaks price ties
	CreatedAt     time.Time
}

// Validate checks the invariants an order must satisfy before it can
// rest on the book.
func (o Order) Validate() error {
	if o.Quantity <= 0 {
		return ErrInvalidOrder
	}
	return nil
}
