package engine

import (
	"fmt"

	"github.com/efreitasn/crossbook/internal/domain"
)

// QuotePriceLevel is the portion of a quote filled at one price.
type QuotePriceLevel struct {
	Price    int64
	Quantity int64
}

// QuoteResult estimates what an incoming order of a given size would meet
// on the opposite side if the book were crossed against it right now.
type QuoteResult struct {
	QuantityAvailable int64
	FullyFillable     bool
	TotalCost         int64 // sum of price * quantity over PriceLevels, minor units
	PriceLevels       []QuotePriceLevel
}

// Quote walks the side opposite to s in priority order without modifying
// the book. A bid quote walks asks from the lowest price; an ask quote
// walks bids from the highest. It fails with a domain.ValidationError
// when TotalCost does not fit in an int64.
func (ob *OrderBook) Quote(s domain.Side, quantity int64) (QuoteResult, error) {
	result := QuoteResult{PriceLevels: make([]QuotePriceLevel, 0)}

	opposite := ob.bids
	if s == domain.SideBid {
		opposite = ob.asks
	}

	var err error
	remaining := quantity
	opposite.Ascend(func(o domain.Order) bool {
		if remaining <= 0 {
			return false
		}
		fill := min(o.Quantity, remaining)
		var cost int64
		if cost, err = domain.MulMinor(o.Price, fill); err != nil {
			return false
		}
		if result.TotalCost, err = domain.AddMinor(result.TotalCost, cost); err != nil {
			return false
		}
		result.QuantityAvailable += fill
		remaining -= fill

		if n := len(result.PriceLevels); n > 0 && result.PriceLevels[n-1].Price == o.Price {
			result.PriceLevels[n-1].Quantity += fill
		} else {
			result.PriceLevels = append(result.PriceLevels, QuotePriceLevel{Price: o.Price, Quantity: fill})
		}
		return true
	})

	if err != nil {
		return QuoteResult{}, fmt.Errorf("quote %s: %w", s, err)
	}

	result.FullyFillable = quantity > 0 && result.QuantityAvailable >= quantity
	return result, nil
}
