package engine

import (
	"cmp"
	"slices"

	"github.com/efreitasn/crossbook/internal/domain"
)

// Match crosses bids against asks in price priority and returns the
// trades produced, in match order, together with what remains of each
// side. It holds no state and does not modify its inputs.
//
// Each trade records both resting orders at their own price with the
// matched quantity; no single execution price is chosen. Matching stops
// as soon as the best bid is below the best ask. Equal prices cross.
// Orders from the same settlement reference on both sides are matched
// like any other pair.
func Match(bids, asks []domain.Order) ([]domain.Trade, []domain.Order, []domain.Order) {
	filled := func(o domain.Order) bool { return o.Quantity <= 0 }
	b := slices.DeleteFunc(slices.Clone(bids), filled)
	a := slices.DeleteFunc(slices.Clone(asks), filled)

	// Stable sorts keep arrival order among equal prices. Seq is the
	// secondary key when the caller supplied it.
	slices.SortStableFunc(b, func(x, y domain.Order) int {
		if c := cmp.Compare(y.Price, x.Price); c != 0 {
			return c
		}
		return cmp.Compare(x.Seq, y.Seq)
	})
	slices.SortStableFunc(a, func(x, y domain.Order) int {
		if c := cmp.Compare(x.Price, y.Price); c != 0 {
			return c
		}
		return cmp.Compare(x.Seq, y.Seq)
	})

	var trades []domain.Trade
	for len(b) > 0 && len(a) > 0 {
		bid, ask := &b[0], &a[0]
		if bid.Price < ask.Price {
			break
		}

		qty := min(bid.Quantity, ask.Quantity)

		bidFill, askFill := *bid, *ask
		bidFill.Quantity = qty
		askFill.Quantity = qty
		trades = append(trades, domain.Trade{
			Bid:      bidFill,
			Ask:      askFill,
			Quantity: qty,
		})

		bid.Quantity -= qty
		ask.Quantity -= qty
		if bid.Quantity == 0 {
			b = b[1:]
		}
		if ask.Quantity == 0 {
			a = a[1:]
		}
	}

	return trades, b, a
}
