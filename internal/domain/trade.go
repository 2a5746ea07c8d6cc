package domain

import "time"

// Trade is one crossing event between the best bid and the best ask.
// Bid and Ask keep their own resting price and settlement reference;
// their Quantity is the matched quantity. No single trade price is
// derived from the pair.
type Trade struct {
	TradeID    string // empty until stamped by the clearing service
	Bid        Order
	Ask        Order
	Quantity   int64
	ExecutedAt time.Time
}
