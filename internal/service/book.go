package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/efreitasn/crossbook/internal/engine"
	"github.com/google/uuid"
)

// BookService is the single owner of one OrderBook. Every operation runs
// as one critical section under mu, so no caller observes a partially
// updated book. Nothing under the lock performs I/O.
type BookService struct {
	mu   sync.Mutex
	book *engine.OrderBook
	now  func() time.Time
}

// NewBookService creates a service around an empty book.
func NewBookService() *BookService {
	return &BookService{
		book: engine.NewOrderBook(),
		now:  time.Now,
	}
}

// BookView is an aggregated, display-oriented view of both sides taken
// in one critical section.
type BookView struct {
	Bids     []engine.PriceLevel
	Asks     []engine.PriceLevel
	BidCount int
	AskCount int
	BestBid  *domain.Order // nil when there are no bids
	BestAsk  *domain.Order // nil when there are no asks
}

// Spread returns best ask minus best bid. ok is false when either side is
// empty. A negative spread means the book is crossed and waiting for the
// next match.
func (v BookView) Spread() (spread int64, ok bool) {
	if v.BestBid == nil || v.BestAsk == nil {
		return 0, false
	}
	return v.BestAsk.Price - v.BestBid.Price, true
}

// AddBid validates and rests a buy order. It returns the order as stored,
// with ID and arrival sequence assigned, or an error wrapping
// domain.ErrInvalidOrder.
func (s *BookService) AddBid(price, quantity int64, settlementRef string) (domain.Order, error) {
	return s.add(domain.SideBid, price, quantity, settlementRef)
}

// AddAsk validates and rests a sell order.
func (s *BookService) AddAsk(price, quantity int64, settlementRef string) (domain.Order, error) {
	return s.add(domain.SideAsk, price, quantity, settlementRef)
}

func (s *BookService) add(side domain.Side, price, quantity int64, settlementRef string) (domain.Order, error) {
	o := domain.Order{
		ID:            uuid.New().String(),
		Price:         price,
		Quantity:      quantity,
		SettlementRef: settlementRef,
		CreatedAt:     s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if side == domain.SideBid {
		return s.book.InsertBid(o)
	}
	return s.book.InsertAsk(o)
}

// Cancel removes every resting order on side at exactly price and
// returns how many were removed. Cancelling an empty level is not an
// error. The only failure is an unknown side.
func (s *BookService) Cancel(side domain.Side, price int64) (int, error) {
	if !side.Valid() {
		return 0, domain.ErrInvalidSide
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.RemoveByPrice(side, price), nil
}

// Snapshot returns a copy of both sides in priority order.
func (s *BookService) Snapshot() engine.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Snapshot()
}

// MaxDepth bounds the number of price levels View returns per side.
const MaxDepth = 50

// View aggregates up to depth price levels per side.
func (s *BookService) View(depth int) (BookView, error) {
	if depth < 1 || depth > MaxDepth {
		return BookView{}, &domain.ValidationError{
			Message: fmt.Sprintf("depth must be between 1 and %d", MaxDepth),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := BookView{
		Bids:     s.book.Levels(domain.SideBid, depth),
		Asks:     s.book.Levels(domain.SideAsk, depth),
		BidCount: s.book.BidCount(),
		AskCount: s.book.AskCount(),
	}
	if o, ok := s.book.BestBid(); ok {
		view.BestBid = &o
	}
	if o, ok := s.book.BestAsk(); ok {
		view.BestAsk = &o
	}
	return view, nil
}

// RunMatch crosses the book and replaces it with the residual sides. The
// snapshot, the match and the replacement happen in one critical section.
// The returned trades are unstamped; callers that hand them off for
// settlement assign IDs and timestamps.
func (s *BookService) RunMatch() []domain.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.book.Snapshot()
	trades, bids, asks := engine.Match(snap.Bids, snap.Asks)
	if len(trades) > 0 {
		s.book.Replace(bids, asks)
	}
	return trades
}

// Quote estimates what an order of quantity on side would meet without
// placing it.
func (s *BookService) Quote(side domain.Side, quantity int64) (engine.QuoteResult, error) {
	if !side.Valid() {
		return engine.QuoteResult{}, &domain.ValidationError{Message: "side must be 'bid' or 'ask'"}
	}
	if quantity <= 0 {
		return engine.QuoteResult{}, &domain.ValidationError{Message: "quantity must be a positive integer"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Quote(side, quantity)
}
