package store

import (
	"sync"

	"github.com/efreitasn/crossbook/internal/domain"
)

// TradeStore is a thread-safe, bounded in-memory record of executed
// trades. Trades are append-only and chronological; once the capacity is
// reached the oldest trades are dropped.
type TradeStore struct {
	mu       sync.RWMutex
	trades   []domain.Trade // chronological
	capacity int
}

// NewTradeStore creates an empty TradeStore that keeps at most capacity
// trades. A non-positive capacity keeps none.
func NewTradeStore(capacity int) *TradeStore {
	return &TradeStore{capacity: max(capacity, 0)}
}

// Append adds trades in the order given.
func (s *TradeStore) Append(trades ...domain.Trade) {
	if len(trades) == 0 || s.capacity == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, trades...)
	if over := len(s.trades) - s.capacity; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(s.trades, s.trades[over:])
		clear(s.trades[n:])
		s.trades = s.trades[:n]
	}
}

// Recent returns up to limit trades, newest first. A non-positive limit
// returns every retained trade. Returns an empty slice if none exist.
func (s *TradeStore) Recent(limit int) []domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.trades)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]domain.Trade, 0, n)
	for i := len(s.trades) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.trades[i])
	}
	return result
}

// Len returns the number of retained trades.
func (s *TradeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.trades)
}
