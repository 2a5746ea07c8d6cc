package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
)

func newTestTrade(id string, executedAt time.Time) domain.Trade {
	return domain.Trade{
		TradeID:    id,
		Bid:        domain.Order{ID: "bid-1", Price: 10000, Quantity: 10},
		Ask:        domain.Order{ID: "ask-1", Price: 9900, Quantity: 10},
		Quantity:   10,
		ExecutedAt: executedAt,
	}
}

func tradeIDs(trades []domain.Trade) []string {
	ids := make([]string, len(trades))
	for i, tr := range trades {
		ids[i] = tr.TradeID
	}
	return ids
}

func TestTradeStore_Append_and_Recent(t *testing.T) {
	s := NewTradeStore(10)
	now := time.Now()

	s.Append(newTestTrade("trade-1", now))
	s.Append(newTestTrade("trade-2", now.Add(time.Second)))

	trades := s.Recent(0)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "trade-2" {
		t.Fatalf("expected trade-2 first, got %s", trades[0].TradeID)
	}
	if trades[1].TradeID != "trade-1" {
		t.Fatalf("expected trade-1 second, got %s", trades[1].TradeID)
	}
}

func TestTradeStore_Recent_Empty(t *testing.T) {
	s := NewTradeStore(10)

	trades := s.Recent(5)
	if trades == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(trades) != 0 {
		t.Fatalf("expected 0 trades, got %d", len(trades))
	}
}

func TestTradeStore_Recent_Limit(t *testing.T) {
	s := NewTradeStore(10)
	now := time.Now()
	for i := 1; i <= 5; i++ {
		s.Append(newTestTrade(fmt.Sprintf("t%d", i), now))
	}

	got := tradeIDs(s.Recent(2))
	if len(got) != 2 || got[0] != "t5" || got[1] != "t4" {
		t.Fatalf("expected [t5 t4], got %v", got)
	}

	if got := s.Recent(50); len(got) != 5 {
		t.Fatalf("limit above size: expected 5 trades, got %d", len(got))
	}
}

func TestTradeStore_Recent_ReturnsCopy(t *testing.T) {
	s := NewTradeStore(10)
	s.Append(newTestTrade("trade-1", time.Now()))

	trades := s.Recent(0)
	trades[0].TradeID = "mutated"

	if original := s.Recent(0); original[0].TradeID != "trade-1" {
		t.Fatal("Recent should return a copy; internal state was mutated")
	}
}

func TestTradeStore_DropsOldestBeyondCapacity(t *testing.T) {
	s := NewTradeStore(3)
	now := time.Now()

	s.Append(newTestTrade("t1", now), newTestTrade("t2", now))
	s.Append(newTestTrade("t3", now), newTestTrade("t4", now), newTestTrade("t5", now))

	if s.Len() != 3 {
		t.Fatalf("expected 3 retained trades, got %d", s.Len())
	}
	got := tradeIDs(s.Recent(0))
	want := []string{"t5", "t4", "t3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestTradeStore_ZeroCapacity(t *testing.T) {
	s := NewTradeStore(0)
	s.Append(newTestTrade("t1", time.Now()))

	if s.Len() != 0 {
		t.Fatalf("expected nothing retained, got %d", s.Len())
	}
}

func TestTradeStore_ConcurrentAccess(t *testing.T) {
	s := NewTradeStore(1000)
	now := time.Now()

	var wg sync.WaitGroup
	const goroutines = 50

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(newTestTrade(fmt.Sprintf("trade-%d", i), now))
		}(i)
	}

	for _i := 0; _i < goroutines; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Recent(10)
		}()
	}

	wg.Wait()

	if s.Len() != goroutines {
		t.Fatalf("expected %d trades, got %d", goroutines, s.Len())
	}
}
