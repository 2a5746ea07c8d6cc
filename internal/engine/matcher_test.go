package engine

import (
	"testing"

	"github.com/efreitasn/crossbook/internal/domain"
)

// book builds a slice of orders from (price, quantity) pairs, assigning
// arrival sequence in slice order.
func book(pairs ...[2]int64) []domain.Order {
	out := make([]domain.Order, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Order{Price: p[0], Quantity: p[1], Seq: uint64(i + 1)}
	}
	return out
}

func TestMatch_CrossingExample(t *testing.T) {
	bids := book([2]int64{105, 10}, [2]int64{100, 5}, [2]int64{90, 5})
	asks := book([2]int64{99, 8}, [2]int64{98, 15})

	trades, remBids, remAsks := Match(bids, asks)

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}

	// Ask 98 crosses bid 105 for 10.
	if trades[0].Bid.Price != 105 || trades[0].Ask.Price != 98 || trades[0].Quantity != 10 {
		t.Errorf("trade 0: bid=%d ask=%d qty=%d, want 105/98/10",
			trades[0].Bid.Price, trades[0].Ask.Price, trades[0].Quantity)
	}
	// Remaining ask 98 (5) crosses bid 100 for 5.
	if trades[1].Bid.Price != 100 || trades[1].Ask.Price != 98 || trades[1].Quantity != 5 {
		t.Errorf("trade 1: bid=%d ask=%d qty=%d, want 100/98/5",
			trades[1].Bid.Price, trades[1].Ask.Price, trades[1].Quantity)
	}

	var total int64
	for _, tr := range trades {
		total += tr.Quantity
	}
	if total != 15 {
		t.Errorf("total matched = %d, want 15", total)
	}

	if len(remBids) != 1 || remBids[0].Price != 90 || remBids[0].Quantity != 5 {
		t.Errorf("remaining bids = %+v, want [(90,5)]", remBids)
	}
	if len(remAsks) != 1 || remAsks[0].Price != 99 || remAsks[0].Quantity != 8 {
		t.Errorf("remaining asks = %+v, want [(99,8)]", remAsks)
	}
}

func TestMatch_TradeSidesCarryMatchedQuantity(t *testing.T) {
	bids := []domain.Order{{ID: "b", Price: 105, Quantity: 10, SettlementRef: "0xbuyer"}}
	asks := []domain.Order{{ID: "a", Price: 98, Quantity: 4, SettlementRef: "0xseller"}}

	trades, _, _ := Match(bids, asks)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.Bid.Quantity != 4 || tr.Ask.Quantity != 4 {
		t.Errorf("side quantities = (%d, %d), want (4, 4)", tr.Bid.Quantity, tr.Ask.Quantity)
	}
	// Each side keeps its own price and reference.
	if tr.Bid.Price != 105 || tr.Ask.Price != 98 {
		t.Errorf("side prices = (%d, %d), want (105, 98)", tr.Bid.Price, tr.Ask.Price)
	}
	if tr.Bid.SettlementRef != "0xbuyer" || tr.Ask.SettlementRef != "0xseller" {
		t.Errorf("settlement refs = (%q, %q)", tr.Bid.SettlementRef, tr.Ask.SettlementRef)
	}
	if tr.Bid.ID != "b" || tr.Ask.ID != "a" {
		t.Errorf("order ids = (%q, %q), want (b, a)", tr.Bid.ID, tr.Ask.ID)
	}
}

func TestMatch_NoCross(t *testing.T) {
	bids := book([2]int64{50, 1})
	asks := book([2]int64{60, 1})

	trades, remBids, remAsks := Match(bids, asks)
	if len(trades) != 0 {
		t.Errorf("expected 0 trades, got %d", len(trades))
	}
	if len(remBids) != 1 || remBids[0].Price != 50 || remBids[0].Quantity != 1 {
		t.Errorf("bids changed: %+v", remBids)
	}
	if len(remAsks) != 1 || remAsks[0].Price != 60 || remAsks[0].Quantity != 1 {
		t.Errorf("asks changed: %+v", remAsks)
	}
}

func TestMatch_EqualPriceCrosses(t *testing.T) {
	trades, remBids, remAsks := Match(book([2]int64{100, 5}), book([2]int64{100, 5}))

	if len(trades) != 1 || trades[0].Quantity != 5 {
		t.Fatalf("expected one trade of 5, got %+v", trades)
	}
	if len(remBids) != 0 || len(remAsks) != 0 {
		t.Errorf("expected both sides empty, got bids=%d asks=%d", len(remBids), len(remAsks))
	}
}

func TestMatch_EmptySides(t *testing.T) {
	bids := book([2]int64{100, 5})

	trades, remBids, remAsks := Match(bids, nil)
	if len(trades) != 0 {
		t.Errorf("expected 0 trades with empty asks, got %d", len(trades))
	}
	if len(remBids) != 1 || len(remAsks) != 0 {
		t.Errorf("unexpected remainders: bids=%d asks=%d", len(remBids), len(remAsks))
	}

	trades, remBids, remAsks = Match(nil, bids)
	if len(trades) != 0 {
		t.Errorf("expected 0 trades with empty bids, got %d", len(trades))
	}
	if len(remBids) != 0 || len(remAsks) != 1 {
		t.Errorf("unexpected remainders: bids=%d asks=%d", len(remBids), len(remAsks))
	}
}

func TestMatch_FIFOWithinPriceLevel(t *testing.T) {
	bids := []domain.Order{
		{Price: 100, Quantity: 3, Seq: 1, SettlementRef: "first"},
		{Price: 100, Quantity: 3, Seq: 2, SettlementRef: "second"},
	}
	asks := []domain.Order{{Price: 100, Quantity: 4, Seq: 3}}

	trades, remBids, _ := Match(bids, asks)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Bid.SettlementRef != "first" || trades[0].Quantity != 3 {
		t.Errorf("first fill went to %q for %d, want first/3", trades[0].Bid.SettlementRef, trades[0].Quantity)
	}
	if trades[1].Bid.SettlementRef != "second" || trades[1].Quantity != 1 {
		t.Errorf("second fill went to %q for %d, want second/1", trades[1].Bid.SettlementRef, trades[1].Quantity)
	}
	if len(remBids) != 1 || remBids[0].SettlementRef != "second" || remBids[0].Quantity != 2 {
		t.Errorf("remaining bids = %+v, want second with 2", remBids)
	}
}

func TestMatch_StableSortWithoutSeq(t *testing.T) {
	// Orders with no sequence keep their input order on ties.
	bids := []domain.Order{
		{Price: 100, Quantity: 1, SettlementRef: "x"},
		{Price: 100, Quantity: 1, SettlementRef: "y"},
	}
	asks := []domain.Order{{Price: 90, Quantity: 1}}

	trades, _, _ := Match(bids, asks)
	if len(trades) != 1 || trades[0].Bid.SettlementRef != "x" {
		t.Errorf("expected x to fill first, got %+v", trades)
	}
}

func TestMatch_DoesNotMutateInputs(t *testing.T) {
	bids := book([2]int64{105, 10})
	asks := book([2]int64{98, 4})

	Match(bids, asks)

	if bids[0].Quantity != 10 || asks[0].Quantity != 4 {
		t.Errorf("inputs mutated: bid=%d ask=%d", bids[0].Quantity, asks[0].Quantity)
	}
}

func TestMatch_UnsortedInput(t *testing.T) {
	bids := book([2]int64{90, 1}, [2]int64{110, 1}, [2]int64{100, 1})
	asks := book([2]int64{105, 1}, [2]int64{95, 1})

	trades, remBids, remAsks := Match(bids, asks)

	// 110 x 95, then 100 < 105 stops.
	if len(trades) != 1 || trades[0].Bid.Price != 110 || trades[0].Ask.Price != 95 {
		t.Fatalf("unexpected trades: %+v", trades)
	}
	if !equalInts(prices(remBids), []int64{100, 90}) {
		t.Errorf("remaining bids = %v, want [100 90]", prices(remBids))
	}
	if !equalInts(prices(remAsks), []int64{105}) {
		t.Errorf("remaining asks = %v, want [105]", prices(remAsks))
	}
}

func TestMatch_SelfTradeNotPrevented(t *testing.T) {
	bids := []domain.Order{{Price: 100, Quantity: 1, SettlementRef: "0xsame"}}
	asks := []domain.Order{{Price: 100, Quantity: 1, SettlementRef: "0xsame"}}

	trades, _, _ := Match(bids, asks)
	if len(trades) != 1 {
		t.Errorf("expected self-trade to match, got %d trades", len(trades))
	}
}

func TestMatch_DropsEmptyOrders(t *testing.T) {
	bids := []domain.Order{{Price: 100, Quantity: 0}, {Price: 99, Quantity: 2}}
	asks := []domain.Order{{Price: 99, Quantity: 2}}

	trades, remBids, remAsks := Match(bids, asks)
	if len(trades) != 1 || trades[0].Bid.Price != 99 || trades[0].Quantity != 2 {
		t.Errorf("unexpected trades: %+v", trades)
	}
	if len(remBids) != 0 || len(remAsks) != 0 {
		t.Errorf("expected empty book, got bids=%d asks=%d", len(remBids), len(remAsks))
	}
}
