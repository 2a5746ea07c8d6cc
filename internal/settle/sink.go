// Package settle hands executed trades to an external settlement
// system. The matching core makes no delivery guarantee; a sink either
// accepts a batch or reports an error, and callers decide what to do.
package settle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
)

// Sink receives batches of stamped trades.
type Sink interface {
	Publish(ctx context.Context, trades []domain.Trade) error
	Close() error
}

// Sink kinds accepted by Open.
const (
	KindNone     = "none"
	KindJournal  = "journal"
	KindKafka    = "kafka"
	KindPostgres = "postgres"
	KindWebhook  = "webhook"
)

// Options selects and configures a sink.
type Options struct {
	Kind         string
	Scale        domain.PriceScale
	JournalDir   string
	KafkaBrokers []string
	KafkaTopic   string
	DatabaseURL  string
	WebhookURL   string
	Timeout      time.Duration
}

// Open builds the sink named by opts.Kind.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch opts.Kind {
	case "", KindNone:
		sink = Discard{}
	case KindJournal:
		sink, err = OpenJournal(opts.JournalDir, opts.Scale)
	case KindKafka:
		sink = NewKafka(opts.KafkaBrokers, opts.KafkaTopic, opts.Scale)
	case KindPostgres:
		sink, err = OpenPostgres(ctx, opts.DatabaseURL, opts.Scale)
	case KindWebhook:
		sink = NewWebhook(opts.WebhookURL, opts.Timeout, opts.Scale)
	default:
		return nil, fmt.Errorf("settle: unknown sink %q", opts.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("settle: open %s: %w", opts.Kind, err)
	}

	logger.Info("settlement sink ready", slog.String("kind", kindOrNone(opts.Kind)))
	return sink, nil
}

func kindOrNone(kind string) string {
	if kind == "" {
		return KindNone
	}
	return kind
}

// Discard drops every batch.
type Discard struct{}

func (Discard) Publish(context.Context, []domain.Trade) error { return nil }
func (Discard) Close() error                                  { return nil }

// tradeMessage is the wire form of a trade shared by every sink that
// serializes to JSON.
type tradeMessage struct {
	TradeID    string     `json:"trade_id"`
	Quantity   int64      `json:"quantity"`
	ExecutedAt time.Time  `json:"executed_at"`
	Bid        legMessage `json:"bid"`
	Ask        legMessage `json:"ask"`
}

type legMessage struct {
	OrderID       string `json:"order_id"`
	Price         string `json:"price"`
	PriceMinor    int64  `json:"price_minor"`
	SettlementRef string `json:"settlement_ref"`
}

func newTradeMessage(scale domain.PriceScale, t domain.Trade) tradeMessage {
	leg := func(o domain.Order) legMessage {
		return legMessage{
			OrderID:       o.ID,
			Price:         scale.Format(o.Price),
			PriceMinor:    o.Price,
			SettlementRef: o.SettlementRef,
		}
	}
	return tradeMessage{
		TradeID:    t.TradeID,
		Quantity:   t.Quantity,
		ExecutedAt: t.ExecutedAt.UTC(),
		Bid:        leg(t.Bid),
		Ask:        leg(t.Ask),
	}
}

// trade rebuilds the domain value. Minor units are authoritative; the
// decimal price is informational.
func (m tradeMessage) trade() domain.Trade {
	order := func(l legMessage) domain.Order {
		return domain.Order{
			ID:            l.OrderID,
			Price:         l.PriceMinor,
			Quantity:      m.Quantity,
			SettlementRef: l.SettlementRef,
		}
	}
	return domain.Trade{
		TradeID:    m.TradeID,
		Bid:        order(m.Bid),
		Ask:        order(m.Ask),
		Quantity:   m.Quantity,
		ExecutedAt: m.ExecutedAt,
	}
}

func encodeTrade(scale domain.PriceScale, t domain.Trade) ([]byte, error) {
	b, err := json.Marshal(newTradeMessage(scale, t))
	if err != nil {
		return nil, fmt.Errorf("encode trade %s: %w", t.TradeID, err)
	}
	return b, nil
}

func decodeTrade(b []byte) (domain.Trade, error) {
	var m tradeMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return domain.Trade{}, fmt.Errorf("decode trade: %w", err)
	}
	return m.trade(), nil
}
