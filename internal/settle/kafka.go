package settle

import (
	"context"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Kafka publishes one message per trade, keyed by trade ID.
type Kafka struct {
	writer *kafka.Writer
	scale  domain.PriceScale
}

// NewKafka creates a synchronous producer for topic.
func NewKafka(brokers []string, topic string, scale domain.PriceScale) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		scale: scale,
	}
}

func (k *Kafka) Publish(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	msgs, err := k.messages(trades)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

func (k *Kafka) messages(trades []domain.Trade) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(trades))
	for _, t := range trades {
		val, err := encodeTrade(k.scale, t)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(t.TradeID),
			Value: val,
			Time:  t.ExecutedAt,
		})
	}
	return msgs, nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
