package settle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/google/uuid"
)

const tradesExecutedEvent = "trades.executed"

// Webhook POSTs each batch as JSON to a fixed URL.
type Webhook struct {
	url    string
	scale  domain.PriceScale
	client *http.Client
}

// NewWebhook creates a webhook sink with the given request timeout.
func NewWebhook(url string, timeout time.Duration, scale domain.PriceScale) *Webhook {
	return &Webhook{
		url:    url,
		scale:  scale,
		client: &http.Client{Timeout: timeout},
	}
}

// webhookPayload is the JSON body of a delivery.
type webhookPayload struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      []tradeMessage `json:"data"`
}

// Publish delivers the batch. Any non-2xx response is an error.
func (w *Webhook) Publish(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	payload := webhookPayload{
		Event:     tradesExecutedEvent,
		Timestamp: trades[0].ExecutedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      make([]tradeMessage, 0, len(trades)),
	}
	for _, t := range trades {
		payload.Data = append(payload.Data, newTradeMessage(w.scale, t))
	}
	return w.deliver(ctx, payload)
}

// deliver sends the payload via HTTP POST with the delivery headers.
func (w *Webhook) deliver(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Event-Type", payload.Event)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
