package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/efreitasn/crossbook/internal/settle"
	"github.com/efreitasn/crossbook/internal/store"
	"github.com/google/uuid"
)

// SettlementError reports that trades were executed but the sink did not
// accept them. The trades remain valid and are recorded locally.
type SettlementError struct {
	Trades int
	Err    error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settle %d trades: %v", e.Trades, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// ClearingService runs matching passes and hands the resulting trades
// off for settlement.
type ClearingService struct {
	books   *BookService
	trades  *store.TradeStore
	sink    settle.Sink
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewClearingService creates a new ClearingService with the given
// dependencies. A nil sink discards trades. A non-positive timeout leaves
// sink calls bounded only by the caller's context.
func NewClearingService(
	books *BookService,
	trades *store.TradeStore,
	sink settle.Sink,
	timeout time.Duration,
	logger *slog.Logger,
) *ClearingService {
	if sink == nil {
		sink = settle.Discard{}
	}
	return &ClearingService{
		books:   books,
		trades:  trades,
		sink:    sink,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Clear crosses the book once. Trades are stamped with an ID and a shared
// execution time, recorded, and published to the sink after the book
// lock has been released. If the sink fails the trades are still
// returned together with a *SettlementError; they are not retried.
func (s *ClearingService) Clear(ctx context.Context) ([]domain.Trade, error) {
	trades := s.books.RunMatch()
	if len(trades) == 0 {
		return nil, nil
	}

	executedAt := s.now().UTC()
	for i := range trades {
		trades[i].TradeID = uuid.New().String()
		trades[i].ExecutedAt = executedAt
	}
	s.trades.Append(trades...)

	s.logger.Info("book crossed",
		slog.Int("trades", len(trades)),
		slog.Int64("quantity", matchedQuantity(trades)),
	)

	if err := s.publish(ctx, trades); err != nil {
		s.logger.Error("settlement handoff failed",
			slog.Int("trades", len(trades)),
			slog.String("error", err.Error()),
		)
		return trades, &SettlementError{Trades: len(trades), Err: err}
	}
	return trades, nil
}

func (s *ClearingService) publish(ctx context.Context, trades []domain.Trade) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.sink.Publish(ctx, trades)
}

// Recent returns up to limit recorded trades, newest first.
func (s *ClearingService) Recent(limit int) []domain.Trade {
	return s.trades.Recent(limit)
}

func matchedQuantity(trades []domain.Trade) int64 {
	var total int64
	for _, t := range trades {
		total += t.Quantity
	}
	return total
}
