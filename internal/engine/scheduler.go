package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/efreitasn/crossbook/internal/domain"
)

// Clearer runs one crossing pass over the book. It is implemented by the
// service layer so the engine does not depend on it.
type Clearer interface {
	Clear(ctx context.Context) ([]domain.Trade, error)
}

// MatchScheduler periodically triggers a crossing pass.
type MatchScheduler struct {
	interval time.Duration
	clearer  Clearer
	logger   *slog.Logger
}

// NewMatchScheduler creates a scheduler that calls clearer every interval.
func NewMatchScheduler(interval time.Duration, clearer Clearer, logger *slog.Logger) *MatchScheduler {
	return &MatchScheduler{
		interval: interval,
		clearer:  clearer,
		logger:   logger,
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and clears the book. It stops when ctx is cancelled. A
// non-positive interval disables the scheduler.
func (s *MatchScheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("match scheduler disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *MatchScheduler) tick(ctx context.Context) {
	trades, err := s.clearer.Clear(ctx)
	if err != nil {
		s.logger.Warn("scheduled match",
			slog.Int("trades", len(trades)),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(trades) > 0 {
		s.logger.Debug("scheduled match", slog.Int("trades", len(trades)))
	}
}
