package settle

import (
	"context"
	"fmt"

	"github.com/efreitasn/crossbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id           UUID PRIMARY KEY,
	executed_at        TIMESTAMPTZ NOT NULL,
	quantity           BIGINT NOT NULL,
	bid_order_id       UUID NOT NULL,
	bid_price          NUMERIC NOT NULL,
	bid_settlement_ref TEXT NOT NULL,
	ask_order_id       UUID NOT NULL,
	ask_price          NUMERIC NOT NULL,
	ask_settlement_ref TEXT NOT NULL
)`

const insertTrade = `
INSERT INTO trades (
	trade_id, executed_at, quantity,
	bid_order_id, bid_price, bid_settlement_ref,
	ask_order_id, ask_price, ask_settlement_ref
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (trade_id) DO NOTHING`

// Postgres records trades in a trades table, one transaction per batch.
type Postgres struct {
	pool  *pgxpool.Pool
	scale domain.PriceScale
}

// OpenPostgres connects to url and makes sure the trades table exists.
func OpenPostgres(ctx context.Context, url string, scale domain.PriceScale) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTradesTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create trades table: %w", err)
	}
	return &Postgres{pool: pool, scale: scale}, nil
}

func (p *Postgres) Publish(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(insertTrade, p.row(t)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert trades: %w", err)
	}
	return tx.Commit(ctx)
}

// row returns the insert arguments for t. Prices are sent as decimal
// strings so NUMERIC keeps them exact.
func (p *Postgres) row(t domain.Trade) []any {
	return []any{
		t.TradeID, t.ExecutedAt, t.Quantity,
		t.Bid.ID, p.scale.Format(t.Bid.Price), t.Bid.SettlementRef,
		t.Ask.ID, p.scale.Format(t.Ask.Price), t.Ask.SettlementRef,
	}
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
