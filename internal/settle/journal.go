package settle

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/efreitasn/crossbook/internal/domain"
)

const journalPrefix = "trade/"

// Journal appends trades to a local pebble database. Keys sort by
// execution time, then by position within the published batch, so the
// journal scans back in match order even when a batch shares one
// timestamp.
type Journal struct {
	db    *pebble.DB
	scale domain.PriceScale
}

// OpenJournal opens (or creates) a journal in dir.
func OpenJournal(dir string, scale domain.PriceScale) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db, scale: scale}, nil
}

// Publish writes the batch atomically and syncs it to disk.
func (j *Journal) Publish(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := j.db.NewBatch()
	defer batch.Close()

	for i, t := range trades {
		val, err := encodeTrade(j.scale, t)
		if err != nil {
			return err
		}
		if err := batch.Set(journalKey(t, i), val, nil); err != nil {
			return fmt.Errorf("journal %s: %w", t.TradeID, err)
		}
	}
	return batch.Commit(pebble.Sync)
}

// List returns up to limit journaled trades, newest first. A
// non-positive limit returns all of them.
func (j *Journal) List(ctx context.Context, limit int) ([]domain.Trade, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(journalPrefix),
		UpperBound: []byte("trade0"), // '0' sorts right after '/'
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []domain.Trade
	for iter.Last(); iter.Valid(); iter.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := decodeTrade(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("journal key %s: %w", iter.Key(), err)
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}

// Close flushes and closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// journalKey is trade/<executed-at unix nanos>/<batch position>/<trade id>,
// with both numbers zero padded.
func journalKey(t domain.Trade, pos int) []byte {
	return []byte(fmt.Sprintf("%s%020d/%010d/%s", journalPrefix, t.ExecutedAt.UnixNano(), pos, t.TradeID))
}
