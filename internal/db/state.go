package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tweetwatch/internal/ledger"
)

// EnsureWatermark creates the single service_state row with a zero watermark.
// It is a no-op when the row already exists.
func (d *DB) EnsureWatermark(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO service_state (id, last_tweet_id)
		VALUES (1, 0)
		ON CONFLICT (id) DO NOTHING
	`)
	return err
}

// Watermark returns the last scanned item id, or zero if none is recorded.
func (d *DB) Watermark(ctx context.Context) (int64, error) {
	var id int64
	err := d.Pool.QueryRow(ctx, `SELECT last_tweet_id FROM service_state WHERE id = 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read watermark: %w", err)
	}
	return id, nil
}

// InCycle runs fn inside a single transaction. The transaction commits only
// if fn returns nil.
func (d *DB) InCycle(ctx context.Context, fn ledger.Func) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin cycle: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &cycleTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cycle: %w", err)
	}
	return nil
}

// cycleTx implements ledger.Tx on a pgx transaction.
type cycleTx struct {
	tx pgx.Tx
}

func (c *cycleTx) TryClaim(ctx context.Context, itemID, keywordID int64) (bool, error) {
	result, err := c.tx.Exec(ctx, `
		INSERT INTO processed_tweets (tweet_id, keyword_id)
		VALUES ($1, $2)
		ON CONFLICT (tweet_id, keyword_id) DO NOTHING
	`, itemID, keywordID)
	if err != nil {
		return false, fmt.Errorf("failed to claim item %d for keyword %d: %w", itemID, keywordID, translateError(err))
	}
	return result.RowsAffected() == 1, nil
}

func (c *cycleTx) SetWatermark(ctx context.Context, itemID int64) error {
	_, err := c.tx.Exec(ctx, `
		INSERT INTO service_state (id, last_tweet_id, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET last_tweet_id = GREATEST(service_state.last_tweet_id, EXCLUDED.last_tweet_id), updated_at = NOW()
	`, itemID)
	if err != nil {
		return fmt.Errorf("failed to set watermark to %d: %w", itemID, err)
	}
	return nil
}
