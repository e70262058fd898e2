package db

import (
	"context"

	"tweetwatch/internal/models"
)

// RecordRun appends a poll run audit row.
func (d *DB) RecordRun(ctx context.Context, run *models.PollRun) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO poll_runs (id, started_at, finished_at, outcome, watermark_before, watermark_after,
			fetched, matched, claimed, notified, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Outcome,
		run.WatermarkBefore,
		run.WatermarkAfter,
		run.Fetched,
		run.Matched,
		run.Claimed,
		run.Notified,
		run.Failed,
		run.Error,
	)
	return err
}

// RecentRuns returns the latest poll runs, newest first.
func (d *DB) RecentRuns(ctx context.Context, limit int) ([]models.PollRun, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, started_at, finished_at, outcome, watermark_before, watermark_after,
			fetched, matched, claimed, notified, failed, error
		FROM poll_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.PollRun
	for rows.Next() {
		var r models.PollRun
		if err := rows.Scan(
			&r.ID,
			&r.StartedAt,
			&r.FinishedAt,
			&r.Outcome,
			&r.WatermarkBefore,
			&r.WatermarkAfter,
			&r.Fetched,
			&r.Matched,
			&r.Claimed,
			&r.Notified,
			&r.Failed,
			&r.Error,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ClaimCountsByKeyword returns the number of processed items per keyword for metrics export.
func (d *DB) ClaimCountsByKeyword(ctx context.Context) ([]models.KeywordClaimCount, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT k.id, k.keyword_text, COUNT(p.tweet_id)
		FROM keywords k
		LEFT JOIN processed_tweets p ON p.keyword_id = k.id
		GROUP BY k.id, k.keyword_text
		ORDER BY k.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.KeywordClaimCount
	for rows.Next() {
		var c models.KeywordClaimCount
		if err := rows.Scan(&c.KeywordID, &c.KeywordText, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
