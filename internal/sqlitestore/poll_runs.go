package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"tweetwatch/internal/models"
)

// RecordRun appends a poll run audit row.
func (s *Store) RecordRun(ctx context.Context, run *models.PollRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_runs (id, started_at, finished_at, outcome, watermark_before, watermark_after,
			fetched, matched, claimed, notified, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID.String(),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Outcome,
		run.WatermarkBefore,
		run.WatermarkAfter,
		run.Fetched,
		run.Matched,
		run.Claimed,
		run.Notified,
		run.Failed,
		nullString(run.Error),
	)
	return err
}

// RecentRuns returns the latest poll runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]models.PollRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, watermark_before, watermark_after,
			fetched, matched, claimed, notified, failed, error
		FROM poll_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.PollRun
	for rows.Next() {
		var (
			r                 models.PollRun
			id                string
			started, finished string
			errText           sql.NullString
		)
		if err := rows.Scan(
			&id,
			&started,
			&finished,
			&r.Outcome,
			&r.WatermarkBefore,
			&r.WatermarkAfter,
			&r.Fetched,
			&r.Matched,
			&r.Claimed,
			&r.Notified,
			&r.Failed,
			&errText,
		); err != nil {
			return nil, err
		}
		r.ID, _ = uuid.Parse(id)
		r.StartedAt, r.FinishedAt = parseTime(started), parseTime(finished)
		if errText.Valid {
			r.Error = &errText.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ClaimCountsByKeyword returns the number of processed items per keyword.
func (s *Store) ClaimCountsByKeyword(ctx context.Context) ([]models.KeywordClaimCount, error) {
	rows, err := s.db.QueryContext(ctx, `
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
