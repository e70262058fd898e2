package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"tweetwatch/internal/models"
)

const keywordColumns = `id, keyword_text, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeyword(row rowScanner) (*models.Keyword, error) {
	var (
		k                models.Keyword
		created, updated string
	)
	err := row.Scan(&k.ID, &k.Text, &k.Active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrKeywordNotFound
	}
	if err != nil {
		return nil, err
	}
	k.CreatedAt, k.UpdatedAt = parseTime(created), parseTime(updated)
	return &k, nil
}

// ListKeywords returns every keyword ordered by id.
func (s *Store) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+keywordColumns+` FROM keywords ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []models.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, *k)
	}
	return keywords, rows.Err()
}

// GetKeyword returns a keyword by id.
func (s *Store) GetKeyword(ctx context.Context, id int64) (*models.Keyword, error) {
	return scanKeyword(s.db.QueryRowContext(ctx, `SELECT `+keywordColumns+` FROM keywords WHERE id = ?`, id))
}

// GetKeywordByText returns a keyword by its exact text.
func (s *Store) GetKeywordByText(ctx context.Context, text string) (*models.Keyword, error) {
	return scanKeyword(s.db.QueryRowContext(ctx, `SELECT `+keywordColumns+` FROM keywords WHERE keyword_text = ?`, text))
}

// CreateKeyword inserts a keyword and fills in its generated fields.
func (s *Store) CreateKeyword(ctx context.Context, k *models.Keyword) error {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO keywords (keyword_text, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, k.Text, k.Active, ts, ts)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	k.ID = id
	k.CreatedAt, k.UpdatedAt = parseTime(ts), parseTime(ts)
	return nil
}

// UpdateKeyword updates the text and active flag of an existing keyword.
func (s *Store) UpdateKeyword(ctx context.Context, k *models.Keyword) error {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE keywords SET keyword_text = ?, is_active = ?, updated_at = ? WHERE id = ?
	`, k.Text, k.Active, ts, k.ID)
	if err != nil {
		return translateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrKeywordNotFound
	}
	k.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteKeyword deletes a keyword. Mappings and processed records cascade.
func (s *Store) DeleteKeyword(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrKeywordNotFound
	}
	return nil
}

// ActiveKeywordRecipients returns active keywords joined with their active recipients.
func (s *Store) ActiveKeywordRecipients(ctx context.Context) ([]models.KeywordRecipient, error) {
	return s.queryKeywordRecipients(ctx, `
		SELECT k.id, k.keyword_text, k.is_active,
			r.id, r.twitter_user_id, r.twitter_screen_name, r.is_active
		FROM keywords k
		JOIN keyword_recipients kr ON kr.keyword_id = k.id
		JOIN recipients r ON r.id = kr.recipient_id
		WHERE k.is_active = 1 AND r.is_active = 1
		ORDER BY k.keyword_text, r.id
	`)
}

func (s *Store) queryKeywordRecipients(ctx context.Context, query string) ([]models.KeywordRecipient, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.KeywordRecipient
	for rows.Next() {
		var kr models.KeywordRecipient
		if err := rows.Scan(
			&kr.KeywordID,
			&kr.KeywordText,
			&kr.KeywordActive,
			&kr.RecipientID,
			&kr.ExternalUserID,
			&kr.ScreenName,
			&kr.RecipientActive,
		); err != nil {
			return nil, err
		}
		out = append(out, kr)
	}
	return out, rows.Err()
}
