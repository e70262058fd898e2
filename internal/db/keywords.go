package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tweetwatch/internal/models"
)

// keywordColumns is the standard column list for keyword queries.
const keywordColumns = `id, keyword_text, is_active, created_at, updated_at`

// scanKeyword scans a row into a Keyword struct.
func scanKeyword(row pgx.Row) (*models.Keyword, error) {
	var k models.Keyword
	err := row.Scan(&k.ID, &k.Text, &k.Active, &k.CreatedAt, &k.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrKeywordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// ListKeywords returns every keyword, active or not, ordered by id.
func (d *DB) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+keywordColumns+` FROM keywords ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []models.Keyword
	for rows.Next() {
		var k models.Keyword
		if err := rows.Scan(&k.ID, &k.Text, &k.Active, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// GetKeyword returns a keyword by id.
func (d *DB) GetKeyword(ctx context.Context, id int64) (*models.Keyword, error) {
	return scanKeyword(d.Pool.QueryRow(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE id = $1`, id))
}

// GetKeywordByText returns a keyword by its exact text.
func (d *DB) GetKeywordByText(ctx context.Context, text string) (*models.Keyword, error) {
	return scanKeyword(d.Pool.QueryRow(ctx,
		`SELECT `+keywordColumns+` FROM keywords WHERE keyword_text = $1`, text))
}

// CreateKeyword inserts a keyword and fills in its generated fields.
func (d *DB) CreateKeyword(ctx context.Context, k *models.Keyword) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO keywords (keyword_text, is_active)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, k.Text, k.Active).Scan(&k.ID, &k.CreatedAt, &k.UpdatedAt)
	return translateError(err)
}

// UpdateKeyword updates the text and active flag of an existing keyword.
func (d *DB) UpdateKeyword(ctx context.Context, k *models.Keyword) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE keywords
		SET keyword_text = $1, is_active = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_at, updated_at
	`, k.Text, k.Active, k.ID).Scan(&k.CreatedAt, &k.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrKeywordNotFound
	}
	return translateError(err)
}

// DeleteKeyword deletes a keyword. Mappings and processed records cascade.
func (d *DB) DeleteKeyword(ctx context.Context, id int64) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM keywords WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrKeywordNotFound
	}
	return nil
}

// ActiveKeywordRecipients returns active keywords joined with their active
// recipients. Keywords without any active recipient are not returned.
func (d *DB) ActiveKeywordRecipients(ctx context.Context) ([]models.KeywordRecipient, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT k.id, k.keyword_text, k.is_active,
			r.id, r.twitter_user_id, r.twitter_screen_name, r.is_active
		FROM keywords k
		JOIN keyword_recipients kr ON kr.keyword_id = k.id
		JOIN recipients r ON r.id = kr.recipient_id
		WHERE k.is_active = TRUE AND r.is_active = TRUE
		ORDER BY k.keyword_text, r.id
	`)
	if err != nil {
		return nil, err
	}
	return scanKeywordRecipients(rows)
}

// scanKeywordRecipients scans join rows into KeywordRecipient values.
func scanKeywordRecipients(rows pgx.Rows) ([]models.KeywordRecipient, error) {
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
