package sqlitestore

import (
	"context"
	"database/sql"
	"errors"

	"tweetwatch/internal/models"
)

const recipientColumns = `id, twitter_user_id, twitter_screen_name, description, is_active, created_at, updated_at`

func scanRecipient(row rowScanner) (*models.Recipient, error) {
	var (
		r                models.Recipient
		created, updated string
	)
	err := row.Scan(&r.ID, &r.ExternalUserID, &r.ScreenName, &r.Description, &r.Active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, r.UpdatedAt = parseTime(created), parseTime(updated)
	return &r, nil
}

// ListRecipients returns every recipient ordered by id.
func (s *Store) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recipientColumns+` FROM recipients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, *r)
	}
	return recipients, rows.Err()
}

// GetRecipient returns a recipient by id.
func (s *Store) GetRecipient(ctx context.Context, id int64) (*models.Recipient, error) {
	return scanRecipient(s.db.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE id = ?`, id))
}

// GetRecipientByExternalID returns a recipient by X user id.
func (s *Store) GetRecipientByExternalID(ctx context.Context, externalID int64) (*models.Recipient, error) {
	return scanRecipient(s.db.QueryRowContext(ctx, `SELECT `+recipientColumns+` FROM recipients WHERE twitter_user_id = ?`, externalID))
}

// CreateRecipient inserts a recipient and fills in its generated fields.
func (s *Store) CreateRecipient(ctx context.Context, r *models.Recipient) error {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recipients (twitter_user_id, twitter_screen_name, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ExternalUserID, r.ScreenName, r.Description, r.Active, ts, ts)
	if err != nil {
		return translateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt, r.UpdatedAt = parseTime(ts), parseTime(ts)
	return nil
}

// UpdateRecipient updates an existing recipient.
func (s *Store) UpdateRecipient(ctx context.Context, r *models.Recipient) error {
	ts := now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipients
		SET twitter_user_id = ?, twitter_screen_name = ?, description = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, r.ExternalUserID, r.ScreenName, r.Description, r.Active, ts, r.ID)
	if err != nil {
		return translateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrRecipientNotFound
	}
	r.UpdatedAt = parseTime(ts)
	return nil
}

// DeleteRecipient deletes a recipient. Its mappings cascade.
func (s *Store) DeleteRecipient(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrRecipientNotFound
	}
	return nil
}

// ListMappings returns every mapping with both sides joined in.
func (s *Store) ListMappings(ctx context.Context) ([]models.KeywordRecipient, error) {
	return s.queryKeywordRecipients(ctx, `
		SELECT k.id, k.keyword_text, k.is_active,
			r.id, r.twitter_user_id, r.twitter_screen_name, r.is_active
		FROM keyword_recipients kr
		JOIN keywords k ON k.id = kr.keyword_id
		JOIN recipients r ON r.id = kr.recipient_id
		ORDER BY k.keyword_text, r.id
	`)
}

// CreateMapping maps a keyword to a recipient.
func (s *Store) CreateMapping(ctx context.Context, keywordID, recipientID int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keyword_recipients (keyword_id, recipient_id, created_at) VALUES (?, ?, ?)
	`, keywordID, recipientID, now())
	return translateError(err)
}

// DeleteMapping removes a keyword/recipient mapping.
func (s *Store) DeleteMapping(ctx context.Context, keywordID, recipientID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM keyword_recipients WHERE keyword_id = ? AND recipient_id = ?
	`, keywordID, recipientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrMappingNotFound
	}
	return nil
}
