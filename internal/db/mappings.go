package db

import (
	"context"

	"tweetwatch/internal/models"
)

// ListMappings returns every keyword/recipient mapping with both sides
// joined in, including inactive keywords and recipients.
func (d *DB) ListMappings(ctx context.Context) ([]models.KeywordRecipient, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT k.id, k.keyword_text, k.is_active,
			r.id, r.twitter_user_id, r.twitter_screen_name, r.is_active
		FROM keyword_recipients kr
		JOIN keywords k ON k.id = kr.keyword_id
		JOIN recipients r ON r.id = kr.recipient_id
		ORDER BY k.keyword_text, r.id
	`)
	if err != nil {
		return nil, err
	}
	return scanKeywordRecipients(rows)
}

// CreateMapping maps a keyword to a recipient.
// Returns models.ErrDuplicate if the pair exists and models.ErrInvalidReference
// if either side does not.
func (d *DB) CreateMapping(ctx context.Context, keywordID, recipientID int64) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO keyword_recipients (keyword_id, recipient_id)
		VALUES ($1, $2)
	`, keywordID, recipientID)
	return translateError(err)
}

// DeleteMapping removes a keyword/recipient mapping.
func (d *DB) DeleteMapping(ctx context.Context, keywordID, recipientID int64) error {
	result, err := d.Pool.Exec(ctx, `
		DELETE FROM keyword_recipients WHERE keyword_id = $1 AND recipient_id = $2
	`, keywordID, recipientID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrMappingNotFound
	}
	return nil
}
