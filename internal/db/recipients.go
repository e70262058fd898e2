package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tweetwatch/internal/models"
)

const recipientColumns = `id, twitter_user_id, twitter_screen_name, description, is_active, created_at, updated_at`

func scanRecipient(row pgx.Row) (*models.Recipient, error) {
	var r models.Recipient
	err := row.Scan(&r.ID, &r.ExternalUserID, &r.ScreenName, &r.Description, &r.Active, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrRecipientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecipients returns every recipient, active or not, ordered by id.
func (d *DB) ListRecipients(ctx context.Context) ([]models.Recipient, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+recipientColumns+` FROM recipients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.ID, &r.ExternalUserID, &r.ScreenName, &r.Description, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// GetRecipient returns a recipient by id.
func (d *DB) GetRecipient(ctx context.Context, id int64) (*models.Recipient, error) {
	return scanRecipient(d.Pool.QueryRow(ctx,
		`SELECT `+recipientColumns+` FROM recipients WHERE id = $1`, id))
}

// GetRecipientByExternalID returns a recipient by X user id.
func (d *DB) GetRecipientByExternalID(ctx context.Context, externalID int64) (*models.Recipient, error) {
	return scanRecipient(d.Pool.QueryRow(ctx,
		`SELECT `+recipientColumns+` FROM recipients WHERE twitter_user_id = $1`, externalID))
}

// CreateRecipient inserts a recipient and fills in its generated fields.
func (d *DB) CreateRecipient(ctx context.Context, r *models.Recipient) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO recipients (twitter_user_id, twitter_screen_name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.ExternalUserID, r.ScreenName, r.Description, r.Active).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	return translateError(err)
}

// UpdateRecipient updates an existing recipient.
func (d *DB) UpdateRecipient(ctx context.Context, r *models.Recipient) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE recipients
		SET twitter_user_id = $1, twitter_screen_name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING created_at, updated_at
	`, r.ExternalUserID, r.ScreenName, r.Description, r.Active, r.ID).Scan(&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrRecipientNotFound
	}
	return translateError(err)
}

// DeleteRecipient deletes a recipient. Its mappings cascade.
func (d *DB) DeleteRecipient(ctx context.Context, id int64) error {
	result, err := d.Pool.Exec(ctx, `DELETE FROM recipients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrRecipientNotFound
	}
	return nil
}
