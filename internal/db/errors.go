package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tweetwatch/internal/models"
)

// PostgreSQL error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translateError maps constraint violations to the shared store sentinels.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return models.ErrDuplicate
		case codeForeignKeyViolation:
			return models.ErrInvalidReference
		}
	}
	return err
}
