// Package sqlitestore is a single-file SQLite backend for local and
// single-host deployments. It exposes the same operations as the PostgreSQL
// store in internal/db.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"tweetwatch/internal/ledger"
	"tweetwatch/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// timeLayout is how timestamps are stored in TEXT columns. The fixed width
// keeps lexical and chronological order identical.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// SQLite prefers a single writer; every statement shares one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("applying sqlite schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// translateError maps SQLite constraint violations to the shared store sentinels.
func translateError(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	code := sqliteErr.Code()
	msg := sqliteErr.Error()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY || strings.Contains(msg, "FOREIGN KEY constraint"):
		return models.ErrInvalidReference
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		strings.Contains(msg, "UNIQUE constraint"):
		return models.ErrDuplicate
	}
	return err
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}

// EnsureWatermark creates the single service_state row with a zero watermark.
func (s *Store) EnsureWatermark(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_state (id, last_tweet_id, updated_at)
		VALUES (1, 0, ?)
		ON CONFLICT (id) DO NOTHING
	`, now())
	return err
}

// Watermark returns the last scanned item id, or zero if none is recorded.
func (s *Store) Watermark(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT last_tweet_id FROM service_state WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading watermark: %w", err)
	}
	return id, nil
}

// InCycle runs fn inside a single transaction that commits only if fn returns nil.
func (s *Store) InCycle(ctx context.Context, fn ledger.Func) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning cycle: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &cycleTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cycle: %w", err)
	}
	return nil
}

type cycleTx struct {
	tx *sql.Tx
}

func (c *cycleTx) TryClaim(ctx context.Context, itemID, keywordID int64) (bool, error) {
	res, err := c.tx.ExecContext(ctx, `
		INSERT INTO processed_tweets (tweet_id, keyword_id, processed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tweet_id, keyword_id) DO NOTHING
	`, itemID, keywordID, now())
	if err != nil {
		return false, fmt.Errorf("claiming item %d for keyword %d: %w", itemID, keywordID, translateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *cycleTx) SetWatermark(ctx context.Context, itemID int64) error {
	_, err := c.tx.ExecContext(ctx, `
		INSERT INTO service_state (id, last_tweet_id, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET last_tweet_id = MAX(last_tweet_id, excluded.last_tweet_id), updated_at = excluded.updated_at
	`, itemID, now())
	if err != nil {
		return fmt.Errorf("setting watermark to %d: %w", itemID, err)
	}
	return nil
}
