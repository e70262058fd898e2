// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tweetwatch/internal/db"
	"tweetwatch/internal/models"
	"tweetwatch/internal/sqlitestore"
)

// Store is the set of store operations the fixtures need.
type Store interface {
	CreateKeyword(ctx context.Context, k *models.Keyword) error
	CreateRecipient(ctx context.Context, r *models.Recipient) error
	CreateMapping(ctx context.Context, keywordID, recipientID int64) error
}

// SQLiteStore opens a fresh SQLite store in a temporary directory. It is
// closed when the test ends.
func SQLiteStore(t *testing.T) *sqlitestore.Store {
	t.Helper()

	store, err := sqlitestore.Open(context.Background(), filepath.Join(t.TempDir(), "tweetwatch.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// PostgresStore connects to TEST_DATABASE_URL, runs migrations and empties
// every table. The test is skipped when the variable is not set.
func PostgresStore(t *testing.T) *db.DB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database)
	t.Cleanup(func() {
		cleanupTestData(ctx, database)
		database.Close()
	})
	return database
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, database *db.DB) {
	// Delete in order to respect foreign keys
	database.Pool.Exec(ctx, "DELETE FROM poll_runs")
	database.Pool.Exec(ctx, "DELETE FROM processed_tweets")
	database.Pool.Exec(ctx, "DELETE FROM service_state")
	database.Pool.Exec(ctx, "DELETE FROM keyword_recipients")
	database.Pool.Exec(ctx, "DELETE FROM recipients")
	database.Pool.Exec(ctx, "DELETE FROM keywords")
}

// CreateTestKeyword creates an active keyword and returns it.
func CreateTestKeyword(t *testing.T, store Store, text string) *models.Keyword {
	t.Helper()

	k := &models.Keyword{Text: text, Active: true}
	if err := store.CreateKeyword(context.Background(), k); err != nil {
		t.Fatalf("failed to create test keyword %q: %v", text, err)
	}
	return k
}

// CreateTestRecipient creates an active recipient and returns it.
func CreateTestRecipient(t *testing.T, store Store, twitterUserID int64, screenName string) *models.Recipient {
	t.Helper()

	r := &models.Recipient{ExternalUserID: twitterUserID, ScreenName: screenName, Active: true}
	if err := store.CreateRecipient(context.Background(), r); err != nil {
		t.Fatalf("failed to create test recipient %q: %v", screenName, err)
	}
	return r
}

// MapTestKeyword maps a keyword to a recipient.
func MapTestKeyword(t *testing.T, store Store, k *models.Keyword, r *models.Recipient) {
	t.Helper()

	if err := store.CreateMapping(context.Background(), k.ID, r.ID); err != nil {
		t.Fatalf("failed to map %q to %q: %v", k.Text, r.ScreenName, err)
	}
}
