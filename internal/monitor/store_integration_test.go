package monitor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"tweetwatch/internal/index"
	"tweetwatch/internal/models"
	"tweetwatch/internal/testutil"
)

// cycleStore is the store surface exercised end to end.
type cycleStore interface {
	Store
	testutil.Store
	ActiveKeywordRecipients(ctx context.Context) ([]models.KeywordRecipient, error)
	RecentRuns(ctx context.Context, limit int) ([]models.PollRun, error)
}

func runAgainstStore(t *testing.T, store cycleStore) {
	t.Helper()
	ctx := context.Background()

	k := testutil.CreateTestKeyword(t, store, "golang")
	r := testutil.CreateTestRecipient(t, store, 1001, "alice")
	testutil.MapTestKeyword(t, store, k, r)

	ix := index.New(store, zerolog.Nop())
	if err := ix.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	source := &fakeSource{items: []models.Item{
		{ID: 510, Text: "golang 1.25 is out", AuthorHandle: "gopher"},
		{ID: 505, Text: "nothing to see", AuthorHandle: "bob"},
	}}
	notifier := &fakeNotifier{}
	m := New(store, source, ix, notifier, 100, zerolog.Nop())
	if err := m.Prepare(ctx); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	report, err := m.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if report.Claimed != 1 || report.WatermarkAfter != 510 {
		t.Errorf("first cycle report = %+v, want 1 claim and watermark 510", report)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("notifications after first cycle = %d, want 1", len(notifier.sent))
	}

	// Same items again: nothing new is claimed or sent.
	report, err = m.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle() second error = %v", err)
	}
	if report.Claimed != 0 || report.WatermarkAfter != 510 {
		t.Errorf("second cycle report = %+v, want 0 claims and watermark 510", report)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifications after second cycle = %d, want 1", len(notifier.sent))
	}
	if got := source.queries[1].SinceID; got != 510 {
		t.Errorf("second query SinceID = %d, want 510", got)
	}

	wm, err := store.Watermark(ctx)
	if err != nil || wm != 510 {
		t.Errorf("Watermark() = %d, %v, want 510", wm, err)
	}

	runs, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("RecentRuns() returned %d runs, want 2", len(runs))
	}
}

func TestRunCycle_SQLiteStore(t *testing.T) {
	runAgainstStore(t, testutil.SQLiteStore(t))
}

func TestRunCycle_PostgresStore(t *testing.T) {
	runAgainstStore(t, testutil.PostgresStore(t))
}
