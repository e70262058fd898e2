package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
)

func TestSeedWatcher_WaitJoinsRunningApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("keywords:\n  - text: one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	var finished, applyCtxErr atomic.Bool
	wait := startSeedWatcher(ctx, path, zerolog.Nop(), func(ctx context.Context, _ *config.Seed) error {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(200 * time.Millisecond)
		if ctx.Err() != nil {
			applyCtxErr.Store(true)
		}
		finished.Store(true)
		return nil
	})

	// Keep rewriting until the watcher is registered and an apply starts.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for waiting := true; waiting; {
		select {
		case <-started:
			waiting = false
		case <-tick.C:
			_ = os.WriteFile(path, []byte("keywords:\n  - text: two\n"), 0o644)
		case <-deadline:
			cancel()
			wait()
			t.Fatal("seed watcher never applied a change")
		}
	}

	cancel()
	wait()
	if !finished.Load() {
		t.Error("wait() returned while an apply was still running")
	}
	if applyCtxErr.Load() {
		t.Error("apply context was cancelled during shutdown")
	}
}
