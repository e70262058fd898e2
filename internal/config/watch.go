package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 250 * time.Millisecond

// WatchSeed calls onChange with the re-parsed seed every time the file at
// path is written or replaced. Bursts of editor events are debounced; parse
// errors are logged and the change is ignored. It blocks until ctx is done.
func WatchSeed(ctx context.Context, path string, log zerolog.Logger, onChange func(context.Context, *Seed)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory so editors that rename over the file keep working.
	dir, file := filepath.Dir(path), filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Debug().Str("path", path).Msg("seed watcher started")

	var (
		mu    sync.Mutex
		timer *time.Timer
		wg    sync.WaitGroup
	)
	reload := func() {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		seed, err := LoadSeed(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("seed parse failed")
			return
		}
		if seed == nil {
			return
		}
		onChange(ctx, seed)
	}
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil && timer.Stop() {
				wg.Done()
			}
			wg.Add(1)
			timer = time.AfterFunc(watchDebounce, reload)
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("seed watcher error")
		}
	}
}
