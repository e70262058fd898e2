package main

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
)

// startSeedWatcher re-applies the seed file at path whenever it changes. The
// returned wait blocks until the watcher has exited and no apply is running;
// call it after ctx is cancelled and before the store is closed.
func startSeedWatcher(ctx context.Context, path string, log zerolog.Logger, apply func(context.Context, *config.Seed) error) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := config.WatchSeed(ctx, path, log, func(ctx context.Context, s *config.Seed) {
			// An apply that has started runs to completion even during shutdown.
			if err := apply(context.WithoutCancel(ctx), s); err != nil {
				log.Error().Err(err).Msg("failed to apply reloaded seed file")
				return
			}
			log.Info().Str("path", path).Msg("seed file reloaded")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("seed watcher stopped")
		}
	}()
	return wg.Wait
}
