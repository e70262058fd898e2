package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"tweetwatch/internal/config"
	"tweetwatch/internal/db"
	"tweetwatch/internal/index"
	"tweetwatch/internal/logging"
	"tweetwatch/internal/manage"
	"tweetwatch/internal/metrics"
	"tweetwatch/internal/monitor"
	"tweetwatch/internal/notify"
	"tweetwatch/internal/sqlitestore"
	"tweetwatch/internal/twitter"
)

// store is everything the service needs from a storage backend. Both the
// PostgreSQL and SQLite stores implement it.
type store interface {
	monitor.Store
	manage.Store
	index.Loader
	metrics.ClaimCounter
	Close() error
}

var (
	_ store = (*db.DB)(nil)
	_ store = (*sqlitestore.Store)(nil)
)

// app holds the wired components shared by the commands.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	store      store
	index      *index.Index
	monitor    *monitor.Monitor
	dispatcher *notify.Dispatcher
	manage     *manage.Service
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg := config.Load()
	if flagSeed != "" {
		cfg.SeedFile = flagSeed
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, log, nil
}

// openStore connects to the configured backend and brings its schema up to date.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return s, nil
	default:
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			database.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info().Msg("migrations completed successfully")
		return database, nil
	}
}

// newApp wires the store, keyword index, X client, dispatcher, monitor and
// management service, then applies the seed file if one is configured.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	st, err := openStore(ctx, cfg, logging.Component(log, "store"))
	if err != nil {
		return nil, err
	}

	ix := index.New(st, logging.Component(log, "index"))
	ix.OnRefresh(func(s *index.Snapshot) { metrics.SetIndexKeywords(s.Len()) })

	client := twitter.New(twitter.Config{
		BaseURL:         cfg.XAPIBaseURL,
		BearerToken:     cfg.XBearerToken,
		UserAccessToken: cfg.XUserAccessToken,
		Timeout:         cfg.XRequestTimeout,
	})

	dispatcher := notify.New(client, notify.Options{
		Tier:       cfg.APITier,
		RatePerSec: cfg.DMRatePerSec,
		Timeout:    cfg.XRequestTimeout,
	}, logging.Component(log, "notify"))

	a := &app{
		cfg:        cfg,
		log:        log,
		store:      st,
		index:      ix,
		dispatcher: dispatcher,
		monitor:    monitor.New(st, client, ix, dispatcher, cfg.EffectiveBatchSize(), logging.Component(log, "monitor")),
		manage:     manage.New(st, ix, cfg.APITier, logging.Component(log, "manage")),
	}

	seed, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading seed file: %w", err)
	}
	if seed != nil {
		if err := a.manage.ApplySeed(ctx, seed); err != nil {
			st.Close()
			return nil, fmt.Errorf("applying seed file: %w", err)
		}
		log.Info().Str("path", cfg.SeedFile).Msg("seed file applied")
	}

	log.Info().
		Str("api_tier", cfg.APITier).
		Bool("real_sends", cfg.RealSends()).
		Int("batch_size", cfg.EffectiveBatchSize()).
		Str("driver", cfg.DatabaseDriver).
		Msg("tweetwatch configured")
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
