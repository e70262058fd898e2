package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"tweetwatch/internal/jobs"
	"tweetwatch/internal/logging"
	"tweetwatch/internal/metrics"
	"tweetwatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poller, the index refresher and the management API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.MetricsEnabled {
		if err := metrics.Init(prometheus.DefaultRegisterer, a.store, logging.Component(log, "metrics")); err != nil {
			return err
		}
	}

	if cfg.SeedWatch && cfg.SeedFile != "" {
		wait := startSeedWatcher(ctx, cfg.SeedFile, logging.Component(log, "seed"), a.manage.ApplySeed)
		// Runs before the deferred Close above.
		defer func() {
			stop()
			wait()
		}()
	}

	scheduler := jobs.NewScheduler(a.monitor, a.index, jobs.Options{
		PollInterval:    cfg.PollInterval,
		RefreshInterval: cfg.IndexRefreshInterval,
		PollOnStart:     cfg.PollOnStart,
	}, logging.Component(log, "scheduler"))
	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	srv := server.New(cfg, logging.Component(log, "http"))
	srv.RegisterRoutes(a.manage)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-serveErr:
		log.Error().Err(err).Msg("management api stopped")
	}

	if serr := srv.Shutdown(); serr != nil {
		log.Error().Err(serr).Msg("server shutdown failed")
	}
	// Waits for an in-flight cycle to finish its commit and notifications.
	scheduler.Stop()
	log.Info().Msg("tweetwatch exited")
	return err
}
