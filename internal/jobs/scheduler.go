package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"tweetwatch/internal/logging"
	"tweetwatch/internal/monitor"
)

// Cycler runs poll cycles.
type Cycler interface {
	Prepare(ctx context.Context) error
	RunCycle(ctx context.Context) (monitor.CycleReport, error)
}

// Refresher rebuilds the keyword index.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures the Scheduler.
type Options struct {
	PollInterval    time.Duration
	RefreshInterval time.Duration
	PollOnStart     bool
}

// Scheduler runs the poll cycle and the index refresh on fixed intervals.
// Each job is skipped while its previous run is still in progress.
type Scheduler struct {
	cycler    Cycler
	refresher Refresher
	opts      Options
	log       zerolog.Logger

	cron       *cron.Cron
	pollJob    cron.Job
	refreshJob cron.Job

	ctx context.Context
	wg  sync.WaitGroup
}

// NewScheduler creates a new scheduler.
func NewScheduler(cycler Cycler, refresher Refresher, opts Options, log zerolog.Logger) *Scheduler {
	s := &Scheduler{
		cycler:    cycler,
		refresher: refresher,
		opts:      opts,
		log:       log,
		ctx:       context.Background(),
	}

	clog := logging.CronLogger(log)
	s.cron = cron.New(cron.WithLogger(clog))
	s.pollJob = cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(cron.FuncJob(s.poll))
	s.refreshJob = cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(cron.FuncJob(s.refresh))
	return s
}

// Start prepares the watermark, refreshes the index synchronously and then
// schedules both jobs. Jobs run detached from ctx's cancellation so that a
// shutdown never interrupts a cycle halfway; use Stop to wait for them.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.PollInterval <= 0 || s.opts.RefreshInterval <= 0 {
		return fmt.Errorf("poll and refresh intervals must be positive")
	}
	if err := s.cycler.Prepare(ctx); err != nil {
		return err
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		s.log.Error().Err(err).Msg("startup index refresh failed; polls skip until a refresh succeeds")
	}

	s.ctx = context.WithoutCancel(ctx)
	s.cron.Schedule(cron.Every(s.opts.PollInterval), s.pollJob)
	s.cron.Schedule(cron.Every(s.opts.RefreshInterval), s.refreshJob)
	s.cron.Start()
	s.log.Info().
		Dur("poll_interval", s.opts.PollInterval).
		Dur("refresh_interval", s.opts.RefreshInterval).
		Bool("poll_on_start", s.opts.PollOnStart).
		Msg("scheduler started")

	if s.opts.PollOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.pollJob.Run()
		}()
	}
	return nil
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) poll() {
	// RunCycle records and logs its own outcome.
	_, _ = s.cycler.RunCycle(s.ctx)
}

func (s *Scheduler) refresh() {
	if err := s.refresher.Refresh(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled index refresh failed")
	}
}

// RunOnce prepares the store, refreshes the index and runs a single cycle.
func RunOnce(ctx context.Context, cycler Cycler, refresher Refresher) (monitor.CycleReport, error) {
	if err := cycler.Prepare(ctx); err != nil {
		return monitor.CycleReport{}, err
	}
	if err := refresher.Refresh(ctx); err != nil {
		return monitor.CycleReport{}, err
	}
	return cycler.RunCycle(ctx)
}
