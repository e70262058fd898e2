package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	"tweetwatch/internal/monitor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCycler struct {
	prepared  atomic.Int32
	cycles    atomic.Int32
	prepErr   error
	block     chan struct{}
	started   chan struct{}
	startOnce sync.Once
}

func (f *fakeCycler) Prepare(context.Context) error {
	f.prepared.Add(1)
	return f.prepErr
}

func (f *fakeCycler) RunCycle(ctx context.Context) (monitor.CycleReport, error) {
	f.cycles.Add(1)
	if f.started != nil {
		f.startOnce.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	return monitor.CycleReport{}, ctx.Err()
}

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls.Add(1)
	return f.err
}

func longIntervals(pollOnStart bool) Options {
	return Options{PollInterval: time.Hour, RefreshInterval: time.Hour, PollOnStart: pollOnStart}
}

func TestStart_RefreshesBeforeFirstPoll(t *testing.T) {
	c := &fakeCycler{started: make(chan struct{})}
	r := &fakeRefresher{}
	s := NewScheduler(c, r, longIntervals(true), zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if r.calls.Load() != 1 {
		t.Errorf("refreshes before first poll = %d, want 1", r.calls.Load())
	}

	select {
	case <-c.started:
	case <-time.After(5 * time.Second):
		t.Fatal("poll on start did not run")
	}
	s.Stop()

	if c.prepared.Load() != 1 {
		t.Errorf("Prepare() calls = %d, want 1", c.prepared.Load())
	}
}

func TestStart_NoPollOnStart(t *testing.T) {
	c := &fakeCycler{}
	s := NewScheduler(c, &fakeRefresher{}, longIntervals(false), zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()

	if c.cycles.Load() != 0 {
		t.Errorf("cycles = %d, want 0", c.cycles.Load())
	}
}

func TestStart_PrepareFailure(t *testing.T) {
	boom := errors.New("db down")
	c := &fakeCycler{prepErr: boom}
	r := &fakeRefresher{}
	s := NewScheduler(c, r, longIntervals(true), zerolog.Nop())

	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v, want %v", err, boom)
	}
	if r.calls.Load() != 0 {
		t.Errorf("refreshes = %d, want 0", r.calls.Load())
	}
}

func TestStart_RefreshFailureIsNotFatal(t *testing.T) {
	c := &fakeCycler{}
	s := NewScheduler(c, &fakeRefresher{err: errors.New("db down")}, longIntervals(false), zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
}

func TestStart_InvalidIntervals(t *testing.T) {
	s := NewScheduler(&fakeCycler{}, &fakeRefresher{}, Options{}, zerolog.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() with zero intervals error = nil")
	}
}

func TestPollJob_SkipsWhileRunning(t *testing.T) {
	c := &fakeCycler{block: make(chan struct{}), started: make(chan struct{})}
	s := NewScheduler(c, &fakeRefresher{}, longIntervals(false), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		s.pollJob.Run()
		close(done)
	}()
	<-c.started

	// A second trigger while the first cycle runs returns immediately.
	s.pollJob.Run()
	if c.cycles.Load() != 1 {
		t.Errorf("cycles = %d, want 1", c.cycles.Load())
	}

	close(c.block)
	<-done
}

func TestStop_WaitsForRunningCycle(t *testing.T) {
	c := &fakeCycler{block: make(chan struct{}), started: make(chan struct{})}
	s := NewScheduler(c, &fakeRefresher{}, longIntervals(true), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-c.started
	cancel()

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop() returned while a cycle was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(c.block)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return after the cycle finished")
	}
}

func TestRunOnce(t *testing.T) {
	c := &fakeCycler{}
	r := &fakeRefresher{}
	if _, err := RunOnce(context.Background(), c, r); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if c.prepared.Load() != 1 || r.calls.Load() != 1 || c.cycles.Load() != 1 {
		t.Errorf("RunOnce() prepared=%d refreshed=%d cycles=%d, want 1 each",
			c.prepared.Load(), r.calls.Load(), c.cycles.Load())
	}

	if _, err := RunOnce(context.Background(), c, &fakeRefresher{err: errors.New("x")}); err == nil {
		t.Error("RunOnce() with failing refresh error = nil")
	}
}
