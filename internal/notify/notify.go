// Package notify delivers keyword alerts as X direct messages.
//
// Delivery is gated by the account's API tier: the free tier cannot send
// direct messages, so sends are only logged. Failures are per recipient and
// never retried.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"tweetwatch/internal/config"
	"tweetwatch/internal/metrics"
)

// ErrUnsupportedTier is returned when the configured tier is not recognized.
var ErrUnsupportedTier = errors.New("unsupported api tier")

// Transport sends one direct message.
type Transport interface {
	SendDirectMessage(ctx context.Context, recipientID int64, text string) error
}

// Mode is how a Dispatcher handles a send.
type Mode int

const (
	ModeSkip Mode = iota
	ModeSimulate
	ModeSend
)

// ModeForTier maps an API tier to a delivery mode.
func ModeForTier(tier string) Mode {
	switch tier {
	case config.TierFree:
		return ModeSimulate
	case config.TierBasic, config.TierPro, config.TierEnterprise:
		return ModeSend
	}
	return ModeSkip
}

// Result counts the outcome of a broadcast.
type Result struct {
	Sent      int
	Failed    int
	Simulated int
	Skipped   int
}

// Add merges o into r.
func (r *Result) Add(o Result) {
	r.Sent += o.Sent
	r.Failed += o.Failed
	r.Simulated += o.Simulated
	r.Skipped += o.Skipped
}

// Options configures a Dispatcher.
type Options struct {
	Tier       string
	RatePerSec float64       // Real sends per second, default 1
	Timeout    time.Duration // Per-send timeout, default 10s
}

// Dispatcher sends messages through a Transport according to the tier.
type Dispatcher struct {
	transport Transport
	tier      string
	mode      Mode
	limiter   *rate.Limiter
	timeout   time.Duration
	log       zerolog.Logger
}

// New returns a Dispatcher.
func New(transport Transport, opts Options, log zerolog.Logger) *Dispatcher {
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		transport: transport,
		tier:      opts.Tier,
		mode:      ModeForTier(opts.Tier),
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		timeout:   timeout,
		log:       log,
	}
}

// Mode returns the delivery mode selected by the tier.
func (d *Dispatcher) Mode() Mode {
	return d.mode
}

// Notify delivers text to one recipient. Simulated sends return nil.
func (d *Dispatcher) Notify(ctx context.Context, recipientID int64, text string) error {
	switch d.mode {
	case ModeSimulate:
		d.log.Info().
			Int64("recipient_id", recipientID).
			Str("tier", d.tier).
			Str("text", text).
			Msg("simulated direct message")
		metrics.RecordNotification(metrics.NotifySimulated)
		return nil
	case ModeSkip:
		d.log.Warn().Int64("recipient_id", recipientID).Str("tier", d.tier).Msg("unknown api tier; direct message skipped")
		metrics.RecordNotification(metrics.NotifySkipped)
		return fmt.Errorf("%w: %q", ErrUnsupportedTier, d.tier)
	}

	if d.transport == nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		return errors.New("no direct message transport configured")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		return fmt.Errorf("waiting for send slot: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.transport.SendDirectMessage(sendCtx, recipientID, text); err != nil {
		metrics.RecordNotification(metrics.NotifyFailed)
		return fmt.Errorf("sending direct message to %d: %w", recipientID, err)
	}
	metrics.RecordNotification(metrics.NotifySent)
	d.log.Debug().Int64("recipient_id", recipientID).Msg("direct message sent")
	return nil
}

// Broadcast delivers text to each recipient in order. One recipient's failure
// does not affect the others.
func (d *Dispatcher) Broadcast(ctx context.Context, recipients []int64, text string) Result {
	var res Result
	for _, id := range recipients {
		err := d.Notify(ctx, id, text)
		switch {
		case errors.Is(err, ErrUnsupportedTier):
			res.Skipped++
		case err != nil:
			res.Failed++
			d.log.Error().Err(err).Int64("recipient_id", id).Msg("direct message failed")
		case d.mode == ModeSimulate:
			res.Simulated++
		default:
			res.Sent++
		}
	}
	return res
}
