// Package monitor runs the poll cycle: search for new posts mentioning any
// watched keyword, claim each (post, keyword) pair once, advance the
// watermark and notify the mapped recipients.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tweetwatch/internal/index"
	"tweetwatch/internal/ledger"
	"tweetwatch/internal/metrics"
	"tweetwatch/internal/models"
	"tweetwatch/internal/notify"
	"tweetwatch/internal/twitter"
)

// Store is the persistence the cycle needs.
type Store interface {
	EnsureWatermark(ctx context.Context) error
	Watermark(ctx context.Context) (int64, error)
	InCycle(ctx context.Context, fn ledger.Func) error
	RecordRun(ctx context.Context, run *models.PollRun) error
}

// Source searches the content stream.
type Source interface {
	Search(ctx context.Context, q twitter.SearchQuery) ([]models.Item, error)
}

// Keywords supplies the current keyword snapshot.
type Keywords interface {
	Current() index.View
}

// Notifier delivers one message to several recipients.
type Notifier interface {
	Broadcast(ctx context.Context, recipients []int64, text string) notify.Result
}

// CycleReport summarizes one cycle.
type CycleReport struct {
	RunID           uuid.UUID
	Skipped         bool // No keywords; nothing was queried
	WatermarkBefore int64
	WatermarkAfter  int64
	Fetched         int
	Matched         int
	Claimed         int
	Delivery        notify.Result
}

// Monitor runs poll cycles.
type Monitor struct {
	store     Store
	source    Source
	keywords  Keywords
	notifier  Notifier
	batchSize int
	log       zerolog.Logger
	now       func() time.Time
}

// New returns a Monitor. batchSize bounds how many posts a cycle processes.
func New(store Store, source Source, keywords Keywords, notifier Notifier, batchSize int, log zerolog.Logger) *Monitor {
	return &Monitor{
		store:     store,
		source:    source,
		keywords:  keywords,
		notifier:  notifier,
		batchSize: batchSize,
		log:       log,
		now:       time.Now,
	}
}

// Prepare creates the watermark row if it does not exist yet.
func (m *Monitor) Prepare(ctx context.Context) error {
	if err := m.store.EnsureWatermark(ctx); err != nil {
		return fmt.Errorf("ensuring watermark: %w", err)
	}
	return nil
}

type delivery struct {
	keyword    string
	itemID     int64
	recipients []int64
	text       string
}

// RunCycle executes one poll cycle. Claims and the watermark advance commit
// together; notifications go out only after the commit. A returned error
// means nothing was committed.
func (m *Monitor) RunCycle(ctx context.Context) (CycleReport, error) {
	snap := m.keywords.Current()
	query := BuildQuery(snap.Keywords())
	if query == "" {
		m.log.Debug().Msg("keyword index empty; skipping poll")
		return CycleReport{Skipped: true}, nil
	}

	run := &models.PollRun{ID: uuid.New(), StartedAt: m.now()}
	report, outcome, err := m.runCycle(ctx, snap, query)
	report.RunID = run.ID

	run.FinishedAt = m.now()
	run.Outcome = outcome
	run.WatermarkBefore = report.WatermarkBefore
	run.WatermarkAfter = report.WatermarkAfter
	run.Fetched = report.Fetched
	run.Matched = report.Matched
	run.Claimed = report.Claimed
	run.Notified = report.Delivery.Sent + report.Delivery.Simulated
	run.Failed = report.Delivery.Failed
	if err != nil {
		msg := err.Error()
		run.Error = &msg
	}
	if rerr := m.store.RecordRun(ctx, run); rerr != nil {
		m.log.Warn().Err(rerr).Str("run_id", run.ID.String()).Msg("failed to record poll run")
	}
	metrics.RecordCycle(outcome)

	logEvent := m.log.Info()
	if err != nil {
		logEvent = m.log.Error().Err(err)
	}
	logEvent.
		Str("run_id", run.ID.String()).
		Str("outcome", outcome).
		Int64("watermark_before", report.WatermarkBefore).
		Int64("watermark_after", report.WatermarkAfter).
		Int("fetched", report.Fetched).
		Int("matched", report.Matched).
		Int("claimed", report.Claimed).
		Int("sent", report.Delivery.Sent).
		Int("simulated", report.Delivery.Simulated).
		Int("failed", report.Delivery.Failed).
		Dur("duration", run.Duration()).
		Msg("poll cycle finished")
	return report, err
}

func (m *Monitor) runCycle(ctx context.Context, snap index.View, query string) (CycleReport, string, error) {
	var report CycleReport

	wm, err := m.store.Watermark(ctx)
	if err != nil {
		return report, models.RunStoreFailed, fmt.Errorf("reading watermark: %w", err)
	}
	report.WatermarkBefore, report.WatermarkAfter = wm, wm

	items, err := m.source.Search(ctx, twitter.SearchQuery{Query: query, SinceID: wm, Limit: m.batchSize})
	if err != nil {
		return report, models.RunSourceFailed, fmt.Errorf("searching: %w", err)
	}
	report.Fetched = len(items)
	metrics.AddFetched(len(items))

	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	if m.batchSize > 0 && len(items) > m.batchSize {
		m.log.Warn().Int("returned", len(items)).Int("batch_size", m.batchSize).Msg("search returned more than the batch size; oldest posts dropped")
		items = items[:m.batchSize]
	}

	newWM := wm
	for _, it := range items {
		if it.ID > newWM {
			newWM = it.ID
		}
	}

	keywords := snap.Keywords()
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	var outbox []delivery
	err = m.store.InCycle(ctx, func(ctx context.Context, tx ledger.Tx) error {
		outbox = outbox[:0]
		report.Matched, report.Claimed = 0, 0

		for _, it := range items {
			text := strings.ToLower(it.Text)
			for i, kw := range keywords {
				if lowered[i] == "" || !strings.Contains(text, lowered[i]) {
					continue
				}
				report.Matched++

				keywordID, ok := snap.Lookup(kw)
				if !ok {
					m.log.Warn().Str("keyword", kw).Int64("item_id", it.ID).Msg("matched keyword missing from index; skipped")
					continue
				}
				claimed, err := tx.TryClaim(ctx, it.ID, keywordID)
				if err != nil {
					return err
				}
				if !claimed {
					continue
				}
				report.Claimed++

				recipients := snap.RecipientsFor(kw)
				if len(recipients) == 0 {
					continue
				}
				outbox = append(outbox, delivery{
					keyword:    kw,
					itemID:     it.ID,
					recipients: recipients,
					text:       FormatMessage(kw, it),
				})
			}
		}

		if newWM > wm {
			return tx.SetWatermark(ctx, newWM)
		}
		return nil
	})
	if err != nil {
		report.Matched, report.Claimed = 0, 0
		return report, models.RunStoreFailed, fmt.Errorf("committing cycle: %w", err)
	}
	report.WatermarkAfter = newWM
	metrics.SetWatermark(newWM)
	metrics.AddClaims(report.Claimed)

	for _, d := range outbox {
		res := m.notifier.Broadcast(ctx, d.recipients, d.text)
		if res.Failed > 0 {
			m.log.Warn().Str("keyword", d.keyword).Int64("item_id", d.itemID).Int("failed", res.Failed).Msg("some notifications failed")
		}
		report.Delivery.Add(res)
	}
	return report, models.RunSucceeded, nil
}

// BuildQuery joins keywords into an OR query of quoted phrases, sorted.
func BuildQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, `"`+kw+`"`)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, " OR ")
}

// FormatMessage renders the direct message for a matched post.
func FormatMessage(keyword string, item models.Item) string {
	return fmt.Sprintf("Keyword '%s' found in a new post!\nAuthor: @%s\nText: %s\nLink: %s",
		keyword, strings.TrimPrefix(item.AuthorHandle, "@"), item.Text, item.Link())
}
