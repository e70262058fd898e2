package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tweetwatch/internal/models"
)

// Notification outcomes
const (
	NotifySent      = "sent"
	NotifyFailed    = "failed"
	NotifySimulated = "simulated"
	NotifySkipped   = "skipped"
)

var (
	cyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwatch_poll_cycles_total",
		Help: "Executed poll cycles by outcome",
	}, []string{"outcome"})

	itemsFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetwatch_items_fetched_total",
		Help: "Items returned by the content source",
	})

	claimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweetwatch_claims_total",
		Help: "New (item, keyword) pairs claimed in the dedup ledger",
	})

	notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tweetwatch_notifications_total",
		Help: "Direct message deliveries by outcome",
	}, []string{"outcome"})

	watermarkGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tweetwatch_watermark",
		Help: "Highest item id already scanned",
	})

	indexKeywordsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tweetwatch_index_keywords",
		Help: "Keywords in the current index snapshot",
	})

	claimsByKeywordDesc = prometheus.NewDesc(
		"tweetwatch_processed_items",
		"Processed items recorded per keyword",
		[]string{"keyword"},
		nil,
	)
)

// ClaimCounter reads processed item counts per keyword.
type ClaimCounter interface {
	ClaimCountsByKeyword(ctx context.Context) ([]models.KeywordClaimCount, error)
}

// KeywordCollector is a custom Prometheus collector that reads processed item
// counts from the store on each scrape.
type KeywordCollector struct {
	store ClaimCounter
	log   zerolog.Logger
}

// NewKeywordCollector returns a collector backed by store.
func NewKeywordCollector(store ClaimCounter, log zerolog.Logger) *KeywordCollector {
	return &KeywordCollector{store: store, log: log}
}

// Describe sends the metric descriptor to the channel.
func (c *KeywordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- claimsByKeywordDesc
}

// Collect queries the store for per-keyword claim counts and emits them as counters.
func (c *KeywordCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	counts, err := c.store.ClaimCountsByKeyword(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to collect keyword claim metrics")
		return
	}
	for _, kc := range counts {
		ch <- prometheus.MustNewConstMetric(
			claimsByKeywordDesc,
			prometheus.CounterValue,
			float64(kc.Count),
			kc.KeywordText,
		)
	}
}

// Init registers every collector with reg. Recording functions are safe to
// call before Init; their values are simply not exported.
func Init(reg prometheus.Registerer, store ClaimCounter, log zerolog.Logger) error {
	collectors := []prometheus.Collector{
		cyclesTotal,
		itemsFetchedTotal,
		claimsTotal,
		notificationsTotal,
		watermarkGauge,
		indexKeywordsGauge,
	}
	if store != nil {
		collectors = append(collectors, NewKeywordCollector(store, log))
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycle counts an executed poll cycle.
func RecordCycle(outcome string) {
	cyclesTotal.WithLabelValues(outcome).Inc()
}

// AddFetched counts items returned by the content source.
func AddFetched(n int) {
	itemsFetchedTotal.Add(float64(n))
}

// AddClaims counts newly claimed pairs.
func AddClaims(n int) {
	claimsTotal.Add(float64(n))
}

// RecordNotification counts one delivery attempt.
func RecordNotification(outcome string) {
	notificationsTotal.WithLabelValues(outcome).Inc()
}

// SetWatermark exports the current watermark.
func SetWatermark(id int64) {
	watermarkGauge.Set(float64(id))
}

// SetIndexKeywords exports the size of the keyword index.
func SetIndexKeywords(n int) {
	indexKeywordsGauge.Set(float64(n))
}
