package observer

import (
	"github.com/prometheus/client_golang/prometheus"

	"ArticlesDigest/internal/domain"
)

// MetricsObserver records pipeline events as Prometheus metrics.
type MetricsObserver struct {
	feeds          *prometheus.CounterVec
	newItems       prometheus.Counter
	summaries      *prometheus.CounterVec
	summaryLatency prometheus.Histogram
	selected       prometheus.Gauge
	candidates     prometheus.Gauge
	deliveries     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// NewMetricsObserver registers collectors on reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	m := &MetricsObserver{
		feeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "articlesdigest",
			Name:      "feed_fetches_total",
			Help:      "Feed fetch attempts by result.",
		}, []string{"result"}),
		newItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "articlesdigest",
			Name:      "new_items_total",
			Help:      "Items stored for the first time.",
		}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "articlesdigest",
			Name:      "summaries_total",
			Help:      "Summaries produced by result.",
		}, []string{"result"}),
		summaryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "articlesdigest",
			Name:      "summary_duration_seconds",
			Help:      "Time spent summarizing a single item.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		selected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "articlesdigest",
			Name:      "digest_selected_items",
			Help:      "Items selected for the latest digest.",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "articlesdigest",
			Name:      "digest_candidate_items",
			Help:      "Items considered for the latest digest.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "articlesdigest",
			Name:      "digest_deliveries_total",
			Help:      "Digest deliveries by channel and result.",
		}, []string{"channel", "result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "articlesdigest",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage", "result"}),
	}

	reg.MustRegister(m.feeds, m.newItems, m.summaries, m.summaryLatency,
		m.selected, m.candidates, m.deliveries, m.stageDuration)
	return m
}

// Observe implements ports.Observer.
func (m *MetricsObserver) Observe(e domain.Event) {
	switch e.Kind {
	case domain.EventFeedFetched:
		m.feeds.WithLabelValues(result(e.Err == nil)).Inc()
		if e.Err == nil {
			m.newItems.Add(float64(e.Count))
		}
	case domain.EventItemSummarized:
		m.summaries.WithLabelValues(result(e.OK)).Inc()
		m.summaryLatency.Observe(e.Duration.Seconds())
	case domain.EventItemsRanked:
		m.selected.Set(float64(e.Count))
		m.candidates.Set(float64(e.Total))
	case domain.EventDigestDelivered:
		m.deliveries.WithLabelValues(e.Target, result(e.Err == nil)).Inc()
	case domain.EventStageFinished:
		m.stageDuration.WithLabelValues(e.Stage, result(e.Err == nil)).Observe(e.Duration.Seconds())
	}
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
