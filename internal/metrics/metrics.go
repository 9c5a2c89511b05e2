package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal    *prometheus.CounterVec
	QueryDuration   *prometheus.HistogramVec
	ScanMatches     prometheus.Histogram
	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	SnapshotDraws   prometheus.Gauge
	LatestRound     prometheus.Gauge
	ResultCache     *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotto",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total number of analysis queries by kind and status.",
		}, []string{"kind", "status"}), // status: ok, invalid, not_found, error
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lotto",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Duration of analysis queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
		}, []string{"kind"}),
		ScanMatches: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lotto",
			Subsystem: "scan",
			Name:      "matched_rounds",
			Help:      "Number of rounds matched per condition scan.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RebuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotto",
			Subsystem: "snapshot",
			Name:      "rebuilds_total",
			Help:      "Total number of snapshot rebuilds by status.",
		}, []string{"status"}),
		RebuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lotto",
			Subsystem: "snapshot",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of snapshot rebuilds including source fetch.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		SnapshotDraws: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Subsystem: "snapshot",
			Name:      "draws",
			Help:      "Number of draws held by the active snapshot.",
		}),
		LatestRound: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "lotto",
			Subsystem: "snapshot",
			Name:      "latest_round",
			Help:      "Highest round held by the active snapshot.",
		}),
		ResultCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lotto",
			Subsystem: "result_cache",
			Name:      "lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"outcome"}), // outcome: hit, miss, error
	}
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one analysis query.
func (m *Metrics) ObserveQuery(kind, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(kind, status).Inc()
	m.QueryDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveScan records the match count of a condition scan.
func (m *Metrics) ObserveScan(matched int) {
	if m == nil {
		return
	}
	m.ScanMatches.Observe(float64(matched))
}

// ObserveRebuild records a rebuild attempt and, on success, the new snapshot size.
func (m *Metrics) ObserveRebuild(err error, elapsed time.Duration, draws, latest int) {
	if m == nil {
		return
	}
	m.RebuildDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.RebuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RebuildsTotal.WithLabelValues("ok").Inc()
	m.SnapshotDraws.Set(float64(draws))
	m.LatestRound.Set(float64(latest))
}

// ObserveCache records a result cache lookup outcome.
func (m *Metrics) ObserveCache(outcome string) {
	if m == nil {
		return
	}
	m.ResultCache.WithLabelValues(outcome).Inc()
}
