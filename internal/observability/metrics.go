// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Detection metrics
	DetectionRunsTotal   prometheus.Counter
	DetectorResults      *prometheus.CounterVec
	DetectorFailures     *prometheus.CounterVec
	CandidatesClassified *prometheus.CounterVec
	AIScoringCalls       *prometheus.CounterVec
	ParentResolutions    *prometheus.CounterVec

	// Lifecycle metrics
	PollsTotal       *prometheus.CounterVec
	TokensIngested   prometheus.Counter
	HistoryPruned    prometheus.Counter
	BoardSize        *prometheus.GaugeVec
	PositioningSize  prometheus.Gauge
	LaunchesStreamed prometheus.Counter

	// Szn metrics
	ClustersVisible prometheus.Gauge
	ClusterMembers  prometheus.Gauge
	NovelClusters   prometheus.Counter

	// Latency metrics
	DetectorLatency *prometheus.HistogramVec
	FeedCallLatency *prometheus.HistogramVec
	IngestLatency   prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPoll prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "betascope"
	}

	return &Metrics{
		// Detection metrics
		DetectionRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "runs_total",
			Help:      "Total number of detection fan-out runs",
		}),
		DetectorResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "candidates_total",
			Help:      "Total number of candidates proposed by detector source",
		}, []string{"source"}),
		DetectorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "failures_total",
			Help:      "Total number of detector failures by source",
		}, []string{"source"}),
		CandidatesClassified: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classify",
			Name:      "candidates_total",
			Help:      "Total number of classified beta candidates by tier",
		}, []string{"tier"}),
		AIScoringCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Total number of AI collaborator calls by kind and status",
		}, []string{"kind", "status"}),
		ParentResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parent",
			Name:      "resolutions_total",
			Help:      "Total number of parent resolution attempts by outcome",
		}, []string{"outcome"}),

		// Lifecycle metrics
		PollsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "polls_total",
			Help:      "Total number of universe polls by status",
		}, []string{"status"}),
		TokensIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "tokens_ingested_total",
			Help:      "Total number of token observations folded into history",
		}),
		HistoryPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "history_pruned_total",
			Help:      "Total number of history records pruned",
		}),
		BoardSize: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "board_size",
			Help:      "Current number of tokens on the board by state",
		}, []string{"state"}),
		PositioningSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "positioning_size",
			Help:      "Current number of positioning opportunities",
		}),
		LaunchesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "launches_streamed_total",
			Help:      "Total number of launches received over the websocket stream",
		}),

		// Szn metrics
		ClustersVisible: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "szn",
			Name:      "clusters_visible",
			Help:      "Current number of visible narrative clusters",
		}),
		ClusterMembers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "szn",
			Name:      "cluster_members",
			Help:      "Current number of tokens placed in any cluster",
		}),
		NovelClusters: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "szn",
			Name:      "novel_clusters_total",
			Help:      "Total number of AI-proposed novel clusters",
		}),

		// Latency metrics
		DetectorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "latency_seconds",
			Help:      "Detector execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		FeedCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "feed_call_latency_seconds",
			Help:      "Market feed call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feed"}),
		IngestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "ingest_latency_seconds",
			Help:      "Full ingestion cycle latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful universe poll",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPoll increments the poll counter with the given status.
func RecordPoll(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	DefaultMetrics.PollsTotal.WithLabelValues(status).Inc()
	if ok {
		DefaultMetrics.LastSuccessfulPoll.SetToCurrentTime()
	}
}

// RecordDetectionRun counts one detector fan-out invocation.
func RecordDetectionRun() {
	DefaultMetrics.DetectionRunsTotal.Inc()
}

// RecordDetector records one settled detector result and its latency.
func RecordDetector(source string, candidates int, failed bool, elapsed time.Duration) {
	DefaultMetrics.DetectorLatency.WithLabelValues(source).Observe(elapsed.Seconds())
	if failed {
		DefaultMetrics.DetectorFailures.WithLabelValues(source).Inc()
		return
	}
	DefaultMetrics.DetectorResults.WithLabelValues(source).Add(float64(candidates))
}

// RecordClassified counts one classified beta candidate by its final tier.
func RecordClassified(tier string) {
	DefaultMetrics.CandidatesClassified.WithLabelValues(tier).Inc()
}

// RecordAICall counts one AI collaborator call by kind and outcome.
func RecordAICall(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.AIScoringCalls.WithLabelValues(kind, status).Inc()
}

// RecordParentResolution counts one parent resolution attempt by outcome.
func RecordParentResolution(outcome string) {
	DefaultMetrics.ParentResolutions.WithLabelValues(outcome).Inc()
}

// ObserveFeedCall records one market feed call's latency.
func ObserveFeedCall(feed string, start time.Time) {
	DefaultMetrics.FeedCallLatency.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

// ObserveDBQuery records one database operation's duration and outcome.
func ObserveDBQuery(database, operation string, start time.Time, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordIngest records one completed ingestion cycle.
func RecordIngest(observed, pruned int, start time.Time) {
	DefaultMetrics.TokensIngested.Add(float64(observed))
	DefaultMetrics.HistoryPruned.Add(float64(pruned))
	DefaultMetrics.IngestLatency.Observe(time.Since(start).Seconds())
}

// RecordPositioning updates the positioning view size.
func RecordPositioning(n int) {
	DefaultMetrics.PositioningSize.Set(float64(n))
}

// RecordLaunch counts one launch received over the websocket stream.
func RecordLaunch() {
	DefaultMetrics.LaunchesStreamed.Inc()
}

// RecordNovelCluster counts one AI-proposed cluster outside the curated
// category table.
func RecordNovelCluster() {
	DefaultMetrics.NovelClusters.Inc()
}

// RecordBoard updates the board-size gauges after a classification cycle.
func RecordBoard(live, cooling, dumped, legends int) {
	DefaultMetrics.BoardSize.WithLabelValues("live").Set(float64(live))
	DefaultMetrics.BoardSize.WithLabelValues("cooling").Set(float64(cooling))
	DefaultMetrics.BoardSize.WithLabelValues("dumped").Set(float64(dumped))
	DefaultMetrics.BoardSize.WithLabelValues("legend").Set(float64(legends))
}

// RecordClusters updates the cluster gauges after a szn rebuild.
func RecordClusters(clusters, members int) {
	DefaultMetrics.ClustersVisible.Set(float64(clusters))
	DefaultMetrics.ClusterMembers.Set(float64(members))
}
