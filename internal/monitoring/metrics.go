package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Backtest metrics
	backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_backtests_total",
			Help: "Total number of backtests run",
		},
		[]string{"strategy", "ok"},
	)

	backtestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategylab_backtest_duration_seconds",
			Help:    "Wall time of a single backtest",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"strategy"},
	)

	// Decision metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_decisions_total",
			Help: "Total number of decisions emitted",
		},
		[]string{"regime", "action"},
	)

	guardBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_guard_blocks_total",
			Help: "Actions downgraded to HOLD by a guard",
		},
		[]string{"guard"},
	)

	// Provider metrics
	signalUnavailableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategylab_signal_unavailable_total",
			Help: "Signal provider lookups that failed or returned nothing",
		},
		[]string{"provider"},
	)

	// Autotune metrics
	autotuneBestScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategylab_autotune_best_score",
			Help: "Objective score of the best autotune trial",
		},
	)
)

func init() {
	prometheus.MustRegister(backtestsTotal)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(guardBlocksTotal)
	prometheus.MustRegister(signalUnavailableTotal)
	prometheus.MustRegister(autotuneBestScore)
}

// MetricsHandler serves the Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ObserveBacktest records one backtest run
func ObserveBacktest(strategy string, ok bool, took time.Duration) {
	backtestsTotal.WithLabelValues(strategy, strconv.FormatBool(ok)).Inc()
	backtestDuration.WithLabelValues(strategy).Observe(took.Seconds())
	health.backtestRan()
}

// RecordDecision records an emitted decision
func RecordDecision(regime, action string) {
	decisionsTotal.WithLabelValues(regime, action).Inc()
	health.decisionMade()
}

// RecordGuardBlock records a guard downgrading an action to HOLD
func RecordGuardBlock(guard string) {
	guardBlocksTotal.WithLabelValues(guard).Inc()
}

// RecordSignalUnavailable records a provider lookup that yielded nothing
func RecordSignalUnavailable(provider string, err error) {
	signalUnavailableTotal.WithLabelValues(provider).Inc()
	if err != nil {
		health.providerError(provider, err)
	}
}

// SetAutotuneBestScore publishes the best autotune objective
func SetAutotuneBestScore(score float64) {
	autotuneBestScore.Set(score)
}
