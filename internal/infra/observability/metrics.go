package observability

import (
	"time"

	"github.com/SpendWise-GestaoFinanceira/SpendWise-Monolito-sub000/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the budget engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration   *prometheus.HistogramVec
	externalErrors    *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	reportsComputed   prometheus.Counter
	alertsGenerated   *prometheus.CounterVec
	closureEvents     *prometheus.CounterVec
	mutationsRejected prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spendwise_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendwise_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendwise_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendwise_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		reportsComputed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendwise_reports_computed_total",
				Help: "Total budget reports computed.",
			},
		),
		alertsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendwise_alerts_generated_total",
				Help: "Total alerts generated by severity.",
			},
			[]string{"severity"},
		),
		closureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spendwise_closure_events_total",
				Help: "Total period closure events by kind.",
			},
			[]string{"event"},
		),
		mutationsRejected: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "spendwise_mutations_rejected_total",
				Help: "Total mutations rejected because the period was closed.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrReportComputed increments the computed-report counter.
func (m *Metrics) IncrReportComputed() {
	m.reportsComputed.Inc()
}

// IncrAlertGenerated increments the alert counter for a severity.
func (m *Metrics) IncrAlertGenerated(severity string) {
	m.alertsGenerated.WithLabelValues(severity).Inc()
}

// IncrPeriodClosed increments the closure counter.
func (m *Metrics) IncrPeriodClosed() {
	m.closureEvents.WithLabelValues("closed").Inc()
}

// IncrPeriodReopened increments the reopen counter.
func (m *Metrics) IncrPeriodReopened() {
	m.closureEvents.WithLabelValues("reopened").Inc()
}

// IncrMutationRejected increments the rejected-mutation counter.
func (m *Metrics) IncrMutationRejected() {
	m.mutationsRejected.Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	bySeverity := map[string]int64{
		string(domain.SeverityInfo):     int64(getCounterVecValue(m.alertsGenerated, string(domain.SeverityInfo))),
		string(domain.SeverityWarning):  int64(getCounterVecValue(m.alertsGenerated, string(domain.SeverityWarning))),
		string(domain.SeverityCritical): int64(getCounterVecValue(m.alertsGenerated, string(domain.SeverityCritical))),
	}
	alertsTotal := int64(0)
	for _, v := range bySeverity {
		alertsTotal += v
	}

	cacheHits := getCounterVecValue(m.cacheHits, "categories")
	cacheMisses := getCounterVecValue(m.cacheMisses, "categories")
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		ReportsComputed:   int64(getCounterValue(m.reportsComputed)),
		AlertsGenerated:   alertsTotal,
		AlertsBySeverity:  bySeverity,
		PeriodsClosed:     int64(getCounterVecValue(m.closureEvents, "closed")),
		PeriodsReopened:   int64(getCounterVecValue(m.closureEvents, "reopened")),
		MutationsRejected: int64(getCounterValue(m.mutationsRejected)),
		CacheHitRate:      cacheHitRate,
		Period:            "all_time",
	}
}

// getCounterVecValue extracts the current float64 value from a CounterVec for a given label.
func getCounterVecValue(cv *prometheus.CounterVec, label string) float64 {
	return getCounterValue(cv.WithLabelValues(label))
}

func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
