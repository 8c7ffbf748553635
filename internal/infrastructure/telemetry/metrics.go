package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "orderhook"

// Receive results recorded by the ingestion endpoint
const (
	ReceiveAccepted  = "accepted"
	ReceiveDuplicate = "duplicate"
	ReceiveRejected  = "rejected"
	ReceiveError     = "error"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil receiver so callers may run without metrics.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	webhooksReceived  *prometheus.CounterVec
	applyTotal        *prometheus.CounterVec
	applyDuration     *prometheus.HistogramVec
	batchEvents       *prometheus.CounterVec
	batchDuration     prometheus.Histogram
	queueDepth        prometheus.Gauge
	lifecycleOps      *prometheus.CounterVec
	stockMovements    *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	signatureFailures prometheus.Counter
}

// NewMetrics creates and registers all collectors, including the Go runtime
// and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.webhooksReceived,
		m.applyTotal,
		m.applyDuration,
		m.batchEvents,
		m.batchDuration,
		m.queueDepth,
		m.lifecycleOps,
		m.stockMovements,
		m.outboxPublished,
		m.httpRequests,
		m.httpDuration,
		m.signatureFailures,
	)
	return m
}

func (m *Metrics) initMetrics() {
	m.webhooksReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "webhook",
			Name:      "received_total",
			Help:      "Webhook deliveries received, by topic and result.",
		},
		[]string{"topic", "result"},
	)

	m.signatureFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "webhook",
			Name:      "signature_failures_total",
			Help:      "Deliveries rejected because no secret verified the signature.",
		},
	)

	m.applyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "webhook",
			Name:      "apply_total",
			Help:      "Event apply attempts, by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	m.applyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "webhook",
			Name:      "apply_duration_seconds",
			Help:      "Duration of a single event apply in seconds.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)

	m.batchEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "retry",
			Name:      "events_total",
			Help:      "Events handled by retry batches, by result.",
		},
		[]string{"result"},
	)

	m.batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "retry",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a retry batch in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	m.queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: "retry",
			Name:      "queue_depth",
			Help:      "Events still eligible for retry after the last batch.",
		},
	)

	m.lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "order",
			Name:      "lifecycle_operations_total",
			Help:      "Manual order lifecycle operations, by operation and result.",
		},
		[]string{"operation", "result"},
	)

	m.stockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Inventory movements written, by movement type.",
		},
		[]string{"type"},
	)

	m.outboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox notifications handed to the publisher, by result.",
		},
		[]string{"result"},
	)

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveDB exports connection pool statistics of db
func (m *Metrics) ObserveDB(db *sql.DB) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, MetricsNamespace))
}

// Handler returns the scrape handler for this registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordWebhookReceived counts a delivery at the ingestion endpoint
func (m *Metrics) RecordWebhookReceived(topic, result string) {
	if m == nil {
		return
	}
	m.webhooksReceived.WithLabelValues(topic, result).Inc()
}

// RecordSignatureFailure counts a delivery that failed verification
func (m *Metrics) RecordSignatureFailure() {
	if m == nil {
		return
	}
	m.signatureFailures.Inc()
}

// RecordApply counts one apply attempt and its latency
func (m *Metrics) RecordApply(topic, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.applyTotal.WithLabelValues(topic, outcome).Inc()
	m.applyDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}

// RecordBatch records a retry batch result
func (m *Metrics) RecordBatch(succeeded, failed, exhausted, stillPending int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.batchEvents.WithLabelValues("succeeded").Add(float64(succeeded))
	m.batchEvents.WithLabelValues("failed").Add(float64(failed))
	m.batchEvents.WithLabelValues("exhausted").Add(float64(exhausted))
	m.batchDuration.Observe(elapsed.Seconds())
	m.queueDepth.Set(float64(stillPending))
}

// RecordLifecycle counts a manual order operation
func (m *Metrics) RecordLifecycle(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.lifecycleOps.WithLabelValues(operation, result).Inc()
}

// RecordMovement counts a written inventory movement
func (m *Metrics) RecordMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}

// RecordOutboxPublish counts a publish attempt
func (m *Metrics) RecordOutboxPublish(err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.outboxPublished.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served request. route is the matched route
// template, never the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
