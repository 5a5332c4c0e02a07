package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Kontrollburo
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Sync engine metrics
	SyncJobDuration      prometheus.HistogramVec
	RecordsRefreshed     prometheus.CounterVec
	RecordRefreshErrors  prometheus.CounterVec
	RecordsReconciled    prometheus.CounterVec
	NotificationsSent    prometheus.CounterVec
	NotificationFailures prometheus.CounterVec
	RemovalsFinalized    prometheus.CounterVec
	RemovalsRecovered    prometheus.CounterVec
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kontrollburo_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kontrollburo_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		SyncJobDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kontrollburo_sync_job_duration_seconds",
				Help:    "Duration of one sync job run",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"job"},
		),
		RecordsRefreshed: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_records_refreshed_total",
				Help: "Lifecycle records successfully refreshed, by tracker",
			},
			[]string{"tracker"},
		),
		RecordRefreshErrors: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_record_refresh_errors_total",
				Help: "Per-record refresh failures left for the next run, by tracker",
			},
			[]string{"tracker"},
		),
		RecordsReconciled: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_records_reconciled_total",
				Help: "Records created or deleted by registry reconciliation",
			},
			[]string{"tracker", "action"},
		),
		NotificationsSent: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_notifications_sent_total",
				Help: "Removal warnings successfully delivered",
			},
			[]string{"tracker"},
		),
		NotificationFailures: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_notification_failures_total",
				Help: "Removal warnings that failed to deliver and will be retried",
			},
			[]string{"tracker"},
		),
		RemovalsFinalized: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_removals_finalized_total",
				Help: "Removals confirmed against the registry and executed",
			},
			[]string{"tracker"},
		),
		RemovalsRecovered: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kontrollburo_removals_recovered_total",
				Help: "Removals cancelled at finalize time by last-second recovery",
			},
			[]string{"tracker"},
		),
	}
}

// The helpers below are nil-safe so the jobs can run without a registry in
// tests and one-shot cron invocations.

func (m *MetricsRegistry) ObserveSyncJob(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncJobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *MetricsRegistry) IncRefreshed(tracker string) {
	if m == nil {
		return
	}
	m.RecordsRefreshed.WithLabelValues(tracker).Inc()
}

func (m *MetricsRegistry) IncRefreshError(tracker string) {
	if m == nil {
		return
	}
	m.RecordRefreshErrors.WithLabelValues(tracker).Inc()
}

func (m *MetricsRegistry) AddReconciled(tracker, action string, n float64) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsReconciled.WithLabelValues(tracker, action).Add(n)
}

func (m *MetricsRegistry) IncNotified(tracker string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.NotificationsSent.WithLabelValues(tracker).Inc()
	} else {
		m.NotificationFailures.WithLabelValues(tracker).Inc()
	}
}

func (m *MetricsRegistry) IncFinalized(tracker string) {
	if m == nil {
		return
	}
	m.RemovalsFinalized.WithLabelValues(tracker).Inc()
}

func (m *MetricsRegistry) IncRecovered(tracker string) {
	if m == nil {
		return
	}
	m.RemovalsRecovered.WithLabelValues(tracker).Inc()
}
