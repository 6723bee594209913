// Package metrics - Prometheus-коллекторы сервиса.
//
// Категории:
//   - синхронизация: длительность, число записей, упавшие батчи
//   - кеш: hit/miss/error по сущностям
//   - провайдеры: запросы и состояние circuit breaker
//   - уведомления: отправленные/пропущенные
//   - HTTP API: запросы по маршруту и статусу
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transit_sync_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"mode", "entity", "outcome"},
	)

	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_sync_records_total",
			Help: "Records processed by sync cycles",
		},
		[]string{"mode", "entity", "stage"},
	)

	SyncFailedBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_sync_failed_batches_total",
			Help: "Upsert batches skipped because of persistence errors",
		},
		[]string{"mode", "entity"},
	)

	// Cache

	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_cache_requests_total",
			Help: "Cache lookups by entity and result (hit, miss, error)",
		},
		[]string{"entity", "result"},
	)

	// Providers

	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_provider_requests_total",
			Help: "Upstream provider requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transit_provider_request_duration_seconds",
			Help:    "Upstream provider request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// BreakerState: 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "transit_provider_breaker_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	// Notifications

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_notifications_total",
			Help: "Alert notifications by mode and result (sent, duplicate, failed)",
		},
		[]string{"mode", "result"},
	)

	// Scheduler

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_job_runs_total",
			Help: "Scheduler job runs by job id and outcome (success, failure, skipped)",
		},
		[]string{"job", "outcome"},
	)

	// HTTP

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transit_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transit_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func RecordSync(mode, entity string, success bool, d time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	SyncDuration.WithLabelValues(mode, entity, outcome).Observe(d.Seconds())
}

func RecordSyncRecords(mode, entity, stage string, n int) {
	if n > 0 {
		SyncRecordsTotal.WithLabelValues(mode, entity, stage).Add(float64(n))
	}
}

func RecordCacheHit(entity string)   { CacheRequestsTotal.WithLabelValues(entity, "hit").Inc() }
func RecordCacheMiss(entity string)  { CacheRequestsTotal.WithLabelValues(entity, "miss").Inc() }
func RecordCacheError(entity string) { CacheRequestsTotal.WithLabelValues(entity, "error").Inc() }

func RecordProviderRequest(provider string, err error, d time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func RecordNotification(mode, result string) {
	NotificationsTotal.WithLabelValues(mode, result).Inc()
}

func RecordJobRun(job, outcome string) {
	JobRunsTotal.WithLabelValues(job, outcome).Inc()
}

func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
