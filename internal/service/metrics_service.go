package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by workflow and notification metrics.
const (
	OutcomeOK             = "ok"
	OutcomeRejected       = "rejected"
	OutcomeConflict       = "conflict"
	OutcomeTimeout        = "timeout"
	OutcomeError          = "error"
	NotificationDelivered = "delivered"
	NotificationFailed    = "failed"
	NotificationDropped   = "dropped"
	NotificationDiscarded = "discarded"
)

// MetricsService encapsulates Prometheus instrumentation for the workflow API.
// A nil *MetricsService is valid and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
}

// NewMetricsService registers core Prometheus collectors. queueDepth, when
// non-nil, is sampled at scrape time.
func NewMetricsService(queueDepth func() int) *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_transitions_total",
		Help: "Workflow commands by request kind, action and outcome",
	}, []string{"kind", "action", "outcome"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_notifications_total",
		Help: "Notification hand-offs by outcome",
	}, []string{"outcome"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roster_cache_lookups_total",
		Help: "Roster cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roster_cache_latency_seconds",
		Help:    "Latency for roster cache reads",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitions, notifications, cacheLookups, cacheLatency, goroutines)

	if queueDepth != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "workflow_notification_queue_depth",
			Help: "Notifications waiting for a delivery worker",
		}, func() float64 {
			return float64(queueDepth())
		}))
	}

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		transitions:     transitions,
		notifications:   notifications,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveTransition counts one workflow command.
func (m *MetricsService) ObserveTransition(kind, action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind, action, outcome).Inc()
}

// ObserveNotification counts one notification outcome.
func (m *MetricsService) ObserveNotification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// RecordCacheOperation records a roster cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
