package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

const metricsNamespace = "tuition_match"

// MetricsService owns the Prometheus registry and mirrors the counters the
// staff summary endpoint reports. A nil *MetricsService records nothing.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cacheLatency  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	assignments   *prometheus.CounterVec
	notifications *prometheus.CounterVec

	totals struct {
		requests      atomic.Uint64
		requestNanos  atomic.Uint64
		cacheHits     atomic.Uint64
		cacheMisses   atomic.Uint64
		transitions   atomic.Uint64
		assignments   atomic.Uint64
		demos         atomic.Uint64
		notifySent    atomic.Uint64
		notifyFailure atomic.Uint64
	}
}

// NewMetricsService builds a private registry with the HTTP, cache and
// workflow collectors.
func NewMetricsService() *MetricsService {
	m := &MetricsService{registry: prometheus.NewRegistry()}

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern.",
	}, []string{"method", "route", "status"})
	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "assignment_lookups_total",
		Help:      "Assignment list cache lookups by result.",
	}, []string{"result"})
	m.cacheLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "cache",
		Name:      "operation_seconds",
		Help:      "Redis round trips for the assignment list cache.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"op"})
	m.transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "transitions_total",
		Help:      "Applied status changes per entity.",
	}, []string{"entity", "from", "to"})
	m.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "workflow",
		Name:      "assignments_total",
		Help:      "Tutor assignments committed, split by whether a demo class was booked.",
	}, []string{"demo"})
	m.notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "deliveries_total",
		Help:      "Notification deliveries by channel and outcome.",
	}, []string{"channel", "outcome"})

	m.registry.MustRegister(
		m.httpDuration, m.httpRequests,
		m.cacheLookups, m.cacheLatency,
		m.transitions, m.assignments, m.notifications,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request. route is the gin pattern,
// never the raw path, to keep label cardinality bounded.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.totals.requests.Add(1)
	m.totals.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation counts an assignment list lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.totals.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.totals.cacheMisses.Add(1)
}

// ObserveCacheWrite times an assignment list write.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(duration.Seconds())
}

// RecordTransition counts an applied status change.
func (m *MetricsService) RecordTransition(entity string, from, to interface{ String() string }) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from.String(), to.String()).Inc()
	m.totals.transitions.Add(1)
}

// RecordAssignment counts a committed assignment.
func (m *MetricsService) RecordAssignment(demoBooked bool) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(strconv.FormatBool(demoBooked)).Inc()
	m.totals.assignments.Add(1)
	if demoBooked {
		m.totals.demos.Add(1)
	}
}

// RecordNotification counts a final delivery outcome.
func (m *MetricsService) RecordNotification(channel models.NotificationChannel, ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if ok {
		m.totals.notifySent.Add(1)
	} else {
		outcome = "failed"
		m.totals.notifyFailure.Add(1)
	}
	m.notifications.WithLabelValues(string(channel), outcome).Inc()
}

// Snapshot summarises the counters for GET /metrics/summary.
func (m *MetricsService) Snapshot() models.WorkflowMetrics {
	if m == nil {
		return models.WorkflowMetrics{}
	}
	out := models.WorkflowMetrics{
		Assignments: m.totals.assignments.Load(),
		DemosBooked: m.totals.demos.Load(),
		Transitions: m.totals.transitions.Load(),
		Notifications: models.DeliveryMetrics{
			Sent:   m.totals.notifySent.Load(),
			Failed: m.totals.notifyFailure.Load(),
		},
		Cache: models.CacheMetrics{
			Hits:   m.totals.cacheHits.Load(),
			Misses: m.totals.cacheMisses.Load(),
		},
		Goroutines:  runtime.NumGoroutine(),
		GeneratedAt: time.Now().UTC(),
	}
	if lookups := out.Cache.Hits + out.Cache.Misses; lookups > 0 {
		out.Cache.HitRatio = float64(out.Cache.Hits) / float64(lookups)
	}
	out.Requests.Total = m.totals.requests.Load()
	if out.Requests.Total > 0 {
		out.Requests.AverageDurationMs = float64(m.totals.requestNanos.Load()) / float64(out.Requests.Total) / float64(time.Millisecond)
	}
	return out
}
