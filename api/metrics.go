package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/juddisjudd/paxdeiclans/models"
)

const metricsNamespace = "paxdeiclans"

// MetricsCollector holds the prometheus collectors of the service
type MetricsCollector struct {
	Registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
	bumps        *prometheus.CounterVec
	syncItems    *prometheus.CounterVec
	syncRuns     prometheus.Counter
	syncDuration prometheus.Histogram
}

var (
	globalMetrics *MetricsCollector
	metricsOnce   sync.Once
)

// NewMetricsCollector registers every collector on a fresh registry
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	mc := &MetricsCollector{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a limiter.",
		}, []string{"limiter"}),
		bumps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bumps_total",
			Help:      "Bump attempts by result.",
		}, []string{"result"}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discord_sync_items_total",
			Help:      "Per clan Discord stats sync outcomes.",
		}, []string{"status"}),
		syncRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discord_sync_runs_total",
			Help:      "Completed Discord stats sync runs.",
		}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "discord_sync_duration_seconds",
			Help:      "Duration of Discord stats sync runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		mc.requests, mc.duration, mc.rateLimited, mc.bumps,
		mc.syncItems, mc.syncRuns, mc.syncDuration,
	)
	return mc
}

// InitMetrics initializes the global metrics collector
func InitMetrics() {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsCollector()
	})
}

// GetMetrics returns the global metrics collector, initializing it on first use
func GetMetrics() *MetricsCollector {
	InitMetrics()
	return globalMetrics
}

// Handler exposes the registry in the prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.Registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a finished HTTP request
func (mc *MetricsCollector) RecordRequest(method, route string, status int, d time.Duration) {
	mc.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	mc.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRateLimited counts a rejection by the named limiter
func (mc *MetricsCollector) RecordRateLimited(limiter string) {
	mc.rateLimited.WithLabelValues(limiter).Inc()
}

// RecordBump counts a bump attempt
func (mc *MetricsCollector) RecordBump(result string) {
	mc.bumps.WithLabelValues(result).Inc()
}

// RecordSyncItem counts one clan's sync outcome
func (mc *MetricsCollector) RecordSyncItem(status models.SyncStatus) {
	mc.syncItems.WithLabelValues(string(status)).Inc()
}

// RecordSyncRun observes a completed sync run
func (mc *MetricsCollector) RecordSyncRun(d time.Duration) {
	mc.syncRuns.Inc()
	mc.syncDuration.Observe(d.Seconds())
}
