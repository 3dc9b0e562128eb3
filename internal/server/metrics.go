package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/autolayout/pkg/observability"
)

const namespace = "autolayout"

// Metrics collects Prometheus metrics for the API and, once installed, for
// layout, cache and engine HTTP events.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	layouts         *prometheus.CounterVec
	layoutDuration  *prometheus.HistogramVec
	nodesPlaced     prometheus.Histogram
	cacheEvents     *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	engineRequests  *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec
}

// NewMetrics creates metrics on a private registry that also carries the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layouts_total",
			Help:      "Layout runs by direction and result.",
		}, []string{"direction", "result"}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time from projection to reconciliation.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"direction"}),
		nodesPlaced: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes_placed",
			Help:      "Nodes that received a position per successful layout.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Layout cache hits, misses and writes.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the layout cache.",
		}),
		engineRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_http_requests_total",
			Help:      "Requests to remote layout engines by host and status.",
		}, []string{"host", "status"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_http_duration_seconds",
			Help:      "Remote layout engine latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration,
		m.layouts, m.layoutDuration, m.nodesPlaced,
		m.cacheEvents, m.cacheBytes,
		m.engineRequests, m.engineDuration,
	)
	return m
}

// Install registers m as the process-wide layout, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetLayoutHooks(layoutHooks{m})
	observability.SetCacheHooks(cacheHooks{m})
	observability.SetHTTPHooks(httpHooks{m})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

type layoutHooks struct{ m *Metrics }

func (h layoutHooks) OnLayoutStart(context.Context, string, int, int) {}

func (h layoutHooks) OnLayoutComplete(_ context.Context, direction string, placed int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		h.m.nodesPlaced.Observe(float64(placed))
	}
	h.m.layouts.WithLabelValues(direction, result).Inc()
	h.m.layoutDuration.WithLabelValues(direction).Observe(d.Seconds())
}

type cacheHooks struct{ m *Metrics }

func (h cacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.m.cacheBytes.Add(float64(size))
}

type httpHooks struct{ m *Metrics }

func (h httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.m.engineRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	h.m.engineDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.m.engineRequests.WithLabelValues(host, "error").Inc()
}
