package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/vgdist/pkg/errors"
	"github.com/matzehuels/vgdist/pkg/observability"
)

// Metrics implements the observability hooks with Prometheus collectors.
type Metrics struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	loads         *prometheus.CounterVec
	regions       prometheus.Gauge

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_index_builds_total",
			Help: "Index builds by result.",
		}, []string{"result"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vgdist_index_build_duration_seconds",
			Help:    "Index build duration.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_index_loads_total",
			Help: "Index loads by result.",
		}, []string{"result"}),
		regions: f.NewGauge(prometheus.GaugeOpts{
			Name: "vgdist_index_regions",
			Help: "Regions in the most recently built or loaded index.",
		}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_queries_total",
			Help: "Answered queries by kind and reachability.",
		}, []string{"kind", "reachable"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vgdist_query_duration_seconds",
			Help:    "Query evaluation time, excluding cached answers.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"kind"}),
		queryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_query_errors_total",
			Help: "Rejected queries by kind and error code.",
		}, []string{"kind", "code"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_cache_events_total",
			Help: "Cache lookups and writes by key type and event.",
		}, []string{"type", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"type"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vgdist_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vgdist_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Register installs m as the global index, query, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetIndexHooks(m)
	observability.SetQueryHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) OnBuildStart(context.Context, int, int) {}

func (m *Metrics) OnBuildComplete(_ context.Context, regions, _ int, d time.Duration, err error) {
	m.builds.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.buildDuration.Observe(d.Seconds())
		m.regions.Set(float64(regions))
	}
}

func (m *Metrics) OnLoadComplete(_ context.Context, regions, _ int, _ time.Duration, err error) {
	m.loads.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.regions.Set(float64(regions))
	}
}

func (m *Metrics) OnQuery(_ context.Context, kind string, d time.Duration, reachable bool) {
	m.queries.WithLabelValues(kind, strconv.FormatBool(reachable)).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) OnQueryError(_ context.Context, kind string, err error) {
	m.queryErrors.WithLabelValues(kind, string(errors.Classify(err).Code)).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheEvents.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

var (
	_ observability.IndexHooks = (*Metrics)(nil)
	_ observability.QueryHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
