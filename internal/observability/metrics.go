package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/traffic"
)

// View render outcomes used as the "outcome" label.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeHidden = "hidden"
	OutcomeEmpty  = "empty"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases on /charts and /.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Dataset loads by status. More than one success per process means the memo is broken.
	DatasetLoadsTotal *prometheus.CounterVec

	// Time spent reading and parsing the dataset file.
	DatasetLoadDuration prometheus.Histogram

	// Rows in the loaded dataset.
	DatasetRows prometheus.Gauge

	// View renders by view and outcome (ok, error, empty, hidden).
	ViewRendersTotal *prometheus.CounterVec

	// Per-view render latency, excluding HTML/chart serialization.
	ViewRenderDuration *prometheus.HistogramVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Chart cache lookups by result (hit, miss, error).
	ChartCacheTotal *prometheus.CounterVec

	// Chart cache circuit breaker state: 0 closed, 1 open, 2 half-open.
	CacheBreakerState prometheus.Gauge

	CacheWarmingTotal           prometheus.Counter
	CacheWarmingErrorsTotal     prometheus.Counter
	CacheWarmingDurationSeconds prometheus.Histogram

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	DatasetLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasetLoadsTotal",
			Help: "Dataset file reads by status (success, error)",
		},
		[]string{"status"},
	)
	DatasetLoadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datasetLoadDurationSeconds",
			Help:    "Time to read and parse the dataset file",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
	DatasetRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datasetRows",
			Help: "Number of posts in the loaded dataset",
		},
	)
	ViewRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewRendersTotal",
			Help: "Dashboard view renders by view and outcome",
		},
		[]string{"view", "outcome"},
	)
	ViewRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viewRenderDurationSeconds",
			Help:    "Time to filter and aggregate one dashboard view",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
		[]string{"view"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	ChartCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartCacheTotal",
			Help: "Rendered chart cache lookups by result",
		},
		[]string{"result"},
	)
	CacheBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cacheBreakerState",
			Help: "Chart cache circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
	)
	CacheWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingTotal",
			Help: "Chart cache warming runs",
		},
	)
	CacheWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheWarmingErrorsTotal",
			Help: "Chart cache warming runs with at least one failed figure",
		},
	)
	CacheWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cacheWarmingDurationSeconds",
			Help:    "Time to render and store every warmed chart",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		DatasetLoadsTotal, DatasetLoadDuration, DatasetRows,
		ViewRendersTotal, ViewRenderDuration,
		RateLimitDeniedTotal,
		ChartCacheTotal, CacheBreakerState, CacheWarmingTotal, CacheWarmingErrorsTotal, CacheWarmingDurationSeconds,
	)
}

// RecordDatasetLoad records one read of the dataset file.
func RecordDatasetLoad(d time.Duration, rows int, err error) {
	DatasetLoadDuration.Observe(d.Seconds())
	if err != nil {
		DatasetLoadsTotal.WithLabelValues("error").Inc()
		return
	}
	DatasetLoadsTotal.WithLabelValues("success").Inc()
	DatasetRows.Set(float64(rows))
}

// RecordViewRender records the outcome of one view section. Hidden views carry no duration.
func RecordViewRender(view, outcome string, d time.Duration) {
	ViewRendersTotal.WithLabelValues(view, outcome).Inc()
	if outcome != OutcomeHidden {
		ViewRenderDuration.WithLabelValues(view).Observe(d.Seconds())
	}
}

// RecordChartCache counts one chart cache lookup. result is "hit", "miss", "error"
// or "coalesced" when the request shared another request's render.
func RecordChartCache(result string) {
	ChartCacheTotal.WithLabelValues(result).Inc()
}

// RegisterTrafficGauges registers sliding-window gauges over render outcomes and denials.
// Call from main after config load with the health window.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "requestsInWindow",
					Help: "Dashboard requests (ok + error + denied) in the health window",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in the health window",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
