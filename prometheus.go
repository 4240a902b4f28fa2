package streamgo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusConfig configures the Prometheus metrics collector.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (default: "streamgo").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for load duration in seconds.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// PrometheusMetrics is a MetricsCollector backed by Prometheus.
type PrometheusMetrics struct {
	requestsTotal *prometheus.CounterVec
	loadsTotal    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	loadBytes     prometheus.Counter
	cacheLookups  *prometheus.CounterVec
	evictions     prometheus.Counter
	queueDepth    prometheus.Gauge
	cacheUsage    prometheus.Gauge
}

// NewPrometheusMetrics creates a Prometheus-backed metrics collector
// and registers its metrics with the configured registry.
func NewPrometheusMetrics(config PrometheusConfig) *PrometheusMetrics {
	if config.Namespace == "" {
		config.Namespace = "streamgo"
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)

	return &PrometheusMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "requests_total",
			Help:        "Total number of resource requests",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		loadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "loads_total",
			Help:        "Total number of completed load attempts",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		loadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "load_duration_seconds",
			Help:        "Resource load duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		loadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "load_bytes_total",
			Help:        "Total bytes loaded into the cache",
			ConstLabels: config.ConstLabels,
		}),

		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "cache_lookups_total",
			Help:        "Cache lookups observed by workers",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		evictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "evictions_total",
			Help:        "Resources removed by priority pressure or idle cleanup",
			ConstLabels: config.ConstLabels,
		}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "queue_depth",
			Help:        "Current depth of the load queue",
			ConstLabels: config.ConstLabels,
		}),

		cacheUsage: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "cache_usage_ratio",
			Help:        "Cache usage as a ratio of capacity",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *PrometheusMetrics) RecordRequest(enqueued bool) {
	if enqueued {
		m.requestsTotal.WithLabelValues("enqueued").Inc()
	} else {
		m.requestsTotal.WithLabelValues("deduplicated").Inc()
	}
}

func (m *PrometheusMetrics) RecordLoad(duration time.Duration, bytes int64, err error) {
	m.loadDuration.Observe(duration.Seconds())
	if err != nil {
		m.loadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.loadsTotal.WithLabelValues("ok").Inc()
	m.loadBytes.Add(float64(bytes))
}

func (m *PrometheusMetrics) RecordCacheLookup(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *PrometheusMetrics) RecordEviction(count int) {
	m.evictions.Add(float64(count))
}

func (m *PrometheusMetrics) RecordQueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *PrometheusMetrics) RecordCacheUsage(ratio float64) {
	m.cacheUsage.Set(ratio)
}
