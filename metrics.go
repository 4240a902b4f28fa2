package streamgo

import (
	"sync"
	"time"
)

// MetricsCollector defines the interface for collecting streaming metrics.
type MetricsCollector interface {
	// RecordRequest records an incoming resource request and whether it
	// resulted in a new load being enqueued.
	RecordRequest(enqueued bool)

	// RecordLoad records a completed load attempt with its duration,
	// payload size in bytes, and outcome.
	RecordLoad(duration time.Duration, bytes int64, err error)

	// RecordCacheLookup records a cache hit or miss observed by a worker.
	RecordCacheLookup(hit bool)

	// RecordEviction records resources removed by priority pressure
	// or idle cleanup.
	RecordEviction(count int)

	// RecordQueueDepth records the current depth of the load queue.
	RecordQueueDepth(depth int)

	// RecordCacheUsage records cache usage as a ratio of capacity (0..1).
	RecordCacheUsage(ratio float64)
}

// NoopMetrics is a MetricsCollector that does nothing.
type NoopMetrics struct{}

// NewNoopMetrics creates a no-op metrics collector.
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (m *NoopMetrics) RecordRequest(enqueued bool) {}
func (m *NoopMetrics) RecordLoad(duration time.Duration, bytes int64, err error) {}
func (m *NoopMetrics) RecordCacheLookup(hit bool) {}
func (m *NoopMetrics) RecordEviction(count int) {}
func (m *NoopMetrics) RecordQueueDepth(depth int) {}
func (m *NoopMetrics) RecordCacheUsage(ratio float64) {}

// BasicMetrics is a simple in-memory metrics collector.
type BasicMetrics struct {
	mu sync.RWMutex

	requests     int64
	enqueued     int64
	loads        int64
	loadFailures int64
	loadBytes    int64
	loadTime     time.Duration
	cacheHits    int64
	cacheMisses  int64
	evictions    int64
	queueDepth   int
	cacheUsage   float64
}

// NewBasicMetrics creates a basic in-memory metrics collector.
func NewBasicMetrics() *BasicMetrics {
	return &BasicMetrics{}
}

func (m *BasicMetrics) RecordRequest(enqueued bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if enqueued {
		m.enqueued++
	}
}

func (m *BasicMetrics) RecordLoad(duration time.Duration, bytes int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	m.loadTime += duration
	if err != nil {
		m.loadFailures++
		return
	}
	m.loadBytes += bytes
}

func (m *BasicMetrics) RecordCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *BasicMetrics) RecordEviction(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictions += int64(count)
}

func (m *BasicMetrics) RecordQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queueDepth = depth
}

func (m *BasicMetrics) RecordCacheUsage(ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheUsage = ratio
}

// MetricsSnapshot holds a point-in-time view of collected metrics.
type MetricsSnapshot struct {
	Requests        int64
	Enqueued        int64
	Loads           int64
	LoadFailures    int64
	LoadBytes       int64
	AvgLoadTime     time.Duration
	CacheHits       int64
	CacheMisses     int64
	CacheHitRate    float64
	Evictions       int64
	QueueDepth      int
	CacheUsageRatio float64
}

// Snapshot returns a copy of the current metrics.
func (m *BasicMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MetricsSnapshot{
		Requests:        m.requests,
		Enqueued:        m.enqueued,
		Loads:           m.loads,
		LoadFailures:    m.loadFailures,
		LoadBytes:       m.loadBytes,
		CacheHits:       m.cacheHits,
		CacheMisses:     m.cacheMisses,
		Evictions:       m.evictions,
		QueueDepth:      m.queueDepth,
		CacheUsageRatio: m.cacheUsage,
	}
	if m.loads > 0 {
		s.AvgLoadTime = m.loadTime / time.Duration(m.loads)
	}
	if total := m.cacheHits + m.cacheMisses; total > 0 {
		s.CacheHitRate = float64(m.cacheHits) / float64(total)
	}
	return s
}
