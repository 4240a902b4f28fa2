package streamgo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hupe1980/streamgo/blobstore"
	"github.com/hupe1980/streamgo/internal/cache"
	"github.com/hupe1980/streamgo/internal/loader"
	"github.com/hupe1980/streamgo/internal/registry"
	"github.com/hupe1980/streamgo/internal/resource"
	"github.com/hupe1980/streamgo/lod"
	"github.com/hupe1980/streamgo/model"
	"github.com/hupe1980/streamgo/priority"
)

// Re-exported request priorities so callers only import one package
// for the common path.
const (
	LoadLow      = model.LoadLow
	LoadMedium   = model.LoadMedium
	LoadHigh     = model.LoadHigh
	LoadCritical = model.LoadCritical
)

// defaultDistance is the nominal camera distance assumed for assets
// whose world position is unknown.
const defaultDistance = 100

// defaultMaxSpeed normalizes camera movement speed, in world units
// per second.
const defaultMaxSpeed = 20

// defaultFOV is the horizontal field of view assumed for screen-size
// estimation, in radians.
const defaultFOV = math.Pi / 3

// Stats is a point-in-time snapshot of the streaming state.
type Stats struct {
	TotalResources  int
	Loaded          int
	Loading         int
	Failed          int
	CacheSize       int64
	MaxCacheSize    int64
	CacheUsageRatio float64
	CacheHitRate    float32
	QueueDepth      int
	Healthy         bool
}

// Manager is the streaming facade. All methods are safe for
// concurrent use.
type Manager struct {
	cfg  Config
	opts *options

	log     *Logger
	metrics MetricsCollector
	clock   clock.Clock

	store    blobstore.Store
	cache    *cache.Cache
	registry *registry.Registry
	loader   *loader.Loader
	selector *lod.Selector
	scorer   *priority.Scorer

	queue  chan model.LoadRequest
	stopCh chan struct{}
	wg     sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc

	closed       atomic.Bool
	workersAlive atomic.Int64

	camMu      sync.Mutex
	lastCamPos [3]float32
	lastUpdate time.Time
	haveCam    bool
}

// New creates a Manager and starts its worker pool.
func New(cfg Config, optFns ...Option) (*Manager, error) {
	return newManager(cfg, true, optFns...)
}

// newManager builds a Manager; startWorkers exists so tests can
// inspect queue state deterministically.
func newManager(cfg Config, startWorkers bool, optFns ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(opts)
	}

	store := opts.store
	if store == nil {
		local, err := blobstore.NewLocalStore(cfg.AssetRoot)
		if err != nil {
			return nil, fmt.Errorf("streamgo: open asset root: %w", err)
		}
		store = local
	}

	policy, err := parsePolicy(cfg.EvictionPolicy)
	if err != nil {
		return nil, err
	}

	maxLoads := int64(cfg.MaxConcurrentLoads)
	if maxLoads <= 0 {
		maxLoads = int64(cfg.WorkerThreads)
	}
	rc := resource.NewController(resource.Config{
		MaxConcurrentLoads: maxLoads,
		IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
	})

	ldr, err := loader.New(loader.Config{
		Store:       store,
		Controller:  rc,
		LoadTimeout: cfg.LoadTimeout.Std(),
		Clock:       opts.clock,
		Logger:      opts.logger.Logger,
	})
	if err != nil {
		return nil, err
	}

	scorerCfg := priority.DefaultConfig()
	scorerCfg.Weights = opts.weights
	scorerCfg.MaxDistance = float32(cfg.LodDistanceLow)

	queueCap := cfg.QueueCapacity
	if queueCap <= 0 {
		queueCap = 1024
	}

	baseCtx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:     cfg,
		opts:    opts,
		log:     opts.logger,
		metrics: opts.metricsCollector,
		clock:   opts.clock,
		store:   store,
		cache: cache.New(cache.Config{
			MaxSize:    cfg.MaxCacheSize,
			Policy:     policy,
			IdleWindow: cfg.IdleTimeout.Std(),
			Clock:      opts.clock,
			Logger:     opts.logger.Logger,
		}),
		registry: registry.New(opts.clock),
		loader:   ldr,
		selector: lod.NewSelector(lod.ConfigFromDistances(float32(cfg.LodDistanceHigh), float32(cfg.LodDistanceMedium))),
		scorer:   priority.NewScorer(scorerCfg),
		queue:    make(chan model.LoadRequest, queueCap),
		stopCh:   make(chan struct{}),
		baseCtx:  baseCtx,
		cancel:   cancel,
	}

	if startWorkers {
		m.startWorkers()
	}

	m.log.Info("streaming manager started",
		"workers", cfg.WorkerThreads,
		"cache_bytes", cfg.MaxCacheSize,
		"eviction", cfg.EvictionPolicy,
		"asset_root", cfg.AssetRoot,
	)
	return m, nil
}

func parsePolicy(name string) (cache.EvictionPolicy, error) {
	switch name {
	case "", "lru":
		return cache.LRU, nil
	case "lfu":
		return cache.LFU, nil
	case "priority":
		return cache.ByPriority, nil
	default:
		return 0, &ConfigError{Field: "eviction_policy", Value: name, Message: "unknown policy"}
	}
}

// RequestResource registers path for streaming at the given priority
// and returns its stable handle. The call never blocks on IO: a new
// path is enqueued for a background load, a known path only has its
// tracked priority raised. A path whose previous load failed, or
// whose bytes were unloaded, is enqueued again.
func (m *Manager) RequestResource(path string, prio model.LoadPriority) (model.Handle, error) {
	return m.RequestResourceWithLod(path, prio, m.lodFor(path))
}

// RequestResourceWithLod is RequestResource with an explicit detail
// level instead of the distance-derived one.
func (m *Manager) RequestResourceWithLod(path string, prio model.LoadPriority, level model.LodLevel) (model.Handle, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}

	h, enqueue := m.registry.Upsert(path, prio.Streaming())
	m.metrics.RecordRequest(enqueue)
	m.log.LogRequest(path, prio, enqueue)
	if !enqueue {
		return h, nil
	}

	req := model.LoadRequest{
		ID:       path,
		Path:     path,
		Priority: prio,
		Lod:      level,
	}
	select {
	case m.queue <- req:
	default:
		m.registry.SetFailed(path, "load queue full")
		m.metrics.RecordQueueDepth(len(m.queue))
		return h, ErrQueueFull
	}
	m.metrics.RecordQueueDepth(len(m.queue))
	return h, nil
}

// lodFor derives a detail level for path from its resolved world
// position and the last known camera position.
func (m *Manager) lodFor(path string) model.LodLevel {
	distance := float32(defaultDistance)
	if m.opts.positionResolver != nil {
		if pos, ok := m.opts.positionResolver(path); ok {
			m.camMu.Lock()
			if m.haveCam {
				distance = dist(pos, m.lastCamPos)
			}
			m.camMu.Unlock()
		}
	}
	return m.selector.Select(distance, model.KindOfPath(path))
}

// ResourceState returns the lifecycle state of the resource behind h.
func (m *Manager) ResourceState(h model.Handle) (model.ResourceState, bool) {
	info, ok := m.registry.ByHandle(h)
	if !ok {
		return model.ResourceState{}, false
	}
	return info.State, true
}

// IsLoaded reports whether the resource behind h is resident.
func (m *Manager) IsLoaded(h model.Handle) bool {
	st, ok := m.ResourceState(h)
	return ok && st.Status == model.StatusLoaded
}

// Data returns the cached bytes of the resource behind h. A hit
// refreshes the resource's last-accessed time.
func (m *Manager) Data(h model.Handle) ([]byte, bool) {
	info, ok := m.registry.ByHandle(h)
	if !ok {
		return nil, false
	}
	data, ok := m.cache.Get(info.ID)
	if !ok {
		return nil, false
	}
	m.registry.Touch(info.ID)
	return data, true
}

// SelectLod exposes the distance-based detail selection used for
// requests, for callers that manage render state themselves.
func (m *Manager) SelectLod(distance float32, kind model.AssetKind) model.LodLevel {
	return m.selector.Select(distance, kind)
}

// Update rescores every tracked resource against the camera. Call it
// once per frame (or at a lower fixed rate). The pass:
//
//   - derives camera movement speed from the position delta since the
//     previous call
//   - recomputes each resource's streaming priority from the full
//     factor set and propagates it into the cache entry
//   - unloads low-priority resident resources under memory pressure
//     (their state returns to NotLoaded so a fresh request reloads)
//   - drops registry and cache entries idle past IdleTimeout
func (m *Manager) Update(cameraPos, cameraDir [3]float32) error {
	if m.closed.Load() {
		return ErrClosed
	}

	now := m.clock.Now()
	moveFactor := m.movementFactor(cameraPos, now)
	pressure := m.cache.UsageRatio()

	var unload []string
	m.registry.UpdateAll(func(info *registry.Info) {
		distance := float32(defaultDistance)
		viewAngle := float32(0.5)
		if m.opts.positionResolver != nil {
			if pos, ok := m.opts.positionResolver(info.Path); ok {
				distance = dist(pos, cameraPos)
				viewAngle = priority.ViewAngleFactor(direction(cameraPos, pos), cameraDir)
			}
		}

		f := priority.Factors{
			Distance:      m.scorer.DistanceFactor(distance),
			ViewAngle:     viewAngle,
			ScreenSize:    priority.ScreenSizeFactor(distance, 1, defaultFOV),
			MovementSpeed: moveFactor,
			Recency:       m.scorer.RecencyFactor(info.LastAccessed, now),
			Importance:    priority.ImportanceFactor(info.Path),
		}
		p := m.scorer.Prioritize(distance, f)
		info.Priority = p
		m.cache.SetPriority(info.ID, p)

		if info.State.Status == model.StatusLoaded && priority.ShouldUnload(p, pressure) {
			unload = append(unload, info.ID)
		}
	})

	for _, id := range unload {
		m.cache.Remove(id)
		m.registry.SetState(id, model.NotLoaded())
	}
	if len(unload) > 0 {
		m.metrics.RecordEviction(len(unload))
		m.log.Debug("unloaded under pressure", "count", len(unload), "pressure", pressure)
	}

	if m.cfg.IdleTimeout > 0 {
		removed := m.registry.RemoveIdle(m.cfg.IdleTimeout.Std())
		for _, id := range removed {
			m.cache.Remove(id)
		}
		if len(removed) > 0 {
			m.metrics.RecordEviction(len(removed))
		}
	}

	m.metrics.RecordCacheUsage(m.cache.UsageRatio())
	m.metrics.RecordQueueDepth(len(m.queue))
	m.log.LogUpdate(m.registry.Len(), m.clock.Since(now))
	return nil
}

// movementFactor updates the camera tracking state and returns the
// normalized movement speed in [0,1].
func (m *Manager) movementFactor(cameraPos [3]float32, now time.Time) float32 {
	m.camMu.Lock()
	defer m.camMu.Unlock()

	var speed float32
	if m.haveCam {
		if dt := now.Sub(m.lastUpdate).Seconds(); dt > 0 {
			speed = dist(cameraPos, m.lastCamPos) / float32(dt)
		}
	}
	m.lastCamPos = cameraPos
	m.lastUpdate = now
	m.haveCam = true
	return priority.MovementSpeedFactor(speed, defaultMaxSpeed)
}

// Preload scans the asset store for files matching the given patterns
// and enqueues them at low priority and lowest detail. It requires
// Config.EnablePredictiveLoading and returns the number of files
// enqueued.
func (m *Manager) Preload(ctx context.Context, patterns ...string) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if !m.cfg.EnablePredictiveLoading {
		return 0, ErrPredictiveDisabled
	}

	var enqueued int
	for _, pattern := range patterns {
		names, err := m.store.List(ctx, pattern)
		if err != nil {
			return enqueued, fmt.Errorf("streamgo: preload scan %q: %w", pattern, err)
		}
		for _, name := range names {
			if _, err := m.RequestResourceWithLod(name, model.LoadLow, model.LodLow); err != nil {
				return enqueued, err
			}
			enqueued++
		}
	}
	m.log.Debug("preload enqueued", "count", enqueued)
	return enqueued, nil
}

// Stats returns a snapshot of the streaming state.
func (m *Manager) Stats() Stats {
	counts := m.registry.Counts()
	return Stats{
		TotalResources:  counts.Total,
		Loaded:          counts.Loaded,
		Loading:         counts.Loading,
		Failed:          counts.Failed,
		CacheSize:       m.cache.Size(),
		MaxCacheSize:    m.cache.MaxSize(),
		CacheUsageRatio: m.cache.UsageRatio(),
		CacheHitRate:    m.cache.HitRate(),
		QueueDepth:      len(m.queue),
		Healthy:         m.Healthy(),
	}
}

// Healthy reports whether the worker pool is still draining the load
// queue. False after Shutdown or if all workers have exited.
func (m *Manager) Healthy() bool {
	return !m.closed.Load() && m.workersAlive.Load() > 0
}

// ClearCache drops every cached payload and resets the hit/miss
// counters. Resident resources fall back to NotLoaded so a fresh
// request reloads them.
func (m *Manager) ClearCache() {
	m.cache.Clear()
	m.registry.UpdateAll(func(info *registry.Info) {
		if info.State.Status == model.StatusLoaded {
			info.State = model.NotLoaded()
			info.MemoryUsage = 0
		}
	})
	m.log.Debug("cache cleared")
}

// ForceGarbageCollection runs the idle sweeps immediately instead of
// waiting for worker maintenance, returning the number of entries
// removed.
func (m *Manager) ForceGarbageCollection() int {
	removed := m.cache.Cleanup()
	if m.cfg.IdleTimeout > 0 {
		ids := m.registry.RemoveIdle(m.cfg.IdleTimeout.Std())
		for _, id := range ids {
			m.cache.Remove(id)
		}
		removed += len(ids)
	}
	if removed > 0 {
		m.metrics.RecordEviction(removed)
	}
	m.log.LogCleanup(removed)
	return removed
}

// Shutdown stops the worker pool and waits for in-flight loads to
// finish, bounded by ctx. The manager rejects new work afterwards.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	close(m.stopCh)
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info("streaming manager stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("streamgo: shutdown: %w", ctx.Err())
	}
}

func dist(a, b [3]float32) float32 {
	dx := float64(a[0] - b[0])
	dy := float64(a[1] - b[1])
	dz := float64(a[2] - b[2])
	return float32(math.Sqrt(dx*dx + dy*dy + dz*dz))
}

// direction returns the unit vector from 'from' toward 'to', or zero
// when the points coincide.
func direction(from, to [3]float32) [3]float32 {
	d := [3]float32{to[0] - from[0], to[1] - from[1], to[2] - from[2]}
	n := dist(to, from)
	if n == 0 {
		return [3]float32{}
	}
	return [3]float32{d[0] / n, d[1] / n, d[2] / n}
}
