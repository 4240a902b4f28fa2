package streamgo

import (
	"time"

	"github.com/hupe1980/streamgo/model"
)

// pollInterval is how long an idle worker waits for a request before
// running a maintenance sweep.
const pollInterval = 100 * time.Millisecond

func (m *Manager) startWorkers() {
	for i := 0; i < m.cfg.WorkerThreads; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
}

// worker drains the load queue until the manager shuts down. Idle
// periods run cache maintenance instead of busy-waiting.
func (m *Manager) worker(id int) {
	defer m.wg.Done()

	m.workersAlive.Add(1)
	defer m.workersAlive.Add(-1)

	log := &Logger{Logger: m.log.With("worker", id)}
	log.Debug("worker started")
	defer log.Debug("worker stopped")

	for {
		// Stop wins over a backlogged queue.
		select {
		case <-m.stopCh:
			return
		default:
		}

		select {
		case <-m.stopCh:
			return
		case req := <-m.queue:
			m.process(req)
		case <-m.clock.After(pollInterval):
			m.maintain(log)
		}
	}
}

// process performs one load request end to end: cache short-circuit,
// storage read, cache insert, registry state transition.
func (m *Manager) process(req model.LoadRequest) {
	if data, ok := m.cache.Get(req.ID); ok {
		m.metrics.RecordCacheLookup(true)
		m.registry.SetLoaded(req.ID, req.Lod, int64(len(data)))
		return
	}
	m.metrics.RecordCacheLookup(false)

	m.registry.SetState(req.ID, model.Loading())

	start := m.clock.Now()
	asset, err := m.loader.Load(m.baseCtx, req)
	elapsed := m.clock.Since(start)

	if err != nil {
		m.metrics.RecordLoad(elapsed, 0, err)
		m.log.LogLoad(req.Path, 0, elapsed, err)
		m.registry.SetFailed(req.ID, err.Error())
		return
	}

	prio := req.Priority.Streaming()
	if info, ok := m.registry.Get(req.ID); ok {
		prio = info.Priority
	}
	if err := m.cache.Insert(req.ID, asset.Data, prio); err != nil {
		m.metrics.RecordLoad(elapsed, 0, err)
		m.log.LogLoad(req.Path, 0, elapsed, err)
		m.registry.SetFailed(req.ID, err.Error())
		return
	}

	m.registry.SetLoaded(req.ID, asset.Meta.Lod, asset.Meta.ProcessedSize)
	m.metrics.RecordLoad(elapsed, asset.Meta.ProcessedSize, nil)
	m.log.LogLoad(req.Path, asset.Meta.ProcessedSize, elapsed, nil)
}

// maintain runs the periodic sweeps an idle worker is responsible for.
func (m *Manager) maintain(log *Logger) {
	removed := m.cache.Cleanup()
	if removed > 0 {
		m.metrics.RecordEviction(removed)
	}
	log.LogCleanup(removed)
	m.metrics.RecordCacheUsage(m.cache.UsageRatio())
	m.metrics.RecordQueueDepth(len(m.queue))
}
