package streamgo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/streamgo/model"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.AssetRoot = t.TempDir()
	cfg.MaxCacheSize = 1 << 20
	cfg.WorkerThreads = 2
	return cfg
}

func writeAsset(t *testing.T, root, name string, data []byte) {
	t.Helper()

	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestRequestResource(t *testing.T) {
	t.Run("handle is stable per path", func(t *testing.T) {
		m, err := newManager(testConfig(t), false)
		require.NoError(t, err)

		h1, err := m.RequestResource("models/tree.gltf", LoadMedium)
		require.NoError(t, err)
		h2, err := m.RequestResource("models/tree.gltf", LoadMedium)
		require.NoError(t, err)
		h3, err := m.RequestResource("models/rock.gltf", LoadMedium)
		require.NoError(t, err)

		assert.Equal(t, h1, h2)
		assert.NotEqual(t, h1, h3)
	})

	t.Run("duplicate request enqueues once and raises priority", func(t *testing.T) {
		m, err := newManager(testConfig(t), false)
		require.NoError(t, err)

		_, err = m.RequestResource("textures/wall.png", LoadLow)
		require.NoError(t, err)
		_, err = m.RequestResource("textures/wall.png", LoadCritical)
		require.NoError(t, err)

		assert.Equal(t, 1, len(m.queue))

		info, ok := m.registry.Get("textures/wall.png")
		require.True(t, ok)
		assert.Equal(t, model.LoadCritical.Streaming(), info.Priority)
	})

	t.Run("full queue fails the request", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.QueueCapacity = 1
		m, err := newManager(cfg, false)
		require.NoError(t, err)

		_, err = m.RequestResource("a.png", LoadMedium)
		require.NoError(t, err)
		h, err := m.RequestResource("b.png", LoadMedium)
		assert.ErrorIs(t, err, ErrQueueFull)

		st, ok := m.ResourceState(h)
		require.True(t, ok)
		assert.Equal(t, model.StatusFailed, st.Status)
	})

	t.Run("failed resource re-arms on a fresh request", func(t *testing.T) {
		m, err := newManager(testConfig(t), false)
		require.NoError(t, err)

		h, err := m.RequestResource("missing.png", LoadMedium)
		require.NoError(t, err)
		m.registry.SetFailed("missing.png", "not found")

		_, err = m.RequestResource("missing.png", LoadMedium)
		require.NoError(t, err)

		st, ok := m.ResourceState(h)
		require.True(t, ok)
		assert.Equal(t, model.StatusLoading, st.Status)
		assert.Equal(t, 2, len(m.queue))
	})
}

func TestLoadFlow(t *testing.T) {
	cfg := testConfig(t)
	payload := []byte("gltf-bytes")
	writeAsset(t, cfg.AssetRoot, "models/tree.gltf", payload)

	m, err := New(cfg)
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	h, err := m.RequestResource("models/tree.gltf", LoadHigh)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.IsLoaded(h)
	}, 2*time.Second, 10*time.Millisecond)

	data, ok := m.Data(h)
	require.True(t, ok)
	assert.Equal(t, payload, data)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, int64(len(payload)), stats.CacheSize)
	assert.True(t, stats.Healthy)
}

func TestLoadFlow_MissingAsset(t *testing.T) {
	m, err := New(testConfig(t))
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	h, err := m.RequestResource("models/ghost.gltf", LoadHigh)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, ok := m.ResourceState(h)
		return ok && st.Status == model.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	st, _ := m.ResourceState(h)
	assert.NotEmpty(t, st.Reason)

	_, ok := m.Data(h)
	assert.False(t, ok)

	stats := m.Stats()
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Loading)
	assert.Equal(t, 0, stats.Loaded)
}

func TestUpdate(t *testing.T) {
	t.Run("rescores tracked resources from resolved positions", func(t *testing.T) {
		positions := map[string][3]float32{
			"models/player.gltf": {10, 0, 0},
		}
		m, err := newManager(testConfig(t), false, WithPositionResolver(func(path string) ([3]float32, bool) {
			pos, ok := positions[path]
			return pos, ok
		}))
		require.NoError(t, err)

		_, err = m.RequestResource("models/player.gltf", LoadLow)
		require.NoError(t, err)

		require.NoError(t, m.Update([3]float32{0, 0, 0}, [3]float32{1, 0, 0}))

		info, ok := m.registry.Get("models/player.gltf")
		require.True(t, ok)
		assert.Equal(t, model.PriorityHigh, info.Priority)
	})

	t.Run("unloads resources beyond the visibility range", func(t *testing.T) {
		positions := map[string][3]float32{
			"models/far.gltf": {2000, 0, 0},
		}
		m, err := newManager(testConfig(t), false, WithPositionResolver(func(path string) ([3]float32, bool) {
			pos, ok := positions[path]
			return pos, ok
		}))
		require.NoError(t, err)

		_, err = m.RequestResource("models/far.gltf", LoadHigh)
		require.NoError(t, err)
		require.NoError(t, m.cache.Insert("models/far.gltf", []byte("far-bytes"), model.PriorityHigh))
		m.registry.SetLoaded("models/far.gltf", model.LodLow, 9)

		require.NoError(t, m.Update([3]float32{0, 0, 0}, [3]float32{1, 0, 0}))

		info, ok := m.registry.Get("models/far.gltf")
		require.True(t, ok)
		assert.Equal(t, model.StatusNotLoaded, info.State.Status)
		assert.False(t, m.cache.Contains("models/far.gltf"))
	})

	t.Run("drops resources idle past the timeout", func(t *testing.T) {
		mock := clock.NewMock()
		cfg := testConfig(t)
		cfg.IdleTimeout = Duration(time.Minute)
		m, err := newManager(cfg, false, WithClock(mock))
		require.NoError(t, err)

		_, err = m.RequestResource("old.png", LoadLow)
		require.NoError(t, err)

		mock.Add(2 * time.Minute)
		require.NoError(t, m.Update([3]float32{}, [3]float32{0, 0, 1}))

		assert.Equal(t, 0, m.registry.Len())
	})
}

func TestPreload(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		m, err := newManager(testConfig(t), false)
		require.NoError(t, err)

		_, err = m.Preload(context.Background(), "models")
		assert.ErrorIs(t, err, ErrPredictiveDisabled)
	})

	t.Run("enqueues matching files at low priority", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EnablePredictiveLoading = true
		writeAsset(t, cfg.AssetRoot, "models/a.gltf", []byte("a"))
		writeAsset(t, cfg.AssetRoot, "models/b.gltf", []byte("b"))
		writeAsset(t, cfg.AssetRoot, "sounds/c.wav", []byte("c"))

		m, err := newManager(cfg, false)
		require.NoError(t, err)

		n, err := m.Preload(context.Background(), "models/")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, len(m.queue))
	})
}

func TestClearCache(t *testing.T) {
	m, err := newManager(testConfig(t), false)
	require.NoError(t, err)

	h, err := m.RequestResource("a.png", LoadMedium)
	require.NoError(t, err)
	require.NoError(t, m.cache.Insert("a.png", []byte("bytes"), model.PriorityMedium))
	m.registry.SetLoaded("a.png", model.LodHigh, 5)

	m.ClearCache()

	assert.Equal(t, int64(0), m.cache.Size())
	st, ok := m.ResourceState(h)
	require.True(t, ok)
	assert.Equal(t, model.StatusNotLoaded, st.Status)
}

func TestForceGarbageCollection(t *testing.T) {
	mock := clock.NewMock()
	cfg := testConfig(t)
	cfg.IdleTimeout = Duration(time.Minute)
	m, err := newManager(cfg, false, WithClock(mock))
	require.NoError(t, err)

	require.NoError(t, m.cache.Insert("cold.png", []byte("cold"), model.PriorityLow))
	_, err = m.RequestResource("cold.png", LoadLow)
	require.NoError(t, err)

	mock.Add(10 * time.Minute)
	removed := m.ForceGarbageCollection()

	assert.Equal(t, 2, removed) // cache entry + registry record
	assert.Equal(t, 0, m.registry.Len())
	assert.Equal(t, 0, m.cache.Len())
}

func TestShutdown(t *testing.T) {
	m, err := New(testConfig(t))
	require.NoError(t, err)

	require.Eventually(t, m.Healthy, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.Healthy())

	_, err = m.RequestResource("a.png", LoadLow)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Update([3]float32{}, [3]float32{}), ErrClosed)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrClosed)
}

func TestManagerMetrics(t *testing.T) {
	cfg := testConfig(t)
	writeAsset(t, cfg.AssetRoot, "a.png", []byte("png-bytes"))

	metrics := NewBasicMetrics()
	m, err := New(cfg, WithMetrics(metrics))
	require.NoError(t, err)
	defer m.Shutdown(context.Background())

	h, err := m.RequestResource("a.png", LoadHigh)
	require.NoError(t, err)
	_, err = m.RequestResource("a.png", LoadHigh)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return m.IsLoaded(h)
	}, 2*time.Second, 10*time.Millisecond)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.Requests)
	assert.Equal(t, int64(1), snap.Enqueued)
	assert.Equal(t, int64(1), snap.Loads)
	assert.Equal(t, int64(0), snap.LoadFailures)
	assert.Equal(t, int64(9), snap.LoadBytes)
}
