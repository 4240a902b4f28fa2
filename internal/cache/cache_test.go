package cache

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/streamgo/model"
)

func TestCache_LRUEviction(t *testing.T) {
	c := New(Config{MaxSize: 100, Policy: LRU})

	require.NoError(t, c.Insert("a", make([]byte, 60), model.PriorityMedium))
	require.NoError(t, c.Insert("b", make([]byte, 60), model.PriorityMedium))

	// A was least recently used and must be gone; only B remains.
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
	assert.Equal(t, int64(60), c.Size())
	assert.Equal(t, 1, c.Len())
}

func TestCache_LRUPrefersOldest(t *testing.T) {
	mock := clock.NewMock()
	c := New(Config{MaxSize: 100, Policy: LRU, Clock: mock})

	require.NoError(t, c.Insert("a", make([]byte, 40), model.PriorityMedium))
	mock.Add(time.Second)
	require.NoError(t, c.Insert("b", make([]byte, 40), model.PriorityMedium))
	mock.Add(time.Second)

	// Touch A so B becomes the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)
	mock.Add(time.Second)

	require.NoError(t, c.Insert("c", make([]byte, 40), model.PriorityMedium))

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
}

func TestCache_LFUEviction(t *testing.T) {
	c := New(Config{MaxSize: 100, Policy: LFU})

	require.NoError(t, c.Insert("hot", make([]byte, 40), model.PriorityMedium))
	require.NoError(t, c.Insert("cold", make([]byte, 40), model.PriorityMedium))

	for i := 0; i < 5; i++ {
		_, ok := c.Get("hot")
		require.True(t, ok)
	}

	require.NoError(t, c.Insert("new", make([]byte, 40), model.PriorityMedium))

	assert.True(t, c.Contains("hot"))
	assert.False(t, c.Contains("cold"))
}

func TestCache_PriorityEviction(t *testing.T) {
	c := New(Config{MaxSize: 100, Policy: ByPriority})

	require.NoError(t, c.Insert("critical", make([]byte, 40), model.PriorityCritical))
	require.NoError(t, c.Insert("invisible", make([]byte, 40), model.PriorityInvisible))

	require.NoError(t, c.Insert("medium", make([]byte, 40), model.PriorityMedium))

	assert.True(t, c.Contains("critical"))
	assert.False(t, c.Contains("invisible"))
	assert.True(t, c.Contains("medium"))
}

func TestCache_SetPriorityChangesVictim(t *testing.T) {
	c := New(Config{MaxSize: 100, Policy: ByPriority})

	require.NoError(t, c.Insert("a", make([]byte, 40), model.PriorityCritical))
	require.NoError(t, c.Insert("b", make([]byte, 40), model.PriorityHigh))

	// A drops out of view; its refreshed priority makes it the victim.
	c.SetPriority("a", model.PriorityInvisible)

	require.NoError(t, c.Insert("c", make([]byte, 40), model.PriorityMedium))
	assert.False(t, c.Contains("a"))
	assert.True(t, c.Contains("b"))
}

func TestCache_CapacityInvariant(t *testing.T) {
	const maxSize = 1024
	c := New(Config{MaxSize: maxSize, Policy: LRU})
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		size := 1 + rng.Intn(400)
		id := fmt.Sprintf("asset-%d", rng.Intn(50))
		err := c.Insert(id, make([]byte, size), model.PriorityMedium)
		require.NoError(t, err)
		require.LessOrEqualf(t, c.Size(), int64(maxSize), "invariant broken after insert %d", i)
	}
}

func TestCache_OversizedPayloadRejected(t *testing.T) {
	c := New(Config{MaxSize: 100})
	require.NoError(t, c.Insert("small", make([]byte, 50), model.PriorityMedium))

	err := c.Insert("huge", make([]byte, 101), model.PriorityCritical)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	// Nothing was evicted for the rejected insert.
	assert.True(t, c.Contains("small"))
	assert.Equal(t, int64(50), c.Size())
}

func TestCache_HitRateLaw(t *testing.T) {
	c := New(Config{MaxSize: 100})

	// Inserting without querying never changes the hit rate.
	require.NoError(t, c.Insert("a", []byte("x"), model.PriorityMedium))
	assert.Equal(t, float32(0), c.HitRate())

	_, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, float32(1), c.HitRate())

	_, ok = c.Get("missing")
	require.False(t, ok)
	assert.Equal(t, float32(0.5), c.HitRate())

	_, _ = c.Get("a")
	_, _ = c.Get("a")
	// 3 hits, 1 miss.
	assert.Equal(t, float32(0.75), c.HitRate())

	st := c.Stats()
	assert.Equal(t, int64(3), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, st.HitRate, float32(st.Hits)/float32(st.Hits+st.Misses))
}

func TestCache_ReplaceAccountsSize(t *testing.T) {
	c := New(Config{MaxSize: 100})

	require.NoError(t, c.Insert("a", make([]byte, 80), model.PriorityMedium))
	require.NoError(t, c.Insert("a", make([]byte, 30), model.PriorityMedium))

	assert.Equal(t, int64(30), c.Size())
	assert.Equal(t, 1, c.Len())
}

func TestCache_Cleanup(t *testing.T) {
	mock := clock.NewMock()
	c := New(Config{MaxSize: 1000, IdleWindow: 5 * time.Minute, Clock: mock})

	require.NoError(t, c.Insert("cold", make([]byte, 10), model.PriorityMedium))
	require.NoError(t, c.Insert("warm", make([]byte, 10), model.PriorityMedium))

	mock.Add(2 * time.Minute)
	// Warm gets re-used; its access count rises above one.
	_, ok := c.Get("warm")
	require.True(t, ok)

	mock.Add(4 * time.Minute)
	// Cold is idle for 6 minutes with a single access; warm is idle for
	// only 4.
	removed := c.Cleanup()
	assert.Equal(t, 1, removed)
	assert.False(t, c.Contains("cold"))
	assert.True(t, c.Contains("warm"))

	// A second sweep after the remaining entry goes stale: warm was
	// accessed twice, so it survives the never-re-used rule.
	mock.Add(10 * time.Minute)
	assert.Equal(t, 0, c.Cleanup())
	assert.True(t, c.Contains("warm"))
}

func TestCache_ClearResetsCounters(t *testing.T) {
	c := New(Config{MaxSize: 100})

	require.NoError(t, c.Insert("a", []byte("x"), model.PriorityMedium))
	_, _ = c.Get("a")
	_, _ = c.Get("missing")

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Size())
	assert.Equal(t, float32(0), c.HitRate())
	st := c.Stats()
	assert.Zero(t, st.Hits)
	assert.Zero(t, st.Misses)
}

func TestCache_UsageRatio(t *testing.T) {
	c := New(Config{MaxSize: 100})
	assert.Equal(t, 0.0, c.UsageRatio())

	require.NoError(t, c.Insert("a", make([]byte, 75), model.PriorityMedium))
	assert.InDelta(t, 0.75, c.UsageRatio(), 1e-9)
}
