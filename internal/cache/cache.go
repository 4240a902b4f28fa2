// Package cache provides the capacity-bounded byte cache backing the
// streaming core.
//
// The cache is keyed by resource id and bounded in bytes, never entry
// count. Capacity is enforced by eviction before insertion, so the
// resident size invariant (current <= max) holds after every operation.
// The victim is chosen by the configured policy:
//
//   - LRU: the entry with the oldest last-accessed time
//   - LFU: the entry with the lowest access count
//   - ByPriority: the entry with the lowest stored streaming priority
//
// Independent of capacity pressure, Cleanup drops entries that were
// never re-used: idle past the idle window with at most one access.
package cache

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hupe1980/streamgo/model"
)

// ErrPayloadTooLarge is returned when a payload exceeds the cache's
// total capacity and can never be inserted.
var ErrPayloadTooLarge = errors.New("payload exceeds cache capacity")

// EvictionPolicy selects which entry is removed under capacity pressure.
type EvictionPolicy uint8

const (
	// LRU evicts the least recently used entry.
	LRU EvictionPolicy = iota
	// LFU evicts the least frequently used entry.
	LFU
	// ByPriority evicts the entry with the lowest streaming priority.
	ByPriority
)

func (p EvictionPolicy) String() string {
	switch p {
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	case ByPriority:
		return "priority"
	default:
		return "unknown"
	}
}

// Config parameterizes the cache.
type Config struct {
	// MaxSize is the total capacity in bytes. Required.
	MaxSize int64
	// Policy selects the eviction victim. Defaults to LRU.
	Policy EvictionPolicy
	// IdleWindow is the age past which a never-re-used entry is dropped
	// by Cleanup. Defaults to 5 minutes.
	IdleWindow time.Duration
	// Clock is the time source. Defaults to the wall clock.
	Clock clock.Clock
	// Logger receives eviction and rejection events. Optional.
	Logger *slog.Logger
}

type entry struct {
	data         []byte
	accessCount  uint32
	lastAccessed time.Time
	size         int64
	priority     model.StreamingPriority
}

// Cache is a capacity-bounded key->bytes store. Safe for concurrent use.
type Cache struct {
	mu          sync.Mutex
	cfg         Config
	clock       clock.Clock
	log         *slog.Logger
	entries     map[string]*entry
	currentSize int64

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Entries     int
	CurrentSize int64
	MaxSize     int64
	Hits        int64
	Misses      int64
	HitRate     float32
}

// New creates a Cache with the given configuration.
func New(cfg Config) *Cache {
	if cfg.IdleWindow <= 0 {
		cfg.IdleWindow = 5 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Cache{
		cfg:     cfg,
		clock:   cfg.Clock,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Insert stores a payload under id, evicting entries per the configured
// policy until it fits. A payload larger than the total capacity is
// rejected with ErrPayloadTooLarge; no partial insert happens.
func (c *Cache) Insert(id string, data []byte, prio model.StreamingPriority) error {
	size := int64(len(data))
	if size > c.cfg.MaxSize {
		c.log.Warn("payload too large for cache",
			"id", id,
			"size", size,
			"capacity", c.cfg.MaxSize,
		)
		return ErrPayloadTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replacing an existing entry frees its bytes first.
	if old, ok := c.entries[id]; ok {
		c.currentSize -= old.size
		delete(c.entries, id)
	}

	for c.currentSize+size > c.cfg.MaxSize && len(c.entries) > 0 {
		victim, ok := c.victimLocked()
		if !ok {
			break
		}
		c.removeLocked(victim)
	}

	c.entries[id] = &entry{
		data:         data,
		accessCount:  1,
		lastAccessed: c.clock.Now(),
		size:         size,
		priority:     prio,
	}
	c.currentSize += size
	return nil
}

// Get returns the cached payload. A hit bumps the access count and
// last-accessed time; both outcomes move the hit/miss counters.
func (c *Cache) Get(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[id]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	ent.accessCount++
	ent.lastAccessed = c.clock.Now()
	c.hits.Add(1)
	return ent.data, true
}

// Contains reports residency without touching any counter.
func (c *Cache) Contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Remove drops the entry for id, reporting whether it was present.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; !ok {
		return false
	}
	c.removeLocked(id)
	return true
}

// SetPriority updates the stored per-entry priority consulted by the
// ByPriority eviction policy. No-op if the entry is absent.
func (c *Cache) SetPriority(id string, prio model.StreamingPriority) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.entries[id]; ok {
		ent.priority = prio
	}
}

// Cleanup removes entries idle past the idle window that were accessed
// at most once - cold assets that were loaded and never re-used. It
// runs independent of capacity pressure and returns the number of
// entries removed.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.clock.Now().Add(-c.cfg.IdleWindow)
	var victims []string
	for id, ent := range c.entries {
		if ent.lastAccessed.Before(cutoff) && ent.accessCount <= 1 {
			victims = append(victims, id)
		}
	}
	for _, id := range victims {
		c.removeLocked(id)
	}
	return len(victims)
}

// Clear empties the cache and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.currentSize = 0
	c.hits.Store(0)
	c.misses.Store(0)
}

// Size returns the resident size in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// MaxSize returns the configured capacity in bytes.
func (c *Cache) MaxSize() int64 { return c.cfg.MaxSize }

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// UsageRatio returns resident/capacity in [0,1], the memory-pressure
// input to unload decisions.
func (c *Cache) UsageRatio() float64 {
	if c.cfg.MaxSize <= 0 {
		return 0
	}
	return float64(c.Size()) / float64(c.cfg.MaxSize)
}

// HitRate returns hits/(hits+misses), or 0 before any lookup. The
// running counters are never reset implicitly.
func (c *Cache) HitRate() float32 {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float32(hits) / float32(total)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries := len(c.entries)
	size := c.currentSize
	c.mu.Unlock()

	return Stats{
		Entries:     entries,
		CurrentSize: size,
		MaxSize:     c.cfg.MaxSize,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		HitRate:     c.HitRate(),
	}
}

func (c *Cache) removeLocked(id string) {
	ent := c.entries[id]
	delete(c.entries, id)
	c.currentSize -= ent.size
}

// victimLocked selects the next eviction victim per the configured
// policy by scanning all entries. Entry counts stay small enough (the
// cache is byte-bounded, payloads are large) that a scan beats
// maintaining three different index structures.
func (c *Cache) victimLocked() (string, bool) {
	var (
		victimID string
		victim   *entry
	)
	for id, ent := range c.entries {
		if victim == nil || c.worse(ent, victim) {
			victimID, victim = id, ent
		}
	}
	return victimID, victim != nil
}

func (c *Cache) worse(a, b *entry) bool {
	switch c.cfg.Policy {
	case LFU:
		return a.accessCount < b.accessCount
	case ByPriority:
		return a.priority < b.priority
	default: // LRU
		return a.lastAccessed.Before(b.lastAccessed)
	}
}
