// Package registry tracks per-asset bookkeeping for the streaming core:
// one Info per distinct path, guarded by reader/writer exclusion.
package registry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/hupe1980/streamgo/model"
)

// Info is the bookkeeping record for one tracked resource. The registry
// owns it exclusively; callers receive copies.
type Info struct {
	ID           string
	Handle       model.Handle
	Path         string
	State        model.ResourceState
	Priority     model.StreamingPriority
	LastAccessed time.Time
	MemoryUsage  int64
}

// Counts aggregates the lifecycle states of all tracked resources.
type Counts struct {
	Total   int
	Loaded  int
	Loading int
	Failed  int
}

// Registry is the per-asset state store. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	clock    clock.Clock
	byID     map[string]*Info
	byHandle map[model.Handle]string
}

// New creates an empty Registry. A nil clock falls back to wall time.
func New(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		clock:    clk,
		byID:     make(map[string]*Info),
		byHandle: make(map[model.Handle]string),
	}
}

// Upsert registers path at the given priority and returns its handle
// plus whether a load should be enqueued.
//
// A path seen for the first time creates an entry in state Loading and
// wants a load. A path already tracked refreshes its last-accessed time
// and keeps the higher of the old and new priorities; it wants a new
// load only when its previous attempt failed or its bytes were unloaded
// (state NotLoaded) - duplicate-load suppression for everything else.
func (r *Registry) Upsert(path string, prio model.StreamingPriority) (model.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()

	if info, ok := r.byID[path]; ok {
		info.LastAccessed = now
		if prio > info.Priority {
			info.Priority = prio
		}
		switch info.State.Status {
		case model.StatusFailed, model.StatusNotLoaded:
			// Re-arm: an explicit new request retries a failed or
			// unloaded resource.
			info.State = model.Loading()
			return info.Handle, true
		default:
			return info.Handle, false
		}
	}

	h := model.HandleFor(path)
	r.byID[path] = &Info{
		ID:           path,
		Handle:       h,
		Path:         path,
		State:        model.Loading(),
		Priority:     prio,
		LastAccessed: now,
	}
	r.byHandle[h] = path
	return h, true
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byID[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

// ByHandle returns a copy of the record with the given handle.
func (r *Registry) ByHandle(h model.Handle) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHandle[h]
	if !ok {
		return Info{}, false
	}
	return *r.byID[id], true
}

// SetState transitions the resource and stamps its last-accessed time.
func (r *Registry) SetState(id string, st model.ResourceState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byID[id]; ok {
		info.State = st
		info.LastAccessed = r.clock.Now()
	}
}

// SetLoaded marks the resource resident at the given tier and records
// its memory footprint.
func (r *Registry) SetLoaded(id string, lod model.LodLevel, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byID[id]; ok {
		info.State = model.Loaded(lod)
		info.MemoryUsage = size
		info.LastAccessed = r.clock.Now()
	}
}

// SetFailed marks the resource failed with the given reason.
func (r *Registry) SetFailed(id string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byID[id]; ok {
		info.State = model.Failed(reason)
		info.MemoryUsage = 0
		info.LastAccessed = r.clock.Now()
	}
}

// Touch refreshes the last-accessed time.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.byID[id]; ok {
		info.LastAccessed = r.clock.Now()
	}
}

// UpdateAll invokes fn on every record under the write lock. Used by
// the per-frame priority rescoring pass.
func (r *Registry) UpdateAll(fn func(info *Info)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, info := range r.byID {
		fn(info)
	}
}

// Counts tallies the lifecycle states.
func (r *Registry) Counts() Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := Counts{Total: len(r.byID)}
	for _, info := range r.byID {
		switch info.State.Status {
		case model.StatusLoaded:
			c.Loaded++
		case model.StatusLoading:
			c.Loading++
		case model.StatusFailed:
			c.Failed++
		}
	}
	return c
}

// RemoveIdle drops every record whose last access is older than maxAge
// and returns the removed ids.
func (r *Registry) RemoveIdle(maxAge time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.clock.Now().Add(-maxAge)
	var removed []string
	for id, info := range r.byID {
		if info.LastAccessed.Before(cutoff) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(r.byHandle, r.byID[id].Handle)
		delete(r.byID, id)
	}
	return removed
}

// Remove drops the record for id, reporting whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byHandle, info.Handle)
	delete(r.byID, id)
	return true
}

// Len returns the number of tracked resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
