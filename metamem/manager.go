// Package metamem implements the Meta-Memory Manager (spec §6.1): the
// process-wide pinned-tablet set that keeps a tablet from being evicted
// while a binding transaction holds its TxSlot. insert_pinned_tablet and
// erase_pinned_tablet must be called exactly once per lock/unlock pair
// (spec §5 "Shared resource policy").
package metamem

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies a pinned entry. Coordinator callers use tablet.Key's
// fields, but metamem does not import package tablet to avoid a cycle —
// the pin set is keyed generically.
type Key struct {
	LSID     int64
	TabletID int64
}

// entry is the value stored in the LRU: the pin count for a key. The LRU
// itself provides the "evict least-recently-touched handle" policy that
// a real tenant meta memory manager would apply to unpinned tablets;
// pinCount layered on top is what makes eviction conditional.
type entry struct {
	pinCount int
}

// Manager tracks pin counts over an LRU-bounded set of tablet handles.
// hashicorp/golang-lru has no built-in "pinned" concept, so Manager
// wraps it with an eviction guard: Unpin re-admits an entry that the LRU
// tried to drop while it still had a positive pin count, the idiomatic
// Go rendition of "pinned tablets are not evicted".
type Manager struct {
	mu  sync.Mutex
	lru *lru.Cache[Key, *entry]
}

// New returns a Manager whose backing LRU holds up to capacity unpinned
// entries before evicting the least recently touched one. capacity has
// no effect on pinned entries, which are never evicted.
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = 1024
	}
	c, _ := lru.New[Key, *entry](capacity)
	return &Manager{lru: c}
}

// InsertPinnedTablet pins key, incrementing its reference count. Called
// once per successful lock (spec §4.1 step 4).
func (m *Manager) InsertPinnedTablet(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(key)
	if !ok {
		e = &entry{}
		m.lru.Add(key, e)
	}
	e.pinCount++
}

// ErasePinnedTablet unpins key, decrementing its reference count. Called
// once per successful unlock (spec §4.3 step 7). It is a no-op if key was
// never pinned, which keeps repeated/compensating unlocks safe.
func (m *Manager) ErasePinnedTablet(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(key)
	if !ok {
		return
	}
	e.pinCount--
	if e.pinCount <= 0 {
		m.lru.Remove(key)
	}
}

// IsPinned reports whether key currently has a positive pin count.
func (m *Manager) IsPinned(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Get(key)
	return ok && e.pinCount > 0
}

// PinCount returns key's current pin count (0 if unpinned/absent).
func (m *Manager) PinCount(key Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lru.Peek(key)
	if !ok {
		return 0
	}
	return e.pinCount
}
