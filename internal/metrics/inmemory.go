package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersListed     uint64
	UsersCreated    uint64
	UsersUpdated    uint64
	UsersDeleted    uint64
	ListCacheHits   uint64
	ListCacheMisses uint64
	// RemoteCalls is keyed by "op/outcome".
	RemoteCalls map[string]uint64
}

// InMemoryRecorder stores metrics in memory. The console uses it to report
// remote call counts.
type InMemoryRecorder struct {
	usersListed     uint64
	usersCreated    uint64
	usersUpdated    uint64
	usersDeleted    uint64
	listCacheHits   uint64
	listCacheMisses uint64

	mu          sync.Mutex
	remoteCalls map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{remoteCalls: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	calls := make(map[string]uint64, len(m.remoteCalls))
	for k, v := range m.remoteCalls {
		calls[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		UsersListed:     atomic.LoadUint64(&m.usersListed),
		UsersCreated:    atomic.LoadUint64(&m.usersCreated),
		UsersUpdated:    atomic.LoadUint64(&m.usersUpdated),
		UsersDeleted:    atomic.LoadUint64(&m.usersDeleted),
		ListCacheHits:   atomic.LoadUint64(&m.listCacheHits),
		ListCacheMisses: atomic.LoadUint64(&m.listCacheMisses),
		RemoteCalls:     calls,
	}
}

// IncUsersListed increments the list counter.
func (m *InMemoryRecorder) IncUsersListed() {
	atomic.AddUint64(&m.usersListed, 1)
}

// IncUserCreated increments the created counter.
func (m *InMemoryRecorder) IncUserCreated() {
	atomic.AddUint64(&m.usersCreated, 1)
}

// IncUserUpdated increments the updated counter.
func (m *InMemoryRecorder) IncUserUpdated() {
	atomic.AddUint64(&m.usersUpdated, 1)
}

// IncUserDeleted increments the deleted counter.
func (m *InMemoryRecorder) IncUserDeleted() {
	atomic.AddUint64(&m.usersDeleted, 1)
}

// IncListCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncListCacheHit() {
	atomic.AddUint64(&m.listCacheHits, 1)
}

// IncListCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncListCacheMiss() {
	atomic.AddUint64(&m.listCacheMisses, 1)
}

// ObserveRemoteCall counts a remote call by operation and outcome.
func (m *InMemoryRecorder) ObserveRemoteCall(op, outcome string, duration time.Duration) {
	m.mu.Lock()
	m.remoteCalls[op+"/"+outcome]++
	m.mu.Unlock()
}
