package metrics

import (
	"sync"
	"sync/atomic"
)

// EntityKey identifies an entity counter.
type EntityKey struct {
	Entity string
	Op     string
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	EntityOperations map[EntityKey]uint64
	EntityNotFound   map[string]uint64
	Logins           map[string]uint64
	APIKeysIssued    uint64
}

// InMemoryRecorder keeps counters in process memory. It backs GET /metrics.
type InMemoryRecorder struct {
	mu         sync.Mutex
	operations map[EntityKey]uint64
	notFound   map[string]uint64
	logins     map[string]uint64
	keysIssued uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		operations: make(map[EntityKey]uint64),
		notFound:   make(map[string]uint64),
		logins:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		EntityOperations: make(map[EntityKey]uint64, len(m.operations)),
		EntityNotFound:   make(map[string]uint64, len(m.notFound)),
		Logins:           make(map[string]uint64, len(m.logins)),
		APIKeysIssued:    atomic.LoadUint64(&m.keysIssued),
	}
	for k, v := range m.operations {
		snap.EntityOperations[k] = v
	}
	for k, v := range m.notFound {
		snap.EntityNotFound[k] = v
	}
	for k, v := range m.logins {
		snap.Logins[k] = v
	}
	return snap
}

// IncEntityOperation increments the operation counter of entity.
func (m *InMemoryRecorder) IncEntityOperation(entity, op string) {
	m.mu.Lock()
	m.operations[EntityKey{Entity: entity, Op: op}]++
	m.mu.Unlock()
}

// IncEntityNotFound increments the not found counter of entity.
func (m *InMemoryRecorder) IncEntityNotFound(entity string) {
	m.mu.Lock()
	m.notFound[entity]++
	m.mu.Unlock()
}

// IncLogin increments the login counter for status.
func (m *InMemoryRecorder) IncLogin(status string) {
	m.mu.Lock()
	m.logins[status]++
	m.mu.Unlock()
}

// IncAPIKeyIssued increments the issued key counter.
func (m *InMemoryRecorder) IncAPIKeyIssued() {
	atomic.AddUint64(&m.keysIssued, 1)
}
