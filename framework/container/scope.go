package container

import (
	"sync"

	"github.com/google/uuid"
)

// ── Singleton cache ───────────────────────────────────────────────────────────

// singletonCache holds one instance per name for the container's lifetime.
// Reads take a read lock; the create path double-checks under a per-name
// mutex so that concurrent first access runs the factory exactly once.
type singletonCache struct {
	mu        sync.RWMutex
	instances map[string]any
	locks     sync.Map // name → *sync.Mutex
}

func newSingletonCache() *singletonCache {
	return &singletonCache{instances: make(map[string]any)}
}

func (s *singletonCache) get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.instances[name]
	return v, ok
}

func (s *singletonCache) lockFor(name string) *sync.Mutex {
	if lk, ok := s.locks.Load(name); ok {
		return lk.(*sync.Mutex)
	}
	lk, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return lk.(*sync.Mutex)
}

// getOrCreate returns the cached instance for name, building it at most
// once under concurrent first access.
func (s *singletonCache) getOrCreate(name string, build func() (any, error)) (any, error) {
	if v, ok := s.get(name); ok {
		return v, nil
	}

	lk := s.lockFor(name)
	lk.Lock()
	defer lk.Unlock()

	// Double-check: another goroutine may have built it while we waited.
	if v, ok := s.get(name); ok {
		return v, nil
	}

	v, err := build()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.instances[name] = v
	s.mu.Unlock()
	return v, nil
}

// ── Request scope ─────────────────────────────────────────────────────────────

// requestScope is one request-context activation: a fresh cache created on
// EnterRequestContext and discarded on ExitRequestContext. It is visible
// only to the goroutine chain that opened it.
type requestScope struct {
	id        string
	mu        sync.Mutex
	instances map[string]any
}

func newRequestScope() *requestScope {
	return &requestScope{
		id:        uuid.NewString(),
		instances: make(map[string]any),
	}
}

func (r *requestScope) get(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.instances[name]
	return v, ok
}

// getOrCreate mirrors the singleton path but on the activation-local cache.
func (r *requestScope) getOrCreate(name string, build func() (any, error)) (any, error) {
	if v, ok := r.get(name); ok {
		return v, nil
	}

	v, err := build()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.instances[name] = v
	r.mu.Unlock()
	return v, nil
}
