package cache

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultCapacity bounds the store; the oldest-inserted entry is evicted
	// once the bound is exceeded.
	DefaultCapacity = 50

	// DefaultInterval is the minimum gap between calls to one external service.
	DefaultInterval = 10 * time.Second
)

// Cache is the read-through store used by the engine and the price-feed client.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
}

type entry[T any] struct {
	data      T
	timestamp time.Time
}

// Store is an in-memory TTL cache. Entries are lazily invalidated on read;
// there is no background sweep. Eviction is insertion-order, not LRU, and an
// overwrite keeps the key's original insertion position.
type Store[T any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]entry[T]
	order    []string

	now func() time.Time
}

// NewStore creates an isolated store instance. Stores are dependency-injected
// into their owners rather than shared through package globals so tests can
// construct independent instances.
func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		ttl:      ttl,
		capacity: DefaultCapacity,
		entries:  make(map[string]entry[T]),
		now:      time.Now,
	}
}

// Get returns the cached value if it is younger than the TTL.
func (s *Store[T]) Get(_ context.Context, key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if s.now().Sub(e.timestamp) >= s.ttl {
		s.remove(key)
		return zero, false
	}
	return e.data, true
}

// Set inserts or overwrites a value, evicting the oldest-inserted entry when
// the store would exceed its capacity.
func (s *Store[T]) Set(_ context.Context, key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry[T]{data: value, timestamp: s.now()}

	if len(s.order) > s.capacity {
		s.remove(s.order[0])
	}
}

// Len reports the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[T]) remove(key string) {
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Limiter gates calls to external services by service name. Callers must check
// IsLimited before issuing a call and MarkCalled at issue time, not on
// completion, so duplicate in-flight requests stay bounded.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time

	now func() time.Time
}

// NewLimiter creates a limiter with the given minimum call interval.
func NewLimiter(interval time.Duration) *Limiter {
	return &Limiter{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// IsLimited reports whether the service was called within the minimum interval.
func (l *Limiter) IsLimited(service string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[service]
	if !ok {
		return false
	}
	return l.now().Sub(last) < l.interval
}

// MarkCalled records the current time as the service's last call.
func (l *Limiter) MarkCalled(service string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[service] = l.now()
}
