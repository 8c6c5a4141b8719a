package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is the backing store of committed entries. Implementations must
// be safe for concurrent use.
type Store[V any] interface {
	Get(key Key) (V, bool)
	Put(key Key, v V)
	Len() int
	// Evictions counts entries dropped to make room.
	Evictions() uint64
}

// DefaultLRUSize is the entry bound used when NewLRUStore gets size <= 0.
const DefaultLRUSize = 1024

// LRUStore keeps the most recently used entries.
type LRUStore[V any] struct {
	lru       *lru.Cache[Key, V]
	evictions atomic.Uint64
}

// NewLRUStore returns a store bounded to size entries. onEvict, if not
// nil, runs for every entry pushed out by a newer one.
func NewLRUStore[V any](size int, onEvict func(Key, V)) *LRUStore[V] {
	if size <= 0 {
		size = DefaultLRUSize
	}
	s := &LRUStore[V]{}
	l, err := lru.NewWithEvict(size, func(k Key, v V) {
		s.evictions.Add(1)
		if onEvict != nil {
			onEvict(k, v)
		}
	})
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	s.lru = l
	return s
}

// Get returns the entry for key and marks it recently used.
func (s *LRUStore[V]) Get(key Key) (V, bool) { return s.lru.Get(key) }

// Put adds or replaces the entry for key.
func (s *LRUStore[V]) Put(key Key, v V) { s.lru.Add(key, v) }

// Len returns the number of entries.
func (s *LRUStore[V]) Len() int { return s.lru.Len() }

// Evictions returns the number of evicted entries.
func (s *LRUStore[V]) Evictions() uint64 { return s.evictions.Load() }

// Purge drops every entry. The eviction callback runs for each.
func (s *LRUStore[V]) Purge() { s.lru.Purge() }

// MapStore is an unbounded store.
type MapStore[V any] struct {
	mu sync.RWMutex
	m  map[Key]V
}

// NewMapStore returns an empty unbounded store.
func NewMapStore[V any]() *MapStore[V] {
	return &MapStore[V]{m: make(map[Key]V)}
}

// Get returns the entry for key.
func (s *MapStore[V]) Get(key Key) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Put stores v under key.
func (s *MapStore[V]) Put(key Key, v V) {
	s.mu.Lock()
	s.m[key] = v
	s.mu.Unlock()
}

// Len returns the number of entries.
func (s *MapStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Evictions is always zero.
func (s *MapStore[V]) Evictions() uint64 { return 0 }
