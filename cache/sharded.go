package cache

import (
	"sync"
	"sync/atomic"
)

// DefaultShardCount is the number of reservation shards. It must be a
// power of two.
const (
	DefaultShardCount = 16

	shardMask = DefaultShardCount - 1
)

// Cache is a thread-safe reserve/commit/abort cache.
//
// Lookups of distinct keys proceed in parallel; lookups of one key are
// serialized by the shard that owns it. Committed values are handed to
// the Store, so a value evicted by the store is compiled again on the
// next lookup.
type Cache[V any] struct {
	shards [DefaultShardCount]*cacheShard
	store  Store[V]

	hits    atomic.Uint64
	misses  atomic.Uint64
	waits   atomic.Uint64
	commits atomic.Uint64
	aborts  atomic.Uint64
}

type cacheShard struct {
	mu       sync.Mutex
	inflight map[Key]chan struct{}
}

// New returns a cache backed by store. A nil store keeps every entry in
// memory.
func New[V any](store Store[V]) *Cache[V] {
	if store == nil {
		store = NewMapStore[V]()
	}
	c := &Cache[V]{store: store}
	for i := range c.shards {
		c.shards[i] = &cacheShard{inflight: make(map[Key]chan struct{})}
	}
	return c
}

func (c *Cache[V]) shard(key Key) *cacheShard {
	return c.shards[key.shardIndex()]
}

// Lookup returns the stored value for key, or a reservation when the
// caller must produce it. If another caller holds the reservation for
// key, Lookup blocks until it is committed or aborted.
//
// The returned reservation is nil on a hit. A non-nil reservation must be
// settled with Commit or Abort.
func (c *Cache[V]) Lookup(key Key) (*Reservation[V], V, bool) {
	sh := c.shard(key)
	waited := false
	for {
		sh.mu.Lock()
		if v, ok := c.store.Get(key); ok {
			sh.mu.Unlock()
			c.hits.Add(1)
			return nil, v, true
		}
		done, busy := sh.inflight[key]
		if !busy {
			done = make(chan struct{})
			sh.inflight[key] = done
			sh.mu.Unlock()
			c.misses.Add(1)
			var zero V
			return &Reservation[V]{c: c, key: key, done: done}, zero, false
		}
		sh.mu.Unlock()

		if !waited {
			c.waits.Add(1)
			waited = true
			slogger().Debug("cache: waiting on reservation", "key", key)
		}
		<-done
	}
}

// Peek returns the stored value without reserving or blocking.
func (c *Cache[V]) Peek(key Key) (V, bool) {
	return c.store.Get(key)
}

// Pending returns the number of outstanding reservations.
func (c *Cache[V]) Pending() int {
	n := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		n += len(sh.inflight)
		sh.mu.Unlock()
	}
	return n
}

func (c *Cache[V]) settle(r *Reservation[V], v V, commit bool) {
	sh := c.shard(r.key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if r.settled {
		return
	}
	r.settled = true
	if commit {
		c.store.Put(r.key, v)
		c.commits.Add(1)
	} else {
		c.aborts.Add(1)
		slogger().Debug("cache: reservation aborted", "key", r.key)
	}
	delete(sh.inflight, r.key)
	close(r.done)
}

// Stats returns a snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if hits+misses > 0 {
		rate = float64(hits) / float64(hits+misses)
	}
	return Stats{
		Len:       c.store.Len(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   rate,
		Waits:     c.waits.Load(),
		Commits:   c.commits.Load(),
		Aborts:    c.aborts.Load(),
		Evictions: c.store.Evictions(),
	}
}

// ResetStats zeroes the lookup counters.
func (c *Cache[V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.waits.Store(0)
	c.commits.Store(0)
	c.aborts.Store(0)
}

// Stats are cache counters.
type Stats struct {
	// Len is the number of stored entries.
	Len int
	// Hits counts lookups answered from the store.
	Hits uint64
	// Misses counts reservations handed out.
	Misses uint64
	// HitRate is Hits / (Hits + Misses), 0 when no lookups happened.
	HitRate float64
	// Waits counts lookups that blocked on another caller's reservation.
	Waits   uint64
	Commits uint64
	Aborts  uint64
	// Evictions is reported by the store.
	Evictions uint64
}

// Reservation is the right to produce the value of one key.
type Reservation[V any] struct {
	c       *Cache[V]
	key     Key
	done    chan struct{}
	settled bool // guarded by the owning shard's mutex
}

// Key returns the reserved key.
func (r *Reservation[V]) Key() Key { return r.key }

// Commit stores v and wakes every caller waiting on the key. Settling an
// already settled reservation does nothing.
func (r *Reservation[V]) Commit(v V) { r.c.settle(r, v, true) }

// Abort releases the key without storing a value. The next waiting
// caller receives a fresh reservation.
func (r *Reservation[V]) Abort() {
	var zero V
	r.c.settle(r, zero, false)
}
