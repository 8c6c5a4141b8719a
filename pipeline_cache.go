package pipec

import (
	"sync"

	"github.com/gogpu/pipec/cache"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/internal/stages"
)

// PipelineCache holds compiled pipelines by content key. A cache can
// serve several devices; see WithCache.
//
// PipelineCache is safe for concurrent use.
type PipelineCache struct {
	c     *cache.Cache[*cacheEntry]
	store *cache.LRUStore[*cacheEntry]
}

// NewPipelineCache returns a cache bounded to size entries. A size <= 0
// selects cache.DefaultLRUSize.
func NewPipelineCache(size int) *PipelineCache {
	store := cache.NewLRUStore(size, func(_ cache.Key, e *cacheEntry) {
		e.release()
	})
	return &PipelineCache{c: cache.New[*cacheEntry](store), store: store}
}

// Stats returns the cache counters.
func (pc *PipelineCache) Stats() cache.Stats { return pc.c.Stats() }

// Len returns the number of cached pipelines.
func (pc *PipelineCache) Len() int { return pc.store.Len() }

// Pending returns the number of keys being compiled.
func (pc *PipelineCache) Pending() int { return pc.c.Pending() }

// Purge drops every entry. Pipelines created from them stay valid.
func (pc *PipelineCache) Purge() { pc.store.Purge() }

// cacheEntry is one compiled pipeline. The result is immutable; the
// shared slab is created on the first ShareCode request.
type cacheEntry struct {
	res *stages.Result

	mu      sync.Mutex
	alloc   *slab.Allocator
	shared  *slab.Slab
	layout  slab.Layout
	evicted bool
}

// sharedSlab returns a new reference to the entry's code slab on alloc.
// ok is false when the entry cannot share: it was evicted, or its slab
// lives on another allocator.
func (e *cacheEntry) sharedSlab(alloc *slab.Allocator, label string) (s *slab.Slab, layout slab.Layout, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return nil, layout, false, nil
	}
	if e.shared != nil {
		if e.alloc != alloc {
			return nil, layout, false, nil
		}
		return e.shared.Retain(), e.layout, true, nil
	}
	s, layout, err = upload(alloc, label, e.res)
	if err != nil {
		return nil, layout, true, err
	}
	e.alloc, e.shared, e.layout = alloc, s, layout
	return s.Retain(), layout, true, nil
}

// release drops the entry's slab reference. Called on eviction.
func (e *cacheEntry) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evicted = true
	if e.shared != nil {
		e.shared.Release()
		e.shared = nil
	}
}

// upload packs every program of res into one new slab. On failure
// nothing stays allocated.
func upload(alloc *slab.Allocator, label string, res *stages.Result) (*slab.Slab, slab.Layout, error) {
	layout := slab.Pack(res.CodeSizes())
	s, err := alloc.Alloc(label, layout.Size)
	if err != nil {
		return nil, layout, memoryError(err)
	}
	for i := range res.Programs {
		if err := s.Upload(layout.Offsets[i], res.Programs[i].Binary.Code); err != nil {
			s.Release()
			return nil, layout, memoryError(err)
		}
	}
	return s, layout, nil
}
