// Package slab packs compiled shader code into reference-counted GPU
// allocations and enforces a device memory budget.
package slab

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pipec/internal/xmath"
)

// Allocation errors.
var (
	// ErrBudgetExceeded is returned when an allocation would exceed the
	// memory budget.
	ErrBudgetExceeded = errors.New("slab: memory budget exceeded")

	// ErrAllocFailed wraps a device buffer creation failure.
	ErrAllocFailed = errors.New("slab: device allocation failed")

	// ErrUploadFailed wraps a queue write failure.
	ErrUploadFailed = errors.New("slab: upload failed")

	// ErrClosed is returned by a closed allocator.
	ErrClosed = errors.New("slab: allocator closed")
)

const (
	// DefaultBudget is the code memory budget used when none is set.
	DefaultBudget = 256 << 20

	// CodeAlignment is the start alignment of every program in a slab.
	CodeAlignment = 256

	// TailPadding keeps instruction prefetch of the last program inside
	// the allocation.
	TailPadding = 384

	// vaAlignment separates the virtual ranges of consecutive slabs.
	vaAlignment = 64 << 10

	// DefaultBaseVA is the first virtual address handed out.
	DefaultBaseVA = 0x1_0000_0000
)

// Layout is the placement of programs inside one slab.
type Layout struct {
	Offsets []uint64
	// Size includes alignment holes and tail padding.
	Size uint64
}

// Pack places programs of the given code sizes back to back, each start
// aligned to CodeAlignment.
func Pack(sizes []uint64) Layout {
	l := Layout{Offsets: make([]uint64, len(sizes))}
	var off uint64
	for i, sz := range sizes {
		off = xmath.AlignUp(off, CodeAlignment)
		l.Offsets[i] = off
		off += sz
	}
	l.Size = xmath.AlignUp(off, CodeAlignment) + TailPadding
	return l
}

// Config configures an Allocator.
type Config struct {
	// Budget bounds the live bytes; 0 selects DefaultBudget.
	Budget uint64
	// BaseVA is the first virtual address; 0 selects DefaultBaseVA.
	BaseVA uint64
}

// Stats describes allocator usage.
type Stats struct {
	BudgetBytes uint64
	LiveBytes   uint64
	PeakBytes   uint64
	LiveSlabs   int
	Allocs      uint64
	Frees       uint64
	Failures    uint64
}

// String returns a short usage summary.
func (s Stats) String() string {
	return fmt.Sprintf("Slabs[%d live, %d/%d bytes, peak %d, %d allocs, %d frees]",
		s.LiveSlabs, s.LiveBytes, s.BudgetBytes, s.PeakBytes, s.Allocs, s.Frees)
}

// Allocator hands out slabs backed by hal buffers.
//
// Allocator is safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	budget uint64
	live   uint64
	peak   uint64
	nextVA uint64
	slabs  map[*Slab]struct{}

	allocs   uint64
	frees    uint64
	failures uint64

	closed bool
}

// New returns an allocator creating buffers on device and uploading
// through queue.
func New(device hal.Device, queue hal.Queue, cfg Config) *Allocator {
	if cfg.Budget == 0 {
		cfg.Budget = DefaultBudget
	}
	if cfg.BaseVA == 0 {
		cfg.BaseVA = DefaultBaseVA
	}
	return &Allocator{
		device: device,
		queue:  queue,
		budget: cfg.Budget,
		nextVA: cfg.BaseVA,
		slabs:  make(map[*Slab]struct{}),
	}
}

// Alloc creates a slab of size bytes with one reference.
func (a *Allocator) Alloc(label string, size uint64) (*Slab, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if a.live+size > a.budget {
		a.failures++
		return nil, fmt.Errorf("%w: need %d bytes, have %d of %d available",
			ErrBudgetExceeded, size, a.budget-a.live, a.budget)
	}

	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		a.failures++
		return nil, fmt.Errorf("%w: %s (%d bytes): %w", ErrAllocFailed, label, size, err)
	}

	s := &Slab{
		alloc: a,
		buf:   buf,
		label: label,
		size:  size,
		va:    a.nextVA,
	}
	s.refs.Store(1)
	a.nextVA += xmath.AlignUp(size, vaAlignment)
	a.live += size
	a.peak = max(a.peak, a.live)
	a.allocs++
	a.slabs[s] = struct{}{}

	slogger().Debug("slab: allocated", "label", label, "size", size, "va", s.va, "live", a.live)
	return s, nil
}

// free destroys the buffer of s. Called once, on the last release.
func (a *Allocator) free(s *Slab) {
	a.mu.Lock()
	if _, ok := a.slabs[s]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.slabs, s)
	a.live -= s.size
	a.frees++
	live := a.live
	a.mu.Unlock()

	a.device.DestroyBuffer(s.buf)
	slogger().Debug("slab: freed", "label", s.label, "size", s.size, "live", live)
}

// Stats returns current usage.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		BudgetBytes: a.budget,
		LiveBytes:   a.live,
		PeakBytes:   a.peak,
		LiveSlabs:   len(a.slabs),
		Allocs:      a.allocs,
		Frees:       a.frees,
		Failures:    a.failures,
	}
}

// SetBudget changes the budget; 0 selects DefaultBudget. Live slabs
// are not affected, even when they exceed the new budget.
func (a *Allocator) SetBudget(bytes uint64) {
	if bytes == 0 {
		bytes = DefaultBudget
	}
	a.mu.Lock()
	a.budget = bytes
	a.mu.Unlock()
}

// Close destroys every live slab. Slabs released afterwards are ignored.
func (a *Allocator) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	slabs := a.slabs
	a.slabs = make(map[*Slab]struct{})
	a.live = 0
	a.mu.Unlock()

	for s := range slabs {
		a.device.DestroyBuffer(s.buf)
	}
	if n := len(slabs); n > 0 {
		slogger().Warn("slab: closed with live slabs", "count", n)
	}
}

// Slab is one GPU allocation holding the code of a pipeline.
type Slab struct {
	alloc *Allocator
	buf   hal.Buffer
	label string
	size  uint64
	va    uint64
	refs  atomic.Int32
}

// VA returns the virtual address of the first byte.
func (s *Slab) VA() uint64 { return s.va }

// Size returns the allocation size in bytes.
func (s *Slab) Size() uint64 { return s.size }

// Refs returns the current reference count.
func (s *Slab) Refs() int32 { return s.refs.Load() }

// Upload writes code at offset.
func (s *Slab) Upload(offset uint64, code []byte) error {
	if offset+uint64(len(code)) > s.size {
		return fmt.Errorf("%w: %d bytes at %d overflow %s (%d bytes)",
			ErrUploadFailed, len(code), offset, s.label, s.size)
	}
	if err := s.alloc.queue.WriteBuffer(s.buf, offset, code); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUploadFailed, s.label, err)
	}
	return nil
}

// Retain adds a reference and returns s.
func (s *Slab) Retain() *Slab {
	if s.refs.Add(1) <= 1 {
		panic("slab: retain of released slab " + s.label)
	}
	return s
}

// Release drops a reference and frees the allocation on the last one.
// It reports whether this call freed the slab.
func (s *Slab) Release() bool {
	n := s.refs.Add(-1)
	switch {
	case n > 0:
		return false
	case n < 0:
		panic("slab: release of released slab " + s.label)
	}
	s.alloc.free(s)
	return true
}
