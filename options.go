package pipec

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/shader"
)

// Option configures a Device during creation.
//
// Example:
//
//	// Default naga backend, private cache, 256 MiB code budget
//	dev, err := pipec.New(halDevice, halQueue, hw.MustLookup("navi21"))
//
//	// Custom backend and a cache shared with another device
//	dev, err := pipec.New(halDevice, halQueue, profile,
//	    pipec.WithCompiler(myBackend),
//	    pipec.WithCache(shared))
type Option func(*options)

type options struct {
	compiler shader.Compiler
	ingester shader.Ingester
	cache    *PipelineCache
	alloc    *slab.Allocator
	flags    hw.DriverFlags
	budget   uint64
	workers  int
}

func defaultOptions() options {
	return options{
		compiler: shader.NagaCompiler{},
		ingester: shader.NagaIngester{},
	}
}

// WithCompiler sets the backend that turns lowered programs into
// machine code. The default emits SPIR-V through naga.
func WithCompiler(c shader.Compiler) Option {
	return func(o *options) {
		if c != nil {
			o.compiler = c
		}
	}
}

// WithIngester sets the service resolving shader module references.
func WithIngester(i shader.Ingester) Option {
	return func(o *options) {
		if i != nil {
			o.ingester = i
		}
	}
}

// WithCache shares a pipeline cache between devices. Keys carry the
// profile fingerprint, so devices with different profiles never hit
// each other's entries.
func WithCache(c *PipelineCache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithAllocator makes the device carve code slabs from an existing
// allocator instead of creating its own. The device does not close it.
func WithAllocator(a *slab.Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

// WithDriverFlags applies driver debug flags on top of the profile.
func WithDriverFlags(flags hw.DriverFlags) Option {
	return func(o *options) {
		o.flags |= flags
	}
}

// WithMemoryBudget bounds the live code memory of the device, in bytes.
// Ignored together with WithAllocator.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *options) {
		o.budget = bytes
	}
}

// WithWorkers sets how many goroutines compile the slots of a batch
// concurrently. The default, 0, uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
