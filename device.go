package pipec

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/internal/stages"
	"github.com/gogpu/pipec/internal/workers"
	"github.com/gogpu/pipec/shader"
)

// Device compiles pipelines for one hardware profile and owns the GPU
// memory their code lives in.
//
// Device is safe for concurrent use: pipelines may be created and
// destroyed from any number of goroutines.
type Device struct {
	profile *hw.Profile

	alloc     *slab.Allocator
	ownsAlloc bool
	cache     *PipelineCache
	ownsCache bool

	compiler shader.Compiler
	ingester shader.Ingester
	pool     *workers.Pool

	live   atomic.Int64
	closed atomic.Bool
}

// New returns a device uploading code through the hal device and queue.
// The profile describes the hardware; it must not be nil.
func New(device hal.Device, queue hal.Queue, profile *hw.Profile, opts ...Option) (*Device, error) {
	if profile == nil {
		panic("pipec: nil hardware profile")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.flags != 0 {
		profile = profile.WithFlags(profile.Flags | o.flags)
	}

	d := &Device{
		profile:  profile,
		compiler: o.compiler,
		ingester: o.ingester,
		alloc:    o.alloc,
		cache:    o.cache,
	}
	if d.alloc == nil {
		if device == nil || queue == nil {
			return nil, ErrNoDevice
		}
		d.alloc = slab.New(device, queue, slab.Config{Budget: o.budget})
		d.ownsAlloc = true
	}
	if d.cache == nil {
		d.cache = NewPipelineCache(0)
		d.ownsCache = true
	}
	d.pool = workers.New(o.workers)

	Logger().Info("pipec: device created", "profile", profile.Name, "level", profile.Level,
		"ngg", profile.Caps.NGG, "flags", uint32(profile.Flags), "workers", d.pool.Workers())
	return d, nil
}

// halProvider is implemented by device providers that expose their hal
// objects.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewDeviceFromProvider returns a device sharing the GPU device of an
// external provider. The provider must expose hal.Device and hal.Queue,
// either through HalDevice/HalQueue methods or directly. A nil profile
// is resolved from the provider's adapter name.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, profile *hw.Profile, opts ...Option) (*Device, error) {
	var dev, queue any
	if hp, ok := provider.(halProvider); ok {
		dev, queue = hp.HalDevice(), hp.HalQueue()
	} else {
		dev, queue = provider.Device(), provider.Queue()
	}
	halDev, ok := dev.(hal.Device)
	if !ok || halDev == nil {
		return nil, fmt.Errorf("%w: provider device is %T, not hal.Device", ErrNoDevice, dev)
	}
	halQueue, ok := queue.(hal.Queue)
	if !ok || halQueue == nil {
		return nil, fmt.Errorf("%w: provider queue is %T, not hal.Queue", ErrNoDevice, queue)
	}

	if profile == nil {
		ai := provider.AdapterInfo()
		profile, ok = ProfileForAdapter(ai)
		if !ok {
			return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownAdapter, ai.Name, ai.Type)
		}
	}
	return New(halDev, halQueue, profile, opts...)
}

// adapterMarkers maps substrings of adapter names to built-in profiles.
var adapterMarkers = []struct {
	marker  string
	profile string
}{
	{"rx 79", "gfx1100"},
	{"rx 78", "gfx1100"},
	{"rx 77", "gfx1100"},
	{"navi 31", "gfx1100"},
	{"rx 69", "navi21"},
	{"rx 68", "navi21"},
	{"navi 21", "navi21"},
	{"rx 57", "navi10"},
	{"navi 10", "navi10"},
	{"van gogh", "vangogh"},
	{"steam deck", "vangogh"},
	{"raphael", "raphael"},
	{"renoir", "renoir"},
	{"raven", "raven"},
	{"vega 8", "raven"},
	{"vega 11", "raven"},
	{"rx 550", "polaris12"},
	{"rx 540", "polaris12"},
	{"polaris", "polaris12"},
	{"stoney", "stoney"},
	{"r9 290", "hawaii"},
	{"hawaii", "hawaii"},
	{"hd 79", "tahiti"},
	{"tahiti", "tahiti"},
}

// ProfileForAdapter picks the built-in profile matching an adapter name.
func ProfileForAdapter(ai gpucontext.AdapterInfo) (*hw.Profile, bool) {
	name := strings.ToLower(ai.Name)
	for _, n := range hw.Names() {
		if strings.Contains(name, n) {
			return hw.Lookup(n)
		}
	}
	for _, m := range adapterMarkers {
		if strings.Contains(name, m.marker) {
			return hw.Lookup(m.profile)
		}
	}
	return nil, false
}

// Profile returns the hardware profile, driver flags applied.
func (d *Device) Profile() *hw.Profile { return d.profile }

// Cache returns the pipeline cache.
func (d *Device) Cache() *PipelineCache { return d.cache }

// MemoryStats returns code memory usage.
func (d *Device) MemoryStats() slab.Stats { return d.alloc.Stats() }

// SetMemoryBudget changes the code memory budget, in bytes; 0 restores
// the default. Code already uploaded stays. With WithAllocator the
// budget of the shared allocator changes for every device using it.
func (d *Device) SetMemoryBudget(bytes uint64) {
	d.alloc.SetBudget(bytes)
	Logger().Info("pipec: memory budget changed", "profile", d.profile.Name, "bytes", d.alloc.Stats().BudgetBytes)
}

// LivePipelines returns the number of pipelines not yet destroyed.
func (d *Device) LivePipelines() int { return int(d.live.Load()) }

// Close releases the device's cache and code memory. Pipelines still
// alive keep their register state but their code is gone; destroy them
// first. Close is idempotent.
func (d *Device) Close() {
	if d.closed.Swap(true) {
		return
	}
	if n := d.live.Load(); n > 0 {
		Logger().Warn("pipec: device closed with live pipelines", "count", n)
	}
	d.pool.Close()
	if d.ownsCache {
		d.cache.Purge()
	}
	if d.ownsAlloc {
		d.alloc.Close()
	}
	Logger().Info("pipec: device closed", "profile", d.profile.Name)
}

func (d *Device) stageOptions(flags CreateFlags) stages.Options {
	return stages.Options{
		Ingester:            d.ingester,
		Compiler:            d.compiler,
		DisableOptimization: flags.Has(DisableOptimization),
		CaptureIR:           flags.Has(CaptureInternalRepresentations),
	}
}
