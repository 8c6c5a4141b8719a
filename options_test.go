package pipec

import (
	"testing"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/shader"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if _, ok := o.compiler.(shader.NagaCompiler); !ok {
		t.Errorf("default compiler = %T, want shader.NagaCompiler", o.compiler)
	}
	if _, ok := o.ingester.(shader.NagaIngester); !ok {
		t.Errorf("default ingester = %T, want shader.NagaIngester", o.ingester)
	}
	if o.cache != nil || o.alloc != nil || o.flags != 0 || o.budget != 0 {
		t.Errorf("default options = %+v", o)
	}
}

func TestWithNilBackendsKeepDefaults(t *testing.T) {
	o := defaultOptions()
	WithCompiler(nil)(&o)
	WithIngester(nil)(&o)
	if o.compiler == nil || o.ingester == nil {
		t.Error("nil option replaced a default")
	}
}

func TestWithDriverFlagsAccumulates(t *testing.T) {
	dev := newDevice(t, "navi21", WithDriverFlags(hw.FlagNoNGG), WithDriverFlags(hw.FlagNoBinning))
	want := hw.FlagNoNGG | hw.FlagNoBinning
	if got := dev.Profile().Flags; got&want != want {
		t.Errorf("profile flags = %#x, want %#x set", got, want)
	}
	if dev.Profile().Caps.NGG {
		t.Error("FlagNoNGG left NGG enabled")
	}
	if !hw.MustLookup("navi21").Caps.NGG {
		t.Error("WithDriverFlags modified the registered profile")
	}
}

func TestWithAllocator(t *testing.T) {
	device, queue := openNoop(t)
	alloc := slab.New(device, queue, slab.Config{})
	t.Cleanup(alloc.Close)

	dev, err := New(nil, nil, hw.MustLookup("navi10"), WithAllocator(alloc))
	if err != nil {
		t.Fatalf("New with allocator: %v", err)
	}
	p, err := dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), fsModule()), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	if alloc.Stats().LiveSlabs != 1 {
		t.Errorf("allocator LiveSlabs = %d, want 1", alloc.Stats().LiveSlabs)
	}
	p.Destroy()
	dev.Close()

	// The device does not own the allocator.
	if _, err := alloc.Alloc("after close", 256); err != nil {
		t.Errorf("allocator closed with the device: %v", err)
	}
}

func TestNewWithoutDevice(t *testing.T) {
	if _, err := New(nil, nil, hw.MustLookup("navi10")); err != ErrNoDevice {
		t.Errorf("New(nil, nil) = %v, want ErrNoDevice", err)
	}
}

func TestNewNilProfilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	_, _ = New(nil, nil, nil)
}
