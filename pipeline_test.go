package pipec

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/regs"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

func depthDesc() *state.GraphicsPipelineDescription {
	desc := graphicsDesc(vsModule(), fsModule())
	desc.DepthStencil = &state.DepthStencilState{
		DepthTest:    true,
		DepthWrite:   false,
		DepthCompare: gputypes.CompareFunctionLess,
	}
	desc.Rendering.DepthFormat = gputypes.TextureFormatDepth32Float
	return desc
}

func TestDepthTestedTriangle(t *testing.T) {
	dev := newDevice(t, "navi10")
	desc := depthDesc()

	pi := info.Extract(desc, dev.Profile())
	inv := pi.OrderInvariance()
	if !inv[0].ZS || !inv[0].PassSet {
		t.Errorf("OrderInvariance()[0] = %+v, want both invariant", inv[0])
	}

	p, err := dev.CreateGraphicsPipeline(desc, 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()

	ctx := p.ContextRegisters()
	if n := countReg(ctx, regs.DBDepthControl); n != 1 {
		t.Errorf("DB_DEPTH_CONTROL written %d times, want 1", n)
	}
	if n := countReg(ctx, regs.CBBlend0Control); n != 1 {
		t.Errorf("CB_BLEND0_CONTROL written %d times, want 1", n)
	}
	if _, blend := findReg(ctx, regs.CBBlend0Control); len(blend) != 8 {
		t.Errorf("CB_BLEND*_CONTROL has %d values, want 8", len(blend))
	} else {
		for i, v := range blend {
			if v != 0 {
				t.Errorf("CB_BLEND%d_CONTROL = %#x, want 0", i, v)
			}
		}
	}
	if _, col := findReg(ctx, regs.SPIShaderColFormat); len(col) == 0 || col[0]&0xF == 0 {
		t.Errorf("SPI_SHADER_COL_FORMAT = %v, want target 0 exported", col)
	}
	if _, mc1 := findReg(ctx, regs.PAScModeCntl1); len(mc1) == 0 || mc1[0]&(1<<25) == 0 {
		t.Errorf("PA_SC_MODE_CNTL_1 = %v, want out-of-order rasterization", mc1)
	}

	sh := p.ShaderRegisters()
	vs, _ := findReg(sh, regs.SPIShaderPgmLoESGS)
	ps, _ := findReg(sh, regs.SPIShaderPgmLoPS)
	if vs < 0 || ps < 0 || vs > ps {
		t.Errorf("vertex program at %d, fragment program at %d", vs, ps)
	}
	if p.Kind() != KindGraphics || p.Cached() {
		t.Errorf("Kind() = %v, Cached() = %v", p.Kind(), p.Cached())
	}
	if fs, ok := p.Shader(shader.StageFragment); !ok || fs.VA == 0 || fs.VA%256 != 0 {
		t.Errorf("fragment shader = %+v, %v", fs, ok)
	}
}

func TestMaskedAttachment(t *testing.T) {
	dev := newDevice(t, "navi10")
	desc := graphicsDesc(vsModule(), mrtModule())
	desc.Rendering.ColorFormats = []gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8Unorm,
	}
	over := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	desc.ColorBlend.Attachments = []state.ColorAttachmentBlend{
		{WriteMask: gputypes.ColorWriteMaskNone},
		{WriteMask: gputypes.ColorWriteMaskAll, BlendEnable: true, Color: over, Alpha: over},
	}

	p, err := dev.CreateGraphicsPipeline(desc, 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()

	ctx := p.ContextRegisters()
	if _, mask := findReg(ctx, regs.CBTargetMask); len(mask) == 0 || mask[0] != 0xF0 {
		t.Errorf("CB_TARGET_MASK = %v, want 0xf0", mask)
	}
	_, col := findReg(ctx, regs.SPIShaderColFormat)
	if len(col) == 0 || col[0]&0xF == 0 || col[0]>>4&0xF == 0 {
		t.Errorf("SPI_SHADER_COL_FORMAT = %v, want targets 0 and 1 exported", col)
	}
	if _, blend := findReg(ctx, regs.CBBlend0Control); len(blend) < 2 || blend[1] == 0 {
		t.Errorf("CB_BLEND1_CONTROL = %v, want blending", blend)
	}
}

func TestDeterministicAcrossDevices(t *testing.T) {
	build := func() *Pipeline {
		dev := newDevice(t, "raven")
		p, err := dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), tcsModule(), tesModule(), fsModule()), 0)
		if err != nil {
			t.Fatalf("CreateGraphicsPipeline: %v", err)
		}
		t.Cleanup(p.Destroy)
		return p
	}
	a, b := build(), build()
	if a.Key() != b.Key() {
		t.Fatal("keys differ")
	}
	actx, ash := a.RegisterBytes()
	bctx, bsh := b.RegisterBytes()
	if !bytes.Equal(actx, bctx) {
		t.Error("context registers differ")
	}
	// Both devices start from an empty allocator, so addresses match too.
	if !bytes.Equal(ash, bsh) {
		t.Error("shader registers differ")
	}
	for i := range a.res.Programs {
		if !bytes.Equal(a.res.Programs[i].Binary.Code, b.res.Programs[i].Binary.Code) {
			t.Errorf("program %d code differs", i)
		}
	}
	if a.ContextHash() != b.ContextHash() {
		t.Error("context hashes differ")
	}
}

func TestCacheHit(t *testing.T) {
	cc := &countingCompiler{}
	dev := newDevice(t, "navi10", WithCompiler(cc))

	first, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	defer first.Destroy()
	compiles := cc.calls.Load()
	if int(compiles) != len(first.Shaders()) {
		t.Errorf("compiles = %d, want one per program (%d)", compiles, len(first.Shaders()))
	}

	second, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	defer second.Destroy()
	if !second.Cached() {
		t.Error("second pipeline not served from the cache")
	}
	if got := cc.calls.Load(); got != compiles {
		t.Errorf("compiles = %d after a hit, want %d", got, compiles)
	}
	if first.ID() == second.ID() {
		t.Error("pipelines share an id")
	}
	if first.Shaders()[0].VA == second.Shaders()[0].VA {
		t.Error("private uploads share an address")
	}
	if st := dev.Cache().Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("cache stats = %+v", st)
	}
}

func TestShareCode(t *testing.T) {
	dev := newDevice(t, "navi10")
	a, err := dev.CreateGraphicsPipeline(depthDesc(), ShareCode)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := dev.CreateGraphicsPipeline(depthDesc(), ShareCode)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.Shaders()[0].VA != b.Shaders()[0].VA {
		t.Error("shared pipelines use different code")
	}
	if n := dev.MemoryStats().LiveSlabs; n != 1 {
		t.Errorf("LiveSlabs = %d, want 1", n)
	}

	a.Destroy()
	b.Destroy()
	if dev.MemoryStats().LiveBytes == 0 {
		t.Error("cache reference released with the pipelines")
	}
	dev.Cache().Purge()
	if st := dev.MemoryStats(); st.LiveBytes != 0 || st.LiveSlabs != 0 {
		t.Errorf("after Purge: %+v", st)
	}
}

func TestConcurrentCreateCompilesOnce(t *testing.T) {
	cc := &countingCompiler{}
	dev := newDevice(t, "navi21", WithCompiler(cc))

	const goroutines = 16
	pipes := make([]*Pipeline, goroutines)
	errs := make([]error, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pipes[i], errs[i] = dev.CreateGraphicsPipeline(depthDesc(), 0)
		}()
	}
	wg.Wait()

	hits := 0
	for i, p := range pipes {
		if errs[i] != nil {
			t.Fatalf("goroutine %d: %v", i, errs[i])
		}
		if p.Cached() {
			hits++
		}
		defer p.Destroy()
	}
	if want := int32(len(pipes[0].Shaders())); cc.calls.Load() != want {
		t.Errorf("compiles = %d, want %d", cc.calls.Load(), want)
	}
	if hits != goroutines-1 {
		t.Errorf("cache hits = %d, want %d", hits, goroutines-1)
	}
	if n := dev.LivePipelines(); n != goroutines {
		t.Errorf("LivePipelines() = %d", n)
	}
}

func TestFailOnCompileRequired(t *testing.T) {
	cc := &countingCompiler{}
	dev := newDevice(t, "navi10", WithCompiler(cc))

	_, err := dev.CreateGraphicsPipeline(depthDesc(), FailOnPipelineCompileRequired)
	if !errors.Is(err, ErrCompileRequired) {
		t.Fatalf("err = %v, want ErrCompileRequired", err)
	}
	if cc.calls.Load() != 0 {
		t.Errorf("compiler invoked %d times", cc.calls.Load())
	}
	if n := dev.Cache().Pending(); n != 0 {
		t.Errorf("Pending() = %d, reservation leaked", n)
	}

	warm, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	defer warm.Destroy()
	hot, err := dev.CreateGraphicsPipeline(depthDesc(), FailOnPipelineCompileRequired)
	if err != nil {
		t.Fatalf("cached pipeline with FailOnPipelineCompileRequired: %v", err)
	}
	hot.Destroy()
}

func TestCompileFailureLeavesNothing(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		mods     func() []*shader.Module
		programs int
	}{
		{"legacy gs", "polaris12", func() []*shader.Module {
			return []*shader.Module{vsModule(), gsModule(), fsModule()}
		}, 4},
		{"merged tess", "raven", func() []*shader.Module {
			return []*shader.Module{vsModule(), tcsModule(), tesModule(), fsModule()}
		}, 3},
	}
	for _, tt := range tests {
		for at := 1; at <= tt.programs; at++ {
			t.Run(tt.name, func(t *testing.T) {
				cc := &countingCompiler{}
				cc.failAt.Store(int32(at))
				dev := newDevice(t, tt.profile, WithCompiler(cc))

				_, err := dev.CreateGraphicsPipeline(graphicsDesc(tt.mods()...), 0)
				if !errors.Is(err, ErrCompile) || !errors.Is(err, errInjected) {
					t.Fatalf("program %d: err = %v", at, err)
				}
				var ce *CompileError
				if !errors.As(err, &ce) || ce.Phase != "compile" {
					t.Errorf("err = %#v, want a compile-phase *CompileError", err)
				}
				if int(cc.calls.Load()) != at {
					t.Errorf("backend called %d times, want %d", cc.calls.Load(), at)
				}
				if st := dev.MemoryStats(); st.LiveBytes != 0 || st.LiveSlabs != 0 {
					t.Errorf("memory after failure: %+v", st)
				}
				if dev.LivePipelines() != 0 || dev.Cache().Len() != 0 || dev.Cache().Pending() != 0 {
					t.Errorf("live=%d cached=%d pending=%d", dev.LivePipelines(), dev.Cache().Len(), dev.Cache().Pending())
				}
			})
		}
	}
}

func TestProgramCounts(t *testing.T) {
	p := newDevice(t, "polaris12")
	pipe, err := p.CreateGraphicsPipeline(graphicsDesc(vsModule(), gsModule(), fsModule()), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer pipe.Destroy()
	if n := len(pipe.Shaders()); n != 4 {
		t.Fatalf("%d programs, want 4", n)
	}
	gs, ok := pipe.Shader(shader.StageGeometry)
	if !ok || gs.CopyShader || gs.HW != shader.HWStageGS {
		t.Errorf("Shader(geometry) = %+v, %v", gs, ok)
	}
}

func TestOutOfMemory(t *testing.T) {
	dev := newDevice(t, "navi10", WithMemoryBudget(1))
	_, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if !errors.Is(err, ErrOutOfDeviceMemory) {
		t.Fatalf("err = %v, want ErrOutOfDeviceMemory", err)
	}
	if st := dev.MemoryStats(); st.LiveBytes != 0 {
		t.Errorf("LiveBytes = %d after failure", st.LiveBytes)
	}
	if dev.LivePipelines() != 0 {
		t.Errorf("LivePipelines() = %d", dev.LivePipelines())
	}
}

func TestSetMemoryBudget(t *testing.T) {
	dev := newDevice(t, "navi10")
	p, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()

	dev.SetMemoryBudget(1)
	if got := dev.MemoryStats().BudgetBytes; got != 1 {
		t.Fatalf("BudgetBytes = %d, want 1", got)
	}
	if _, err := dev.CreateComputePipeline(computeDesc(), 0); !errors.Is(err, ErrOutOfDeviceMemory) {
		t.Errorf("create over budget = %v, want ErrOutOfDeviceMemory", err)
	}

	dev.SetMemoryBudget(0)
	c, err := dev.CreateComputePipeline(computeDesc(), 0)
	if err != nil {
		t.Fatalf("create after restoring the budget: %v", err)
	}
	c.Destroy()
}

func TestBatch(t *testing.T) {
	bad := graphicsDesc(vsModule(), fsModule())
	bad.Stages[0].Module = shader.ModuleRef{Name: "broken", WGSL: "fn vs_main( {"}

	tests := []struct {
		name  string
		flags CreateFlags
		want  []error
	}{
		{"continue", 0, []error{nil, ErrCompile, nil}},
		{"early return", EarlyReturnOnFailure, []error{nil, ErrCompile, ErrNotAttempted}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t, "vangogh")
			pipes, err := dev.CreateGraphicsPipelines(
				[]*state.GraphicsPipelineDescription{depthDesc(), bad, graphicsDesc(vsModule(), fsModule())}, tt.flags)
			var be *BatchError
			if !errors.As(err, &be) {
				t.Fatalf("err = %v, want *BatchError", err)
			}
			for i, want := range tt.want {
				if want == nil {
					if be.Errs[i] != nil || pipes[i] == nil {
						t.Errorf("slot %d: pipeline %v, err %v", i, pipes[i], be.Errs[i])
					}
					continue
				}
				if !errors.Is(be.Errs[i], want) || pipes[i] != nil {
					t.Errorf("slot %d: err = %v, want %v", i, be.Errs[i], want)
				}
			}
			var ce *CompileError
			if !errors.As(be.Errs[1], &ce) || ce.Phase != "ingest" || ce.Stage != shader.StageVertex {
				t.Errorf("slot 1 = %#v", be.Errs[1])
			}
			for _, p := range pipes {
				if p != nil {
					p.Destroy()
				}
			}
		})
	}
}

func TestMalformedDescriptionsPanic(t *testing.T) {
	dev := newDevice(t, "navi10")
	tooMany := graphicsDesc(vsModule(), fsModule())
	for range 9 {
		tooMany.Rendering.ColorFormats = append(tooMany.Rendering.ColorFormats, gputypes.TextureFormatRGBA8Unorm)
	}
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil graphics", func() { _, _ = dev.CreateGraphicsPipeline(nil, 0) }},
		{"no stages", func() { _, _ = dev.CreateGraphicsPipeline(&state.GraphicsPipelineDescription{}, 0) }},
		{"too many targets", func() { _, _ = dev.CreateGraphicsPipeline(tooMany, 0) }},
		{"tess control alone", func() { _, _ = dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), tcsModule(), fsModule()), 0) }},
		{"nil compute", func() { _, _ = dev.CreateComputePipeline(nil, 0) }},
		{"compute with vertex", func() {
			desc := computeDesc()
			desc.Stage.Stage = shader.StageVertex
			_, _ = dev.CreateComputePipeline(desc, 0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			tt.fn()
		})
	}
	if n := dev.Cache().Pending(); n != 0 {
		t.Errorf("Pending() = %d after panics", n)
	}
}

func TestComputePipeline(t *testing.T) {
	dev := newDevice(t, "navi10")
	p, err := dev.CreateComputePipeline(computeDesc(), 0)
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	defer p.Destroy()

	if p.Kind() != KindCompute || len(p.Shaders()) != 1 {
		t.Fatalf("kind %v with %d shaders", p.Kind(), len(p.Shaders()))
	}
	if len(p.ContextRegisters()) != 0 {
		t.Errorf("compute pipeline writes %d context packets", len(p.ContextRegisters()))
	}
	_, threads := findReg(p.ShaderRegisters(), regs.ComputeNumThreadX)
	if len(threads) != 3 || threads[0] != 8 || threads[1] != 8 || threads[2] != 1 {
		t.Errorf("COMPUTE_NUM_THREAD_* = %v, want [8 8 1]", threads)
	}
	cs, ok := p.Shader(shader.StageCompute)
	if !ok || cs.HW != shader.HWStageCS || cs.VA != p.Shaders()[0].VA {
		t.Errorf("Shader(compute) = %+v, %v", cs, ok)
	}

	batch, err := dev.CreateComputePipelines([]*state.ComputePipelineDescription{computeDesc(), computeDesc()}, 0)
	if err != nil {
		t.Fatalf("CreateComputePipelines: %v", err)
	}
	for _, bp := range batch {
		if !bp.Cached() {
			t.Error("batched compute pipeline missed the cache")
		}
		bp.Destroy()
	}
}

func TestDestroyAndClose(t *testing.T) {
	dev := newDevice(t, "navi10")
	p, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	if dev.MemoryStats().LiveBytes == 0 {
		t.Error("no code memory while the pipeline is alive")
	}
	p.Destroy()
	p.Destroy()
	if n := dev.LivePipelines(); n != 0 {
		t.Errorf("LivePipelines() = %d after double Destroy", n)
	}
	if st := dev.MemoryStats(); st.LiveBytes != 0 {
		t.Errorf("LiveBytes = %d after Destroy", st.LiveBytes)
	}
	if _, err := p.Statistics(0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Statistics after Destroy: %v", err)
	}

	dev.Close()
	dev.Close()
	if _, err := dev.CreateGraphicsPipeline(depthDesc(), 0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("create after Close: %v", err)
	}
	if _, err := dev.CreateComputePipeline(computeDesc(), 0); !errors.Is(err, ErrDestroyed) {
		t.Errorf("compute after Close: %v", err)
	}
}

func TestDriverFlags(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want shader.HWStage
	}{
		{"ngg", nil, shader.HWStageNGG},
		{"legacy", []Option{WithDriverFlags(hw.FlagNoNGG)}, shader.HWStageVS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newDevice(t, "navi21", tt.opts...)
			p, err := dev.CreateGraphicsPipeline(depthDesc(), 0)
			if err != nil {
				t.Fatalf("CreateGraphicsPipeline: %v", err)
			}
			defer p.Destroy()
			if hws := p.Shaders()[0].HW; hws != tt.want {
				t.Errorf("vertex program runs as %s, want %s", hws, tt.want)
			}
		})
	}
}

func TestSharedCacheAcrossDevices(t *testing.T) {
	pc := NewPipelineCache(8)
	a := newDevice(t, "navi10", WithCache(pc))
	b := newDevice(t, "navi10", WithCache(pc))

	pa, err := a.CreateGraphicsPipeline(depthDesc(), ShareCode)
	if err != nil {
		t.Fatalf("device a: %v", err)
	}
	defer pa.Destroy()
	pb, err := b.CreateGraphicsPipeline(depthDesc(), ShareCode)
	if err != nil {
		t.Fatalf("device b: %v", err)
	}
	defer pb.Destroy()
	if !pb.Cached() {
		t.Error("second device missed the shared cache")
	}
	// The shared slab lives on device a, so device b uploads privately.
	if b.MemoryStats().LiveSlabs != 1 {
		t.Errorf("device b LiveSlabs = %d, want 1", b.MemoryStats().LiveSlabs)
	}
	pc.Purge()
}

func TestDynamicStateReported(t *testing.T) {
	dev := newDevice(t, "navi10")
	desc := depthDesc()
	desc.Dynamic = state.DynamicViewport | state.DynamicScissor
	p, err := dev.CreateGraphicsPipeline(desc, 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()
	if ds := p.DynamicState(); !ds.Has(state.DynamicViewport) || !ds.Has(state.DynamicScissor) {
		t.Errorf("DynamicState() = %v", ds)
	}
}

func TestParallelBatchCompilesOnce(t *testing.T) {
	cc := &countingCompiler{}
	dev := newDevice(t, "navi21", WithCompiler(cc), WithWorkers(4))

	descs := make([]*state.GraphicsPipelineDescription, 8)
	for i := range descs {
		descs[i] = depthDesc()
	}
	pipes, err := dev.CreateGraphicsPipelines(descs, 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipelines: %v", err)
	}
	hits := 0
	for _, p := range pipes {
		if p.Cached() {
			hits++
		}
		defer p.Destroy()
	}
	if want := int32(len(pipes[0].Shaders())); cc.calls.Load() != want {
		t.Errorf("compiles = %d, want %d", cc.calls.Load(), want)
	}
	if hits != len(descs)-1 {
		t.Errorf("cache hits = %d, want %d", hits, len(descs)-1)
	}
	for i := 1; i < len(pipes); i++ {
		if pipes[i].Key() != pipes[0].Key() || pipes[i].ContextHash() != pipes[0].ContextHash() {
			t.Errorf("slot %d differs from slot 0", i)
		}
	}
}

func TestBatchPanicsInCaller(t *testing.T) {
	dev := newDevice(t, "navi10", WithWorkers(2))
	defer func() {
		if r := recover(); r != "pipec: nil compute pipeline description" {
			t.Errorf("recovered %v, want the slot's own panic", r)
		}
	}()
	_, _ = dev.CreateComputePipelines([]*state.ComputePipelineDescription{computeDesc(), nil, computeDesc()}, 0)
}
