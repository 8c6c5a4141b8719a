package pipec

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"

	"github.com/gogpu/pipec/cache"
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/regs"
	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/internal/stages"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/internal/workers"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Shader is one uploaded hardware program of a pipeline.
type Shader struct {
	Name string
	HW   shader.HWStage
	// Stages are the logical stages compiled into the program. A GS copy
	// shader reports the geometry stage.
	Stages     shader.StageMask
	CopyShader bool
	// VA is the GPU virtual address of the first instruction.
	VA       uint64
	CodeSize uint64
	Config   shader.Config
	// MaxWaves is how many waves of the program fit on one SIMD.
	MaxWaves uint32
}

// RegisterWrite is a write of consecutive registers.
type RegisterWrite struct {
	Reg    uint32
	Name   string
	Values []uint32
}

// Pipeline is a compiled, ready-to-bind pipeline. Its register state is
// immutable; Destroy releases its code memory.
type Pipeline struct {
	id     uuid.UUID
	kind   Kind
	device *Device
	key    cache.Key
	flags  CreateFlags
	cached bool

	res     *stages.Result
	slab    *slab.Slab
	shaders []Shader
	seq     *regs.Sequence
	dynamic state.DynamicState

	destroyed atomic.Bool
}

// ID returns the unique id of the pipeline object.
func (p *Pipeline) ID() uuid.UUID { return p.id }

// Kind returns the bind point.
func (p *Pipeline) Kind() Kind { return p.kind }

// Key returns the cache key the pipeline was compiled under.
func (p *Pipeline) Key() cache.Key { return p.key }

// Cached reports whether the compiled code came from the cache.
func (p *Pipeline) Cached() bool { return p.cached }

// Shaders returns the hardware programs in pipeline order.
func (p *Pipeline) Shaders() []Shader {
	return append([]Shader(nil), p.shaders...)
}

// Shader returns the program a logical stage was compiled into. The GS
// copy shader is never returned.
func (p *Pipeline) Shader(st shader.Stage) (Shader, bool) {
	for _, s := range p.shaders {
		if !s.CopyShader && s.Stages.Has(st) {
			return s, true
		}
	}
	return Shader{}, false
}

// DynamicState returns the state the draw-time layer must still supply.
func (p *Pipeline) DynamicState() state.DynamicState { return p.dynamic }

// ScratchBytesPerWave returns the largest per-wave scratch requirement
// of the pipeline's programs.
func (p *Pipeline) ScratchBytesPerWave() uint32 {
	var n uint32
	for _, s := range p.shaders {
		n = max(n, s.Config.ScratchBytesPerWave)
	}
	return n
}

// CodeSize returns the size of the pipeline's code slab.
func (p *Pipeline) CodeSize() uint64 { return p.slab.Size() }

func registerWrites(b *regs.Buffer) []RegisterWrite {
	pks := b.Packets()
	out := make([]RegisterWrite, len(pks))
	for i, pk := range pks {
		out[i] = RegisterWrite{
			Reg:    pk.Addr,
			Name:   regs.Name(pk.Addr),
			Values: append([]uint32(nil), pk.Values...),
		}
	}
	return out
}

// ContextRegisters returns the context register writes in emission
// order.
func (p *Pipeline) ContextRegisters() []RegisterWrite { return registerWrites(&p.seq.Context) }

// ShaderRegisters returns the persistent shader register writes in
// emission order.
func (p *Pipeline) ShaderRegisters() []RegisterWrite { return registerWrites(&p.seq.Shader) }

// ContextHash identifies the context register contents. Binding a
// pipeline whose hash equals the bound one can skip the context writes.
func (p *Pipeline) ContextHash() uint64 { return p.seq.ContextHash }

// RegisterBytes returns both register buffers in their packed form.
func (p *Pipeline) RegisterBytes() (context, sh []byte) {
	return p.seq.Context.Bytes(), p.seq.Shader.Bytes()
}

// DumpRegisters returns a readable listing of every register write.
func (p *Pipeline) DumpRegisters() string {
	return p.seq.Context.String() + p.seq.Shader.String()
}

// Destroy releases the pipeline's code memory. Calling it again does
// nothing.
func (p *Pipeline) Destroy() {
	if p.destroyed.Swap(true) {
		return
	}
	p.slab.Release()
	p.device.live.Add(-1)
	Logger().Info("pipec: pipeline destroyed", "id", p.id, "kind", p.kind)
}

// validateGraphics panics on descriptions no pipeline can be built from.
// Stage-set rules are enforced by the stage pipeline.
func validateGraphics(desc *state.GraphicsPipelineDescription) {
	switch {
	case desc == nil:
		panic("pipec: nil graphics pipeline description")
	case len(desc.Stages) == 0:
		panic("pipec: graphics pipeline without stages")
	case len(desc.Rendering.ColorFormats) > translate.MaxRTs:
		panic(fmt.Sprintf("pipec: %d color attachments, at most %d", len(desc.Rendering.ColorFormats), translate.MaxRTs))
	case desc.ColorBlend != nil && len(desc.ColorBlend.Attachments) > translate.MaxRTs:
		panic(fmt.Sprintf("pipec: %d blend attachments, at most %d", len(desc.ColorBlend.Attachments), translate.MaxRTs))
	}
}

func validateCompute(desc *state.ComputePipelineDescription) {
	switch {
	case desc == nil:
		panic("pipec: nil compute pipeline description")
	case desc.Stage.Stage != shader.StageCompute:
		panic(fmt.Sprintf("pipec: compute pipeline with a %s stage", desc.Stage.Stage))
	}
}

// binSize picks the primitive bin extent for the attachments the
// pipeline writes.
func binSize(p *hw.Profile, pi *info.PipelineInfo) budget.Extent {
	if !pi.RasterEnabled {
		return budget.Extent{}
	}
	in := budget.ColorBinInput(pi.Rendering.ColorFormats, pi.Blend.TargetEnabled)
	ds := &pi.DepthStencil
	in.Depth = pi.Rendering.DepthFormat != gputypes.TextureFormatUndefined && (ds.DepthTest || ds.DepthBoundsTest)
	in.Stencil = pi.Rendering.StencilFormat != gputypes.TextureFormatUndefined && ds.StencilTest
	in.Samples = pi.Multisample.Samples
	in.PSIterSamples = pi.Multisample.PSIterSamples()
	return budget.BinSize(p, in)
}

// lookup returns the cache entry for key, compiling it under the key's
// reservation on a miss. The reservation is released on every path,
// panics included.
func (d *Device) lookup(key cache.Key, flags CreateFlags, compile func() (*stages.Result, error)) (*cacheEntry, bool, error) {
	r, e, hit := d.cache.c.Lookup(key)
	if hit {
		return e, true, nil
	}
	settled := false
	defer func() {
		if !settled {
			r.Abort()
		}
	}()

	if flags.Has(FailOnPipelineCompileRequired) {
		return nil, false, ErrCompileRequired
	}
	res, err := compile()
	if err != nil {
		return nil, false, compileError(err)
	}
	e = &cacheEntry{res: res}
	r.Commit(e)
	settled = true
	return e, false, nil
}

// place uploads the entry's code, or shares the entry's slab when asked.
func (d *Device) place(e *cacheEntry, flags CreateFlags, label string) (*slab.Slab, slab.Layout, error) {
	if flags.Has(ShareCode) {
		s, layout, ok, err := e.sharedSlab(d.alloc, label)
		if ok {
			return s, layout, err
		}
	}
	return upload(d.alloc, label, e.res)
}

// newPipeline places the code of e and returns the pipeline with its
// program addresses resolved. The register sequence is set by the
// caller.
func (d *Device) newPipeline(kind Kind, key cache.Key, e *cacheEntry, hit bool, flags CreateFlags) (*Pipeline, []uint64, error) {
	id := uuid.New()
	s, layout, err := d.place(e, flags, "pipeline "+id.String())
	if err != nil {
		return nil, nil, err
	}

	progs := e.res.Programs
	vas := make([]uint64, len(progs))
	shaders := make([]Shader, len(progs))
	for i := range progs {
		prog := &progs[i]
		vas[i] = s.VA() + layout.Offsets[i]
		shaders[i] = Shader{
			Name:       prog.Name,
			HW:         prog.HW,
			Stages:     prog.Stages,
			CopyShader: prog.CopyShader,
			VA:         vas[i],
			CodeSize:   uint64(len(prog.Binary.Code)),
			Config:     prog.Binary.Config,
			MaxWaves:   prog.MaxWaves,
		}
	}
	p := &Pipeline{
		id:      id,
		kind:    kind,
		device:  d,
		key:     key,
		flags:   flags,
		cached:  hit,
		res:     e.res,
		slab:    s,
		shaders: shaders,
	}
	return p, vas, nil
}

// CreateGraphicsPipeline compiles and uploads a graphics pipeline.
//
// The returned error wraps ErrCompile (as a *CompileError),
// ErrCompileRequired, ErrOutOfDeviceMemory, ErrOutOfHostMemory or
// ErrDestroyed. A failed call leaves no memory allocated. Structurally
// invalid descriptions panic.
func (d *Device) CreateGraphicsPipeline(desc *state.GraphicsPipelineDescription, flags CreateFlags) (*Pipeline, error) {
	if d.closed.Load() {
		return nil, ErrDestroyed
	}
	validateGraphics(desc)

	pi := info.Extract(desc, d.profile)
	opts := d.stageOptions(flags)
	key := stages.GraphicsKey(d.profile, desc, pi, opts)

	e, hit, err := d.lookup(key, flags, func() (*stages.Result, error) {
		return stages.CompileGraphics(d.profile, desc, pi, opts)
	})
	if err != nil {
		Logger().Debug("pipec: graphics pipeline failed", "key", key, "err", err)
		return nil, err
	}

	p, vas, err := d.newPipeline(KindGraphics, key, e, hit, flags)
	if err != nil {
		return nil, err
	}
	p.dynamic = pi.Dynamic
	outOfOrder := pi.OutOfOrderAllowed(d.profile, e.res.Fragment)
	p.seq = regs.EmitGraphics(d.profile, e.res.GraphicsInput(pi, vas, outOfOrder, binSize(d.profile, pi)))

	d.live.Add(1)
	Logger().Info("pipec: graphics pipeline created", "id", p.id, "key", key, "cached", hit,
		"stages", e.res.Stages, "programs", len(p.shaders), "out_of_order", outOfOrder)
	return p, nil
}

// CreateComputePipeline compiles and uploads a compute pipeline. Errors
// are as for CreateGraphicsPipeline.
func (d *Device) CreateComputePipeline(desc *state.ComputePipelineDescription, flags CreateFlags) (*Pipeline, error) {
	if d.closed.Load() {
		return nil, ErrDestroyed
	}
	validateCompute(desc)

	opts := d.stageOptions(flags)
	key := stages.ComputeKey(d.profile, desc, opts)
	e, hit, err := d.lookup(key, flags, func() (*stages.Result, error) {
		return stages.CompileCompute(d.profile, desc, opts)
	})
	if err != nil {
		Logger().Debug("pipec: compute pipeline failed", "key", key, "err", err)
		return nil, err
	}

	p, vas, err := d.newPipeline(KindCompute, key, e, hit, flags)
	if err != nil {
		return nil, err
	}
	p.seq = regs.EmitCompute(d.profile, e.res.ComputeInput(vas[0]))

	d.live.Add(1)
	Logger().Info("pipec: compute pipeline created", "id", p.id, "key", key, "cached", hit,
		"workgroup", e.res.Workgroup)
	return p, nil
}

// batch runs create for n independent slots. Without
// EarlyReturnOnFailure the slots run concurrently on the device's
// worker pool; with it they run in order and the slots after a failure
// are not attempted. A panicking slot panics the caller once every
// other slot has finished.
func (d *Device) batch(n int, flags CreateFlags, create func(i int) (*Pipeline, error)) ([]*Pipeline, error) {
	out := make([]*Pipeline, n)
	errs := make([]error, n)
	failed := false

	if flags.Has(EarlyReturnOnFailure) {
		for i := range n {
			out[i], errs[i] = create(i)
			if errs[i] == nil {
				continue
			}
			failed = true
			Logger().Warn("pipec: pipeline slot failed", "slot", i, "err", errs[i])
			for j := i + 1; j < n; j++ {
				errs[j] = ErrNotAttempted
			}
			break
		}
	} else {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if pe, ok := r.(*workers.PanicError); ok {
						panic(pe.Value)
					}
					panic(r)
				}
			}()
			d.pool.Run(n, func(i int) {
				out[i], errs[i] = create(i)
			})
		}()
		for i, err := range errs {
			if err != nil {
				failed = true
				Logger().Warn("pipec: pipeline slot failed", "slot", i, "err", err)
			}
		}
	}

	if failed {
		return out, &BatchError{Errs: errs}
	}
	return out, nil
}

// CreateGraphicsPipelines creates one pipeline per description. Failed
// slots are nil in the result and reported through a *BatchError.
func (d *Device) CreateGraphicsPipelines(descs []*state.GraphicsPipelineDescription, flags CreateFlags) ([]*Pipeline, error) {
	return d.batch(len(descs), flags, func(i int) (*Pipeline, error) {
		return d.CreateGraphicsPipeline(descs[i], flags)
	})
}

// CreateComputePipelines is the compute counterpart of
// CreateGraphicsPipelines.
func (d *Device) CreateComputePipelines(descs []*state.ComputePipelineDescription, flags CreateFlags) ([]*Pipeline, error) {
	return d.batch(len(descs), flags, func(i int) (*Pipeline, error) {
		return d.CreateComputePipeline(descs[i], flags)
	})
}
