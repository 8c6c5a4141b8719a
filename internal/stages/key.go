package stages

import (
	"crypto/sha256"
	"math"
	"sort"

	"github.com/gogpu/pipec/cache"
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// SourceIdentity returns the digest of the source a module reference
// names.
func SourceIdentity(ref shader.ModuleRef) [32]byte {
	if ref.Module != nil {
		return ref.Module.Digest()
	}
	return sha256.Sum256([]byte(ref.WGSL))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func keyStage(b *cache.KeyBuilder, sd state.StageDescriptor) {
	b.Uint32(uint32(sd.Stage)).Text(sd.EntryPoint).Digest(SourceIdentity(sd.Module))
	keys := sortedKeys(sd.Specialization)
	b.Uint32(uint32(len(keys)))
	for _, k := range keys {
		b.Text(k).Uint64(math.Float64bits(sd.Specialization[k]))
	}
}

func keyOptions(b *cache.KeyBuilder, opts Options) {
	b.Bool(opts.DisableOptimization).Bool(opts.CaptureIR)
}

// GraphicsKey returns the cache key of a graphics pipeline: the stage
// sources, the device fingerprint and every piece of state that changes
// generated code.
func GraphicsKey(p *hw.Profile, desc *state.GraphicsPipelineDescription, pi *info.PipelineInfo, opts Options) cache.Key {
	b := cache.NewKeyBuilder().Text("graphics").Digest(p.Fingerprint())

	sds := append([]state.StageDescriptor(nil), desc.Stages...)
	sort.SliceStable(sds, func(i, j int) bool { return sds[i].Stage < sds[j].Stage })
	b.Uint32(uint32(len(sds)))
	for _, sd := range sds {
		keyStage(b, sd)
	}

	vi := &pi.VertexInput
	b.Uint32(uint32(len(vi.Bindings)))
	for _, vb := range vi.Bindings {
		b.Uint64(vb.Stride).Bool(vb.PerInstance)
	}
	b.Uint32(uint32(len(vi.Attributes)))
	for _, a := range vi.Attributes {
		b.Uint32(a.Location).Uint32(a.Binding).Uint32(uint32(a.Format)).Uint64(a.Offset)
	}

	ia := pi.InputAssembly
	b.Uint32(uint32(ia.Topology)).Bool(ia.Adjacency).Bool(ia.Patch)
	b.Uint32(pi.Tess.PatchControlPoints)

	r := &pi.Raster
	b.Bool(pi.RasterEnabled).Uint32(uint32(r.PolygonMode)).Bool(r.ProvokingVertexLast).Uint32(r.Stream)

	ms := &pi.Multisample
	b.Uint32(ms.Samples).Bool(ms.SampleShading).Uint32(math.Float32bits(ms.MinSampleShading)).Bool(ms.AlphaToCoverage)

	bl := &pi.Blend
	b.Uint32(bl.ColFormat).Uint32(bl.NeedSrcAlpha).Bool(bl.MRT0DualSource)

	rd := &pi.Rendering
	b.Uint32(uint32(len(rd.ColorFormats)))
	for _, f := range rd.ColorFormats {
		b.Uint32(uint32(f))
	}
	b.Uint32(uint32(rd.DepthFormat)).Uint32(uint32(rd.StencilFormat)).Uint32(rd.ViewMask)

	b.Uint64(uint64(pi.Dynamic))
	keyOptions(b, opts)
	return b.Sum()
}

// ComputeKey returns the cache key of a compute pipeline.
func ComputeKey(p *hw.Profile, desc *state.ComputePipelineDescription, opts Options) cache.Key {
	b := cache.NewKeyBuilder().Text("compute").Digest(p.Fingerprint())
	keyStage(b, desc.Stage)
	keyOptions(b, opts)
	return b.Sum()
}

// programKey is the specialization key handed to the backend: the
// lowered modules plus the hardware decisions taken for the program.
func programKey(p *hw.Profile, prog *Program, mode Mode, opts Options) [32]byte {
	b := cache.NewKeyBuilder().Digest(p.Fingerprint())
	b.Uint32(uint32(prog.HW)).Uint32(uint32(prog.Stages)).Bool(prog.CopyShader)
	b.Uint32(prog.WaveSize).Uint32(prog.LDSBytes)
	b.Bool(mode.Culling).Bool(mode.Passthrough)
	for _, m := range prog.Modules {
		b.Digest(m.Digest())
		keyLowering(b, m.ABI)
	}
	if l := prog.Args; l != nil {
		b.Uint32(uint32(len(l.Args)))
		for _, a := range l.Args {
			b.Uint32(uint32(a.Kind)<<24 | uint32(a.Reg)<<16 | uint32(a.Count)<<8).Bool(a.VGPR).Bool(a.User)
		}
	}
	keyOptions(b, opts)
	return b.Sum()
}

func keyLowering(b *cache.KeyBuilder, abi *shader.Lowering) {
	if abi == nil {
		b.Bool(false)
		return
	}
	b.Bool(true)
	b.Uint32(uint32(len(abi.Resources)))
	for _, r := range abi.Resources {
		b.Uint32(r.Set).Uint32(r.Binding).Uint32(uint32(r.Kind)).Uint32(r.Offset).Uint32(r.Stride)
	}
	b.Uint32(uint32(len(abi.VertexFetch)))
	for _, f := range abi.VertexFetch {
		b.Uint32(f.Location).Uint32(f.Binding).Uint64(f.Offset).Uint64(f.Stride)
		b.Uint32(uint32(f.Format)).Bool(f.PerInstance).Uint32(f.Descriptor)
	}
	b.Bool(abi.IOToMemory).Uint32(abi.ESGSItemSize).Uint32(abi.LSHSVertexStride).Uint32(abi.GSVSVertexSize)
	b.Bool(abi.Legalized16).Uint32(uint32(abi.VectorizedIO)).Bool(abi.ExportPrimitiveID)
	keys := sortedKeys(abi.Specialization)
	b.Uint32(uint32(len(keys)))
	for _, k := range keys {
		b.Text(k).Uint64(math.Float64bits(abi.Specialization[k]))
	}
}
