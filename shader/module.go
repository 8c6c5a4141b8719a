package shader

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"

	"github.com/gogpu/naga/ir"
)

// Builtin identifies a system value read or written by a stage.
type Builtin uint8

// Builtins tracked by linking and execution-mode selection.
const (
	BuiltinNone Builtin = iota
	BuiltinPosition
	BuiltinPointSize
	BuiltinClipDistance
	BuiltinCullDistance
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinPrimitiveID
	BuiltinViewportIndex
	BuiltinLayer
	BuiltinViewIndex
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinFragStencilRef
	BuiltinSampleIndex
	BuiltinSampleMask
	BuiltinPrimitiveShadingRate
	BuiltinTessLevelOuter
	BuiltinTessLevelInner
	BuiltinTessCoord
	BuiltinInvocationID
	BuiltinLocalInvocationID
	BuiltinGlobalInvocationID
	BuiltinWorkgroupID
	BuiltinNumWorkgroups
)

// BuiltinMask is a set of builtins.
type BuiltinMask uint32

// Has reports whether b is in the mask.
func (m BuiltinMask) Has(b Builtin) bool { return m&(1<<b) != 0 }

// With returns the mask with b added.
func (m BuiltinMask) With(b Builtin) BuiltinMask { return m | 1<<b }

// Interpolation is the interpolation qualifier of a fragment input.
type Interpolation uint8

// Interpolation modes.
const (
	InterpSmooth Interpolation = iota
	InterpFlat
	InterpNoPerspective
)

// Variable is one shader input or output.
type Variable struct {
	Name     string
	Location uint32 // user location; ignored for builtins
	// Component is the first component within the location (0..3).
	Component uint8
	// Components is the number of 32-bit components (1..4).
	Components uint8
	// ArrayLen is the element count of an array variable; 0 for non-arrays.
	ArrayLen uint32
	Builtin  Builtin
	Interp   Interpolation
	// PerPrimitive marks mesh per-primitive outputs and matching inputs.
	PerPrimitive bool
	// Patch marks tessellation per-patch variables.
	Patch bool
	// HighPrecision16 marks 16-bit variables that may need legalization.
	HighPrecision16 bool
	// Slot is the compact location assigned by linking.
	Slot uint32
}

// IsBuiltin reports whether the variable is a system value.
func (v Variable) IsBuiltin() bool { return v.Builtin != BuiltinNone }

// ComponentMask returns the component mask the variable covers within its
// location.
func (v Variable) ComponentMask() uint8 {
	n := v.Components
	if n == 0 {
		n = 4
	}
	return uint8((1<<n)-1) << v.Component
}

// ResourceKind classifies a resource binding.
type ResourceKind uint8

// Resource kinds.
const (
	ResourceUniformBuffer ResourceKind = iota
	ResourceStorageBuffer
	ResourceSampledImage
	ResourceSampler
	ResourceStorageImage
	ResourceInlineUniform
)

// Resource is a (set, binding) resource referenced by a stage.
type Resource struct {
	Set     uint32
	Binding uint32
	Kind    ResourceKind
	Count   uint32
	Written bool
}

// TessPrimitive is the tessellation domain.
type TessPrimitive uint8

// Tessellation domains.
const (
	TessTriangles TessPrimitive = iota
	TessQuads
	TessIsolines
)

// TessSpacing is the tessellation spacing mode.
type TessSpacing uint8

// Tessellation spacings.
const (
	SpacingEqual TessSpacing = iota
	SpacingFractionalOdd
	SpacingFractionalEven
)

// TessInfo is tessellation metadata carried by TCS and TES modules.
type TessInfo struct {
	OutputVertices uint32 // TCS output patch size
	Primitive      TessPrimitive
	Spacing        TessSpacing
	CCW            bool
	PointMode      bool
}

// GSPrimitive is a geometry-stage input or output primitive.
type GSPrimitive uint8

// Geometry primitives.
const (
	GSPoints GSPrimitive = iota
	GSLines
	GSLinesAdjacency
	GSTriangles
	GSTrianglesAdjacency
	GSLineStrip
	GSTriangleStrip
)

// VerticesPerPrimitive returns the vertex count of one primitive.
func (p GSPrimitive) VerticesPerPrimitive() uint32 {
	switch p {
	case GSPoints:
		return 1
	case GSLines, GSLineStrip:
		return 2
	case GSLinesAdjacency:
		return 4
	case GSTriangles, GSTriangleStrip:
		return 3
	case GSTrianglesAdjacency:
		return 6
	default:
		return 3
	}
}

// HasAdjacency reports whether the primitive carries adjacency vertices.
func (p GSPrimitive) HasAdjacency() bool {
	return p == GSLinesAdjacency || p == GSTrianglesAdjacency
}

// GeometryInfo is geometry-stage metadata.
type GeometryInfo struct {
	Input       GSPrimitive
	Output      GSPrimitive
	VerticesOut uint32
	Invocations uint32
	// StreamMask lists the vertex streams written (bit per stream).
	StreamMask uint8
}

// MeshInfo is mesh-stage metadata.
type MeshInfo struct {
	MaxVertices   uint32
	MaxPrimitives uint32
	Output        GSPrimitive
}

// FragmentInfo is fragment-stage metadata.
type FragmentInfo struct {
	EarlyFragmentTests bool
	Discards           bool
	WritesDepth        bool
	WritesStencil      bool
	WritesSampleMask   bool
	// ColorsWritten has a bit per color output location.
	ColorsWritten uint8
	// DualSource marks @blend_src(1) outputs at location 0.
	DualSource bool
	// SampleShading forces per-sample execution.
	SampleShading bool
}

// XFBOutput is one captured transform-feedback output.
type XFBOutput struct {
	Location   uint32
	Builtin    Builtin
	Components uint8
	Buffer     uint8
	Offset     uint32
	Stream     uint8
}

// TransformFeedback describes captured outputs of a pre-rasterization stage.
type TransformFeedback struct {
	Outputs []XFBOutput
	Strides [4]uint32
}

// BufferMask returns the set of buffers written.
func (x *TransformFeedback) BufferMask() uint8 {
	if x == nil {
		return 0
	}
	var m uint8
	for _, o := range x.Outputs {
		m |= 1 << o.Buffer
	}
	return m
}

// Module is the driver-side IR handle for one stage entry point. It
// records everything the pipeline compiler reasons about. When the module
// came from WGSL the parsed naga IR is kept in IR for the backend.
type Module struct {
	Stage      Stage
	EntryPoint string
	// Identity is the digest of the source the module was built from.
	Identity [32]byte

	Inputs  []Variable
	Outputs []Variable

	BuiltinsRead    BuiltinMask
	BuiltinsWritten BuiltinMask

	Resources         []Resource
	PushConstantBytes uint32
	Workgroup         [3]uint32
	// UsesSubgroupOps selects the wave size the stage was written for.
	UsesSubgroupOps bool
	// ScratchBytes is private memory per invocation (spilled arrays).
	ScratchBytes uint32
	// SharedBytes is workgroup shared memory.
	SharedBytes uint32

	Tess     TessInfo
	Geometry GeometryInfo
	Mesh     MeshInfo
	Fragment FragmentInfo
	XFB      *TransformFeedback

	// Overrides maps pipeline-overridable constants to their values. NaN
	// keeps the declared default.
	Overrides map[string]float64

	IR *ir.Module
	// ABI is set by lowering.
	ABI *Lowering
}

// Clone returns a deep copy of the module's driver-side data. The naga IR
// is shared; lowering clones it before mutating.
func (m *Module) Clone() *Module {
	c := *m
	c.Inputs = append([]Variable(nil), m.Inputs...)
	c.Outputs = append([]Variable(nil), m.Outputs...)
	c.Resources = append([]Resource(nil), m.Resources...)
	if m.XFB != nil {
		x := *m.XFB
		x.Outputs = append([]XFBOutput(nil), m.XFB.Outputs...)
		c.XFB = &x
	}
	if m.Overrides != nil {
		c.Overrides = make(map[string]float64, len(m.Overrides))
		for k, v := range m.Overrides {
			c.Overrides[k] = v
		}
	}
	return &c
}

// Writes reports whether the module writes builtin b.
func (m *Module) Writes(b Builtin) bool { return m.BuiltinsWritten.Has(b) }

// Reads reports whether the module reads builtin b.
func (m *Module) Reads(b Builtin) bool { return m.BuiltinsRead.Has(b) }

// InvocationCount returns the workgroup size product, at least 1.
func (m *Module) InvocationCount() uint32 {
	n := uint32(1)
	for _, d := range m.Workgroup {
		if d > 0 {
			n *= d
		}
	}
	return n
}

// Digest returns a stable digest of the module's driver-side content. Two
// modules with equal digests compile to identical code.
func (m *Module) Digest() [32]byte {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	_, _ = h.Write(m.Identity[:])
	_, _ = h.Write([]byte(m.EntryPoint))
	put(uint64(m.Stage))
	for _, list := range [][]Variable{m.Inputs, m.Outputs} {
		put(uint64(len(list)))
		for _, v := range list {
			put(uint64(v.Location)<<32 | uint64(v.Component)<<24 | uint64(v.Components)<<16 | uint64(v.Builtin)<<8 | uint64(v.Interp))
			put(uint64(v.ArrayLen)<<32 | uint64(v.Slot))
			var flags uint64
			if v.PerPrimitive {
				flags |= 1
			}
			if v.Patch {
				flags |= 2
			}
			if v.HighPrecision16 {
				flags |= 4
			}
			put(flags)
		}
	}
	put(uint64(m.BuiltinsRead)<<32 | uint64(m.BuiltinsWritten))
	put(uint64(len(m.Resources)))
	for _, r := range m.Resources {
		put(uint64(r.Set)<<32 | uint64(r.Binding))
		put(uint64(r.Kind)<<32 | uint64(r.Count))
	}
	put(uint64(m.PushConstantBytes))
	put(uint64(m.Workgroup[0])<<32 | uint64(m.Workgroup[1]))
	put(uint64(m.Workgroup[2]))
	put(uint64(m.ScratchBytes)<<32 | uint64(m.SharedBytes))
	put(uint64(m.Tess.OutputVertices)<<16 | uint64(m.Tess.Primitive)<<8 | uint64(m.Tess.Spacing))
	put(uint64(m.Geometry.VerticesOut)<<32 | uint64(m.Geometry.Invocations))
	put(uint64(m.Geometry.Input)<<16 | uint64(m.Geometry.Output)<<8 | uint64(m.Geometry.StreamMask))
	put(uint64(m.Mesh.MaxVertices)<<32 | uint64(m.Mesh.MaxPrimitives))
	put(uint64(m.Fragment.ColorsWritten)<<8 | uint64(m.fragmentFlags()))
	if m.XFB != nil {
		for _, o := range m.XFB.Outputs {
			put(uint64(o.Location)<<32 | uint64(o.Buffer)<<16 | uint64(o.Components)<<8 | uint64(o.Stream))
			put(uint64(o.Offset))
		}
		for _, s := range m.XFB.Strides {
			put(uint64(s))
		}
	}
	keys := make([]string, 0, len(m.Overrides))
	for k := range m.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		put(math.Float64bits(m.Overrides[k]))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (m *Module) fragmentFlags() uint8 {
	var f uint8
	for i, b := range []bool{
		m.Fragment.EarlyFragmentTests, m.Fragment.Discards, m.Fragment.WritesDepth,
		m.Fragment.WritesStencil, m.Fragment.WritesSampleMask, m.Fragment.DualSource,
		m.Fragment.SampleShading, m.UsesSubgroupOps,
	} {
		if b {
			f |= 1 << i
		}
	}
	return f
}

// ModuleRef names the source of a stage. Exactly one of WGSL or Module is
// set. Module is used for stages the WGSL front end cannot express
// (tessellation, geometry) and for pre-ingested IR.
type ModuleRef struct {
	Name   string
	WGSL   string
	Module *Module
}
