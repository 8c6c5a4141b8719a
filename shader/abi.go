package shader

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// ArgKind is a logical input delivered to a hardware program in registers.
type ArgKind uint8

// Argument kinds. SGPR arguments come first in a layout, then VGPRs.
const (
	ArgRingOffsets ArgKind = iota
	ArgScratchOffset
	ArgMergedWaveInfo
	ArgTGSize
	ArgDescriptorSets
	ArgPushConstants
	ArgVertexBuffers
	ArgBaseVertex
	ArgDrawID
	ArgStartInstance
	ArgViewIndex
	ArgStreamoutBuffers
	ArgStreamoutConfig
	ArgNGGCullSettings
	ArgNGGViewport
	ArgNGGProvokingVertex
	ArgTCSOffchipLayout
	ArgTESNumPatches
	ArgGSVSRingStride
	ArgGridSize
	ArgTaskRingEntry
	ArgWorkgroupID

	ArgVertexID
	ArgInstanceID
	ArgVSPrimitiveID
	ArgRelPatchID
	ArgPatchID
	ArgTessCoord
	ArgGSVertexOffsets
	ArgGSPrimitiveID
	ArgGSInvocationID
	ArgPosition
	ArgFrontFace
	ArgSampleCoverage
	ArgBarycentrics
	ArgLocalInvocationID
)

var argKindNames = [...]string{
	"ring_offsets", "scratch_offset", "merged_wave_info", "tg_size",
	"descriptor_sets", "push_constants", "vertex_buffers", "base_vertex",
	"draw_id", "start_instance", "view_index", "streamout_buffers",
	"streamout_config", "ngg_cull_settings", "ngg_viewport",
	"ngg_provoking_vtx", "tcs_offchip_layout", "tes_num_patches",
	"gsvs_ring_stride", "grid_size", "task_ring_entry", "workgroup_id",
	"vertex_id", "instance_id", "vs_prim_id", "rel_patch_id", "patch_id",
	"tess_coord", "gs_vtx_offsets", "gs_prim_id", "gs_invocation_id",
	"position", "front_face", "sample_coverage", "barycentrics",
	"local_invocation_id",
}

// String returns the argument name.
func (k ArgKind) String() string {
	if int(k) < len(argKindNames) {
		return argKindNames[k]
	}
	return fmt.Sprintf("ArgKind(%d)", uint8(k))
}

// Arg places one argument in registers.
type Arg struct {
	Kind  ArgKind
	Reg   uint8 // first register
	Count uint8 // registers used
	VGPR  bool
	// User marks SGPRs loaded from USER_DATA registers by the draw path.
	User bool
}

// ArgLayout is the register assignment of a hardware program's inputs.
// Merged logical stages share one layout.
type ArgLayout struct {
	Args         []Arg
	NumUserSGPRs uint8
	NumSGPRs     uint8
	NumVGPRs     uint8
}

// Add appends an argument and returns its register index.
func (l *ArgLayout) Add(kind ArgKind, count uint8, vgpr, user bool) uint8 {
	a := Arg{Kind: kind, Count: count, VGPR: vgpr, User: user}
	if vgpr {
		a.Reg = l.NumVGPRs
		l.NumVGPRs += count
	} else {
		a.Reg = l.NumSGPRs
		l.NumSGPRs += count
		if user {
			l.NumUserSGPRs += count
		}
	}
	l.Args = append(l.Args, a)
	return a.Reg
}

// Find returns the argument of the given kind.
func (l *ArgLayout) Find(kind ArgKind) (Arg, bool) {
	if l == nil {
		return Arg{}, false
	}
	for _, a := range l.Args {
		if a.Kind == kind {
			return a, true
		}
	}
	return Arg{}, false
}

// ResourceSlot maps a (set, binding) resource to its descriptor location
// after resource-index lowering.
type ResourceSlot struct {
	Set     uint32
	Binding uint32
	Kind    ResourceKind
	// Offset is the byte offset of the descriptor within its set.
	Offset uint32
	// Stride is the descriptor size in bytes.
	Stride uint32
}

// VertexFetch describes one lowered vertex attribute load.
type VertexFetch struct {
	Location    uint32
	Binding     uint32
	Offset      uint64
	Stride      uint64
	Format      gputypes.VertexFormat
	PerInstance bool
	// Descriptor is the vertex-buffer descriptor index the load uses.
	Descriptor uint32
}

// Lowering records the hardware-ABI decisions applied to a module before
// backend compilation.
type Lowering struct {
	Resources   []ResourceSlot
	VertexFetch []VertexFetch

	// IOToMemory is set when outputs go to LDS or rings instead of
	// parameter exports (merged and NGG stages).
	IOToMemory bool
	// ESGSItemSize is the per-vertex ES->GS stride in bytes.
	ESGSItemSize uint32
	// LSHSVertexStride is the per-vertex LS->HS stride in bytes.
	LSHSVertexStride uint32
	// GSVSVertexSize is the per-vertex GS->VS ring size in bytes.
	GSVSVertexSize uint32
	// Legalized16 is set when 16-bit I/O was widened to 32 bits.
	Legalized16 bool
	// VectorizedIO counts I/O slots whose components were merged into
	// one wider access.
	VectorizedIO int
	// ExportPrimitiveID is set when the stage writes an implicit
	// primitive ID for the fragment stage.
	ExportPrimitiveID bool
	// Specialization holds the override values applied to the IR.
	Specialization map[string]float64
}
