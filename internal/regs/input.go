package regs

import (
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
)

// Program is one uploaded hardware program.
type Program struct {
	HW     shader.HWStage
	Stages shader.StageMask
	// VA is the GPU virtual address of the program's first instruction.
	VA     uint64
	Config shader.Config
	// Merged is set for GFX9+ LS+HS and ES+GS programs.
	Merged bool
}

// VSOutput describes the exports of the last pre-rasterization program.
type VSOutput struct {
	NumParams         uint32
	NumPrimParams     uint32
	ClipDistMask      uint8
	CullDistMask      uint8
	WritesPointSize   bool
	WritesLayer       bool
	WritesViewport    bool
	WritesShadingRate bool
	ExportPrimitiveID bool
}

// DefaultInputOffset marks a fragment input no earlier stage writes.
const DefaultInputOffset = 0x20

// PSInput is one SPI_PS_INPUT_CNTL slot.
type PSInput struct {
	// Offset is the parameter slot exported by the previous stage, or
	// DefaultInputOffset.
	Offset       uint32
	Flat         bool
	PerPrimitive bool
	// Default is the constant (0: 0000, 1: 0001, 2: 1110, 3: 1111) used
	// when Offset is DefaultInputOffset.
	Default uint8
}

// PSConfig is the resolved fragment program state.
type PSConfig struct {
	InputEna  uint32
	InputAddr uint32
	NumInterp uint32
	Inputs    []PSInput

	WritesZ          bool
	WritesStencil    bool
	WritesSampleMask bool
	Kill             bool
	EarlyTests       bool
	WritesMemory     bool
	SampleShading    bool
	// ReadsFrontFace selects all front-face bits in SPI_BARYC_CNTL.
	ReadsFrontFace bool
}

// GeometryConfig is the resolved geometry stage state, legacy or NGG.
type GeometryConfig struct {
	MaxVertOut  uint32
	Invocations uint32
	// VertexSize is the GS output size of one vertex in dwords, per stream.
	VertexSize [4]uint32
}

// TessConfig is the resolved tessellator state.
type TessConfig struct {
	Domain         shader.TessPrimitive
	Spacing        shader.TessSpacing
	CCW            bool
	PointMode      bool
	InputVertices  uint32
	OutputVertices uint32
	Budget         budget.TessInfo
}

// GraphicsInput is everything the emitter packs for a graphics pipeline.
type GraphicsInput struct {
	Info     *info.PipelineInfo
	Programs []Program
	VS       VSOutput
	PS       PSConfig

	// NGG is set when the last pre-rasterization stage runs as a
	// primitive shader.
	NGG            *budget.NGGInfo
	NGGPassthrough bool
	// GS is set for the legacy geometry path.
	GS       *budget.GSInfo
	Geometry *GeometryConfig
	Tess     *TessConfig
	// CopyShader is set when a GS copy shader feeds the rasterizer.
	CopyShader bool
	// OutPrim is the VGT_GS_OUT_PRIM_TYPE of the geometry front end.
	OutPrim uint32

	OutOfOrder bool
	BinSize    budget.Extent
}

// ComputeInput is everything the emitter packs for a compute pipeline.
type ComputeInput struct {
	Program   Program
	Workgroup [3]uint32
}
