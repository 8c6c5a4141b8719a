package state

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/shader"
)

// StageDescriptor binds a shader module to a logical stage.
type StageDescriptor struct {
	Stage      shader.Stage
	Module     shader.ModuleRef
	EntryPoint string
	// Specialization maps override names to values.
	Specialization map[string]float64
}

// VertexInputState is the vertex-fetch layout.
type VertexInputState struct {
	Buffers []gputypes.VertexBufferLayout
}

// InputAssemblyState selects the primitive topology. Patch lists are
// implied by tessellation stages.
type InputAssemblyState struct {
	Topology         gputypes.PrimitiveTopology
	Adjacency        bool
	PrimitiveRestart bool
}

// TessellationState configures the fixed-function tessellator.
type TessellationState struct {
	PatchControlPoints    uint32
	DomainOriginUpperLeft bool
}

// ViewportState describes viewport and scissor counts.
type ViewportState struct {
	ViewportCount uint32
	ScissorCount  uint32
	// NegativeOneToOne selects the [-1, 1] clip-space depth range.
	NegativeOneToOne bool
}

// RasterizationState is the rasterizer configuration.
type RasterizationState struct {
	DiscardEnable    bool
	PolygonMode      PolygonMode
	CullMode         gputypes.CullMode
	FrontFace        gputypes.FrontFace
	DepthClampEnable bool
	// DepthClipEnable is nil to follow !DepthClampEnable.
	DepthClipEnable     *bool
	DepthBiasEnable     bool
	DepthBiasConstant   float32
	DepthBiasSlope      float32
	DepthBiasClamp      float32
	LineWidth           float32
	LineRasterMode      LineRasterMode
	LineStipple         bool
	Conservative        ConservativeMode
	ProvokingVertexLast bool
	// Stream selects the vertex stream rasterized by a geometry stage.
	Stream uint32
}

// DiscardRectangleState enables discard rectangles.
type DiscardRectangleState struct {
	Mode  DiscardRectangleMode
	Count uint32
}

// MultisampleState is the multisample configuration.
type MultisampleState struct {
	Samples          uint32
	SampleShading    bool
	MinSampleShading float32
	// SampleMask is nil for all samples enabled.
	SampleMask      *uint32
	AlphaToCoverage bool
	AlphaToOne      bool
}

// DepthStencilState is the depth and stencil test configuration.
type DepthStencilState struct {
	DepthTest        bool
	DepthWrite       bool
	DepthCompare     gputypes.CompareFunction
	DepthBoundsTest  bool
	MinDepthBounds   float32
	MaxDepthBounds   float32
	StencilTest      bool
	Front            gputypes.StencilFaceState
	Back             gputypes.StencilFaceState
	StencilReadMask  uint32
	StencilWriteMask uint32
	StencilReference uint32
}

// ColorAttachmentBlend is the blend configuration of one attachment.
type ColorAttachmentBlend struct {
	BlendEnable bool
	Color       gputypes.BlendComponent
	Alpha       gputypes.BlendComponent
	WriteMask   gputypes.ColorWriteMask
}

// ColorBlendState is the color blend configuration.
type ColorBlendState struct {
	LogicOpEnable bool
	LogicOp       LogicOp
	Attachments   []ColorAttachmentBlend
	Constants     [4]float32
	// ColorWriteEnable is nil for all attachments enabled; otherwise one
	// bit per attachment.
	ColorWriteEnable *uint32
}

// FragmentShadingRateState configures variable-rate shading.
type FragmentShadingRateState struct {
	Width, Height uint32
	Combiners     [2]ShadingRateCombiner
}

// RenderingState lists the attachment formats.
type RenderingState struct {
	ColorFormats  []gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	StencilFormat gputypes.TextureFormat
	ViewMask      uint32
}

// GraphicsPipelineDescription is the full declarative description of a
// graphics pipeline. Optional blocks are nil when absent.
type GraphicsPipelineDescription struct {
	Label  string
	Stages []StageDescriptor

	VertexInput         *VertexInputState
	InputAssembly       InputAssemblyState
	Tessellation        *TessellationState
	Viewport            *ViewportState
	Rasterization       RasterizationState
	DiscardRectangles   *DiscardRectangleState
	Multisample         *MultisampleState
	DepthStencil        *DepthStencilState
	ColorBlend          *ColorBlendState
	FragmentShadingRate *FragmentShadingRateState
	Rendering           RenderingState

	Dynamic DynamicState
}

// StageMask returns the stages present in the description.
func (d *GraphicsPipelineDescription) StageMask() shader.StageMask {
	var m shader.StageMask
	for _, s := range d.Stages {
		m |= s.Stage.Mask()
	}
	return m
}

// Stage returns the descriptor for s, if present.
func (d *GraphicsPipelineDescription) Stage(s shader.Stage) (StageDescriptor, bool) {
	for _, sd := range d.Stages {
		if sd.Stage == s {
			return sd, true
		}
	}
	return StageDescriptor{}, false
}

// ComputePipelineDescription describes a compute pipeline.
type ComputePipelineDescription struct {
	Label string
	Stage StageDescriptor
}
