// Package info flattens a pipeline description into the normalized
// record read by every later compilation phase.
package info

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// VertexAttribute is one fetched vertex attribute.
type VertexAttribute struct {
	Location uint32
	Binding  uint32
	Format   gputypes.VertexFormat
	Offset   uint64
}

// VertexBinding is one vertex buffer binding.
type VertexBinding struct {
	Stride      uint64
	PerInstance bool
}

// VertexInputInfo is the normalized vertex-fetch layout, attributes
// sorted by location.
type VertexInputInfo struct {
	Bindings   []VertexBinding
	Attributes []VertexAttribute
}

// Attribute returns the attribute bound to location, if any.
func (v *VertexInputInfo) Attribute(location uint32) (VertexAttribute, bool) {
	for _, a := range v.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// InputAssemblyInfo is the primitive assembly state.
type InputAssemblyInfo struct {
	Topology         gputypes.PrimitiveTopology
	Adjacency        bool
	PrimitiveRestart bool
	// Patch is set when tessellation consumes patch lists.
	Patch bool
}

// PrimType returns the VGT primitive type.
func (ia InputAssemblyInfo) PrimType() uint32 {
	if ia.Patch {
		return translate.PrimPatch
	}
	return translate.PrimType(ia.Topology, ia.Adjacency)
}

// TessInfo is the tessellator state.
type TessInfo struct {
	PatchControlPoints    uint32
	DomainOriginUpperLeft bool
}

// ViewportInfo holds viewport and scissor counts.
type ViewportInfo struct {
	ViewportCount    uint32
	ScissorCount     uint32
	NegativeOneToOne bool
}

// RasterInfo is the rasterizer state.
type RasterInfo struct {
	DiscardEnable       bool
	PolygonMode         state.PolygonMode
	CullMode            gputypes.CullMode
	FrontFace           gputypes.FrontFace
	DepthClampEnable    bool
	DepthClipEnable     bool
	DepthBiasEnable     bool
	DepthBiasConstant   float32
	DepthBiasSlope      float32
	DepthBiasClamp      float32
	LineWidth           float32
	LineRasterMode      state.LineRasterMode
	LineStipple         bool
	Conservative        state.ConservativeMode
	ProvokingVertexLast bool
	Stream              uint32
}

// DiscardRectangleInfo is the discard rectangle state.
type DiscardRectangleInfo struct {
	Mode  state.DiscardRectangleMode
	Count uint32
}

// MultisampleInfo is the multisample state.
type MultisampleInfo struct {
	Samples          uint32
	SampleShading    bool
	MinSampleShading float32
	SampleMask       uint32
	AlphaToCoverage  bool
	AlphaToOne       bool
}

// PSIterSamples returns how many samples each fragment invocation shades.
func (ms MultisampleInfo) PSIterSamples() uint32 {
	if !ms.SampleShading || ms.Samples <= 1 {
		return 1
	}
	n := uint32(float32(ms.Samples)*ms.MinSampleShading + 0.999)
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return min(p, ms.Samples)
}

// DepthStencilInfo is the depth and stencil test state.
type DepthStencilInfo struct {
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

// DepthWriteEnabled reports whether depth values are written.
func (ds *DepthStencilInfo) DepthWriteEnabled() bool {
	return ds.DepthTest && ds.DepthWrite
}

// StencilWriteEnabled reports whether any stencil op can write.
func (ds *DepthStencilInfo) StencilWriteEnabled() bool {
	if !ds.StencilTest || ds.StencilWriteMask == 0 {
		return false
	}
	writes := func(f gputypes.StencilFaceState) bool {
		return f.FailOp != gputypes.StencilOperationKeep ||
			f.PassOp != gputypes.StencilOperationKeep ||
			f.DepthFailOp != gputypes.StencilOperationKeep
	}
	return writes(ds.Front) || writes(ds.Back)
}

// ColorBlendInfo is the color blend state with write enables folded
// into each attachment's write mask.
type ColorBlendInfo struct {
	LogicOpEnable bool
	LogicOp       state.LogicOp
	Attachments   []state.ColorAttachmentBlend
	Constants     [4]float32
}

// FragmentShadingRateInfo is the pipeline shading rate.
type FragmentShadingRateInfo struct {
	Width, Height uint32
	Combiners     [2]state.ShadingRateCombiner
}

// RenderingInfo lists the attachment formats.
type RenderingInfo struct {
	ColorFormats  []gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	StencilFormat gputypes.TextureFormat
	ViewMask      uint32
}

// PipelineInfo is the normalized pipeline description. Every field
// holds a concrete value; a field deferred to draw time keeps its zero
// or placeholder value and its bit is set in Dynamic.
type PipelineInfo struct {
	Stages  shader.StageMask
	Dynamic state.DynamicState

	VertexInput         VertexInputInfo
	InputAssembly       InputAssemblyInfo
	Tess                TessInfo
	Viewport            ViewportInfo
	Raster              RasterInfo
	DiscardRectangles   DiscardRectangleInfo
	Multisample         MultisampleInfo
	DepthStencil        DepthStencilInfo
	ColorBlend          ColorBlendInfo
	FragmentShadingRate FragmentShadingRateInfo
	Rendering           RenderingInfo

	RasterEnabled              bool
	HasColorAttachments        bool
	HasDepthStencilAttachments bool
	VRSEnabled                 bool
	// BlendEnabled has one bit per attachment.
	BlendEnabled uint32

	Blend translate.BlendState
}

// IsMesh reports a mesh pipeline.
func (pi *PipelineInfo) IsMesh() bool { return pi.Stages.Has(shader.StageMesh) }

// HasTess reports whether tessellation stages are present.
func (pi *PipelineInfo) HasTess() bool { return pi.Stages.Has(shader.StageTessControl) }

// HasGS reports whether a geometry stage is present.
func (pi *PipelineInfo) HasGS() bool { return pi.Stages.Has(shader.StageGeometry) }
