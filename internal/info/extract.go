package info

import (
	"sort"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Placeholders written into fields whose value arrives at draw time.
const (
	defaultSampleMask = 0xFFFF
	defaultLineWidth  = 1.0
)

// Extract builds the PipelineInfo for desc. The description must already
// be validated; Extract never fails.
func Extract(desc *state.GraphicsPipelineDescription, p *hw.Profile) *PipelineInfo {
	pi := &PipelineInfo{
		Stages:  desc.StageMask(),
		Dynamic: desc.Dynamic,
	}
	dyn := desc.Dynamic

	pi.Rendering = RenderingInfo{
		ColorFormats:  append([]gputypes.TextureFormat(nil), desc.Rendering.ColorFormats...),
		DepthFormat:   desc.Rendering.DepthFormat,
		StencilFormat: desc.Rendering.StencilFormat,
		ViewMask:      desc.Rendering.ViewMask,
	}
	for _, f := range pi.Rendering.ColorFormats {
		if f != gputypes.TextureFormatUndefined {
			pi.HasColorAttachments = true
			break
		}
	}
	pi.HasDepthStencilAttachments = pi.Rendering.DepthFormat != gputypes.TextureFormatUndefined ||
		pi.Rendering.StencilFormat != gputypes.TextureFormatUndefined

	if !pi.IsMesh() {
		pi.extractVertexInput(desc)
		pi.extractInputAssembly(desc)
	}
	if pi.HasTess() && desc.Tessellation != nil {
		pi.Tess.PatchControlPoints = desc.Tessellation.PatchControlPoints
		if dyn.Has(state.DynamicPatchControlPoints) {
			pi.Tess.PatchControlPoints = 0
		}
		if !dyn.Has(state.DynamicTessDomainOrigin) {
			pi.Tess.DomainOriginUpperLeft = desc.Tessellation.DomainOriginUpperLeft
		}
	}

	pi.extractRaster(desc)
	// A dynamic discard enable may turn rasterization on at draw time.
	pi.RasterEnabled = !pi.Raster.DiscardEnable || dyn.Has(state.DynamicRasterizerDiscardEnable)

	if pi.RasterEnabled {
		if desc.Viewport != nil {
			pi.Viewport = ViewportInfo{
				ViewportCount:    desc.Viewport.ViewportCount,
				ScissorCount:     desc.Viewport.ScissorCount,
				NegativeOneToOne: desc.Viewport.NegativeOneToOne,
			}
		}
		if desc.DiscardRectangles != nil {
			pi.DiscardRectangles = DiscardRectangleInfo{
				Mode:  desc.DiscardRectangles.Mode,
				Count: desc.DiscardRectangles.Count,
			}
		}
		pi.extractMultisample(desc)
		if pi.HasDepthStencilAttachments && desc.DepthStencil != nil {
			pi.extractDepthStencil(desc)
		}
		if desc.ColorBlend != nil {
			pi.extractColorBlend(desc)
		}
	} else {
		pi.Multisample = MultisampleInfo{Samples: 1, SampleMask: defaultSampleMask}
	}

	pi.extractShadingRate(desc, p)

	for i, att := range pi.ColorBlend.Attachments {
		if att.BlendEnable && i < translate.MaxRTs {
			pi.BlendEnabled |= 1 << i
		}
	}
	pi.Blend = translate.ReduceBlend(&translate.BlendParams{
		Attachments:     pi.ColorBlend.Attachments,
		Formats:         pi.Rendering.ColorFormats,
		LogicOpEnable:   pi.ColorBlend.LogicOpEnable,
		LogicOp:         pi.ColorBlend.LogicOp,
		AlphaToCoverage: pi.Multisample.AlphaToCoverage,
		RBPlus:          p.Caps.RBPlus,
		GFX11:           p.Caps.GFX11BlendFactors,
	})
	return pi
}

func (pi *PipelineInfo) extractVertexInput(desc *state.GraphicsPipelineDescription) {
	if desc.VertexInput == nil || desc.Dynamic.Has(state.DynamicVertexInput) {
		return
	}
	for i, b := range desc.VertexInput.Buffers {
		pi.VertexInput.Bindings = append(pi.VertexInput.Bindings, VertexBinding{
			Stride:      b.ArrayStride,
			PerInstance: b.StepMode == gputypes.VertexStepModeInstance,
		})
		for _, a := range b.Attributes {
			pi.VertexInput.Attributes = append(pi.VertexInput.Attributes, VertexAttribute{
				Location: a.ShaderLocation,
				Binding:  uint32(i),
				Format:   a.Format,
				Offset:   a.Offset,
			})
		}
	}
	sort.Slice(pi.VertexInput.Attributes, func(i, j int) bool {
		return pi.VertexInput.Attributes[i].Location < pi.VertexInput.Attributes[j].Location
	})
}

func (pi *PipelineInfo) extractInputAssembly(desc *state.GraphicsPipelineDescription) {
	ia := desc.InputAssembly
	pi.InputAssembly = InputAssemblyInfo{
		Topology:  ia.Topology,
		Adjacency: ia.Adjacency,
		Patch:     pi.HasTess(),
	}
	if desc.Dynamic.Has(state.DynamicPrimitiveTopology) {
		pi.InputAssembly.Topology = gputypes.PrimitiveTopologyTriangleList
		pi.InputAssembly.Adjacency = false
	}
	if !desc.Dynamic.Has(state.DynamicPrimitiveRestartEnable) {
		pi.InputAssembly.PrimitiveRestart = ia.PrimitiveRestart
	}
}

func (pi *PipelineInfo) extractRaster(desc *state.GraphicsPipelineDescription) {
	rs := desc.Rasterization
	dyn := desc.Dynamic
	r := RasterInfo{
		LineWidth: defaultLineWidth,
		Stream:    rs.Stream,
	}
	if !dyn.Has(state.DynamicRasterizerDiscardEnable) {
		r.DiscardEnable = rs.DiscardEnable
	}
	if !dyn.Has(state.DynamicPolygonMode) {
		r.PolygonMode = rs.PolygonMode
	}
	if !dyn.Has(state.DynamicCullMode) {
		r.CullMode = rs.CullMode
	}
	if !dyn.Has(state.DynamicFrontFace) {
		r.FrontFace = rs.FrontFace
	}
	if !dyn.Has(state.DynamicDepthClampEnable) {
		r.DepthClampEnable = rs.DepthClampEnable
	}
	if !dyn.Has(state.DynamicDepthClipEnable) {
		r.DepthClipEnable = !r.DepthClampEnable
		if rs.DepthClipEnable != nil {
			r.DepthClipEnable = *rs.DepthClipEnable
		}
	}
	if !dyn.Has(state.DynamicDepthBiasEnable) {
		r.DepthBiasEnable = rs.DepthBiasEnable
	}
	if !dyn.Has(state.DynamicDepthBias) {
		r.DepthBiasConstant = rs.DepthBiasConstant
		r.DepthBiasSlope = rs.DepthBiasSlope
		r.DepthBiasClamp = rs.DepthBiasClamp
	}
	if !dyn.Has(state.DynamicLineWidth) && rs.LineWidth > 0 {
		r.LineWidth = rs.LineWidth
	}
	if !dyn.Has(state.DynamicLineRasterizationMode) {
		r.LineRasterMode = rs.LineRasterMode
	}
	if !dyn.Has(state.DynamicLineStipple) {
		r.LineStipple = rs.LineStipple
	}
	if !dyn.Has(state.DynamicConservativeRasterMode) {
		r.Conservative = rs.Conservative
	}
	if !dyn.Has(state.DynamicProvokingVertexMode) {
		r.ProvokingVertexLast = rs.ProvokingVertexLast
	}
	pi.Raster = r
}

func (pi *PipelineInfo) extractMultisample(desc *state.GraphicsPipelineDescription) {
	ms := MultisampleInfo{Samples: 1, SampleMask: defaultSampleMask}
	if m := desc.Multisample; m != nil {
		dyn := desc.Dynamic
		if m.Samples > 0 && !dyn.Has(state.DynamicRasterizationSamples) {
			ms.Samples = m.Samples
		}
		ms.SampleShading = m.SampleShading
		ms.MinSampleShading = m.MinSampleShading
		if m.SampleMask != nil && !dyn.Has(state.DynamicSampleMask) {
			ms.SampleMask = *m.SampleMask & defaultSampleMask
		}
		if !dyn.Has(state.DynamicAlphaToCoverageEnable) {
			ms.AlphaToCoverage = m.AlphaToCoverage
		}
		ms.AlphaToOne = m.AlphaToOne
	}
	pi.Multisample = ms
}

func (pi *PipelineInfo) extractDepthStencil(desc *state.GraphicsPipelineDescription) {
	src := desc.DepthStencil
	dyn := desc.Dynamic
	ds := DepthStencilInfo{
		DepthCompare: gputypes.CompareFunctionAlways,
		Front:        defaultStencilFace(),
		Back:         defaultStencilFace(),
	}
	hasDepth := pi.Rendering.DepthFormat != gputypes.TextureFormatUndefined
	hasStencil := pi.Rendering.StencilFormat != gputypes.TextureFormatUndefined

	if hasDepth {
		if !dyn.Has(state.DynamicDepthTestEnable) {
			ds.DepthTest = src.DepthTest
		}
		if !dyn.Has(state.DynamicDepthWriteEnable) {
			ds.DepthWrite = src.DepthWrite
		}
		if !dyn.Has(state.DynamicDepthCompareOp) && src.DepthCompare != gputypes.CompareFunctionUndefined {
			ds.DepthCompare = src.DepthCompare
		}
		if !dyn.Has(state.DynamicDepthBoundsTestEnable) {
			ds.DepthBoundsTest = src.DepthBoundsTest
		}
		if !dyn.Has(state.DynamicDepthBounds) {
			ds.MinDepthBounds = src.MinDepthBounds
			ds.MaxDepthBounds = src.MaxDepthBounds
		}
	}
	if hasStencil {
		if !dyn.Has(state.DynamicStencilTestEnable) {
			ds.StencilTest = src.StencilTest
		}
		if !dyn.Has(state.DynamicStencilOp) {
			ds.Front = normalizeStencilFace(src.Front)
			ds.Back = normalizeStencilFace(src.Back)
		}
		if !dyn.Has(state.DynamicStencilCompareMask) {
			ds.StencilReadMask = src.StencilReadMask
		}
		if !dyn.Has(state.DynamicStencilWriteMask) {
			ds.StencilWriteMask = src.StencilWriteMask
		}
		if !dyn.Has(state.DynamicStencilReference) {
			ds.StencilReference = src.StencilReference
		}
	}
	pi.DepthStencil = ds
}

func defaultStencilFace() gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      gputypes.StencilOperationKeep,
		DepthFailOp: gputypes.StencilOperationKeep,
		PassOp:      gputypes.StencilOperationKeep,
	}
}

// normalizeStencilFace replaces undefined members with their defaults.
func normalizeStencilFace(f gputypes.StencilFaceState) gputypes.StencilFaceState {
	d := defaultStencilFace()
	if f.Compare != gputypes.CompareFunctionUndefined {
		d.Compare = f.Compare
	}
	if f.FailOp != gputypes.StencilOperationUndefined {
		d.FailOp = f.FailOp
	}
	if f.DepthFailOp != gputypes.StencilOperationUndefined {
		d.DepthFailOp = f.DepthFailOp
	}
	if f.PassOp != gputypes.StencilOperationUndefined {
		d.PassOp = f.PassOp
	}
	return d
}

func (pi *PipelineInfo) extractColorBlend(desc *state.GraphicsPipelineDescription) {
	src := desc.ColorBlend
	dyn := desc.Dynamic
	cb := ColorBlendInfo{
		LogicOp:     state.LogicOpCopy,
		Attachments: make([]state.ColorAttachmentBlend, len(src.Attachments)),
	}
	if !dyn.Has(state.DynamicLogicOpEnable) {
		cb.LogicOpEnable = src.LogicOpEnable
	}
	if !dyn.Has(state.DynamicLogicOp) {
		cb.LogicOp = src.LogicOp
	}
	if !dyn.Has(state.DynamicBlendConstants) {
		cb.Constants = src.Constants
	}
	for i, a := range src.Attachments {
		att := a
		if dyn.Has(state.DynamicColorWriteMask) {
			att.WriteMask = gputypes.ColorWriteMaskAll
		}
		if src.ColorWriteEnable != nil && !dyn.Has(state.DynamicColorWriteEnable) &&
			*src.ColorWriteEnable&(1<<i) == 0 {
			att.WriteMask = gputypes.ColorWriteMaskNone
		}
		if dyn.Has(state.DynamicColorBlendEnable) {
			att.BlendEnable = false
		}
		if dyn.Has(state.DynamicColorBlendEquation) {
			att.Color = gputypes.BlendComponent{}
			att.Alpha = gputypes.BlendComponent{}
		}
		cb.Attachments[i] = att
	}
	pi.ColorBlend = cb
}

func (pi *PipelineInfo) extractShadingRate(desc *state.GraphicsPipelineDescription, p *hw.Profile) {
	if !p.Caps.VRS {
		return
	}
	if desc.Dynamic.Has(state.DynamicFragmentShadingRate) {
		pi.FragmentShadingRate = FragmentShadingRateInfo{Width: 1, Height: 1}
		pi.VRSEnabled = true
		return
	}
	fsr := desc.FragmentShadingRate
	if fsr == nil {
		return
	}
	pi.FragmentShadingRate = FragmentShadingRateInfo{
		Width:     max(fsr.Width, 1),
		Height:    max(fsr.Height, 1),
		Combiners: fsr.Combiners,
	}
	pi.VRSEnabled = pi.FragmentShadingRate.Width > 1 || pi.FragmentShadingRate.Height > 1 ||
		fsr.Combiners[0] != state.CombinerKeep || fsr.Combiners[1] != state.CombinerKeep
}

// WritesMemory reports whether a fragment module stores to buffers or
// images.
func WritesMemory(m *shader.Module) bool {
	if m == nil {
		return false
	}
	for _, r := range m.Resources {
		if r.Written {
			return true
		}
	}
	return false
}
