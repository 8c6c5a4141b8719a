package state

import (
	"math/bits"
	"strings"
)

// DynamicState is a set of description fields deferred to draw time.
type DynamicState uint64

// Dynamic state bits.
const (
	DynamicViewport DynamicState = 1 << iota
	DynamicScissor
	DynamicLineWidth
	DynamicDepthBias
	DynamicBlendConstants
	DynamicDepthBounds
	DynamicStencilCompareMask
	DynamicStencilWriteMask
	DynamicStencilReference
	DynamicCullMode
	DynamicFrontFace
	DynamicPrimitiveTopology
	DynamicDepthTestEnable
	DynamicDepthWriteEnable
	DynamicDepthCompareOp
	DynamicDepthBoundsTestEnable
	DynamicStencilTestEnable
	DynamicStencilOp
	DynamicRasterizerDiscardEnable
	DynamicDepthBiasEnable
	DynamicPrimitiveRestartEnable
	DynamicLogicOp
	DynamicPatchControlPoints
	DynamicColorWriteEnable
	DynamicColorBlendEnable
	DynamicColorBlendEquation
	DynamicColorWriteMask
	DynamicPolygonMode
	DynamicSampleMask
	DynamicAlphaToCoverageEnable
	DynamicRasterizationSamples
	DynamicFragmentShadingRate
	DynamicDiscardRectangle
	DynamicVertexInput
	DynamicLineStipple
	DynamicConservativeRasterMode
	DynamicProvokingVertexMode
	DynamicDepthClampEnable
	DynamicDepthClipEnable
	DynamicLogicOpEnable
	DynamicTessDomainOrigin
	DynamicLineRasterizationMode

	numDynamic = iota
)

// DynamicDepthStencilExtended is the extended dynamic depth/stencil state.
// When any of it is dynamic the driver cannot decide out-of-order
// rasterization at creation time.
const DynamicDepthStencilExtended = DynamicDepthTestEnable |
	DynamicDepthWriteEnable |
	DynamicDepthCompareOp |
	DynamicDepthBoundsTestEnable |
	DynamicStencilTestEnable |
	DynamicStencilOp

// DynamicBlendExtended covers dynamic blend equation and enables.
const DynamicBlendExtended = DynamicColorBlendEnable |
	DynamicColorBlendEquation |
	DynamicColorWriteMask |
	DynamicLogicOp |
	DynamicLogicOpEnable

// Has reports whether all bits of s are dynamic.
func (d DynamicState) Has(s DynamicState) bool { return d&s == s }

// Any reports whether any bit of s is dynamic.
func (d DynamicState) Any(s DynamicState) bool { return d&s != 0 }

// Count returns the number of dynamic fields.
func (d DynamicState) Count() int { return bits.OnesCount64(uint64(d)) }

var dynamicNames = [numDynamic]string{
	"viewport", "scissor", "line_width", "depth_bias", "blend_constants",
	"depth_bounds", "stencil_compare_mask", "stencil_write_mask",
	"stencil_reference", "cull_mode", "front_face", "primitive_topology",
	"depth_test_enable", "depth_write_enable", "depth_compare_op",
	"depth_bounds_test_enable", "stencil_test_enable", "stencil_op",
	"rasterizer_discard_enable", "depth_bias_enable",
	"primitive_restart_enable", "logic_op", "patch_control_points",
	"color_write_enable", "color_blend_enable", "color_blend_equation",
	"color_write_mask", "polygon_mode", "sample_mask",
	"alpha_to_coverage_enable", "rasterization_samples",
	"fragment_shading_rate", "discard_rectangle", "vertex_input",
	"line_stipple", "conservative_raster_mode", "provoking_vertex_mode",
	"depth_clamp_enable", "depth_clip_enable", "logic_op_enable",
	"tess_domain_origin", "line_rasterization_mode",
}

// String lists the dynamic fields.
func (d DynamicState) String() string {
	var parts []string
	for i := 0; i < numDynamic; i++ {
		if d&(1<<i) != 0 {
			parts = append(parts, dynamicNames[i])
		}
	}
	return strings.Join(parts, "|")
}

// ParseDynamicState parses a single dynamic state name.
func ParseDynamicState(name string) (DynamicState, bool) {
	for i, n := range dynamicNames {
		if n == name {
			return 1 << i, true
		}
	}
	return 0, false
}
