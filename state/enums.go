package state

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Dual-source and constant-alpha blend factors. gputypes stops at
// OneMinusConstant (0x0D); these continue the numbering.
const (
	BlendFactorSrc1                  gputypes.BlendFactor = 0x0E
	BlendFactorOneMinusSrc1          gputypes.BlendFactor = 0x0F
	BlendFactorSrc1Alpha             gputypes.BlendFactor = 0x10
	BlendFactorOneMinusSrc1Alpha     gputypes.BlendFactor = 0x11
	BlendFactorConstantAlpha         gputypes.BlendFactor = 0x12
	BlendFactorOneMinusConstantAlpha gputypes.BlendFactor = 0x13
)

// IsDualSource reports whether f reads the second fragment output.
func IsDualSource(f gputypes.BlendFactor) bool {
	return f >= BlendFactorSrc1 && f <= BlendFactorOneMinusSrc1Alpha
}

// LogicOp is a framebuffer logic operation.
type LogicOp uint8

// Logic operations in Vulkan order.
const (
	LogicOpClear LogicOp = iota
	LogicOpAnd
	LogicOpAndReverse
	LogicOpCopy
	LogicOpAndInverted
	LogicOpNoOp
	LogicOpXor
	LogicOpOr
	LogicOpNor
	LogicOpEquivalent
	LogicOpInvert
	LogicOpOrReverse
	LogicOpCopyInverted
	LogicOpOrInverted
	LogicOpNand
	LogicOpSet
)

// String returns the logic op name.
func (op LogicOp) String() string {
	names := [...]string{
		"clear", "and", "and_reverse", "copy", "and_inverted", "no_op",
		"xor", "or", "nor", "equivalent", "invert", "or_reverse",
		"copy_inverted", "or_inverted", "nand", "set",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return fmt.Sprintf("LogicOp(%d)", uint8(op))
}

// PolygonMode is the rasterization fill mode.
type PolygonMode uint8

// Polygon modes.
const (
	PolygonFill PolygonMode = iota
	PolygonLine
	PolygonPoint
)

// String returns the polygon mode name.
func (m PolygonMode) String() string {
	switch m {
	case PolygonFill:
		return "fill"
	case PolygonLine:
		return "line"
	case PolygonPoint:
		return "point"
	default:
		return fmt.Sprintf("PolygonMode(%d)", uint8(m))
	}
}

// ConservativeMode is the conservative rasterization mode.
type ConservativeMode uint8

// Conservative rasterization modes.
const (
	ConservativeDisabled ConservativeMode = iota
	ConservativeOverestimate
	ConservativeUnderestimate
)

// LineRasterMode selects line rasterization rules.
type LineRasterMode uint8

// Line rasterization modes.
const (
	LineRasterDefault LineRasterMode = iota
	LineRasterRectangular
	LineRasterBresenham
	LineRasterSmooth
)

// DiscardRectangleMode selects whether rectangles include or exclude.
type DiscardRectangleMode uint8

// Discard rectangle modes.
const (
	DiscardInclusive DiscardRectangleMode = iota
	DiscardExclusive
)

// ShadingRateCombiner combines fragment shading rates.
type ShadingRateCombiner uint8

// Shading rate combiners.
const (
	CombinerKeep ShadingRateCombiner = iota
	CombinerReplace
	CombinerMin
	CombinerMax
	CombinerMul
)
