package translate

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/state"
)

// PA_SU_SC_MODE_CNTL polygon modes.
const (
	DrawPoints    = 0
	DrawLines     = 1
	DrawTriangles = 2
)

// PolygonMode returns the hardware fill mode.
func PolygonMode(m state.PolygonMode) uint32 {
	switch m {
	case state.PolygonFill:
		return DrawTriangles
	case state.PolygonLine:
		return DrawLines
	case state.PolygonPoint:
		return DrawPoints
	default:
		return 0
	}
}

// VGT_GS_OUT_PRIM_TYPE codes.
const (
	OutPrimPointList = 0
	OutPrimLineStrip = 1
	OutPrimTriStrip  = 2
	OutPrimRectList  = 3
)

// GSOutPrim maps a topology to the primitive type that leaves the
// geometry front end.
func GSOutPrim(t gputypes.PrimitiveTopology) uint32 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return OutPrimPointList
	case gputypes.PrimitiveTopologyLineList, gputypes.PrimitiveTopologyLineStrip:
		return OutPrimLineStrip
	case gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip:
		return OutPrimTriStrip
	default:
		return 0
	}
}

// VGT_PRIMITIVE_TYPE codes.
const (
	PrimPointList    = 0x01
	PrimLineList     = 0x02
	PrimLineStrip    = 0x03
	PrimTriList      = 0x04
	PrimTriStrip     = 0x06
	PrimLineListAdj  = 0x0A
	PrimLineStripAdj = 0x0B
	PrimTriListAdj   = 0x0C
	PrimTriStripAdj  = 0x0D
	PrimPatch        = 0x11
)

// PrimType returns the VGT primitive type. adjacency selects the
// adjacency variant of list and strip topologies.
func PrimType(t gputypes.PrimitiveTopology, adjacency bool) uint32 {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return PrimPointList
	case gputypes.PrimitiveTopologyLineList:
		if adjacency {
			return PrimLineListAdj
		}
		return PrimLineList
	case gputypes.PrimitiveTopologyLineStrip:
		if adjacency {
			return PrimLineStripAdj
		}
		return PrimLineStrip
	case gputypes.PrimitiveTopologyTriangleList:
		if adjacency {
			return PrimTriListAdj
		}
		return PrimTriList
	case gputypes.PrimitiveTopologyTriangleStrip:
		if adjacency {
			return PrimTriStripAdj
		}
		return PrimTriStrip
	default:
		return 0
	}
}

// VerticesPerPrimitive returns the vertex count of one input primitive.
func VerticesPerPrimitive(t gputypes.PrimitiveTopology, adjacency bool) uint32 {
	var n uint32
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return 1
	case gputypes.PrimitiveTopologyLineList, gputypes.PrimitiveTopologyLineStrip:
		n = 2
	default:
		n = 3
	}
	if adjacency {
		n *= 2
	}
	return n
}

// CullBits returns the CULL_FRONT and CULL_BACK bits.
func CullBits(m gputypes.CullMode) (front, back bool) {
	switch m {
	case gputypes.CullModeFront:
		return true, false
	case gputypes.CullModeBack:
		return false, true
	default:
		return false, false
	}
}

// FrontFaceCW reports whether clockwise winding is front facing.
func FrontFaceCW(f gputypes.FrontFace) bool {
	return f == gputypes.FrontFaceCW
}

// ConservativeMode returns the PA_SC_CONSERVATIVE_RASTERIZATION_CNTL
// over/under rasterization enable bits.
func ConservativeMode(m state.ConservativeMode) (over, under bool) {
	switch m {
	case state.ConservativeOverestimate:
		return true, false
	case state.ConservativeUnderestimate:
		return false, true
	default:
		return false, false
	}
}
