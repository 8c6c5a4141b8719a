package shader

import (
	"fmt"
	"strings"
)

// Stage is a logical shader stage.
type Stage uint8

// Logical stages in pipeline order. The order matters: linking walks
// stages from Fragment back to Vertex/Task.
const (
	StageVertex Stage = iota
	StageTessControl
	StageTessEval
	StageGeometry
	StageTask
	StageMesh
	StageFragment
	StageCompute

	// NumStages is the size of per-stage arrays.
	NumStages
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageTessControl:
		return "tess_ctrl"
	case StageTessEval:
		return "tess_eval"
	case StageGeometry:
		return "geometry"
	case StageTask:
		return "task"
	case StageMesh:
		return "mesh"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// ParseStage parses a stage name as printed by String.
func ParseStage(s string) (Stage, error) {
	for st := StageVertex; st < NumStages; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("shader: unknown stage %q", s)
}

// Mask returns the single-bit mask of s.
func (s Stage) Mask() StageMask { return 1 << s }

// IsPreRaster reports whether s runs before rasterization.
func (s Stage) IsPreRaster() bool {
	return s <= StageGeometry || s == StageTask || s == StageMesh
}

// StageMask is a set of logical stages.
type StageMask uint16

// Has reports whether s is in the mask.
func (m StageMask) Has(s Stage) bool { return m&(1<<s) != 0 }

// String lists the stages in the mask.
func (m StageMask) String() string {
	var parts []string
	for s := StageVertex; s < NumStages; s++ {
		if m.Has(s) {
			parts = append(parts, s.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// HWStage is a hardware shader stage. Several logical stages may execute
// as one hardware stage.
type HWStage uint8

// Hardware stages.
const (
	HWStageVS HWStage = iota // vertex shader feeding the rasterizer
	HWStageLS                // vertex shader writing LDS for tessellation
	HWStageHS                // hull shader (tessellation control)
	HWStageES                // export shader feeding a legacy GS
	HWStageGS                // geometry shader
	HWStageNGG               // primitive shader (vertex/tess eval/geometry/mesh)
	HWStageFS                // pixel shader
	HWStageCS                // compute (also task)
)

// String returns the hardware stage name.
func (h HWStage) String() string {
	switch h {
	case HWStageVS:
		return "VS"
	case HWStageLS:
		return "LS"
	case HWStageHS:
		return "HS"
	case HWStageES:
		return "ES"
	case HWStageGS:
		return "GS"
	case HWStageNGG:
		return "NGG"
	case HWStageFS:
		return "PS"
	case HWStageCS:
		return "CS"
	default:
		return fmt.Sprintf("HWStage(%d)", uint8(h))
	}
}
