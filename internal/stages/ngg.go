package stages

import (
	"fmt"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Mode is the primitive-shader decision of a pipeline.
type Mode struct {
	NGG bool
	// Culling runs per-primitive culling in the primitive shader.
	Culling bool
	// Passthrough skips the primitive shader's vertex-side work.
	Passthrough bool
}

// maxNGGVertsOut is the largest per-invocation output vertex count the
// primitive shader can program into GE_MAX_OUTPUT_PER_SUBGROUP.
const maxNGGVertsOut = 256

// maxTessGSAmplification is the total GS amplification above which a
// tessellated NGG pipeline can hang.
const maxTessGSAmplification = 256

func hasXFB(m *shader.Module) bool {
	return m.XFB != nil && len(m.XFB.Outputs) > 0
}

// decideNGG selects the execution mode of the last pre-rasterization
// stage. It runs before lowering because IO-to-memory lowering depends
// on it.
func decideNGG(p *hw.Profile, s *set, pi *info.PipelineInfo) Mode {
	if s[shader.StageMesh] != nil {
		return Mode{NGG: true}
	}
	last := s.lastPreRaster()
	if last == nil || !p.Caps.NGG || p.Flags&hw.FlagNoNGG != 0 {
		return Mode{}
	}
	xfb := hasXFB(last.Module)

	var fallback string
	if xfb && !p.Caps.NGGStreamout {
		fallback = "transform feedback without NGG streamout"
	}
	if gs := s[shader.StageGeometry]; gs != nil {
		g := gs.Module.Geometry
		amp := max(g.Invocations, 1) * g.VerticesOut
		switch {
		case g.VerticesOut > maxNGGVertsOut:
			fallback = fmt.Sprintf("%d output vertices per invocation", g.VerticesOut)
		case s[shader.StageTessControl] != nil && amp > maxTessGSAmplification && p.Caps.LegacyGSFallback:
			fallback = fmt.Sprintf("tessellation with geometry amplification %d", amp)
		}
	}
	if fallback != "" {
		if !p.Caps.LegacyGSFallback {
			panic(fmt.Sprintf("stages: %s needs the legacy geometry path, which %s lacks", fallback, p.Name))
		}
		slogger().Debug("stages: NGG disabled", "profile", p.Name, "reason", fallback)
		return Mode{}
	}

	m := Mode{NGG: true}
	m.Culling = p.Flags&hw.FlagNoNGGCulling == 0 &&
		s[shader.StageGeometry] == nil && !xfb &&
		pi.RasterEnabled &&
		pi.Raster.PolygonMode == state.PolygonFill &&
		!last.Module.Writes(shader.BuiltinViewportIndex) &&
		trianglesIn(s, pi)
	m.Passthrough = s[shader.StageGeometry] == nil && !xfb && !m.Culling &&
		!last.Module.Writes(shader.BuiltinClipDistance) &&
		!last.Module.Writes(shader.BuiltinCullDistance) &&
		!last.Info.ExportPrimitiveID
	slogger().Debug("stages: NGG enabled", "profile", p.Name, "culling", m.Culling, "passthrough", m.Passthrough)
	return m
}

// trianglesIn reports whether the primitive shader sees triangles.
func trianglesIn(s *set, pi *info.PipelineInfo) bool {
	if tes := s[shader.StageTessEval]; tes != nil {
		t := tes.Module.Tess
		return !t.PointMode && t.Primitive != shader.TessIsolines
	}
	if pi.Dynamic.Has(state.DynamicPrimitiveTopology) {
		return false
	}
	return translate.VerticesPerPrimitive(pi.InputAssembly.Topology, false) == 3
}
