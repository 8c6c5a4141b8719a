package stages

import (
	"github.com/gogpu/pipec/shader"
)

// distanceCount returns the number of clip or cull distances written.
func distanceCount(m *shader.Module, b shader.Builtin) uint32 {
	for _, v := range m.Outputs {
		if v.Builtin == b {
			if v.ArrayLen > 0 {
				return v.ArrayLen
			}
			return uint32(max(v.Components, 1))
		}
	}
	return 0
}

// fill derives the execution-mode fields of every stage record from the
// linked modules and the program plan.
func fill(s *set, progs []Program, mode Mode) {
	last := s.lastPreRaster()
	for _, c := range s.order() {
		si := &c.Info
		m := c.Module
		if si.Program >= 0 {
			si.WaveSize = progs[si.Program].WaveSize
			if progs[si.Program].HW == shader.HWStageNGG {
				si.NGG = true
				si.NGGCulling = mode.Culling
				si.NGGPassthrough = mode.Passthrough
			}
		}
		if c.Stage == shader.StageVertex || c.Stage == shader.StageCompute || c.Stage == shader.StageTask {
			for _, v := range m.Inputs {
				if !v.IsBuiltin() {
					si.NumInputSlots += max(v.ArrayLen, 1)
				}
			}
		}
		if c != last {
			continue
		}
		si.XFBBuffers = m.XFB.BufferMask()

		clip := min(distanceCount(m, shader.BuiltinClipDistance), 8)
		cull := min(distanceCount(m, shader.BuiltinCullDistance), 8-clip)
		si.ClipDistMask = uint8(1<<clip - 1)
		si.CullDistMask = uint8((1<<cull - 1) << clip)

		si.WritesPointSize = m.Writes(shader.BuiltinPointSize)
		si.WritesLayer = m.Writes(shader.BuiltinLayer) || si.LayerFromView
		si.WritesViewport = m.Writes(shader.BuiltinViewportIndex)
		si.WritesShadingRate = m.Writes(shader.BuiltinPrimitiveShadingRate)
	}
}
