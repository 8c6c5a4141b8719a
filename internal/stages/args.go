package stages

import (
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
)

type argSpec struct {
	kind  shader.ArgKind
	count uint8
}

// argLists collects a layout in three groups so that user SGPRs come
// first, then system SGPRs, then VGPRs.
type argLists struct {
	user, system, vgpr []argSpec
}

func (a *argLists) addUser(k shader.ArgKind, n uint8)   { a.user = appendArg(a.user, k, n) }
func (a *argLists) addSystem(k shader.ArgKind, n uint8) { a.system = appendArg(a.system, k, n) }
func (a *argLists) addVGPR(k shader.ArgKind, n uint8)   { a.vgpr = appendArg(a.vgpr, k, n) }

// appendArg adds k once; merged stages ask for some arguments twice.
func appendArg(list []argSpec, k shader.ArgKind, n uint8) []argSpec {
	for _, a := range list {
		if a.kind == k {
			return list
		}
	}
	return append(list, argSpec{k, n})
}

func (a *argLists) layout() *shader.ArgLayout {
	l := &shader.ArgLayout{}
	for _, s := range a.user {
		l.Add(s.kind, s.count, false, true)
	}
	for _, s := range a.system {
		l.Add(s.kind, s.count, false, false)
	}
	for _, s := range a.vgpr {
		l.Add(s.kind, s.count, true, false)
	}
	return l
}

// programModules returns the modules of the stages in a program, in
// stage order.
func programModules(s *set, prog *Program) []*shader.Module {
	var out []*shader.Module
	for st := shader.StageVertex; st < shader.NumStages; st++ {
		if prog.Stages.Has(st) && s[st] != nil {
			out = append(out, s[st].Module)
		}
	}
	return out
}

// declareArgs assigns the argument layout of one program and shares it
// with every logical stage compiled into it.
func declareArgs(s *set, prog *Program, mode Mode, pi *info.PipelineInfo) *shader.ArgLayout {
	var a argLists
	mods := prog.Modules
	last := s.lastPreRaster()

	usesRings := prog.HW == shader.HWStageHS || prog.HW == shader.HWStageES ||
		prog.HW == shader.HWStageGS || prog.CopyShader ||
		(pi.HasTess() && (prog.HW == shader.HWStageVS || prog.HW == shader.HWStageNGG))
	if usesRings {
		a.addUser(shader.ArgRingOffsets, 2)
	}
	for _, m := range mods {
		if len(m.Resources) > 0 {
			a.addUser(shader.ArgDescriptorSets, 1)
		}
		if m.PushConstantBytes > 0 {
			a.addUser(shader.ArgPushConstants, 1)
		}
	}

	for _, m := range mods {
		switch m.Stage {
		case shader.StageVertex:
			if len(m.ABI.VertexFetch) > 0 {
				a.addUser(shader.ArgVertexBuffers, 1)
			}
			a.addUser(shader.ArgBaseVertex, 1)
			if m.Reads(shader.BuiltinInstanceIndex) {
				a.addUser(shader.ArgStartInstance, 1)
			}
			a.addVGPR(shader.ArgVertexID, 1)
			a.addVGPR(shader.ArgInstanceID, 1)
			if m.ABI.ExportPrimitiveID {
				a.addVGPR(shader.ArgVSPrimitiveID, 1)
			}
		case shader.StageTessControl:
			a.addUser(shader.ArgTCSOffchipLayout, 1)
			a.addVGPR(shader.ArgPatchID, 1)
			a.addVGPR(shader.ArgRelPatchID, 1)
		case shader.StageTessEval:
			a.addUser(shader.ArgTESNumPatches, 1)
			a.addVGPR(shader.ArgTessCoord, 2)
			a.addVGPR(shader.ArgRelPatchID, 1)
			a.addVGPR(shader.ArgPatchID, 1)
		case shader.StageGeometry:
			if prog.CopyShader {
				a.addUser(shader.ArgGSVSRingStride, 1)
				a.addVGPR(shader.ArgVertexID, 1)
				break
			}
			offsets := uint8(6)
			if prog.Merged {
				offsets = 3
			}
			a.addVGPR(shader.ArgGSVertexOffsets, offsets)
			a.addVGPR(shader.ArgGSPrimitiveID, 1)
			a.addVGPR(shader.ArgGSInvocationID, 1)
		case shader.StageTask, shader.StageMesh, shader.StageCompute:
			if m.Stage == shader.StageMesh && s[shader.StageTask] != nil {
				a.addUser(shader.ArgTaskRingEntry, 1)
			}
			if m.Stage == shader.StageTask {
				a.addUser(shader.ArgTaskRingEntry, 1)
			}
			if m.Reads(shader.BuiltinNumWorkgroups) {
				a.addUser(shader.ArgGridSize, 3)
			}
			a.addSystem(shader.ArgWorkgroupID, 3)
			a.addSystem(shader.ArgTGSize, 1)
			a.addVGPR(shader.ArgLocalInvocationID, 3)
		case shader.StageFragment:
			declareFragmentArgs(&a, m)
		}
	}

	exportsRaster := prog.CopyShader || (last != nil && prog.Stages.Has(last.Stage) && !prog.Stages.Has(shader.StageGeometry)) ||
		(last != nil && last.Stage == shader.StageGeometry && prog.HW == shader.HWStageNGG)
	if exportsRaster {
		if pi.Rendering.ViewMask != 0 {
			a.addUser(shader.ArgViewIndex, 1)
		}
		if last.Info.XFBBuffers != 0 {
			a.addUser(shader.ArgStreamoutBuffers, 1)
			a.addSystem(shader.ArgStreamoutConfig, 1)
		}
	}
	if prog.HW == shader.HWStageNGG {
		if mode.Culling {
			a.addUser(shader.ArgNGGCullSettings, 1)
			a.addUser(shader.ArgNGGViewport, 4)
		}
		if mode.Culling || prog.Stages.Has(shader.StageGeometry) {
			a.addUser(shader.ArgNGGProvokingVertex, 1)
		}
	}
	if prog.Merged || prog.HW == shader.HWStageNGG {
		a.addSystem(shader.ArgMergedWaveInfo, 1)
	}
	for _, m := range mods {
		if m.ScratchBytes > 0 {
			a.addSystem(shader.ArgScratchOffset, 1)
		}
	}

	l := a.layout()
	for st := shader.StageVertex; st < shader.NumStages; st++ {
		if prog.Stages.Has(st) && s[st] != nil && !prog.CopyShader {
			s[st].Info.Args = l
		}
	}
	return l
}

func declareFragmentArgs(a *argLists, m *shader.Module) {
	var persp, linear bool
	for _, v := range m.Inputs {
		if v.IsBuiltin() {
			continue
		}
		switch v.Interp {
		case shader.InterpSmooth:
			persp = true
		case shader.InterpNoPerspective:
			linear = true
		}
	}
	n := uint8(0)
	if persp {
		n += 2
	}
	if linear {
		n += 2
	}
	if n > 0 {
		a.addVGPR(shader.ArgBarycentrics, n)
	}
	if m.Reads(shader.BuiltinPosition) {
		a.addVGPR(shader.ArgPosition, 4)
	}
	if m.Reads(shader.BuiltinFrontFacing) {
		a.addVGPR(shader.ArgFrontFace, 1)
	}
	if m.Reads(shader.BuiltinSampleMask) {
		a.addVGPR(shader.ArgSampleCoverage, 1)
	}
}

// SPI_PS_INPUT_ENA bits.
const (
	psPerspCenter    = 1 << 1
	psLinearCenter   = 1 << 4
	psPosXYZW        = 0xF << 8
	psFrontFace      = 1 << 12
	psSampleCoverage = 1 << 14
)

// psInputEna derives SPI_PS_INPUT_ENA from the fragment module. At
// least one barycentric input must be enabled.
func psInputEna(m *shader.Module) uint32 {
	var ena uint32
	for _, v := range m.Inputs {
		if v.IsBuiltin() {
			continue
		}
		switch v.Interp {
		case shader.InterpSmooth:
			ena |= psPerspCenter
		case shader.InterpNoPerspective:
			ena |= psLinearCenter
		}
	}
	if m.Reads(shader.BuiltinPosition) {
		ena |= psPosXYZW
	}
	if m.Reads(shader.BuiltinFrontFacing) {
		ena |= psFrontFace
	}
	if m.Reads(shader.BuiltinSampleMask) {
		ena |= psSampleCoverage
	}
	if ena&0x7F == 0 {
		ena |= psPerspCenter
	}
	return ena
}
