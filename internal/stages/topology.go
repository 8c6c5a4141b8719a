package stages

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/shader"
)

// Program is one hardware program of a pipeline: a single logical
// stage, two merged ones, or the synthesized GS copy shader.
type Program struct {
	HW     shader.HWStage
	Stages shader.StageMask
	// Merged is set when two logical stages share the program.
	Merged bool
	// CopyShader marks the program that moves legacy GS output from the
	// GSVS ring to the rasterizer.
	CopyShader bool

	Name        string
	Description string

	Args     *shader.ArgLayout
	WaveSize uint32
	// LDSBytes is the LDS the driver reserves for rings and stage I/O.
	LDSBytes uint32
	// Modules are the lowered modules compiled into the program.
	Modules []*shader.Module
	Binary  *shader.Binary
	// MaxWaves is the number of waves of this program that fit on one
	// SIMD.
	MaxWaves uint32
	// StageIR is the driver-side IR dump, filled when capturing.
	StageIR string
}

// First returns the lowest logical stage of the program.
func (p *Program) First() shader.Stage {
	for s := shader.StageVertex; s < shader.NumStages; s++ {
		if p.Stages.Has(s) {
			return s
		}
	}
	return shader.NumStages
}

var stageNames = [shader.NumStages]string{
	shader.StageVertex:      "Vertex Shader",
	shader.StageTessControl: "Tessellation Control Shader",
	shader.StageTessEval:    "Tessellation Evaluation Shader",
	shader.StageGeometry:    "Geometry Shader",
	shader.StageTask:        "Task Shader",
	shader.StageMesh:        "Mesh Shader",
	shader.StageFragment:    "Fragment Shader",
	shader.StageCompute:     "Compute Shader",
}

// executableName returns the introspection name and description of a
// program.
func executableName(prog *Program) (name, desc string) {
	vs := prog.Stages.Has(shader.StageVertex)
	switch {
	case prog.CopyShader:
		return "GS Copy Shader", "Extra shader stage that loads the GS output ring into the rasterizer"
	case prog.Stages.Has(shader.StageTessControl) && vs:
		return "Vertex + Tessellation Control Shaders", "Combined vertex and tessellation control shaders"
	case prog.Stages.Has(shader.StageGeometry) && prog.Stages.Has(shader.StageTessEval):
		return "Tessellation Evaluation + Geometry Shaders", "Combined tessellation evaluation and geometry shaders"
	case prog.Stages.Has(shader.StageGeometry) && vs:
		return "Vertex + Geometry Shader", "Combined vertex and geometry shaders"
	}
	s := prog.First()
	if s >= shader.NumStages {
		return "", ""
	}
	return stageNames[s], stageNames[s]
}

// plan assigns every logical stage to a hardware program following the
// merge rules of the profile. Programs come out in hardware pipeline
// order.
func plan(p *hw.Profile, s *set, ngg bool) []Program {
	var progs []Program
	add := func(hws shader.HWStage, stages ...shader.Stage) {
		var m shader.StageMask
		for _, st := range stages {
			m |= st.Mask()
			s[st].Info.Program = len(progs)
			s[st].Info.HW = hws
		}
		progs = append(progs, Program{HW: hws, Stages: m, Merged: len(stages) > 1})
	}

	switch {
	case s[shader.StageMesh] != nil:
		if s[shader.StageTask] != nil {
			add(shader.HWStageCS, shader.StageTask)
		}
		add(shader.HWStageNGG, shader.StageMesh)
	case s[shader.StageCompute] != nil:
		add(shader.HWStageCS, shader.StageCompute)
	default:
		es := shader.StageVertex
		if s[shader.StageTessControl] != nil {
			if p.Caps.MergedShaders {
				add(shader.HWStageHS, shader.StageVertex, shader.StageTessControl)
			} else {
				add(shader.HWStageLS, shader.StageVertex)
				add(shader.HWStageHS, shader.StageTessControl)
			}
			es = shader.StageTessEval
		}
		gs := s[shader.StageGeometry] != nil
		switch {
		case ngg && gs:
			add(shader.HWStageNGG, es, shader.StageGeometry)
		case ngg:
			add(shader.HWStageNGG, es)
		case gs && p.Caps.MergedShaders:
			add(shader.HWStageGS, es, shader.StageGeometry)
		case gs:
			add(shader.HWStageES, es)
			add(shader.HWStageGS, shader.StageGeometry)
		default:
			add(shader.HWStageVS, es)
		}
	}
	if s[shader.StageFragment] != nil {
		add(shader.HWStageFS, shader.StageFragment)
	}

	for i := range progs {
		progs[i].WaveSize = waveSize(p, &progs[i])
		progs[i].Name, progs[i].Description = executableName(&progs[i])
	}
	return progs
}

// waveSize picks the wave size of a program. The legacy geometry path
// only runs wave64.
func waveSize(p *hw.Profile, prog *Program) uint32 {
	switch prog.HW {
	case shader.HWStageFS:
		return p.PSWaveSize
	case shader.HWStageCS:
		return p.CSWaveSize
	case shader.HWStageGS, shader.HWStageES:
		return 64
	case shader.HWStageVS:
		if prog.CopyShader {
			return 64
		}
	}
	return p.GEWaveSize
}
