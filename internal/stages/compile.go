package stages

import (
	"fmt"
	"slices"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/regs"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// maxVGPRs bounds register allocation before the backend spills.
const maxVGPRs = 256

// Result is the compiled form of a pipeline's shader stages. It is
// immutable once returned and may be shared by every pipeline created
// from the same cache key.
type Result struct {
	// Programs are in hardware pipeline order; a legacy GS copy shader
	// follows its geometry program.
	Programs []Program
	Stages   shader.StageMask
	Mode     Mode
	// Info has one record per logical stage, nil for absent stages.
	Info [shader.NumStages]*StageInfo

	VS         regs.VSOutput
	PS         regs.PSConfig
	NGG        *budget.NGGInfo
	GS         *budget.GSInfo
	Geometry   *regs.GeometryConfig
	Tess       *regs.TessConfig
	CopyShader bool
	OutPrim    uint32

	Workgroup [3]uint32
	// Fragment is the linked fragment module, nil without one.
	Fragment *shader.Module
}

// CodeSizes returns the code size of every program, in program order.
func (r *Result) CodeSizes() []uint64 {
	sizes := make([]uint64, len(r.Programs))
	for i := range r.Programs {
		sizes[i] = uint64(len(r.Programs[i].Binary.Code))
	}
	return sizes
}

// GraphicsInput assembles the emitter input for programs uploaded at
// vas, one address per program.
func (r *Result) GraphicsInput(pi *info.PipelineInfo, vas []uint64, outOfOrder bool, bin budget.Extent) *regs.GraphicsInput {
	in := &regs.GraphicsInput{
		Info:       pi,
		Programs:   make([]regs.Program, len(r.Programs)),
		VS:         r.VS,
		PS:         r.PS,
		Geometry:   r.Geometry,
		Tess:       r.Tess,
		CopyShader: r.CopyShader,
		OutPrim:    r.OutPrim,
		OutOfOrder: outOfOrder,
		BinSize:    bin,
	}
	if r.Mode.NGG {
		in.NGG = r.NGG
		in.NGGPassthrough = r.Mode.Passthrough
	} else {
		in.GS = r.GS
	}
	for i := range r.Programs {
		prog := &r.Programs[i]
		in.Programs[i] = regs.Program{
			HW:     prog.HW,
			Stages: prog.Stages,
			VA:     vas[i],
			Config: prog.Binary.Config,
			Merged: prog.Merged,
		}
	}
	return in
}

// ComputeInput assembles the emitter input of a compute pipeline whose
// program is uploaded at va.
func (r *Result) ComputeInput(va uint64) *regs.ComputeInput {
	prog := &r.Programs[0]
	return &regs.ComputeInput{
		Program: regs.Program{
			HW:     prog.HW,
			Stages: prog.Stages,
			VA:     va,
			Config: prog.Binary.Config,
		},
		Workgroup: r.Workgroup,
	}
}

// validateStages panics on stage sets no hardware path accepts.
func validateStages(s *set) {
	has := func(st shader.Stage) bool { return s[st] != nil }
	switch {
	case has(shader.StageCompute):
		panic("stages: compute stage in a graphics pipeline")
	case has(shader.StageMesh) && (has(shader.StageVertex) || has(shader.StageTessControl) ||
		has(shader.StageTessEval) || has(shader.StageGeometry)):
		panic("stages: mesh stage mixed with vertex pipeline stages")
	case has(shader.StageTask) && !has(shader.StageMesh):
		panic("stages: task stage without a mesh stage")
	case !has(shader.StageMesh) && !has(shader.StageVertex):
		panic("stages: pipeline has neither a vertex nor a mesh stage")
	case has(shader.StageTessControl) != has(shader.StageTessEval):
		panic("stages: tessellation needs both control and evaluation stages")
	}
}

// CompileGraphics runs the stage pipeline of a graphics pipeline:
// ingest, link, execution-mode selection, info fill, lowering and one
// backend compile per hardware program. A malformed stage set panics.
func CompileGraphics(p *hw.Profile, desc *state.GraphicsPipelineDescription, pi *info.PipelineInfo, opts Options) (*Result, error) {
	if opts.Compiler == nil {
		return nil, ErrNoCompiler
	}
	ingester := opts.Ingester
	if ingester == nil {
		ingester = shader.NagaIngester{}
	}

	var s set
	for _, sd := range desc.Stages {
		if sd.Stage >= shader.NumStages {
			panic(fmt.Sprintf("stages: invalid stage %d", sd.Stage))
		}
		if s[sd.Stage] != nil {
			panic(fmt.Sprintf("stages: duplicate %s stage", sd.Stage))
		}
		s[sd.Stage] = newContext(sd)
	}
	validateStages(&s)
	if s[shader.StageMesh] != nil && !p.Caps.Mesh {
		panic(fmt.Sprintf("stages: %s has no mesh shader support", p.Name))
	}

	for _, c := range s.order() {
		if err := c.ingest(ingester); err != nil {
			return nil, err
		}
	}

	link(&s, pi)
	mode := decideNGG(p, &s, pi)
	progs := plan(p, &s, mode.NGG)
	fill(&s, progs, mode)
	for _, c := range s.order() {
		lower(p, c, pi, progs[c.Info.Program].Merged)
	}
	for i := range progs {
		progs[i].Modules = programModules(&s, &progs[i])
	}

	gs := s[shader.StageGeometry]
	copyShader := gs != nil && !mode.NGG
	if copyShader {
		at := gs.Info.Program + 1
		progs = slices.Insert(progs, at, copyProgram(gs))
		for _, c := range s.order() {
			if c.Info.Program >= at {
				c.Info.Program++
			}
		}
	}

	sz := solve(p, &s, pi, mode, progs)
	for i := range progs {
		progs[i].Args = declareArgs(&s, &progs[i], mode, pi)
	}

	last := s.lastPreRaster()
	res := &Result{
		Programs:   progs,
		Stages:     desc.StageMask(),
		Mode:       mode,
		VS:         buildVS(&s, last),
		NGG:        sz.ngg,
		GS:         sz.gs,
		CopyShader: copyShader,
		OutPrim:    outPrim(&s, pi),
	}
	if fs := s[shader.StageFragment]; fs != nil {
		res.PS = buildPS(&s, last, pi)
		res.Fragment = fs.Module
	}
	if gs != nil {
		res.Geometry = buildGeometry(gs)
	}
	if sz.tess != nil {
		res.Tess = buildTess(&s, pi, sz)
	}
	if m := s[shader.StageMesh]; m != nil {
		res.Workgroup = m.Module.Workgroup
	}
	for _, c := range s.order() {
		si := c.Info
		res.Info[c.Stage] = &si
	}

	if err := compilePrograms(p, res, opts); err != nil {
		return nil, err
	}
	slogger().Debug("stages: graphics pipeline compiled",
		"stages", res.Stages, "programs", len(res.Programs), "ngg", mode.NGG, "copy_shader", copyShader)
	return res, nil
}

// CompileCompute runs the stage pipeline of a compute pipeline.
func CompileCompute(p *hw.Profile, desc *state.ComputePipelineDescription, opts Options) (*Result, error) {
	if opts.Compiler == nil {
		return nil, ErrNoCompiler
	}
	if desc.Stage.Stage != shader.StageCompute {
		panic(fmt.Sprintf("stages: compute pipeline with a %s stage", desc.Stage.Stage))
	}
	ingester := opts.Ingester
	if ingester == nil {
		ingester = shader.NagaIngester{}
	}

	var s set
	c := newContext(desc.Stage)
	s[shader.StageCompute] = c
	if err := c.ingest(ingester); err != nil {
		return nil, err
	}

	pi := &info.PipelineInfo{Stages: shader.StageCompute.Mask()}
	progs := plan(p, &s, false)
	fill(&s, progs, Mode{})
	lower(p, c, pi, false)
	progs[0].Modules = programModules(&s, &progs[0])
	progs[0].Args = declareArgs(&s, &progs[0], Mode{}, pi)

	res := &Result{
		Programs:  progs,
		Stages:    shader.StageCompute.Mask(),
		Workgroup: c.Module.Workgroup,
	}
	si := c.Info
	res.Info[shader.StageCompute] = &si

	if err := compilePrograms(p, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// compilePrograms invokes the backend once per hardware program and
// packs the resulting configuration. The first failure aborts the rest.
func compilePrograms(p *hw.Profile, res *Result, opts Options) error {
	var xfb uint8
	for _, st := range []shader.Stage{shader.StageGeometry, shader.StageTessEval, shader.StageVertex} {
		if si := res.Info[st]; si != nil {
			xfb = si.XFBBuffers
			break
		}
	}

	for i := range res.Programs {
		prog := &res.Programs[i]
		ngg := prog.HW == shader.HWStageNGG
		req := &shader.CompileRequest{
			HWStage:        prog.HW,
			Stages:         prog.Modules,
			Args:           prog.Args,
			WaveSize:       prog.WaveSize,
			LDSBytes:       prog.LDSBytes,
			NGG:            ngg,
			NGGCulling:     ngg && res.Mode.Culling,
			NGGPassthrough: ngg && res.Mode.Passthrough,
			Key:            programKey(p, prog, res.Mode, opts),
			GfxLevel:       uint8(p.Level),
			MaxVGPRs:       maxVGPRs,
			Options:        opts.compileOptions(),
		}
		out, err := opts.Compiler.Compile(req)
		if err != nil {
			slogger().Debug("stages: backend failed", "program", prog.Name, "err", err)
			return &StageError{Stage: prog.First(), Phase: PhaseCompile, Err: err}
		}

		bin := *out
		bin.Code = slices.Clone(out.Code)
		cfg := &bin.Config
		cfg.WaveSize = prog.WaveSize
		var shared uint32
		var workgroup [3]uint32
		for _, m := range prog.Modules {
			shared += m.SharedBytes
			if prog.HW == shader.HWStageCS {
				workgroup = m.Workgroup
			}
		}
		cfg.LDSBlocks = ldsBlocks(p, prog.LDSBytes+shared)
		packRSRC(p, prog, cfg, prog.Stages.Has(shader.StageTessEval), xfb, workgroup)
		prog.Binary = &bin

		wi := budget.WaveInput{
			WaveSize:  prog.WaveSize,
			NumSGPRs:  cfg.NumSGPRs,
			NumVGPRs:  cfg.NumVGPRs,
			LDSBlocks: cfg.LDSBlocks,
		}
		switch prog.HW {
		case shader.HWStageFS:
			wi.Fragment = true
			wi.NumInterp = res.PS.NumInterp
		case shader.HWStageCS:
			wi.Compute = true
			wi.WorkgroupSize = prog.Modules[0].InvocationCount()
		}
		prog.MaxWaves = budget.MaxWaves(p, wi)
		if opts.CaptureIR {
			prog.StageIR = dumpModules(prog.Modules)
		}
		slogger().Debug("stages: program compiled",
			"program", prog.Name, "sgprs", cfg.NumSGPRs, "vgprs", cfg.NumVGPRs,
			"code", len(bin.Code), "max_waves", prog.MaxWaves)
	}
	return nil
}
