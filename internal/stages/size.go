package stages

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/shader"
)

// sizing holds the budget solver results of a graphics pipeline.
type sizing struct {
	tess *budget.TessInfo
	gs   *budget.GSInfo
	ngg  *budget.NGGInfo
}

// vertsPerPrim returns the vertex count of the primitives entering the
// primitive shader or legacy GS.
func vertsPerPrim(s *set, pi *info.PipelineInfo) uint32 {
	if gs := s[shader.StageGeometry]; gs != nil {
		return gs.Module.Geometry.Input.VerticesPerPrimitive()
	}
	if tes := s[shader.StageTessEval]; tes != nil {
		switch {
		case tes.Module.Tess.PointMode:
			return 1
		case tes.Module.Tess.Primitive == shader.TessIsolines:
			return 2
		}
		return 3
	}
	return translate.VerticesPerPrimitive(pi.InputAssembly.Topology, pi.InputAssembly.Adjacency)
}

// esStage returns the stage feeding the geometry stage.
func (s *set) esStage() *Context {
	if t := s[shader.StageTessEval]; t != nil {
		return t
	}
	return s[shader.StageVertex]
}

// solve runs the budget solvers and records the LDS each program
// reserves.
func solve(p *hw.Profile, s *set, pi *info.PipelineInfo, mode Mode, progs []Program) sizing {
	var out sizing
	gran := max(p.LDSGranularity, 1)
	gs := s[shader.StageGeometry]

	if tcs := s[shader.StageTessControl]; tcs != nil {
		vs := s[shader.StageVertex]
		t := budget.Tess(p, budget.TessInput{
			InputVertices:   pi.Tess.PatchControlPoints,
			OutputVertices:  tcs.Module.Tess.OutputVertices,
			NumInputs:       vs.Info.NumOutputSlots,
			NumOutputs:      tcs.Info.NumOutputSlots,
			NumPatchOutputs: tcs.Info.NumPatchOutputSlots,
		})
		out.tess = &t
		// Unmerged hardware allocates the patch LDS with the LS wave.
		progs[vs.Info.Program].LDSBytes = t.LDSSize * gran
		slogger().Debug("stages: tess budget", "patches", t.NumPatches, "lds", t.LDSSize*gran)
	}

	switch {
	case s[shader.StageMesh] != nil:
		m := s[shader.StageMesh].Module
		n := budget.Mesh(budget.MeshInput{
			Workgroup:     m.Workgroup,
			MaxVertices:   m.Mesh.MaxVertices,
			MaxPrimitives: m.Mesh.MaxPrimitives,
		})
		out.ngg = &n
	case mode.NGG:
		last := s.lastPreRaster()
		in := budget.NGGInput{
			VertsPerPrim: vertsPerPrim(s, pi),
			ExportPrimID: last.Info.ExportPrimitiveID,
			WaveSize:     progs[last.Info.Program].WaveSize,
		}
		if gs != nil {
			es := s.esStage()
			g := gs.Module.Geometry
			in.HasGS = true
			in.Adjacency = g.Input.HasAdjacency()
			in.GSInvocations = g.Invocations
			in.GSVerticesOut = g.VerticesOut
			in.ESGSItemSize = es.Module.ABI.ESGSItemSize
			in.GSVSVertexSize = gs.Module.ABI.GSVSVertexSize
		} else if hasXFB(last.Module) {
			in.StreamoutOutputs = uint32(len(last.Module.XFB.Outputs))
		}
		n := budget.NGG(p, in)
		out.ngg = &n
		progs[last.Info.Program].LDSBytes = n.ESGSRingSize + n.EmitSize*4
		slogger().Debug("stages: NGG budget",
			"es_verts", n.HWMaxESVerts, "gs_prims", n.MaxGSPrims,
			"out_verts", n.MaxOutVerts, "multi_cycle", n.MultiCycle, "iterations", n.Iterations, "converged", n.Converged)
	case gs != nil:
		es := s.esStage()
		g := gs.Module.Geometry
		r := budget.GS(p, budget.GSInput{
			VertsIn:        g.Input.VerticesPerPrimitive(),
			Adjacency:      g.Input.HasAdjacency(),
			Invocations:    g.Invocations,
			VerticesOut:    g.VerticesOut,
			ESGSItemSize:   es.Module.ABI.ESGSItemSize,
			GSVSVertexSize: gs.Module.ABI.GSVSVertexSize,
			ESWaveSize:     progs[es.Info.Program].WaveSize,
		})
		out.gs = &r
		if p.Caps.MergedShaders {
			progs[gs.Info.Program].LDSBytes = r.LDSSize * 128 * 4
		}
		slogger().Debug("stages: GS budget", "es_verts", r.ESVertsPerSubgroup, "gs_prims", r.GSPrimsPerSubgroup)
	}
	return out
}
