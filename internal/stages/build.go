package stages

import (
	"sort"

	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/regs"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/shader"
)

// sysParams are the parameter slots of system values the fragment stage
// reads, after the user parameters. A zero offset-plus-one means the
// value is not exported.
type sysParams struct {
	primitiveID, layer, viewport uint32
}

// exportedParams returns the parameter count of the last
// pre-rasterization stage and where its system values land.
func exportedParams(s *set, last *Context) (n uint32, sys sysParams) {
	n = last.Info.NumOutputSlots
	fs := s[shader.StageFragment]
	if fs == nil {
		return n, sys
	}
	si := &last.Info
	m := fs.Module
	if m.Reads(shader.BuiltinPrimitiveID) && (last.Module.Writes(shader.BuiltinPrimitiveID) || si.ExportPrimitiveID) {
		n++
		sys.primitiveID = n
	}
	if m.Reads(shader.BuiltinLayer) && si.WritesLayer {
		n++
		sys.layer = n
	}
	if m.Reads(shader.BuiltinViewportIndex) && si.WritesViewport {
		n++
		sys.viewport = n
	}
	return n, sys
}

func buildVS(s *set, last *Context) regs.VSOutput {
	si := &last.Info
	n, _ := exportedParams(s, last)
	return regs.VSOutput{
		NumParams:         n,
		NumPrimParams:     si.NumPrimOutputSlots,
		ClipDistMask:      si.ClipDistMask,
		CullDistMask:      si.CullDistMask,
		WritesPointSize:   si.WritesPointSize,
		WritesLayer:       si.WritesLayer,
		WritesViewport:    si.WritesViewport,
		WritesShadingRate: si.WritesShadingRate,
		ExportPrimitiveID: si.ExportPrimitiveID,
	}
}

func psInput(offset uint32, flat, perPrim bool) regs.PSInput {
	if offset == 0 {
		return regs.PSInput{Offset: regs.DefaultInputOffset}
	}
	return regs.PSInput{Offset: offset - 1, Flat: flat, PerPrimitive: perPrim}
}

// buildPS resolves the fragment program state. Inputs are listed in
// location order, system values last.
func buildPS(s *set, last *Context, pi *info.PipelineInfo) regs.PSConfig {
	fs := s[shader.StageFragment]
	m := fs.Module

	vars := make([]shader.Variable, 0, len(m.Inputs))
	for _, v := range m.Inputs {
		if !v.IsBuiltin() {
			vars = append(vars, v)
		}
	}
	sort.SliceStable(vars, func(i, j int) bool { return vars[i].Location < vars[j].Location })

	var inputs []regs.PSInput
	// Linking has split arrays into one input per element.
	for _, v := range vars {
		if v.Slot == ^uint32(0) {
			inputs = append(inputs, regs.PSInput{Offset: regs.DefaultInputOffset})
			continue
		}
		inputs = append(inputs, regs.PSInput{Offset: v.Slot, Flat: v.Interp == shader.InterpFlat, PerPrimitive: v.PerPrimitive})
	}

	var sys sysParams
	if last != nil {
		_, sys = exportedParams(s, last)
	}
	if m.Reads(shader.BuiltinPrimitiveID) {
		inputs = append(inputs, psInput(sys.primitiveID, true, last != nil && last.Stage == shader.StageMesh))
	}
	if m.Reads(shader.BuiltinLayer) {
		inputs = append(inputs, psInput(sys.layer, true, last != nil && last.Stage == shader.StageMesh))
	}
	if m.Reads(shader.BuiltinViewportIndex) {
		// ViewportZero reads the default constant.
		inputs = append(inputs, psInput(sys.viewport, true, last != nil && last.Stage == shader.StageMesh))
	}

	ena := psInputEna(m)
	f := &m.Fragment
	return regs.PSConfig{
		InputEna:         ena,
		InputAddr:        ena,
		NumInterp:        uint32(len(inputs)),
		Inputs:           inputs,
		WritesZ:          f.WritesDepth || m.Writes(shader.BuiltinFragDepth),
		WritesStencil:    f.WritesStencil || m.Writes(shader.BuiltinFragStencilRef),
		WritesSampleMask: f.WritesSampleMask || m.Writes(shader.BuiltinSampleMask),
		Kill:             f.Discards,
		EarlyTests:       f.EarlyFragmentTests,
		WritesMemory:     info.WritesMemory(m),
		SampleShading:    f.SampleShading || m.Reads(shader.BuiltinSampleIndex) || pi.Multisample.PSIterSamples() > 1,
		ReadsFrontFace:   m.Reads(shader.BuiltinFrontFacing),
	}
}

func buildGeometry(gs *Context) *regs.GeometryConfig {
	g := gs.Module.Geometry
	cfg := &regs.GeometryConfig{
		MaxVertOut:  g.VerticesOut,
		Invocations: max(g.Invocations, 1),
	}
	streams := g.StreamMask
	if streams == 0 {
		streams = 1
	}
	for i := range cfg.VertexSize {
		if streams&(1<<i) != 0 {
			cfg.VertexSize[i] = gs.Module.ABI.GSVSVertexSize / 4
		}
	}
	return cfg
}

func buildTess(s *set, pi *info.PipelineInfo, sz sizing) *regs.TessConfig {
	tes := s[shader.StageTessEval].Module.Tess
	return &regs.TessConfig{
		Domain:         tes.Primitive,
		Spacing:        tes.Spacing,
		CCW:            tes.CCW,
		PointMode:      tes.PointMode,
		InputVertices:  pi.Tess.PatchControlPoints,
		OutputVertices: s[shader.StageTessControl].Module.Tess.OutputVertices,
		Budget:         *sz.tess,
	}
}

func gsOutPrim(p shader.GSPrimitive) uint32 {
	switch p {
	case shader.GSPoints:
		return translate.OutPrimPointList
	case shader.GSLines, shader.GSLineStrip, shader.GSLinesAdjacency:
		return translate.OutPrimLineStrip
	default:
		return translate.OutPrimTriStrip
	}
}

// outPrim returns the primitive type leaving the geometry front end.
func outPrim(s *set, pi *info.PipelineInfo) uint32 {
	switch {
	case s[shader.StageGeometry] != nil:
		return gsOutPrim(s[shader.StageGeometry].Module.Geometry.Output)
	case s[shader.StageMesh] != nil:
		return gsOutPrim(s[shader.StageMesh].Module.Mesh.Output)
	case s[shader.StageTessEval] != nil:
		t := s[shader.StageTessEval].Module.Tess
		switch {
		case t.PointMode:
			return translate.OutPrimPointList
		case t.Primitive == shader.TessIsolines:
			return translate.OutPrimLineStrip
		}
		return translate.OutPrimTriStrip
	}
	return translate.GSOutPrim(pi.InputAssembly.Topology)
}
