package stages

import (
	"crypto/sha256"

	"github.com/gogpu/pipec/shader"
)

// copyShader synthesizes the hardware VS that reads legacy GS output
// from the GSVS ring and exports it to the rasterizer. It is built from
// the geometry stage's output metadata only.
func copyShader(gs *Context) *shader.Module {
	src := gs.Module
	id := src.Digest()
	m := &shader.Module{
		Stage:           shader.StageGeometry,
		EntryPoint:      "gs_copy",
		Identity:        sha256.Sum256(append([]byte("gs-copy:"), id[:]...)),
		Outputs:         append([]shader.Variable(nil), src.Outputs...),
		BuiltinsWritten: src.BuiltinsWritten,
		Geometry:        src.Geometry,
	}
	if src.XFB != nil {
		x := *src.XFB
		x.Outputs = append([]shader.XFBOutput(nil), src.XFB.Outputs...)
		m.XFB = &x
	}
	// Only stream 0 reaches the rasterizer.
	m.Geometry.StreamMask = 1
	m.ABI = &shader.Lowering{
		GSVSVertexSize:    src.ABI.GSVSVertexSize,
		ExportPrimitiveID: src.ABI.ExportPrimitiveID,
	}
	return m
}

// copyProgram returns the program entry for the copy shader.
func copyProgram(gs *Context) Program {
	prog := Program{
		HW:         shader.HWStageVS,
		Stages:     shader.StageGeometry.Mask(),
		CopyShader: true,
		WaveSize:   64,
		Modules:    []*shader.Module{copyShader(gs)},
	}
	prog.Name, prog.Description = executableName(&prog)
	return prog
}
