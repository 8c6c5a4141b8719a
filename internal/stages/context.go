package stages

import (
	"errors"
	"fmt"

	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Phase names the step of the stage pipeline that failed.
type Phase uint8

// Phases that can fail.
const (
	PhaseIngest Phase = iota
	PhaseCompile
)

func (ph Phase) String() string {
	if ph == PhaseIngest {
		return "ingest"
	}
	return "compile"
}

// ErrNoCompiler is returned when Options lacks a backend.
var ErrNoCompiler = errors.New("stages: no compiler")

// StageError reports a failed ingest or backend compile of one stage.
type StageError struct {
	Stage shader.Stage
	Phase Phase
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stages: %s %s: %v", e.Phase, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configure one construction call.
type Options struct {
	Ingester shader.Ingester
	Compiler shader.Compiler

	DisableOptimization bool
	CaptureIR           bool
}

func (o *Options) compileOptions() shader.CompileOptions {
	return shader.CompileOptions{
		DisableOptimization: o.DisableOptimization,
		CaptureIR:           o.CaptureIR,
	}
}

// StageInfo is the per-logical-stage record filled by link and info
// fill. Merged stages keep separate records.
type StageInfo struct {
	HW shader.HWStage
	// Next is the consuming logical stage; NumStages when the outputs
	// feed the rasterizer, or for the fragment stage.
	Next shader.Stage

	NumInputSlots  uint32
	NumOutputSlots uint32
	// NumPatchOutputSlots counts per-patch output slots of a TCS.
	NumPatchOutputSlots uint32
	// NumPrimOutputSlots counts per-primitive output slots of a mesh stage.
	NumPrimOutputSlots uint32

	// OutputsRemoved counts outputs dropped because nothing reads them.
	OutputsRemoved int
	// InputsDefaulted counts inputs no earlier stage writes.
	InputsDefaulted int
	Vectorized      int

	ClipDistMask uint8
	CullDistMask uint8

	WritesPointSize   bool
	WritesLayer       bool
	WritesViewport    bool
	WritesShadingRate bool

	// ExportPrimitiveID is set on the last pre-rasterization stage when
	// it exports a primitive ID the module itself never writes.
	ExportPrimitiveID bool
	// LayerFromView is set when multiview injected a layer output.
	LayerFromView bool
	// ViewportZero is set on the fragment stage when it reads a
	// viewport index nobody writes.
	ViewportZero bool

	NGG            bool
	NGGCulling     bool
	NGGPassthrough bool

	WaveSize uint32
	// XFBBuffers has a bit per transform feedback buffer written.
	XFBBuffers uint8

	// Program is the index of the hardware program the stage compiles
	// into, or -1.
	Program int
	// Args is shared with the other stage of a merged program.
	Args *shader.ArgLayout
}

// Context is the state of one logical stage during construction.
type Context struct {
	Stage  shader.Stage
	Desc   state.StageDescriptor
	Module *shader.Module
	Info   StageInfo
}

func newContext(sd state.StageDescriptor) *Context {
	return &Context{
		Stage: sd.Stage,
		Desc:  sd,
		Info:  StageInfo{Next: shader.NumStages, Program: -1},
	}
}

// ingest loads the module of c and applies the descriptor's
// specialization values.
func (c *Context) ingest(in shader.Ingester) error {
	m, err := in.Ingest(c.Stage, c.Desc.Module, c.Desc.EntryPoint)
	if err != nil {
		return &StageError{Stage: c.Stage, Phase: PhaseIngest, Err: err}
	}
	// Linking and lowering rewrite the module in place.
	m = m.Clone()
	if len(c.Desc.Specialization) > 0 {
		if m.Overrides == nil {
			m.Overrides = make(map[string]float64, len(c.Desc.Specialization))
		}
		for k, v := range c.Desc.Specialization {
			m.Overrides[k] = v
		}
	}
	c.Module = m
	return nil
}

// set is the per-pipeline array of stage contexts.
type set [shader.NumStages]*Context

// order returns the present stages in pipeline order.
func (s *set) order() []*Context {
	var out []*Context
	for _, c := range s {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// lastPreRaster returns the stage whose outputs feed the rasterizer.
func (s *set) lastPreRaster() *Context {
	for _, st := range []shader.Stage{shader.StageGeometry, shader.StageMesh, shader.StageTessEval, shader.StageVertex} {
		if s[st] != nil {
			return s[st]
		}
	}
	return nil
}
