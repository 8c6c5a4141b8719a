package pipec

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

func openNoop(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend exposes no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		open.Device.Destroy()
		instance.Destroy()
	})
	return open.Device, open.Queue
}

func newDevice(t *testing.T, profile string, opts ...Option) *Device {
	t.Helper()
	device, queue := openNoop(t)
	d, err := New(device, queue, hw.MustLookup(profile), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

var errInjected = errors.New("injected backend failure")

// countingCompiler counts backend calls and fails the failAt-th one.
type countingCompiler struct {
	shader.NagaCompiler
	calls  atomic.Int32
	failAt atomic.Int32
}

func (c *countingCompiler) Compile(req *shader.CompileRequest) (*shader.Binary, error) {
	n := c.calls.Add(1)
	if f := c.failAt.Load(); f != 0 && n == f {
		return nil, &shader.BackendError{Stages: req.StageMask(), Err: errInjected}
	}
	return c.NagaCompiler.Compile(req)
}

func builtins(bs ...shader.Builtin) shader.BuiltinMask {
	var m shader.BuiltinMask
	for _, b := range bs {
		m = m.With(b)
	}
	return m
}

func position() shader.Variable {
	return shader.Variable{Name: "position", Builtin: shader.BuiltinPosition, Components: 4}
}

func vsModule() *shader.Module {
	return &shader.Module{
		Stage:           shader.StageVertex,
		EntryPoint:      "vs_main",
		Inputs:          []shader.Variable{{Name: "pos", Location: 0, Components: 4}},
		Outputs:         []shader.Variable{position(), {Name: "color", Location: 0, Components: 4}},
		BuiltinsRead:    builtins(shader.BuiltinVertexIndex),
		BuiltinsWritten: builtins(shader.BuiltinPosition),
	}
}

func fsModule() *shader.Module {
	return &shader.Module{
		Stage:      shader.StageFragment,
		EntryPoint: "fs_main",
		Inputs:     []shader.Variable{{Name: "color", Location: 0, Components: 4}},
		Outputs:    []shader.Variable{{Name: "target0", Location: 0, Components: 4}},
		Fragment:   shader.FragmentInfo{ColorsWritten: 1},
	}
}

// mrtModule writes two color targets.
func mrtModule() *shader.Module {
	m := fsModule()
	m.Outputs = append(m.Outputs, shader.Variable{Name: "target1", Location: 1, Components: 4})
	m.Fragment.ColorsWritten = 3
	return m
}

func tcsModule() *shader.Module {
	return &shader.Module{
		Stage:      shader.StageTessControl,
		EntryPoint: "tcs_main",
		Inputs:     []shader.Variable{{Name: "color", Location: 0, Components: 4}},
		Outputs:    []shader.Variable{{Name: "color", Location: 0, Components: 4}},
		Tess:       shader.TessInfo{OutputVertices: 3},
	}
}

func tesModule() *shader.Module {
	return &shader.Module{
		Stage:           shader.StageTessEval,
		EntryPoint:      "tes_main",
		Inputs:          []shader.Variable{{Name: "color", Location: 0, Components: 4}},
		Outputs:         []shader.Variable{position(), {Name: "color", Location: 0, Components: 4}},
		BuiltinsWritten: builtins(shader.BuiltinPosition),
		Tess:            shader.TessInfo{Primitive: shader.TessTriangles, Spacing: shader.SpacingFractionalOdd},
	}
}

func gsModule() *shader.Module {
	return &shader.Module{
		Stage:           shader.StageGeometry,
		EntryPoint:      "gs_main",
		Inputs:          []shader.Variable{{Name: "color", Location: 0, Components: 4}},
		Outputs:         []shader.Variable{position(), {Name: "color", Location: 0, Components: 4}},
		BuiltinsWritten: builtins(shader.BuiltinPosition),
		Geometry: shader.GeometryInfo{
			Input:       shader.GSTriangles,
			Output:      shader.GSTriangleStrip,
			VerticesOut: 3,
			Invocations: 1,
		},
	}
}

func csModule() *shader.Module {
	return &shader.Module{
		Stage:        shader.StageCompute,
		EntryPoint:   "cs_main",
		Workgroup:    [3]uint32{8, 8, 1},
		BuiltinsRead: builtins(shader.BuiltinNumWorkgroups),
		Resources:    []shader.Resource{{Set: 0, Binding: 0, Kind: shader.ResourceStorageBuffer, Count: 1, Written: true}},
	}
}

// graphicsDesc is a triangle-list pipeline with one RGBA8 target and no
// blending.
func graphicsDesc(mods ...*shader.Module) *state.GraphicsPipelineDescription {
	desc := &state.GraphicsPipelineDescription{
		VertexInput: &state.VertexInputState{
			Buffers: []gputypes.VertexBufferLayout{{
				ArrayStride: 16,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x4, ShaderLocation: 0},
				},
			}},
		},
		InputAssembly: state.InputAssemblyState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Viewport:      &state.ViewportState{ViewportCount: 1, ScissorCount: 1},
		ColorBlend: &state.ColorBlendState{
			Attachments: []state.ColorAttachmentBlend{{WriteMask: gputypes.ColorWriteMaskAll}},
		},
		Rendering: state.RenderingState{
			ColorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
		},
	}
	for _, m := range mods {
		desc.Stages = append(desc.Stages, state.StageDescriptor{
			Stage:  m.Stage,
			Module: shader.ModuleRef{Name: m.EntryPoint, Module: m},
		})
		if m.Stage == shader.StageTessControl {
			desc.Tessellation = &state.TessellationState{PatchControlPoints: 3}
		}
	}
	return desc
}

func computeDesc() *state.ComputePipelineDescription {
	cs := csModule()
	return &state.ComputePipelineDescription{
		Label: "fill",
		Stage: state.StageDescriptor{Stage: shader.StageCompute, Module: shader.ModuleRef{Name: "fill", Module: cs}},
	}
}

// findReg returns the index and values of the first write starting at
// reg, or -1.
func findReg(ws []RegisterWrite, reg uint32) (int, []uint32) {
	for i, w := range ws {
		if w.Reg == reg {
			return i, w.Values
		}
	}
	return -1, nil
}

func countReg(ws []RegisterWrite, reg uint32) int {
	n := 0
	for _, w := range ws {
		if w.Reg == reg {
			n++
		}
	}
	return n
}
