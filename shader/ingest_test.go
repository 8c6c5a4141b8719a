package shader

import (
	"errors"
	"testing"
)

const triangleWGSL = `
struct VSOut {
    @builtin(position) pos: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) uv: vec2<f32>,
};

@group(0) @binding(0) var<uniform> mvp: mat4x4<f32>;

@vertex
fn vs_main(@location(0) position: vec3<f32>, @location(1) color: vec4<f32>) -> VSOut {
    var out: VSOut;
    out.pos = mvp * vec4<f32>(position, 1.0);
    out.color = color;
    out.uv = position.xy;
    return out;
}

@fragment
fn fs_main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

func TestNagaIngestVertex(t *testing.T) {
	m, err := NagaIngester{}.Ingest(StageVertex, ModuleRef{Name: "tri", WGSL: triangleWGSL}, "vs_main")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if m.EntryPoint != "vs_main" {
		t.Errorf("EntryPoint = %q", m.EntryPoint)
	}
	if len(m.Inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(m.Inputs))
	}
	if m.Inputs[0].Components != 3 || m.Inputs[1].Components != 4 {
		t.Errorf("input components = %d,%d, want 3,4", m.Inputs[0].Components, m.Inputs[1].Components)
	}
	if len(m.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(m.Outputs))
	}
	if !m.Writes(BuiltinPosition) {
		t.Error("vertex stage should write position")
	}
	if len(m.Resources) != 1 || m.Resources[0].Kind != ResourceUniformBuffer {
		t.Errorf("resources = %+v, want one uniform buffer", m.Resources)
	}
	if m.IR == nil {
		t.Error("naga IR should be retained")
	}
}

func TestNagaIngestFragment(t *testing.T) {
	m, err := NagaIngester{}.Ingest(StageFragment, ModuleRef{Name: "tri", WGSL: triangleWGSL}, "fs_main")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if m.Fragment.ColorsWritten != 1 {
		t.Errorf("ColorsWritten = %#x, want 0x1", m.Fragment.ColorsWritten)
	}
	if len(m.Inputs) != 1 {
		t.Errorf("inputs = %d, want 1", len(m.Inputs))
	}
	if m.Fragment.DualSource {
		t.Error("unexpected dual source")
	}
}

func TestNagaIngestErrors(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		ref   ModuleRef
		entry string
		want  error
	}{
		{"missing entry", StageVertex, ModuleRef{WGSL: triangleWGSL}, "nope", ErrEntryPointNotFound},
		{"wrong stage", StageFragment, ModuleRef{WGSL: triangleWGSL}, "vs_main", ErrStageMismatch},
		{"no tess in wgsl", StageTessControl, ModuleRef{WGSL: triangleWGSL}, "", ErrStageMismatch},
		{"empty", StageVertex, ModuleRef{Name: "empty"}, "", ErrEmptyModuleRef},
		{"syntax", StageVertex, ModuleRef{WGSL: "fn ("}, "", ErrParse},
		{"prebuilt stage", StageGeometry, ModuleRef{Module: &Module{Stage: StageVertex}}, "", ErrStageMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NagaIngester{}.Ingest(tt.stage, tt.ref, tt.entry)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIngestPrebuiltClones(t *testing.T) {
	src := &Module{
		Stage:    StageGeometry,
		Outputs:  []Variable{{Location: 0, Components: 4}},
		Geometry: GeometryInfo{Input: GSTriangles, Output: GSTriangleStrip, VerticesOut: 3, Invocations: 1},
	}
	m, err := NagaIngester{}.Ingest(StageGeometry, ModuleRef{Module: src}, "main")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if m == src {
		t.Fatal("prebuilt module should be cloned")
	}
	m.Outputs[0].Slot = 7
	if src.Outputs[0].Slot != 0 {
		t.Error("clone shares output slice with source")
	}
	if m.Identity == ([32]byte{}) {
		t.Error("identity should be derived for prebuilt modules")
	}
	if m.EntryPoint != "main" {
		t.Errorf("EntryPoint = %q, want main", m.EntryPoint)
	}
}

func TestDigestSensitivity(t *testing.T) {
	base := &Module{Stage: StageVertex, Outputs: []Variable{{Location: 0, Components: 4}}}
	d0 := base.Digest()
	if d0 != base.Clone().Digest() {
		t.Fatal("clone digest differs")
	}
	mod := base.Clone()
	mod.Outputs[0].Slot = 1
	if mod.Digest() == d0 {
		t.Error("digest should change with slot assignment")
	}
	mod = base.Clone()
	mod.Overrides = map[string]float64{"scale": 2}
	if mod.Digest() == d0 {
		t.Error("digest should change with overrides")
	}
}
