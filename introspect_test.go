package pipec

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/pipec/shader"
)

func TestExecutables(t *testing.T) {
	dev := newDevice(t, "polaris12")
	p, err := dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), gsModule(), fsModule()),
		CaptureStatistics|CaptureInternalRepresentations)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()

	key := p.Key()
	exes := p.Executables()
	names := []string{"Vertex Shader", "Geometry Shader", "GS Copy Shader", "Fragment Shader"}
	if len(exes) != len(names) {
		t.Fatalf("%d executables, want %d", len(exes), len(names))
	}
	for i, want := range names {
		if exes[i].Name != want {
			t.Errorf("executable %d = %q, want %q", i, exes[i].Name, want)
		}
	}
	if exes[2].SubgroupSize != 64 {
		t.Errorf("copy shader subgroup size = %d, want 64", exes[2].SubgroupSize)
	}
	if !exes[2].Stages.Has(shader.StageGeometry) {
		t.Errorf("copy shader stages = %v", exes[2].Stages)
	}

	for i, exe := range exes {
		stats, err := p.Statistics(i)
		if err != nil {
			t.Fatalf("Statistics(%d): %v", i, err)
		}
		if len(stats) != 9 {
			t.Fatalf("%s: %d statistics, want 9", exe.Name, len(stats))
		}
		byName := make(map[string]uint64, len(stats))
		for _, s := range stats {
			byName[s.Name] = s.Value
		}
		if got := byName["Code size"]; got != p.Shaders()[i].CodeSize || got == 0 {
			t.Errorf("%s: code size %d, shader reports %d", exe.Name, got, p.Shaders()[i].CodeSize)
		}
		if got, want := byName["Driver pipeline hash"], binary.LittleEndian.Uint64(key[:8]); got != want {
			t.Errorf("%s: pipeline hash %#x, want %#x", exe.Name, got, want)
		}
		if byName["Subgroups per SIMD"] != uint64(p.Shaders()[i].MaxWaves) {
			t.Errorf("%s: subgroups %d, shader reports %d", exe.Name, byName["Subgroups per SIMD"], p.Shaders()[i].MaxWaves)
		}
	}

	reps, err := p.Representations(0)
	if err != nil {
		t.Fatalf("Representations(0): %v", err)
	}
	found := map[string]string{}
	for _, r := range reps {
		found[r.Name] = r.Text
	}
	if !strings.Contains(found["NIR Shader(s)"], "vs_main") {
		t.Errorf("vertex IR = %q", found["NIR Shader(s)"])
	}
	if found["Assembly"] == "" {
		t.Error("no assembly captured")
	}
}

func TestIntrospectionErrors(t *testing.T) {
	dev := newDevice(t, "navi10")
	p, err := dev.CreateGraphicsPipeline(graphicsDesc(vsModule(), fsModule()), 0)
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline: %v", err)
	}
	defer p.Destroy()

	if _, err := p.Statistics(0); !errors.Is(err, ErrNotCaptured) {
		t.Errorf("Statistics without capture: %v", err)
	}
	if _, err := p.Representations(0); !errors.Is(err, ErrNotCaptured) {
		t.Errorf("Representations without capture: %v", err)
	}
	if _, err := p.Statistics(len(p.Executables())); err == nil {
		t.Error("Statistics out of range succeeded")
	}
	if _, err := p.Statistics(-1); err == nil {
		t.Error("Statistics(-1) succeeded")
	}
}

func TestLDSIncrement(t *testing.T) {
	tests := []struct {
		profile string
		hws     shader.HWStage
		want    uint64
	}{
		{"gfx1100", shader.HWStageFS, 1024},
		{"gfx1100", shader.HWStageNGG, 512},
		{"navi21", shader.HWStageFS, 512},
		{"hawaii", shader.HWStageVS, 512},
		{"tahiti", shader.HWStageFS, 256},
	}
	for _, tt := range tests {
		dev := newDevice(t, tt.profile)
		if got := ldsIncrement(dev.Profile(), tt.hws); got != tt.want {
			t.Errorf("%s %s: ldsIncrement() = %d, want %d", tt.profile, tt.hws, got, tt.want)
		}
	}
}
