package regs

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

func basicDesc() *state.GraphicsPipelineDescription {
	return &state.GraphicsPipelineDescription{
		Stages: []state.StageDescriptor{
			{Stage: shader.StageVertex, EntryPoint: "vs_main"},
			{Stage: shader.StageFragment, EntryPoint: "fs_main"},
		},
		InputAssembly: state.InputAssemblyState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Viewport:      &state.ViewportState{ViewportCount: 1, ScissorCount: 1},
		DepthStencil: &state.DepthStencilState{
			DepthTest:    true,
			DepthCompare: gputypes.CompareFunctionLess,
		},
		ColorBlend: &state.ColorBlendState{
			Attachments: []state.ColorAttachmentBlend{{WriteMask: gputypes.ColorWriteMaskAll}},
		},
		Rendering: state.RenderingState{
			ColorFormats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
			DepthFormat:  gputypes.TextureFormatDepth32Float,
		},
	}
}

func basicInput(p *hw.Profile) *GraphicsInput {
	pi := info.Extract(basicDesc(), p)
	vsHW := shader.HWStageVS
	var ngg *budget.NGGInfo
	if p.Caps.NGG {
		vsHW = shader.HWStageNGG
		n := budget.NGG(p, budget.NGGInput{VertsPerPrim: 3, WaveSize: p.GEWaveSize})
		ngg = &n
	}
	return &GraphicsInput{
		Info: pi,
		// Fragment first: emission order must not depend on input order.
		Programs: []Program{
			{HW: shader.HWStageFS, Stages: shader.StageFragment.Mask(), VA: 0x1_0000_0100,
				Config: shader.Config{RSRC1: 0x11, RSRC2: 0x22, WaveSize: p.PSWaveSize}},
			{HW: vsHW, Stages: shader.StageVertex.Mask(), VA: 0x1_0000_0000,
				Config: shader.Config{RSRC1: 0x33, RSRC2: 0x44, WaveSize: p.GEWaveSize}},
		},
		VS:         VSOutput{NumParams: 1},
		PS:         PSConfig{InputEna: 2, InputAddr: 2, NumInterp: 1, Inputs: []PSInput{{Offset: 0}}},
		NGG:        ngg,
		OutPrim:    2,
		OutOfOrder: pi.OutOfOrderAllowed(p, nil),
	}
}

func TestEmitGraphicsOrder(t *testing.T) {
	for _, name := range []string{"polaris12", "raven", "navi10", "navi21", "gfx1100"} {
		t.Run(name, func(t *testing.T) {
			p := hw.MustLookup(name)
			seq := EmitGraphics(p, basicInput(p))
			ctx := &seq.Context

			if n := ctx.Count(DBDepthControl); n != 1 {
				t.Errorf("DB_DEPTH_CONTROL written %d times", n)
			}
			if n := ctx.Count(CBBlend0Control); n != 1 {
				t.Errorf("CB_BLEND0_CONTROL written %d times", n)
			}
			blend := ctx.Packets()[ctx.Index(CBBlend0Control)]
			if len(blend.Values) != 8 {
				t.Fatalf("blend array has %d registers", len(blend.Values))
			}
			for i, v := range blend.Values {
				if v != 0 {
					t.Errorf("CB_BLEND%d_CONTROL = %#x, want 0", i, v)
				}
			}

			order := []uint32{
				DBDepthControl, CBBlend0Control, PASuScModeCntl, PAScAAConfig,
				SPIVSOutConfig, SPIPSInputEna, SPIPSInputCntl0, VGTShaderStagesEn,
			}
			last := -1
			for _, addr := range order {
				idx := ctx.Index(addr)
				if idx <= last {
					t.Errorf("%s at %d, not after %d", Name(addr), idx, last)
				}
				last = idx
			}

			vsLo := uint32(SPIShaderPgmLoVS)
			if p.Caps.NGG {
				vsLo = SPIShaderPgmLoESGS
			}
			vs, ps := seq.Shader.Index(vsLo), seq.Shader.Index(SPIShaderPgmLoPS)
			if vs < 0 || ps < 0 || vs > ps {
				t.Errorf("vertex program at %d, fragment program at %d", vs, ps)
			}
			if lo, _ := seq.Shader.Get(SPIShaderPgmLoPS); lo != 0x1_0000_0100>>8 {
				t.Errorf("PGM_LO_PS = %#x", lo)
			}
			if hi, _ := seq.Shader.Get(SPIShaderPgmLoPS + 4); hi != 0 {
				t.Errorf("PGM_HI_PS = %#x", hi)
			}
			if rsrc2, _ := seq.Shader.Get(SPIShaderPgmRsrc1PS + 4); rsrc2 != 0x22 {
				t.Errorf("PGM_RSRC2_PS = %#x, want 0x22", rsrc2)
			}
			for _, pk := range ctx.Packets() {
				if !IsContext(pk.Addr) {
					t.Errorf("%s in context buffer", Name(pk.Addr))
				}
			}
			for _, pk := range seq.Shader.Packets() {
				if !IsSH(pk.Addr) {
					t.Errorf("%s in shader buffer", Name(pk.Addr))
				}
			}
		})
	}
}

func TestEmitGraphicsDeterministic(t *testing.T) {
	p := hw.MustLookup("navi21")
	a := EmitGraphics(p, basicInput(p))
	b := EmitGraphics(p, basicInput(p))
	if !bytes.Equal(a.Context.Bytes(), b.Context.Bytes()) || !bytes.Equal(a.Shader.Bytes(), b.Shader.Bytes()) {
		t.Fatal("register buffers differ between identical inputs")
	}
	if a.ContextHash != b.ContextHash {
		t.Fatal("context hash differs between identical inputs")
	}

	in := basicInput(p)
	in.Info.Raster.CullMode = gputypes.CullModeBack
	if EmitGraphics(p, in).ContextHash == a.ContextHash {
		t.Error("context hash ignores cull mode")
	}
}

func TestEmitOutOfOrder(t *testing.T) {
	p := hw.MustLookup("navi10")
	in := basicInput(p)
	if !in.OutOfOrder {
		t.Fatal("basic pipeline not out-of-order eligible")
	}
	mc1, ok := EmitGraphics(p, in).Context.Get(PAScModeCntl1)
	if !ok || mc1&(1<<25) == 0 {
		t.Errorf("PA_SC_MODE_CNTL_1 = %#x, out-of-order bit clear", mc1)
	}
}

func TestBinnerCntl(t *testing.T) {
	raven := hw.MustLookup("raven")
	tests := []struct {
		name    string
		profile *hw.Profile
		bin     budget.Extent
		want    uint32
	}{
		{"disabled gfx9", raven, budget.Extent{}, BinningDisabledLegacySC | 1<<18},
		{"disabled gfx10", hw.MustLookup("navi10"), budget.Extent{}, BinningDisabledNewSC | 1<<18},
		{"16x16", raven, budget.Extent{Width: 16, Height: 16}, 1<<2 | 1<<3 | 1<<18 | 63<<19 | 1<<27},
		{"64x32", raven, budget.Extent{Width: 64, Height: 32}, 1<<4 | 1<<18 | 63<<19 | 1<<27},
		{"128x128", raven, budget.Extent{Width: 128, Height: 128}, 2<<4 | 2<<7 | 1<<18 | 63<<19 | 1<<27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BinnerCntl(tt.profile, tt.bin); got != tt.want {
				t.Errorf("BinnerCntl() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestCliprectRule(t *testing.T) {
	tests := []struct {
		d    info.DiscardRectangleInfo
		want uint32
	}{
		{info.DiscardRectangleInfo{}, 0xFFFF},
		{info.DiscardRectangleInfo{Mode: state.DiscardInclusive, Count: 1}, 0xAAAA},
		{info.DiscardRectangleInfo{Mode: state.DiscardExclusive, Count: 1}, 0x5555},
		{info.DiscardRectangleInfo{Mode: state.DiscardExclusive, Count: 4}, 0x0001},
		{info.DiscardRectangleInfo{Mode: state.DiscardInclusive, Count: 4}, 0xFFFE},
	}
	for _, tt := range tests {
		if got := CliprectRule(tt.d); got != tt.want {
			t.Errorf("CliprectRule(%+v) = %#x, want %#x", tt.d, got, tt.want)
		}
	}
}

func TestShaderStagesEn(t *testing.T) {
	p := hw.MustLookup("polaris12")
	in := basicInput(p)
	if got := ShaderStagesEn(p, in); got != 0 {
		t.Errorf("VS+PS on GFX8 = %#x, want 0", got)
	}

	desc := basicDesc()
	desc.Stages = append(desc.Stages, state.StageDescriptor{Stage: shader.StageGeometry})
	in.Info = info.Extract(desc, p)
	if got, want := ShaderStagesEn(p, in), uint32(esStageReal<<3|1<<5|vsStageCopy<<6); got != want {
		t.Errorf("legacy GS = %#x, want %#x", got, want)
	}

	p = hw.MustLookup("navi21")
	in = basicInput(p)
	in.NGGPassthrough = true
	got := ShaderStagesEn(p, in)
	if got&(1<<13) == 0 || got&(1<<15) == 0 {
		t.Errorf("NGG passthrough = %#x, primgen bits clear", got)
	}
	if got&(1<<22) == 0 {
		t.Errorf("NGG wave32 = %#x, GS_W32_EN clear", got)
	}
}

func TestEmitTessParam(t *testing.T) {
	p := hw.MustLookup("navi21")
	desc := basicDesc()
	desc.Stages = append(desc.Stages,
		state.StageDescriptor{Stage: shader.StageTessControl},
		state.StageDescriptor{Stage: shader.StageTessEval})
	desc.Tessellation = &state.TessellationState{PatchControlPoints: 3, DomainOriginUpperLeft: true}
	in := basicInput(p)
	in.Info = info.Extract(desc, p)
	in.Tess = &TessConfig{
		Domain:         shader.TessTriangles,
		CCW:            true,
		InputVertices:  3,
		OutputVertices: 3,
		Budget:         budget.TessInfo{NumPatches: 40},
	}
	seq := EmitGraphics(p, in)
	param, ok := seq.Context.Get(VGTTFParam)
	if want := uint32(tessTriangle | topoTriCCW<<5 | distTrapezo<<17); !ok || param != want {
		t.Errorf("VGT_TF_PARAM = %#x, want %#x", param, want)
	}
	cfg, _ := seq.Context.Get(VGTLSHSConfig)
	if want := uint32(40 | 3<<8 | 3<<14); cfg != want {
		t.Errorf("VGT_LS_HS_CONFIG = %#x, want %#x", cfg, want)
	}
	if seq.Context.Index(VGTTFParam) < seq.Context.Index(SPIVSOutConfig) ||
		seq.Context.Index(VGTTFParam) > seq.Context.Index(SPIPSInputEna) {
		t.Error("tessellation registers out of order")
	}
}

func TestEmitCompute(t *testing.T) {
	tests := []struct {
		profile    string
		workgroup  [3]uint32
		wave       uint32
		wantLimits uint32
	}{
		{"raven", [3]uint32{64, 1, 1}, 64, 0},
		{"raven", [3]uint32{16, 16, 1}, 64, 1<<12 | 1<<22},
		{"raven", [3]uint32{8, 8, 3}, 64, 1 << 12},
		{"navi21", [3]uint32{16, 16, 1}, 32, 1 << 12},
	}
	for _, tt := range tests {
		p := hw.MustLookup(tt.profile)
		seq := EmitCompute(p, &ComputeInput{
			Program:   Program{HW: shader.HWStageCS, VA: 0x2000, Config: shader.Config{WaveSize: tt.wave}},
			Workgroup: tt.workgroup,
		})
		if got, _ := seq.Shader.Get(ComputeResourceLimits); got != tt.wantLimits {
			t.Errorf("%s %v: COMPUTE_RESOURCE_LIMITS = %#x, want %#x", tt.profile, tt.workgroup, got, tt.wantLimits)
		}
		if z, _ := seq.Shader.Get(ComputeNumThreadX + 8); z != tt.workgroup[2] {
			t.Errorf("COMPUTE_NUM_THREAD_Z = %d", z)
		}
		_, hasRsrc3 := seq.Shader.Get(ComputePgmRsrc3)
		if hasRsrc3 != (p.Level >= hw.GFX10) {
			t.Errorf("%s: RSRC3 written = %v", tt.profile, hasRsrc3)
		}
		if seq.Context.Len() != 0 {
			t.Errorf("compute wrote %d context registers", seq.Context.Len())
		}
	}
}

func TestBufferString(t *testing.T) {
	var b Buffer
	b.SetSeq(CBTargetMask, 0xF, 0xF)
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("String() has %d lines", len(lines))
	}
	for i, want := range []string{"CB_TARGET_MASK", "CB_SHADER_MASK"} {
		f := strings.Fields(lines[i])
		if len(f) != 2 || f[0] != want || f[1] != "0x0000000F" {
			t.Errorf("line %d = %q", i, lines[i])
		}
	}
	if got := Name(0x028FFC); got != "0x028FFC" {
		t.Errorf("Name(unknown) = %q", got)
	}
}
