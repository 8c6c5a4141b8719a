package translate

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/state"
)

var allFactors = []gputypes.BlendFactor{
	gputypes.BlendFactorZero,
	gputypes.BlendFactorOne,
	gputypes.BlendFactorSrc,
	gputypes.BlendFactorOneMinusSrc,
	gputypes.BlendFactorSrcAlpha,
	gputypes.BlendFactorOneMinusSrcAlpha,
	gputypes.BlendFactorDst,
	gputypes.BlendFactorOneMinusDst,
	gputypes.BlendFactorDstAlpha,
	gputypes.BlendFactorOneMinusDstAlpha,
	gputypes.BlendFactorSrcAlphaSaturated,
	gputypes.BlendFactorConstant,
	gputypes.BlendFactorOneMinusConstant,
	state.BlendFactorSrc1,
	state.BlendFactorOneMinusSrc1,
	state.BlendFactorSrc1Alpha,
	state.BlendFactorOneMinusSrc1Alpha,
	state.BlendFactorConstantAlpha,
	state.BlendFactorOneMinusConstantAlpha,
}

var allOps = []gputypes.BlendOperation{
	gputypes.BlendOperationAdd,
	gputypes.BlendOperationSubtract,
	gputypes.BlendOperationReverseSubtract,
	gputypes.BlendOperationMin,
	gputypes.BlendOperationMax,
}

func oneTarget(c gputypes.BlendComponent) *BlendParams {
	return &BlendParams{
		Attachments: []state.ColorAttachmentBlend{{
			BlendEnable: true,
			Color:       c,
			Alpha:       c,
			WriteMask:   gputypes.ColorWriteMaskAll,
		}},
		Formats: []gputypes.TextureFormat{gputypes.TextureFormatRGBA16Float},
		RBPlus:  true,
	}
}

func TestReduceBlendCommutativity(t *testing.T) {
	for _, op := range allOps {
		for _, src := range allFactors {
			for _, dst := range allFactors {
				b := ReduceBlend(oneTarget(gputypes.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: op}))
				set := b.Commutative4Bit&0xF == 0xF
				switch {
				case op == gputypes.BlendOperationMin || op == gputypes.BlendOperationMax:
					if !set {
						t.Errorf("%v %v %v: commutative bits %#x, want 0xf", op, src, dst, b.Commutative4Bit)
					}
				case op == gputypes.BlendOperationAdd && dst == gputypes.BlendFactorOne && !UsesDst(src):
					if !set {
						t.Errorf("%v %v %v: commutative bits %#x, want 0xf", op, src, dst, b.Commutative4Bit)
					}
				case op == gputypes.BlendOperationSubtract || op == gputypes.BlendOperationReverseSubtract:
					if b.Commutative4Bit != 0 {
						t.Errorf("%v %v %v: commutative bits %#x, want 0", op, src, dst, b.Commutative4Bit)
					}
				}
			}
		}
	}
}

func TestRemoveDst(t *testing.T) {
	tests := []struct {
		name    string
		op      gputypes.BlendOperation
		src     gputypes.BlendFactor
		dst     gputypes.BlendFactor
		wantOp  gputypes.BlendOperation
		wantSrc gputypes.BlendFactor
		wantDst gputypes.BlendFactor
	}{
		{"add", gputypes.BlendOperationAdd, gputypes.BlendFactorDst, gputypes.BlendFactorZero,
			gputypes.BlendOperationAdd, gputypes.BlendFactorZero, gputypes.BlendFactorSrc},
		{"subtract reverses", gputypes.BlendOperationSubtract, gputypes.BlendFactorDst, gputypes.BlendFactorZero,
			gputypes.BlendOperationReverseSubtract, gputypes.BlendFactorZero, gputypes.BlendFactorSrc},
		{"reverse subtract reverses", gputypes.BlendOperationReverseSubtract, gputypes.BlendFactorDst, gputypes.BlendFactorZero,
			gputypes.BlendOperationSubtract, gputypes.BlendFactorZero, gputypes.BlendFactorSrc},
		{"dst not zero", gputypes.BlendOperationAdd, gputypes.BlendFactorDst, gputypes.BlendFactorOne,
			gputypes.BlendOperationAdd, gputypes.BlendFactorDst, gputypes.BlendFactorOne},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, src, dst := RemoveDst(tt.op, tt.src, tt.dst, gputypes.BlendFactorDst, gputypes.BlendFactorSrc)
			if op != tt.wantOp || src != tt.wantSrc || dst != tt.wantDst {
				t.Errorf("RemoveDst = (%v, %v, %v), want (%v, %v, %v)", op, src, dst, tt.wantOp, tt.wantSrc, tt.wantDst)
			}
		})
	}
}

func TestReduceBlendDisabledSingleTarget(t *testing.T) {
	b := ReduceBlend(&BlendParams{
		Attachments: []state.ColorAttachmentBlend{{WriteMask: gputypes.ColorWriteMaskAll}},
		Formats:     []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm},
	})
	for i, v := range b.BlendControl {
		if v != 0 {
			t.Errorf("BlendControl[%d] = %#x, want 0", i, v)
		}
	}
	if b.TargetMask != 0xF {
		t.Errorf("TargetMask = %#x, want 0xf", b.TargetMask)
	}
	if b.ColFormat != SPIShaderFP16ABGR {
		t.Errorf("ColFormat = %#x, want FP16_ABGR", b.ColFormat)
	}
	if b.ShaderMask != 0xF {
		t.Errorf("ShaderMask = %#x, want 0xf", b.ShaderMask)
	}
	if got := (b.ColorControl >> colorControlROP3Shift) & 0xFF; got != ROP3Copy {
		t.Errorf("ROP3 = %#x, want copy", got)
	}
}

func TestReduceBlendHoleFill(t *testing.T) {
	blend := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	b := ReduceBlend(&BlendParams{
		Attachments: []state.ColorAttachmentBlend{
			{WriteMask: gputypes.ColorWriteMaskNone},
			{BlendEnable: true, Color: blend, Alpha: blend, WriteMask: gputypes.ColorWriteMaskAll},
		},
		Formats: []gputypes.TextureFormat{
			gputypes.TextureFormatRGBA8Unorm,
			gputypes.TextureFormatRGBA8Unorm,
		},
	})
	if b.TargetMask != 0xF0 {
		t.Errorf("TargetMask = %#x, want 0xf0", b.TargetMask)
	}
	if got := b.ColFormat & 0xF; got != SPIShader32R {
		t.Errorf("slot 0 = %d, want 32_R", got)
	}
	if got := (b.ColFormat >> 4) & 0xF; got == SPIShaderZero {
		t.Error("slot 1 is zero")
	}
	if b.BlendControl[1]&BlendEnable == 0 {
		t.Error("attachment 1 blend not enabled")
	}
}

func TestFillHolesInvariant(t *testing.T) {
	for col := uint32(0); col < 1<<12; col += 7 {
		got := FillHoles(col)
		top := -1
		for i := 0; i < MaxRTs; i++ {
			if got>>(4*uint(i))&0xF != 0 {
				top = i
			}
		}
		for i := 0; i < top; i++ {
			if got>>(4*uint(i))&0xF == 0 {
				t.Fatalf("FillHoles(%#x) = %#x: slot %d is a hole", col, got, i)
			}
		}
	}
}

func TestReduceBlendDualSource(t *testing.T) {
	dual := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: state.BlendFactorOneMinusSrc1,
		Operation: gputypes.BlendOperationAdd,
	}
	p := &BlendParams{
		Attachments: []state.ColorAttachmentBlend{
			{BlendEnable: true, Color: dual, Alpha: dual, WriteMask: gputypes.ColorWriteMaskAll},
			{WriteMask: gputypes.ColorWriteMaskAll},
		},
		Formats: []gputypes.TextureFormat{
			gputypes.TextureFormatRGBA8Unorm,
			gputypes.TextureFormatRGBA8Unorm,
		},
		RBPlus: true,
	}
	b := ReduceBlend(p)
	if !b.MRT0DualSource {
		t.Fatal("MRT0DualSource = false")
	}
	if b.TargetMask != 0xF {
		t.Errorf("TargetMask = %#x, want only attachment 0", b.TargetMask)
	}
	if b.ColFormat>>4&0xF != b.ColFormat&0xF {
		t.Errorf("ColFormat = %#x, slot 1 must copy slot 0", b.ColFormat)
	}
	if b.ColorControl&ColorControlDisableDualQuad == 0 {
		t.Error("dual quad not disabled")
	}
	for i, v := range b.SXBlendOpt {
		if v != 0 {
			t.Errorf("SXBlendOpt[%d] = %#x, want 0", i, v)
		}
	}
}

func TestReduceBlendMinMaxForcesOne(t *testing.T) {
	b := ReduceBlend(oneTarget(gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorZero,
		Operation: gputypes.BlendOperationMax,
	}))
	ctl := b.BlendControl[0]
	if src := ctl >> blendColorSrcShift & 0x1F; src != BlendOne {
		t.Errorf("src factor = %d, want ONE", src)
	}
	if dst := ctl >> blendColorDstShift & 0x1F; dst != BlendOne {
		t.Errorf("dst factor = %d, want ONE", dst)
	}
	if ctl&BlendSeparateAlpha != 0 {
		t.Error("separate alpha set for identical equations")
	}
}

func TestReduceBlendAlphaToCoverage(t *testing.T) {
	b := ReduceBlend(&BlendParams{AlphaToCoverage: true})
	if b.ColFormat != SPIShader32AR {
		t.Errorf("ColFormat = %#x, want 32_AR", b.ColFormat)
	}
	if got := (b.ColorControl >> colorControlModeShift) & 0x7; got != CBModeDisable {
		t.Errorf("CB mode = %d, want disable", got)
	}
}

func TestBlendFactorGenerations(t *testing.T) {
	tests := []struct {
		f     gputypes.BlendFactor
		gfx6  uint32
		gfx11 uint32
	}{
		{gputypes.BlendFactorZero, 0, 0},
		{gputypes.BlendFactorSrcAlphaSaturated, 10, 10},
		{gputypes.BlendFactorConstant, 13, 11},
		{state.BlendFactorSrc1, 15, 13},
		{state.BlendFactorOneMinusConstantAlpha, 20, 18},
		{gputypes.BlendFactor(0x7F), 0, 0},
	}
	for _, tt := range tests {
		if got := BlendFactor(tt.f, false); got != tt.gfx6 {
			t.Errorf("BlendFactor(%v, gfx6) = %d, want %d", tt.f, got, tt.gfx6)
		}
		if got := BlendFactor(tt.f, true); got != tt.gfx11 {
			t.Errorf("BlendFactor(%v, gfx11) = %d, want %d", tt.f, got, tt.gfx11)
		}
	}
}
