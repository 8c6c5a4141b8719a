package translate

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/state"
)

// CB_BLEND_CONTROL fields.
const (
	blendColorSrcShift  = 0
	blendColorCombShift = 5
	blendColorDstShift  = 8
	blendAlphaSrcShift  = 16
	blendAlphaCombShift = 21
	blendAlphaDstShift  = 24

	BlendSeparateAlpha = 1 << 29
	BlendEnable        = 1 << 30
)

// SX_MRT_BLEND_OPT fields.
const (
	optColorSrcShift  = 0
	optColorDstShift  = 4
	optColorCombShift = 8
	optAlphaSrcShift  = 16
	optAlphaDstShift  = 20
	optAlphaCombShift = 24
)

// CB_COLOR_CONTROL fields.
const (
	ColorControlDisableDualQuad = 1 << 0
	colorControlModeShift       = 4
	colorControlROP3Shift       = 16

	CBModeDisable = 0
	CBModeNormal  = 1
)

// BlendParams is the input of ReduceBlend.
type BlendParams struct {
	Attachments     []state.ColorAttachmentBlend
	Formats         []gputypes.TextureFormat
	LogicOpEnable   bool
	LogicOp         state.LogicOp
	AlphaToCoverage bool

	// RBPlus enables the SX blend-opt hints.
	RBPlus bool
	// GFX11 selects the GFX11 blend-factor encoding.
	GFX11 bool
}

// BlendState is the hardware form of the color blend configuration.
type BlendState struct {
	BlendControl [MaxRTs]uint32
	SXBlendOpt   [MaxRTs]uint32

	TargetMask        uint32
	TargetEnabled4Bit uint32
	BlendEnable4Bit   uint32
	Commutative4Bit   uint32
	NeedSrcAlpha      uint32
	MRT0DualSource    bool

	ColorControl uint32
	ColFormat    uint32
	ShaderMask   uint32
	Int8Mask     uint32
	Int10Mask    uint32
}

// TargetEnabled reports whether render target i receives writes.
func (b *BlendState) TargetEnabled(i int) bool {
	return b.TargetMask&(0xF<<(4*uint(i))) != 0
}

// BlendEnabled reports whether render target i blends.
func (b *BlendState) BlendEnabled(i int) bool {
	return b.BlendEnable4Bit&(0xF<<(4*uint(i))) != 0
}

// ReduceBlend computes the blend registers, commutativity mask and
// export formats for a color blend configuration.
func ReduceBlend(p *BlendParams) BlendState {
	var b BlendState
	disabled := uint32(OptCombBlendDisabled<<optColorCombShift | OptCombBlendDisabled<<optAlphaCombShift)
	for i := range b.SXBlendOpt {
		b.SXBlendOpt[i] = disabled
	}

	n := len(p.Attachments)
	if n > MaxRTs {
		n = MaxRTs
	}
	for i := 0; i < n; i++ {
		att := p.Attachments[i]
		if att.WriteMask == 0 || !formatAt(p.Formats, i).Valid() {
			continue
		}
		// Only attachment 0 may be active with dual-source blending.
		if b.MRT0DualSource {
			continue
		}

		b.TargetMask |= uint32(att.WriteMask&gputypes.ColorWriteMaskAll) << (4 * i)
		b.TargetEnabled4Bit |= 0xF << (4 * i)
		if !att.BlendEnable {
			continue
		}

		eqRGB, srcRGB, dstRGB := att.Color.Operation, att.Color.SrcFactor, att.Color.DstFactor
		eqA, srcA, dstA := att.Alpha.Operation, att.Alpha.SrcFactor, att.Alpha.DstFactor

		if i == 0 && (state.IsDualSource(srcRGB) || state.IsDualSource(dstRGB) ||
			state.IsDualSource(srcA) || state.IsDualSource(dstA)) {
			b.MRT0DualSource = true
		}

		if eqRGB == gputypes.BlendOperationMin || eqRGB == gputypes.BlendOperationMax {
			srcRGB, dstRGB = gputypes.BlendFactorOne, gputypes.BlendFactorOne
		}
		if eqA == gputypes.BlendOperationMin || eqA == gputypes.BlendOperationMax {
			srcA, dstA = gputypes.BlendFactorOne, gputypes.BlendFactorOne
		}

		if Commutative(eqRGB, srcRGB, dstRGB) {
			b.Commutative4Bit |= 0x7 << (4 * i)
		}
		if Commutative(eqA, srcA, dstA) {
			b.Commutative4Bit |= 0x8 << (4 * i)
		}

		eqRGB, srcRGB, dstRGB = RemoveDst(eqRGB, srcRGB, dstRGB, gputypes.BlendFactorDst, gputypes.BlendFactorSrc)
		eqA, srcA, dstA = RemoveDst(eqA, srcA, dstA, gputypes.BlendFactorDst, gputypes.BlendFactorSrc)
		eqA, srcA, dstA = RemoveDst(eqA, srcA, dstA, gputypes.BlendFactorDstAlpha, gputypes.BlendFactorSrcAlpha)

		b.SXBlendOpt[i] = blendOpt(eqRGB, srcRGB, dstRGB, eqA, srcA, dstA)

		ctl := uint32(BlendEnable)
		ctl |= BlendFunc(eqRGB) << blendColorCombShift
		ctl |= BlendFactor(srcRGB, p.GFX11) << blendColorSrcShift
		ctl |= BlendFactor(dstRGB, p.GFX11) << blendColorDstShift
		if srcA != srcRGB || dstA != dstRGB || eqA != eqRGB {
			ctl |= BlendSeparateAlpha
			ctl |= BlendFunc(eqA) << blendAlphaCombShift
			ctl |= BlendFactor(srcA, p.GFX11) << blendAlphaSrcShift
			ctl |= BlendFactor(dstA, p.GFX11) << blendAlphaDstShift
		}
		b.BlendControl[i] = ctl
		b.BlendEnable4Bit |= 0xF << (4 * i)

		if needsSrcAlpha(srcRGB) || needsSrcAlpha(dstRGB) {
			b.NeedSrcAlpha |= 1 << i
		}
	}

	if p.RBPlus {
		if b.MRT0DualSource {
			for i := range b.SXBlendOpt {
				b.SXBlendOpt[i] = OptCombNone<<optColorCombShift | OptCombNone<<optAlphaCombShift
			}
		}
		if b.MRT0DualSource || p.LogicOpEnable || (p.GFX11 && b.BlendEnable4Bit != 0) {
			b.ColorControl |= ColorControlDisableDualQuad
		}
	}
	if b.TargetMask != 0 {
		b.ColorControl |= CBModeNormal << colorControlModeShift
	} else {
		b.ColorControl |= CBModeDisable << colorControlModeShift
	}
	if p.LogicOpEnable {
		b.ColorControl |= LogicOpROP3(p.LogicOp) << colorControlROP3Shift
	} else {
		b.ColorControl |= ROP3Copy << colorControlROP3Shift
	}

	if p.AlphaToCoverage {
		b.NeedSrcAlpha |= 1
	}
	b.exportFormats(p)
	return b
}

func (b *BlendState) exportFormats(p *BlendParams) {
	var col uint32
	for i := 0; i < MaxRTs; i++ {
		f := formatAt(p.Formats, i)
		if !f.Valid() || !b.TargetEnabled(i) {
			continue
		}
		col |= SPIColorFormat(f, b.BlendEnabled(i), b.NeedSrcAlpha&(1<<i) != 0, p.RBPlus) << (4 * i)
		if f.Int8() {
			b.Int8Mask |= 1 << i
		}
		if f.Int10() {
			b.Int10Mask |= 1 << i
		}
	}
	// Alpha-to-coverage without a color target still exports MRT0 alpha
	// for the depth block.
	if col&0xF == 0 && b.NeedSrcAlpha&1 != 0 {
		col |= SPIShader32AR
	}
	col = FillHoles(col)
	if b.MRT0DualSource {
		col |= (col & 0xF) << 4
	}
	b.ColFormat = col
	b.ShaderMask = CBShaderMask(col)
}

func formatAt(formats []gputypes.TextureFormat, i int) ColorFormat {
	if i >= len(formats) {
		return ColorFormat{}
	}
	return ClassifyColor(formats[i])
}

// Commutative reports whether a blend equation gives the same result
// for any fragment order. Floating-point subtraction never qualifies.
func Commutative(op gputypes.BlendOperation, src, dst gputypes.BlendFactor) bool {
	switch op {
	case gputypes.BlendOperationMin, gputypes.BlendOperationMax:
		return true
	case gputypes.BlendOperationAdd:
		return dst == gputypes.BlendFactorOne && !UsesDst(src)
	default:
		return false
	}
}

// RemoveDst rewrites func(src*DST, dst*0) as func(src*0, dst*SRC) so the
// RB+ path never sees a destination factor on the source side.
func RemoveDst(op gputypes.BlendOperation, src, dst, expectedDst, replacementSrc gputypes.BlendFactor) (gputypes.BlendOperation, gputypes.BlendFactor, gputypes.BlendFactor) {
	if src != expectedDst || dst != gputypes.BlendFactorZero {
		return op, src, dst
	}
	switch op {
	case gputypes.BlendOperationSubtract:
		op = gputypes.BlendOperationReverseSubtract
	case gputypes.BlendOperationReverseSubtract:
		op = gputypes.BlendOperationSubtract
	}
	return op, gputypes.BlendFactorZero, replacementSrc
}

func blendOpt(eqRGB gputypes.BlendOperation, srcRGB, dstRGB gputypes.BlendFactor,
	eqA gputypes.BlendOperation, srcA, dstA gputypes.BlendFactor) uint32 {
	srcRGBOpt := BlendOptFactor(srcRGB, false)
	dstRGBOpt := BlendOptFactor(dstRGB, false)
	srcAOpt := BlendOptFactor(srcA, true)
	dstAOpt := BlendOptFactor(dstA, true)

	if UsesDst(srcRGB) {
		dstRGBOpt = OptPreserveNoneIgnoreNone
	}
	if UsesDst(srcA) {
		dstAOpt = OptPreserveNoneIgnoreNone
	}
	if srcRGB == gputypes.BlendFactorSrcAlphaSaturated &&
		(dstRGB == gputypes.BlendFactorZero || dstRGB == gputypes.BlendFactorSrcAlpha ||
			dstRGB == gputypes.BlendFactorSrcAlphaSaturated) {
		dstRGBOpt = OptPreserveNoneIgnoreA0
	}

	return srcRGBOpt<<optColorSrcShift |
		dstRGBOpt<<optColorDstShift |
		BlendOptFunc(eqRGB)<<optColorCombShift |
		srcAOpt<<optAlphaSrcShift |
		dstAOpt<<optAlphaDstShift |
		BlendOptFunc(eqA)<<optAlphaCombShift
}

func needsSrcAlpha(f gputypes.BlendFactor) bool {
	switch f {
	case gputypes.BlendFactorSrcAlpha,
		gputypes.BlendFactorSrcAlphaSaturated,
		gputypes.BlendFactorOneMinusSrcAlpha:
		return true
	default:
		return false
	}
}
