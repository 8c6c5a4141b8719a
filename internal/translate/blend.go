package translate

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/state"
)

// CB_BLEND_CONTROL blend factor codes.
const (
	BlendZero             = 0
	BlendOne              = 1
	BlendSrcColor         = 2
	BlendOneMinusSrcColor = 3
	BlendSrcAlpha         = 4
	BlendOneMinusSrcAlpha = 5
	BlendDstAlpha         = 6
	BlendOneMinusDstAlpha = 7
	BlendDstColor         = 8
	BlendOneMinusDstColor = 9
	BlendSrcAlphaSaturate = 10
)

// Codes that differ between generations, indexed [pre-GFX11, GFX11].
var (
	blendConstColor         = [2]uint32{13, 11}
	blendOneMinusConstColor = [2]uint32{14, 12}
	blendSrc1Color          = [2]uint32{15, 13}
	blendOneMinusSrc1Color  = [2]uint32{16, 14}
	blendSrc1Alpha          = [2]uint32{17, 15}
	blendOneMinusSrc1Alpha  = [2]uint32{18, 16}
	blendConstAlpha         = [2]uint32{19, 17}
	blendOneMinusConstAlpha = [2]uint32{20, 18}
)

// BlendFactor returns the CB_BLEND_CONTROL factor code.
func BlendFactor(f gputypes.BlendFactor, gfx11 bool) uint32 {
	g := 0
	if gfx11 {
		g = 1
	}
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero
	case gputypes.BlendFactorOne:
		return BlendOne
	case gputypes.BlendFactorSrc:
		return BlendSrcColor
	case gputypes.BlendFactorOneMinusSrc:
		return BlendOneMinusSrcColor
	case gputypes.BlendFactorSrcAlpha:
		return BlendSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return BlendOneMinusSrcAlpha
	case gputypes.BlendFactorDstAlpha:
		return BlendDstAlpha
	case gputypes.BlendFactorOneMinusDstAlpha:
		return BlendOneMinusDstAlpha
	case gputypes.BlendFactorDst:
		return BlendDstColor
	case gputypes.BlendFactorOneMinusDst:
		return BlendOneMinusDstColor
	case gputypes.BlendFactorSrcAlphaSaturated:
		return BlendSrcAlphaSaturate
	case gputypes.BlendFactorConstant:
		return blendConstColor[g]
	case gputypes.BlendFactorOneMinusConstant:
		return blendOneMinusConstColor[g]
	case state.BlendFactorSrc1:
		return blendSrc1Color[g]
	case state.BlendFactorOneMinusSrc1:
		return blendOneMinusSrc1Color[g]
	case state.BlendFactorSrc1Alpha:
		return blendSrc1Alpha[g]
	case state.BlendFactorOneMinusSrc1Alpha:
		return blendOneMinusSrc1Alpha[g]
	case state.BlendFactorConstantAlpha:
		return blendConstAlpha[g]
	case state.BlendFactorOneMinusConstantAlpha:
		return blendOneMinusConstAlpha[g]
	default:
		return 0
	}
}

// Blend combine functions.
const (
	CombDstPlusSrc  = 0
	CombSrcMinusDst = 1
	CombMinDstSrc   = 2
	CombMaxDstSrc   = 3
	CombDstMinusSrc = 4
)

// BlendFunc returns the CB_BLEND_CONTROL combine function.
func BlendFunc(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationAdd:
		return CombDstPlusSrc
	case gputypes.BlendOperationSubtract:
		return CombSrcMinusDst
	case gputypes.BlendOperationReverseSubtract:
		return CombDstMinusSrc
	case gputypes.BlendOperationMin:
		return CombMinDstSrc
	case gputypes.BlendOperationMax:
		return CombMaxDstSrc
	default:
		return 0
	}
}

// SX_MRT_BLEND_OPT factor hints.
const (
	OptPreserveNoneIgnoreAll  = 0
	OptPreserveAllIgnoreNone  = 1
	OptPreserveC1IgnoreC0     = 2
	OptPreserveC0IgnoreC1     = 3
	OptPreserveA1IgnoreA0     = 4
	OptPreserveA0IgnoreA1     = 5
	OptPreserveNoneIgnoreA0   = 6
	OptPreserveNoneIgnoreNone = 7
)

// SX_MRT_BLEND_OPT combine hints.
const (
	OptCombNone          = 0
	OptCombAdd           = 1
	OptCombSubtract      = 2
	OptCombMin           = 3
	OptCombMax           = 4
	OptCombRevSubtract   = 5
	OptCombBlendDisabled = 6
	OptCombSafeAdd       = 7
)

// BlendOptFactor returns the RB+ factor hint for f.
func BlendOptFactor(f gputypes.BlendFactor, alpha bool) uint32 {
	switch f {
	case gputypes.BlendFactorZero:
		return OptPreserveNoneIgnoreAll
	case gputypes.BlendFactorOne:
		return OptPreserveAllIgnoreNone
	case gputypes.BlendFactorSrc:
		if alpha {
			return OptPreserveA1IgnoreA0
		}
		return OptPreserveC1IgnoreC0
	case gputypes.BlendFactorOneMinusSrc:
		if alpha {
			return OptPreserveA0IgnoreA1
		}
		return OptPreserveC0IgnoreC1
	case gputypes.BlendFactorSrcAlpha:
		return OptPreserveA1IgnoreA0
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return OptPreserveA0IgnoreA1
	case gputypes.BlendFactorSrcAlphaSaturated:
		if alpha {
			return OptPreserveAllIgnoreNone
		}
		return OptPreserveNoneIgnoreA0
	default:
		return OptPreserveNoneIgnoreNone
	}
}

// BlendOptFunc returns the RB+ combine hint for op.
func BlendOptFunc(op gputypes.BlendOperation) uint32 {
	switch op {
	case gputypes.BlendOperationAdd:
		return OptCombAdd
	case gputypes.BlendOperationSubtract:
		return OptCombSubtract
	case gputypes.BlendOperationReverseSubtract:
		return OptCombRevSubtract
	case gputypes.BlendOperationMin:
		return OptCombMin
	case gputypes.BlendOperationMax:
		return OptCombMax
	default:
		return OptCombBlendDisabled
	}
}

// UsesDst reports whether the factor reads the destination.
func UsesDst(f gputypes.BlendFactor) bool {
	switch f {
	case gputypes.BlendFactorDst,
		gputypes.BlendFactorDstAlpha,
		gputypes.BlendFactorSrcAlphaSaturated,
		gputypes.BlendFactorOneMinusDst,
		gputypes.BlendFactorOneMinusDstAlpha:
		return true
	default:
		return false
	}
}

// LogicOpROP3 returns the CB_COLOR_CONTROL ROP3 code.
func LogicOpROP3(op state.LogicOp) uint32 {
	rop3 := [...]uint32{
		0x00, 0x88, 0x44, 0xCC, 0x22, 0xAA, 0x66, 0xEE,
		0x11, 0x99, 0x55, 0xDD, 0x33, 0xBB, 0x77, 0xFF,
	}
	if int(op) < len(rop3) {
		return rop3[op]
	}
	return 0
}

// ROP3Copy is the ROP3 code used when no logic op is active.
const ROP3Copy = 0xCC
