package translate

import "github.com/gogpu/gputypes"

// Hardware compare functions (DB_DEPTH_CONTROL ZFUNC and stencil funcs).
const (
	FuncNever    = 0
	FuncLess     = 1
	FuncEqual    = 2
	FuncLEqual   = 3
	FuncGreater  = 4
	FuncNotEqual = 5
	FuncGEqual   = 6
	FuncAlways   = 7
)

// CompareFunc returns the hardware compare function code.
func CompareFunc(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return FuncNever
	case gputypes.CompareFunctionLess:
		return FuncLess
	case gputypes.CompareFunctionEqual:
		return FuncEqual
	case gputypes.CompareFunctionLessEqual:
		return FuncLEqual
	case gputypes.CompareFunctionGreater:
		return FuncGreater
	case gputypes.CompareFunctionNotEqual:
		return FuncNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return FuncGEqual
	case gputypes.CompareFunctionAlways:
		return FuncAlways
	default:
		return 0
	}
}

// DB_STENCIL_CONTROL stencil operations.
const (
	StencilKeep        = 0
	StencilZero        = 1
	StencilOnes        = 2
	StencilReplaceTest = 3
	StencilReplaceOp   = 4
	StencilAddClamp    = 5
	StencilSubClamp    = 6
	StencilInvert      = 7
	StencilAddWrap     = 8
	StencilSubWrap     = 9
)

// StencilOp returns the hardware stencil operation code.
func StencilOp(op gputypes.StencilOperation) uint32 {
	switch op {
	case gputypes.StencilOperationKeep:
		return StencilKeep
	case gputypes.StencilOperationZero:
		return StencilZero
	case gputypes.StencilOperationReplace:
		return StencilReplaceTest
	case gputypes.StencilOperationInvert:
		return StencilInvert
	case gputypes.StencilOperationIncrementClamp:
		return StencilAddClamp
	case gputypes.StencilOperationDecrementClamp:
		return StencilSubClamp
	case gputypes.StencilOperationIncrementWrap:
		return StencilAddWrap
	case gputypes.StencilOperationDecrementWrap:
		return StencilSubWrap
	default:
		return 0
	}
}
