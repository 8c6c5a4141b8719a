package info

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// OrderInvariance describes how depth/stencil testing behaves when
// fragments arrive out of order.
type OrderInvariance struct {
	// ZS: the final depth/stencil buffer contents do not depend on
	// fragment order.
	ZS bool
	// PassSet: the set of fragments passing the tests does not depend on
	// fragment order, assuming no depth write.
	PassSet bool
}

func invariantStencilOp(op gputypes.StencilOperation) bool {
	return op != gputypes.StencilOperationIncrementClamp &&
		op != gputypes.StencilOperationDecrementClamp &&
		op != gputypes.StencilOperationReplace
}

func invariantStencilFace(f gputypes.StencilFaceState, writeMask uint32) bool {
	if writeMask == 0 {
		return true
	}
	switch f.Compare {
	case gputypes.CompareFunctionAlways:
		return invariantStencilOp(f.PassOp) && invariantStencilOp(f.DepthFailOp)
	case gputypes.CompareFunctionNever:
		return invariantStencilOp(f.FailOp)
	}
	return false
}

// OrderInvariance returns the invariance flags for an attachment
// configuration without stencil (index 0) and with stencil (index 1).
func (pi *PipelineInfo) OrderInvariance() [2]OrderInvariance {
	inv := [2]OrderInvariance{{true, true}, {true, true}}
	if !pi.RasterEnabled || !pi.HasDepthStencilAttachments {
		return inv
	}
	ds := &pi.DepthStencil

	depthWrite := ds.DepthWriteEnabled()
	stencilWrite := ds.StencilWriteEnabled()
	dsWrite := depthWrite || stencilWrite

	zfunc := gputypes.CompareFunctionAlways
	if ds.DepthTest {
		zfunc = ds.DepthCompare
	}
	var zfuncOrdered bool
	switch zfunc {
	case gputypes.CompareFunctionNever,
		gputypes.CompareFunctionLess,
		gputypes.CompareFunctionLessEqual,
		gputypes.CompareFunctionGreater,
		gputypes.CompareFunctionGreaterEqual:
		zfuncOrdered = true
	}
	trivialPass := zfunc == gputypes.CompareFunctionAlways || zfunc == gputypes.CompareFunctionNever

	noZWriteInvStencil := !dsWrite || (!depthWrite &&
		invariantStencilFace(ds.Front, ds.StencilWriteMask) &&
		invariantStencilFace(ds.Back, ds.StencilWriteMask))

	inv[1].ZS = noZWriteInvStencil || (!stencilWrite && zfuncOrdered)
	inv[0].ZS = !depthWrite || zfuncOrdered
	inv[1].PassSet = noZWriteInvStencil || (!stencilWrite && trivialPass)
	inv[0].PassSet = !depthWrite || trivialPass
	return inv
}

// OutOfOrderAllowed reports whether primitives may be rasterized out of
// order. ps is the fragment module, or nil.
func (pi *PipelineInfo) OutOfOrderAllowed(p *hw.Profile, ps *shader.Module) bool {
	if !p.Caps.OutOfOrderRaster {
		return false
	}
	colorMask := pi.Blend.TargetMask
	if colorMask != 0 && (pi.ColorBlend.LogicOpEnable ||
		pi.Dynamic.Any(state.DynamicLogicOp|state.DynamicLogicOpEnable)) {
		return false
	}
	// The out-of-order enable lives in a context register that draws
	// cannot update.
	if pi.Dynamic.Any(state.DynamicDepthStencilExtended) {
		return false
	}

	inv := OrderInvariance{ZS: true, PassSet: true}
	if pi.HasDepthStencilAttachments {
		pair := pi.OrderInvariance()
		inv = pair[0]
		if pi.Rendering.StencilFormat != gputypes.TextureFormatUndefined {
			inv = pair[1]
		}
		if !inv.ZS {
			return false
		}
		if ps != nil && ps.Fragment.EarlyFragmentTests && WritesMemory(ps) && !inv.PassSet {
			return false
		}
	}

	if colorMask == 0 {
		return true
	}
	if pi.Dynamic.Any(state.DynamicBlendExtended) {
		return false
	}
	blendMask := colorMask & pi.Blend.BlendEnable4Bit
	if blendMask&^pi.Blend.Commutative4Bit != 0 {
		return false
	}
	return inv.PassSet
}
