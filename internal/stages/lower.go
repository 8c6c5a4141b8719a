package stages

import (
	"math"
	"sort"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Descriptor sizes in bytes, per resource kind.
var descriptorStride = [...]uint32{
	shader.ResourceUniformBuffer: 16,
	shader.ResourceStorageBuffer: 16,
	shader.ResourceSampledImage:  32,
	shader.ResourceSampler:       16,
	shader.ResourceStorageImage:  32,
	shader.ResourceInlineUniform: 1,
}

// lowerResources assigns each (set, binding) its descriptor offset.
// Bindings are laid out in binding order within a set.
func lowerResources(res []shader.Resource) []shader.ResourceSlot {
	if len(res) == 0 {
		return nil
	}
	sorted := append([]shader.Resource(nil), res...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Set != sorted[j].Set {
			return sorted[i].Set < sorted[j].Set
		}
		return sorted[i].Binding < sorted[j].Binding
	})
	slots := make([]shader.ResourceSlot, 0, len(sorted))
	var offset uint32
	for i, r := range sorted {
		if i > 0 && r.Set != sorted[i-1].Set {
			offset = 0
		}
		stride := descriptorStride[r.Kind]
		size := stride * max(r.Count, 1)
		if r.Kind == shader.ResourceInlineUniform {
			stride = 16
			size = (max(r.Count, 1) + 15) &^ 15
		}
		slots = append(slots, shader.ResourceSlot{
			Set:     r.Set,
			Binding: r.Binding,
			Kind:    r.Kind,
			Offset:  offset,
			Stride:  stride,
		})
		offset += size
	}
	return slots
}

// lowerVertexFetch turns the vertex stage's attribute inputs into
// buffer loads. Inputs without a bound attribute read zero and get no
// load.
func lowerVertexFetch(p *hw.Profile, m *shader.Module, pi *info.PipelineInfo) []shader.VertexFetch {
	if pi.Dynamic.Has(state.DynamicVertexInput) {
		return nil
	}
	var fetch []shader.VertexFetch
	for _, v := range m.Inputs {
		if v.IsBuiltin() {
			continue
		}
		a, ok := pi.VertexInput.Attribute(v.Location)
		if !ok {
			continue
		}
		f := shader.VertexFetch{
			Location:   a.Location,
			Binding:    a.Binding,
			Offset:     a.Offset,
			Format:     a.Format,
			Descriptor: a.Binding,
		}
		if int(a.Binding) < len(pi.VertexInput.Bindings) {
			b := pi.VertexInput.Bindings[a.Binding]
			f.Stride = b.Stride
			f.PerInstance = b.PerInstance
		}
		fetch = append(fetch, f)
	}
	sort.Slice(fetch, func(i, j int) bool { return fetch[i].Location < fetch[j].Location })
	if p.Caps.PerAttributeVBDescs {
		for i := range fetch {
			fetch[i].Descriptor = uint32(i)
		}
	}
	return fetch
}

// ringSlots counts the vec4 slots a stage writes to an LDS or memory
// ring: user slots plus the builtins the next stage can read back.
func ringSlots(c *Context) uint32 {
	n := c.Info.NumOutputSlots + c.Info.NumPatchOutputSlots
	for _, v := range c.Module.Outputs {
		switch v.Builtin {
		case shader.BuiltinNone:
		case shader.BuiltinClipDistance, shader.BuiltinCullDistance:
			n += (max(v.ArrayLen, 1) + 3) / 4
		default:
			n++
		}
	}
	return n
}

// feedsMemory reports whether a stage's outputs go to LDS or memory
// instead of parameter exports.
func feedsMemory(c *Context) bool {
	switch {
	case c.Stage == shader.StageTessControl:
		return true
	case c.Info.Next != shader.NumStages && c.Info.Next != shader.StageFragment:
		return true
	case c.Info.NGG && (c.Stage == shader.StageGeometry || c.Info.NGGCulling || c.Info.XFBBuffers != 0):
		return true
	}
	return false
}

// lower applies the hardware ABI decisions to one stage. The module's
// I/O lists are rewritten in place and the decisions are recorded in
// Module.ABI.
func lower(p *hw.Profile, c *Context, pi *info.PipelineInfo, merged bool) {
	m := c.Module
	abi := &shader.Lowering{
		Resources:         lowerResources(m.Resources),
		IOToMemory:        feedsMemory(c),
		VectorizedIO:      c.Info.Vectorized,
		ExportPrimitiveID: c.Info.ExportPrimitiveID,
	}
	if c.Stage == shader.StageVertex {
		abi.VertexFetch = lowerVertexFetch(p, m, pi)
	}

	// Ring strides get one extra dword on merged stages to avoid LDS
	// bank conflicts.
	pad := uint32(0)
	if merged {
		pad = 4
	}
	switch c.Info.Next {
	case shader.StageTessControl:
		abi.LSHSVertexStride = ringSlots(c)*16 + pad
	case shader.StageGeometry:
		abi.ESGSItemSize = ringSlots(c)*16 + pad
	}
	if c.Stage == shader.StageGeometry {
		abi.GSVSVertexSize = ringSlots(c) * 16
	}

	// 16-bit I/O needs GFX9.
	if p.Level < hw.GFX9 {
		for _, list := range [][]shader.Variable{m.Inputs, m.Outputs} {
			for i := range list {
				if list[i].HighPrecision16 {
					list[i].HighPrecision16 = false
					abi.Legalized16 = true
				}
			}
		}
	}

	for k, v := range m.Overrides {
		if math.IsNaN(v) {
			continue
		}
		if abi.Specialization == nil {
			abi.Specialization = make(map[string]float64)
		}
		abi.Specialization[k] = v
	}
	m.ABI = abi
}
