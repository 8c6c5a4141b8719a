package stages

import (
	"fmt"
	"sort"

	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/shader"
)

// ioClass separates the location namespaces of one interface.
type ioClass uint8

const (
	classVertex ioClass = iota
	classPatch
	classPrimitive
)

type ioKey struct {
	loc   uint32
	class ioClass
}

func classOf(v shader.Variable) ioClass {
	switch {
	case v.Patch:
		return classPatch
	case v.PerPrimitive:
		return classPrimitive
	default:
		return classVertex
	}
}

// locations returns the keys covered by a user variable, one per array
// element.
func locations(v shader.Variable) []ioKey {
	n := max(v.ArrayLen, 1)
	keys := make([]ioKey, n)
	for i := range n {
		keys[i] = ioKey{loc: v.Location + i, class: classOf(v)}
	}
	return keys
}

// expandArrays splits user array variables into one variable per
// element, so every element is matched, eliminated and given a slot on
// its own. Builtin arrays (clip and cull distances) are kept whole.
func expandArrays(vars []shader.Variable) []shader.Variable {
	n := 0
	for _, v := range vars {
		if v.IsBuiltin() || v.ArrayLen == 0 {
			n++
		} else {
			n += int(v.ArrayLen)
		}
	}
	if n == len(vars) {
		return vars
	}
	out := make([]shader.Variable, 0, n)
	for _, v := range vars {
		if v.IsBuiltin() || v.ArrayLen == 0 {
			out = append(out, v)
			continue
		}
		for i := range v.ArrayLen {
			e := v
			e.Name = fmt.Sprintf("%s[%d]", v.Name, i)
			e.Location = v.Location + i
			e.ArrayLen = 0
			out = append(out, e)
		}
	}
	return out
}

func covers(v shader.Variable, set map[ioKey]bool) bool {
	for _, k := range locations(v) {
		if set[k] {
			return true
		}
	}
	return false
}

// chain returns the stages that pass varyings to each other, in
// pipeline order. Task stages hand a payload to mesh stages rather than
// varyings and are left out.
func (s *set) chain() []*Context {
	var out []*Context
	for st := shader.StageVertex; st <= shader.StageFragment; st++ {
		if st == shader.StageTask || s[st] == nil {
			continue
		}
		out = append(out, s[st])
	}
	return out
}

// link matches the interfaces of adjacent stages, walking from the
// fragment stage back to the first stage.
func link(s *set, pi *info.PipelineInfo) {
	chain := s.chain()
	last := s.lastPreRaster()
	if last == nil {
		return
	}

	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if c.Stage == shader.StageFragment {
			continue
		}
		var consumer *Context
		if i+1 < len(chain) {
			consumer = chain[i+1]
			c.Info.Next = consumer.Stage
		}
		linkPair(c, consumer, c == last)
	}

	injectSystemValues(s, pi, last)
}

// linkPair eliminates the outputs of producer the consumer never reads,
// assigns compact slots on both sides and counts vectorizable slots.
// consumer is nil when nothing runs after producer.
func linkPair(producer, consumer *Context, lastPreRaster bool) {
	producer.Module.Outputs = expandArrays(producer.Module.Outputs)
	if consumer != nil {
		consumer.Module.Inputs = expandArrays(consumer.Module.Inputs)
	}

	want := map[ioKey]bool{}
	if consumer != nil {
		for _, v := range consumer.Module.Inputs {
			if v.IsBuiltin() {
				continue
			}
			for _, k := range locations(v) {
				want[k] = true
			}
		}
	}
	// Captured outputs stay alive even when the next stage ignores them.
	if lastPreRaster && producer.Module.XFB != nil {
		for _, o := range producer.Module.XFB.Outputs {
			if o.Builtin == shader.BuiltinNone {
				want[ioKey{loc: o.Location}] = true
			}
		}
	}

	kept := producer.Module.Outputs[:0]
	for _, v := range producer.Module.Outputs {
		if v.IsBuiltin() || covers(v, want) {
			kept = append(kept, v)
			continue
		}
		producer.Info.OutputsRemoved++
	}
	producer.Module.Outputs = kept

	written := map[ioKey]bool{}
	for _, v := range kept {
		if v.IsBuiltin() {
			continue
		}
		for _, k := range locations(v) {
			written[k] = true
		}
	}

	slots := compact(written)
	for i := range producer.Module.Outputs {
		v := &producer.Module.Outputs[i]
		if !v.IsBuiltin() {
			v.Slot = slots[ioKey{loc: v.Location, class: classOf(*v)}]
		}
	}
	countSlots(&producer.Info, written)
	producer.Info.Vectorized = vectorizable(kept, consumer != nil && consumer.Stage == shader.StageFragment)

	if consumer == nil {
		return
	}
	inputs := consumer.Module.Inputs[:0]
	for _, v := range consumer.Module.Inputs {
		if !v.IsBuiltin() && !covers(v, written) {
			consumer.Info.InputsDefaulted++
			// The fragment stage keeps the input and reads a constant.
			if consumer.Stage != shader.StageFragment {
				continue
			}
			v.Slot = ^uint32(0)
		} else if !v.IsBuiltin() {
			v.Slot = slots[ioKey{loc: v.Location, class: classOf(v)}]
		}
		inputs = append(inputs, v)
	}
	consumer.Module.Inputs = inputs
	consumer.Info.NumInputSlots = uint32(len(slots))
	consumer.Info.Vectorized = producer.Info.Vectorized
}

// compact numbers the written locations of each class densely, in
// location order.
func compact(written map[ioKey]bool) map[ioKey]uint32 {
	keys := make([]ioKey, 0, len(written))
	for k := range written {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].class != keys[j].class {
			return keys[i].class < keys[j].class
		}
		return keys[i].loc < keys[j].loc
	})
	slots := make(map[ioKey]uint32, len(keys))
	var next [3]uint32
	for _, k := range keys {
		slots[k] = next[k.class]
		next[k.class]++
	}
	return slots
}

func countSlots(si *StageInfo, written map[ioKey]bool) {
	si.NumOutputSlots, si.NumPatchOutputSlots, si.NumPrimOutputSlots = 0, 0, 0
	for k := range written {
		switch k.class {
		case classPatch:
			si.NumPatchOutputSlots++
		case classPrimitive:
			si.NumPrimOutputSlots++
		default:
			si.NumOutputSlots++
		}
	}
}

// vectorizable counts locations shared by several scalar or partial
// outputs whose component ranges do not overlap. Fragment inputs also
// need a common interpolation mode.
func vectorizable(outputs []shader.Variable, toFragment bool) int {
	type group struct {
		mask   uint8
		n      int
		interp shader.Interpolation
		mixed  bool
	}
	groups := map[ioKey]*group{}
	var order []ioKey
	for _, v := range outputs {
		if v.IsBuiltin() || v.ArrayLen > 0 {
			continue
		}
		k := ioKey{loc: v.Location, class: classOf(v)}
		g, ok := groups[k]
		if !ok {
			g = &group{interp: v.Interp}
			groups[k] = g
			order = append(order, k)
		}
		m := v.ComponentMask()
		if g.mask&m != 0 || (toFragment && g.interp != v.Interp) {
			g.mixed = true
		}
		g.mask |= m
		g.n++
	}
	n := 0
	for _, k := range order {
		if g := groups[k]; g.n > 1 && !g.mixed {
			n++
		}
	}
	return n
}

// injectSystemValues adds the outputs the fragment stage and multiview
// need but no earlier stage writes.
func injectSystemValues(s *set, pi *info.PipelineInfo, last *Context) {
	if fs := s[shader.StageFragment]; fs != nil {
		if fs.Module.Reads(shader.BuiltinPrimitiveID) && !last.Module.Writes(shader.BuiltinPrimitiveID) &&
			last.Stage != shader.StageGeometry && last.Stage != shader.StageMesh {
			last.Info.ExportPrimitiveID = true
		}
		if fs.Module.Reads(shader.BuiltinViewportIndex) && !anyWrites(s, shader.BuiltinViewportIndex) {
			fs.Info.ViewportZero = true
		}
	}
	if pi.Rendering.ViewMask != 0 && !last.Module.Writes(shader.BuiltinLayer) {
		last.Info.LayerFromView = true
	}
}

func anyWrites(s *set, b shader.Builtin) bool {
	for _, c := range s.chain() {
		if c.Stage != shader.StageFragment && c.Module.Writes(b) {
			return true
		}
	}
	return false
}
