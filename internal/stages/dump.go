package stages

import (
	"fmt"
	"strings"

	"github.com/gogpu/pipec/shader"
)

// dumpModules renders the lowered modules of a program as text. The
// output only depends on the modules, so it is stable across runs.
func dumpModules(mods []*shader.Module) string {
	var b strings.Builder
	for i, m := range mods {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "shader: %s\nname: %s\n", m.Stage, m.EntryPoint)
		if m.Workgroup != [3]uint32{} {
			fmt.Fprintf(&b, "workgroup-size: %d, %d, %d\n", m.Workgroup[0], m.Workgroup[1], m.Workgroup[2])
		}
		for _, v := range m.Inputs {
			dumpVar(&b, "decl_var shader_in", v)
		}
		for _, v := range m.Outputs {
			dumpVar(&b, "decl_var shader_out", v)
		}
		abi := m.ABI
		if abi == nil {
			continue
		}
		for _, r := range abi.Resources {
			fmt.Fprintf(&b, "decl_resource (%d, %d) kind=%d offset=%d stride=%d\n", r.Set, r.Binding, r.Kind, r.Offset, r.Stride)
		}
		for _, f := range abi.VertexFetch {
			fmt.Fprintf(&b, "vertex_fetch location=%d binding=%d offset=%d stride=%d desc=%d", f.Location, f.Binding, f.Offset, f.Stride, f.Descriptor)
			if f.PerInstance {
				b.WriteString(" per_instance")
			}
			b.WriteByte('\n')
		}
		if abi.IOToMemory {
			b.WriteString("io: memory\n")
		}
		if abi.LSHSVertexStride != 0 {
			fmt.Fprintf(&b, "lshs_vertex_stride: %d\n", abi.LSHSVertexStride)
		}
		if abi.ESGSItemSize != 0 {
			fmt.Fprintf(&b, "esgs_itemsize: %d\n", abi.ESGSItemSize)
		}
		if abi.GSVSVertexSize != 0 {
			fmt.Fprintf(&b, "gsvs_vertex_size: %d\n", abi.GSVSVertexSize)
		}
		if abi.ExportPrimitiveID {
			b.WriteString("export_prim_id: true\n")
		}
		if abi.Legalized16 {
			b.WriteString("legalized_16bit: true\n")
		}
	}
	return b.String()
}

func dumpVar(b *strings.Builder, prefix string, v shader.Variable) {
	if v.IsBuiltin() {
		fmt.Fprintf(b, "%s builtin=%d %s\n", prefix, v.Builtin, v.Name)
		return
	}
	n := v.Components
	if n == 0 {
		n = 4
	}
	fmt.Fprintf(b, "%s vec%d %s (location=%d.%d, slot=%d)", prefix, n, v.Name, v.Location, v.Component, int32(v.Slot))
	if v.ArrayLen > 0 {
		fmt.Fprintf(b, " [%d]", v.ArrayLen)
	}
	switch v.Interp {
	case shader.InterpFlat:
		b.WriteString(" flat")
	case shader.InterpNoPerspective:
		b.WriteString(" noperspective")
	}
	if v.PerPrimitive {
		b.WriteString(" per_primitive")
	}
	if v.Patch {
		b.WriteString(" patch")
	}
	b.WriteByte('\n')
}
