package shader

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Ingest errors.
var (
	// ErrParse is returned when the shader source cannot be parsed.
	ErrParse = errors.New("shader: parse failed")

	// ErrEntryPointNotFound is returned when the named entry point does
	// not exist for the requested stage.
	ErrEntryPointNotFound = errors.New("shader: entry point not found")

	// ErrStageMismatch is returned when a module is bound to the wrong stage.
	ErrStageMismatch = errors.New("shader: stage mismatch")

	// ErrEmptyModuleRef is returned when a ModuleRef carries no source.
	ErrEmptyModuleRef = errors.New("shader: empty module reference")
)

// Ingester turns a module reference into a driver IR handle.
type Ingester interface {
	Ingest(stage Stage, ref ModuleRef, entryPoint string) (*Module, error)
}

// NagaIngester ingests WGSL through naga and passes pre-built modules
// through unchanged.
type NagaIngester struct{}

// Ingest implements Ingester.
func (NagaIngester) Ingest(stage Stage, ref ModuleRef, entryPoint string) (*Module, error) {
	if ref.Module != nil {
		if ref.Module.Stage != stage {
			return nil, fmt.Errorf("%w: module %q is %s, bound as %s",
				ErrStageMismatch, ref.Name, ref.Module.Stage, stage)
		}
		m := ref.Module.Clone()
		if entryPoint != "" {
			m.EntryPoint = entryPoint
		}
		if m.Identity == ([32]byte{}) {
			m.Identity = m.Digest()
		}
		return m, nil
	}
	if ref.WGSL == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyModuleRef, ref.Name)
	}

	ast, err := naga.Parse(ref.WGSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, ref.Name, err)
	}
	irModule, err := naga.LowerWithSource(ast, ref.WGSL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, ref.Name, err)
	}

	ep, err := findEntryPoint(irModule, stage, entryPoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref.Name, err)
	}

	m := &Module{
		Stage:      stage,
		EntryPoint: ep.Name,
		Identity:   sha256.Sum256([]byte(ref.WGSL)),
		Workgroup:  ep.Workgroup,
		IR:         irModule,
	}
	r := reflector{ir: irModule, m: m}
	for _, arg := range ep.Function.Arguments {
		r.reflectIO(arg.Binding, arg.Type, arg.Name, true)
	}
	if res := ep.Function.Result; res != nil {
		r.reflectIO(res.Binding, res.Type, "", false)
	}
	r.reflectGlobals()

	switch stage {
	case StageFragment:
		m.Fragment.EarlyFragmentTests = ep.EarlyDepthTest != nil
		m.Fragment.Discards = blockHasKill(ep.Function.Body)
		m.Fragment.WritesDepth = m.Writes(BuiltinFragDepth)
		m.Fragment.WritesSampleMask = m.Writes(BuiltinSampleMask)
		m.Fragment.SampleShading = m.Reads(BuiltinSampleIndex)
	case StageMesh:
		if mi := ep.MeshInfo; mi != nil {
			m.Mesh.MaxVertices = mi.MaxVertices
			m.Mesh.MaxPrimitives = mi.MaxPrimitives
			switch mi.Topology {
			case ir.MeshTopologyPoints:
				m.Mesh.Output = GSPoints
			case ir.MeshTopologyLines:
				m.Mesh.Output = GSLines
			default:
				m.Mesh.Output = GSTriangles
			}
		}
	}
	if len(irModule.Overrides) > 0 {
		m.Overrides = make(map[string]float64, len(irModule.Overrides))
		for _, o := range irModule.Overrides {
			m.Overrides[o.Name] = math.NaN()
		}
	}
	return m, nil
}

func nagaStage(s Stage) (ir.ShaderStage, bool) {
	switch s {
	case StageVertex:
		return ir.StageVertex, true
	case StageFragment:
		return ir.StageFragment, true
	case StageCompute:
		return ir.StageCompute, true
	case StageMesh:
		return ir.StageMesh, true
	case StageTask:
		return ir.StageTask, true
	default:
		return 0, false
	}
}

func findEntryPoint(m *ir.Module, stage Stage, name string) (*ir.EntryPoint, error) {
	want, ok := nagaStage(stage)
	if !ok {
		return nil, fmt.Errorf("%w: WGSL has no %s stage", ErrStageMismatch, stage)
	}
	for i := range m.EntryPoints {
		ep := &m.EntryPoints[i]
		if name != "" && ep.Name != name {
			continue
		}
		if ep.Stage != want {
			if name != "" {
				return nil, fmt.Errorf("%w: entry point %q is not a %s entry point",
					ErrStageMismatch, name, stage)
			}
			continue
		}
		return ep, nil
	}
	if name == "" {
		name = "<any>"
	}
	return nil, fmt.Errorf("%w: %s %q", ErrEntryPointNotFound, stage, name)
}

type reflector struct {
	ir *ir.Module
	m  *Module
}

func (r *reflector) reflectIO(b *ir.Binding, ty ir.TypeHandle, name string, input bool) {
	if b == nil {
		// Struct of bound members.
		if int(ty) >= len(r.ir.Types) {
			return
		}
		st, ok := r.ir.Types[ty].Inner.(ir.StructType)
		if !ok {
			return
		}
		for _, mem := range st.Members {
			if mem.Binding != nil {
				r.reflectIO(mem.Binding, mem.Type, mem.Name, input)
			}
		}
		return
	}

	switch bb := (*b).(type) {
	case ir.BuiltinBinding:
		bi := builtinFromNaga(bb.Builtin)
		if bi == BuiltinNone {
			return
		}
		if input {
			r.m.BuiltinsRead = r.m.BuiltinsRead.With(bi)
		} else {
			r.m.BuiltinsWritten = r.m.BuiltinsWritten.With(bi)
		}
	case ir.LocationBinding:
		comps, arrayLen, is16 := r.shape(ty)
		v := Variable{
			Name:            name,
			Location:        bb.Location,
			Components:      comps,
			ArrayLen:        arrayLen,
			HighPrecision16: is16,
		}
		if bb.Interpolation != nil {
			switch bb.Interpolation.Kind {
			case ir.InterpolationFlat:
				v.Interp = InterpFlat
			case ir.InterpolationLinear:
				v.Interp = InterpNoPerspective
			}
		}
		if input {
			r.m.Inputs = append(r.m.Inputs, v)
			return
		}
		if r.m.Stage == StageFragment {
			if bb.BlendSrc != nil && *bb.BlendSrc == 1 {
				r.m.Fragment.DualSource = true
				return
			}
			if bb.Location < 8 {
				r.m.Fragment.ColorsWritten |= 1 << bb.Location
			}
		}
		r.m.Outputs = append(r.m.Outputs, v)
	}
}

// shape returns the component count, array length and 16-bit flag of an
// I/O type.
func (r *reflector) shape(ty ir.TypeHandle) (uint8, uint32, bool) {
	if int(ty) >= len(r.ir.Types) {
		return 4, 0, false
	}
	switch t := r.ir.Types[ty].Inner.(type) {
	case ir.ScalarType:
		return 1, 0, t.Width == 2
	case ir.VectorType:
		return uint8(t.Size), 0, t.Scalar.Width == 2
	case ir.ArrayType:
		c, _, is16 := r.shape(t.Base)
		var n uint32
		if t.Size.Constant != nil {
			n = *t.Size.Constant
		}
		return c, n, is16
	default:
		return 4, 0, false
	}
}

func (r *reflector) reflectGlobals() {
	for _, g := range r.ir.GlobalVariables {
		switch g.Space {
		case ir.SpacePushConstant:
			r.m.PushConstantBytes += ir.TypeSize(r.ir, g.Type)
			continue
		case ir.SpaceWorkGroup:
			r.m.SharedBytes += ir.TypeSize(r.ir, g.Type)
			continue
		}
		if g.Binding == nil {
			continue
		}
		res := Resource{Set: g.Binding.Group, Binding: g.Binding.Binding, Count: 1}
		switch g.Space {
		case ir.SpaceUniform:
			res.Kind = ResourceUniformBuffer
		case ir.SpaceStorage:
			res.Kind = ResourceStorageBuffer
			res.Written = g.Access == ir.StorageReadWrite
		case ir.SpaceHandle:
			res.Kind = r.handleKind(g.Type, &res)
		default:
			continue
		}
		r.m.Resources = append(r.m.Resources, res)
	}
}

func (r *reflector) handleKind(ty ir.TypeHandle, res *Resource) ResourceKind {
	if int(ty) >= len(r.ir.Types) {
		return ResourceSampledImage
	}
	switch t := r.ir.Types[ty].Inner.(type) {
	case ir.SamplerType:
		return ResourceSampler
	case ir.ImageType:
		if t.Class == ir.ImageClassStorage {
			res.Written = true
			return ResourceStorageImage
		}
		return ResourceSampledImage
	case ir.BindingArrayType:
		if t.Size != nil {
			res.Count = *t.Size
		}
		return r.handleKind(t.Base, res)
	default:
		return ResourceSampledImage
	}
}

func builtinFromNaga(b ir.BuiltinValue) Builtin {
	switch b {
	case ir.BuiltinPosition:
		return BuiltinPosition
	case ir.BuiltinVertexIndex:
		return BuiltinVertexIndex
	case ir.BuiltinInstanceIndex:
		return BuiltinInstanceIndex
	case ir.BuiltinFrontFacing:
		return BuiltinFrontFacing
	case ir.BuiltinFragDepth:
		return BuiltinFragDepth
	case ir.BuiltinSampleIndex:
		return BuiltinSampleIndex
	case ir.BuiltinSampleMask:
		return BuiltinSampleMask
	case ir.BuiltinViewIndex:
		return BuiltinViewIndex
	case ir.BuiltinPrimitiveIndex:
		return BuiltinPrimitiveID
	case ir.BuiltinPointSize:
		return BuiltinPointSize
	case ir.BuiltinClipDistance:
		return BuiltinClipDistance
	case ir.BuiltinLocalInvocationID, ir.BuiltinLocalInvocationIndex:
		return BuiltinLocalInvocationID
	case ir.BuiltinGlobalInvocationID:
		return BuiltinGlobalInvocationID
	case ir.BuiltinWorkGroupID:
		return BuiltinWorkgroupID
	case ir.BuiltinNumWorkGroups:
		return BuiltinNumWorkgroups
	default:
		return BuiltinNone
	}
}

func blockHasKill(b ir.Block) bool {
	for _, st := range b {
		switch k := st.Kind.(type) {
		case ir.StmtKill:
			return true
		case ir.StmtBlock:
			if blockHasKill(k.Block) {
				return true
			}
		case ir.StmtIf:
			if blockHasKill(k.Accept) || blockHasKill(k.Reject) {
				return true
			}
		case ir.StmtLoop:
			if blockHasKill(k.Body) || blockHasKill(k.Continuing) {
				return true
			}
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				if blockHasKill(c.Body) {
					return true
				}
			}
		}
	}
	return false
}
