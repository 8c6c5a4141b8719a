package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

// Config is a pipeline file: one hardware profile and the pipelines to
// build for it.
//
//	profile = "navi21"
//	driver_flags = ["no-ngg"]
//
//	[[graphics]]
//	name = "triangle"
//	vertex = { source = "tri.wgsl", entry = "vs_main" }
//	fragment = { source = "tri.wgsl", entry = "fs_main" }
//	color_formats = ["rgba8unorm"]
type Config struct {
	Profile     string   `toml:"profile"`
	DriverFlags []string `toml:"driver_flags"`
	// MemoryBudget bounds code memory in bytes; 0 is the default.
	MemoryBudget uint64 `toml:"memory_budget"`

	Graphics []GraphicsConfig `toml:"graphics"`
	Compute  []ComputeConfig  `toml:"compute"`

	dir string
}

// ShaderConfig names a WGSL file and an entry point.
type ShaderConfig struct {
	Source string `toml:"source"`
	Entry  string `toml:"entry"`
}

// VertexBufferConfig is one vertex buffer binding.
type VertexBufferConfig struct {
	Stride     uint64            `toml:"stride"`
	Instance   bool              `toml:"instance"`
	Attributes []AttributeConfig `toml:"attributes"`
}

// AttributeConfig is one vertex attribute.
type AttributeConfig struct {
	Location uint32 `toml:"location"`
	Format   string `toml:"format"`
	Offset   uint64 `toml:"offset"`
}

// DepthConfig is the depth test block.
type DepthConfig struct {
	Test    bool   `toml:"test"`
	Write   bool   `toml:"write"`
	Compare string `toml:"compare"`
}

// BlendConfig is the blend state of one color target.
type BlendConfig struct {
	Enable bool `toml:"enable"`
	// Mask lists the written channels ("rgba", "rg", "" for none). An
	// absent mask writes every channel.
	Mask     *string `toml:"mask"`
	SrcColor string  `toml:"src_color"`
	DstColor string  `toml:"dst_color"`
	OpColor  string  `toml:"op_color"`
	SrcAlpha string  `toml:"src_alpha"`
	DstAlpha string  `toml:"dst_alpha"`
	OpAlpha  string  `toml:"op_alpha"`
}

// GraphicsConfig describes one graphics pipeline.
type GraphicsConfig struct {
	Name     string        `toml:"name"`
	Vertex   ShaderConfig  `toml:"vertex"`
	Fragment *ShaderConfig `toml:"fragment"`

	Topology      string               `toml:"topology"`
	VertexBuffers []VertexBufferConfig `toml:"vertex_buffers"`
	CullMode      string               `toml:"cull_mode"`
	FrontFace     string               `toml:"front_face"`
	Discard       bool                 `toml:"rasterizer_discard"`
	Samples       uint32               `toml:"samples"`

	ColorFormats  []string      `toml:"color_formats"`
	DepthFormat   string        `toml:"depth_format"`
	StencilFormat string        `toml:"stencil_format"`
	Depth         *DepthConfig  `toml:"depth"`
	Blend         []BlendConfig `toml:"blend"`
	Dynamic       []string      `toml:"dynamic"`
}

// ComputeConfig describes one compute pipeline.
type ComputeConfig struct {
	Name   string       `toml:"name"`
	Shader ShaderConfig `toml:"shader"`
}

var errConfig = errors.New("pipec: invalid config")

// LoadConfig decodes a pipeline file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes pipeline file contents.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var de *toml.DecodeError
		if errors.As(err, &de) {
			row, col := de.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", errConfig, row, col, de.Error())
		}
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	if cfg.Profile == "" {
		return nil, fmt.Errorf("%w: missing profile", errConfig)
	}
	return &cfg, nil
}

// HardwareProfile resolves the profile name and driver flags.
func (c *Config) HardwareProfile() (*hw.Profile, error) {
	p, ok := hw.Lookup(c.Profile)
	if !ok {
		return nil, fmt.Errorf("%w: unknown profile %q (have %s)", errConfig, c.Profile, strings.Join(hw.Names(), ", "))
	}
	var flags hw.DriverFlags
	for _, name := range c.DriverFlags {
		f, ok := driverFlags[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown driver flag %q", errConfig, name)
		}
		flags |= f
	}
	if flags != 0 {
		p = p.WithFlags(p.Flags | flags)
	}
	return p, nil
}

// Sources returns every shader file the config reads.
func (c *Config) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s *ShaderConfig) {
		if s == nil || s.Source == "" {
			return
		}
		p := c.path(s.Source)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for i := range c.Graphics {
		add(&c.Graphics[i].Vertex)
		add(c.Graphics[i].Fragment)
	}
	for i := range c.Compute {
		add(&c.Compute[i].Shader)
	}
	return out
}

func (c *Config) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

func (c *Config) stage(st shader.Stage, s *ShaderConfig) (state.StageDescriptor, error) {
	if s.Source == "" {
		return state.StageDescriptor{}, fmt.Errorf("%w: %s stage without source", errConfig, st)
	}
	src, err := os.ReadFile(c.path(s.Source))
	if err != nil {
		return state.StageDescriptor{}, err
	}
	return state.StageDescriptor{
		Stage:      st,
		Module:     shader.ModuleRef{Name: s.Source, WGSL: string(src)},
		EntryPoint: s.Entry,
	}, nil
}

// GraphicsDescription builds the description of graphics pipeline i.
func (c *Config) GraphicsDescription(i int) (*state.GraphicsPipelineDescription, error) {
	g := &c.Graphics[i]
	desc := &state.GraphicsPipelineDescription{Label: g.Name}

	vs, err := c.stage(shader.StageVertex, &g.Vertex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Name, err)
	}
	desc.Stages = append(desc.Stages, vs)
	if g.Fragment != nil {
		fs, err := c.stage(shader.StageFragment, g.Fragment)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", g.Name, err)
		}
		desc.Stages = append(desc.Stages, fs)
	}

	var p parser
	desc.InputAssembly.Topology = p.topology(g.Topology)
	if len(g.VertexBuffers) > 0 {
		desc.VertexInput = &state.VertexInputState{}
		for _, vb := range g.VertexBuffers {
			layout := gputypes.VertexBufferLayout{ArrayStride: vb.Stride, StepMode: gputypes.VertexStepModeVertex}
			if vb.Instance {
				layout.StepMode = gputypes.VertexStepModeInstance
			}
			for _, a := range vb.Attributes {
				layout.Attributes = append(layout.Attributes, gputypes.VertexAttribute{
					Format:         p.vertexFormat(a.Format),
					Offset:         a.Offset,
					ShaderLocation: a.Location,
				})
			}
			desc.VertexInput.Buffers = append(desc.VertexInput.Buffers, layout)
		}
	}
	desc.Viewport = &state.ViewportState{ViewportCount: 1, ScissorCount: 1}
	desc.Rasterization = state.RasterizationState{
		DiscardEnable: g.Discard,
		CullMode:      p.cullMode(g.CullMode),
		FrontFace:     p.frontFace(g.FrontFace),
		LineWidth:     1,
	}
	if g.Samples > 1 {
		desc.Multisample = &state.MultisampleState{Samples: g.Samples}
	}

	for _, f := range g.ColorFormats {
		desc.Rendering.ColorFormats = append(desc.Rendering.ColorFormats, p.textureFormat(f))
	}
	desc.Rendering.DepthFormat = p.textureFormat(g.DepthFormat)
	desc.Rendering.StencilFormat = p.textureFormat(g.StencilFormat)
	if g.Depth != nil {
		desc.DepthStencil = &state.DepthStencilState{
			DepthTest:    g.Depth.Test,
			DepthWrite:   g.Depth.Write,
			DepthCompare: p.compare(g.Depth.Compare),
		}
	}

	if len(g.ColorFormats) > 0 {
		desc.ColorBlend = &state.ColorBlendState{}
		for i := range g.ColorFormats {
			att := state.ColorAttachmentBlend{WriteMask: gputypes.ColorWriteMaskAll}
			if i < len(g.Blend) {
				att = p.blend(&g.Blend[i])
			}
			desc.ColorBlend.Attachments = append(desc.ColorBlend.Attachments, att)
		}
	}
	for _, name := range g.Dynamic {
		desc.Dynamic |= p.dynamic(name)
	}
	if p.err != nil {
		return nil, fmt.Errorf("%s: %w", g.Name, p.err)
	}
	return desc, nil
}

// ComputeDescription builds the description of compute pipeline i.
func (c *Config) ComputeDescription(i int) (*state.ComputePipelineDescription, error) {
	cc := &c.Compute[i]
	cs, err := c.stage(shader.StageCompute, &cc.Shader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cc.Name, err)
	}
	return &state.ComputePipelineDescription{Label: cc.Name, Stage: cs}, nil
}

var driverFlags = map[string]hw.DriverFlags{
	"no-ngg":          hw.FlagNoNGG,
	"no-ngg-culling":  hw.FlagNoNGGCulling,
	"no-out-of-order": hw.FlagNoOutOfOrder,
	"no-binning":      hw.FlagNoBinning,
	"no-rbplus":       hw.FlagNoRBPlus,
	"wave64":          hw.FlagWave64,
}

var (
	topologies = map[string]gputypes.PrimitiveTopology{
		"point-list":     gputypes.PrimitiveTopologyPointList,
		"line-list":      gputypes.PrimitiveTopologyLineList,
		"line-strip":     gputypes.PrimitiveTopologyLineStrip,
		"triangle-list":  gputypes.PrimitiveTopologyTriangleList,
		"triangle-strip": gputypes.PrimitiveTopologyTriangleStrip,
	}
	compares = map[string]gputypes.CompareFunction{
		"never":         gputypes.CompareFunctionNever,
		"less":          gputypes.CompareFunctionLess,
		"equal":         gputypes.CompareFunctionEqual,
		"less-equal":    gputypes.CompareFunctionLessEqual,
		"greater":       gputypes.CompareFunctionGreater,
		"not-equal":     gputypes.CompareFunctionNotEqual,
		"greater-equal": gputypes.CompareFunctionGreaterEqual,
		"always":        gputypes.CompareFunctionAlways,
	}
	cullModes = map[string]gputypes.CullMode{
		"none":  gputypes.CullModeNone,
		"front": gputypes.CullModeFront,
		"back":  gputypes.CullModeBack,
	}
	frontFaces = map[string]gputypes.FrontFace{
		"ccw": gputypes.FrontFaceCCW,
		"cw":  gputypes.FrontFaceCW,
	}
	blendFactors = map[string]gputypes.BlendFactor{
		"zero":                gputypes.BlendFactorZero,
		"one":                 gputypes.BlendFactorOne,
		"src":                 gputypes.BlendFactorSrc,
		"one-minus-src":       gputypes.BlendFactorOneMinusSrc,
		"src-alpha":           gputypes.BlendFactorSrcAlpha,
		"one-minus-src-alpha": gputypes.BlendFactorOneMinusSrcAlpha,
		"dst":                 gputypes.BlendFactorDst,
		"one-minus-dst":       gputypes.BlendFactorOneMinusDst,
		"dst-alpha":           gputypes.BlendFactorDstAlpha,
		"one-minus-dst-alpha": gputypes.BlendFactorOneMinusDstAlpha,
		"src-alpha-saturated": gputypes.BlendFactorSrcAlphaSaturated,
		"constant":            gputypes.BlendFactorConstant,
		"one-minus-constant":  gputypes.BlendFactorOneMinusConstant,
	}
	blendOps = map[string]gputypes.BlendOperation{
		"add":              gputypes.BlendOperationAdd,
		"subtract":         gputypes.BlendOperationSubtract,
		"reverse-subtract": gputypes.BlendOperationReverseSubtract,
		"min":              gputypes.BlendOperationMin,
		"max":              gputypes.BlendOperationMax,
	}
	textureFormats = map[string]gputypes.TextureFormat{
		"r8unorm":               gputypes.TextureFormatR8Unorm,
		"r16float":              gputypes.TextureFormatR16Float,
		"r32float":              gputypes.TextureFormatR32Float,
		"r32uint":               gputypes.TextureFormatR32Uint,
		"rg8unorm":              gputypes.TextureFormatRG8Unorm,
		"rg16float":             gputypes.TextureFormatRG16Float,
		"rg32float":             gputypes.TextureFormatRG32Float,
		"rgba8unorm":            gputypes.TextureFormatRGBA8Unorm,
		"rgba8unorm-srgb":       gputypes.TextureFormatRGBA8UnormSrgb,
		"rgba8uint":             gputypes.TextureFormatRGBA8Uint,
		"bgra8unorm":            gputypes.TextureFormatBGRA8Unorm,
		"bgra8unorm-srgb":       gputypes.TextureFormatBGRA8UnormSrgb,
		"rgb10a2unorm":          gputypes.TextureFormatRGB10A2Unorm,
		"rg11b10ufloat":         gputypes.TextureFormatRG11B10Ufloat,
		"rgba16float":           gputypes.TextureFormatRGBA16Float,
		"rgba32float":           gputypes.TextureFormatRGBA32Float,
		"stencil8":              gputypes.TextureFormatStencil8,
		"depth16unorm":          gputypes.TextureFormatDepth16Unorm,
		"depth24plus":           gputypes.TextureFormatDepth24Plus,
		"depth24plus-stencil8":  gputypes.TextureFormatDepth24PlusStencil8,
		"depth32float":          gputypes.TextureFormatDepth32Float,
		"depth32float-stencil8": gputypes.TextureFormatDepth32FloatStencil8,
	}
	vertexFormats = map[string]gputypes.VertexFormat{
		"unorm8x4":  gputypes.VertexFormatUnorm8x4,
		"snorm16x2": gputypes.VertexFormatSnorm16x2,
		"float16x2": gputypes.VertexFormatFloat16x2,
		"float16x4": gputypes.VertexFormatFloat16x4,
		"float32":   gputypes.VertexFormatFloat32,
		"float32x2": gputypes.VertexFormatFloat32x2,
		"float32x3": gputypes.VertexFormatFloat32x3,
		"float32x4": gputypes.VertexFormatFloat32x4,
		"uint32":    gputypes.VertexFormatUint32,
		"uint32x4":  gputypes.VertexFormatUint32x4,
		"sint32x4":  gputypes.VertexFormatSint32x4,
	}
	dynamicStates = map[string]state.DynamicState{
		"viewport":        state.DynamicViewport,
		"scissor":         state.DynamicScissor,
		"line-width":      state.DynamicLineWidth,
		"blend-constants": state.DynamicBlendConstants,
	}
)

// parser resolves enum names and keeps the first failure.
type parser struct {
	err error
}

func lookup[T any](p *parser, m map[string]T, kind, name string, def T) T {
	if name == "" {
		return def
	}
	v, ok := m[strings.ToLower(name)]
	if !ok && p.err == nil {
		p.err = fmt.Errorf("%w: unknown %s %q", errConfig, kind, name)
	}
	return v
}

func (p *parser) topology(s string) gputypes.PrimitiveTopology {
	return lookup(p, topologies, "topology", s, gputypes.PrimitiveTopologyTriangleList)
}

func (p *parser) compare(s string) gputypes.CompareFunction {
	return lookup(p, compares, "compare function", s, gputypes.CompareFunctionAlways)
}

func (p *parser) cullMode(s string) gputypes.CullMode {
	return lookup(p, cullModes, "cull mode", s, gputypes.CullModeNone)
}

func (p *parser) frontFace(s string) gputypes.FrontFace {
	return lookup(p, frontFaces, "front face", s, gputypes.FrontFaceCCW)
}

func (p *parser) textureFormat(s string) gputypes.TextureFormat {
	return lookup(p, textureFormats, "texture format", s, gputypes.TextureFormatUndefined)
}

func (p *parser) vertexFormat(s string) gputypes.VertexFormat {
	return lookup(p, vertexFormats, "vertex format", s, gputypes.VertexFormatFloat32x4)
}

func (p *parser) dynamic(s string) state.DynamicState {
	return lookup(p, dynamicStates, "dynamic state", s, 0)
}

func (p *parser) blend(b *BlendConfig) state.ColorAttachmentBlend {
	att := state.ColorAttachmentBlend{
		BlendEnable: b.Enable,
		WriteMask:   gputypes.ColorWriteMaskAll,
		Color: gputypes.BlendComponent{
			SrcFactor: lookup(p, blendFactors, "blend factor", b.SrcColor, gputypes.BlendFactorOne),
			DstFactor: lookup(p, blendFactors, "blend factor", b.DstColor, gputypes.BlendFactorZero),
			Operation: lookup(p, blendOps, "blend operation", b.OpColor, gputypes.BlendOperationAdd),
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: lookup(p, blendFactors, "blend factor", b.SrcAlpha, gputypes.BlendFactorOne),
			DstFactor: lookup(p, blendFactors, "blend factor", b.DstAlpha, gputypes.BlendFactorZero),
			Operation: lookup(p, blendOps, "blend operation", b.OpAlpha, gputypes.BlendOperationAdd),
		},
	}
	if b.Mask != nil {
		att.WriteMask = p.writeMask(*b.Mask)
	}
	return att
}

func (p *parser) writeMask(s string) gputypes.ColorWriteMask {
	var m gputypes.ColorWriteMask
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'r':
			m |= gputypes.ColorWriteMaskRed
		case 'g':
			m |= gputypes.ColorWriteMaskGreen
		case 'b':
			m |= gputypes.ColorWriteMaskBlue
		case 'a':
			m |= gputypes.ColorWriteMaskAlpha
		default:
			if p.err == nil {
				p.err = fmt.Errorf("%w: bad write mask %q", errConfig, s)
			}
		}
	}
	return m
}
