package regs

import (
	"math"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/budget"
	"github.com/gogpu/pipec/internal/info"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/internal/xmath"
	"github.com/gogpu/pipec/shader"
	"github.com/gogpu/pipec/state"
)

func bit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// EmitGraphics packs the register sequence of a graphics pipeline.
func EmitGraphics(p *hw.Profile, in *GraphicsInput) *Sequence {
	seq := &Sequence{}
	pi := in.Info

	emitDepthStencil(seq, pi)
	emitBlend(seq, p, pi)
	emitRaster(seq, p, in)
	emitMultisample(seq, pi)

	for _, group := range [][]shader.HWStage{
		{shader.HWStageLS, shader.HWStageHS},
		{shader.HWStageES, shader.HWStageGS, shader.HWStageNGG},
		{shader.HWStageVS},
	} {
		for _, hws := range group {
			for i := range in.Programs {
				if in.Programs[i].HW == hws {
					emitProgram(seq, p, &in.Programs[i])
				}
			}
		}
		switch group[0] {
		case shader.HWStageES:
			emitGeometry(seq, p, in)
		case shader.HWStageVS:
			emitVSOutputs(seq, p, in)
		}
	}
	if in.Tess != nil {
		emitTess(seq, p, pi, in.Tess)
	}
	for i := range in.Programs {
		if in.Programs[i].HW == shader.HWStageFS {
			emitProgram(seq, p, &in.Programs[i])
			emitPS(seq, p, pi, &in.PS)
		}
	}
	emitPSInputs(seq, p, in.PS.Inputs)
	emitMisc(seq, p, in)

	seq.finish()
	return seq
}

func emitDepthStencil(seq *Sequence, pi *info.PipelineInfo) {
	ds := &pi.DepthStencil
	var ctl uint32
	if ds.DepthTest {
		ctl |= 1<<1 | bit(ds.DepthWrite)<<2
		ctl |= translate.CompareFunc(ds.DepthCompare) << 4
	}
	ctl |= bit(ds.DepthBoundsTest) << 3
	if ds.StencilTest {
		ctl |= 1 | 1<<7
		ctl |= translate.CompareFunc(ds.Front.Compare) << 8
		ctl |= translate.CompareFunc(ds.Back.Compare) << 20
	}
	seq.Context.Set(DBDepthControl, ctl)

	seq.Context.Set(DBStencilControl,
		translate.StencilOp(ds.Front.FailOp)|
			translate.StencilOp(ds.Front.PassOp)<<4|
			translate.StencilOp(ds.Front.DepthFailOp)<<8|
			translate.StencilOp(ds.Back.FailOp)<<12|
			translate.StencilOp(ds.Back.PassOp)<<16|
			translate.StencilOp(ds.Back.DepthFailOp)<<20)

	if ds.StencilTest && !pi.Dynamic.Any(state.DynamicStencilCompareMask|
		state.DynamicStencilWriteMask|state.DynamicStencilReference) {
		ref := ds.StencilReference&0xFF | (ds.StencilReadMask&0xFF)<<8 |
			(ds.StencilWriteMask&0xFF)<<16 | 1<<24
		seq.Context.SetSeq(DBStencilRefMask, ref, ref)
	}
	if ds.DepthBoundsTest && !pi.Dynamic.Has(state.DynamicDepthBounds) {
		seq.Context.SetSeq(DBDepthBoundsMin,
			math.Float32bits(ds.MinDepthBounds), math.Float32bits(ds.MaxDepthBounds))
	}
}

// SX_PS_DOWNCONVERT formats.
const (
	sxNoConversion = 0
	sx32R          = 1
	sx32AR         = 2
	sx2_10_10_10   = 6
	sx8_8_8_8      = 7
	sx16_16GR      = 8
	sx16_16AR      = 9
	sx10_11_11     = 10
)

func downconvert(pi *info.PipelineInfo) uint32 {
	var v uint32
	for i, f := range pi.Rendering.ColorFormats {
		if i >= translate.MaxRTs || !pi.Blend.TargetEnabled(i) {
			continue
		}
		cf := translate.ClassifyColor(f)
		var c uint32
		switch cf.Format {
		case translate.Color8, translate.Color8_8, translate.Color8_8_8_8:
			c = sx8_8_8_8
		case translate.Color2_10_10_10:
			c = sx2_10_10_10
		case translate.Color10_11_11:
			c = sx10_11_11
		case translate.Color32:
			c = sx32R
		case translate.Color32_32:
			c = sx32AR
		case translate.Color16_16:
			c = sx16_16GR
			if cf.Number == translate.NumberFloat {
				c = sx16_16AR
			}
		default:
			c = sxNoConversion
		}
		v |= c << (4 * i)
	}
	return v
}

func emitBlend(seq *Sequence, p *hw.Profile, pi *info.PipelineInfo) {
	b := &pi.Blend
	seq.Context.SetSeq(CBBlend0Control, b.BlendControl[:]...)
	if p.Caps.RBPlus {
		seq.Context.SetSeq(SXMRT0BlendOpt, b.SXBlendOpt[:]...)
		seq.Context.Set(SXPSDownconvert, downconvert(pi))
	}
	seq.Context.SetSeq(CBTargetMask, b.TargetMask, b.ShaderMask)
	seq.Context.Set(CBColorControl, b.ColorControl)
	seq.Context.Set(SPIShaderColFormat, b.ColFormat)

	a2m := uint32(3<<8 | 1<<10 | 0<<12 | 2<<14 | 1<<16)
	seq.Context.Set(DBAlphaToMask, a2m|bit(pi.Multisample.AlphaToCoverage))

	if b.BlendEnable4Bit != 0 && !pi.Dynamic.Has(state.DynamicBlendConstants) {
		c := pi.ColorBlend.Constants
		seq.Context.SetSeq(CBBlendRed,
			math.Float32bits(c[0]), math.Float32bits(c[1]),
			math.Float32bits(c[2]), math.Float32bits(c[3]))
	}
}

// PA_SC_BINNER_CNTL_0 binning modes.
const (
	BinningAllowed            = 0
	BinningDisabledNewSC      = 2
	BinningDisabledLegacySC   = 3
	binnerContextStatesPerBin = 1
	binnerPersistentStates    = 1
	binnerFPOVSPerBatch       = 63
)

func binSizeField(size uint32) (small, extend uint32) {
	if size <= 16 {
		return 1, 0
	}
	return 0, xmath.Log2(size) - 5
}

// BinnerCntl packs PA_SC_BINNER_CNTL_0 for a bin size. A zero extent
// disables binning.
func BinnerCntl(p *hw.Profile, bin budget.Extent) uint32 {
	if !p.Caps.Binning || bin.Width == 0 || bin.Height == 0 {
		mode := uint32(BinningDisabledLegacySC)
		if p.Level >= hw.GFX10 {
			mode = BinningDisabledNewSC
		}
		return mode | 1<<18
	}
	xs, xe := binSizeField(bin.Width)
	ys, ye := binSizeField(bin.Height)
	return BinningAllowed |
		xs<<2 | ys<<3 | xe<<4 | ye<<7 |
		(binnerContextStatesPerBin-1)<<10 |
		(binnerPersistentStates-1)<<13 |
		1<<18 |
		binnerFPOVSPerBatch<<19 |
		1<<27
}

func emitRaster(seq *Sequence, p *hw.Profile, in *GraphicsInput) {
	pi := in.Info
	r := &pi.Raster

	front, back := translate.CullBits(r.CullMode)
	mode := bit(front) | bit(back)<<1 | bit(translate.FrontFaceCW(r.FrontFace))<<2
	if r.PolygonMode != state.PolygonFill {
		pm := translate.PolygonMode(r.PolygonMode)
		mode |= 1<<3 | pm<<5 | pm<<8
	}
	if r.DepthBiasEnable {
		mode |= 1<<11 | 1<<12 | 1<<13
	}
	mode |= bit(r.ProvokingVertexLast) << 19
	seq.Context.Set(PASuScModeCntl, mode)

	clip := uint32(in.VS.ClipDistMask & 0x3F)
	clip |= bit(!pi.Viewport.NegativeOneToOne) << 19
	clip |= bit(r.DiscardEnable) << 22
	clip |= 1 << 24
	clip |= bit(!r.DepthClipEnable)<<26 | bit(!r.DepthClipEnable)<<27
	seq.Context.Set(PAClClipCntl, clip)
	seq.Context.Set(PAClVTECntl, 0x3F|1<<10)

	if !pi.Dynamic.Has(state.DynamicLineWidth) {
		seq.Context.Set(PASuLineCntl, uint32(r.LineWidth*8)&0xFFFF)
	}
	seq.Context.Set(PASuVtxCntl, 1|2<<1|5<<3)

	msaa := pi.Multisample.Samples > 1 || r.LineRasterMode == state.LineRasterSmooth
	mc0 := 1 | bit(msaa)<<1 | bit(r.LineStipple)<<2
	if p.Level >= hw.GFX9 {
		mc0 |= 1 << 22
	}
	seq.Context.Set(PAScModeCntl0, mc0)

	mc1 := uint32(1<<3 | 3<<4)
	mc1 |= bit(pi.Multisample.PSIterSamples() > 1) << 16
	if in.OutOfOrder {
		mc1 |= 1<<25 | 7<<26
	}
	seq.Context.Set(PAScModeCntl1, mc1)

	if p.Level >= hw.GFX9 {
		over, under := translate.ConservativeMode(r.Conservative)
		seq.Context.Set(PAScConsRastCntl, bit(over)|bit(under)<<6|bit(!over && !under)<<7)
		seq.Context.Set(PAScBinnerCntl0, BinnerCntl(p, in.BinSize))
	}
}

func maxSampleDist(samples uint32) uint32 {
	switch samples {
	case 2:
		return 4
	case 4:
		return 6
	case 8:
		return 7
	case 16:
		return 8
	default:
		return 0
	}
}

func emitMultisample(seq *Sequence, pi *info.PipelineInfo) {
	ms := &pi.Multisample
	logSamples := xmath.Log2(max(ms.Samples, 1))
	logIter := xmath.Log2(ms.PSIterSamples())

	var aa uint32
	if ms.Samples > 1 {
		aa = logSamples | maxSampleDist(ms.Samples)<<13 | logSamples<<20
	}
	seq.Context.Set(PAScAAConfig, aa)
	seq.Context.Set(DBEQAA, logSamples|logIter<<4|logSamples<<8|logSamples<<12|1<<16|1<<20)

	line := bit(pi.Raster.LineRasterMode == state.LineRasterBresenham) << 10
	if pi.Raster.LineRasterMode == state.LineRasterRectangular {
		line |= 1<<11 | bit(ms.Samples > 1)<<9
	}
	seq.Context.Set(PAScLineCntl, line)

	if !pi.Dynamic.Has(state.DynamicSampleMask) {
		mask := ms.SampleMask & 0xFFFF
		if ms.Samples <= 1 {
			mask = 0xFFFF
		}
		seq.Context.SetSeq(PAScAAMaskX0Y0X1Y0, mask|mask<<16, mask|mask<<16)
	}
}

func programRegs(prog *Program) (lo, rsrc1, rsrc3 uint32) {
	switch prog.HW {
	case shader.HWStageLS:
		return SPIShaderPgmLoLS, SPIShaderPgmRsrc1LS, SPIShaderPgmRsrc3LS
	case shader.HWStageHS:
		lo = SPIShaderPgmLoHS
		if prog.Merged {
			lo = SPIShaderPgmLoLSHS
		}
		return lo, SPIShaderPgmRsrc1HS, SPIShaderPgmRsrc3HS
	case shader.HWStageES:
		return SPIShaderPgmLoES, SPIShaderPgmRsrc1ES, SPIShaderPgmRsrc3ES
	case shader.HWStageGS, shader.HWStageNGG:
		lo = SPIShaderPgmLoGS
		if prog.Merged || prog.HW == shader.HWStageNGG {
			lo = SPIShaderPgmLoESGS
		}
		return lo, SPIShaderPgmRsrc1GS, SPIShaderPgmRsrc3GS
	case shader.HWStageVS:
		return SPIShaderPgmLoVS, SPIShaderPgmRsrc1VS, SPIShaderPgmRsrc3VS
	default:
		return SPIShaderPgmLoPS, SPIShaderPgmRsrc1PS, SPIShaderPgmRsrc3PS
	}
}

func emitProgram(seq *Sequence, p *hw.Profile, prog *Program) {
	lo, rsrc1, rsrc3 := programRegs(prog)
	seq.Shader.SetSeq(lo, uint32(prog.VA>>8), uint32(prog.VA>>40))
	seq.Shader.SetSeq(rsrc1, prog.Config.RSRC1, prog.Config.RSRC2)
	if p.Level >= hw.GFX7 {
		seq.Shader.Set(rsrc3, prog.Config.RSRC3)
	}
}

func gsCutMode(maxVertOut uint32) uint32 {
	switch {
	case maxVertOut <= 128:
		return 3
	case maxVertOut <= 256:
		return 2
	case maxVertOut <= 512:
		return 1
	default:
		return 0
	}
}

func emitGeometry(seq *Sequence, p *hw.Profile, in *GraphicsInput) {
	g := in.Geometry
	switch {
	case in.NGG != nil:
		n := in.NGG
		seq.Context.Set(GENGGSubgrpCntl, n.PrimAmpFactor&0x1FF)
		seq.Context.Set(GEMaxOutputPerSubgroup, n.MaxOutVerts&0x7FF)
		instPrims := n.MaxGSPrims
		if g != nil {
			instPrims *= max(g.Invocations, 1)
		}
		seq.Context.Set(VGTGSOnchipCntl,
			n.HWMaxESVerts&0x7FF|(n.MaxGSPrims&0x7FF)<<11|(instPrims&0x3FF)<<22)
		seq.Context.Set(VGTGSOutPrimType, in.OutPrim)
		seq.Context.Set(VGTESGSRingItemSize, n.ESGSRingItem)
		if g != nil {
			seq.Context.Set(VGTGSMaxVertOut, g.MaxVertOut)
			seq.Context.Set(VGTGSInstanceCnt, bit(g.Invocations > 1)|(g.Invocations&0x7F)<<2)
		}
		seq.Context.Set(SPIShaderIdxFormat, 1)
		seq.Context.Set(VGTPrimitiveIDEn, bit(in.VS.ExportPrimitiveID && g == nil)<<2)
	case in.GS != nil && g != nil:
		gs := in.GS
		mode := uint32(3) | gsCutMode(g.MaxVertOut)<<4 | 1<<16
		if p.Caps.MergedShaders {
			mode |= 3 << 20
		}
		seq.Context.Set(VGTGSMode, mode)
		if p.Caps.MergedShaders {
			seq.Context.Set(VGTGSOnchipCntl, gs.OnchipCntl())
			seq.Context.Set(VGTGSMaxPrimsPerSubgroup, gs.MaxPrimsPerSubgroup)
		}
		seq.Context.Set(VGTGSOutPrimType, in.OutPrim)
		seq.Context.SetSeq(VGTESGSRingItemSize, gs.ESGSRingItem, gs.GSVSRingItem)
		seq.Context.SetSeq(VGTGSVertItemSize, g.VertexSize[:]...)
		seq.Context.Set(VGTGSMaxVertOut, g.MaxVertOut)
		seq.Context.Set(VGTGSInstanceCnt, bit(g.Invocations > 1)|(g.Invocations&0x7F)<<2)
	}
}

func emitVSOutputs(seq *Sequence, p *hw.Profile, in *GraphicsInput) {
	vs := &in.VS
	cfg := bit(vs.NumParams == 0)<<7 | (max(vs.NumParams, 1)-1)<<1
	if p.Caps.Mesh {
		cfg |= (vs.NumPrimParams & 0x1F) << 8
	}
	seq.Context.Set(SPIVSOutConfig, cfg)

	miscVec := vs.WritesPointSize || vs.WritesLayer || vs.WritesViewport || vs.WritesShadingRate
	dist := vs.ClipDistMask | vs.CullDistMask
	const exp4Comp = 4
	pos := uint32(exp4Comp)
	slot := uint32(1)
	if miscVec {
		pos |= exp4Comp << (4 * slot)
		slot++
	}
	if dist&0x0F != 0 {
		pos |= exp4Comp << (4 * slot)
		slot++
	}
	if dist&0xF0 != 0 {
		pos |= exp4Comp << (4 * slot)
	}
	seq.Context.Set(SPIShaderPosFormat, pos)

	out := uint32(vs.ClipDistMask) | uint32(vs.CullDistMask)<<8
	out |= bit(vs.WritesPointSize)<<16 | bit(vs.WritesLayer)<<18 | bit(vs.WritesViewport)<<19
	out |= bit(p.Caps.VRS && vs.WritesShadingRate) << 21
	out |= bit(dist&0x0F != 0)<<22 | bit(dist&0xF0 != 0)<<23
	out |= bit(miscVec) << 24
	seq.Context.Set(PAClVSOutCntl, out)

	if in.NGG == nil {
		seq.Context.Set(VGTPrimitiveIDEn, bit(vs.ExportPrimitiveID))
		seq.Context.Set(VGTReuseOff, bit(vs.ExportPrimitiveID))
	}
}

// VGT_TF_PARAM fields.
const (
	tessIsolines = 0
	tessTriangle = 1
	tessQuad     = 2

	partIntegerSpacing = 0
	partFracOdd        = 2
	partFracEven       = 3

	topoPoint   = 0
	topoLine    = 1
	topoTriCW   = 2
	topoTriCCW  = 3
	distTrapezo = 2
)

func emitTess(seq *Sequence, p *hw.Profile, pi *info.PipelineInfo, t *TessConfig) {
	seq.Context.Set(VGTLSHSConfig,
		t.Budget.NumPatches&0xFF|(t.InputVertices&0x3F)<<8|(t.OutputVertices&0x3F)<<14)

	var typ, part, topo uint32
	switch t.Domain {
	case shader.TessIsolines:
		typ = tessIsolines
	case shader.TessQuads:
		typ = tessQuad
	default:
		typ = tessTriangle
	}
	switch t.Spacing {
	case shader.SpacingFractionalOdd:
		part = partFracOdd
	case shader.SpacingFractionalEven:
		part = partFracEven
	default:
		part = partIntegerSpacing
	}
	ccw := t.CCW
	if !pi.Tess.DomainOriginUpperLeft {
		ccw = !ccw
	}
	switch {
	case t.PointMode:
		topo = topoPoint
	case t.Domain == shader.TessIsolines:
		topo = topoLine
	case ccw:
		topo = topoTriCCW
	default:
		topo = topoTriCW
	}
	param := typ | part<<2 | topo<<5
	if p.Level >= hw.GFX9 {
		param |= distTrapezo << 17
	}
	seq.Context.Set(VGTTFParam, param)
}

// SPI_SHADER_Z_FORMAT values.
const (
	zFormatZero  = 0
	zFormat32R   = 1
	zFormat32GR  = 2
	zFormat32ABG = 9
)

// Z orders of DB_SHADER_CONTROL.
const (
	zOrderLate          = 0
	zOrderEarlyThenLate = 1
)

func emitPS(seq *Sequence, p *hw.Profile, pi *info.PipelineInfo, ps *PSConfig) {
	seq.Context.SetSeq(SPIPSInputEna, ps.InputEna, ps.InputAddr)

	inCtl := ps.NumInterp & 0x3F
	if p.Level >= hw.GFX10 && p.PSWaveSize == 32 {
		inCtl |= 1 << 15
	}
	seq.Context.Set(SPIPSInControl, inCtl)

	pos := uint32(2)
	if ps.SampleShading {
		pos = 0
	}
	seq.Context.Set(SPIBarycCntl, pos|bit(ps.ReadsFrontFace)<<24)

	var z uint32
	switch {
	case ps.WritesSampleMask:
		z = zFormat32ABG
	case ps.WritesStencil:
		z = zFormat32GR
	case ps.WritesZ:
		z = zFormat32R
	default:
		z = zFormatZero
	}
	seq.Context.Set(SPIShaderZFormat, z)

	order := uint32(zOrderEarlyThenLate)
	if ps.WritesMemory && !ps.EarlyTests {
		order = zOrderLate
	}
	ctl := bit(ps.WritesZ) | bit(ps.WritesStencil)<<1 | order<<4
	ctl |= bit(ps.Kill || pi.Multisample.AlphaToCoverage) << 6
	ctl |= bit(ps.WritesSampleMask) << 8
	ctl |= bit(ps.WritesMemory)<<9 | bit(ps.WritesMemory)<<10
	ctl |= bit(ps.WritesSampleMask) << 11
	ctl |= bit(ps.EarlyTests) << 12
	if p.Level >= hw.GFX9 {
		ctl |= bit(p.Caps.RBPlus) << 15
	}
	seq.Context.Set(DBShaderControl, ctl)
}

func emitPSInputs(seq *Sequence, p *hw.Profile, inputs []PSInput) {
	if len(inputs) == 0 {
		return
	}
	vals := make([]uint32, len(inputs))
	for i, in := range inputs {
		v := in.Offset & 0x3F
		if in.Offset == DefaultInputOffset {
			v |= uint32(in.Default&3) << 8
		}
		v |= bit(in.Flat) << 10
		if p.Level >= hw.GFX11 {
			v |= bit(in.PerPrimitive) << 22
		}
		vals[i] = v
	}
	seq.Context.SetSeq(SPIPSInputCntl0, vals...)
}

// VGT_SHADER_STAGES_EN stage selects.
const (
	lsStageOn    = 1
	esStageDS    = 1
	esStageReal  = 2
	vsStageReal  = 0
	vsStageDS    = 1
	vsStageCopy  = 2
	maxPrimgroup = 2
)

// ShaderStagesEn packs VGT_SHADER_STAGES_EN.
func ShaderStagesEn(p *hw.Profile, in *GraphicsInput) uint32 {
	pi := in.Info
	var v uint32
	tess := pi.HasTess()
	gs := pi.HasGS()
	ngg := in.NGG != nil

	switch {
	case pi.IsMesh():
		v |= 1<<5 | 1<<13 | 1<<25
	case tess:
		v |= lsStageOn | 1<<2 | 1<<8
		if gs || ngg {
			v |= esStageDS << 3
			v |= bit(gs) << 5
		} else {
			v |= vsStageDS << 6
		}
	case gs:
		v |= esStageReal<<3 | 1<<5
	default:
		v |= vsStageReal << 6
	}
	if ngg && !pi.IsMesh() {
		v |= 1<<5 | 1<<13
		v |= bit(in.NGGPassthrough) << 15
	}
	if gs && !ngg {
		v |= vsStageCopy << 6
	}
	if p.Level >= hw.GFX9 {
		v |= maxPrimgroup << 16
	}
	if p.Level >= hw.GFX10 {
		for _, prog := range in.Programs {
			if prog.Config.WaveSize != 32 {
				continue
			}
			switch prog.HW {
			case shader.HWStageHS:
				v |= 1 << 21
			case shader.HWStageGS, shader.HWStageNGG:
				v |= 1 << 22
			case shader.HWStageVS:
				v |= 1 << 23
			}
		}
	}
	return v
}

// CliprectRule computes PA_SC_CLIPRECT_RULE for the discard rectangles.
func CliprectRule(d info.DiscardRectangleInfo) uint32 {
	if d.Count == 0 {
		return 0xFFFF
	}
	const maxRects = 4
	var rule uint32
	relevant := uint32(1)<<min(d.Count, maxRects) - 1
	for i := uint32(0); i < 1<<maxRects; i++ {
		subset := i & relevant
		if d.Mode == state.DiscardInclusive && subset == 0 {
			continue
		}
		if d.Mode == state.DiscardExclusive && subset != 0 {
			continue
		}
		rule |= 1 << i
	}
	return rule
}

func combinerMode(c state.ShadingRateCombiner) uint32 {
	switch c {
	case state.CombinerReplace:
		return 1
	case state.CombinerMin:
		return 2
	case state.CombinerMax:
		return 3
	case state.CombinerMul:
		return 4
	default:
		return 0
	}
}

func emitMisc(seq *Sequence, p *hw.Profile, in *GraphicsInput) {
	pi := in.Info
	if p.Level >= hw.GFX8 && p.Level < hw.GFX11 && in.NGG == nil {
		depth := uint32(30)
		if in.Tess != nil && in.Tess.Spacing == shader.SpacingFractionalOdd {
			depth = 14
		}
		seq.Context.Set(VGTVertexReuseBlockCntl, depth)
	}
	seq.Context.Set(VGTShaderStagesEn, ShaderStagesEn(p, in))
	seq.Context.Set(PAScCliprectRule, CliprectRule(pi.DiscardRectangles))

	if p.Caps.VRS {
		fsr := pi.FragmentShadingRate
		vrs := combinerMode(fsr.Combiners[0])<<3 | combinerMode(fsr.Combiners[1])<<6
		seq.Context.Set(PAClVRSCntl, vrs)
		var override uint32
		if pi.VRSEnabled && !pi.Dynamic.Has(state.DynamicFragmentShadingRate) {
			override = 1 | xmath.Log2(max(fsr.Width, 1))<<4 | xmath.Log2(max(fsr.Height, 1))<<6
		}
		seq.Context.Set(DBVRSOverrideCntl, override)
	}
}

// EmitCompute packs the register sequence of a compute pipeline.
func EmitCompute(p *hw.Profile, in *ComputeInput) *Sequence {
	seq := &Sequence{}
	prog := &in.Program
	seq.Shader.SetSeq(ComputePgmLo, uint32(prog.VA>>8), uint32(prog.VA>>40))
	seq.Shader.SetSeq(ComputePgmRsrc1, prog.Config.RSRC1, prog.Config.RSRC2)
	if p.Level >= hw.GFX10 {
		seq.Shader.Set(ComputePgmRsrc3, prog.Config.RSRC3)
	}
	x, y, z := max(in.Workgroup[0], 1), max(in.Workgroup[1], 1), max(in.Workgroup[2], 1)
	seq.Shader.SetSeq(ComputeNumThreadX, x, y, z)

	wave := max(prog.Config.WaveSize, 32)
	waves := xmath.DivRoundUp(x*y*z, wave)
	var limits uint32
	if waves > 1 {
		limits |= 1 << 12
		if p.Level < hw.GFX10 && waves%p.SIMDsPerCU == 0 {
			limits |= 1 << 22
		}
	}
	seq.Shader.Set(ComputeResourceLimits, limits)

	seq.finish()
	return seq
}
