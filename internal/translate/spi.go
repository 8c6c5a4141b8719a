package translate

// SPI_SHADER_COL_FORMAT export formats, one nibble per render target.
const (
	SPIShaderZero        = 0
	SPIShader32R         = 1
	SPIShader32GR        = 2
	SPIShader32AR        = 3
	SPIShaderFP16ABGR    = 4
	SPIShaderUnorm16ABGR = 5
	SPIShaderSnorm16ABGR = 6
	SPIShaderUint16ABGR  = 7
	SPIShaderSint16ABGR  = 8
	SPIShader32ABGR      = 9
)

// MaxRTs is the number of color render targets.
const MaxRTs = 8

// spiFormats holds the export candidates for one color format.
type spiFormats struct {
	normal     uint32 // most compact, may not blend or export alpha
	alpha      uint32 // exports alpha
	blend      uint32 // supports blending
	blendAlpha uint32 // blends and exports alpha
}

func (s spiFormats) all(v uint32) spiFormats {
	return spiFormats{v, v, v, v}
}

func chooseSPIFormats(f ColorFormat, rbPlus bool) spiFormats {
	var s spiFormats
	switch f.Format {
	case Color10_11_11, Color5_9_9_9, Color8, Color8_8, Color8_8_8_8, Color2_10_10_10:
		switch f.Number {
		case NumberUint:
			s = s.all(SPIShaderUint16ABGR)
		case NumberSint:
			s = s.all(SPIShaderSint16ABGR)
		default:
			s = s.all(SPIShaderFP16ABGR)
		}
		// Without RB+ a single 8-bit channel exports as 32_R, which
		// skips the 16-bit packing instructions.
		if !rbPlus && f.Format == Color8 && f.Number != NumberSrgb && f.Swap == SwapStd {
			s.normal = SPIShader32R
			s.blend = SPIShader32R
		}

	case Color16, Color16_16, Color16_16_16_16:
		switch f.Number {
		case NumberUnorm, NumberSnorm:
			v := uint32(SPIShaderUnorm16ABGR)
			if f.Number == NumberSnorm {
				v = SPIShaderSnorm16ABGR
			}
			s.normal, s.alpha = v, v
			// 16-bit normalized exports cannot blend; use 32 bits per channel.
			switch f.Format {
			case Color16:
				s.blend, s.blendAlpha = SPIShader32R, SPIShader32AR
			case Color16_16:
				s.blend, s.blendAlpha = SPIShader32GR, SPIShader32ABGR
			default:
				s.blend, s.blendAlpha = SPIShader32ABGR, SPIShader32ABGR
			}
		case NumberUint:
			s = s.all(SPIShaderUint16ABGR)
		case NumberSint:
			s = s.all(SPIShaderSint16ABGR)
		default:
			s = s.all(SPIShaderFP16ABGR)
		}

	case Color32:
		s.normal, s.blend = SPIShader32R, SPIShader32R
		s.alpha, s.blendAlpha = SPIShader32AR, SPIShader32AR

	case Color32_32:
		s.normal, s.blend = SPIShader32GR, SPIShader32GR
		s.alpha, s.blendAlpha = SPIShader32ABGR, SPIShader32ABGR

	case Color32_32_32_32:
		s = s.all(SPIShader32ABGR)
	}
	return s
}

// SPIColorFormat picks the export format for one render target.
func SPIColorFormat(f ColorFormat, blendEnable, needAlpha, rbPlus bool) uint32 {
	s := chooseSPIFormats(f, rbPlus)
	switch {
	case blendEnable && needAlpha:
		return s.blendAlpha
	case needAlpha:
		return s.alpha
	case blendEnable:
		return s.blend
	default:
		return s.normal
	}
}

// FillHoles replaces every zero nibble below the highest active target
// with 32_R. The hardware hangs when an enabled export follows a
// disabled one.
func FillHoles(colFormat uint32) uint32 {
	n := (lastBit(colFormat) + 3) / 4
	for i := uint32(0); i < n; i++ {
		if colFormat&(0xF<<(4*i)) == 0 {
			colFormat |= SPIShader32R << (4 * i)
		}
	}
	return colFormat
}

// CBShaderMask derives the CB_SHADER_MASK from export formats.
func CBShaderMask(colFormat uint32) uint32 {
	var mask uint32
	for i := uint32(0); i < MaxRTs; i++ {
		var m uint32
		switch (colFormat >> (4 * i)) & 0xF {
		case SPIShaderZero:
		case SPIShader32R:
			m = 0x1
		case SPIShader32GR:
			m = 0x3
		case SPIShader32AR:
			m = 0x9
		default:
			m = 0xF
		}
		mask |= m << (4 * i)
	}
	return mask
}

func lastBit(v uint32) uint32 {
	var n uint32
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}
