package translate

import "github.com/gogpu/gputypes"

// CBFormat is a CB_COLOR_INFO format code.
type CBFormat uint8

// Color buffer formats.
const (
	ColorInvalid     CBFormat = 0
	Color8           CBFormat = 1
	Color16          CBFormat = 2
	Color8_8         CBFormat = 3
	Color32          CBFormat = 4
	Color16_16       CBFormat = 5
	Color10_11_11    CBFormat = 6
	Color2_10_10_10  CBFormat = 9
	Color8_8_8_8     CBFormat = 10
	Color32_32       CBFormat = 11
	Color16_16_16_16 CBFormat = 12
	Color32_32_32_32 CBFormat = 14
	Color5_9_9_9     CBFormat = 24
)

// NumberType is a CB_COLOR_INFO number type.
type NumberType uint8

// Number types.
const (
	NumberUnorm NumberType = 0
	NumberSnorm NumberType = 1
	NumberUint  NumberType = 4
	NumberSint  NumberType = 5
	NumberSrgb  NumberType = 6
	NumberFloat NumberType = 7
)

// Swap is the component swizzle of a color buffer.
type Swap uint8

// Component swaps.
const (
	SwapStd    Swap = 0
	SwapAlt    Swap = 1
	SwapStdRev Swap = 2
	SwapAltRev Swap = 3
)

// ColorFormat classifies a render-target format for the color block.
type ColorFormat struct {
	Format CBFormat
	Number NumberType
	Swap   Swap
	// Bits is the widest channel size.
	Bits uint8
	// Channels counts the stored components.
	Channels uint8
}

// Valid reports whether the format is color-renderable.
func (f ColorFormat) Valid() bool { return f.Format != ColorInvalid }

// Int8 reports an 8-bit integer format.
func (f ColorFormat) Int8() bool {
	return f.Bits == 8 && (f.Number == NumberUint || f.Number == NumberSint)
}

// Int10 reports a 10-bit integer format.
func (f ColorFormat) Int10() bool {
	return f.Format == Color2_10_10_10 && (f.Number == NumberUint || f.Number == NumberSint)
}

// ClassifyColor returns the color-block classification of tf. Depth,
// compressed and undefined formats return the zero value.
func ClassifyColor(tf gputypes.TextureFormat) ColorFormat {
	switch tf {
	case gputypes.TextureFormatR8Unorm:
		return ColorFormat{Color8, NumberUnorm, SwapStd, 8, 1}
	case gputypes.TextureFormatR8Snorm:
		return ColorFormat{Color8, NumberSnorm, SwapStd, 8, 1}
	case gputypes.TextureFormatR8Uint:
		return ColorFormat{Color8, NumberUint, SwapStd, 8, 1}
	case gputypes.TextureFormatR8Sint:
		return ColorFormat{Color8, NumberSint, SwapStd, 8, 1}
	case gputypes.TextureFormatR16Unorm:
		return ColorFormat{Color16, NumberUnorm, SwapStd, 16, 1}
	case gputypes.TextureFormatR16Snorm:
		return ColorFormat{Color16, NumberSnorm, SwapStd, 16, 1}
	case gputypes.TextureFormatR16Uint:
		return ColorFormat{Color16, NumberUint, SwapStd, 16, 1}
	case gputypes.TextureFormatR16Sint:
		return ColorFormat{Color16, NumberSint, SwapStd, 16, 1}
	case gputypes.TextureFormatR16Float:
		return ColorFormat{Color16, NumberFloat, SwapStd, 16, 1}
	case gputypes.TextureFormatRG8Unorm:
		return ColorFormat{Color8_8, NumberUnorm, SwapStd, 8, 2}
	case gputypes.TextureFormatRG8Snorm:
		return ColorFormat{Color8_8, NumberSnorm, SwapStd, 8, 2}
	case gputypes.TextureFormatRG8Uint:
		return ColorFormat{Color8_8, NumberUint, SwapStd, 8, 2}
	case gputypes.TextureFormatRG8Sint:
		return ColorFormat{Color8_8, NumberSint, SwapStd, 8, 2}
	case gputypes.TextureFormatR32Float:
		return ColorFormat{Color32, NumberFloat, SwapStd, 32, 1}
	case gputypes.TextureFormatR32Uint:
		return ColorFormat{Color32, NumberUint, SwapStd, 32, 1}
	case gputypes.TextureFormatR32Sint:
		return ColorFormat{Color32, NumberSint, SwapStd, 32, 1}
	case gputypes.TextureFormatRG16Unorm:
		return ColorFormat{Color16_16, NumberUnorm, SwapStd, 16, 2}
	case gputypes.TextureFormatRG16Snorm:
		return ColorFormat{Color16_16, NumberSnorm, SwapStd, 16, 2}
	case gputypes.TextureFormatRG16Uint:
		return ColorFormat{Color16_16, NumberUint, SwapStd, 16, 2}
	case gputypes.TextureFormatRG16Sint:
		return ColorFormat{Color16_16, NumberSint, SwapStd, 16, 2}
	case gputypes.TextureFormatRG16Float:
		return ColorFormat{Color16_16, NumberFloat, SwapStd, 16, 2}
	case gputypes.TextureFormatRGBA8Unorm:
		return ColorFormat{Color8_8_8_8, NumberUnorm, SwapStd, 8, 4}
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return ColorFormat{Color8_8_8_8, NumberSrgb, SwapStd, 8, 4}
	case gputypes.TextureFormatRGBA8Snorm:
		return ColorFormat{Color8_8_8_8, NumberSnorm, SwapStd, 8, 4}
	case gputypes.TextureFormatRGBA8Uint:
		return ColorFormat{Color8_8_8_8, NumberUint, SwapStd, 8, 4}
	case gputypes.TextureFormatRGBA8Sint:
		return ColorFormat{Color8_8_8_8, NumberSint, SwapStd, 8, 4}
	case gputypes.TextureFormatBGRA8Unorm:
		return ColorFormat{Color8_8_8_8, NumberUnorm, SwapAlt, 8, 4}
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return ColorFormat{Color8_8_8_8, NumberSrgb, SwapAlt, 8, 4}
	case gputypes.TextureFormatRGB10A2Uint:
		return ColorFormat{Color2_10_10_10, NumberUint, SwapStd, 10, 4}
	case gputypes.TextureFormatRGB10A2Unorm:
		return ColorFormat{Color2_10_10_10, NumberUnorm, SwapStd, 10, 4}
	case gputypes.TextureFormatRG11B10Ufloat:
		return ColorFormat{Color10_11_11, NumberFloat, SwapStd, 11, 3}
	case gputypes.TextureFormatRGB9E5Ufloat:
		return ColorFormat{Color5_9_9_9, NumberFloat, SwapStd, 9, 3}
	case gputypes.TextureFormatRG32Float:
		return ColorFormat{Color32_32, NumberFloat, SwapStd, 32, 2}
	case gputypes.TextureFormatRG32Uint:
		return ColorFormat{Color32_32, NumberUint, SwapStd, 32, 2}
	case gputypes.TextureFormatRG32Sint:
		return ColorFormat{Color32_32, NumberSint, SwapStd, 32, 2}
	case gputypes.TextureFormatRGBA16Unorm:
		return ColorFormat{Color16_16_16_16, NumberUnorm, SwapStd, 16, 4}
	case gputypes.TextureFormatRGBA16Snorm:
		return ColorFormat{Color16_16_16_16, NumberSnorm, SwapStd, 16, 4}
	case gputypes.TextureFormatRGBA16Uint:
		return ColorFormat{Color16_16_16_16, NumberUint, SwapStd, 16, 4}
	case gputypes.TextureFormatRGBA16Sint:
		return ColorFormat{Color16_16_16_16, NumberSint, SwapStd, 16, 4}
	case gputypes.TextureFormatRGBA16Float:
		return ColorFormat{Color16_16_16_16, NumberFloat, SwapStd, 16, 4}
	case gputypes.TextureFormatRGBA32Float:
		return ColorFormat{Color32_32_32_32, NumberFloat, SwapStd, 32, 4}
	case gputypes.TextureFormatRGBA32Uint:
		return ColorFormat{Color32_32_32_32, NumberUint, SwapStd, 32, 4}
	case gputypes.TextureFormatRGBA32Sint:
		return ColorFormat{Color32_32_32_32, NumberSint, SwapStd, 32, 4}
	default:
		return ColorFormat{}
	}
}

// BytesPerPixel returns the storage size of one color sample.
func BytesPerPixel(tf gputypes.TextureFormat) uint32 {
	f := ClassifyColor(tf)
	switch f.Format {
	case Color8:
		return 1
	case Color16, Color8_8:
		return 2
	case Color32, Color16_16, Color10_11_11, Color2_10_10_10, Color8_8_8_8, Color5_9_9_9:
		return 4
	case Color32_32, Color16_16_16_16:
		return 8
	case Color32_32_32_32:
		return 16
	default:
		return 0
	}
}
