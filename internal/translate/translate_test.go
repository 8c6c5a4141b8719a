package translate

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/state"
)

func TestCompareFunc(t *testing.T) {
	tests := []struct {
		in   gputypes.CompareFunction
		want uint32
	}{
		{gputypes.CompareFunctionNever, FuncNever},
		{gputypes.CompareFunctionLess, FuncLess},
		{gputypes.CompareFunctionLessEqual, FuncLEqual},
		{gputypes.CompareFunctionGreaterEqual, FuncGEqual},
		{gputypes.CompareFunctionAlways, FuncAlways},
		{gputypes.CompareFunctionUndefined, 0},
	}
	for _, tt := range tests {
		if got := CompareFunc(tt.in); got != tt.want {
			t.Errorf("CompareFunc(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStencilOp(t *testing.T) {
	tests := []struct {
		in   gputypes.StencilOperation
		want uint32
	}{
		{gputypes.StencilOperationKeep, StencilKeep},
		{gputypes.StencilOperationReplace, StencilReplaceTest},
		{gputypes.StencilOperationIncrementClamp, StencilAddClamp},
		{gputypes.StencilOperationDecrementWrap, StencilSubWrap},
	}
	for _, tt := range tests {
		if got := StencilOp(tt.in); got != tt.want {
			t.Errorf("StencilOp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrimType(t *testing.T) {
	tests := []struct {
		topo  gputypes.PrimitiveTopology
		adj   bool
		prim  uint32
		out   uint32
		verts uint32
	}{
		{gputypes.PrimitiveTopologyPointList, false, PrimPointList, OutPrimPointList, 1},
		{gputypes.PrimitiveTopologyLineStrip, false, PrimLineStrip, OutPrimLineStrip, 2},
		{gputypes.PrimitiveTopologyLineList, true, PrimLineListAdj, OutPrimLineStrip, 4},
		{gputypes.PrimitiveTopologyTriangleList, false, PrimTriList, OutPrimTriStrip, 3},
		{gputypes.PrimitiveTopologyTriangleStrip, true, PrimTriStripAdj, OutPrimTriStrip, 6},
	}
	for _, tt := range tests {
		if got := PrimType(tt.topo, tt.adj); got != tt.prim {
			t.Errorf("PrimType(%v, %v) = %#x, want %#x", tt.topo, tt.adj, got, tt.prim)
		}
		if got := GSOutPrim(tt.topo); got != tt.out {
			t.Errorf("GSOutPrim(%v) = %d, want %d", tt.topo, got, tt.out)
		}
		if got := VerticesPerPrimitive(tt.topo, tt.adj); got != tt.verts {
			t.Errorf("VerticesPerPrimitive(%v, %v) = %d, want %d", tt.topo, tt.adj, got, tt.verts)
		}
	}
}

func TestLogicOpROP3(t *testing.T) {
	if got := LogicOpROP3(state.LogicOpCopy); got != ROP3Copy {
		t.Errorf("copy = %#x, want %#x", got, ROP3Copy)
	}
	if got := LogicOpROP3(state.LogicOpXor); got != 0x66 {
		t.Errorf("xor = %#x, want 0x66", got)
	}
	if got := LogicOpROP3(state.LogicOp(200)); got != 0 {
		t.Errorf("out of range = %#x, want 0", got)
	}
}

func TestSPIColorFormat(t *testing.T) {
	tests := []struct {
		name   string
		tf     gputypes.TextureFormat
		blend  bool
		alpha  bool
		rbPlus bool
		want   uint32
	}{
		{"rgba8 plain", gputypes.TextureFormatRGBA8Unorm, false, false, false, SPIShaderFP16ABGR},
		{"r8 without rb+", gputypes.TextureFormatR8Unorm, false, false, false, SPIShader32R},
		{"r8 with rb+", gputypes.TextureFormatR8Unorm, false, false, true, SPIShaderFP16ABGR},
		{"rgba16 unorm", gputypes.TextureFormatRGBA16Unorm, false, false, false, SPIShaderUnorm16ABGR},
		{"rgba16 unorm blend", gputypes.TextureFormatRGBA16Unorm, true, false, false, SPIShader32ABGR},
		{"rg16 snorm blend", gputypes.TextureFormatRG16Snorm, true, false, false, SPIShader32GR},
		{"r32 float alpha", gputypes.TextureFormatR32Float, false, true, false, SPIShader32AR},
		{"rg32 uint", gputypes.TextureFormatRG32Uint, false, false, false, SPIShader32GR},
		{"rgba8 uint", gputypes.TextureFormatRGBA8Uint, true, true, false, SPIShaderUint16ABGR},
		{"rgba32 float", gputypes.TextureFormatRGBA32Float, false, false, false, SPIShader32ABGR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SPIColorFormat(ClassifyColor(tt.tf), tt.blend, tt.alpha, tt.rbPlus)
			if got != tt.want {
				t.Errorf("SPIColorFormat = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyColor(t *testing.T) {
	if ClassifyColor(gputypes.TextureFormatDepth32Float).Valid() {
		t.Error("depth format classified as color")
	}
	bgra := ClassifyColor(gputypes.TextureFormatBGRA8UnormSrgb)
	if bgra.Swap != SwapAlt || bgra.Number != NumberSrgb {
		t.Errorf("bgra8 srgb = %+v", bgra)
	}
	if !ClassifyColor(gputypes.TextureFormatRG8Sint).Int8() {
		t.Error("rg8 sint not int8")
	}
	if !ClassifyColor(gputypes.TextureFormatRGB10A2Uint).Int10() {
		t.Error("rgb10a2 uint not int10")
	}
	if got := BytesPerPixel(gputypes.TextureFormatRGBA16Float); got != 8 {
		t.Errorf("BytesPerPixel(rgba16f) = %d, want 8", got)
	}
}

func TestCBShaderMask(t *testing.T) {
	col := uint32(SPIShader32R | SPIShader32AR<<4 | SPIShaderFP16ABGR<<8)
	if got, want := CBShaderMask(col), uint32(0x1|0x9<<4|0xF<<8); got != want {
		t.Errorf("CBShaderMask(%#x) = %#x, want %#x", col, got, want)
	}
}
