package budget

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/translate"
	"github.com/gogpu/pipec/internal/xmath"
)

// Extent is a bin size in pixels. The zero extent disables binning.
type Extent struct {
	Width, Height uint32
}

// Area returns Width*Height.
func (e Extent) Area() uint32 { return e.Width * e.Height }

// BinEntry is one breakpoint of a bin-size table: Extent applies from
// BPP bytes per pixel up to the next entry's BPP.
type BinEntry struct {
	BPP    uint32
	Extent Extent
}

// BinTable is indexed by [log2(RBs per SE)][log2(SEs)]. Every row ends
// with a math.MaxUint32 sentinel.
type BinTable [3][3][]BinEntry

const sentinel = math.MaxUint32

// ColorBinTable holds the color bin sizes of GFX9.
var ColorBinTable = BinTable{
	{ // one RB per SE
		{{0, Extent{128, 128}}, {1, Extent{64, 128}}, {2, Extent{32, 128}}, {3, Extent{16, 128}}, {17, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{128, 128}}, {2, Extent{64, 128}}, {3, Extent{32, 128}}, {5, Extent{16, 128}}, {17, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{128, 128}}, {3, Extent{64, 128}}, {5, Extent{16, 128}}, {17, Extent{}}, {sentinel, Extent{}}},
	},
	{ // two RBs per SE
		{{0, Extent{128, 128}}, {2, Extent{64, 128}}, {3, Extent{32, 128}}, {5, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{128, 128}}, {3, Extent{64, 128}}, {5, Extent{32, 128}}, {9, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 256}}, {2, Extent{128, 256}}, {3, Extent{128, 128}}, {5, Extent{64, 128}}, {9, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
	},
	{ // four RBs per SE
		{{0, Extent{128, 256}}, {2, Extent{128, 128}}, {3, Extent{64, 128}}, {5, Extent{32, 128}}, {9, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 256}}, {2, Extent{128, 256}}, {3, Extent{128, 128}}, {5, Extent{64, 128}}, {9, Extent{32, 128}}, {17, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 512}}, {2, Extent{256, 256}}, {3, Extent{128, 256}}, {5, Extent{128, 128}}, {9, Extent{64, 128}}, {17, Extent{16, 128}}, {33, Extent{}}, {sentinel, Extent{}}},
	},
}

// DepthStencilBinTable holds the depth/stencil bin sizes of GFX9.
var DepthStencilBinTable = BinTable{
	{ // one RB per SE
		{{0, Extent{128, 256}}, {2, Extent{128, 128}}, {4, Extent{64, 128}}, {7, Extent{32, 128}}, {13, Extent{16, 128}}, {49, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 256}}, {2, Extent{128, 256}}, {4, Extent{128, 128}}, {7, Extent{64, 128}}, {13, Extent{32, 128}}, {25, Extent{16, 128}}, {49, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 512}}, {2, Extent{256, 256}}, {4, Extent{128, 256}}, {7, Extent{128, 128}}, {13, Extent{64, 128}}, {25, Extent{16, 128}}, {49, Extent{}}, {sentinel, Extent{}}},
	},
	{ // two RBs per SE
		{{0, Extent{256, 256}}, {2, Extent{128, 256}}, {4, Extent{128, 128}}, {7, Extent{64, 128}}, {13, Extent{32, 128}}, {25, Extent{16, 128}}, {97, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{256, 512}}, {2, Extent{256, 256}}, {4, Extent{128, 256}}, {7, Extent{128, 128}}, {13, Extent{64, 128}}, {25, Extent{32, 128}}, {49, Extent{16, 128}}, {97, Extent{}}, {sentinel, Extent{}}},
		{{0, Extent{512, 512}}, {2, Extent{256, 512}}, {4, Extent{256, 256}}, {7, Extent{128, 256}}, {13, Extent{128, 128}}, {25, Extent{64, 128}}, {49, Extent{16, 128}}, {97, Extent{}}, {sentinel, Extent{}}},
	},
	{ // four RBs per SE
		{{0, Extent{256, 512}}, {2, Extent{256, 256}}, {4, Extent{128, 256}}, {7, Extent{128, 128}}, {13, Extent{64, 128}}, {25, Extent{32, 128}}, {49, Extent{16, 128}}, {sentinel, Extent{}}},
		{{0, Extent{512, 512}}, {2, Extent{256, 512}}, {4, Extent{256, 256}}, {7, Extent{128, 256}}, {13, Extent{128, 128}}, {25, Extent{64, 128}}, {49, Extent{32, 128}}, {97, Extent{16, 128}}, {sentinel, Extent{}}},
		{{0, Extent{512, 512}}, {4, Extent{256, 512}}, {7, Extent{256, 256}}, {13, Extent{128, 256}}, {25, Extent{128, 128}}, {49, Extent{64, 128}}, {97, Extent{16, 128}}, {sentinel, Extent{}}},
	},
}

// BinInput describes the attachments that share a bin.
type BinInput struct {
	// ColorBytes is the summed bytes per pixel of written color targets.
	ColorBytes uint32
	// ColorTargets counts the written color targets.
	ColorTargets uint32
	// MinColorBytes is the smallest bytes per pixel among them.
	MinColorBytes uint32
	Depth         bool
	Stencil       bool
	Samples       uint32
	// PSIterSamples is the per-sample shading rate; 1 shades per pixel.
	PSIterSamples uint32
}

// ColorBinInput sums the written color targets of a render pass.
func ColorBinInput(formats []gputypes.TextureFormat, written func(i int) bool) BinInput {
	var in BinInput
	for i, f := range formats {
		if f == gputypes.TextureFormatUndefined || !written(i) {
			continue
		}
		bpp := translate.BytesPerPixel(f)
		if bpp == 0 {
			continue
		}
		in.ColorBytes += bpp
		in.ColorTargets++
		if in.MinColorBytes == 0 || bpp < in.MinColorBytes {
			in.MinColorBytes = bpp
		}
	}
	return in
}

// lookup walks a table row to the last entry whose BPP is <= bpp.
func lookup(row []BinEntry, bpp uint32) Extent {
	i := 0
	for i+1 < len(row) && row[i+1].BPP <= bpp {
		i++
	}
	return row[i].Extent
}

// BinSizeTable selects the bin size from lookup tables. The depth/stencil
// candidate replaces the color one when it covers fewer pixels.
func BinSizeTable(p *hw.Profile, color, ds *BinTable, in BinInput) Extent {
	rbLog := min(xmath.Log2Ceil(p.RBPerSE()), 2)
	seLog := min(xmath.Log2Ceil(p.NumSE), 2)

	samples := max(in.Samples, 1)
	effective := samples
	// MSAA images rarely touch every sample.
	if effective >= 2 && in.PSIterSamples <= 1 {
		effective = 2
	}

	extent := lookup(color[rbLog][seLog], in.ColorBytes*effective)

	if in.Depth || in.Stencil {
		var depthCoeff, stencilCoeff uint32
		if in.Depth {
			depthCoeff = 5
		}
		if in.Stencil {
			stencilCoeff = 1
		}
		dsBytes := 4 * (depthCoeff + stencilCoeff) * samples
		dsExtent := lookup(ds[rbLog][seLog], dsBytes)
		if dsExtent.Area() < extent.Area() {
			extent = dsExtent
		}
	}
	return extent
}

// Tag-cache constants of the closed-form bin sizing.
const (
	dbTagSize     = 64
	dbTagCount    = 312
	colorTagSize  = 1024
	colorTagCount = 31
	fmaskTagSize  = 256
	fmaskTagCount = 44
	minBinWidth   = 128
	minBinHeight  = 64
)

func extentForPixels(pixels uint32) Extent {
	l := xmath.Log2(pixels)
	return Extent{Width: 1 << ((l + 1) / 2), Height: 1 << (l / 2)}
}

// BinSizeClosedForm divides the tag caches by the per-pixel footprint.
func BinSizeClosedForm(p *hw.Profile, in BinInput) Extent {
	rbs := max(p.NumRB, 1)
	pipes := max(rbs, p.NumTCCBlocks)

	dbPart := (dbTagCount * rbs / pipes) * dbTagSize * pipes
	colorPart := (colorTagCount * rbs / pipes) * colorTagSize * pipes
	fmaskPart := (fmaskTagCount * rbs / pipes) * fmaskTagSize * pipes

	samples := max(in.Samples, 1)
	samplesLog := min(xmath.Log2Ceil(samples), 3)

	var fmaskBytes uint32
	if samples > 1 {
		fmaskBytes = in.ColorTargets * [4]uint32{0, 1, 1, 4}[samplesLog]
	}
	colorBytes := max(in.ColorBytes*samples, 1)

	extent := extentForPixels(colorPart / colorBytes)
	if fmaskBytes != 0 {
		if e := extentForPixels(fmaskPart / fmaskBytes); e.Area() < extent.Area() {
			extent = e
		}
	}
	if in.Depth || in.Stencil {
		var coeff uint32
		if in.Depth {
			coeff += 5
		}
		if in.Stencil {
			coeff++
		}
		if e := extentForPixels(dbPart / (coeff * samples)); e.Area() < extent.Area() {
			extent = e
		}
	}

	extent.Width = max(extent.Width, minBinWidth)
	extent.Height = max(extent.Height, minBinHeight)
	return extent
}

// BinSize picks the bin size for the profile's generation. A zero extent
// means binning stays off.
func BinSize(p *hw.Profile, in BinInput) Extent {
	switch {
	case !p.Caps.Binning:
		return Extent{}
	case p.Caps.BinningClosedForm:
		return BinSizeClosedForm(p, in)
	default:
		return BinSizeTable(p, &ColorBinTable, &DepthStencilBinTable, in)
	}
}
