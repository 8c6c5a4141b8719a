package hw

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
)

// DriverFlags are device-wide switches that change generated code and
// therefore take part in every cache key.
type DriverFlags uint32

// Driver flags.
const (
	// FlagNoNGG forces the legacy geometry path on NGG-capable hardware.
	FlagNoNGG DriverFlags = 1 << iota
	// FlagNoNGGCulling disables per-primitive culling in NGG shaders.
	FlagNoNGGCulling
	// FlagNoOutOfOrder disables out-of-order rasterization.
	FlagNoOutOfOrder
	// FlagNoBinning disables primitive binning.
	FlagNoBinning
	// FlagNoRBPlus disables the RB+ blend fast path.
	FlagNoRBPlus
	// FlagWave64 selects wave64 for geometry and pixel stages on hardware
	// that defaults to wave32.
	FlagWave64
)

// Caps holds the capability booleans derived from the generation and chip.
// They are computed once in finalize and never re-derived at call sites.
type Caps struct {
	// MergedShaders: LS+HS and ES+GS execute as one hardware program.
	MergedShaders bool
	// NGG: the last pre-rasterization stage can run as a primitive shader.
	NGG bool
	// NGGStreamout: transform feedback is supported in NGG mode.
	NGGStreamout bool
	// LegacyGSFallback: the non-NGG geometry path still exists.
	LegacyGSFallback bool
	// Mesh: task and mesh stages are available.
	Mesh bool
	// RBPlus: the render backend supports the RB+ blend optimization.
	RBPlus bool
	// OutOfOrderRaster: primitives may be rasterized out of order.
	OutOfOrderRaster bool
	// Binning: primitive binning (DPBB) is available.
	Binning bool
	// BinningClosedForm: bin sizes come from the cache-capacity formula
	// rather than the lookup tables.
	BinningClosedForm bool
	// VRS: variable-rate shading.
	VRS bool
	// GFX11BlendFactors selects the renumbered blend factor encoding.
	GFX11BlendFactors bool
	// PerAttributeVBDescs: vertex fetch uses one descriptor per attribute.
	PerAttributeVBDescs bool
}

// Profile is the read-only hardware description used by every compiler
// phase. Create profiles with New or look up a built-in one.
type Profile struct {
	Name   string
	Family Family
	Level  GfxLevel

	NumSE        uint32 // shader engines
	NumRB        uint32 // render backends
	NumTCCBlocks uint32
	CUPerSH      uint32

	GEWaveSize uint32
	PSWaveSize uint32
	CSWaveSize uint32

	// LDSSize is the LDS capacity available to one workgroup, in bytes.
	LDSSize uint32
	// LDSGranularity is the LDS_SIZE register encoding unit, in bytes.
	LDSGranularity uint32

	MaxWavesPerSIMD uint32
	SGPRsPerSIMD    uint32
	VGPRsPerSIMD    uint32 // wave64 units
	SIMDsPerCU      uint32

	Flags DriverFlags
	Caps  Caps
}

// New builds a profile and derives its capabilities.
func New(p Profile) *Profile {
	q := p
	q.finalize()
	return &q
}

func (p *Profile) finalize() {
	if p.GEWaveSize == 0 {
		p.GEWaveSize = 64
		if p.Level >= GFX10 && p.Flags&FlagWave64 == 0 {
			p.GEWaveSize = 32
		}
	}
	if p.PSWaveSize == 0 {
		p.PSWaveSize = 64
		if p.Level >= GFX10 && p.Flags&FlagWave64 == 0 {
			p.PSWaveSize = 32
		}
	}
	if p.CSWaveSize == 0 {
		p.CSWaveSize = 64
		if p.Level >= GFX10 {
			p.CSWaveSize = 32
		}
	}
	if p.LDSSize == 0 {
		p.LDSSize = 64 * 1024
		if p.Level == GFX6 {
			p.LDSSize = 32 * 1024
		}
	}
	if p.LDSGranularity == 0 {
		p.LDSGranularity = 512
		if p.Level == GFX6 {
			p.LDSGranularity = 256
		}
	}
	if p.MaxWavesPerSIMD == 0 {
		switch {
		case p.Level >= GFX10_3:
			p.MaxWavesPerSIMD = 16
		case p.Level == GFX10:
			p.MaxWavesPerSIMD = 20
		default:
			p.MaxWavesPerSIMD = 10
		}
	}
	if p.SGPRsPerSIMD == 0 {
		p.SGPRsPerSIMD = 512
		if p.Level >= GFX8 {
			p.SGPRsPerSIMD = 800
		}
	}
	if p.VGPRsPerSIMD == 0 {
		switch {
		case p.Level >= GFX11:
			p.VGPRsPerSIMD = 768
		case p.Level >= GFX10:
			p.VGPRsPerSIMD = 512
		default:
			p.VGPRsPerSIMD = 256
		}
	}
	if p.SIMDsPerCU == 0 {
		p.SIMDsPerCU = 4
		if p.Level >= GFX10 {
			p.SIMDsPerCU = 2
		}
	}

	rbplus := p.Family == FamilyStoney || p.Level >= GFX9
	rbplusAllowed := rbplus && (p.Family == FamilyStoney ||
		p.Family == FamilyVega12 ||
		p.Family == FamilyRaven ||
		p.Family == FamilyRaven2 ||
		p.Family == FamilyRenoir ||
		p.Level >= GFX10_3)

	p.Caps = Caps{
		MergedShaders:       p.Level >= GFX9,
		NGG:                 p.Level >= GFX10 && p.Flags&FlagNoNGG == 0,
		NGGStreamout:        p.Level >= GFX11,
		LegacyGSFallback:    p.Level < GFX11,
		Mesh:                p.Level >= GFX10_3,
		RBPlus:              rbplusAllowed && p.Flags&FlagNoRBPlus == 0,
		OutOfOrderRaster:    p.Level >= GFX8 && p.Level <= GFX10_3 && p.NumSE >= 2 && p.Flags&FlagNoOutOfOrder == 0,
		Binning:             p.Level >= GFX9 && p.Flags&FlagNoBinning == 0,
		BinningClosedForm:   p.Level >= GFX10,
		VRS:                 p.Level >= GFX10_3,
		GFX11BlendFactors:   p.Level >= GFX11,
		PerAttributeVBDescs: p.Level >= GFX10,
	}
	// GFX11 has no legacy pipeline: NGG is mandatory.
	if p.Level >= GFX11 {
		p.Caps.NGG = true
	}
}

// WithFlags returns a copy of the profile with different driver flags.
func (p *Profile) WithFlags(flags DriverFlags) *Profile {
	q := *p
	q.Flags = flags
	q.GEWaveSize, q.PSWaveSize = 0, 0
	q.finalize()
	return &q
}

// RBPerSE returns the number of render backends per shader engine.
func (p *Profile) RBPerSE() uint32 {
	if p.NumSE == 0 {
		return p.NumRB
	}
	return p.NumRB / p.NumSE
}

// Fingerprint is a digest of everything in the profile that influences
// generated code. It is part of every cache key.
func (p *Profile) Fingerprint() [32]byte {
	h := sha256.New()
	_, _ = h.Write([]byte(p.Family))
	var buf [4]byte
	for _, v := range []uint32{
		uint32(p.Level), p.NumSE, p.NumRB, p.NumTCCBlocks, p.CUPerSH,
		p.GEWaveSize, p.PSWaveSize, p.CSWaveSize, p.LDSSize, p.LDSGranularity,
		uint32(p.Flags),
	} {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// String returns a short description of the profile.
func (p *Profile) String() string {
	fp := p.Fingerprint()
	return fmt.Sprintf("%s(%s, %s, %d SE, %d RB, fp=%s)",
		p.Name, p.Family, p.Level, p.NumSE, p.NumRB, hex.EncodeToString(fp[:4]))
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Profile{}
)

// Register adds a named profile to the lookup table, replacing any
// profile with the same name.
func Register(p *Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name] = p
}

// Lookup returns the registered profile with the given name.
func Lookup(name string) (*Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

// MustLookup is like Lookup but panics if the profile is unknown.
func MustLookup(name string) *Profile {
	p, ok := Lookup(name)
	if !ok {
		panic("hw: unknown profile " + name)
	}
	return p
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
