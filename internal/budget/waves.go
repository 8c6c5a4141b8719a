package budget

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/xmath"
)

// WaveInput is the register and LDS footprint of one hardware program.
type WaveInput struct {
	WaveSize uint32
	NumSGPRs uint32
	NumVGPRs uint32
	// LDSBlocks is the LDS_SIZE field, in profile granularity units.
	LDSBlocks uint32

	Fragment bool
	// NumInterp counts fragment inputs; each takes 48 bytes of LDS.
	NumInterp uint32

	Compute       bool
	WorkgroupSize uint32
}

// MaxWaves returns how many waves of the program fit on one SIMD.
func MaxWaves(p *hw.Profile, in WaveInput) uint32 {
	wave := max(in.WaveSize, 32)
	gran := max(p.LDSGranularity, 1)
	waves := p.MaxWavesPerSIMD * (64 / wave)

	var ldsPerWave uint32
	switch {
	case in.Fragment:
		ldsPerWave = xmath.AlignUp(in.LDSBlocks*gran+in.NumInterp*48, gran)
	case in.Compute:
		ldsPerWave = xmath.AlignUp(in.LDSBlocks*gran, gran)
		ldsPerWave /= xmath.DivRoundUp(max(in.WorkgroupSize, 1), wave)
	}

	if in.NumSGPRs != 0 && p.Level < hw.GFX10 {
		align := uint32(8)
		if p.Level >= hw.GFX8 {
			align = 16
		}
		waves = min(waves, p.SGPRsPerSIMD/xmath.AlignUp(in.NumSGPRs, align))
	}

	if in.NumVGPRs != 0 {
		physical := p.VGPRsPerSIMD * (64 / wave)
		align := uint32(4)
		if wave == 32 {
			align = 8
		}
		vgprs := xmath.AlignUp(in.NumVGPRs, align)
		if p.Level >= hw.GFX10_3 {
			g := max(p.VGPRsPerSIMD/64, 1)
			if wave == 32 {
				g *= 2
			}
			vgprs = xmath.DivRoundUp(vgprs, g) * g
		}
		waves = min(waves, physical/vgprs)
	}

	simdPerGroup := max(p.SIMDsPerCU, 1)
	// GFX10+ workgroups span a WGP of two CUs.
	if p.Level >= hw.GFX10 {
		simdPerGroup *= 2
	}
	if ldsPerWave != 0 {
		waves = min(waves, xmath.DivRoundUp(p.LDSSize/simdPerGroup, ldsPerWave))
	}

	if p.Level >= hw.GFX10 {
		return waves * (wave / 32)
	}
	return waves
}
