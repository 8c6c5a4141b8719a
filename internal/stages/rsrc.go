package stages

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/xmath"
	"github.com/gogpu/pipec/shader"
)

// SPI_SHADER_PGM_RSRC1 fields.
const (
	rsrc1SGPRShift     = 6
	rsrc1FloatShift    = 12
	rsrc1DX10Clamp     = 1 << 21
	rsrc1VGPRCompShift = 24
	rsrc1MemOrdered    = 1 << 25
)

// SPI_SHADER_PGM_RSRC2 fields.
const (
	rsrc2ScratchEn     = 1 << 0
	rsrc2UserSGPRShift = 1
	rsrc2OCLDSEn       = 1 << 7
	rsrc2SOEn          = 1 << 8
	rsrc2SOBaseShift   = 10
	rsrc2TGIDShift     = 7
	rsrc2TGSizeEn      = 1 << 10
	rsrc2TIDIGShift    = 11
	rsrc2CSLDSShift    = 15
	rsrc2ESVGPRShift   = 16
	rsrc2GSLDSShift    = 20
	rsrc2PSLDSShift    = 8
	rsrc2LSLDSShift    = 7
)

// rsrc3CUEnable enables every CU for graphics waves.
const rsrc3CUEnable = 0xFFFF

// vgprCompCnt is the number of VGPR inputs the hardware initializes
// for the first stage of a program, minus one.
func vgprCompCnt(l *shader.ArgLayout) uint32 {
	if l == nil || l.NumVGPRs == 0 {
		return 0
	}
	return min(uint32(l.NumVGPRs)-1, 3)
}

// packRSRC fills the program resource registers of a compiled program.
func packRSRC(p *hw.Profile, prog *Program, cfg *shader.Config, tess bool, xfbBuffers uint8, workgroup [3]uint32) {
	wave := max(cfg.WaveSize, 32)
	vgprGran := uint32(4)
	if wave == 32 {
		vgprGran = 8
	}
	vgprs := max(cfg.NumVGPRs, 1)
	sgprs := max(cfg.NumSGPRs, 1)

	rsrc1 := (vgprs-1)/vgprGran&0x3F | uint32(cfg.FloatMode)<<rsrc1FloatShift | rsrc1DX10Clamp
	if p.Level < hw.GFX10 {
		rsrc1 |= (sgprs - 1) / 8 & 0xF << rsrc1SGPRShift
	} else {
		rsrc1 |= rsrc1MemOrdered
	}

	var userSGPRs uint32
	if prog.Args != nil {
		userSGPRs = uint32(prog.Args.NumUserSGPRs)
	}
	var rsrc2 uint32
	if cfg.ScratchBytesPerWave > 0 {
		rsrc2 |= rsrc2ScratchEn
	}
	rsrc2 |= userSGPRs & 0x1F << rsrc2UserSGPRShift

	switch prog.HW {
	case shader.HWStageVS:
		rsrc1 |= vgprCompCnt(prog.Args) << rsrc1VGPRCompShift
		if tess {
			rsrc2 |= rsrc2OCLDSEn
		}
		if xfbBuffers != 0 {
			rsrc2 |= rsrc2SOEn | uint32(xfbBuffers&0xF)<<rsrc2SOBaseShift
		}
	case shader.HWStageLS:
		rsrc1 |= vgprCompCnt(prog.Args) << rsrc1VGPRCompShift
		rsrc2 |= cfg.LDSBlocks & 0x1FF << rsrc2LSLDSShift
	case shader.HWStageHS:
		rsrc2 |= rsrc2OCLDSEn
		if prog.Merged {
			rsrc2 |= cfg.LDSBlocks & 0xFF << rsrc2GSLDSShift
		}
	case shader.HWStageES, shader.HWStageGS, shader.HWStageNGG:
		if prog.HW == shader.HWStageES || prog.Merged {
			rsrc2 |= vgprCompCnt(prog.Args) << rsrc2ESVGPRShift
		}
		if tess {
			rsrc2 |= rsrc2OCLDSEn
		}
		if prog.Merged || prog.HW == shader.HWStageNGG {
			rsrc2 |= cfg.LDSBlocks & 0xFF << rsrc2GSLDSShift
		}
	case shader.HWStageFS:
		rsrc2 |= cfg.LDSBlocks & 0xFF << rsrc2PSLDSShift
	case shader.HWStageCS:
		rsrc2 |= 7<<rsrc2TGIDShift | rsrc2TGSizeEn
		var tidig uint32
		switch {
		case workgroup[2] > 1:
			tidig = 2
		case workgroup[1] > 1:
			tidig = 1
		}
		rsrc2 |= tidig<<rsrc2TIDIGShift | cfg.LDSBlocks&0x1FF<<rsrc2CSLDSShift
	}

	var rsrc3 uint32
	if prog.HW != shader.HWStageCS {
		rsrc3 = rsrc3CUEnable
	}
	cfg.RSRC1, cfg.RSRC2, cfg.RSRC3 = rsrc1, rsrc2, rsrc3
}

// ldsBlocks converts LDS bytes to the profile's encode units.
func ldsBlocks(p *hw.Profile, bytes uint32) uint32 {
	gran := max(p.LDSGranularity, 1)
	return xmath.DivRoundUp(bytes, gran)
}
