package budget

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/xmath"
)

// Legacy on-chip GS limits.
const (
	gsMaxLDSDwords   = 8 * 1024
	gsMaxOutPrims    = 32 * 1024
	gsMaxESVerts     = 255
	gsIdealPrims     = 64
	gsLDSEncodeBytes = 128
)

// GSInput is the metadata consumed by legacy geometry ring sizing.
type GSInput struct {
	VertsIn        uint32
	Adjacency      bool
	Invocations    uint32
	VerticesOut    uint32
	ESGSItemSize   uint32 // bytes
	GSVSVertexSize uint32 // bytes
	ESWaveSize     uint32
}

// GSInfo is the legacy geometry subgroup configuration.
type GSInfo struct {
	ESVertsPerSubgroup    uint32
	GSPrimsPerSubgroup    uint32
	GSInstPrimsInSubgroup uint32
	MaxPrimsPerSubgroup   uint32
	LDSSize               uint32 // 128-dword units
	ESGSRingItem          uint32 // dwords
	GSVSRingItem          uint32 // dwords
	WorkgroupSize         uint32
}

// OnchipCntl packs VGT_GS_ONCHIP_CNTL.
func (g GSInfo) OnchipCntl() uint32 {
	return g.ESVertsPerSubgroup&0x7FF |
		(g.GSPrimsPerSubgroup&0x7FF)<<11 |
		(g.GSInstPrimsInSubgroup&0x3FF)<<22
}

// GS sizes the ES/GS subgroup of the merged legacy geometry stage so
// that the ES outputs of one subgroup fit in LDS.
func GS(p *hw.Profile, in GSInput) GSInfo {
	invocations := max(in.Invocations, 1)
	itemsize := in.ESGSItemSize / 4
	vertsIn := max(in.VertsIn, 1)

	maxGSPrims := uint32(255)
	if in.Adjacency || invocations > 1 {
		maxGSPrims = max(127/invocations, 1)
	}
	// MAX_PRIMS_PER_SUBGROUP = prims * vertices out * invocations.
	if in.VerticesOut > 0 {
		maxGSPrims = max(min(maxGSPrims, gsMaxOutPrims/(in.VerticesOut*invocations)), 1)
	}

	// Adjacency primitives reuse only half of their vertices.
	minESVerts := vertsIn
	if in.Adjacency {
		minESVerts = max(vertsIn/2, 1)
	}

	gsPrims := min(uint32(gsIdealPrims), maxGSPrims)
	worstESVerts := min(minESVerts*gsPrims, gsMaxESVerts)
	ldsDwords := itemsize * worstESVerts

	if ldsDwords > gsMaxLDSDwords {
		gsPrims = xmath.Clamp(gsMaxLDSDwords/(itemsize*minESVerts), 1, maxGSPrims)
		worstESVerts = min(minESVerts*gsPrims, gsMaxESVerts)
		ldsDwords = itemsize * worstESVerts
	}

	esVerts := uint32(gsMaxESVerts)
	if ldsDwords != 0 {
		esVerts = min(ldsDwords/itemsize, gsMaxESVerts)
	}
	// The VGT only starts a new subgroup after a whole primitive, so
	// leave room for one primitive of unique vertices.
	esVerts = max(xmath.SubSat(esVerts, vertsIn-1), 1)

	out := GSInfo{
		ESVertsPerSubgroup:    esVerts,
		GSPrimsPerSubgroup:    gsPrims,
		GSInstPrimsInSubgroup: gsPrims * invocations,
		MaxPrimsPerSubgroup:   gsPrims * invocations * in.VerticesOut,
		LDSSize:               xmath.AlignUp(ldsDwords, gsLDSEncodeBytes) / gsLDSEncodeBytes,
		ESGSRingItem:          itemsize,
		GSVSRingItem:          in.GSVSVertexSize / 4 * in.VerticesOut,
	}
	out.WorkgroupSize = esgsWorkgroupSize(p, in.ESWaveSize, esVerts, out.GSInstPrimsInSubgroup)
	return out
}

func esgsWorkgroupSize(p *hw.Profile, waveSize, esVerts, gsInstPrims uint32) uint32 {
	// Unmerged ES and GS run one wave per workgroup.
	if !p.Caps.MergedShaders {
		return max(waveSize, 1)
	}
	return xmath.Clamp(max(esVerts, gsInstPrims), 1, 256)
}
