package budget

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/xmath"
)

// NGG subgroup limits, in dwords and vertices.
const (
	nggMaxLDSDwords    = 8*1024 - 768
	nggMaxOutVerts     = 256
	nggMaxESVertsBase  = 128
	nggMaxGSPrimsBase  = 128
	nggMaxESVertsGroup = 251

	// MaxRefineIterations bounds the wave-alignment fixed point.
	MaxRefineIterations = 16
)

// NGGInput is the stage metadata consumed by NGG sizing.
type NGGInput struct {
	// HasGS is set when a geometry stage runs in the primitive shader.
	HasGS bool
	// VertsPerPrim is the number of vertices of one input primitive.
	VertsPerPrim uint32
	Adjacency    bool

	GSInvocations uint32
	GSVerticesOut uint32

	// ESGSItemSize is the per-vertex ES output size in bytes.
	ESGSItemSize uint32
	// GSVSVertexSize is the per-vertex GS output size in bytes.
	GSVSVertexSize uint32

	StreamoutOutputs uint32
	ExportPrimID     bool
	WaveSize         uint32
}

// NGGInfo is the result of NGG subgroup sizing.
type NGGInfo struct {
	HWMaxESVerts  uint32
	MaxGSPrims    uint32
	MaxOutVerts   uint32
	PrimAmpFactor uint32
	// MultiCycle runs one GS instance per subgroup because the output
	// vertex count does not fit the subgroup field, or one primitive's
	// emit area does not fit the LDS next to its input vertices.
	MultiCycle bool

	EmitSize      uint32 // dwords
	ESGSRingSize  uint32 // bytes
	ESGSRingItem  uint32 // dwords
	WorkgroupSize uint32
	Iterations    int
	// Converged is set when the wave-alignment refinement reached a
	// fixed point before MaxRefineIterations.
	Converged bool
}

func clampGSPrimsToESVerts(maxGSPrims, maxESVerts, minVertsPerPrim uint32, adjacency bool) uint32 {
	reuse := xmath.SubSat(maxESVerts, minVertsPerPrim)
	if adjacency {
		reuse /= 2
	}
	return min(maxGSPrims, 1+reuse)
}

// NGG computes the subgroup sizes of a primitive shader. The result
// never exceeds the LDS budget nor the 256-vertex output limit, provided
// one input primitive and the vertices of one GS instance fit the LDS,
// which holds for stage outputs within the API limits.
func NGG(p *hw.Profile, in NGGInput) NGGInfo {
	vertsPerPrim := max(in.VertsPerPrim, 1)
	minVertsPerPrim := uint32(1)
	if in.HasGS {
		minVertsPerPrim = vertsPerPrim
	}
	invocations := max(in.GSInvocations, 1)
	adjacency := in.HasGS && in.Adjacency
	wave := max(in.WaveSize, 32)

	minESVerts := uint32(24)
	if p.Level >= hw.GFX10_3 {
		minESVerts = 29
	}
	hwMinESVerts := func(v uint32) uint32 {
		if p.Level == hw.GFX10 {
			return max(v, minESVerts-1+vertsPerPrim)
		}
		return max(v, minESVerts)
	}

	multiCycle := false
	maxESVertsBase := min(uint32(nggMaxESVertsBase), nggMaxESVertsGroup+vertsPerPrim-1)
	maxGSPrimsBase := uint32(nggMaxGSPrimsBase)

	var esvertLDS, gsprimLDS uint32
	if in.HasGS {
		outVertsPerPrim := in.GSVerticesOut * invocations
		esvertLDS = in.ESGSItemSize / 4
		gsprimLDS = (in.GSVSVertexSize/4 + 1) * outVertsPerPrim
		if outVertsPerPrim > nggMaxOutVerts || gsprimLDS+vertsPerPrim*esvertLDS > nggMaxLDSDwords {
			multiCycle = true
			maxGSPrimsBase = 1
			gsprimLDS = (in.GSVSVertexSize/4 + 1) * in.GSVerticesOut
		} else if outVertsPerPrim != 0 {
			maxGSPrimsBase = min(maxGSPrimsBase, nggMaxOutVerts/outVertsPerPrim)
		}
	} else {
		if in.StreamoutOutputs != 0 {
			esvertLDS = 4*in.StreamoutOutputs + 1
		}
		// The provoking vertex thread stores the primitive ID.
		if in.ExportPrimID {
			esvertLDS = max(esvertLDS, 1)
		}
	}

	maxGSPrims := maxGSPrimsBase
	maxESVerts := maxESVertsBase
	if esvertLDS != 0 {
		maxESVerts = min(maxESVerts, nggMaxLDSDwords/esvertLDS)
	}
	if gsprimLDS != 0 {
		maxGSPrims = min(maxGSPrims, nggMaxLDSDwords/gsprimLDS)
	}
	maxESVerts = min(maxESVerts, maxGSPrims*vertsPerPrim)
	maxGSPrims = clampGSPrimsToESVerts(maxGSPrims, maxESVerts, minVertsPerPrim, adjacency)

	if esvertLDS != 0 || gsprimLDS != 0 {
		total := maxESVerts*esvertLDS + maxGSPrims*gsprimLDS
		if total > nggMaxLDSDwords {
			maxESVerts = maxESVerts * nggMaxLDSDwords / total
			maxGSPrims = max(maxGSPrims*nggMaxLDSDwords/total, 1)
			maxESVerts = min(maxESVerts, maxGSPrims*vertsPerPrim)
			maxGSPrims = clampGSPrimsToESVerts(maxGSPrims, maxESVerts, minVertsPerPrim, adjacency)
		}
	}

	ldsDwords := func(esVerts, gsPrims uint32) uint32 {
		return gsPrims*gsprimLDS + min(esVerts, gsPrims*vertsPerPrim)*esvertLDS
	}

	iterations := 0
	converged := false
	if !multiCycle {
		// Round both sizes up to whole waves and re-clamp until stable.
		for iterations < MaxRefineIterations {
			iterations++
			prevES, prevGS := maxESVerts, maxGSPrims

			maxESVerts = xmath.AlignUp(maxESVerts, wave)
			maxESVerts = min(maxESVerts, maxESVertsBase)
			if esvertLDS != 0 {
				maxESVerts = min(maxESVerts, xmath.SubSat(nggMaxLDSDwords, maxGSPrims*gsprimLDS)/esvertLDS)
			}
			maxESVerts = min(maxESVerts, maxGSPrims*vertsPerPrim)
			maxESVerts = hwMinESVerts(maxESVerts)

			maxGSPrims = xmath.AlignUp(maxGSPrims, wave)
			maxGSPrims = min(maxGSPrims, maxGSPrimsBase)
			if gsprimLDS != 0 {
				usable := min(maxESVerts, maxGSPrims*vertsPerPrim)
				maxGSPrims = min(maxGSPrims, xmath.SubSat(nggMaxLDSDwords, usable*esvertLDS)/gsprimLDS)
			}
			maxGSPrims = max(clampGSPrimsToESVerts(maxGSPrims, maxESVerts, minVertsPerPrim, adjacency), 1)

			if prevES == maxESVerts && prevGS == maxGSPrims {
				converged = true
				break
			}
		}
	} else {
		maxGSPrims = max(maxGSPrims, 1)
		maxESVerts = hwMinESVerts(maxESVerts)
	}

	// Wave alignment and the hardware ES vertex minimum can push the
	// total past the budget; give primitives back until it fits.
	for maxGSPrims > 1 && ldsDwords(maxESVerts, maxGSPrims) > nggMaxLDSDwords {
		maxGSPrims--
	}

	var maxOutVerts uint32
	switch {
	case multiCycle:
		maxOutVerts = in.GSVerticesOut
	case in.HasGS:
		maxOutVerts = maxGSPrims * invocations * in.GSVerticesOut
	default:
		maxOutVerts = maxESVerts
	}
	maxOutVerts = min(maxOutVerts, nggMaxOutVerts)

	ampFactor := uint32(1)
	if in.HasGS {
		ampFactor = in.GSVerticesOut
	}

	out := NGGInfo{
		HWMaxESVerts:  maxESVerts,
		MaxGSPrims:    maxGSPrims,
		MaxOutVerts:   maxOutVerts,
		PrimAmpFactor: ampFactor,
		MultiCycle:    multiCycle,
		EmitSize:      maxGSPrims * gsprimLDS,
		ESGSRingSize:  min(maxESVerts, maxGSPrims*vertsPerPrim) * esvertLDS * 4,
		ESGSRingItem:  1,
		Iterations:    iterations,
		Converged:     converged,
	}
	// GFX10 checks the ES vertex limit only after a whole primitive has
	// been allocated.
	if p.Level == hw.GFX10 {
		out.HWMaxESVerts = maxESVerts - vertsPerPrim + 1
	}
	if in.HasGS {
		out.ESGSRingItem = in.ESGSItemSize / 4
	}
	out.WorkgroupSize = nggWorkgroupSize(maxESVerts, maxGSPrims*invocations, maxOutVerts, ampFactor)
	return out
}

func nggWorkgroupSize(esVerts, gsInstPrims, maxVtxOut, ampFactor uint32) uint32 {
	maxVtxIn := esVerts
	if esVerts >= 256 {
		maxVtxIn = 3 * gsInstPrims
	}
	maxPrimOut := gsInstPrims * ampFactor
	return xmath.Clamp(max(maxVtxIn, maxVtxOut, gsInstPrims, maxPrimOut), 1, 256)
}

// MeshInput is the metadata of a mesh stage.
type MeshInput struct {
	Workgroup     [3]uint32
	MaxVertices   uint32
	MaxPrimitives uint32
}

// Mesh returns the NGG record of a mesh stage. The subgroup covers the
// larger of the invocation count and the declared outputs.
func Mesh(in MeshInput) NGGInfo {
	inv := max(in.Workgroup[0], 1) * max(in.Workgroup[1], 1) * max(in.Workgroup[2], 1)
	wg := xmath.Clamp(max(inv, in.MaxVertices, in.MaxPrimitives), 1, 256)
	return NGGInfo{
		HWMaxESVerts:  min(max(in.MaxVertices, 1), 256),
		MaxGSPrims:    min(max(in.MaxPrimitives, 1), 256),
		MaxOutVerts:   min(in.MaxVertices, 256),
		PrimAmpFactor: 1,
		ESGSRingItem:  1,
		WorkgroupSize: wg,
	}
}
