package budget

import (
	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/xmath"
)

// TessInput is the metadata consumed by tessellation patch sizing.
type TessInput struct {
	InputVertices  uint32 // patch control points
	OutputVertices uint32
	// Input, output and patch output counts are in vec4 slots.
	NumInputs       uint32
	NumOutputs      uint32
	NumPatchOutputs uint32
}

// TessInfo is the LS/HS patch configuration.
type TessInfo struct {
	NumPatches uint32
	// LDSSize is in LDS allocation units of the profile.
	LDSSize         uint32
	InputPatchSize  uint32 // bytes
	OutputPatchSize uint32 // bytes
}

func offchipBlockDwords(p *hw.Profile) uint32 {
	if p.Family == hw.FamilyHawaii {
		return 4096
	}
	return 8192
}

// Tess picks the number of patches per LS/HS threadgroup and the LDS
// it needs.
func Tess(p *hw.Profile, in TessInput) TessInfo {
	inVerts := max(in.InputVertices, 1)
	outVerts := max(in.OutputVertices, 1)

	inputPatch := inVerts * in.NumInputs * 16
	outputPatch := outVerts*in.NumOutputs*16 + in.NumPatchOutputs*16

	// One wave per SIMD keeps the vertex count per threadgroup under 256.
	numPatches := 64 / max(inVerts, outVerts) * 4

	hwLDS := uint32(32768)
	// Stoney hangs above 32 KiB per threadgroup.
	if p.Level >= hw.GFX7 && p.Family != hw.FamilyStoney {
		hwLDS = 65536
	}
	if inputPatch+outputPatch != 0 {
		numPatches = min(numPatches, hwLDS/(inputPatch+outputPatch))
	}
	if outputPatch != 0 {
		numPatches = min(numPatches, offchipBlockDwords(p)*4/outputPatch)
	}
	numPatches = min(numPatches, 40)
	// GFX6 limits LS-HS threadgroups to a single wave.
	if p.Level == hw.GFX6 {
		numPatches = min(numPatches, 64/max(inVerts, outVerts))
	}
	numPatches = max(numPatches, 1)

	lds := inputPatch*numPatches + outputPatch*numPatches
	gran := max(p.LDSGranularity, 1)
	return TessInfo{
		NumPatches:      numPatches,
		LDSSize:         xmath.AlignUp(lds, gran) / gran,
		InputPatchSize:  inputPatch,
		OutputPatchSize: outputPatch,
	}
}
