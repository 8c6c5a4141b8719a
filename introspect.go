package pipec

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/pipec/hw"
	"github.com/gogpu/pipec/internal/stages"
	"github.com/gogpu/pipec/shader"
)

// Executable is one hardware program as reported to tools.
type Executable struct {
	// Name is the stage combination, such as "Vertex + Geometry Shader".
	Name        string
	Description string
	Stages      shader.StageMask
	// SubgroupSize is the wave size the program runs with.
	SubgroupSize uint32
}

// Statistic is one numeric property of an executable.
type Statistic struct {
	Name        string
	Description string
	Value       uint64
}

// Representation is a textual dump of an executable.
type Representation struct {
	Name        string
	Description string
	Text        string
}

// Executables lists the hardware programs in pipeline order.
func (p *Pipeline) Executables() []Executable {
	progs := p.res.Programs
	out := make([]Executable, len(progs))
	for i := range progs {
		out[i] = Executable{
			Name:         progs[i].Name,
			Description:  progs[i].Description,
			Stages:       progs[i].Stages,
			SubgroupSize: progs[i].WaveSize,
		}
	}
	return out
}

func (p *Pipeline) executable(index int, need CreateFlags) (*stages.Program, error) {
	if p.destroyed.Load() {
		return nil, ErrDestroyed
	}
	if index < 0 || index >= len(p.res.Programs) {
		return nil, fmt.Errorf("pipec: executable %d out of range [0, %d)", index, len(p.res.Programs))
	}
	if !p.flags.Has(need) {
		return nil, fmt.Errorf("%w: pipeline created without %s", ErrNotCaptured, need)
	}
	return &p.res.Programs[index], nil
}

// ldsIncrement is the LDS allocation unit of a program.
func ldsIncrement(prof *hw.Profile, hws shader.HWStage) uint64 {
	if prof.Level >= hw.GFX11 && hws == shader.HWStageFS {
		return 1024
	}
	return uint64(prof.LDSGranularity)
}

// Statistics returns the register and memory statistics of executable
// index. The pipeline must have been created with CaptureStatistics.
func (p *Pipeline) Statistics(index int) ([]Statistic, error) {
	prog, err := p.executable(index, CaptureStatistics)
	if err != nil {
		return nil, err
	}
	cfg := &prog.Binary.Config
	return []Statistic{
		{"Driver pipeline hash", "Driver pipeline hash used by tools", binary.LittleEndian.Uint64(p.key[:8])},
		{"SGPRs", "Number of SGPR registers allocated per subgroup", uint64(cfg.NumSGPRs)},
		{"VGPRs", "Number of VGPR registers allocated per subgroup", uint64(cfg.NumVGPRs)},
		{"Spilled SGPRs", "Number of SGPR registers spilled per subgroup", uint64(cfg.SpilledSGPRs)},
		{"Spilled VGPRs", "Number of VGPR registers spilled per subgroup", uint64(cfg.SpilledVGPRs)},
		{"Code size", "Code size in bytes", uint64(len(prog.Binary.Code))},
		{"LDS size", "LDS size in bytes per workgroup", uint64(cfg.LDSBlocks) * ldsIncrement(p.device.profile, prog.HW)},
		{"Scratch size", "Private memory in bytes per subgroup", uint64(cfg.ScratchBytesPerWave)},
		{"Subgroups per SIMD", "The maximum number of subgroups in flight on a SIMD unit", uint64(prog.MaxWaves)},
	}, nil
}

// Representations returns the captured IR and disassembly of executable
// index. The pipeline must have been created with
// CaptureInternalRepresentations.
func (p *Pipeline) Representations(index int) ([]Representation, error) {
	prog, err := p.executable(index, CaptureInternalRepresentations)
	if err != nil {
		return nil, err
	}
	var out []Representation
	add := func(name, desc, text string) {
		if text != "" {
			out = append(out, Representation{Name: name, Description: desc, Text: text})
		}
	}
	add("NIR Shader(s)", "The optimized NIR shader(s)", prog.StageIR)
	add("Backend IR", "The backend IR after some optimizations", prog.Binary.IR)
	add("Assembly", "Final Assembly", prog.Binary.Disasm)
	return out, nil
}
