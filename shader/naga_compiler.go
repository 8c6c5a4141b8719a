package shader

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// programMagic starts every program emitted by NagaCompiler.
const programMagic = 0x43504950 // "PIPC"

// NagaCompiler is the default backend. WGSL-derived stages are emitted as
// SPIR-V through naga with specialization constants applied; stages built
// without naga IR get a deterministic descriptor blob. Register usage is
// estimated from the argument layout and the module's I/O.
type NagaCompiler struct {
	// SPIRVVersion defaults to SPIR-V 1.3.
	SPIRVVersion spirv.Version
}

// Compile implements Compiler.
func (c NagaCompiler) Compile(req *CompileRequest) (*Binary, error) {
	if len(req.Stages) == 0 {
		return nil, &BackendError{Err: fmt.Errorf("no stages")}
	}
	version := c.SPIRVVersion
	if version == (spirv.Version{}) {
		version = spirv.Version1_3
	}

	var code bytes.Buffer
	var header [16]byte
	binary.LittleEndian.PutUint32(header[0:], programMagic)
	binary.LittleEndian.PutUint32(header[4:], uint32(req.HWStage))
	binary.LittleEndian.PutUint32(header[8:], uint32(req.StageMask()))
	binary.LittleEndian.PutUint32(header[12:], req.WaveSize)
	code.Write(header[:])
	code.Write(req.Key[:])

	var irText strings.Builder
	for _, m := range req.Stages {
		words, text, err := c.emit(m, version, req.Options.CaptureIR)
		if err != nil {
			return nil, &BackendError{Stages: req.StageMask(), Err: err}
		}
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(words)))
		code.Write(n[:])
		code.Write(words)
		if req.Options.CaptureIR {
			fmt.Fprintf(&irText, "// %s %s\n%s\n", m.Stage, m.EntryPoint, text)
		}
	}
	for code.Len()%4 != 0 {
		code.WriteByte(0)
	}

	bin := &Binary{
		Code:   code.Bytes(),
		Config: estimateConfig(req),
	}
	if req.Options.CaptureIR {
		bin.IR = irText.String()
		bin.Disasm = disassemble(bin.Code)
	}
	return bin, nil
}

func (c NagaCompiler) emit(m *Module, version spirv.Version, capture bool) ([]byte, string, error) {
	if m.IR == nil {
		d := m.Digest()
		return d[:], describe(m), nil
	}

	module := m.IR
	if len(module.Overrides) > 0 {
		module = ir.CloneModuleForOverrides(module)
		consts := ir.PipelineConstants{}
		for k, v := range m.Overrides {
			consts[k] = v
		}
		if m.ABI != nil {
			for k, v := range m.ABI.Specialization {
				consts[k] = v
			}
		}
		if err := ir.ProcessOverrides(module, consts); err != nil {
			return nil, "", fmt.Errorf("applying overrides: %w", err)
		}
	}
	out, err := naga.GenerateSPIRV(module, spirv.Options{Version: version})
	if err != nil {
		return nil, "", err
	}
	if !capture {
		return out, "", nil
	}
	text, _, err := glsl.Compile(module, glsl.Options{
		LangVersion: glsl.Version330,
		EntryPoint:  m.EntryPoint,
	})
	if err != nil {
		text = describe(m)
	}
	return out, text, nil
}

// estimateConfig derives a register footprint from the program inputs.
// VGPR pressure above MaxVGPRs is spilled in blocks of four.
func estimateConfig(req *CompileRequest) Config {
	var sgprs, vgprs, scratch, shared uint32
	if req.Args != nil {
		sgprs = uint32(req.Args.NumSGPRs)
		vgprs = uint32(req.Args.NumVGPRs)
	}
	for _, m := range req.Stages {
		sgprs += 4 + 2*uint32(len(m.Resources))
		for _, v := range m.Inputs {
			vgprs += varRegs(v)
		}
		for _, v := range m.Outputs {
			vgprs += varRegs(v)
		}
		scratch += m.ScratchBytes
		shared += m.SharedBytes
	}
	if !req.Options.DisableOptimization {
		vgprs = vgprs * 3 / 4
	}
	sgprs = alignUp(max(sgprs, 8), 8) + 2 // VCC
	vgprs = alignUp(max(vgprs, 4), 4)

	wave := req.WaveSize
	if wave == 0 {
		wave = 64
	}
	cfg := Config{
		NumSGPRs: sgprs,
		NumVGPRs: vgprs,
		WaveSize: wave,
	}
	limit := req.MaxVGPRs
	if limit == 0 {
		limit = 256
	}
	for cfg.NumVGPRs > limit {
		cfg.NumVGPRs -= 4
		cfg.SpilledVGPRs += 4
	}
	cfg.ScratchBytesPerWave = (scratch + cfg.SpilledVGPRs*4) * wave
	lds := req.LDSBytes + shared
	cfg.LDSBlocks = (lds + 511) / 512
	return cfg
}

func varRegs(v Variable) uint32 {
	n := uint32(v.Components)
	if n == 0 {
		n = 4
	}
	if v.ArrayLen > 0 {
		n *= v.ArrayLen
	}
	return n
}

func alignUp(v, a uint32) uint32 { return (v + a - 1) / a * a }

// describe renders the driver-side view of a module as text.
func describe(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "shader %s %q\n", m.Stage, m.EntryPoint)
	for _, v := range m.Inputs {
		fmt.Fprintf(&b, "  in  loc=%d slot=%d comps=%d %s\n", v.Location, v.Slot, v.Components, v.Name)
	}
	for _, v := range m.Outputs {
		fmt.Fprintf(&b, "  out loc=%d slot=%d comps=%d %s\n", v.Location, v.Slot, v.Components, v.Name)
	}
	for _, r := range m.Resources {
		fmt.Fprintf(&b, "  resource set=%d binding=%d kind=%d\n", r.Set, r.Binding, r.Kind)
	}
	keys := make([]string, 0, len(m.Overrides))
	for k := range m.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := m.Overrides[k]; !math.IsNaN(v) {
			fmt.Fprintf(&b, "  override %s = %g\n", k, v)
		}
	}
	return b.String()
}

// disassemble lists code words, eight per line.
func disassemble(code []byte) string {
	var b strings.Builder
	sum := sha256.Sum256(code)
	fmt.Fprintf(&b, "; %d bytes, sha256 %x\n", len(code), sum[:8])
	for i := 0; i+4 <= len(code); i += 4 {
		if i%32 == 0 {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%06x:", i)
		}
		fmt.Fprintf(&b, " %08x", binary.LittleEndian.Uint32(code[i:]))
	}
	b.WriteByte('\n')
	return b.String()
}
