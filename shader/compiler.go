package shader

import (
	"errors"
	"fmt"
)

// ErrBackend is wrapped by compiler implementations when code generation
// fails.
var ErrBackend = errors.New("shader: backend compilation failed")

// CompileOptions are per-request backend switches.
type CompileOptions struct {
	DisableOptimization bool
	// CaptureIR asks the backend to return textual IR and disassembly.
	CaptureIR bool
}

// CompileRequest is one backend invocation. Stages holds one logical
// stage, or two when the hardware runs them as a merged program; all
// stages share Args.
type CompileRequest struct {
	HWStage HWStage
	Stages  []*Module
	Args    *ArgLayout
	// WaveSize is 32 or 64.
	WaveSize uint32
	// LDSBytes is LDS the driver reserved for rings and stage I/O.
	LDSBytes uint32
	// NGG, NGGCulling and NGGPassthrough describe the primitive-shader mode.
	NGG            bool
	NGGCulling     bool
	NGGPassthrough bool
	// Key is the specialization key digest; identical keys must produce
	// identical binaries.
	Key [32]byte
	// GfxLevel is the target generation number as hw.GfxLevel.
	GfxLevel uint8
	// MaxVGPRs bounds register allocation before spilling.
	MaxVGPRs uint32
	Options  CompileOptions
}

// StageMask returns the logical stages covered by the request.
func (r *CompileRequest) StageMask() StageMask {
	var m StageMask
	for _, s := range r.Stages {
		m |= s.Stage.Mask()
	}
	return m
}

// Config is the fixed-size record describing a compiled program's
// register footprint.
type Config struct {
	NumSGPRs            uint32
	NumVGPRs            uint32
	SpilledSGPRs        uint32
	SpilledVGPRs        uint32
	ScratchBytesPerWave uint32
	// LDSBlocks is LDS in units of the profile's encode granularity.
	LDSBlocks uint32
	FloatMode uint8
	WaveSize  uint32

	// Program resource registers, packed by the driver after compile.
	RSRC1 uint32
	RSRC2 uint32
	RSRC3 uint32
}

// Binary is the backend's output for one hardware program.
type Binary struct {
	Code   []byte
	Config Config
	// IR and Disasm are filled when CompileOptions.CaptureIR is set.
	IR     string
	Disasm string
}

// Compiler is the opaque backend. Implementations must be deterministic
// and safe for concurrent use.
type Compiler interface {
	Compile(req *CompileRequest) (*Binary, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(req *CompileRequest) (*Binary, error)

// Compile calls f(req).
func (f CompilerFunc) Compile(req *CompileRequest) (*Binary, error) { return f(req) }

// BackendError reports a failed backend invocation.
type BackendError struct {
	Stages StageMask
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("shader: compiling %s: %v", e.Stages, e.Err)
}

// Unwrap returns ErrBackend and the cause.
func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }
