// Package pipec compiles graphics and compute pipeline descriptions into
// ready-to-bind pipelines for AMD GCN and RDNA hardware.
//
// # Overview
//
// A pipeline description is the full fixed-function state of a draw
// (vertex input, rasterization, depth/stencil, blend, attachment
// formats) plus one shader module reference per programmable stage.
// pipec turns it into:
//   - compiled hardware programs, with logical stages merged into the
//     programs the hardware runs (LS+HS, ES+GS, NGG primitive shaders)
//   - one code slab holding every program, with resolved GPU addresses
//   - the ordered context and shader register writes that configure the
//     fixed-function units
//
// # Quick Start
//
//	dev, err := pipec.New(halDevice, halQueue, hw.MustLookup("navi21"))
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
//	p, err := dev.CreateGraphicsPipeline(desc, 0)
//	if err != nil {
//		return err
//	}
//	defer p.Destroy()
//
// # Caching
//
// Every construction goes through the device's PipelineCache. The key
// covers the shader sources, the hardware profile and every piece of
// state that changes generated code. Concurrent constructions of one key
// compile once: the first caller reserves the key and the others wait.
//
// # Errors
//
// Shader ingest and backend failures are reported as *CompileError
// (errors.Is(err, ErrCompile)). Memory failures wrap ErrOutOfDeviceMemory
// or ErrOutOfHostMemory. A failed construction leaves nothing allocated.
// Structurally invalid descriptions panic.
//
// # Architecture
//
// The library is organized into:
//   - Public API: Device, Pipeline, PipelineCache, CreateFlags
//   - hw: hardware profiles; state: pipeline descriptions; shader: IR,
//     ingest and backend contracts; cache: the reserve/commit cache
//   - Internal: translate (state encoding), info (normalized state),
//     stages (shader stage pipeline), budget (resource solvers),
//     regs (register emission), slab (code memory)
package pipec

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)
