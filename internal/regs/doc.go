// Package regs emits the register writes that reproduce a compiled
// pipeline on the hardware.
//
// A Sequence holds two packet streams. Context registers carry render
// state and are replayed when the pipeline is bound; shader registers
// carry program addresses and resource words and are written next to
// the draw. Emission order is fixed: depth/stencil, blend, rasterizer,
// multisample, LS/HS, ES/GS, VS, tessellation, PS, the PS input map and
// finally the miscellaneous toggles. The emitter only packs values that
// earlier phases resolved.
package regs
