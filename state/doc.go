// Package state defines the declarative pipeline description consumed by
// the compiler.
//
// Fixed-function vocabulary (blend factors, compare functions, stencil
// operations, topologies, formats) comes from gputypes. The few Vulkan
// concepts WebGPU lacks (dual-source blend factors, logic ops, polygon
// modes, adjacency, patch lists) are defined here.
//
// A description is owned by the caller and only read by the compiler. Any
// field whose bit is set in Dynamic is ignored at creation time and must
// be supplied at draw time.
package state
