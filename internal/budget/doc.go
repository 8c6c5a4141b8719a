// Package budget sizes on-chip resources for geometry amplification and
// picks rasterizer bin sizes.
//
// The solvers are pure functions of stage metadata and hardware
// constants. They never fail; impossible inputs are clamped to the
// nearest configuration the hardware accepts.
package budget
