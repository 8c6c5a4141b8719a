// Package hw describes the GPU generations the pipeline compiler targets.
//
// A [Profile] is built once per device and passed read-only into every
// compiler phase. Generation breakpoints are resolved into capability
// booleans when the profile is created, so callers test
// p.Caps.MergedShaders instead of comparing p.Level at each site.
//
//	p := hw.MustLookup("navi21")
//	if p.Caps.NGG {
//	    // primitive-shader path
//	}
package hw
