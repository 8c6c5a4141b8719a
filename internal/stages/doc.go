// Package stages runs the shader side of pipeline construction: it
// ingests the stage modules, links adjacent stages, decides the
// primitive-shader mode, lowers each stage to the hardware ABI and
// compiles one backend program per hardware stage.
//
// A logical stage always keeps its own Context. Stages that the
// hardware fuses share one Program and one argument layout; each
// Context records the index of the program it compiles into.
//
//	res, err := stages.CompileGraphics(p, desc, pi, stages.Options{
//		Ingester: shader.NagaIngester{},
//		Compiler: shader.NagaCompiler{},
//	})
//
// The Result is immutable and is what the pipeline cache stores.
package stages
