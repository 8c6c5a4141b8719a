package pipec

import "strings"

// CreateFlags alter how a pipeline is constructed.
type CreateFlags uint32

const (
	// FailOnPipelineCompileRequired returns ErrCompileRequired instead of
	// compiling when the pipeline is not cached.
	FailOnPipelineCompileRequired CreateFlags = 1 << iota

	// CaptureInternalRepresentations keeps the IR and disassembly of
	// every executable for Representations.
	CaptureInternalRepresentations

	// CaptureStatistics keeps per-executable statistics.
	CaptureStatistics

	// DisableOptimization asks the backend not to optimize.
	DisableOptimization

	// EarlyReturnOnFailure stops a batch at the first failed slot; the
	// remaining slots report ErrNotAttempted.
	EarlyReturnOnFailure

	// ShareCode lets pipelines created from the same cache entry share
	// one code slab instead of uploading a private copy.
	ShareCode
)

var flagNames = []string{
	"FailOnPipelineCompileRequired",
	"CaptureInternalRepresentations",
	"CaptureStatistics",
	"DisableOptimization",
	"EarlyReturnOnFailure",
	"ShareCode",
}

// Has reports whether every flag of f2 is set.
func (f CreateFlags) Has(f2 CreateFlags) bool { return f&f2 == f2 }

// String lists the set flags separated by "|".
func (f CreateFlags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}
