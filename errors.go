package pipec

import (
	"errors"
	"fmt"

	"github.com/gogpu/pipec/internal/slab"
	"github.com/gogpu/pipec/internal/stages"
	"github.com/gogpu/pipec/shader"
)

// Construction errors. Test with errors.Is.
var (
	// ErrOutOfHostMemory reports a failed host-side allocation or upload.
	ErrOutOfHostMemory = errors.New("pipec: out of host memory")

	// ErrOutOfDeviceMemory reports a failed or over-budget code slab.
	ErrOutOfDeviceMemory = errors.New("pipec: out of device memory")

	// ErrCompileRequired is returned when FailOnPipelineCompileRequired is
	// set and the pipeline is not cached. No compilation is attempted.
	ErrCompileRequired = errors.New("pipec: pipeline compile required")

	// ErrCompile reports a failed shader ingest or backend compile.
	ErrCompile = errors.New("pipec: shader compilation failed")

	// ErrNotAttempted marks batch slots skipped after an earlier slot
	// failed under EarlyReturnOnFailure.
	ErrNotAttempted = errors.New("pipec: not attempted")

	// ErrDestroyed is returned by a closed device or destroyed pipeline.
	ErrDestroyed = errors.New("pipec: destroyed")

	// ErrNotCaptured is returned by introspection of data the pipeline
	// was not created to keep.
	ErrNotCaptured = errors.New("pipec: not captured")

	// ErrNoDevice is returned by New without a device or allocator.
	ErrNoDevice = errors.New("pipec: no device")

	// ErrUnknownAdapter is returned when no built-in profile matches the
	// adapter of a device provider.
	ErrUnknownAdapter = errors.New("pipec: unknown adapter")
)

// CompileError is the failure of one shader stage.
type CompileError struct {
	Stage shader.Stage
	// Phase is "ingest" or "compile".
	Phase string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pipec: %s %s: %v", e.Phase, e.Stage, e.Err)
}

// Unwrap returns ErrCompile and the cause.
func (e *CompileError) Unwrap() []error { return []error{ErrCompile, e.Err} }

// BatchError collects the failed slots of a batch creation.
type BatchError struct {
	// Errs has one entry per slot; nil for slots that succeeded.
	Errs []error
}

func (e *BatchError) Error() string {
	n := 0
	var first error
	for _, err := range e.Errs {
		if err != nil {
			if first == nil {
				first = err
			}
			n++
		}
	}
	if n == 1 {
		return first.Error()
	}
	return fmt.Sprintf("pipec: %d of %d pipelines failed; first: %v", n, len(e.Errs), first)
}

// Unwrap returns the slot errors.
func (e *BatchError) Unwrap() []error {
	var errs []error
	for _, err := range e.Errs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// compileError converts a stage pipeline failure.
func compileError(err error) error {
	var se *stages.StageError
	if errors.As(err, &se) {
		return &CompileError{Stage: se.Stage, Phase: se.Phase.String(), Err: se.Err}
	}
	return fmt.Errorf("%w: %w", ErrCompile, err)
}

// memoryError classifies a slab failure.
func memoryError(err error) error {
	switch {
	case errors.Is(err, slab.ErrClosed):
		return fmt.Errorf("%w: %w", ErrDestroyed, err)
	case errors.Is(err, slab.ErrUploadFailed):
		return fmt.Errorf("%w: %w", ErrOutOfHostMemory, err)
	default:
		return fmt.Errorf("%w: %w", ErrOutOfDeviceMemory, err)
	}
}
