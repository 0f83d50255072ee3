package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkerTimeout reports a job that exceeded the per-job deadline.
	// The controller recycles the worker after emitting it.
	ErrWorkerTimeout = errors.New("pipeline: worker timed out")

	// ErrWorkerCrash reports a worker that terminated without producing a
	// result or a compile error for the active job.
	ErrWorkerCrash = errors.New("pipeline: worker crashed")

	// ErrSuperseded reports a job that was replaced by fresher intent
	// before it finished.
	ErrSuperseded = errors.New("pipeline: job superseded")

	// ErrClosed reports an operation against a controller whose Run loop
	// has exited.
	ErrClosed = errors.New("pipeline: controller closed")
)

// CompileError carries compiler diagnostics for a job that ran to
// completion and failed. Output is the compiler's stderr transcript; the
// Event that wraps the error names the generation.
type CompileError struct {
	Output string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pipeline: compile failed: %s", e.Output)
}
