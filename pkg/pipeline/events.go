package pipeline

import "github.com/goliatone/go-customizer/pkg/compile"

// EventKind discriminates controller events.
type EventKind string

const (
	// EventProgress carries one line of compiler output for the live job.
	EventProgress EventKind = "progress"
	// EventResult carries a finished mesh for the freshest generation.
	EventResult EventKind = "result"
	// EventError carries a terminal failure: *CompileError, ErrWorkerTimeout
	// or ErrWorkerCrash.
	EventError EventKind = "error"
)

// Event is what the controller publishes to its consumers. Generation ties
// the event back to the parameter snapshot that produced it; consumers never
// see an event older than the freshest generation they have requested.
type Event struct {
	Kind       EventKind
	Generation uint64
	Progress   string
	Mesh       []byte
	Format     compile.MeshFormat
	Err        error
}
