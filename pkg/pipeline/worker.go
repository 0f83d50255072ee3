package pipeline

import (
	"context"

	"github.com/goliatone/go-customizer/pkg/compile"
)

// JobID identifies one submitted compile job at the worker boundary.
type JobID string

// EventSink receives worker events for a submitted job. The worker delivers
// at most one terminal Result or Error per job; Progress may arrive any
// number of times before that.
type EventSink interface {
	Progress(id JobID, line string)
	Result(id JobID, mesh []byte, format compile.MeshFormat)
	Error(id JobID, err error)
}

// Worker is the sandboxed compiler boundary: an opaque request/response/
// cancel channel. Cancel on an already-terminal job is silently ignored.
// Implementations run the compile out-of-line and report through the sink.
type Worker interface {
	Submit(ctx context.Context, req compile.Request, sink EventSink) (JobID, error)
	Cancel(id JobID)
	Close() error
}

// WorkerFactory builds a fresh worker. The controller calls it once at
// startup and again whenever it recycles a wedged worker.
type WorkerFactory func() (Worker, error)

// MeshCache memoizes compiled meshes by request digest. Build determinism
// makes the digest a sound key. Implementations live in pkg/cache.
type MeshCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, mesh []byte) error
}
