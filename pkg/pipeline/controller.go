// Package pipeline schedules compile jobs against a sandboxed worker. It is
// single-flight: at most one job runs at a time, parameter edits debounce
// and supersede whatever is in flight, and results older than the freshest
// requested generation are dropped instead of delivered.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-customizer/internal/ctxlog"
	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/params"
	"github.com/goliatone/go-customizer/pkg/scad"
)

const (
	defaultDebounce   = 350 * time.Millisecond
	defaultJobTimeout = 90 * time.Second
)

type options struct {
	debounce      time.Duration
	jobTimeout    time.Duration
	previewFormat compile.MeshFormat
	cache         MeshCache
}

// Option configures a Controller.
type Option func(*options)

// WithDebounce sets how long the controller waits after the last parameter
// edit before submitting a preview job.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithJobTimeout sets the per-job deadline. A job that exceeds it yields an
// ErrWorkerTimeout event and the worker is recycled.
func WithJobTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.jobTimeout = d
		}
	}
}

// WithPreviewFormat sets the mesh format used for debounced preview jobs.
// Exports name their own format per request.
func WithPreviewFormat(format compile.MeshFormat) Option {
	return func(o *options) { o.previewFormat = format }
}

// WithCache memoizes finished meshes by request digest. Cache errors are
// logged and treated as misses.
func WithCache(cache MeshCache) Option {
	return func(o *options) { o.cache = cache }
}

// Controller owns the render scheduling state machine. All state lives in
// the Run goroutine; Update and Export communicate with it over channels and
// are safe for concurrent use.
type Controller struct {
	doc     scad.Document
	builder *compile.Builder
	factory WorkerFactory
	opts    options

	updates chan params.Snapshot
	exports chan *exportRequest
	events  chan Event
	done    chan struct{}
}

type exportRequest struct {
	snapshot params.Snapshot
	format   compile.MeshFormat
	reply    chan exportReply
}

type exportReply struct {
	mesh []byte
	err  error
}

type liveJob struct {
	id         JobID
	generation uint64
	digest     string
	format     compile.MeshFormat
	export     *exportRequest
}

// New builds a Controller for one document. The factory is invoked once when
// Run starts and again whenever the worker is recycled.
func New(doc scad.Document, builder *compile.Builder, factory WorkerFactory, opts ...Option) *Controller {
	o := options{
		debounce:      defaultDebounce,
		jobTimeout:    defaultJobTimeout,
		previewFormat: compile.FormatSTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Controller{
		doc:     doc,
		builder: builder,
		factory: factory,
		opts:    o,
		updates: make(chan params.Snapshot, 1),
		exports: make(chan *exportRequest),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
}

// Events returns the controller's outbound event stream. The channel closes
// when Run exits. Progress events are dropped when the consumer lags;
// results and errors are always delivered.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Update records fresher parameter intent. It never blocks: when an earlier
// update is still queued it is replaced, so the controller only ever sees
// the latest snapshot.
func (c *Controller) Update(snapshot params.Snapshot) {
	for {
		select {
		case <-c.done:
			return
		case c.updates <- snapshot:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// Export compiles snapshot at full quality in the requested format and
// returns the mesh. Exports bypass the debounce window and supersede any
// preview in flight; a fresher update or export in turn supersedes them.
func (c *Controller) Export(ctx context.Context, snapshot params.Snapshot, format compile.MeshFormat) ([]byte, error) {
	req := &exportRequest{snapshot: snapshot, format: format, reply: make(chan exportReply, 1)}
	select {
	case c.exports <- req:
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rep := <-req.reply:
		return rep.mesh, rep.err
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drives the scheduler until ctx is cancelled or the worker factory
// fails during a recycle. It owns the worker for its whole lifetime.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer close(c.events)

	logger := ctxlog.FromContext(ctx)

	worker, err := c.factory()
	if err != nil {
		return fmt.Errorf("pipeline: start worker: %w", err)
	}
	defer func() { _ = worker.Close() }()

	sink := make(chan workerEvent, 64)

	debounce := time.NewTimer(time.Hour)
	stopTimer(debounce)
	deadline := time.NewTimer(time.Hour)
	stopTimer(deadline)

	var (
		latestGen   uint64
		pendingSnap params.Snapshot
		havePending bool
		active      *liveJob
	)

	emit := func(ev Event) {
		if ev.Kind == EventProgress {
			select {
			case c.events <- ev:
			default:
			}
			return
		}
		select {
		case c.events <- ev:
		case <-ctx.Done():
		}
	}

	cancelActive := func() {
		if active == nil {
			return
		}
		worker.Cancel(active.id)
		if active.export != nil {
			active.export.reply <- exportReply{err: ErrSuperseded}
		}
		active = nil
		stopTimer(deadline)
	}

	recycle := func(reason error) error {
		logger.Warn("recycling worker", "reason", reason)
		_ = worker.Close()
		fresh, err := c.factory()
		if err != nil {
			return fmt.Errorf("pipeline: recycle worker: %w", err)
		}
		worker = fresh
		return nil
	}

	submit := func(snapshot params.Snapshot, format compile.MeshFormat, export *exportRequest) error {
		req := c.builder.Build(c.doc, snapshot, format)
		if export != nil {
			req.FullRender = true
		}
		digest := req.Digest()
		generation := snapshot.Generation()

		if c.opts.cache != nil {
			mesh, ok, err := c.opts.cache.Get(ctx, digest)
			if err != nil {
				logger.Warn("mesh cache lookup failed", "error", err)
			} else if ok {
				logger.Debug("mesh cache hit", "generation", generation, "digest", digest)
				if export != nil {
					export.reply <- exportReply{mesh: mesh}
				} else {
					emit(Event{Kind: EventResult, Generation: generation, Mesh: mesh, Format: format})
				}
				return nil
			}
		}

		id, err := worker.Submit(ctx, req, &chanSink{generation: generation, ch: sink, done: c.done})
		if err != nil {
			err = fmt.Errorf("pipeline: submit job: %w", err)
			if export != nil {
				export.reply <- exportReply{err: err}
			} else {
				emit(Event{Kind: EventError, Generation: generation, Err: err})
			}
			return recycle(err)
		}
		logger.Debug("job submitted", "job", id, "generation", generation, "format", format)
		active = &liveJob{id: id, generation: generation, digest: digest, format: format, export: export}
		resetTimer(deadline, c.opts.jobTimeout)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			cancelActive()
			return ctx.Err()

		case snapshot := <-c.updates:
			if snapshot.Generation() < latestGen {
				continue
			}
			latestGen = snapshot.Generation()
			cancelActive()
			pendingSnap, havePending = snapshot, true
			resetTimer(debounce, c.opts.debounce)

		case <-debounce.C:
			if !havePending {
				continue
			}
			snapshot := pendingSnap
			havePending = false
			if err := submit(snapshot, c.opts.previewFormat, nil); err != nil {
				return err
			}

		case req := <-c.exports:
			cancelActive()
			havePending = false
			stopTimer(debounce)
			if req.snapshot.Generation() > latestGen {
				latestGen = req.snapshot.Generation()
			}
			if err := submit(req.snapshot, req.format, req); err != nil {
				return err
			}

		case ev := <-sink:
			if active == nil || ev.id != active.id {
				continue
			}
			if ev.generation < latestGen {
				if ev.kind != EventProgress {
					// A superseded export still owes its caller an answer.
					if active.export != nil {
						active.export.reply <- exportReply{err: ErrSuperseded}
					}
					active = nil
					stopTimer(deadline)
				}
				continue
			}
			switch ev.kind {
			case EventProgress:
				if active.export == nil {
					emit(Event{Kind: EventProgress, Generation: ev.generation, Progress: ev.line})
				}
			case EventResult:
				if c.opts.cache != nil {
					if err := c.opts.cache.Set(ctx, active.digest, ev.mesh); err != nil {
						logger.Warn("mesh cache store failed", "error", err)
					}
				}
				if active.export != nil {
					active.export.reply <- exportReply{mesh: ev.mesh}
				} else {
					emit(Event{Kind: EventResult, Generation: ev.generation, Mesh: ev.mesh, Format: ev.format})
				}
				active = nil
				stopTimer(deadline)
			case EventError:
				if active.export != nil {
					active.export.reply <- exportReply{err: ev.err}
				} else {
					emit(Event{Kind: EventError, Generation: ev.generation, Err: ev.err})
				}
				crashed := errors.Is(ev.err, ErrWorkerCrash)
				active = nil
				stopTimer(deadline)
				if crashed {
					if err := recycle(ev.err); err != nil {
						return err
					}
				}
			}

		case <-deadline.C:
			if active == nil {
				continue
			}
			err := fmt.Errorf("%w after %s at generation %d", ErrWorkerTimeout, c.opts.jobTimeout, active.generation)
			worker.Cancel(active.id)
			if active.export != nil {
				active.export.reply <- exportReply{err: err}
			} else {
				emit(Event{Kind: EventError, Generation: active.generation, Err: err})
			}
			active = nil
			if rerr := recycle(err); rerr != nil {
				return rerr
			}
		}
	}
}

// workerEvent is the sink adapter's wire format into the Run loop.
type workerEvent struct {
	id         JobID
	generation uint64
	kind       EventKind
	line       string
	mesh       []byte
	format     compile.MeshFormat
	err        error
}

// chanSink adapts the EventSink callback surface onto the controller's
// event channel. One sink is created per submission so every event carries
// the generation it was compiled for.
type chanSink struct {
	generation uint64
	ch         chan<- workerEvent
	done       <-chan struct{}
}

func (s *chanSink) Progress(id JobID, line string) {
	s.send(workerEvent{id: id, generation: s.generation, kind: EventProgress, line: line})
}

func (s *chanSink) Result(id JobID, mesh []byte, format compile.MeshFormat) {
	s.send(workerEvent{id: id, generation: s.generation, kind: EventResult, mesh: mesh, format: format})
}

func (s *chanSink) Error(id JobID, err error) {
	s.send(workerEvent{id: id, generation: s.generation, kind: EventError, err: err})
}

func (s *chanSink) send(ev workerEvent) {
	select {
	case s.ch <- ev:
	case <-s.done:
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	stopTimer(t)
	t.Reset(d)
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
