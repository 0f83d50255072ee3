// Package worker runs compile jobs as OpenSCAD subprocesses. Each job gets
// its own scratch directory with the document bundle materialized into it,
// so includes resolve exactly as they would against the original tree.
package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/pipeline"
	"github.com/goliatone/go-customizer/pkg/scad"
)

var tracer = otel.Tracer("github.com/goliatone/go-customizer/internal/worker")

const (
	defaultBinary = "openscad"
	// transcriptLimit caps how many stderr lines a CompileError carries.
	transcriptLimit = 200
)

type options struct {
	binary  string
	workdir string
	env     []string
}

// Option configures a Subprocess worker.
type Option func(*options)

// WithBinary sets the compiler executable. Defaults to "openscad" on PATH.
func WithBinary(path string) Option {
	return func(o *options) {
		if path != "" {
			o.binary = path
		}
	}
}

// WithWorkDir sets the parent directory for per-job scratch directories.
// Defaults to the system temp directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workdir = dir }
}

// WithEnv sets the subprocess environment. Defaults to the current process
// environment.
func WithEnv(env []string) Option {
	return func(o *options) { o.env = env }
}

// Subprocess implements pipeline.Worker over an OpenSCAD executable.
type Subprocess struct {
	opts options

	mu     sync.Mutex
	jobs   map[pipeline.JobID]context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// New builds a Subprocess worker.
func New(opts ...Option) *Subprocess {
	o := options{binary: defaultBinary}
	for _, opt := range opts {
		opt(&o)
	}
	return &Subprocess{
		opts: o,
		jobs: map[pipeline.JobID]context.CancelFunc{},
	}
}

// Submit starts the compile out-of-line and returns immediately. Exactly one
// terminal sink event follows unless the job is cancelled first.
func (w *Subprocess) Submit(ctx context.Context, req compile.Request, sink pipeline.EventSink) (pipeline.JobID, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", errors.New("worker: submit on closed worker")
	}
	id := pipeline.JobID(uuid.NewString())
	jobCtx, cancel := context.WithCancel(ctx)
	w.jobs[id] = cancel
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		defer w.release(id)
		w.run(jobCtx, id, req, sink)
	}()
	return id, nil
}

// Cancel kills the job's subprocess. Cancelling an unknown or finished job
// is a no-op.
func (w *Subprocess) Cancel(id pipeline.JobID) {
	w.mu.Lock()
	cancel := w.jobs[id]
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close cancels every running job and waits for their subprocesses to exit.
func (w *Subprocess) Close() error {
	w.mu.Lock()
	w.closed = true
	for _, cancel := range w.jobs {
		cancel()
	}
	w.mu.Unlock()
	w.wg.Wait()
	return nil
}

func (w *Subprocess) release(id pipeline.JobID) {
	w.mu.Lock()
	if cancel, ok := w.jobs[id]; ok {
		cancel()
		delete(w.jobs, id)
	}
	w.mu.Unlock()
}

func (w *Subprocess) run(ctx context.Context, id pipeline.JobID, req compile.Request, sink pipeline.EventSink) {
	ctx, span := tracer.Start(ctx, "compile", trace.WithAttributes(
		attribute.String("job.id", string(id)),
		attribute.String("mesh.format", string(req.Format)),
		attribute.Bool("full_render", req.FullRender),
		attribute.Int("definitions", len(req.Definitions)),
	))
	defer span.End()

	w.compile(ctx, id, req, tracingSink{EventSink: sink, span: span})
}

// tracingSink mirrors terminal sink events onto the job's span.
type tracingSink struct {
	pipeline.EventSink
	span trace.Span
}

func (s tracingSink) Result(id pipeline.JobID, mesh []byte, format compile.MeshFormat) {
	s.span.SetAttributes(attribute.Int("mesh.bytes", len(mesh)))
	s.span.SetStatus(codes.Ok, "")
	s.EventSink.Result(id, mesh, format)
}

func (s tracingSink) Error(id pipeline.JobID, err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.EventSink.Error(id, err)
}

func (w *Subprocess) compile(ctx context.Context, id pipeline.JobID, req compile.Request, sink pipeline.EventSink) {
	dir, err := os.MkdirTemp(w.opts.workdir, "customizer-job-*")
	if err != nil {
		sink.Error(id, fmt.Errorf("worker: create scratch dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	if err := materialize(dir, req.Document); err != nil {
		sink.Error(id, fmt.Errorf("worker: materialize bundle: %w", err))
		return
	}

	outPath := filepath.Join(dir, "out."+string(req.Format))
	cmd := exec.CommandContext(ctx, w.opts.binary, Arguments(req, outPath)...)
	cmd.Dir = dir
	cmd.Env = w.opts.env

	stderr, err := cmd.StderrPipe()
	if err != nil {
		sink.Error(id, fmt.Errorf("worker: attach stderr: %w", err))
		return
	}
	if err := cmd.Start(); err != nil {
		sink.Error(id, fmt.Errorf("%w: %v", pipeline.ErrWorkerCrash, err))
		return
	}

	var transcript []string
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if len(transcript) < transcriptLimit {
			transcript = append(transcript, line)
		}
		sink.Progress(id, line)
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		// Cancelled or superseded: the terminal event belongs to nobody.
		return
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			sink.Error(id, &pipeline.CompileError{Output: strings.Join(transcript, "\n")})
			return
		}
		sink.Error(id, fmt.Errorf("%w: %v", pipeline.ErrWorkerCrash, err))
		return
	}

	mesh, err := os.ReadFile(outPath)
	if err != nil {
		sink.Error(id, fmt.Errorf("%w: output missing: %v", pipeline.ErrWorkerCrash, err))
		return
	}
	sink.Result(id, mesh, req.Format)
}

// Arguments builds the compiler invocation for a request, writing the mesh
// to outPath. Definitions keep their request order so invocations stay
// reproducible.
func Arguments(req compile.Request, outPath string) []string {
	args := make([]string, 0, 2*len(req.Definitions)+6)
	args = append(args, "-o", outPath)
	if req.FullRender {
		args = append(args, "--render")
	}
	for _, def := range req.Definitions {
		args = append(args, "-D", def.Name+"="+def.Literal)
	}
	args = append(args, req.Document.MainPath())
	return args
}

// materialize writes every file of the bundle below dir, preserving the
// relative layout includes were resolved against.
func materialize(dir string, doc scad.Document) error {
	for _, rel := range doc.Paths() {
		content, _ := doc.File(rel)
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}
