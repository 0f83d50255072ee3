package httpapi

import (
	"context"
	"sync"

	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/pipeline"
)

// StreamEvent is the JSON shape delivered to event-stream subscribers.
// Result meshes travel out of band; the stream only announces them so
// clients can fetch /mesh.
type StreamEvent struct {
	Kind       string `json:"kind"`
	Generation uint64 `json:"generation"`
	Progress   string `json:"progress,omitempty"`
	Format     string `json:"format,omitempty"`
	MeshBytes  int    `json:"mesh_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}

// broker fans pipeline events out to any number of stream subscribers and
// retains the latest preview mesh for the /mesh endpoint.
type broker struct {
	mu         sync.Mutex
	subs       map[chan StreamEvent]struct{}
	mesh       []byte
	meshFormat compile.MeshFormat
	meshGen    uint64
}

func newBroker() *broker {
	return &broker{subs: make(map[chan StreamEvent]struct{})}
}

// run consumes the pipeline event channel until it closes or ctx ends.
func (b *broker) run(ctx context.Context, events <-chan pipeline.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.dispatch(ev)
		}
	}
}

func (b *broker) dispatch(ev pipeline.Event) {
	out := StreamEvent{Generation: ev.Generation}
	switch ev.Kind {
	case pipeline.EventProgress:
		out.Kind = "progress"
		out.Progress = ev.Progress
	case pipeline.EventResult:
		out.Kind = "result"
		out.Format = string(ev.Format)
		out.MeshBytes = len(ev.Mesh)
		b.storeMesh(ev)
	case pipeline.EventError:
		out.Kind = "error"
		if ev.Err != nil {
			out.Error = ev.Err.Error()
		}
	default:
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		// Slow subscribers miss intermediate events rather than stalling
		// the fan-out.
		select {
		case sub <- out:
		default:
		}
	}
}

func (b *broker) storeMesh(ev pipeline.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev.Generation < b.meshGen {
		return
	}
	b.mesh = ev.Mesh
	b.meshFormat = ev.Format
	b.meshGen = ev.Generation
}

func (b *broker) latestMesh() ([]byte, compile.MeshFormat, uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mesh == nil {
		return nil, "", 0, false
	}
	return b.mesh, b.meshFormat, b.meshGen, true
}

func (b *broker) subscribe() (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
	return ch, cancel
}
