// Package params owns the current parameter values derived from a parsed
// schema. Every accepted edit produces a fresh immutable snapshot with a
// monotonically increasing generation, which the render pipeline uses as its
// sole staleness key.
package params

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-customizer/pkg/scad"
)

var (
	// ErrUnknownParameter rejects edits naming a parameter absent from the
	// schema. This is a caller programming error, not a retryable state.
	ErrUnknownParameter = errors.New("params: unknown parameter")
	// ErrConstraintViolation rejects values that fail the descriptor's kind
	// or constraint check. Callers should validate first; the store
	// re-validates defensively.
	ErrConstraintViolation = errors.New("params: constraint violation")
)

// Snapshot is an immutable view of current parameter values. The zero
// generation is the schema's defaults; edits derive new snapshots with
// generation incremented by exactly one.
type Snapshot struct {
	generation uint64
	values     map[string]any
}

// Generation returns the snapshot's sequence number.
func (s Snapshot) Generation() uint64 {
	return s.generation
}

// Value returns the current value for a parameter.
func (s Snapshot) Value(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a defensive copy of the full name-to-value mapping.
func (s Snapshot) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Store serializes edits against a single schema revision. All methods are
// safe for concurrent use; writes are applied strictly in arrival order.
type Store struct {
	mu      sync.Mutex
	schema  *scad.Schema
	current Snapshot
}

// NewStore initializes a store from the schema's defaults at generation 0.
func NewStore(schema *scad.Schema) (*Store, error) {
	if schema == nil {
		return nil, errors.New("params: schema is required")
	}
	return &Store{
		schema:  schema,
		current: Snapshot{generation: 0, values: schema.Defaults()},
	}, nil
}

// Schema returns the schema this store was built from.
func (s *Store) Schema() *scad.Schema {
	return s.schema
}

// Snapshot returns the latest accepted snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set validates and applies a single edit, returning the derived snapshot.
func (s *Store) Set(name string, value any) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := s.normalize(name, value)
	if err != nil {
		return Snapshot{}, err
	}
	return s.commit(map[string]any{name: normalized}), nil
}

// Apply validates and applies a batch of edits as one generation step.
// Unknown names are skipped and reported back as warnings so preset files
// from older model revisions still load. An empty accepted set is a no-op
// returning the current snapshot.
func (s *Store) Apply(values map[string]any) (Snapshot, []scad.Warning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := make(map[string]any, len(values))
	var warnings []scad.Warning
	for name, value := range values {
		normalized, err := s.normalize(name, value)
		if err != nil {
			if errors.Is(err, ErrUnknownParameter) {
				warnings = append(warnings, scad.Warning{
					Message: fmt.Sprintf("parameter %q is not in the schema; ignored", name),
				})
				continue
			}
			return Snapshot{}, nil, err
		}
		accepted[name] = normalized
	}

	if len(accepted) == 0 {
		return s.current, warnings, nil
	}
	return s.commit(accepted), warnings, nil
}

func (s *Store) normalize(name string, value any) (any, error) {
	descriptor, ok := s.schema.Descriptor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	normalized, err := descriptor.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrConstraintViolation, name, err)
	}
	return normalized, nil
}

// commit derives the successor snapshot. Callers hold the lock.
func (s *Store) commit(updates map[string]any) Snapshot {
	next := make(map[string]any, len(s.current.values))
	for k, v := range s.current.values {
		next[k] = v
	}
	for k, v := range updates {
		next[k] = v
	}
	s.current = Snapshot{generation: s.current.generation + 1, values: next}
	return s.current
}
