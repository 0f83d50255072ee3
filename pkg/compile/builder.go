// Package compile turns a parameter snapshot plus the original model source
// into a compiler request. Building is side-effect free and deterministic.
package compile

import (
	"errors"

	"github.com/goliatone/go-customizer/pkg/params"
	"github.com/goliatone/go-customizer/pkg/scad"
)

// Builder assembles compile requests against one schema revision. The
// schema's declaration order fixes the override order, so two builds from
// the same inputs are byte-for-byte identical.
type Builder struct {
	schema *scad.Schema
}

// NewBuilder creates a Builder for the supplied schema.
func NewBuilder(schema *scad.Schema) (*Builder, error) {
	if schema == nil {
		return nil, errors.New("compile: schema is required")
	}
	return &Builder{schema: schema}, nil
}

// Build produces the request for a snapshot. Hidden parameters are included:
// they are excluded from the UI, not from compilation. Parameters missing
// from the snapshot fall back to their schema default.
func (b *Builder) Build(doc scad.Document, snapshot params.Snapshot, format MeshFormat) Request {
	defs := make([]Definition, 0, len(b.schema.Parameters))
	for _, d := range b.schema.Parameters {
		value, ok := snapshot.Value(d.Name)
		if !ok {
			value = d.Default
		}
		defs = append(defs, Definition{Name: d.Name, Literal: FormatValue(value)})
	}
	return Request{
		Document:    doc,
		Definitions: defs,
		Format:      format,
	}
}
