package render

import (
	"context"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// Renderer turns a parameter schema into a byte representation of the
// customizer surface (an HTML form, a terminal session transcript, ...).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, schema *scad.Schema, options RenderOptions) ([]byte, error)
}
