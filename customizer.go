// Package customizer turns annotated OpenSCAD models into live parameter
// forms and renders: it recovers a typed schema from source comments, keeps
// edits in a generation-numbered store, and drives a single-flight compile
// pipeline that previews and exports meshes.
package customizer

import (
	"context"
	"io/fs"

	internalloader "github.com/goliatone/go-customizer/internal/scad/loader"
	internalparser "github.com/goliatone/go-customizer/internal/scad/parser"
	internalworker "github.com/goliatone/go-customizer/internal/worker"
	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/params"
	"github.com/goliatone/go-customizer/pkg/pipeline"
	"github.com/goliatone/go-customizer/pkg/render"
	htmlrenderer "github.com/goliatone/go-customizer/pkg/renderers/html"
	"github.com/goliatone/go-customizer/pkg/scad"
)

// RenderOptions describes per-request overrides renderers use to prefill
// values or surface validation errors; alias exported via the root package
// for convenience.
type RenderOptions = render.RenderOptions

// Snapshot aliases the immutable parameter snapshot handed to the pipeline.
type Snapshot = params.Snapshot

// Parse recovers a parameter schema from annotated model source.
func Parse(source []byte) *scad.Schema {
	return internalparser.Parse(source)
}

// ParseFile loads the model at entry from fsys, following include and use
// directives, and parses the entry file's annotations.
func ParseFile(fsys fs.FS, entry string) (scad.Document, *scad.Schema, []scad.Warning, error) {
	doc, warnings, err := internalloader.New(fsys).Load(entry)
	if err != nil {
		return scad.Document{}, nil, nil, err
	}
	schema := internalparser.Parse(doc.Source())
	schema.Warnings = append(schema.Warnings, warnings...)
	return doc, schema, schema.Warnings, nil
}

// ParseDir is ParseFile rooted at a directory on disk.
func ParseDir(dir, entry string) (scad.Document, *scad.Schema, []scad.Warning, error) {
	doc, warnings, err := internalloader.NewFromDir(dir).Load(entry)
	if err != nil {
		return scad.Document{}, nil, nil, err
	}
	schema := internalparser.Parse(doc.Source())
	schema.Warnings = append(schema.Warnings, warnings...)
	return doc, schema, schema.Warnings, nil
}

// DefaultRegistry returns a renderer registry with the built-in HTML
// fragment and full-page renderers registered.
func DefaultRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()

	form, err := htmlrenderer.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(form); err != nil {
		return nil, err
	}

	page, err := htmlrenderer.New(htmlrenderer.WithPage())
	if err != nil {
		return nil, err
	}
	if err := registry.Register(page); err != nil {
		return nil, err
	}
	return registry, nil
}

// GenerateFormHTML parses model source and renders its customizer form in
// one step. It is the simplest entry point for callers that just want HTML
// output.
func GenerateFormHTML(ctx context.Context, source []byte, options RenderOptions) ([]byte, error) {
	renderer, err := htmlrenderer.New()
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, Parse(source), options)
}

// NewPipeline wires a parameter store and render controller around doc using
// the local compiler binary. Callers start the controller with Run and feed
// it snapshots from the store.
func NewPipeline(doc scad.Document, schema *scad.Schema, compilerBin string, opts ...pipeline.Option) (*params.Store, *pipeline.Controller, error) {
	store, err := params.NewStore(schema)
	if err != nil {
		return nil, nil, err
	}
	builder, err := compile.NewBuilder(schema)
	if err != nil {
		return nil, nil, err
	}

	factory := func() (pipeline.Worker, error) {
		return internalworker.New(internalworker.WithBinary(compilerBin)), nil
	}
	controller := pipeline.New(doc, builder, factory, opts...)
	return store, controller, nil
}

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return htmlrenderer.TemplatesFS()
}

// EmbeddedAssets exposes the stylesheet bundle the HTML renderer links to.
func EmbeddedAssets() fs.FS {
	return htmlrenderer.AssetsFS()
}
