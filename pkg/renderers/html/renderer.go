// Package html renders a parameter schema as a browser customizer form,
// optionally wrapped in a complete page shell.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-customizer/pkg/render"
	rendertemplate "github.com/goliatone/go-customizer/pkg/render/template"
	gotemplate "github.com/goliatone/go-customizer/pkg/render/template/gotemplate"
	"github.com/goliatone/go-customizer/pkg/scad"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	sanitizer        *bluemonday.Policy
	page             bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path != "" {
			cfg.templateFS = os.DirFS(path)
		}
	}
}

// WithTemplateRenderer injects a custom template engine implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithSanitizer overrides the policy applied to parameter descriptions.
// Defaults to bluemonday's UGC policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.sanitizer = policy
		}
	}
}

// WithPage wraps the form in a full HTML page shell including the viewer
// mount point and theme styling. Without it Render emits the bare form
// fragment for embedding.
func WithPage() Option {
	return func(cfg *config) {
		cfg.page = true
	}
}

// Renderer emits the customizer form as HTML.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	sanitizer *bluemonday.Policy
	page      bool
}

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.sanitizer == nil {
		cfg.sanitizer = bluemonday.UGCPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template engine: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, sanitizer: cfg.sanitizer, page: cfg.page}, nil
}

func (r *Renderer) Name() string {
	if r.page {
		return "page"
	}
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(_ context.Context, schema *scad.Schema, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template engine is nil")
	}

	view := buildView(schema, options, r.sanitizer)
	name := "templates/form"
	if r.page {
		name = "templates/page"
	}

	result, err := r.templates.RenderTemplate(name, map[string]any{
		"title":       view.Title,
		"groups":      view.Groups,
		"form_errors": view.FormErrors,
		"css_vars":    view.CSSVars,
		"stylesheet":  view.Stylesheet,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}
