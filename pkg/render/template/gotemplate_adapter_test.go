package template_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-customizer/pkg/render/template/gotemplate"
)

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	files := fstest.MapFS{
		"hello.html":      {Data: []byte("Hello {{ name }}!")},
		"use-global.html": {Data: []byte("env={{ settings.env }}")},
	}
	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(files)}, opts...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngineRenderTemplate(t *testing.T) {
	engine := newEngine(t)

	var buf bytes.Buffer
	result, err := engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, &buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if result != "Hello Ada!" {
		t.Fatalf("render template = %q, want %q", result, "Hello Ada!")
	}
	if buf.String() != result {
		t.Fatalf("writer output = %q, want %q", buf.String(), result)
	}
}

func TestEngineGlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, err := engine.RenderTemplate("use-global", nil)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	if result != "env=staging" {
		t.Fatalf("render template = %q, want %q", result, "env=staging")
	}
}

func TestEngineRegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}

	result, err := engine.RenderString("{{ name|shout }}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if result != "ADA!" {
		t.Fatalf("filter output = %q, want %q", result, "ADA!")
	}
}

func TestEngineScadLiteralFilter(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderString(
		"{{ shape|scadliteral|safe }} {{ origin|scadliteral }}",
		map[string]any{"shape": "rounded box", "origin": []float64{0, 10.5}},
	)
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	want := `"rounded box" [0.0, 10.5]`
	if result != want {
		t.Fatalf("scadliteral output = %q, want %q", result, want)
	}
}

func TestEngineRenderDetectsInlineContent(t *testing.T) {
	engine := newEngine(t)

	inline, err := engine.Render("{{ name }}", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render inline: %v", err)
	}
	if inline != "Ada" {
		t.Fatalf("inline render = %q, want %q", inline, "Ada")
	}

	file, err := engine.Render("hello", map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render file: %v", err)
	}
	if file != "Hello Ada!" {
		t.Fatalf("file render = %q, want %q", file, "Hello Ada!")
	}
}
