package html_test

import (
	"context"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-customizer/internal/scad/parser"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/renderers/html"
	"github.com/goliatone/go-customizer/pkg/scad"
)

const rendererSource = `
/* [Size] */
// Outer width of the enclosure
width = 60; // [10:1:140]
origin = [0, 10.5];

/* [Style] */
shape = "rounded box"; // [rounded box, capsule, ring]
quality = 32; // [16:Draft, 32:Normal, 96:Fine]
solid = true;

/* [Hidden] */
$fn = 64;
`

func renderForm(t *testing.T, options render.RenderOptions, rendererOptions ...html.Option) string {
	t.Helper()
	schema := parser.Parse([]byte(rendererSource))
	return renderSchema(t, schema, options, rendererOptions...)
}

func renderSchema(t *testing.T, schema *scad.Schema, options render.RenderOptions, rendererOptions ...html.Option) string {
	t.Helper()
	renderer, err := html.New(rendererOptions...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	out, err := renderer.Render(context.Background(), schema, options)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return string(out)
}

func TestRenderEmitsGroupsInDeclarationOrder(t *testing.T) {
	out := renderForm(t, render.RenderOptions{})

	size := strings.Index(out, `data-group="Size"`)
	style := strings.Index(out, `data-group="Style"`)
	if size == -1 || style == -1 {
		t.Fatalf("missing group fieldsets in output:\n%s", out)
	}
	if size > style {
		t.Fatal("groups rendered out of declaration order")
	}
	if strings.Contains(out, `data-group="Hidden"`) {
		t.Fatal("hidden group reached the rendered form")
	}
	if strings.Contains(out, "$fn") {
		t.Fatal("hidden parameter reached the rendered form")
	}
}

func TestRenderRangeBecomesSlider(t *testing.T) {
	out := renderForm(t, render.RenderOptions{})

	for _, want := range []string{
		`data-parameter="width" data-control="slider"`,
		`type="range"`,
		`min="10"`,
		`max="140"`,
		`step="1"`,
		`value="60"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEnumBecomesSelect(t *testing.T) {
	out := renderForm(t, render.RenderOptions{})

	for _, want := range []string{
		`data-parameter="shape" data-control="select"`,
		`<option value="rounded box" selected>rounded box</option>`,
		`<option value="capsule">capsule</option>`,
		`<option value="32" selected>Normal</option>`,
		`<option value="96">Fine</option>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCheckboxCarriesHiddenFallback(t *testing.T) {
	out := renderForm(t, render.RenderOptions{})

	hidden := strings.Index(out, `<input type="hidden" name="solid" value="false">`)
	box := strings.Index(out, `name="solid" value="true" checked`)
	if hidden == -1 {
		t.Fatalf("missing hidden checkbox fallback:\n%s", out)
	}
	if box == -1 {
		t.Fatalf("missing checked checkbox:\n%s", out)
	}
	if hidden > box {
		t.Fatal("hidden fallback must precede the checkbox so the checked value wins")
	}
}

func TestRenderValuesOverrideDefaults(t *testing.T) {
	out := renderForm(t, render.RenderOptions{
		Values: map[string]any{
			"width": 90,
			"shape": "capsule",
		},
	})

	if !strings.Contains(out, `value="90"`) {
		t.Fatalf("width override missing:\n%s", out)
	}
	if !strings.Contains(out, `<option value="capsule" selected>`) {
		t.Fatalf("shape override not selected:\n%s", out)
	}
}

func TestRenderVectorAsText(t *testing.T) {
	out := renderForm(t, render.RenderOptions{})

	if !strings.Contains(out, `data-parameter="origin" data-control="vector"`) {
		t.Fatalf("vector control missing:\n%s", out)
	}
	if !strings.Contains(out, `value="0, 10.5"`) {
		t.Fatalf("vector display value missing:\n%s", out)
	}
}

func TestRenderDescriptionIsSanitized(t *testing.T) {
	schema := parser.Parse([]byte(`
// size in <b>millimetres</b> <script>alert(1)</script>
width = 60; // [10:1:140]
`))
	out := renderSchema(t, schema, render.RenderOptions{})

	if !strings.Contains(out, "<b>millimetres</b>") {
		t.Fatalf("benign markup stripped from description:\n%s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitization:\n%s", out)
	}
}

func TestRenderInlineErrors(t *testing.T) {
	out := renderForm(t, render.RenderOptions{
		Errors: map[string][]string{
			"width": {"value 900 outside range [10:140]"},
		},
	})
	if !strings.Contains(out, "value 900 outside range [10:140]") {
		t.Fatalf("field error missing:\n%s", out)
	}
}

func TestRenderPageShell(t *testing.T) {
	out := renderForm(t, render.RenderOptions{
		Title: "Parametric Enclosure",
		Theme: &theme.RendererConfig{
			CSSVars: map[string]string{"--cz-accent": "#ff0066"},
			AssetURL: func(name string) string {
				return "/assets/" + name
			},
		},
	}, html.WithPage())

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Parametric Enclosure</title>",
		`href="/assets/customizer.css"`,
		"--cz-accent: #ff0066;",
		`id="viewer"`,
		`data-customizer`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("page output missing %q:\n%s", want, out)
		}
	}

	fragment := renderForm(t, render.RenderOptions{})
	if strings.Contains(fragment, "<!DOCTYPE html>") {
		t.Fatal("fragment renderer emitted a page shell")
	}
}

func TestRenderLocalizesLabels(t *testing.T) {
	out := renderForm(t, render.RenderOptions{
		Locale: "de",
		Translator: render.Catalog{
			"de": {
				"group.Size":        "Abmessungen",
				"param.width.label": "Breite",
			},
		},
	})

	if !strings.Contains(out, "Abmessungen") {
		t.Fatal("group heading was not localized")
	}
	if !strings.Contains(out, "Breite") {
		t.Fatal("width label was not localized")
	}
	// Untranslated parameters keep their source-derived labels.
	if !strings.Contains(out, "Quality") {
		t.Fatal("fallback label missing for untranslated parameter")
	}
}
