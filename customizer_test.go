package customizer_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	customizer "github.com/goliatone/go-customizer"
)

const facadeTestSource = `/* [Size] */
// Outer width in mm
width = 120; // [10:1:140]

/* [Style] */
shape = "hex"; // [hex:Hexagon, square:Square]
`

func TestParseRecoversSchema(t *testing.T) {
	schema := customizer.Parse([]byte(facadeTestSource))

	if len(schema.Parameters) != 2 {
		t.Fatalf("parsed %d parameters, want 2", len(schema.Parameters))
	}
	if schema.Parameters[0].Group != "Size" {
		t.Fatalf("width group = %q, want Size", schema.Parameters[0].Group)
	}
}

func TestParseFileFollowsIncludes(t *testing.T) {
	fsys := fstest.MapFS{
		"crate.scad": &fstest.MapFile{Data: []byte("include <lib/rounded.scad>\n" + facadeTestSource)},
		"lib/rounded.scad": &fstest.MapFile{Data: []byte("module rounded() {}\n")},
	}

	doc, schema, _, err := customizer.ParseFile(fsys, "crate.scad")
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if doc.Len() != 2 {
		t.Fatalf("document bundles %d files, want 2", doc.Len())
	}
	if _, ok := schema.Descriptor("width"); !ok {
		t.Fatal("schema is missing width")
	}
}

func TestGenerateFormHTML(t *testing.T) {
	out, err := customizer.GenerateFormHTML(context.Background(), []byte(facadeTestSource), customizer.RenderOptions{
		Values: map[string]any{"width": 42},
	})
	if err != nil {
		t.Fatalf("GenerateFormHTML() error = %v", err)
	}

	html := string(out)
	if !strings.Contains(html, `name="width"`) {
		t.Fatal("form is missing the width control")
	}
	if !strings.Contains(html, `value="42"`) {
		t.Fatal("form ignored the width override")
	}
}

func TestDefaultRegistryServesFormAndPage(t *testing.T) {
	registry, err := customizer.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}
	for _, name := range []string{"html", "page"} {
		if !registry.Has(name) {
			t.Fatalf("registry is missing renderer %q", name)
		}
	}
}
