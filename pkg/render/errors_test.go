package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-customizer/internal/scad/parser"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/scad"
)

func renderTestSchema(t *testing.T) *scad.Schema {
	t.Helper()
	return parser.Parse([]byte(`
width = 60; // [10:1:140]
shape = "rounded box"; // [rounded box, capsule, ring]
solid = true;
origin = [0, 10.5];
`))
}

func TestMapErrorPayloadSplitsUnknownNames(t *testing.T) {
	schema := renderTestSchema(t)

	mapping := render.MapErrorPayload(schema, map[string][]string{
		"width":   {"value 200 outside range [10:140]"},
		"texture": {"no such parameter"},
	})

	wantParams := map[string][]string{
		"width": {"value 200 outside range [10:140]"},
	}
	if diff := cmp.Diff(wantParams, mapping.Parameters); diff != "" {
		t.Fatalf("parameter errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"no such parameter"}, mapping.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapErrorPayloadEmpty(t *testing.T) {
	schema := renderTestSchema(t)
	mapping := render.MapErrorPayload(schema, nil)
	if mapping.Parameters != nil || mapping.Form != nil {
		t.Fatalf("empty payload produced mapping %+v", mapping)
	}
}

func TestMergeFormErrorsDeduplicates(t *testing.T) {
	got := render.MergeFormErrors(
		[]string{" compile failed ", ""},
		"compile failed", "worker timed out",
	)
	want := []string{"compile failed", "worker timed out"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeFormErrors mismatch (-want +got):\n%s", diff)
	}
}
