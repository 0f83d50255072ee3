package presets_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-customizer/internal/scad/parser"
	"github.com/goliatone/go-customizer/pkg/presets"
	"github.com/goliatone/go-customizer/pkg/scad"
)

const presetTestSource = `/* [Size] */
// Outer width in mm
width = 120; // [10:1:140]
origin = [0, 0]; // [-50:0.5:50]

/* [Style] */
shape = "hex"; // [hex:Hexagon, square:Square]
solid = true;
`

func presetTestSchema(t *testing.T) *scad.Schema {
	t.Helper()
	return parser.Parse([]byte(presetTestSource))
}

func TestLoadSaveRoundTrip(t *testing.T) {
	file := &presets.File{}
	file.Put(presets.Preset{
		Name:   "tall",
		Values: map[string]any{"width": 30, "shape": "square"},
	})
	file.Put(presets.Preset{
		Name:   "default",
		Values: map[string]any{"solid": false},
	})

	var buf bytes.Buffer
	if err := file.Save(&buf); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := presets.Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	names := make([]string, 0, len(loaded.Presets))
	for _, p := range loaded.Presets {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"tall", "default"}, names); diff != "" {
		t.Fatalf("preset order mismatch (-want +got):\n%s", diff)
	}

	tall, ok := loaded.Get("tall")
	if !ok {
		t.Fatal("Get(tall) not found after round trip")
	}
	if tall.Values["shape"] != "square" {
		t.Fatalf("shape = %v, want square", tall.Values["shape"])
	}
}

func TestPutReplacesByName(t *testing.T) {
	file := &presets.File{}
	file.Put(presets.Preset{Name: "tall", Values: map[string]any{"width": 30}})
	file.Put(presets.Preset{Name: "tall", Values: map[string]any{"width": 44}})

	if len(file.Presets) != 1 {
		t.Fatalf("len(Presets) = %d, want 1", len(file.Presets))
	}
	got, _ := file.Get("tall")
	if got.Values["width"] != 44 {
		t.Fatalf("width = %v, want 44", got.Values["width"])
	}
}

func TestApplyNormalizesValues(t *testing.T) {
	schema := presetTestSchema(t)
	values, warnings, err := presets.Apply(schema, presets.Preset{
		Name: "tall",
		Values: map[string]any{
			"width":  30,
			"origin": []any{1, 2.5},
			"solid":  false,
		},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	want := map[string]any{
		"width":  30,
		"origin": []float64{1, 2.5},
		"solid":  false,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySkipsUnknownNamesWithWarning(t *testing.T) {
	schema := presetTestSchema(t)
	values, warnings, err := presets.Apply(schema, presets.Preset{
		Name:   "stale",
		Values: map[string]any{"width": 30, "removed_knob": 7},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, ok := values["removed_knob"]; ok {
		t.Fatal("unknown parameter leaked into applied values")
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0].Message, "removed_knob") {
		t.Fatalf("warning %q does not name the unknown parameter", warnings[0].Message)
	}
}

func TestApplyRejectsConstraintViolation(t *testing.T) {
	schema := presetTestSchema(t)
	_, _, err := presets.Apply(schema, presets.Preset{
		Name:   "broken",
		Values: map[string]any{"width": 900},
	})
	if err == nil {
		t.Fatal("Apply() accepted out-of-range width")
	}
	if !strings.Contains(err.Error(), "width") {
		t.Fatalf("error %q does not name the parameter", err)
	}
}
