package tui_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-customizer/internal/scad/parser"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/renderers/tui"
	"github.com/goliatone/go-customizer/pkg/scad"
)

const tuiSource = `
/* [Size] */
width = 60; // [10:1:140]
origin = [0, 10.5];

/* [Style] */
shape = "rounded box"; // [rounded box, capsule, ring]
solid = true;

/* [Hidden] */
$fn = 64;
`

// scriptedDriver replays canned answers and records every prompt.
type scriptedDriver struct {
	t        *testing.T
	inputs   []string
	selects  []int
	confirms []bool
	messages []string
	info     []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.inputs) == 0 {
		d.t.Fatalf("unexpected input prompt %q", cfg.Message)
	}
	answer := d.inputs[0]
	d.inputs = d.inputs[1:]
	if answer == "" {
		return cfg.Default, nil
	}
	return answer, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.confirms) == 0 {
		d.t.Fatalf("unexpected confirm prompt %q", cfg.Message)
	}
	answer := d.confirms[0]
	d.confirms = d.confirms[1:]
	return answer, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	d.messages = append(d.messages, cfg.Message)
	if len(d.selects) == 0 {
		d.t.Fatalf("unexpected select prompt %q", cfg.Message)
	}
	answer := d.selects[0]
	d.selects = d.selects[1:]
	return answer, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.info = append(d.info, msg)
	return nil
}

func parseTUISchema(t *testing.T) *scad.Schema {
	t.Helper()
	return parser.Parse([]byte(tuiSource))
}

func TestRenderWalksVisibleParameters(t *testing.T) {
	driver := &scriptedDriver{
		t:        t,
		inputs:   []string{"90", "3, 4"},
		selects:  []int{1},
		confirms: []bool{false},
	}
	renderer, err := tui.New(tui.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := renderer.Render(context.Background(), parseTUISchema(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var values map[string]any
	if err := json.Unmarshal(out, &values); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	want := map[string]any{
		"width":  float64(90),
		"origin": []any{float64(3), float64(4)},
		"shape":  "capsule",
		"solid":  false,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("collected values mismatch (-want +got):\n%s", diff)
	}

	for _, msg := range driver.messages {
		if strings.Contains(msg, "$fn") {
			t.Fatal("hidden parameter was prompted")
		}
	}
	if got := driver.messages[0]; !strings.Contains(got, "width") || !strings.Contains(got, "10") {
		t.Fatalf("range prompt %q missing bounds", got)
	}
}

func TestRenderRepromptsUntilValid(t *testing.T) {
	driver := &scriptedDriver{
		t:        t,
		inputs:   []string{"900", "abc", "90", "1, 2"},
		selects:  []int{0},
		confirms: []bool{true},
	}
	renderer, err := tui.New(tui.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := renderer.Render(context.Background(), parseTUISchema(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if len(driver.inputs) != 0 {
		t.Fatalf("unused scripted inputs: %v", driver.inputs)
	}
	invalid := 0
	for _, msg := range driver.info {
		if strings.Contains(msg, "Invalid width") {
			invalid++
		}
	}
	if invalid != 2 {
		t.Fatalf("invalid-answer notices = %d, want 2 (info: %v)", invalid, driver.info)
	}

	var values map[string]any
	if err := json.Unmarshal(out, &values); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if values["width"] != float64(90) {
		t.Fatalf("width = %v, want 90", values["width"])
	}
}

func TestRenderPrettyOutputIsAssignable(t *testing.T) {
	driver := &scriptedDriver{
		t:        t,
		inputs:   []string{"", ""}, // accept defaults
		selects:  []int{2},
		confirms: []bool{true},
	}
	renderer, err := tui.New(
		tui.WithPromptDriver(driver),
		tui.WithOutputFormat(tui.OutputFormatPrettyText),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := renderer.Render(context.Background(), parseTUISchema(t), render.RenderOptions{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	text := string(out)
	for _, want := range []string{
		"width = 60;",
		"origin = [0.0, 10.5];",
		`shape = "ring";`,
		"solid = true;",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("pretty output missing %q:\n%s", want, text)
		}
	}

	reparsed := parser.Parse(out)
	if len(reparsed.Parameters) != 4 {
		t.Fatalf("re-parse recovered %d parameters, want 4", len(reparsed.Parameters))
	}
}

func TestRenderHonorsPrefilledValues(t *testing.T) {
	driver := &scriptedDriver{
		t:        t,
		inputs:   []string{"", ""},
		selects:  []int{0},
		confirms: []bool{true},
	}
	renderer, err := tui.New(tui.WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out, err := renderer.Render(context.Background(), parseTUISchema(t), render.RenderOptions{
		Values: map[string]any{"width": 120},
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var values map[string]any
	if err := json.Unmarshal(out, &values); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if values["width"] != float64(120) {
		t.Fatalf("width = %v, want prefilled 120", values["width"])
	}
}
