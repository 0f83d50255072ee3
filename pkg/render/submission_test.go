package render_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-customizer/pkg/render"
)

func TestParseSubmissionDecodesEveryKind(t *testing.T) {
	schema := renderTestSchema(t)

	form := url.Values{
		"width":   {"90"},
		"shape":   {"capsule"},
		"solid":   {"false", "on"}, // hidden fallback plus the checked box
		"origin":  {"[3, 4.5]"},
		"_method": {"PUT"},
	}

	values, errs := render.ParseSubmission(schema, form)
	if errs != nil {
		t.Fatalf("ParseSubmission errors = %v", errs)
	}
	want := map[string]any{
		"width":  90,
		"shape":  "capsule",
		"solid":  true,
		"origin": []float64{3, 4.5},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("decoded values mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSubmissionBareVectorText(t *testing.T) {
	schema := renderTestSchema(t)

	values, errs := render.ParseSubmission(schema, url.Values{"origin": {"1, 2"}})
	if errs != nil {
		t.Fatalf("ParseSubmission errors = %v", errs)
	}
	if diff := cmp.Diff([]float64{1, 2}, values["origin"]); diff != "" {
		t.Fatalf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSubmissionCollectsConstraintErrors(t *testing.T) {
	schema := renderTestSchema(t)

	form := url.Values{
		"width": {"900"},      // outside [10:140]
		"shape": {"pyramid"},  // not an option
		"solid": {"perhaps"},  // not a boolean
	}
	values, errs := render.ParseSubmission(schema, form)
	if values != nil {
		t.Fatalf("invalid submission produced values %v", values)
	}
	for _, name := range []string{"width", "shape", "solid"} {
		if len(errs[name]) == 0 {
			t.Fatalf("missing error for %q in %v", name, errs)
		}
	}
}

func TestParseSubmissionIgnoresUnknownKeys(t *testing.T) {
	schema := renderTestSchema(t)

	values, errs := render.ParseSubmission(schema, url.Values{"csrf_token": {"abc"}})
	if values != nil || errs != nil {
		t.Fatalf("unknown-only submission produced values=%v errs=%v", values, errs)
	}
}
