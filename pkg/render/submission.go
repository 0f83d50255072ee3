package render

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// ParseSubmission decodes posted form values against the schema into
// canonical parameter values. Form keys the schema does not declare are
// ignored (method overrides, CSRF tokens and similar travel alongside the
// parameters). Values that fail to decode or violate a constraint land in
// the returned error mapping keyed by parameter name.
//
// Browsers omit unchecked checkboxes, so the HTML renderer emits a hidden
// "false" input ahead of each checkbox; both values arrive here and the
// checkbox, when checked, wins by coming last.
func ParseSubmission(schema *scad.Schema, form url.Values) (map[string]any, map[string][]string) {
	values := make(map[string]any)
	errs := make(map[string][]string)

	for _, desc := range schema.Parameters {
		raw, ok := lastValue(form, desc.Name)
		if !ok {
			continue
		}
		value, err := decodeFormValue(desc, raw)
		if err != nil {
			errs[desc.Name] = append(errs[desc.Name], err.Error())
			continue
		}
		values[desc.Name] = value
	}

	if len(values) == 0 {
		values = nil
	}
	if len(errs) == 0 {
		errs = nil
	}
	return values, errs
}

func lastValue(form url.Values, name string) (string, bool) {
	all, ok := form[name]
	if !ok || len(all) == 0 {
		return "", false
	}
	return all[len(all)-1], true
}

func decodeFormValue(desc scad.Descriptor, raw string) (any, error) {
	switch desc.Kind {
	case scad.KindBoolean:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "on", "1":
			return desc.Normalize(true)
		case "false", "off", "0", "":
			return desc.Normalize(false)
		}
		return nil, fmt.Errorf("value %q is not a boolean", raw)
	case scad.KindVector:
		vector, err := ParseVectorText(raw)
		if err != nil {
			return nil, err
		}
		return desc.Normalize(vector)
	default:
		return desc.Normalize(raw)
	}
}

// ParseVectorText accepts "[1, 2.5]" and the bare "1, 2.5" an input field
// posts.
func ParseVectorText(raw string) ([]float64, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	parts := strings.Split(text, ",")

	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("value %q is not a vector", raw)
		}
		elem, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("vector element %q is not numeric", part)
		}
		out = append(out, elem)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("value %q is not a vector", raw)
	}
	return out, nil
}
