package render

import (
	"strings"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// ErrorMapping splits a validation payload into parameter-level and
// form-level messages, keyed by the parameter names the renderers use.
type ErrorMapping struct {
	Parameters map[string][]string
	Form       []string
}

// MapErrorPayload normalises a validation payload against the schema.
// Messages for names the schema does not declare become form-level errors so
// they are not silently lost.
func MapErrorPayload(schema *scad.Schema, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{}
	if len(payload) == 0 {
		return mapping
	}

	mapping.Parameters = make(map[string][]string)
	for name, messages := range payload {
		messages = normalizeMessages(messages)
		if len(messages) == 0 {
			continue
		}
		if _, ok := schema.Descriptor(name); !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Parameters[name] = messages
	}

	if len(mapping.Parameters) == 0 {
		mapping.Parameters = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates form-level error slices, trimming whitespace
// and dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
