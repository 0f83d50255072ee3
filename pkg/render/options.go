package render

import theme "github.com/goliatone/go-theme"

// RenderOptions carry per-request data renderers use to customise their
// output without touching the schema itself.
type RenderOptions struct {
	// Title labels the rendered customizer. Defaults to the document name
	// when empty.
	Title string
	// Values overrides parameter defaults with the current snapshot, keyed
	// by parameter name. Missing names fall back to schema defaults.
	Values map[string]any
	// Errors surfaces validation feedback keyed by parameter name so
	// renderers can attach inline messages to the offending control.
	Errors map[string][]string
	// Groups restricts output to the named groups, in the given order. Nil
	// renders every visible group.
	Groups []string
	// ShowHidden also renders parameters from the Hidden group. Off by
	// default; hidden parameters still compile, they just have no controls.
	ShowHidden bool
	// Theme supplies design tokens, CSS variables and partial overrides for
	// renderers that support theming.
	Theme *theme.RendererConfig
	// Locale selects the message set used when a Translator is configured.
	Locale string
	// Translator localizes labels, descriptions and group headings. Nil
	// leaves the source-derived text untouched.
	Translator Translator
}
