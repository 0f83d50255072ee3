// Package template defines the renderer-agnostic template engine contract
// the HTML renderer builds on, plus adapters that satisfy it.
package template
