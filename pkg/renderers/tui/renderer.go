// Package tui collects parameter values through terminal prompts, walking
// the schema in declaration order and validating answers against each
// parameter's constraint before accepting them.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/scad"
)

// Renderer implements render.Renderer for terminal-driven sessions. Its
// output is the collected value set, serialized per the configured format.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	showHidden   bool
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every visible parameter and returns the collected
// values. Prefilled options.Values become prompt defaults.
func (r *Renderer) Render(ctx context.Context, schema *scad.Schema, opts render.RenderOptions) ([]byte, error) {
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	showHidden := r.showHidden || opts.ShowHidden
	values := make(map[string]any)
	var order []string

	for _, group := range schema.Groups {
		if group.Hidden && !showHidden {
			continue
		}
		announced := false
		for _, desc := range schema.GroupParameters(group.Name) {
			if desc.Hidden && !showHidden {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !announced && group.Name != "" {
				heading := opts.Localize(render.GroupKey(group.Name), group.Name)
				if err := r.driver.Info(ctx, fmt.Sprintf("-- %s --", heading)); err != nil {
					return nil, err
				}
				announced = true
			}

			current := desc.Default
			if override, ok := opts.Values[desc.Name]; ok {
				if normalized, err := desc.Normalize(override); err == nil {
					current = normalized
				}
			}

			value, err := r.promptParameter(ctx, desc, current)
			if err != nil {
				return nil, err
			}
			values[desc.Name] = value
			order = append(order, desc.Name)
		}
	}

	return r.serialize(values, order)
}

func (r *Renderer) promptParameter(ctx context.Context, desc scad.Descriptor, current any) (any, error) {
	if desc.Constraint.Kind == scad.ConstraintEnum {
		return r.promptEnum(ctx, desc, current)
	}
	if desc.Kind == scad.KindBoolean {
		return r.promptBoolean(ctx, desc, current)
	}
	return r.promptInput(ctx, desc, current)
}

func (r *Renderer) promptBoolean(ctx context.Context, desc scad.Descriptor, current any) (any, error) {
	defaultVal, _ := current.(bool)
	answer, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: promptMessage(desc),
		Default: defaultVal,
		Help:    desc.Description,
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (r *Renderer) promptEnum(ctx context.Context, desc scad.Descriptor, current any) (any, error) {
	options := desc.Constraint.Options
	labels := make([]string, len(options))
	defaultIdx := -1
	for i, opt := range options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = fmt.Sprint(opt.Value)
		}
		if desc.Validate(current) == nil && fmt.Sprint(opt.Value) == fmt.Sprint(current) {
			defaultIdx = i
		}
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      promptMessage(desc),
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         desc.Description,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			if err := r.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", desc.Name)); err != nil {
				return nil, err
			}
			continue
		}
		return desc.Normalize(options[idx].Value)
	}
}

func (r *Renderer) promptInput(ctx context.Context, desc scad.Descriptor, current any) (any, error) {
	for {
		answer, err := r.driver.Input(ctx, InputConfig{
			Message: promptMessage(desc),
			Default: displayDefault(current),
			Help:    desc.Description,
		})
		if err != nil {
			return nil, err
		}

		value, err := decodeAnswer(desc, answer)
		if err != nil {
			if infoErr := r.driver.Info(ctx, fmt.Sprintf("Invalid %s: %v", desc.Name, err)); infoErr != nil {
				return nil, infoErr
			}
			continue
		}
		return value, nil
	}
}

func decodeAnswer(desc scad.Descriptor, answer string) (any, error) {
	if desc.Kind == scad.KindVector {
		vector, err := render.ParseVectorText(answer)
		if err != nil {
			return nil, err
		}
		return desc.Normalize(vector)
	}
	return desc.Normalize(answer)
}

// promptMessage labels the prompt, including the allowed range when one is
// declared.
func promptMessage(desc scad.Descriptor) string {
	if desc.Constraint.Kind == scad.ConstraintRange {
		return fmt.Sprintf("%s [%v..%v]", desc.Name, desc.Constraint.Min, desc.Constraint.Max)
	}
	return desc.Name
}

func displayDefault(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []float64:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = strings.TrimSuffix(compile.FormatValue(elem), ".0")
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func (r *Renderer) serialize(values map[string]any, order []string) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		form := url.Values{}
		for _, name := range order {
			form.Set(name, displayDefault(values[name]))
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		for _, name := range order {
			fmt.Fprintf(&b, "%s = %s;\n", name, compile.FormatValue(values[name]))
		}
		return []byte(b.String()), nil
	default:
		return json.Marshal(values)
	}
}
