package html

import (
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-customizer/pkg/compile"
	"github.com/goliatone/go-customizer/pkg/render"
	"github.com/goliatone/go-customizer/pkg/scad"
)

// Control names map one-to-one onto parameter templates.
const (
	controlCheckbox = "checkbox"
	controlSelect   = "select"
	controlSlider   = "slider"
	controlNumber   = "number"
	controlText     = "text"
	controlVector   = "vector"
)

type formView struct {
	Title      string
	Groups     []groupView
	FormErrors []string
	CSSVars    map[string]string
	Stylesheet string
}

type groupView struct {
	Name       string
	Label      string
	Parameters []parameterView
}

type parameterView struct {
	Name        string
	Label       string
	Control     string
	Description string // sanitized, safe to emit as markup
	Display     string
	Checked     bool
	Min         string
	Max         string
	Step        string
	Options     []optionView
	Errors      []string
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

// buildView flattens schema plus per-request options into the template
// context. Hidden parameters stay out unless the options ask for them.
func buildView(schema *scad.Schema, options render.RenderOptions, sanitizer *bluemonday.Policy) formView {
	view := formView{
		Title:      options.Title,
		FormErrors: options.Errors[""],
	}
	if options.Theme != nil {
		view.CSSVars = options.Theme.CSSVars
		if options.Theme.AssetURL != nil {
			view.Stylesheet = options.Theme.AssetURL(StylesheetName)
		}
	}

	for _, group := range selectGroups(schema, options) {
		gv := groupView{
			Name:  group.Name,
			Label: options.Localize(render.GroupKey(group.Name), group.Name),
		}
		for _, desc := range schema.GroupParameters(group.Name) {
			if desc.Hidden && !options.ShowHidden {
				continue
			}
			gv.Parameters = append(gv.Parameters, buildParameter(desc, options, sanitizer))
		}
		if len(gv.Parameters) > 0 {
			view.Groups = append(view.Groups, gv)
		}
	}
	return view
}

func selectGroups(schema *scad.Schema, options render.RenderOptions) []scad.Group {
	if len(options.Groups) == 0 {
		out := make([]scad.Group, 0, len(schema.Groups))
		for _, group := range schema.Groups {
			if group.Hidden && !options.ShowHidden {
				continue
			}
			out = append(out, group)
		}
		return out
	}

	var out []scad.Group
	for _, name := range options.Groups {
		for _, group := range schema.Groups {
			if group.Name == name {
				out = append(out, group)
				break
			}
		}
	}
	return out
}

func buildParameter(desc scad.Descriptor, options render.RenderOptions, sanitizer *bluemonday.Policy) parameterView {
	value := desc.Default
	if override, ok := options.Values[desc.Name]; ok {
		value = override
	}

	pv := parameterView{
		Name:        desc.Name,
		Label:       options.Localize(render.LabelKey(desc.Name), labelFor(desc.Name)),
		Control:     controlFor(desc),
		Description: sanitizer.Sanitize(options.Localize(render.DescriptionKey(desc.Name), desc.Description)),
		Display:     displayValue(value),
		Errors:      options.Errors[desc.Name],
	}

	switch desc.Constraint.Kind {
	case scad.ConstraintRange:
		pv.Min = formatNumber(desc.Constraint.Min)
		pv.Max = formatNumber(desc.Constraint.Max)
		pv.Step = formatNumber(desc.Constraint.Step)
	case scad.ConstraintEnum:
		for _, opt := range desc.Constraint.Options {
			value := displayValue(opt.Value)
			pv.Options = append(pv.Options, optionView{
				Value:    value,
				Label:    options.Localize(render.OptionKey(desc.Name, value), opt.Label),
				Selected: value == pv.Display,
			})
		}
	}

	if desc.Kind == scad.KindBoolean {
		checked, _ := value.(bool)
		pv.Checked = checked
	}
	return pv
}

func controlFor(desc scad.Descriptor) string {
	switch desc.Constraint.Kind {
	case scad.ConstraintEnum:
		return controlSelect
	case scad.ConstraintRange:
		if desc.Kind == scad.KindInteger || desc.Kind == scad.KindNumber {
			return controlSlider
		}
	}
	switch desc.Kind {
	case scad.KindBoolean:
		return controlCheckbox
	case scad.KindInteger, scad.KindNumber:
		return controlNumber
	case scad.KindVector:
		return controlVector
	default:
		return controlText
	}
}

// displayValue renders a canonical value the way an input expects it:
// numbers plain, vectors as comma-separated elements, strings verbatim.
func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatNumber(v)
	case string:
		return v
	case []float64:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = formatNumber(elem)
		}
		return strings.Join(parts, ", ")
	default:
		return compile.FormatValue(value)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func labelFor(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	label = strings.TrimSpace(label)
	if label == "" {
		return name
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
