// Package parser recovers a typed parameter schema from the comment
// annotation dialect embedded in OpenSCAD-style model source. It is a
// line-oriented recognizer, not an expression parser: only literal
// assignments are inspected, everything else passes through untouched.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-customizer/pkg/scad"
)

var (
	// A comment line whose entire text is a bracketed label opens a group.
	// Both `// [Label]` and `/* [Label] */` forms are recognized.
	groupHeaderPattern = regexp.MustCompile(`^\s*(?://|/\*)\s*\[([^\[\]]+)\]\s*(?:\*/)?\s*$`)
	declarationPattern = regexp.MustCompile(`^\s*([A-Za-z_$][A-Za-z0-9_]*)\s*=\s*(.+?)\s*;\s*(?://(.*))?$`)
	lineCommentPattern = regexp.MustCompile(`^\s*//\s?(.*?)\s*$`)
	annotationPattern  = regexp.MustCompile(`\[([^\[\]]*)\]`)
	integerPattern     = regexp.MustCompile(`^[+-]?\d+$`)
	numberPattern      = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// Parse scans the source text and produces the ordered group/descriptor
// schema. It never fails: lines it cannot interpret degrade to warnings and
// the surrounding model code is ignored.
func Parse(source []byte) *scad.Schema {
	p := &state{
		schema:    &scad.Schema{},
		index:     make(map[string]int),
		groupSeen: make(map[string]bool),
	}

	for i, raw := range strings.Split(string(source), "\n") {
		p.line(i+1, strings.TrimRight(raw, "\r"))
	}
	return p.schema
}

type state struct {
	schema       *scad.Schema
	index        map[string]int
	groupSeen    map[string]bool
	currentGroup string
	pendingDesc  string
}

func (p *state) line(lineNo int, line string) {
	if m := groupHeaderPattern.FindStringSubmatch(line); m != nil {
		label := strings.TrimSpace(m[1])
		p.currentGroup = label
		if !p.groupSeen[label] {
			p.groupSeen[label] = true
			p.schema.Groups = append(p.schema.Groups, scad.Group{
				Name:   label,
				Hidden: label == scad.HiddenGroup,
			})
		}
		p.pendingDesc = ""
		return
	}

	if m := declarationPattern.FindStringSubmatch(line); m != nil {
		p.declaration(lineNo, m[1], m[2], m[3])
		p.pendingDesc = ""
		return
	}

	if m := lineCommentPattern.FindStringSubmatch(line); m != nil {
		// A plain comment directly above a declaration becomes its
		// description; anything else in between clears it.
		p.pendingDesc = strings.TrimSpace(m[1])
		return
	}

	p.pendingDesc = ""
}

func (p *state) declaration(lineNo int, name, rawLiteral, trailing string) {
	value, kind, ok := parseLiteral(rawLiteral)
	if !ok {
		p.warnf(lineNo, "unrecognized literal %q for %q; variable is not customizable", strings.TrimSpace(rawLiteral), name)
		return
	}

	d := scad.Descriptor{
		Name:        name,
		Kind:        kind,
		Default:     value,
		Group:       p.currentGroup,
		Description: p.pendingDesc,
		Hidden:      p.currentGroup == scad.HiddenGroup,
		Constraint:  scad.Constraint{Kind: scad.ConstraintNone},
		Line:        lineNo,
	}
	p.applyAnnotation(&d, trailing, lineNo)

	if p.currentGroup == "" && !p.groupSeen[""] {
		p.groupSeen[""] = true
		p.schema.Groups = append(p.schema.Groups, scad.Group{Name: ""})
	}

	if prev, dup := p.index[name]; dup {
		p.warnf(lineNo, "duplicate parameter %q overrides declaration at line %d", name, p.schema.Parameters[prev].Line)
		p.schema.Parameters = append(p.schema.Parameters[:prev], p.schema.Parameters[prev+1:]...)
		p.reindex()
	}
	p.index[name] = len(p.schema.Parameters)
	p.schema.Parameters = append(p.schema.Parameters, d)
}

func (p *state) reindex() {
	for k := range p.index {
		delete(p.index, k)
	}
	for i, d := range p.schema.Parameters {
		p.index[d.Name] = i
	}
}

func (p *state) applyAnnotation(d *scad.Descriptor, trailing string, lineNo int) {
	m := annotationPattern.FindStringSubmatch(trailing)
	if m == nil {
		return
	}
	content := strings.TrimSpace(m[1])
	if content == "" {
		return
	}

	if min, step, max, ok := parseRange(content); ok {
		p.applyRange(d, min, step, max, lineNo)
		return
	}
	p.applyEnum(d, content, lineNo)
}

// parseRange accepts `min:max` and `min:step:max` triples where every part
// is numeric. Anything else falls through to enumeration handling.
func parseRange(content string) (min, step, max float64, ok bool) {
	parts := strings.Split(content, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, false
	}
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if !numberPattern.MatchString(text) {
			return 0, 0, 0, false
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		values = append(values, v)
	}
	if len(values) == 2 {
		return values[0], 1, values[1], true
	}
	return values[0], values[1], values[2], true
}

func (p *state) applyRange(d *scad.Descriptor, min, step, max float64, lineNo int) {
	switch d.Kind {
	case scad.KindInteger, scad.KindNumber, scad.KindVector:
	default:
		p.warnf(lineNo, "range annotation on %s parameter %q ignored", d.Kind, d.Name)
		return
	}
	if step <= 0 {
		p.warnf(lineNo, "range for %q has non-positive step; treating value as free numeric", d.Name)
		return
	}
	if min > max {
		p.warnf(lineNo, "range for %q is empty (min %v > max %v); ignored", d.Name, min, max)
		return
	}

	d.Constraint = scad.Constraint{Kind: scad.ConstraintRange, Min: min, Step: step, Max: max}
	p.clampDefault(d, min, max, lineNo)
}

// clampDefault forces the declared default into the range so the schema
// invariant (default satisfies constraint) holds, mirroring what the
// upstream customizer UI does with out-of-range sliders.
func (p *state) clampDefault(d *scad.Descriptor, min, max float64, lineNo int) {
	clamp := func(v float64) float64 {
		if v < min {
			return min
		}
		if v > max {
			return max
		}
		return v
	}
	switch v := d.Default.(type) {
	case int:
		if clamped := clamp(float64(v)); clamped != float64(v) {
			p.warnf(lineNo, "default %d for %q outside range; clamped to %v", v, d.Name, clamped)
			d.Default = int(clamped)
		}
	case float64:
		if clamped := clamp(v); clamped != v {
			p.warnf(lineNo, "default %v for %q outside range; clamped to %v", v, d.Name, clamped)
			d.Default = clamped
		}
	case []float64:
		out := append([]float64(nil), v...)
		changed := false
		for i, elem := range out {
			if clamped := clamp(elem); clamped != elem {
				out[i] = clamped
				changed = true
			}
		}
		if changed {
			p.warnf(lineNo, "default vector for %q outside range; elements clamped", d.Name)
			d.Default = out
		}
	}
}

func (p *state) applyEnum(d *scad.Descriptor, content string, lineNo int) {
	switch d.Kind {
	case scad.KindString, scad.KindInteger, scad.KindNumber:
	default:
		p.warnf(lineNo, "enumeration annotation on %s parameter %q ignored", d.Kind, d.Name)
		return
	}

	tokens := strings.Split(content, ",")
	options := make([]scad.EnumOption, 0, len(tokens))
	for _, token := range tokens {
		text := strings.TrimSpace(token)
		if text == "" {
			p.warnf(lineNo, "enumeration for %q contains an empty option; ignored", d.Name)
			return
		}
		valueText, label := text, text
		if idx := strings.Index(text, ":"); idx >= 0 {
			valueText = strings.TrimSpace(text[:idx])
			label = strings.TrimSpace(text[idx+1:])
			if label == "" {
				label = valueText
			}
		}

		var value any
		switch d.Kind {
		case scad.KindString:
			value = valueText
		case scad.KindInteger:
			n, err := strconv.Atoi(valueText)
			if err != nil {
				p.warnf(lineNo, "enumeration option %q for integer parameter %q is not numeric; ignored", valueText, d.Name)
				return
			}
			value = n
		case scad.KindNumber:
			f, err := strconv.ParseFloat(valueText, 64)
			if err != nil {
				p.warnf(lineNo, "enumeration option %q for numeric parameter %q is not numeric; ignored", valueText, d.Name)
				return
			}
			value = f
		}
		options = append(options, scad.EnumOption{Value: value, Label: label})
	}

	candidate := scad.Descriptor{
		Kind:       d.Kind,
		Constraint: scad.Constraint{Kind: scad.ConstraintEnum, Options: options},
	}
	if err := candidate.Validate(d.Default); err != nil {
		p.warnf(lineNo, "default for %q is not among its enumeration options; constraint dropped", d.Name)
		return
	}
	d.Constraint = candidate.Constraint
}

func (p *state) warnf(lineNo int, format string, args ...any) {
	p.schema.Warnings = append(p.schema.Warnings, scad.Warning{
		Line:    lineNo,
		Message: fmt.Sprintf(format, args...),
	})
}

func parseLiteral(raw string) (any, scad.ParameterKind, bool) {
	text := strings.TrimSpace(raw)
	switch text {
	case "true":
		return true, scad.KindBoolean, true
	case "false":
		return false, scad.KindBoolean, true
	}

	if integerPattern.MatchString(text) {
		if n, err := strconv.Atoi(text); err == nil {
			return n, scad.KindInteger, true
		}
	}
	if numberPattern.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, scad.KindNumber, true
		}
	}
	if strings.HasPrefix(text, `"`) {
		if s, ok := unquote(text); ok {
			return s, scad.KindString, true
		}
		return nil, "", false
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		if v, ok := parseVector(text[1 : len(text)-1]); ok {
			return v, scad.KindVector, true
		}
	}
	return nil, "", false
}

func parseVector(content string) ([]float64, bool) {
	parts := strings.Split(content, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		text := strings.TrimSpace(part)
		if !numberPattern.MatchString(text) {
			return nil, false
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// unquote decodes a double-quoted literal with the escape set the model
// source language supports. The closing quote must end the text.
func unquote(text string) (string, bool) {
	if len(text) < 2 || text[0] != '"' {
		return "", false
	}
	var b strings.Builder
	i := 1
	for i < len(text) {
		c := text[i]
		switch c {
		case '"':
			if i != len(text)-1 {
				return "", false
			}
			return b.String(), true
		case '\\':
			if i+1 >= len(text) {
				return "", false
			}
			i++
			switch text[i] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				return "", false
			}
		default:
			b.WriteByte(c)
		}
		i++
	}
	return "", false
}
