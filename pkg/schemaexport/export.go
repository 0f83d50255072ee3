// Package schemaexport publishes a parameter schema in interchange formats
// so external tooling can introspect a model without parsing annotations
// itself.
package schemaexport

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-customizer/pkg/scad"
)

// extensionKey namespaces customizer metadata on exported properties.
const extensionKey = "x-customizer"

// Info labels the exported document.
type Info struct {
	Title       string
	Version     string
	Description string
}

// JSON marshals the schema itself: groups, parameters and parse warnings.
func JSON(schema *scad.Schema) ([]byte, error) {
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schemaexport: marshal schema: %w", err)
	}
	return out, nil
}

// OpenAPI builds an OpenAPI 3 document whose Parameters component schema
// mirrors the customizer schema: one property per parameter carrying its
// type, default, constraint and customizer metadata.
func OpenAPI(schema *scad.Schema, info Info) (*openapi3.T, error) {
	if schema == nil {
		return nil, fmt.Errorf("schemaexport: schema is required")
	}
	if info.Title == "" {
		info.Title = "Customizer Parameters"
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}

	properties := make(openapi3.Schemas, len(schema.Parameters))
	for _, desc := range schema.Parameters {
		property, err := propertySchema(desc)
		if err != nil {
			return nil, err
		}
		properties[desc.Name] = openapi3.NewSchemaRef("", property)
	}

	component := &openapi3.Schema{
		Type:       &openapi3.Types{openapi3.TypeObject},
		Properties: properties,
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Version:     info.Version,
			Description: info.Description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Parameters": openapi3.NewSchemaRef("", component),
			},
		},
	}
	return doc, nil
}

func propertySchema(desc scad.Descriptor) (*openapi3.Schema, error) {
	property := &openapi3.Schema{
		Description: desc.Description,
		Default:     desc.Default,
	}

	switch desc.Kind {
	case scad.KindBoolean:
		property.Type = &openapi3.Types{openapi3.TypeBoolean}
	case scad.KindInteger:
		property.Type = &openapi3.Types{openapi3.TypeInteger}
	case scad.KindNumber:
		property.Type = &openapi3.Types{openapi3.TypeNumber}
	case scad.KindString:
		property.Type = &openapi3.Types{openapi3.TypeString}
	case scad.KindVector:
		property.Type = &openapi3.Types{openapi3.TypeArray}
		property.Items = openapi3.NewSchemaRef("", &openapi3.Schema{
			Type: &openapi3.Types{openapi3.TypeNumber},
		})
	default:
		return nil, fmt.Errorf("schemaexport: parameter %q has unknown kind %s", desc.Name, desc.Kind)
	}

	extension := map[string]any{
		"group": desc.Group,
	}
	if desc.Hidden {
		extension["hidden"] = true
	}

	switch desc.Constraint.Kind {
	case scad.ConstraintRange:
		min, max := desc.Constraint.Min, desc.Constraint.Max
		if desc.Kind == scad.KindVector {
			// Range bounds apply per element.
			property.Items.Value.Min = &min
			property.Items.Value.Max = &max
		} else {
			property.Min = &min
			property.Max = &max
		}
		extension["step"] = desc.Constraint.Step
	case scad.ConstraintEnum:
		labels := make(map[string]string, len(desc.Constraint.Options))
		for _, opt := range desc.Constraint.Options {
			property.Enum = append(property.Enum, opt.Value)
			labels[fmt.Sprint(opt.Value)] = opt.Label
		}
		extension["labels"] = labels
	}

	property.Extensions = map[string]any{extensionKey: extension}
	return property, nil
}
