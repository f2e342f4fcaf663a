package compiler

import (
	"context"
	"errors"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/grammar"
	js "github.com/reoring/schemaforge/jsonschema"
)

// ModelTypeTarget returns the fixed "a schema" target: values validate into
// a *grammar.ModelType that also compiles. It is what a generative model is
// asked to produce when it should design a schema rather than fill one.
func ModelTypeTarget() *descriptor.Descriptor {
	return &descriptor.Descriptor{Kind: descriptor.External, Name: "ModelType", Ext: modelTypeValidator{}}
}

type modelTypeValidator struct{}

func (modelTypeValidator) Validate(_ context.Context, v any) (any, error) {
	m, err := grammar.ModelFromValue(v)
	if err != nil {
		return nil, err
	}
	if _, err := Compile(m); err != nil {
		var ce *ConstructionError
		if errors.As(err, &ce) {
			return nil, sf.AppendIssues(nil, ce.Issue())
		}
		return nil, err
	}
	return m, nil
}

func (modelTypeValidator) JSONSchema() *js.Schema { return metaSchema() }

func ref(name string) *js.Schema { return &js.Schema{Ref: "#/$defs/" + name} }

func nullableRef(name string) *js.Schema {
	return &js.Schema{AnyOf: []*js.Schema{ref(name), {Type: "null"}}}
}

func metaSchema() *js.Schema {
	one := 1
	count := func(desc string) *js.Schema {
		return &js.Schema{Type: "integer", Minimum: "0", Description: desc}
	}
	number := func(desc string) *js.Schema { return &js.Schema{Type: "number", Description: desc} }

	defs := map[string]*js.Schema{
		"FieldType": {
			Description: "A single type, or a non-empty list of types meaning any of them.",
			AnyOf: []*js.Schema{
				ref("SingularType"),
				{Type: "array", MinItems: &one, Items: ref("SingularType")},
			},
		},
		"SingularType": {
			AnyOf: []*js.Schema{
				ref("AnnotatedType"),
				ref("ArrayType"),
				ref("DictType"),
				ref("EnumType"),
				ref("ModelType"),
				ref("PrimitiveType"),
			},
		},
		"PrimitiveType": {Enum: []any{"string", "integer", "decimal", "boolean"}},
		"EnumType": {
			Title: "EnumType",
			Type:  "object",
			Properties: js.Properties{
				{Name: "enums", Schema: &js.Schema{
					Type:     "array",
					MinItems: &one,
					Items: &js.Schema{AnyOf: []*js.Schema{
						{Type: "string"}, {Type: "integer"}, {Type: "number"}, {Type: "boolean"},
					}},
				}},
			},
			Required: []string{"enums"},
		},
		"ArrayType": {
			Title: "ArrayType",
			Type:  "object",
			Properties: js.Properties{
				{Name: "array_type", Schema: &js.Schema{Enum: []any{"list", "set"}}},
				{Name: "item_type", Schema: nullableRef("FieldType")},
			},
			Required: []string{"array_type"},
		},
		"DictType": {
			Title: "DictType",
			Type:  "object",
			Properties: js.Properties{
				{Name: "key_type", Schema: nullableRef("FieldType")},
				{Name: "value_type", Schema: nullableRef("FieldType")},
			},
			Required: []string{"key_type", "value_type"},
		},
		"AnnotatedType": {
			Title: "AnnotatedType",
			Type:  "object",
			Properties: js.Properties{
				{Name: "type", Schema: ref("FieldType")},
				{Name: "optional", Schema: &js.Schema{Type: "boolean", Default: false}},
				{Name: "default", Schema: &js.Schema{Description: "Value used when the field is absent."}},
				{Name: "description", Schema: &js.Schema{Type: "string"}},
				{Name: "examples", Schema: &js.Schema{Type: "array"}},
				{Name: "gt", Schema: number("Exclusive lower bound.")},
				{Name: "ge", Schema: number("Inclusive lower bound.")},
				{Name: "lt", Schema: number("Exclusive upper bound.")},
				{Name: "le", Schema: number("Inclusive upper bound.")},
				{Name: "multiple_of", Schema: number("Value must be a multiple of this.")},
				{Name: "allow_inf_nan", Schema: &js.Schema{Type: "boolean"}},
				{Name: "max_digits", Schema: count("Maximum number of digits of a decimal.")},
				{Name: "decimal_places", Schema: count("Maximum number of decimal places.")},
				{Name: "pattern", Schema: &js.Schema{Type: "string", Format: "regex"}},
				{Name: "min_length", Schema: count("")},
				{Name: "max_length", Schema: count("")},
			},
			Required: []string{"type"},
		},
		"ModelType": {
			Title: "ModelType",
			Type:  "object",
			Properties: js.Properties{
				{Name: "name", Schema: &js.Schema{Type: "string", MinLength: &one}},
				{Name: "fields", Schema: &js.Schema{
					Type:                 "object",
					MinProperties:        &one,
					AdditionalProperties: ref("FieldType"),
					Description:          "Field names mapped to their types, in order.",
				}},
			},
			Required: []string{"name", "fields"},
		},
	}
	return &js.Schema{Ref: "#/$defs/ModelType", Defs: defs}
}
