package jsonschema

import (
	"bytes"

	j "github.com/goccy/go-json"
)

// Schema is a JSON Schema representation used to describe extraction targets
// to a model. Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Ref         string             `json:"$ref,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        string             `json:"type,omitempty"`
	Format      string             `json:"format,omitempty"`
	Default     any                `json:"default,omitempty"`
	Examples    []any              `json:"examples,omitempty"`
	Enum        []any              `json:"enum,omitempty"`

	// Object
	Properties           Properties `json:"properties,omitempty"`
	Required             []string   `json:"required,omitempty"`
	AdditionalProperties any        `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema    `json:"propertyNames,omitempty"`
	MinProperties        *int       `json:"minProperties,omitempty"`
	MaxProperties        *int       `json:"maxProperties,omitempty"`

	// Array
	Items       *Schema `json:"items,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum          Number `json:"minimum,omitempty"`
	ExclusiveMinimum Number `json:"exclusiveMinimum,omitempty"`
	Maximum          Number `json:"maximum,omitempty"`
	ExclusiveMaximum Number `json:"exclusiveMaximum,omitempty"`
	MultipleOf       Number `json:"multipleOf,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
}

// Number is a JSON number literal written verbatim.
type Number string

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("0"), nil
	}
	return []byte(n), nil
}

// Property is one named entry of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties keeps object properties in declaration order; it marshals as a
// JSON object.
type Properties []Property

// MarshalJSON emits properties as an object in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := j.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := j.Marshal(prop.Schema)
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Get returns the schema of the named property.
func (p Properties) Get(name string) (*Schema, bool) {
	for _, prop := range p {
		if prop.Name == name {
			return prop.Schema, true
		}
	}
	return nil, false
}

// Marshal renders s as indented JSON.
func Marshal(s *Schema) ([]byte, error) { return j.MarshalIndent(s, "", "  ") }
