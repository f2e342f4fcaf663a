package descriptor

import (
	"github.com/shopspring/decimal"

	js "github.com/reoring/schemaforge/jsonschema"
)

// JSONSchema projects the descriptor onto JSON Schema. It is how the target
// type is shown to a generative model.
func (d *Descriptor) JSONSchema() *js.Schema {
	if d == nil {
		return &js.Schema{}
	}
	s := d.baseSchema()
	if d.Description != nil {
		s.Description = *d.Description
	}
	if d.HasDefault {
		s.Default = jsonValue(d.Default)
	}
	if d.Examples != nil {
		s.Examples = jsonValue(d.Examples).([]any)
	}
	if d.Nullable {
		s = nullable(s)
	}
	return s
}

func (d *Descriptor) baseSchema() *js.Schema {
	c := d.Constraints
	switch d.Kind {
	case Any:
		return &js.Schema{}
	case String:
		return &js.Schema{Type: "string", MinLength: c.MinLength, MaxLength: c.MaxLength, Pattern: patternOf(d)}
	case Integer, Decimal:
		s := &js.Schema{Type: "integer"}
		if d.Kind == Decimal {
			s.Type = "number"
		}
		s.ExclusiveMinimum = num(c.Gt)
		s.Minimum = num(c.Ge)
		s.ExclusiveMaximum = num(c.Lt)
		s.Maximum = num(c.Le)
		s.MultipleOf = num(c.MultipleOf)
		return s
	case Boolean:
		return &js.Schema{Type: "boolean"}
	case Literal:
		enum := make([]any, len(d.Literals))
		for i, l := range d.Literals {
			enum[i] = jsonValue(l)
		}
		return &js.Schema{Enum: enum}
	case List, Set:
		s := &js.Schema{Type: "array", MinItems: c.MinLength, MaxItems: c.MaxLength, UniqueItems: d.Kind == Set}
		if d.Elem != nil {
			s.Items = d.Elem.JSONSchema()
		}
		return s
	case Map:
		s := &js.Schema{Type: "object", MinProperties: c.MinLength, MaxProperties: c.MaxLength}
		if d.Value != nil {
			s.AdditionalProperties = d.Value.JSONSchema()
		}
		if d.Key != nil && d.Key.Kind == String {
			s.PropertyNames = d.Key.JSONSchema()
		}
		return s
	case Model:
		s := &js.Schema{Title: d.Name, Type: "object"}
		for _, f := range d.Fields {
			s.Properties = append(s.Properties, js.Property{Name: f.Name, Schema: f.Type.JSONSchema()})
			if f.Required() {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s
	case Union:
		s := &js.Schema{}
		for _, m := range d.Members {
			s.AnyOf = append(s.AnyOf, m.JSONSchema())
		}
		return s
	case External:
		cp := *d.Ext.JSONSchema()
		return &cp
	default:
		panic("descriptor: unknown kind " + d.Kind.String())
	}
}

// nullable adds null to the accepted types, flattening into an existing anyOf.
func nullable(s *js.Schema) *js.Schema {
	null := &js.Schema{Type: "null"}
	if len(s.AnyOf) > 0 {
		s.AnyOf = append(s.AnyOf, null)
		return s
	}
	inner := *s
	inner.Description, inner.Default, inner.Examples = "", nil, nil
	return &js.Schema{
		AnyOf:       []*js.Schema{&inner, null},
		Description: s.Description,
		Default:     s.Default,
		Examples:    s.Examples,
	}
}

func num(d *decimal.Decimal) js.Number {
	if d == nil {
		return ""
	}
	return js.Number(d.String())
}

func patternOf(d *Descriptor) string {
	if d.Constraints.Pattern == nil {
		return ""
	}
	return d.Constraints.Pattern.String()
}
