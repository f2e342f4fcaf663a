package compiler

import (
	"fmt"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/grammar"
)

// Compile turns a grammar tree into a validating descriptor.
//
// The grammar is checked structurally first (grammar.Validate), so trees
// built by hand get the same *grammar.StructuralError the constructors
// return. Constraints that do not fit the type they annotate yield a
// *ConstructionError. Every call builds a fresh descriptor tree that shares
// nothing mutable with the grammar or with other calls.
//
// Compile panics on FieldType implementations it does not know; the grammar
// package defines the closed set.
func Compile(ft grammar.FieldType) (*descriptor.Descriptor, error) {
	if err := grammar.Validate(ft); err != nil {
		return nil, err
	}
	return compile(ft, sf.Root())
}

// MustCompile is Compile for grammars known to be valid.
func MustCompile(ft grammar.FieldType) *descriptor.Descriptor {
	d, err := Compile(ft)
	if err != nil {
		panic(err)
	}
	return d
}

func compile(ft grammar.FieldType, p sf.PathRef) (*descriptor.Descriptor, error) {
	switch t := ft.(type) {
	case grammar.Primitive:
		return primitive(t), nil
	case *grammar.EnumType:
		return &descriptor.Descriptor{Kind: descriptor.Literal, Literals: append([]any(nil), t.Enums...)}, nil
	case *grammar.ArrayType:
		d := &descriptor.Descriptor{Kind: descriptor.List}
		if t.Kind == grammar.Set {
			d.Kind = descriptor.Set
		}
		if t.Item != nil {
			elem, err := compile(t.Item, p.Field("item_type"))
			if err != nil {
				return nil, err
			}
			d.Elem = elem
		}
		return d, nil
	case *grammar.DictType:
		d := &descriptor.Descriptor{Kind: descriptor.Map}
		var err error
		if t.Key != nil {
			if d.Key, err = compile(t.Key, p.Field("key_type")); err != nil {
				return nil, err
			}
		}
		if t.Value != nil {
			if d.Value, err = compile(t.Value, p.Field("value_type")); err != nil {
				return nil, err
			}
		}
		return d, nil
	case grammar.Union:
		return union(t, p)
	case *grammar.ModelType:
		d := &descriptor.Descriptor{Kind: descriptor.Model, Name: t.Name, Fields: make([]descriptor.Field, 0, len(t.Fields))}
		for _, f := range t.Fields {
			fd, err := compile(f.Type, p.Field("fields").Field(f.Name))
			if err != nil {
				return nil, err
			}
			d.Fields = append(d.Fields, descriptor.Field{Name: f.Name, Type: fd})
		}
		return d, nil
	case *grammar.AnnotatedType:
		return annotated(t, p)
	default:
		panic(fmt.Sprintf("compiler: unknown grammar node %T", ft))
	}
}

func primitive(p grammar.Primitive) *descriptor.Descriptor {
	switch p {
	case grammar.String:
		return &descriptor.Descriptor{Kind: descriptor.String}
	case grammar.Integer:
		return &descriptor.Descriptor{Kind: descriptor.Integer}
	case grammar.Decimal:
		return &descriptor.Descriptor{Kind: descriptor.Decimal}
	case grammar.Boolean:
		return &descriptor.Descriptor{Kind: descriptor.Boolean}
	}
	panic(fmt.Sprintf("compiler: unknown primitive %q", string(p)))
}

// union folds the members into one flat any-of. A member that compiled to a
// union itself (an annotated union) contributes its members along with its
// default, description and examples. A nullable member makes the result
// nullable.
func union(u grammar.Union, p sf.PathRef) (*descriptor.Descriptor, error) {
	out := &descriptor.Descriptor{Kind: descriptor.Union}
	for i, m := range u {
		md, err := compile(m, p.Index(i))
		if err != nil {
			return nil, err
		}
		out.Nullable = out.Nullable || md.Nullable
		if md.Kind == descriptor.Union {
			out.Members = append(out.Members, md.Members...)
			inheritMetadata(out, md)
			continue
		}
		out.Members = append(out.Members, md)
	}
	if len(out.Members) == 1 {
		m := out.Members[0]
		m.Nullable = m.Nullable || out.Nullable
		inheritMetadata(m, out)
		return m, nil
	}
	return out, nil
}

// inheritMetadata copies whatever default, description and examples src has
// and dst lacks. The first member to carry one wins.
func inheritMetadata(dst, src *descriptor.Descriptor) {
	if src.HasDefault && !dst.HasDefault {
		dst.HasDefault = true
		dst.Default = src.Default
	}
	if src.Description != nil && dst.Description == nil {
		dst.Description = src.Description
	}
	if src.Examples != nil && dst.Examples == nil {
		dst.Examples = src.Examples
	}
}

func annotated(a *grammar.AnnotatedType, p sf.PathRef) (*descriptor.Descriptor, error) {
	d, err := compile(a.Type, p.Field("type"))
	if err != nil {
		return nil, err
	}
	if a.IsOptional() {
		d.Nullable = true
	}
	if a.HasDefault {
		d.HasDefault = true
		d.Default = descriptor.CloneValue(a.Default)
	}
	if a.Description != nil {
		s := *a.Description
		d.Description = &s
	}
	if a.Examples != nil {
		d.Examples = descriptor.CloneValue(append([]any{}, a.Examples...)).([]any)
	}
	if a.MultipleOf != nil && !a.MultipleOf.IsPositive() {
		return nil, &ConstructionError{Path: p.Field("multiple_of").Pointer(), Constraint: "multiple_of", Type: d.TypeName(), Reason: "must be greater than 0"}
	}
	for _, c := range constraintsOf(a) {
		if err := apply(d, c, p.Field(c.name)); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// constraint is one explicitly set attribute of an AnnotatedType.
type constraint struct {
	name  string
	set   func(*descriptor.Constraints)
	kinds []descriptor.Kind
}

var (
	lengthKinds  = []descriptor.Kind{descriptor.String, descriptor.List, descriptor.Set, descriptor.Map}
	numericKinds = []descriptor.Kind{descriptor.Integer, descriptor.Decimal}
	decimalKinds = []descriptor.Kind{descriptor.Decimal}
	stringKinds  = []descriptor.Kind{descriptor.String}
)

func decCopy(d *decimal.Decimal) *decimal.Decimal {
	c := *d
	return &c
}

func intCopy(n *int) *int {
	c := *n
	return &c
}

func constraintsOf(a *grammar.AnnotatedType) []constraint {
	var cs []constraint
	if a.Gt != nil {
		v := decCopy(a.Gt)
		cs = append(cs, constraint{"gt", func(c *descriptor.Constraints) { c.Gt = v }, numericKinds})
	}
	if a.Ge != nil {
		v := decCopy(a.Ge)
		cs = append(cs, constraint{"ge", func(c *descriptor.Constraints) { c.Ge = v }, numericKinds})
	}
	if a.Lt != nil {
		v := decCopy(a.Lt)
		cs = append(cs, constraint{"lt", func(c *descriptor.Constraints) { c.Lt = v }, numericKinds})
	}
	if a.Le != nil {
		v := decCopy(a.Le)
		cs = append(cs, constraint{"le", func(c *descriptor.Constraints) { c.Le = v }, numericKinds})
	}
	if a.MultipleOf != nil {
		v := decCopy(a.MultipleOf)
		cs = append(cs, constraint{"multiple_of", func(c *descriptor.Constraints) { c.MultipleOf = v }, numericKinds})
	}
	if a.AllowInfNaN != nil {
		v := *a.AllowInfNaN
		cs = append(cs, constraint{"allow_inf_nan", func(c *descriptor.Constraints) { c.AllowInfNaN = &v }, decimalKinds})
	}
	if a.MaxDigits != nil {
		v := intCopy(a.MaxDigits)
		cs = append(cs, constraint{"max_digits", func(c *descriptor.Constraints) { c.MaxDigits = v }, decimalKinds})
	}
	if a.DecimalPlaces != nil {
		v := intCopy(a.DecimalPlaces)
		cs = append(cs, constraint{"decimal_places", func(c *descriptor.Constraints) { c.DecimalPlaces = v }, decimalKinds})
	}
	if a.Pattern != nil {
		re := a.Pattern
		cs = append(cs, constraint{"pattern", func(c *descriptor.Constraints) { c.Pattern = re }, stringKinds})
	}
	if a.MinLength != nil {
		v := intCopy(a.MinLength)
		cs = append(cs, constraint{"min_length", func(c *descriptor.Constraints) { c.MinLength = v }, lengthKinds})
	}
	if a.MaxLength != nil {
		v := intCopy(a.MaxLength)
		cs = append(cs, constraint{"max_length", func(c *descriptor.Constraints) { c.MaxLength = v }, lengthKinds})
	}
	return cs
}

// apply attaches c to d, or to every member of a union that accepts it.
func apply(d *descriptor.Descriptor, c constraint, p sf.PathRef) error {
	if d.Kind == descriptor.Union {
		applied := false
		for _, m := range d.Members {
			if accepts(m.Kind, c.kinds) {
				c.set(&m.Constraints)
				applied = true
			}
		}
		if !applied {
			return &ConstructionError{Path: p.Pointer(), Constraint: c.name, Type: d.TypeName()}
		}
		return nil
	}
	if !accepts(d.Kind, c.kinds) {
		return &ConstructionError{Path: p.Pointer(), Constraint: c.name, Type: d.TypeName()}
	}
	c.set(&d.Constraints)
	return nil
}

func accepts(k descriptor.Kind, kinds []descriptor.Kind) bool {
	for _, x := range kinds {
		if k == x {
			return true
		}
	}
	return false
}
