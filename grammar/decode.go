package grammar

import (
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/internal/engine"
)

// FromValue decodes a grammar node from the generic value tree produced by
// sf.DecodeJSON or sf.DecodeYAML:
//
//   - a string is a Primitive name
//   - a list is a Union of its members
//   - an object is discriminated by its keys: "enums" (EnumType),
//     "array_type" (ArrayType), "fields"/"name" (ModelType), "type"
//     (AnnotatedType), "key_type"/"value_type" (DictType)
//
// Unknown object keys are ignored. Every structural problem is collected and
// returned together as a *StructuralError.
func FromValue(v any) (FieldType, error) {
	d := &decoder{}
	ft := d.node(v, sf.Root(), true)
	if len(d.iss) > 0 {
		return nil, &StructuralError{Issues: d.iss}
	}
	return ft, nil
}

// ModelFromValue is FromValue restricted to a top-level ModelType.
func ModelFromValue(v any) (*ModelType, error) {
	obj, ok := v.(*sf.Object)
	if !ok {
		return nil, structural(sf.Root().Issue(sf.CodeInvalidType, "expected", "object"))
	}
	d := &decoder{}
	m := d.model(obj, sf.Root())
	if len(d.iss) > 0 {
		return nil, &StructuralError{Issues: d.iss}
	}
	return m, nil
}

// ParseJSON decodes a JSON grammar document into a FieldType.
func ParseJSON(data []byte) (FieldType, error) {
	v, err := sf.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// ParseModelJSON decodes a JSON document describing a ModelType.
func ParseModelJSON(data []byte) (*ModelType, error) {
	v, err := sf.DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return ModelFromValue(v)
}

// ParseYAML decodes a YAML grammar document into a FieldType.
func ParseYAML(data []byte) (FieldType, error) {
	v, err := sf.DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return FromValue(v)
}

// UnmarshalJSON lets a ModelType be embedded in larger JSON payloads.
func (m *ModelType) UnmarshalJSON(data []byte) error {
	got, err := ParseModelJSON(data)
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

type decoder struct {
	iss sf.Issues
}

func (d *decoder) add(it sf.Issue) { d.iss = sf.AppendIssues(d.iss, it) }

func (d *decoder) node(v any, p sf.PathRef, allowUnion bool) FieldType {
	switch t := v.(type) {
	case string:
		prim := Primitive(t)
		if !prim.Known() {
			d.add(p.Issue(sf.CodeInvalidLiteral, "expected", "string, integer, decimal, boolean"))
			return nil
		}
		return prim
	case []any:
		if !allowUnion {
			d.add(sf.IssueAt(p, sf.CodeUnknownShape, "a union member cannot itself be a union", nil))
			return nil
		}
		if len(t) == 0 {
			d.add(p.Issue(sf.CodeEmpty))
			return nil
		}
		u := make(Union, 0, len(t))
		for i, e := range t {
			if m := d.node(e, p.Index(i), false); m != nil {
				u = append(u, m)
			}
		}
		return u
	case *sf.Object:
		return d.object(t, p)
	default:
		d.add(p.Issue(sf.CodeInvalidType, "expected", "string, list or object"))
		return nil
	}
}

func (d *decoder) object(o *sf.Object, p sf.PathRef) FieldType {
	switch {
	case o.Has("enums"):
		return d.enum(o, p)
	case o.Has("array_type"):
		return d.array(o, p)
	case o.Has("fields") || o.Has("name"):
		if m := d.model(o, p); m != nil {
			return m
		}
		return nil
	case o.Has("type"):
		if a := d.annotated(o, p); a != nil {
			return a
		}
		return nil
	case o.Has("key_type") || o.Has("value_type"):
		return d.dict(o, p)
	default:
		d.add(p.Issue(sf.CodeUnknownShape))
		return nil
	}
}

func (d *decoder) enum(o *sf.Object, p sf.PathRef) FieldType {
	raw, _ := o.Get("enums")
	ep := p.Field("enums")
	list, ok := raw.([]any)
	if !ok {
		d.add(ep.Issue(sf.CodeInvalidType, "expected", "list"))
		return nil
	}
	if len(list) == 0 {
		d.add(ep.Issue(sf.CodeEmpty))
		return nil
	}
	vals := make([]any, 0, len(list))
	for i, e := range list {
		lit, ok := literal(e)
		if !ok {
			d.add(ep.Index(i).Issue(sf.CodeInvalidType, "expected", "string, integer, decimal or boolean"))
			continue
		}
		vals = append(vals, lit)
	}
	return &EnumType{Enums: vals}
}

func (d *decoder) array(o *sf.Object, p sf.PathRef) FieldType {
	raw, _ := o.Get("array_type")
	kind, _ := raw.(string)
	if kind != string(List) && kind != string(Set) {
		d.add(p.Field("array_type").Issue(sf.CodeInvalidLiteral, "expected", "list, set"))
		return nil
	}
	at := &ArrayType{Kind: ArrayKind(kind)}
	if it, ok := o.Get("item_type"); ok && it != nil {
		at.Item = d.node(it, p.Field("item_type"), true)
	}
	return at
}

func (d *decoder) dict(o *sf.Object, p sf.PathRef) FieldType {
	dt := &DictType{}
	if k, ok := o.Get("key_type"); ok && k != nil {
		dt.Key = d.node(k, p.Field("key_type"), true)
	}
	if v, ok := o.Get("value_type"); ok && v != nil {
		dt.Value = d.node(v, p.Field("value_type"), true)
	}
	return dt
}

func (d *decoder) model(o *sf.Object, p sf.PathRef) *ModelType {
	m := &ModelType{}
	before := len(d.iss)
	if n, ok := o.Get("name"); !ok {
		d.add(p.Field("name").Issue(sf.CodeRequired))
	} else if s, ok := n.(string); !ok {
		d.add(p.Field("name").Issue(sf.CodeInvalidType, "expected", "string"))
	} else if s == "" {
		d.add(p.Field("name").Issue(sf.CodeEmpty))
	} else {
		m.Name = s
	}
	fp := p.Field("fields")
	raw, ok := o.Get("fields")
	switch fields := raw.(type) {
	case *sf.Object:
		if fields.Len() == 0 {
			d.add(fp.Issue(sf.CodeEmpty))
		}
		for _, name := range fields.Keys() {
			v, _ := fields.Get(name)
			ft := d.node(v, fp.Field(name), true)
			m.Fields = append(m.Fields, Field{Name: name, Type: ft})
		}
	default:
		if !ok {
			d.add(fp.Issue(sf.CodeRequired))
		} else {
			d.add(fp.Issue(sf.CodeInvalidType, "expected", "object"))
		}
	}
	if len(d.iss) > before {
		return nil
	}
	return m
}

func (d *decoder) annotated(o *sf.Object, p sf.PathRef) *AnnotatedType {
	before := len(d.iss)
	a := &AnnotatedType{}
	if t, _ := o.Get("type"); t == nil {
		d.add(p.Field("type").Issue(sf.CodeRequired))
	} else {
		a.Type = d.node(t, p.Field("type"), true)
	}
	if v, ok := present(o, "optional"); ok {
		a.Optional = d.boolAttr(v, p.Field("optional"))
	}
	if v, ok := o.Get("default"); ok {
		a.HasDefault = true
		a.Default = normalizeTree(v)
	}
	if v, ok := present(o, "description"); ok {
		if s, ok := v.(string); ok {
			a.Description = &s
		} else {
			d.add(p.Field("description").Issue(sf.CodeInvalidType, "expected", "string"))
		}
	}
	if v, ok := present(o, "examples"); ok {
		if list, ok := v.([]any); ok {
			a.Examples = make([]any, len(list))
			for i, e := range list {
				a.Examples[i] = normalizeTree(e)
			}
		} else {
			d.add(p.Field("examples").Issue(sf.CodeInvalidType, "expected", "list"))
		}
	}
	a.Gt = d.numberAttr(o, "gt", p)
	a.Ge = d.numberAttr(o, "ge", p)
	a.Lt = d.numberAttr(o, "lt", p)
	a.Le = d.numberAttr(o, "le", p)
	a.MultipleOf = d.numberAttr(o, "multiple_of", p)
	if v, ok := present(o, "allow_inf_nan"); ok {
		a.AllowInfNaN = d.boolAttr(v, p.Field("allow_inf_nan"))
	}
	a.MaxDigits = d.countAttr(o, "max_digits", p)
	a.DecimalPlaces = d.countAttr(o, "decimal_places", p)
	if v, ok := present(o, "pattern"); ok {
		pp := p.Field("pattern")
		if s, ok := v.(string); !ok {
			d.add(pp.Issue(sf.CodeInvalidType, "expected", "string"))
		} else if re, err := regexp.Compile(s); err != nil {
			d.add(pp.Issue(sf.CodeInvalidRegexp, "error", err.Error()))
		} else {
			a.Pattern = re
		}
	}
	a.MinLength = d.countAttr(o, "min_length", p)
	a.MaxLength = d.countAttr(o, "max_length", p)
	if len(d.iss) > before {
		return nil
	}
	return a
}

func (d *decoder) boolAttr(v any, p sf.PathRef) *bool {
	b, ok := v.(bool)
	if !ok {
		d.add(p.Issue(sf.CodeInvalidType, "expected", "boolean"))
		return nil
	}
	return &b
}

func (d *decoder) numberAttr(o *sf.Object, key string, p sf.PathRef) *decimal.Decimal {
	v, ok := present(o, key)
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		d.add(p.Field(key).Issue(sf.CodeInvalidType, "expected", "number"))
		return nil
	}
	dec, err := decimal.NewFromString(string(n))
	if err != nil {
		d.add(p.Field(key).Issue(sf.CodeInvalidType, "expected", "number"))
		return nil
	}
	if !engine.InRange(dec) {
		d.add(p.Field(key).Issue(sf.CodeOverflow, "max_exponent", engine.MaxExponent))
		return nil
	}
	return &dec
}

func (d *decoder) countAttr(o *sf.Object, key string, p sf.PathRef) *int {
	v, ok := present(o, key)
	if !ok {
		return nil
	}
	n, ok := v.(json.Number)
	if !ok {
		d.add(p.Field(key).Issue(sf.CodeInvalidType, "expected", "integer"))
		return nil
	}
	i, err := strconv.Atoi(string(n))
	if err != nil {
		d.add(p.Field(key).Issue(sf.CodeInvalidType, "expected", "integer"))
		return nil
	}
	if i < 0 {
		d.add(p.Field(key).Issue(sf.CodeNegative))
		return nil
	}
	return &i
}

// present returns a key's value when it exists and is not null. A null
// attribute is equivalent to leaving it unset.
func present(o *sf.Object, key string) (any, bool) {
	v, ok := o.Get(key)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// literal converts a decoded scalar into an enum literal.
func literal(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool:
		return t, true
	case json.Number:
		return normalizeNumber(string(t))
	}
	return nil, false
}

// normalizeTree rewrites json.Number leaves as int64 or decimal.Decimal.
func normalizeTree(v any) any {
	switch t := v.(type) {
	case json.Number:
		if n, ok := normalizeNumber(string(t)); ok {
			return n
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeTree(e)
		}
		return out
	case *sf.Object:
		out := sf.NewObject(t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, normalizeTree(e))
		}
		return out
	}
	return v
}
