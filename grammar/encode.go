package grammar

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
)

// ToValue renders ft back into the wire form accepted by FromValue. Only
// attributes that were explicitly set are emitted, so decoding and
// re-encoding a document reproduces its keys.
func ToValue(ft FieldType) any {
	switch t := ft.(type) {
	case nil:
		return nil
	case Primitive:
		return string(t)
	case Union:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = ToValue(m)
		}
		return out
	case *EnumType:
		o := sf.NewObject(1)
		vals := make([]any, len(t.Enums))
		for i, v := range t.Enums {
			vals[i] = wireValue(v)
		}
		o.Set("enums", vals)
		return o
	case *ArrayType:
		o := sf.NewObject(2)
		o.Set("array_type", string(t.Kind))
		if t.Item != nil {
			o.Set("item_type", ToValue(t.Item))
		}
		return o
	case *DictType:
		o := sf.NewObject(2)
		if t.Key != nil || t.Value == nil {
			o.Set("key_type", ToValue(t.Key))
		}
		if t.Value != nil {
			o.Set("value_type", ToValue(t.Value))
		}
		return o
	case *ModelType:
		o := sf.NewObject(2)
		o.Set("name", t.Name)
		fields := sf.NewObject(len(t.Fields))
		for _, f := range t.Fields {
			fields.Set(f.Name, ToValue(f.Type))
		}
		o.Set("fields", fields)
		return o
	case *AnnotatedType:
		return annotatedValue(t)
	default:
		panic(fmt.Sprintf("grammar: unknown field type %T", ft))
	}
}

func annotatedValue(a *AnnotatedType) *sf.Object {
	o := sf.NewObject(4)
	o.Set("type", ToValue(a.Type))
	if a.Optional != nil {
		o.Set("optional", *a.Optional)
	}
	if a.HasDefault {
		o.Set("default", wireValue(a.Default))
	}
	if a.Description != nil {
		o.Set("description", *a.Description)
	}
	if a.Examples != nil {
		ex := make([]any, len(a.Examples))
		for i, e := range a.Examples {
			ex[i] = wireValue(e)
		}
		o.Set("examples", ex)
	}
	setNumber(o, "gt", a.Gt)
	setNumber(o, "ge", a.Ge)
	setNumber(o, "lt", a.Lt)
	setNumber(o, "le", a.Le)
	setNumber(o, "multiple_of", a.MultipleOf)
	if a.AllowInfNaN != nil {
		o.Set("allow_inf_nan", *a.AllowInfNaN)
	}
	setCount(o, "max_digits", a.MaxDigits)
	setCount(o, "decimal_places", a.DecimalPlaces)
	if a.Pattern != nil {
		o.Set("pattern", a.Pattern.String())
	}
	setCount(o, "min_length", a.MinLength)
	setCount(o, "max_length", a.MaxLength)
	return o
}

func setNumber(o *sf.Object, key string, d *decimal.Decimal) {
	if d != nil {
		o.Set(key, json.Number(d.String()))
	}
}

func setCount(o *sf.Object, key string, n *int) {
	if n != nil {
		o.Set(key, int64(*n))
	}
}

// wireValue turns decimals into bare JSON numbers; decimal.Decimal would
// otherwise marshal as a quoted string.
func wireValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return json.Number(t.String())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = wireValue(e)
		}
		return out
	case *sf.Object:
		out := sf.NewObject(t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			out.Set(k, wireValue(e))
		}
		return out
	}
	return v
}

// Marshal renders ft as compact JSON in wire form.
func Marshal(ft FieldType) ([]byte, error) { return sf.MarshalValue(ToValue(ft)) }

// MarshalJSON renders the model in wire form.
func (m *ModelType) MarshalJSON() ([]byte, error) { return sf.MarshalValue(ToValue(m)) }
