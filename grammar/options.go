package grammar

import (
	"encoding/json"
	"regexp"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/internal/engine"
)

// Option sets one attribute of an AnnotatedType built by NewAnnotated.
type Option func(a *AnnotatedType) *optionError

type optionError struct {
	attr   string
	code   string
	params []any
}

// NewAnnotated wraps t with the given attributes. Attribute problems (bad
// regular expressions, negative lengths, non-numeric bounds) are collected and
// returned together as a *StructuralError.
func NewAnnotated(t FieldType, opts ...Option) (*AnnotatedType, error) {
	a := &AnnotatedType{Type: t}
	var iss sf.Issues
	if t == nil {
		iss = sf.AppendIssues(iss, sf.Root().Field("type").Issue(sf.CodeRequired))
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if oe := opt(a); oe != nil {
			iss = sf.AppendIssues(iss, sf.Root().Field(oe.attr).Issue(oe.code, oe.params...))
		}
	}
	if len(iss) > 0 {
		return nil, &StructuralError{Issues: iss}
	}
	return a, nil
}

// Optional marks the value as nullable and omittable.
func Optional() Option {
	return func(a *AnnotatedType) *optionError {
		b := true
		a.Optional = &b
		return nil
	}
}

// Required records optional=false explicitly.
func Required() Option {
	return func(a *AnnotatedType) *optionError {
		b := false
		a.Optional = &b
		return nil
	}
}

// Default sets the value used when the field is absent. nil is a valid default.
func Default(v any) Option {
	return func(a *AnnotatedType) *optionError {
		a.HasDefault = true
		a.Default = normalizeValue(v)
		return nil
	}
}

// Description attaches a human description.
func Description(s string) Option {
	return func(a *AnnotatedType) *optionError {
		a.Description = &s
		return nil
	}
}

// Examples attaches example values.
func Examples(vs ...any) Option {
	return func(a *AnnotatedType) *optionError {
		out := make([]any, 0, len(vs))
		for _, v := range vs {
			out = append(out, normalizeValue(v))
		}
		a.Examples = out
		return nil
	}
}

// Gt requires values strictly greater than n.
func Gt(n any) Option { return numberOpt("gt", n, func(a *AnnotatedType, d *decimal.Decimal) { a.Gt = d }) }

// Ge requires values greater than or equal to n.
func Ge(n any) Option { return numberOpt("ge", n, func(a *AnnotatedType, d *decimal.Decimal) { a.Ge = d }) }

// Lt requires values strictly less than n.
func Lt(n any) Option { return numberOpt("lt", n, func(a *AnnotatedType, d *decimal.Decimal) { a.Lt = d }) }

// Le requires values less than or equal to n.
func Le(n any) Option { return numberOpt("le", n, func(a *AnnotatedType, d *decimal.Decimal) { a.Le = d }) }

// MultipleOf requires values that are an exact multiple of n.
func MultipleOf(n any) Option { return numberOpt("multiple_of", n, func(a *AnnotatedType, d *decimal.Decimal) { a.MultipleOf = d }) }

func numberOpt(attr string, n any, set func(*AnnotatedType, *decimal.Decimal)) Option {
	return func(a *AnnotatedType) *optionError {
		d, ok := toDecimal(n)
		if !ok {
			return &optionError{attr: attr, code: sf.CodeInvalidType, params: []any{"expected", "number"}}
		}
		if !engine.InRange(d) {
			return &optionError{attr: attr, code: sf.CodeOverflow, params: []any{"max_exponent", engine.MaxExponent}}
		}
		set(a, &d)
		return nil
	}
}

// AllowInfNaN controls whether decimal values may be infinite or NaN.
func AllowInfNaN(b bool) Option {
	return func(a *AnnotatedType) *optionError {
		a.AllowInfNaN = &b
		return nil
	}
}

// MaxDigits caps the significant digits of a decimal.
func MaxDigits(n int) Option { return countOpt("max_digits", n, func(a *AnnotatedType, p *int) { a.MaxDigits = p }) }

// DecimalPlaces caps the digits after the decimal point.
func DecimalPlaces(n int) Option { return countOpt("decimal_places", n, func(a *AnnotatedType, p *int) { a.DecimalPlaces = p }) }

// MinLength sets the minimum rune count of a string or element count of a
// collection.
func MinLength(n int) Option { return countOpt("min_length", n, func(a *AnnotatedType, p *int) { a.MinLength = p }) }

// MaxLength sets the maximum rune count of a string or element count of a
// collection.
func MaxLength(n int) Option { return countOpt("max_length", n, func(a *AnnotatedType, p *int) { a.MaxLength = p }) }

func countOpt(attr string, n int, set func(*AnnotatedType, *int)) Option {
	return func(a *AnnotatedType) *optionError {
		if n < 0 {
			return &optionError{attr: attr, code: sf.CodeNegative}
		}
		set(a, &n)
		return nil
	}
}

// Pattern sets a regular expression the value must contain a match for.
func Pattern(expr string) Option {
	return func(a *AnnotatedType) *optionError {
		re, err := regexp.Compile(expr)
		if err != nil {
			return &optionError{attr: "pattern", code: sf.CodeInvalidRegexp, params: []any{"error", err.Error()}}
		}
		a.Pattern = re
		return nil
	}
}

func toDecimal(n any) (decimal.Decimal, bool) {
	switch v := n.(type) {
	case bool:
		return decimal.Decimal{}, false
	case string:
		d, err := decimal.NewFromString(v)
		return d, err == nil
	case json.Number:
		d, err := decimal.NewFromString(string(v))
		return d, err == nil
	}
	lit, ok := normalizeLiteral(n)
	if !ok {
		return decimal.Decimal{}, false
	}
	switch v := lit.(type) {
	case int64:
		return decimal.NewFromInt(v), true
	case decimal.Decimal:
		return v, true
	}
	return decimal.Decimal{}, false
}

// normalizeValue converts scalar Go values into the literal kinds used across
// the grammar while leaving lists, objects and unknown values as they are.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, *sf.Object:
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	}
	if lit, ok := normalizeLiteral(v); ok {
		return lit
	}
	return v
}
