package grammar

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/internal/engine"
)

// FieldType is one node of the description language. The set of
// implementations is closed: Primitive, *EnumType, *ArrayType, *DictType,
// *AnnotatedType, *ModelType and Union.
type FieldType interface {
	fieldType()
}

// Primitive names one of the scalar kinds.
type Primitive string

const (
	String  Primitive = "string"
	Integer Primitive = "integer"
	Decimal Primitive = "decimal"
	Boolean Primitive = "boolean"
)

func (Primitive) fieldType() {}

// Known reports whether p is one of the four scalar kinds.
func (p Primitive) Known() bool {
	switch p {
	case String, Integer, Decimal, Boolean:
		return true
	}
	return false
}

// EnumType is a closed set of literal values. Values are normalized to
// string, int64, decimal.Decimal or bool.
type EnumType struct {
	Enums []any
}

func (*EnumType) fieldType() {}

// ArrayKind selects list or set semantics for ArrayType.
type ArrayKind string

const (
	List ArrayKind = "list"
	Set  ArrayKind = "set"
)

// ArrayType is a homogeneous collection. A nil Item leaves elements unconstrained.
type ArrayType struct {
	Kind ArrayKind
	Item FieldType
}

func (*ArrayType) fieldType() {}

// DictType is a key/value mapping. Nil Key or Value leaves that side unconstrained.
type DictType struct {
	Key   FieldType
	Value FieldType
}

func (*DictType) fieldType() {}

// AnnotatedType wraps Type with optionality, metadata and constraints. Every
// attribute is explicit-only: nil pointers (and HasDefault=false, nil
// Examples) mean "not set" and are never applied.
type AnnotatedType struct {
	Type FieldType

	Optional    *bool
	HasDefault  bool
	Default     any
	Description *string
	Examples    []any

	Gt          *decimal.Decimal
	Ge          *decimal.Decimal
	Lt          *decimal.Decimal
	Le          *decimal.Decimal
	MultipleOf  *decimal.Decimal
	AllowInfNaN *bool

	MaxDigits     *int
	DecimalPlaces *int

	Pattern   *regexp.Regexp
	MinLength *int
	MaxLength *int
}

func (*AnnotatedType) fieldType() {}

// IsOptional reports whether null/absent values are accepted.
func (a *AnnotatedType) IsOptional() bool { return a.Optional != nil && *a.Optional }

// Field is one named member of a ModelType.
type Field struct {
	Name string
	Type FieldType
}

// ModelType is a named structure with ordered fields.
type ModelType struct {
	Name   string
	Fields []Field
}

func (*ModelType) fieldType() {}

// Lookup returns the type of the named field.
func (m *ModelType) Lookup(name string) (FieldType, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Union is the logical any-of of its members. Members are never unions.
type Union []FieldType

func (Union) fieldType() {}

// NewEnum builds an EnumType. Accepted Go values are string, bool, any
// integer type, float32/float64, json.Number and decimal.Decimal.
func NewEnum(values ...any) (*EnumType, error) {
	var iss sf.Issues
	p := sf.Root().Field("enums")
	if len(values) == 0 {
		iss = sf.AppendIssues(iss, p.Issue(sf.CodeEmpty))
	}
	out := make([]any, 0, len(values))
	for i, v := range values {
		nv, ok := normalizeLiteral(v)
		if !ok {
			iss = sf.AppendIssues(iss, p.Index(i).Issue(sf.CodeInvalidType, "expected", "string, integer, decimal or boolean"))
			continue
		}
		out = append(out, nv)
	}
	if len(iss) > 0 {
		return nil, &StructuralError{Issues: iss}
	}
	return &EnumType{Enums: out}, nil
}

// NewArray builds an ArrayType; item may be nil.
func NewArray(kind ArrayKind, item FieldType) (*ArrayType, error) {
	if kind != List && kind != Set {
		return nil, structural(sf.Root().Field("array_type").Issue(sf.CodeInvalidLiteral, "expected", "list, set"))
	}
	return &ArrayType{Kind: kind, Item: item}, nil
}

// NewDict builds a DictType; either side may be nil.
func NewDict(key, value FieldType) *DictType { return &DictType{Key: key, Value: value} }

// NewUnion builds a Union of one or more non-union members.
func NewUnion(members ...FieldType) (Union, error) {
	var iss sf.Issues
	if len(members) == 0 {
		iss = sf.AppendIssues(iss, sf.Root().Issue(sf.CodeEmpty))
	}
	for i, m := range members {
		switch m.(type) {
		case nil:
			iss = sf.AppendIssues(iss, sf.Root().Index(i).Issue(sf.CodeRequired))
		case Union:
			iss = sf.AppendIssues(iss, sf.IssueAt(sf.Root().Index(i), sf.CodeUnknownShape, "a union member cannot itself be a union", nil))
		}
	}
	if len(iss) > 0 {
		return nil, &StructuralError{Issues: iss}
	}
	return Union(append([]FieldType(nil), members...)), nil
}

// NewModel builds a ModelType with fields kept in the given order.
func NewModel(name string, fields ...Field) (*ModelType, error) {
	var iss sf.Issues
	if name == "" {
		iss = sf.AppendIssues(iss, sf.Root().Field("name").Issue(sf.CodeEmpty))
	}
	if len(fields) == 0 {
		iss = sf.AppendIssues(iss, sf.Root().Field("fields").Issue(sf.CodeEmpty))
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		p := sf.Root().Field("fields").Field(f.Name)
		if f.Name == "" {
			iss = sf.AppendIssues(iss, sf.IssueAt(p, sf.CodeEmpty, "field name must not be empty", nil))
		}
		if _, dup := seen[f.Name]; dup {
			iss = sf.AppendIssues(iss, p.Issue(sf.CodeDuplicateKey))
		}
		seen[f.Name] = struct{}{}
		if f.Type == nil {
			iss = sf.AppendIssues(iss, p.Issue(sf.CodeRequired))
		}
	}
	if len(iss) > 0 {
		return nil, &StructuralError{Issues: iss}
	}
	return &ModelType{Name: name, Fields: append([]Field(nil), fields...)}, nil
}

// normalizeLiteral maps Go scalars onto the canonical literal kinds.
func normalizeLiteral(v any) (any, bool) {
	switch t := v.(type) {
	case string, bool, int64:
		return t, true
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case uint8:
		return int64(t), true
	case uint16:
		return int64(t), true
	case uint32:
		return int64(t), true
	case uint:
		if uint64(t) > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0), true
		}
		return int64(t), true
	case uint64:
		if t > math.MaxInt64 {
			return decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0), true
		}
		return int64(t), true
	case float32:
		return normalizeFloat(float64(t))
	case float64:
		return normalizeFloat(t)
	case json.Number:
		return normalizeNumber(string(t))
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return nil, false
		}
		return *t, true
	default:
		return nil, false
	}
}

func normalizeFloat(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return decimal.NewFromFloat(f), true
}

// normalizeNumber keeps integer literals as int64 and everything else as an
// exact decimal. Decimals outside engine.InRange are rejected.
func normalizeNumber(s string) (any, bool) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !engine.InRange(d) {
		return nil, false
	}
	return d, true
}
