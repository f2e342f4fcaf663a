package descriptor

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/reoring/schemaforge/jsonschema"
)

// Kind tags a Descriptor node.
type Kind int

const (
	Any Kind = iota
	String
	Integer
	Decimal
	Boolean
	Literal
	List
	Set
	Map
	Model
	Union
	External
)

var kindNames = [...]string{
	Any:      "any",
	String:   "string",
	Integer:  "integer",
	Decimal:  "decimal",
	Boolean:  "boolean",
	Literal:  "literal",
	List:     "list",
	Set:      "set",
	Map:      "map",
	Model:    "model",
	Union:    "union",
	External: "external",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Descriptor is one node of a compiled, validating type. A tree of
// Descriptors is interpreted by Parse; nothing is generated per type.
type Descriptor struct {
	Kind Kind
	// Name is set for Model descriptors.
	Name string
	// Nullable widens the accepted values with null. Inside a Model it also
	// makes the field omittable.
	Nullable bool

	HasDefault  bool
	Default     any
	Description *string
	Examples    []any

	Constraints Constraints

	// Literals holds the accepted values of a Literal descriptor, each one of
	// string, int64, decimal.Decimal or bool.
	Literals []any
	// Elem is the element type of List and Set; nil accepts anything.
	Elem *Descriptor
	// Key and Value type a Map; nil accepts anything.
	Key   *Descriptor
	Value *Descriptor
	// Fields of a Model in declaration order.
	Fields []Field
	// Members of a Union; never themselves unions.
	Members []*Descriptor
	// Ext validates External descriptors.
	Ext Validator
}

// Field is one named member of a Model descriptor.
type Field struct {
	Name string
	Type *Descriptor
}

// Required reports whether the field must be present in the input.
func (f Field) Required() bool { return !f.Type.Nullable && !f.Type.HasDefault }

// Constraints lists the checks attached to a descriptor. A nil member is not
// applied.
type Constraints struct {
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

// Empty reports whether no constraint is set.
func (c Constraints) Empty() bool { return c == Constraints{} }

// Validator backs an External descriptor: an opaque type with its own
// validation and JSON Schema.
type Validator interface {
	Validate(ctx context.Context, v any) (any, error)
	JSONSchema() *jsonschema.Schema
}

// Lookup returns the named field of a Model descriptor.
func (d *Descriptor) Lookup(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TypeName is a short human name used in messages ("string", "list",
// "model Person", ...).
func (d *Descriptor) TypeName() string {
	if d == nil {
		return Any.String()
	}
	if d.Kind == Model && d.Name != "" {
		return "model " + d.Name
	}
	return d.Kind.String()
}
