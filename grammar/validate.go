package grammar

import (
	sf "github.com/reoring/schemaforge"
)

// Validate checks the structural rules of a grammar tree built by hand (for
// example as struct literals) rather than through the constructors or
// FromValue. It returns a *StructuralError listing every violation.
func Validate(ft FieldType) error {
	var iss sf.Issues
	validate(ft, sf.Root(), true, &iss)
	if len(iss) > 0 {
		return &StructuralError{Issues: iss}
	}
	return nil
}

func validate(ft FieldType, p sf.PathRef, allowUnion bool, iss *sf.Issues) {
	add := func(it sf.Issue) { *iss = sf.AppendIssues(*iss, it) }
	switch t := ft.(type) {
	case nil:
		add(p.Issue(sf.CodeRequired))
	case Primitive:
		if !t.Known() {
			add(p.Issue(sf.CodeInvalidLiteral, "expected", "string, integer, decimal, boolean"))
		}
	case Union:
		if !allowUnion {
			add(sf.IssueAt(p, sf.CodeUnknownShape, "a union member cannot itself be a union", nil))
			return
		}
		if len(t) == 0 {
			add(p.Issue(sf.CodeEmpty))
		}
		for i, m := range t {
			validate(m, p.Index(i), false, iss)
		}
	case *EnumType:
		if len(t.Enums) == 0 {
			add(p.Field("enums").Issue(sf.CodeEmpty))
		}
		for i, v := range t.Enums {
			if _, ok := normalizeLiteral(v); !ok {
				add(p.Field("enums").Index(i).Issue(sf.CodeInvalidType, "expected", "string, integer, decimal or boolean"))
			}
		}
	case *ArrayType:
		if t.Kind != List && t.Kind != Set {
			add(p.Field("array_type").Issue(sf.CodeInvalidLiteral, "expected", "list, set"))
		}
		if t.Item != nil {
			validate(t.Item, p.Field("item_type"), true, iss)
		}
	case *DictType:
		if t.Key != nil {
			validate(t.Key, p.Field("key_type"), true, iss)
		}
		if t.Value != nil {
			validate(t.Value, p.Field("value_type"), true, iss)
		}
	case *ModelType:
		if t.Name == "" {
			add(p.Field("name").Issue(sf.CodeEmpty))
		}
		if len(t.Fields) == 0 {
			add(p.Field("fields").Issue(sf.CodeEmpty))
		}
		seen := make(map[string]struct{}, len(t.Fields))
		for _, f := range t.Fields {
			fp := p.Field("fields").Field(f.Name)
			if _, dup := seen[f.Name]; dup {
				add(fp.Issue(sf.CodeDuplicateKey))
			}
			seen[f.Name] = struct{}{}
			validate(f.Type, fp, true, iss)
		}
	case *AnnotatedType:
		validate(t.Type, p.Field("type"), true, iss)
		for _, c := range []struct {
			name string
			n    *int
		}{
			{"max_digits", t.MaxDigits},
			{"decimal_places", t.DecimalPlaces},
			{"min_length", t.MinLength},
			{"max_length", t.MaxLength},
		} {
			if c.n != nil && *c.n < 0 {
				add(p.Field(c.name).Issue(sf.CodeNegative))
			}
		}
	}
}
