// Package grammar defines the schema-definition language: a small closed
// set of node kinds (primitives, enums, arrays, dicts, annotated types,
// models and unions) that together describe a structured value.
//
// Grammar values are plain data. They can be built in Go through the
// constructors (NewEnum, NewArray, NewDict, NewUnion, NewModel, NewAnnotated)
// or decoded from their JSON/YAML wire form with ParseJSON, ParseYAML and
// FromValue. Structural violations are reported as *StructuralError.
//
// Wire form at a glance:
//
//	"string" | "integer" | "decimal" | "boolean"
//	{"enums": ["a", 1, 1.5, true]}
//	{"array_type": "list"|"set", "item_type": <node>}
//	{"key_type": <node>, "value_type": <node>}
//	{"type": <node>, "optional": true, "min_length": 3, ...}
//	{"name": "Person", "fields": {"name": <node>, ...}}
//	[<node>, <node>, ...]   (union)
package grammar
