// Package compiler turns grammar trees into validating descriptors.
//
//	ft, _ := grammar.ParseJSON(doc)
//	target, err := compiler.Compile(ft)
//	v, err := target.Parse(ctx, value)
//
// Compile is pure and safe for concurrent use.
package compiler
