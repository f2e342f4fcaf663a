// Package descriptor holds compiled validating types. A Descriptor is a
// tagged node (string, integer, model, union, ...) and one generic
// interpreter, Parse, validates any value against any tree of them.
package descriptor
