package grammar

import (
	sf "github.com/reoring/schemaforge"
)

// StructuralError reports a grammar value that violates the grammar's own
// rules: an empty enum, an empty union, an unknown primitive name, a negative
// length and so on. Issues carry JSON Pointer paths into the grammar document.
type StructuralError struct {
	Issues sf.Issues
}

func (e *StructuralError) Error() string { return "grammar: " + e.Issues.Error() }

// Unwrap exposes the Issues so sf.AsIssues works on a StructuralError.
func (e *StructuralError) Unwrap() error { return e.Issues }

func structural(iss ...sf.Issue) *StructuralError {
	return &StructuralError{Issues: sf.AppendIssues(nil, iss...)}
}
