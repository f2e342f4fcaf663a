package compiler

import (
	"fmt"

	sf "github.com/reoring/schemaforge"
)

// ConstructionError reports a grammar that is structurally valid but cannot
// be materialized, such as a pattern on an integer or min_length on a model.
type ConstructionError struct {
	Path       string // JSON Pointer into the grammar document
	Constraint string
	Type       string
	Reason     string
}

func (e *ConstructionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("compiler: %s at %s %s", e.Constraint, e.Path, e.Reason)
	}
	return fmt.Sprintf("compiler: cannot apply %s to %s at %s", e.Constraint, e.Type, e.Path)
}

// Issue renders the error in the shared issue model.
func (e *ConstructionError) Issue() sf.Issue {
	return sf.Issue{
		Path:    e.Path,
		Code:    sf.CodeInvalidFormat,
		Message: e.Error(),
		Params:  map[string]any{"constraint": e.Constraint, "type": e.Type},
	}
}
