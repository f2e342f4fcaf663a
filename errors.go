package schemaforge

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType    = "invalid_type"
	CodeRequired       = "required"
	CodeDuplicateKey   = "duplicate_key"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodePattern        = "pattern"
	CodeNotMultipleOf  = "not_multiple_of"
	CodeTooManyDigits  = "too_many_digits"
	CodeTooManyPlaces  = "too_many_decimal_places"
	CodeNotFinite      = "not_finite"
	CodeInvalidLiteral = "invalid_literal"
	CodeInvalidUnion   = "invalid_union"
	CodeInvalidFormat  = "invalid_format"
	CodeParseError     = "parse_error"
	CodeOverflow       = "overflow"
	// Grammar construction
	CodeEmpty         = "empty"
	CodeUnknownShape  = "unknown_shape"
	CodeInvalidRegexp = "invalid_regexp"
	CodeNegative      = "negative"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected kinds, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Detail renders every issue on its own line with its message. It is the form
// fed back to the model when asking it to correct a reply.
func (iss Issues) Detail() string {
	b := &strings.Builder{}
	for i, it := range iss {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(b, "%s: %s (%s)", it.Path, it.Message, it.Code)
		if it.Hint != "" {
			fmt.Fprintf(b, " - %s", it.Hint)
		}
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// Rebase prefixes every issue path with base, a JSON Pointer such as "/items/2".
func Rebase(base string, iss Issues) Issues {
	if base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}
