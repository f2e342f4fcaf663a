package schemaforge

import (
	"errors"
	"io"

	eng "github.com/reoring/schemaforge/internal/engine"
)

// Object is a JSON object that keeps key insertion order. Decoded objects,
// validated models and validated maps are all represented as *Object.
type Object = eng.Object

// NewObject returns an empty Object sized for n keys.
func NewObject(n int) *Object { return eng.NewObject(n) }

// MarshalValue renders a value tree as compact JSON, keeping object key order
// and writing json.Number leaves verbatim.
func MarshalValue(v any) ([]byte, error) { return eng.MarshalValue(v) }

// DecodeJSON decodes one JSON document into the generic value tree: nil, bool,
// string, json.Number, []any and *Object. Errors are returned as Issues.
func DecodeJSON(data []byte, opts ...DecodeOpt) (any, error) {
	v, err := eng.DecodeJSONBytes(data, toEngineOpt(opts))
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

// DecodeJSONReader is DecodeJSON over an io.Reader.
func DecodeJSONReader(r io.Reader, opts ...DecodeOpt) (any, error) {
	v, err := eng.DecodeJSONReader(r, toEngineOpt(opts))
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

// DecodeYAML decodes the first YAML document in data into the same value tree
// DecodeJSON produces, so grammar files may be written in either format.
func DecodeYAML(data []byte, opts ...DecodeOpt) (any, error) {
	v, err := eng.DecodeYAMLBytes(data, toEngineOpt(opts))
	if err != nil {
		return nil, toIssues(err)
	}
	return v, nil
}

func toEngineOpt(opts []DecodeOpt) eng.Options {
	var opt DecodeOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	out := eng.Options{MaxDepth: opt.MaxDepth}
	if opt.OnDuplicateKey == Ignore {
		out.OnDuplicate = eng.DupIgnore
	}
	return out
}

func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if ii, ok := AsIssues(err); ok {
		return ii
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message})
	}
	return AppendIssues(nil, Issue{Code: CodeParseError, Path: "/", Message: err.Error(), Cause: err})
}
