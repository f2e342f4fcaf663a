package engine

import (
	"bytes"
	"encoding/json"

	j "github.com/goccy/go-json"
)

// DuplicateStrictness controls duplicate key handling while decoding.
type DuplicateStrictness int

const (
	DupError DuplicateStrictness = iota
	DupIgnore
)

// Options controls decoding enforcement.
type Options struct {
	OnDuplicate DuplicateStrictness
	// MaxDepth caps container nesting; 0 means unlimited.
	MaxDepth int
}

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

func issueErr(code, path, msg string) error {
	if path == "" {
		path = "/"
	}
	return IssueError{SimpleIssue{Code: code, Path: path, Message: msg}}
}

// Object is a JSON object that remembers key insertion order.
// Values are restricted to the generic value tree: nil, bool, string,
// json.Number (or any value produced by a validator), []any and *Object.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object sized for n keys.
func NewObject(n int) *Object {
	return &Object{keys: make([]string, 0, n), values: make(map[string]any, n)}
}

// Set stores v under k. An existing key keeps its original position.
func (o *Object) Set(k string, v any) {
	if o.values == nil {
		o.values = map[string]any{}
	}
	if _, ok := o.values[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.values[k] = v
}

// Get returns the value stored under k.
func (o *Object) Get(k string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[k]
	return v, ok
}

// Has reports whether k is present.
func (o *Object) Has(k string) bool {
	_, ok := o.Get(k)
	return ok
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Map returns a shallow, unordered copy.
func (o *Object) Map() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		m[k] = o.values[k]
	}
	return m
}

// MarshalJSON emits the keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var b bytes.Buffer
	if err := appendValue(&b, o); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// MarshalValue renders a value tree as compact JSON. json.Number leaves are
// written verbatim; values outside the tree kinds go through go-json.
func MarshalValue(v any) ([]byte, error) {
	var b bytes.Buffer
	if err := appendValue(&b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func appendValue(b *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case json.Number:
		if t == "" {
			b.WriteByte('0')
			return nil
		}
		b.WriteString(string(t))
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := appendValue(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case *Object:
		if t == nil {
			b.WriteString("null")
			return nil
		}
		b.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, err := j.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(kb)
			b.WriteByte(':')
			if err := appendValue(b, t.values[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		vb, err := j.Marshal(t)
		if err != nil {
			return err
		}
		b.Write(vb)
	}
	return nil
}
