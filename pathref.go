package schemaforge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/schemaforge/i18n"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code string, kv ...any) Issue
}

// Root returns the PathRef for the document root.
func Root() PathRef { return pathRef{} }

// At parses a JSON Pointer into a PathRef. Segments are kept escaped.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return pathRef{parts: parts}
}

type pathRef struct {
	parts []string
}

func (p pathRef) Field(name string) PathRef {
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return pathRef{parts: append(append([]string{}, p.parts...), esc)}
}

func (p pathRef) Index(i int) PathRef {
	return pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at this path with a translated message. kv are
// key/value pairs stored in Params and offered to the translator.
func (p pathRef) Issue(code string, kv ...any) Issue {
	m := map[string]any{}
	data := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		m[k] = kv[i+1]
		data[k] = fmt.Sprint(kv[i+1])
	}
	if len(m) == 0 {
		m = nil
	}
	return Issue{Path: p.Pointer(), Code: code, Message: i18n.T(code, data), Params: m}
}
