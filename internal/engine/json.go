package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// DecodeJSONBytes decodes exactly one JSON value from data into the generic
// value tree. Numbers are kept as json.Number to preserve precision.
func DecodeJSONBytes(data []byte, opt Options) (any, error) {
	return DecodeJSONReader(bytes.NewReader(data), opt)
}

// DecodeJSONReader decodes exactly one JSON value from r. Trailing non-space
// input is reported as a parse error.
func DecodeJSONReader(r io.Reader, opt Options) (any, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	d := &jsonDecoder{dec: dec, opt: opt}
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, issueErr("parse_error", "/", "empty input")
		}
		return nil, issueErr("parse_error", "/", err.Error())
	}
	v, err := d.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, issueErr("parse_error", "/", "unexpected data after top-level value")
	}
	return v, nil
}

// jsonDecoder walks the token stream. segs holds the unescaped reference
// tokens of the value being decoded; the pointer is only rendered for errors.
type jsonDecoder struct {
	dec  *j.Decoder
	opt  Options
	segs []string
}

func (d *jsonDecoder) fail(code, msg string) error {
	return issueErr(code, d.pointer(), msg)
}

func (d *jsonDecoder) pointer() string {
	var b strings.Builder
	for _, s := range d.segs {
		b.WriteByte('/')
		b.WriteString(escapePointer(s))
	}
	return b.String()
}

func (d *jsonDecoder) push(seg string) { d.segs = append(d.segs, seg) }
func (d *jsonDecoder) pop()            { d.segs = d.segs[:len(d.segs)-1] }

func (d *jsonDecoder) value(tok any) (any, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return d.object()
		case '[':
			return d.array()
		default:
			return nil, d.fail("parse_error", "unexpected delimiter "+string(rune(v)))
		}
	case string:
		return v, nil
	case j.Number:
		return json.Number(string(v)), nil
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case bool:
		return v, nil
	case nil:
		return nil, nil
	default:
		return nil, d.fail("parse_error", "unexpected token")
	}
}

// enter checks the cap for a container opened at the current position. The
// depth of that container is len(segs)+1.
func (d *jsonDecoder) enter() error {
	if d.opt.MaxDepth > 0 && len(d.segs) >= d.opt.MaxDepth {
		return d.fail("parse_error", "max depth exceeded")
	}
	return nil
}

func (d *jsonDecoder) object() (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	obj := NewObject(4)
	for {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.fail("parse_error", err.Error())
		}
		if dl, ok := tok.(j.Delim); ok && dl == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, d.fail("parse_error", "expected object key")
		}
		d.push(key)
		if obj.Has(key) && d.opt.OnDuplicate == DupError {
			return nil, d.fail("duplicate_key", "key '"+key+"' duplicated")
		}
		vt, err := d.dec.Token()
		if err != nil {
			return nil, d.fail("parse_error", err.Error())
		}
		v, err := d.value(vt)
		if err != nil {
			return nil, err
		}
		d.pop()
		obj.Set(key, v)
	}
}

func (d *jsonDecoder) array() (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	arr := []any{}
	for i := 0; ; i++ {
		tok, err := d.dec.Token()
		if err != nil {
			return nil, d.fail("parse_error", err.Error())
		}
		if dl, ok := tok.(j.Delim); ok && dl == ']' {
			return arr, nil
		}
		d.push(strconv.Itoa(i))
		v, err := d.value(tok)
		if err != nil {
			return nil, err
		}
		d.pop()
		arr = append(arr, v)
	}
}

// escapePointer escapes a reference token per RFC 6901.
func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
