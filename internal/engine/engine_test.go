package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeJSON_PreservesKeyOrderAndNumbers(t *testing.T) {
	v, err := DecodeJSONBytes([]byte(`{"z":1,"a":{"y":2.50,"b":[true,null,"s"]}}`), Options{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	if got := obj.Keys(); len(got) != 2 || got[0] != "z" || got[1] != "a" {
		t.Fatalf("unexpected key order: %v", got)
	}
	inner, _ := obj.Get("a")
	io := inner.(*Object)
	y, _ := io.Get("y")
	if y != json.Number("2.50") {
		t.Fatalf("expected json.Number 2.50 preserved, got %#v", y)
	}
	b, _ := io.Get("b")
	arr := b.([]any)
	if len(arr) != 3 || arr[0] != true || arr[1] != nil || arr[2] != "s" {
		t.Fatalf("unexpected array: %#v", arr)
	}
}

func TestDecodeJSON_DuplicateKey(t *testing.T) {
	_, err := DecodeJSONBytes([]byte(`{"a":1,"b":{"c":1,"c":2}}`), Options{})
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "/b/c" {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}

	v, err := DecodeJSONBytes([]byte(`{"c":1,"c":2}`), Options{OnDuplicate: DupIgnore})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got, _ := v.(*Object).Get("c"); got != json.Number("2") {
		t.Fatalf("expected last value to win, got %v", got)
	}
}

func TestDecodeJSON_MaxDepthAndTrailing(t *testing.T) {
	if _, err := DecodeJSONBytes([]byte(`[[[1]]]`), Options{MaxDepth: 2}); err == nil {
		t.Fatalf("expected max depth error")
	}
	if _, err := DecodeJSONBytes([]byte(`[[[1]]]`), Options{MaxDepth: 3}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := DecodeJSONBytes([]byte(`{"a":1} {"b":2}`), Options{}); err == nil {
		t.Fatalf("expected trailing data error")
	}
	if _, err := DecodeJSONBytes([]byte(``), Options{}); err == nil {
		t.Fatalf("expected empty input error")
	}
}

func TestDecodeJSON_DeepNestingReportsPointer(t *testing.T) {
	src := `{"a/b":[` + strings.Repeat("[", 100000) + strings.Repeat("]", 100000) + `]}`
	_, err := DecodeJSONBytes([]byte(src), Options{MaxDepth: 4})
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	want := SimpleIssue{Code: "parse_error", Path: "/a~1b/0/0/0", Message: "max depth exceeded"}
	if ie.SimpleIssue != want {
		t.Fatalf("unexpected issue: %+v", ie.SimpleIssue)
	}
}

func TestDecodeYAML_Scalars(t *testing.T) {
	src := []byte("name: Person\nfields:\n  age: integer\n  score: 1.25\n  n: 3\n  ok: true\n  none: null\n")
	v, err := DecodeYAMLBytes(src, Options{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	obj := v.(*Object)
	f, _ := obj.Get("fields")
	fields := f.(*Object)
	want := []string{"age", "score", "n", "ok", "none"}
	got := fields.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order mismatch: got %v want %v", got, want)
		}
	}
	if s, _ := fields.Get("score"); s != json.Number("1.25") {
		t.Fatalf("score: %#v", s)
	}
	if n, _ := fields.Get("n"); n != json.Number("3") {
		t.Fatalf("n: %#v", n)
	}
	if b, _ := fields.Get("ok"); b != true {
		t.Fatalf("ok: %#v", b)
	}
	if nn, ok := fields.Get("none"); !ok || nn != nil {
		t.Fatalf("none: %#v", nn)
	}
}

func TestObject_MarshalJSON_Order(t *testing.T) {
	o := NewObject(2)
	o.Set("b", 1)
	o.Set("a", []any{"x"})
	o.Set("b", 2)
	out, err := o.MarshalJSON()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(out) != `{"b":2,"a":["x"]}` {
		t.Fatalf("unexpected json: %s", out)
	}
}
