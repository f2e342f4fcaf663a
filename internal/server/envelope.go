package server

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/compiler"
	"github.com/reoring/schemaforge/descriptor"
	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/grammar"
)

// envelopeGrammar describes the body shared by /api/define and /api/parse.
const envelopeGrammar = `{
  "name": "ExtractionRequest",
  "fields": {
    "messages": {
      "type": {"array_type": "list", "item_type": {
        "name": "Message",
        "fields": {
          "role": {"enums": ["user", "system", "assistant"]},
          "content": ["string", {"array_type": "list", "item_type": {"key_type": "string"}}]
        }
      }},
      "min_length": 1
    },
    "model": "string",
    "temperature": {"type": "decimal", "default": 0, "ge": 0, "le": 1},
    "max_tokens": {"type": "integer", "optional": true, "ge": 1},
    "max_attempts": {"type": "integer", "default": 3, "ge": 1}
  }
}`

// envelope compiles the request body target. withSchema adds the "schema"
// field of the parse flow right after the messages.
func envelope(withSchema bool) *descriptor.Descriptor {
	ft, err := grammar.ParseJSON([]byte(envelopeGrammar))
	if err != nil {
		panic(err)
	}
	d := compiler.MustCompile(ft)
	if withSchema {
		fields := make([]descriptor.Field, 0, len(d.Fields)+1)
		fields = append(fields, d.Fields[0], descriptor.Field{Name: "schema", Type: compiler.ModelTypeTarget()})
		d.Fields = append(fields, d.Fields[1:]...)
		d.Name = "ParseDataRequest"
	} else {
		d.Name = "DefineSchemaRequest"
	}
	return d
}

// toRequest turns a validated envelope into an extraction request.
func toRequest(o *sf.Object, credential string) (extract.Request, error) {
	req := extract.Request{Credential: credential}
	raw, _ := o.Get("messages")
	for _, item := range raw.([]any) {
		m := item.(*sf.Object)
		role, _ := m.Get("role")
		content, _ := m.Get("content")
		msg := extract.Message{Role: extract.Role(role.(string))}
		switch c := content.(type) {
		case string:
			msg.Content = c
		case []any:
			msg.Blocks = make([]map[string]any, 0, len(c))
			for _, b := range c {
				msg.Blocks = append(msg.Blocks, plain(b).(map[string]any))
			}
		}
		req.Messages = append(req.Messages, msg)
	}
	model, _ := o.Get("model")
	req.Model = model.(string)

	temp, _ := o.Get("temperature")
	switch t := temp.(type) {
	case decimal.Decimal:
		req.Temperature = t.InexactFloat64()
	case int64:
		req.Temperature = float64(t)
	default:
		return extract.Request{}, fmt.Errorf("server: unexpected temperature %T", temp)
	}
	if n, ok := o.Get("max_tokens"); ok && n != nil {
		v := int(n.(int64))
		req.MaxTokens = &v
	}
	if n, ok := o.Get("max_attempts"); ok && n != nil {
		v := int(n.(int64))
		req.MaxAttempts = &v
	}
	return req, nil
}

// plain converts a decoded tree into maps and Go numbers so it can be sent
// on to the provider as is.
func plain(v any) any {
	switch t := v.(type) {
	case *sf.Object:
		m := make(map[string]any, t.Len())
		for _, k := range t.Keys() {
			e, _ := t.Get(k)
			m[k] = plain(e)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
