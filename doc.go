// Package schemaforge compiles a small recursive schema-definition grammar into
// runtime validating types and drives structured extraction against a
// generative completion provider.
//
// Layout:
//
//   - Root package: the shared vocabulary (Issues error model, JSON Pointer
//     PathRef, ordered Object, JSON/YAML decoding into the generic value tree).
//   - grammar/: the description language (FieldType and its variants) with
//     construction-time structural validation and wire encoding.
//   - descriptor/: the compiled runtime type (a tagged variant tree) and the
//     single interpreter that validates values against it.
//   - compiler/: Compile(FieldType) -> *descriptor.Descriptor.
//   - extract/: the retrying structured extraction client.
//   - provider/openai/: an OpenAI-compatible completion provider.
//   - internal/server, cmd/schemaforge: HTTP transport and CLI.
//
// Typical usage:
//
//	ft, err := grammar.ParseJSON(data)
//	target, err := compiler.Compile(ft)
//	v, err := target.Parse(ctx, value)
//
//	c := extract.New(openai.New(baseURL))
//	res, err := c.Extract(ctx, target, extract.Request{Messages: msgs, Model: "gpt-4o", Credential: key})
package schemaforge
