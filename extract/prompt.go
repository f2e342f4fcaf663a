package extract

import (
	"strings"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
	js "github.com/reoring/schemaforge/jsonschema"
)

const (
	schemaPreamble = "You extract structured data. Read the conversation and answer with one JSON instance that validates against this JSON Schema:\n\n"
	schemaTrailer  = "\n\nReturn an instance of the schema, never the schema itself."
	fenceRequest   = "Return the JSON instance inside a single ```json code block and nothing else."
	reaskPreamble  = "Your previous reply was rejected. Fix the JSON instance so that it resolves the following errors, and return it inside a ```json code block:\n"
)

// instructions builds the first-attempt conversation: the schema goes into
// the system message (merged with the caller's own system message when the
// conversation starts with one) and a closing user message asks for a fenced
// JSON block.
func instructions(target *descriptor.Descriptor, msgs []Message) ([]Message, error) {
	schema, err := js.Marshal(target.JSONSchema())
	if err != nil {
		return nil, err
	}
	system := schemaPreamble + string(schema) + schemaTrailer

	out := make([]Message, 0, len(msgs)+2)
	if len(msgs) > 0 && msgs[0].Role == RoleSystem && msgs[0].Blocks == nil {
		out = append(out, Text(RoleSystem, msgs[0].Content+"\n\n"+system))
		msgs = msgs[1:]
	} else {
		out = append(out, Text(RoleSystem, system))
	}
	out = append(out, msgs...)
	out = append(out, Text(RoleUser, fenceRequest))
	return out, nil
}

// reask extends conv with the rejected reply and the issues it raised.
func reask(conv []Message, reply *Completion, iss sf.Issues) []Message {
	b := &strings.Builder{}
	b.WriteString(reaskPreamble)
	b.WriteString(iss.Detail())
	out := make([]Message, 0, len(conv)+2)
	out = append(out, conv...)
	return append(out, Text(RoleAssistant, reply.Content), Text(RoleUser, b.String()))
}
