package schemaforge

// Severity expresses how an input anomaly is treated while decoding.
type Severity int

const (
	Error Severity = iota // Reject the input with an issue.
	Ignore                // Accept the input silently.
)

// DefaultMaxDepth is the nesting cap used for untrusted input such as request
// bodies and model replies.
const DefaultMaxDepth = 128

// DecodeOpt bundles decoding options for DecodeJSON/DecodeYAML.
type DecodeOpt struct {
	OnDuplicateKey Severity // Duplicate object keys (default Error).
	MaxDepth       int      // Container nesting cap; 0 means unlimited.
}
