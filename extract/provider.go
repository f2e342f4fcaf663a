package extract

import (
	"context"

	j "github.com/goccy/go-json"
)

// CompletionRequest is one call to a completion provider.
type CompletionRequest struct {
	Model       string
	Credential  string
	Messages    []Message
	Temperature float64
	MaxTokens   *int
}

// Completion is the raw reply of one attempt.
type Completion struct {
	ID           string       `json:"id,omitempty"`
	Model        string       `json:"model,omitempty"`
	Content      string       `json:"content"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Usage        Usage        `json:"usage"`
	Raw          j.RawMessage `json:"raw,omitempty"`
}

// Provider produces completions. Implementations are shared by concurrent
// extractions and must be safe for concurrent use. They never validate the
// reply; they report throttling as *RateLimitedError and other failures as
// *ProviderError.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)

func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return f(ctx, req)
}
