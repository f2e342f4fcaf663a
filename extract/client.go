package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	sf "github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/descriptor"
)

// DefaultMaxAttempts is used when neither the request nor the client sets a
// limit.
const DefaultMaxAttempts = 3

// Request is one logical extraction.
type Request struct {
	Messages   []Message
	Model      string
	Credential string
	// Temperature must lie in [0, 1].
	Temperature float64
	// MaxTokens caps each completion; nil leaves it to the provider.
	MaxTokens *int
	// MaxAttempts bounds the number of attempts; nil means the client default.
	MaxAttempts *int
}

// Validate checks the request parameters and returns *InputError.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return &InputError{Field: "messages", Message: "at least one message is required"}
	}
	for _, m := range r.Messages {
		if !m.Role.Known() {
			return &InputError{Field: "messages", Message: fmt.Sprintf("unknown role %q", m.Role)}
		}
	}
	if strings.TrimSpace(r.Model) == "" {
		return &InputError{Field: "model", Message: "model is required"}
	}
	if r.Temperature < 0 || r.Temperature > 1 {
		return &InputError{Field: "temperature", Message: "must be between 0 and 1"}
	}
	if r.MaxTokens != nil && *r.MaxTokens < 1 {
		return &InputError{Field: "max_tokens", Message: "must be at least 1"}
	}
	if r.MaxAttempts != nil && *r.MaxAttempts < 1 {
		return &InputError{Field: "max_attempts", Message: "must be at least 1"}
	}
	return nil
}

// Result is a validated instance together with what it cost.
type Result struct {
	Value          any
	Usage          Usage
	Attempts       int
	LastCompletion *Completion
}

// Client drives extractions against one provider. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	provider    Provider
	maxAttempts int
	log         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxAttempts sets the attempt limit used when a request does not carry
// its own. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n >= 1 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger for attempt outcomes. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client using p.
func New(p Provider, opts ...Option) *Client {
	c := &Client{
		provider:    p,
		maxAttempts: DefaultMaxAttempts,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Extract asks the provider for an instance of target and validates it.
//
// Attempts run one after another. A reply that fails validation is fed back
// to the model together with its issues; a rate-limited attempt is repeated
// as is. Any other error is returned on first occurrence. When every attempt
// fails in one of those two ways the result is *RetriesExhaustedError with
// the usage of all attempts, the last reply and the root cause of the last
// failure.
func (c *Client) Extract(ctx context.Context, target *descriptor.Descriptor, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	limit := c.maxAttempts
	if req.MaxAttempts != nil {
		limit = *req.MaxAttempts
	}
	conv, err := instructions(target, req.Messages)
	if err != nil {
		return nil, err
	}

	var (
		total   Usage
		last    *Completion
		lastErr error
	)
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		comp, err := c.provider.Complete(ctx, CompletionRequest{
			Model:       req.Model,
			Credential:  req.Credential,
			Messages:    conv,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			if !retryable(err) {
				c.log.DebugContext(ctx, "extract attempt failed", "attempt", attempt, "outcome", "fatal", "error", err)
				return nil, err
			}
			c.log.DebugContext(ctx, "extract attempt failed", "attempt", attempt, "outcome", "rate_limited", "error", err)
			lastErr = err
			continue
		}
		total = total.Add(comp.Usage)
		last = comp

		v, err := decodeReply(ctx, target, comp.Content)
		if err == nil {
			c.log.DebugContext(ctx, "extract attempt succeeded", "attempt", attempt, "total_tokens", comp.Usage.TotalTokens)
			return &Result{Value: v, Usage: total, Attempts: attempt, LastCompletion: comp}, nil
		}
		c.log.DebugContext(ctx, "extract attempt failed", "attempt", attempt, "outcome", "invalid", "error", err, "total_tokens", comp.Usage.TotalTokens)
		lastErr = err
		var vf *ValidationFailure
		if errors.As(err, &vf) {
			conv = reask(conv, comp, vf.Issues)
		}
	}

	c.log.WarnContext(ctx, "extract retries exhausted", "attempts", limit, "model", req.Model, "total_tokens", total.TotalTokens)
	return nil, &RetriesExhaustedError{
		Cause:          rootCause(lastErr),
		LastCompletion: last,
		Attempts:       limit,
		Messages:       cloneMessages(req.Messages),
		TotalUsage:     total,
	}
}

// decodeReply pulls the JSON out of a reply and validates it. Every failure
// is a *ValidationFailure.
func decodeReply(ctx context.Context, target *descriptor.Descriptor, content string) (any, error) {
	doc := jsonBlock(content)
	if doc == "" {
		return nil, &ValidationFailure{Issues: sf.Issues{{
			Path:    "/",
			Code:    sf.CodeParseError,
			Message: "reply contains no JSON document",
		}}}
	}
	v, err := target.ParseJSON(ctx, []byte(doc), sf.DecodeOpt{MaxDepth: sf.DefaultMaxDepth})
	if err != nil {
		if iss, ok := sf.AsIssues(err); ok {
			return nil, &ValidationFailure{Issues: iss}
		}
		return nil, err
	}
	return v, nil
}
