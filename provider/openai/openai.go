// Package openai implements extract.Provider over the OpenAI chat
// completions API and the many services that speak the same protocol.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	j "github.com/goccy/go-json"

	"github.com/reoring/schemaforge/extract"
)

// DefaultBaseURL is the public OpenAI endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModelPrefix is the routing prefix removed from model IDs, so
// "openai/gpt-4o" is sent as "gpt-4o".
const DefaultModelPrefix = "openai/"

// Provider is stateless apart from its configuration and may be shared.
type Provider struct {
	baseURL string
	prefix  string
	http    *http.Client
}

// Option configures a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.http = c
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		c := *p.http
		c.Timeout = d
		p.http = &c
	}
}

// WithModelPrefix sets the routing prefix removed from model IDs. An empty
// prefix sends every ID unchanged, which suits gateways whose IDs are
// namespaced, such as "anthropic/claude-3.5-sonnet".
func WithModelPrefix(prefix string) Option {
	return func(p *Provider) { p.prefix = prefix }
}

// New returns a provider for baseURL ("" means DefaultBaseURL).
func New(baseURL string, opts ...Option) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	p := &Provider{baseURL: strings.TrimRight(baseURL, "/"), prefix: DefaultModelPrefix, http: &http.Client{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []extract.Message `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage extract.Usage `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete posts one chat completion.
func (p *Provider) Complete(ctx context.Context, req extract.CompletionRequest) (*extract.Completion, error) {
	body, err := j.Marshal(chatRequest{
		Model:       p.modelName(req.Model),
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	if req.Credential != "" {
		hreq.Header.Set("Authorization", "Bearer "+req.Credential)
	}

	resp, err := p.http.Do(hreq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &extract.ProviderError{StatusCode: http.StatusBadGateway, Message: err.Error(), Cause: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &extract.ProviderError{StatusCode: http.StatusBadGateway, Message: "reading response: " + err.Error(), Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, raw)
	}

	var cr chatResponse
	if err := j.Unmarshal(raw, &cr); err != nil {
		return nil, &extract.ProviderError{StatusCode: http.StatusBadGateway, Message: "malformed response: " + err.Error(), Cause: err}
	}
	if len(cr.Choices) == 0 {
		return nil, &extract.ProviderError{StatusCode: http.StatusBadGateway, Message: "response has no choices"}
	}
	ch := cr.Choices[0]
	out := &extract.Completion{
		ID:           cr.ID,
		Model:        cr.Model,
		FinishReason: ch.FinishReason,
		Usage:        cr.Usage,
		Raw:          j.RawMessage(raw),
	}
	if ch.Message.Content != nil {
		out.Content = *ch.Message.Content
	}
	return out, nil
}

// statusError classifies a non-2xx reply. Throttling is retryable; anything
// else keeps its status code.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var er errorResponse
	if err := j.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		msg = er.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusTooManyRequests {
		return &extract.RateLimitedError{Message: msg}
	}
	return &extract.ProviderError{StatusCode: status, Message: msg}
}

// modelName drops the configured routing prefix. Other namespaces are part
// of the ID and are kept.
func (p *Provider) modelName(m string) string {
	if p.prefix == "" {
		return m
	}
	return strings.TrimPrefix(m, p.prefix)
}

var _ extract.Provider = (*Provider)(nil)
