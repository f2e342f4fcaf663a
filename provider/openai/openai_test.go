package openai_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	j "github.com/goccy/go-json"

	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/provider/openai"
)

func server(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization header %q", got)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			if err := j.Unmarshal(b, seen); err != nil {
				t.Errorf("request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func request() extract.CompletionRequest {
	n := 64
	return extract.CompletionRequest{
		Model:       "openai/gpt-4o-mini",
		Credential:  "sk-test",
		Messages:    []extract.Message{extract.Text(extract.RoleUser, "hi")},
		Temperature: 0.2,
		MaxTokens:   &n,
	}
}

func TestComplete_OK(t *testing.T) {
	var seen map[string]any
	s := server(t, 200, `{"id":"c1","model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`, &seen)
	comp, err := openai.New(s.URL+"/v1").Complete(context.Background(), request())
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if comp.Content != "{}" || comp.ID != "c1" || comp.Usage.TotalTokens != 5 || comp.FinishReason != "stop" {
		t.Fatalf("unexpected completion %+v", comp)
	}
	if seen["model"] != "gpt-4o-mini" {
		t.Fatalf("model prefix should be dropped, got %v", seen["model"])
	}
	if seen["max_tokens"] != float64(64) || seen["temperature"] != 0.2 {
		t.Fatalf("sampling parameters not forwarded: %v", seen)
	}
}

func TestComplete_ModelIDs(t *testing.T) {
	body := `{"id":"c1","choices":[{"message":{"content":"{}"},"finish_reason":"stop"}]}`
	cases := []struct {
		name string
		opts []openai.Option
		in   string
		want string
	}{
		{"routing prefix", nil, "openai/gpt-4o-mini", "gpt-4o-mini"},
		{"namespaced id", nil, "anthropic/claude-3.5-sonnet", "anthropic/claude-3.5-sonnet"},
		{"nested namespace", nil, "openai/meta-llama/llama-3-70b", "meta-llama/llama-3-70b"},
		{"bare id", nil, "gpt-4o", "gpt-4o"},
		{"prefix disabled", []openai.Option{openai.WithModelPrefix("")}, "openai/gpt-4o", "openai/gpt-4o"},
		{"custom prefix", []openai.Option{openai.WithModelPrefix("openrouter/")}, "openrouter/anthropic/claude-3.5-sonnet", "anthropic/claude-3.5-sonnet"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen map[string]any
			s := server(t, 200, body, &seen)
			req := request()
			req.Model = tc.in
			if _, err := openai.New(s.URL+"/v1", tc.opts...).Complete(context.Background(), req); err != nil {
				t.Fatalf("complete: %v", err)
			}
			if seen["model"] != tc.want {
				t.Fatalf("posted model %v, want %s", seen["model"], tc.want)
			}
		})
	}
}

func TestComplete_RateLimited(t *testing.T) {
	s := server(t, 429, `{"error":{"message":"Rate limit reached","type":"requests"}}`, nil)
	_, err := openai.New(s.URL + "/v1").Complete(context.Background(), request())
	if !errors.Is(err, extract.ErrRateLimited) {
		t.Fatalf("expected rate limit, got %v", err)
	}
}

func TestComplete_StatusErrors(t *testing.T) {
	for _, status := range []int{400, 401, 404, 500, 503} {
		s := server(t, status, `{"error":{"message":"nope"}}`, nil)
		_, err := openai.New(s.URL + "/v1").Complete(context.Background(), request())
		var pe *extract.ProviderError
		if !errors.As(err, &pe) || pe.StatusCode != status || pe.Message != "nope" {
			t.Fatalf("%d: unexpected error %v", status, err)
		}
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	s := server(t, 200, `{"id":"c1","choices":[]}`, nil)
	_, err := openai.New(s.URL + "/v1").Complete(context.Background(), request())
	var pe *extract.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
}

func TestComplete_TransportFailure(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	url := s.URL
	s.Close()
	_, err := openai.New(url).Complete(context.Background(), request())
	var pe *extract.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
}
