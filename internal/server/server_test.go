package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/reoring/schemaforge/extract"
	"github.com/reoring/schemaforge/internal/config"
	"github.com/reoring/schemaforge/internal/server"
)

func reply(content string, total int) extract.ProviderFunc {
	return func(_ context.Context, req extract.CompletionRequest) (*extract.Completion, error) {
		return &extract.Completion{Content: content, Usage: extract.Usage{PromptTokens: total - 1, CompletionTokens: 1, TotalTokens: total}}, nil
	}
}

func newServer(t *testing.T, p extract.Provider, mut ...func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	for _, m := range mut {
		m(&cfg)
	}
	return server.New(cfg, extract.New(p), nil).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := j.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("response body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

var auth = map[string]string{"Authorization": "Bearer sk-test"}

const personSchema = `{"name":"Person","fields":{"name":"string","age":{"type":"integer","ge":0}}}`

func TestHealth(t *testing.T) {
	rec, out := do(t, newServer(t, reply("", 0)), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || out["status"] != "OK" {
		t.Fatalf("health: %d %v", rec.Code, out)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id should be assigned")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	rec, _ := do(t, newServer(t, reply("", 0)), http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "abc-123"})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("got request id %q", got)
	}
}

func TestAPIRequiresBearer(t *testing.T) {
	h := newServer(t, reply("", 0))
	for _, hdr := range []map[string]string{nil, {"Authorization": "Basic abc"}, {"Authorization": "Bearer "}} {
		rec, out := do(t, h, http.MethodPost, "/api/define", `{}`, hdr)
		if rec.Code != http.StatusForbidden || out["detail"] != "Not authenticated" {
			t.Fatalf("%v: got %d %v", hdr, rec.Code, out)
		}
	}
}

func TestDefine(t *testing.T) {
	var seen extract.CompletionRequest
	p := extract.ProviderFunc(func(_ context.Context, req extract.CompletionRequest) (*extract.Completion, error) {
		seen = req
		return &extract.Completion{
			Content: "```json\n{\"name\":\"Person\",\"fields\":{\"name\":{\"type\":\"string\",\"optional\":false,\"min_length\":2},\"age\":\"integer\"}}\n```",
			Usage:   extract.Usage{PromptTokens: 100, CompletionTokens: 150, TotalTokens: 250},
		}, nil
	})
	body := `{"messages":[{"role":"user","content":"a person"}],"model":"gpt-4o-mini","max_tokens":512}`
	rec, _ := do(t, newServer(t, p), http.MethodPost, "/api/define", body, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("define: %d %s", rec.Code, rec.Body)
	}
	want := `{"data":{"name":"Person","fields":{"name":{"type":"string","optional":false,"min_length":2},"age":"integer"}},"usage":{"prompt_tokens":100,"completion_tokens":150,"total_tokens":250}}`
	var got, exp any
	_ = j.Unmarshal(rec.Body.Bytes(), &got)
	_ = j.Unmarshal([]byte(want), &exp)
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("define response (-want +got):\n%s", diff)
	}
	if !strings.Contains(rec.Body.String(), `"data":{"name":"Person","fields":{"name":`) {
		t.Fatalf("field order should be kept: %s", rec.Body)
	}
	if seen.Credential != "sk-test" || seen.Model != "gpt-4o-mini" || seen.MaxTokens == nil || *seen.MaxTokens != 512 || seen.Temperature != 0 {
		t.Fatalf("unexpected provider request %+v", seen)
	}
}

func TestParse(t *testing.T) {
	p := reply("```json\n{\"age\": 30, \"name\": \"John\", \"extra\": true}\n```", 12)
	body := `{"messages":[{"role":"user","content":[{"type":"text","text":"John, 30"}]}],"schema":` + personSchema + `,"model":"openai/gpt-4o-mini","temperature":0.5}`
	rec, _ := do(t, newServer(t, p), http.MethodPost, "/api/parse", body, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("parse: %d %s", rec.Code, rec.Body)
	}
	if !strings.HasPrefix(rec.Body.String(), `{"data":{"name":"John","age":30}`) {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestParse_InvalidEnvelope(t *testing.T) {
	h := newServer(t, reply("", 0))
	cases := []struct {
		body string
		path string
	}{
		{`{"messages":[],"schema":` + personSchema + `,"model":"m"}`, "/messages"},
		{`{"messages":[{"role":"robot","content":"x"}],"schema":` + personSchema + `,"model":"m"}`, "/messages/0/role"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":` + personSchema + `,"model":"m","temperature":2}`, "/temperature"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":` + personSchema + `,"model":"m","max_attempts":0}`, "/max_attempts"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":` + personSchema + `,"model":"m","temperature":1e999999999}`, "/temperature"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":` + personSchema + `,"model":"m","max_tokens":1e999999999}`, "/max_tokens"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":{"name":"P","fields":{}},"model":"m"}`, "/schema/fields"},
		{`{"messages":[{"role":"user","content":"x"}],"schema":{"name":"P","fields":{"a":{"type":"boolean","pattern":"x"}}},"model":"m"}`, "/schema/fields/a/pattern"},
		{`{"messages":[{"role":"user","content":"x"}],"model":"m"}`, "/schema"},
	}
	for _, tc := range cases {
		rec, out := do(t, h, http.MethodPost, "/api/parse", tc.body, auth)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: got %d %s", tc.body, rec.Code, rec.Body)
		}
		detail, _ := out["detail"].([]any)
		found := false
		for _, d := range detail {
			if d.(map[string]any)["path"] == tc.path {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: no issue at %s in %v", tc.body, tc.path, detail)
		}
	}
}

func TestParse_DuplicateKeys(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"x"}],"model":"a","model":"b","schema":` + personSchema + `}`
	rec, _ := do(t, newServer(t, reply("", 0)), http.MethodPost, "/api/parse", body, auth)
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "duplicate_key") {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
}

func TestParse_DepthLimit(t *testing.T) {
	deep := strings.Repeat("[", 100000) + strings.Repeat("]", 100000)
	body := `{"messages":[{"role":"user","content":"x"}],"model":"m","schema":` + personSchema + `,"extra":` + deep + `}`
	rec, out := do(t, newServer(t, reply("", 0)), http.MethodPost, "/api/parse", body, auth)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
	detail, _ := out["detail"].([]any)
	if len(detail) != 1 {
		t.Fatalf("unexpected detail %v", out)
	}
	d := detail[0].(map[string]any)
	if d["code"] != "parse_error" || d["message"] != "max depth exceeded" || !strings.HasPrefix(d["path"].(string), "/extra/0/0") {
		t.Fatalf("unexpected issue %v", d)
	}
}

func TestProviderStatusIsSurfaced(t *testing.T) {
	calls := 0
	p := extract.ProviderFunc(func(context.Context, extract.CompletionRequest) (*extract.Completion, error) {
		calls++
		return nil, &extract.ProviderError{StatusCode: http.StatusUnauthorized, Message: "invalid api key"}
	})
	body := `{"messages":[{"role":"user","content":"x"}],"model":"m"}`
	rec, _ := do(t, newServer(t, p), http.MethodPost, "/api/define", body, auth)
	if rec.Code != http.StatusUnauthorized || calls != 1 {
		t.Fatalf("got %d after %d calls", rec.Code, calls)
	}
}

func TestExhaustionDetail(t *testing.T) {
	p := reply("```json\n{\"name\": \"John\", \"age\": -3}\n```", 10)
	body := `{"messages":[{"role":"user","content":"x"}],"schema":` + personSchema + `,"model":"m","max_attempts":2}`
	rec, out := do(t, newServer(t, p), http.MethodPost, "/api/parse", body, auth)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("got %d %s", rec.Code, rec.Body)
	}
	detail, ok := out["detail"].(map[string]any)
	if !ok {
		t.Fatalf("detail should be an object: %v", out)
	}
	if detail["n_attempts"] != float64(2) || detail["last_completion"] == nil {
		t.Fatalf("unexpected detail %v", detail)
	}
	usage := detail["total_usage"].(map[string]any)
	if usage["total_tokens"] != float64(20) {
		t.Fatalf("usage should cover both attempts: %v", usage)
	}
	if !strings.Contains(detail["error"].(string), "/age") {
		t.Fatalf("error should name the failing field: %v", detail["error"])
	}
	msgs := detail["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages should be the original conversation: %v", msgs)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := newServer(t, reply("", 0), func(c *config.Config) { c.MaxBodyBytes = 16 })
	rec, _ := do(t, h, http.MethodPost, "/api/define", `{"messages":[{"role":"user","content":"xxxxxxxx"}],"model":"m"}`, auth)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := newServer(t, reply("", 0), func(c *config.Config) { c.CORSOrigins = []string{"https://app.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/parse", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("preflight: %d", rec.Code)
	}
	hdr := rec.Header()
	if hdr.Get("Access-Control-Allow-Origin") != "https://app.example" || hdr.Get("Access-Control-Allow-Credentials") != "true" || hdr.Get("Access-Control-Allow-Headers") != "authorization,content-type" {
		t.Fatalf("unexpected CORS headers %v", hdr)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/parse", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("disallowed preflight: %d", rec.Code)
	}
}
