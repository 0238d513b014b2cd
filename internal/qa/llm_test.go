package qa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLLMAnswer(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		text  string
		score float64
	}{
		{"plain", `{"answer":"beta","score":0.92}`, "beta", 0.92},
		{"fenced", "```json\n{\"answer\":\" beta \",\"score\":0.5}\n```", "beta", 0.5},
		{"clamped high", `{"answer":"x","score":3}`, "x", 1},
		{"clamped low", `{"answer":"x","score":-1}`, "x", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ans, err := parseLLMAnswer(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ans.Text != tt.text || ans.Score != tt.score {
				t.Errorf("expected %q/%v, got %+v", tt.text, tt.score, ans)
			}
		})
	}

	if _, err := parseLLMAnswer("I think the answer is beta"); err == nil {
		t.Error("expected error for non-json answer")
	}
}

func TestBuildPrompt_ContainsQuestionAndContext(t *testing.T) {
	p := BuildPrompt("What is beta?", "content beta.")
	if !strings.Contains(p, "Question: What is beta?") {
		t.Errorf("expected question in prompt, got %q", p)
	}
	if !strings.Contains(p, "content beta.") {
		t.Errorf("expected context in prompt, got %q", p)
	}
}

func TestOllama_GenerateAndCheck(t *testing.T) {
	var gen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/show":
			_, _ = w.Write([]byte(`{}`))
		case "/api/generate":
			if err := json.NewDecoder(r.Body).Decode(&gen); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			_, _ = w.Write([]byte(`{"model":"llama3","response":"{\"answer\":\"beta\",\"score\":0.8}","done":true}` + "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	o, err := NewOllama(srv.URL, "llama3", srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := o.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	ans, err := o.Answer(context.Background(), "beta", "content beta.")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if ans.Text != "beta" || ans.Score != 0.8 {
		t.Errorf("expected beta/0.8, got %+v", ans)
	}
	if gen["format"] != "json" {
		t.Errorf("expected json format, got %v", gen["format"])
	}
	if gen["stream"] != false {
		t.Errorf("expected stream=false, got %v", gen["stream"])
	}
}

func TestOllama_MissingModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer srv.Close()

	o, _ := NewOllama(srv.URL, "nope", srv.Client())
	if err := o.Check(context.Background()); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestOpenAI_ChatCompletion(t *testing.T) {
	var req map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"answer\":\"beta\",\"score\":0.92}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", srv.URL+"/v1", "gpt-4o-mini")
	ans, err := o.Answer(context.Background(), "beta", "content beta.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "beta" || ans.Score != 0.92 {
		t.Errorf("expected beta/0.92, got %+v", ans)
	}
	rf, _ := req["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Errorf("expected json_object response format, got %v", req["response_format"])
	}
}

func TestOpenAI_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAI("sk-test", srv.URL+"/v1", "gpt-4o-mini").Answer(context.Background(), "q", "c")
	if !IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}

func TestMock_FirstSharedWord(t *testing.T) {
	ans, err := Mock{}.Answer(context.Background(), "What is BETA?", "content beta.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "beta" || ans.Score != 0.5 {
		t.Errorf("expected beta/0.5, got %+v", ans)
	}

	ans, _ = Mock{}.Answer(context.Background(), "gamma", "content beta.")
	if ans.Text != "" || ans.Score != 0 {
		t.Errorf("expected empty answer, got %+v", ans)
	}
}
