package qa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHuggingFace_SendsQuestionAndContext(t *testing.T) {
	var got hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/deepset/roberta-base-squad2" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer hf_test" {
			t.Errorf("expected bearer token, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"beta","score":0.92,"start":8,"end":12}`))
	}))
	defer srv.Close()

	hf := NewHuggingFace(srv.URL+"/", "deepset/roberta-base-squad2", "hf_test", srv.Client())
	ans, err := hf.Answer(context.Background(), "beta", "content beta.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Inputs.Question != "beta" || got.Inputs.Context != "content beta." {
		t.Errorf("unexpected request inputs: %+v", got.Inputs)
	}
	if ans.Text != "beta" || ans.Score != 0.92 {
		t.Errorf("expected beta/0.92, got %+v", ans)
	}
}

func TestHuggingFace_RankedListTakesFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"answer":"first","score":0.7},{"answer":"second","score":0.2}]`))
	}))
	defer srv.Close()

	ans, err := NewHuggingFace(srv.URL, "m", "", srv.Client()).Answer(context.Background(), "q", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "first" {
		t.Errorf("expected first ranked answer, got %q", ans.Text)
	}
}

func TestHuggingFace_StatusHandling(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))

		_, err := NewHuggingFace(srv.URL, "m", "", srv.Client()).Answer(context.Background(), "q", "c")
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tt.status)
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v (%v)", tt.status, tt.retryable, IsRetryable(err), err)
		}
	}
}

func TestHuggingFace_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := NewHuggingFace(srv.URL, "m", "", srv.Client()).Answer(context.Background(), "q", "c"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestHuggingFace_DefaultBaseURL(t *testing.T) {
	hf := NewHuggingFace("", "m", "", nil)
	if hf.baseURL != DefaultHuggingFaceURL {
		t.Errorf("expected default base url, got %q", hf.baseURL)
	}
}
