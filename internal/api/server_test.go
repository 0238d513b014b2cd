package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/qa"
)

type stubOracle struct {
	answer qa.Answer
	err    error
	calls  int
}

func (o *stubOracle) Answer(ctx context.Context, question, passage string) (qa.Answer, error) {
	o.calls++
	return o.answer, o.err
}

func testConfig() config.Config {
	return config.Config{
		MaxUploadBytes: 1024,
		ChunkSize:      config.ChunkSizeConfig{Default: 200, Min: 100, Max: 500, Step: 50},
	}
}

func newTestServer(t *testing.T, oracle pipeline.Answerer, cfg config.Config) *Server {
	t.Helper()
	log := zaptest.NewLogger(t)
	orch := pipeline.NewOrchestrator(oracle, pipeline.OptionsFromConfig(cfg, log))
	adapter := qa.NewAdapter(qa.Mock{}, qa.AdapterConfig{Provider: "mock", Model: "none"})
	return NewServer(orch, adapter, log, cfg)
}

func do(t *testing.T, srv http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func createSession(t *testing.T, srv http.Handler) string {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/sessions", nil, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		SessionID string `json:"session_id"`
		State     string `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.State != "idle" {
		t.Errorf("expected idle, got %q", out.State)
	}
	return out.SessionID
}

func multipartFile(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func upload(t *testing.T, srv http.Handler, id, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartFile(t, filename, content)
	return do(t, srv, http.MethodPost, "/api/sessions/"+id+"/document", body, ct)
}

func ask(t *testing.T, srv http.Handler, id, payload string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, http.MethodPost, "/api/sessions/"+id+"/ask", []byte(payload), "application/json")
}

func decodeFailure(t *testing.T, rr *httptest.ResponseRecorder) failureBody {
	t.Helper()
	var f failureBody
	if err := json.Unmarshal(rr.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode failure: %v (%s)", err, rr.Body.String())
	}
	return f
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubOracle{}, testConfig())
	rr := do(t, srv, http.MethodGet, "/health", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "ok") {
		t.Errorf("unexpected health response %d %s", rr.Code, rr.Body.String())
	}
}

func TestUploadAndAsk(t *testing.T) {
	oracle := &stubOracle{answer: qa.Answer{Text: "beta", Score: 0.92}}
	srv := newTestServer(t, oracle, testConfig())
	id := createSession(t, srv)

	rr := upload(t, srv, id, "notes.txt", "Chunk A content alpha. Chunk B content beta.")
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap pipeline.SessionSnapshot
	json.Unmarshal(rr.Body.Bytes(), &snap)
	if snap.State != pipeline.StateDocumentLoaded || !snap.HasText || snap.Words != 8 {
		t.Errorf("unexpected snapshot after upload: %+v", snap)
	}

	rr = ask(t, srv, id, `{"question":"beta."}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		State  pipeline.State  `json:"state"`
		Result pipeline.Result `json:"result"`
	}
	json.Unmarshal(rr.Body.Bytes(), &out)
	if out.State != pipeline.StateAnswered {
		t.Errorf("expected answered, got %s", out.State)
	}
	if out.Result.Answer != "beta" || out.Result.Confidence != "0.920" {
		t.Errorf("expected beta with confidence 0.920 by default, got %+v", out.Result)
	}

	rr = ask(t, srv, id, `{"question":"beta.","show_confidence":false}`)
	out.Result = pipeline.Result{}
	json.Unmarshal(rr.Body.Bytes(), &out)
	if out.Result.Confidence != "" {
		t.Errorf("expected confidence hidden, got %q", out.Result.Confidence)
	}
}

func TestAsk_FailureStatuses(t *testing.T) {
	tests := []struct {
		name    string
		oracle  *stubOracle
		upload  string
		payload string
		code    int
		kind    string
	}{
		{"blank question", &stubOracle{}, "alpha beta", `{"question":"  "}`, http.StatusUnprocessableEntity, "invalid_input"},
		{"empty document", &stubOracle{}, "", `{"question":"alpha"}`, http.StatusUnprocessableEntity, "invalid_input"},
		{"no overlap", &stubOracle{}, "alpha beta", `{"question":"gamma"}`, http.StatusNotFound, "no_relevant_chunk"},
		{"punctuation kept", &stubOracle{}, "content beta.", `{"question":"beta"}`, http.StatusNotFound, "no_relevant_chunk"},
		{"bad chunk size", &stubOracle{}, "alpha beta", `{"question":"alpha","chunk_size":125}`, http.StatusBadRequest, "invalid_argument"},
		{"oracle down", &stubOracle{err: errors.Join(qa.ErrOracleUnavailable, errors.New("timeout"))}, "alpha beta", `{"question":"alpha"}`, http.StatusServiceUnavailable, "oracle_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.oracle, testConfig())
			id := createSession(t, srv)
			if rr := upload(t, srv, id, "doc.txt", tt.upload); rr.Code != http.StatusOK {
				t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
			}

			rr := ask(t, srv, id, tt.payload)
			if rr.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rr.Code, rr.Body.String())
			}
			f := decodeFailure(t, rr)
			if f.Error != tt.kind {
				t.Errorf("expected error %q, got %q", tt.kind, f.Error)
			}
			if f.Message == "" {
				t.Error("expected a user-visible message")
			}
		})
	}
}

func TestAsk_InvalidInputSkipsOracle(t *testing.T) {
	oracle := &stubOracle{}
	srv := newTestServer(t, oracle, testConfig())
	id := createSession(t, srv)

	rr := ask(t, srv, id, `{"question":"anything"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if f := decodeFailure(t, rr); f.State != pipeline.StateFailed {
		t.Errorf("expected failed state, got %s", f.State)
	}
	if oracle.calls != 0 {
		t.Errorf("expected oracle not to be called, got %d", oracle.calls)
	}
}

func TestAsk_MalformedJSON(t *testing.T) {
	srv := newTestServer(t, &stubOracle{}, testConfig())
	id := createSession(t, srv)
	if rr := ask(t, srv, id, `{"question":`); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestUpload_Rejections(t *testing.T) {
	srv := newTestServer(t, &stubOracle{}, testConfig())
	id := createSession(t, srv)

	if rr := upload(t, srv, id, "image.png", "png"); rr.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", rr.Code)
	}
	if rr := upload(t, srv, id, "big.txt", strings.Repeat("a", 2048)); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("too large: expected 413, got %d", rr.Code)
	}
	if rr := upload(t, srv, id, "broken.pdf", "not a pdf"); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unreadable: expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/document", []byte("x"), "text/plain"); rr.Code != http.StatusBadRequest {
		t.Errorf("non-multipart: expected 400, got %d", rr.Code)
	}
}

func TestDocumentTextAndSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubOracle{}, testConfig())
	id := createSession(t, srv)
	upload(t, srv, id, "notes.txt", "first page\n\nsecond page")

	rr := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/document/text", nil, "")
	var out map[string]string
	json.Unmarshal(rr.Body.Bytes(), &out)
	if out["text"] != "first page\nsecond page\n" {
		t.Errorf("unexpected extracted text %q", out["text"])
	}

	rr = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get session: expected 200, got %d", rr.Code)
	}

	if rr = do(t, srv, http.MethodDelete, "/api/sessions/"+id, nil, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/sessions/"+id, nil, "")
	if rr.Code != http.StatusNotFound || !strings.Contains(rr.Body.String(), "session_not_found") {
		t.Errorf("expected session_not_found, got %d %s", rr.Code, rr.Body.String())
	}
	if rr = ask(t, srv, id, `{"question":"x"}`); rr.Code != http.StatusNotFound {
		t.Errorf("ask on deleted session: expected 404, got %d", rr.Code)
	}
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "secret"
	srv := newTestServer(t, &stubOracle{}, cfg)

	if rr := do(t, srv, http.MethodPost, "/api/sessions", nil, ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("missing key: expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", http.NoBody)
	req.Header.Set("Authorization", "Bearer wrong")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/sessions", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("right key: expected 201, got %d", rr.Code)
	}

	if rr := do(t, srv, http.MethodGet, "/health", nil, ""); rr.Code != http.StatusOK {
		t.Errorf("health should stay public, got %d", rr.Code)
	}
}

func TestOracleStatsAndMetrics(t *testing.T) {
	srv := newTestServer(t, &stubOracle{}, testConfig())

	rr := do(t, srv, http.MethodGet, "/api/stats/oracle", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rr.Code)
	}
	var out map[string]any
	json.Unmarshal(rr.Body.Bytes(), &out)
	if out["provider"] != "mock" || out["model"] != "none" {
		t.Errorf("unexpected stats body %v", out)
	}

	rr = do(t, srv, http.MethodGet, "/metrics", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "docqa_http_requests_total") {
		t.Errorf("expected prometheus metrics, got %d", rr.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"notes.txt":          "notes.txt",
		"../../etc/passwd":   "passwd",
		"dir/sub/report.pdf": "report.pdf",
		"":                   "unnamed",
		"a..b.md":            "a_b.md",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestAsk_LogsCarrySessionAndRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	cfg := testConfig()
	oracle := &stubOracle{err: errors.Join(qa.ErrOracleUnavailable, errors.New("timeout"))}
	orch := pipeline.NewOrchestrator(oracle, pipeline.OptionsFromConfig(cfg, log))
	srv := NewServer(orch, qa.NewAdapter(qa.Mock{}, qa.AdapterConfig{}), log, cfg)

	id := createSession(t, srv)
	upload(t, srv, id, "doc.txt", "alpha beta")
	if rr := ask(t, srv, id, `{"question":"alpha"}`); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	entries := logs.FilterMessage("oracle unavailable").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 oracle unavailable entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["session_id"] != id {
		t.Errorf("expected session_id %q, got %v", id, fields["session_id"])
	}
	if rid, _ := fields["request_id"].(string); rid == "" {
		t.Errorf("expected a request_id field, got %v", fields["request_id"])
	}
}
