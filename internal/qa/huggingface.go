package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultHuggingFaceURL is the Inference Providers router for hosted models.
const DefaultHuggingFaceURL = "https://router.huggingface.co/hf-inference"

// HuggingFace calls the hosted question-answering task of a model such as
// deepset/roberta-base-squad2.
type HuggingFace struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewHuggingFace creates a client; empty baseURL uses DefaultHuggingFaceURL.
func NewHuggingFace(baseURL, model, apiKey string, httpClient *http.Client) *HuggingFace {
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HuggingFace{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type hfRequest struct {
	Inputs hfInputs `json:"inputs"`
}

type hfInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type hfAnswer struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

func (h *HuggingFace) Answer(ctx context.Context, question, passage string) (Answer, error) {
	body, err := json.Marshal(hfRequest{Inputs: hfInputs{Question: question, Context: passage}})
	if err != nil {
		return Answer{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/models/"+h.model, bytes.NewReader(body))
	if err != nil {
		return Answer{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return Answer{}, fmt.Errorf("huggingface api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Answer{}, fmt.Errorf("read response: %w", err)
	}

	// 503 is also what the API returns while a cold model is loading.
	if retryableStatus(resp.StatusCode) {
		return Answer{}, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("huggingface api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out hfAnswer
	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// top_k > 1 responses are a ranked list.
		var list []hfAnswer
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Answer{}, fmt.Errorf("decode response: %w", err)
		}
		if len(list) == 0 {
			return Answer{}, fmt.Errorf("empty response from huggingface")
		}
		out = list[0]
	} else if err := json.Unmarshal(trimmed, &out); err != nil {
		return Answer{}, fmt.Errorf("decode response: %w", err)
	}

	return Answer{Text: out.Answer, Score: out.Score}, nil
}

// Close releases resources.
func (h *HuggingFace) Close() {
	h.httpClient.CloseIdleConnections()
}
