package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"
)

// Ollama asks a local model to act as an extractive QA oracle.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllama builds a client for baseURL, or for OLLAMA_HOST when empty.
func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	hostURL := envconfig.Host()
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse ollama url: %w", err)
		}
		hostURL = u
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{
		client: api.NewClient(hostURL, httpClient),
		model:  model,
	}, nil
}

// Check verifies the model is present on the server.
func (o *Ollama) Check(ctx context.Context) error {
	if _, err := o.client.Show(ctx, &api.ShowRequest{Model: o.model}); err != nil {
		return fmt.Errorf("show model %s: %w", o.model, ollamaError(err))
	}
	return nil
}

func (o *Ollama) Answer(ctx context.Context, question, passage string) (Answer, error) {
	stream := false
	req := api.GenerateRequest{
		Model:  o.model,
		System: ExtractivePrompt,
		Prompt: BuildPrompt(question, passage),
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
		Options: map[string]any{
			"temperature": 0,
		},
	}

	var responseBuilder strings.Builder
	err := o.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return Answer{}, fmt.Errorf("ollama generate: %w", ollamaError(err))
	}

	return parseLLMAnswer(responseBuilder.String())
}

func ollamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && retryableStatus(statusErr.StatusCode) {
		return &RetryableError{StatusCode: statusErr.StatusCode, Message: statusErr.ErrorMessage}
	}
	return err
}
