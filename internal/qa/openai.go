package qa

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI asks an OpenAI-compatible chat model to act as an extractive QA
// oracle.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a client; empty baseURL uses the OpenAI API.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (o *OpenAI) Answer(ctx context.Context, question, passage string) (Answer, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: ExtractivePrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(question, passage)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Answer{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return Answer{}, fmt.Errorf("empty response from openai")
	}
	return parseLLMAnswer(resp.Choices[0].Message.Content)
}

// parseAPIError marks 429/5xx responses retryable.
func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if retryableStatus(apiErr.HTTPStatusCode) {
			return &RetryableError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return fmt.Errorf("openai api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if retryableStatus(reqErr.HTTPStatusCode) {
			return &RetryableError{StatusCode: reqErr.HTTPStatusCode, Message: string(reqErr.Body)}
		}
		return fmt.Errorf("openai request error %d: %s", reqErr.HTTPStatusCode, truncate(string(reqErr.Body), 200))
	}

	return fmt.Errorf("openai request failed: %w", err)
}
