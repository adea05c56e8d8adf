package llm

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenAIEndpoint is the chat completions URL of the OpenAI API.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// NewOpenAIClient creates a client. An empty endpoint uses the OpenAI API;
// a base URL without a path gets /v1/chat/completions appended.
func NewOpenAIClient(apiKey, model, endpoint string) *OpenAIClient {
	return &OpenAIClient{
		name:     "openai",
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIEndpoint(endpoint),
		client:   newHTTPClient(),
	}
}

func openAIEndpoint(endpoint string) string {
	endpoint = strings.TrimSuffix(endpoint, "/")
	switch {
	case endpoint == "":
		return DefaultOpenAIEndpoint
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}

// WithName registers the client under a different provider name, for
// OpenAI-compatible servers configured under models.providers.
func (c *OpenAIClient) WithName(name string) *OpenAIClient {
	c.name = name
	return c
}

// WithHeaders adds extra request headers.
func (c *OpenAIClient) WithHeaders(h map[string]string) *OpenAIClient {
	c.headers = h
	return c
}

func (c *OpenAIClient) Name() string { return c.name }

// Complete sends a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	body := openAIRequest{
		Model:       c.model,
		Messages:    openAIMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	headers := map[string]string{}
	for k, v := range c.headers {
		headers[k] = v
	}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	var result openAIResponse
	if err := postJSON(ctx, c.client, c.name, c.endpoint, headers, body, &result); err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, &ProviderError{Provider: c.name, Message: "response has no choices"}
	}

	choice := result.Choices[0]
	return &CompletionResponse{
		Content:    choice.Message.Content,
		StopReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  result.Usage.PromptTokens,
			OutputTokens: result.Usage.CompletionTokens,
		},
		Model:    result.Model,
		Provider: c.name,
		Duration: time.Since(start),
	}, nil
}

func openAIMessages(req CompletionRequest) []Message {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	return append(msgs, req.Messages...)
}

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}
