package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	openAIModel    = "gpt-4-turbo-preview"
)

// OpenAI implements Generator using the Chat Completions API.
type OpenAI struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI generator. Available only when an API key
// is configured.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:   apiKey,
		endpoint: openAIEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (o *OpenAI) Name() string    { return "openai" }
func (o *OpenAI) Available() bool { return o.apiKey != "" }

type openAIRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) NextTurn(ctx context.Context, req TurnRequest) (*Turn, error) {
	body, err := json.Marshal(openAIRequest{
		Model: openAIModel,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: turnPrompt(req)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, payload)
	}

	var or openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return parseTurn(or.Choices[0].Message.Content)
}
