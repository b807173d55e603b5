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
	claudeEndpoint = "https://api.anthropic.com/v1/messages"
	claudeModel    = "claude-3-sonnet-20240229"
	claudeVersion  = "2023-06-01"
)

// Claude implements Generator using the Anthropic Messages API.
type Claude struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClaude creates a Claude generator. Available only when an API key
// is configured.
func NewClaude(apiKey string) *Claude {
	return &Claude{
		apiKey:   apiKey,
		endpoint: claudeEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Claude) Name() string    { return "claude" }
func (c *Claude) Available() bool { return c.apiKey != "" }

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Claude) NextTurn(ctx context.Context, req TurnRequest) (*Turn, error) {
	body, err := json.Marshal(claudeRequest{
		Model:     claudeModel,
		MaxTokens: 1000,
		System:    req.SystemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: turnPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal claude request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", claudeVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("claude request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("claude returned status %d: %s", resp.StatusCode, payload)
	}

	var cr claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decode claude response: %w", err)
	}
	if len(cr.Content) == 0 {
		return nil, fmt.Errorf("claude returned empty content")
	}
	return parseTurn(cr.Content[0].Text)
}
