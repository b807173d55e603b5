// Package whisper provides an OpenAI Whisper speech-to-text provider.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const transcriptionEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// Provider implements stt.Provider using the OpenAI Whisper API.
type Provider struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// New creates a Whisper provider. Available only when an API key is
// configured.
func New(apiKey string) *Provider {
	return &Provider{
		apiKey:   apiKey,
		endpoint: transcriptionEndpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (p *Provider) Name() string    { return "whisper" }
func (p *Provider) Available() bool { return p.apiKey != "" }

// Transcribe uploads the audio as a multipart form and returns the
// transcript text.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", "audio.webm")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.WriteField("model", "whisper-1"); err != nil {
		return "", err
	}
	if err := form.WriteField("language", "en"); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("whisper returned status %d: %s", resp.StatusCode, payload)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	if result.Text == "" {
		return "", fmt.Errorf("whisper returned empty transcript")
	}
	return result.Text, nil
}
