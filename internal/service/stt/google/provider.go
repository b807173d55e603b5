// Package google provides a Google Cloud Speech-to-Text provider.
package google

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// Provider implements stt.Provider using Google Cloud Speech-to-Text.
type Provider struct {
	client *speech.Client
}

// New creates a Google STT provider authenticated by API key.
func New(ctx context.Context, apiKey string) (*Provider, error) {
	c, err := speech.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Provider{client: c}, nil
}

func (p *Provider) Name() string    { return "google" }
func (p *Provider) Available() bool { return p.client != nil }

// Transcribe runs one-shot recognition over the recording. Browser
// recordings arrive as WebM/Opus at 48 kHz.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := p.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz:            48000,
			LanguageCode:               "en-US",
			EnableAutomaticPunctuation: true,
			Model:                      "latest_long",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google recognize: %w", err)
	}

	if len(resp.Results) == 0 || len(resp.Results[0].Alternatives) == 0 {
		return "", fmt.Errorf("google recognize returned no results")
	}
	return resp.Results[0].Alternatives[0].Transcript, nil
}

// Close releases the underlying client connection.
func (p *Provider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
