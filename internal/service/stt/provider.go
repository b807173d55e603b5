// Package stt defines the interface for speech-to-text providers.
package stt

import (
	"context"

	"ai-interview-service/internal/service/fallback"
)

// Provider transcribes a complete audio recording in one shot.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Available reports whether the provider is configured and usable.
	Available() bool

	// Transcribe converts the audio bytes to a transcript string.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Chain is a ranked list of providers tried in priority order. The chain
// is expected to terminate in the mock provider, so transcription as a
// whole always yields some transcript.
type Chain struct {
	providers []Provider
}

// NewChain builds a chain from providers in priority order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Transcribe runs the chain and returns the transcript plus the name of
// the provider that produced it.
func (c *Chain) Transcribe(ctx context.Context, audio []byte) (string, string, error) {
	return fallback.Run(ctx, "stt", c.providers, func(ctx context.Context, p Provider) (string, error) {
		return p.Transcribe(ctx, audio)
	})
}
