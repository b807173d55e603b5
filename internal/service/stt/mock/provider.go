// Package mock provides a mock STT provider for running without cloud
// credentials. It is the terminal member of the transcription chain.
package mock

import "context"

// Transcript is the canned transcript returned for every recording.
const Transcript = "This is a sample response from the candidate discussing their experience and qualifications for the position."

// Provider implements stt.Provider with a fixed transcript. It is always
// available and never errors, so the transcription chain as a whole
// always succeeds.
type Provider struct{}

// New creates the mock provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string    { return "mock" }
func (p *Provider) Available() bool { return true }

func (p *Provider) Transcribe(_ context.Context, _ []byte) (string, error) {
	return Transcript, nil
}
