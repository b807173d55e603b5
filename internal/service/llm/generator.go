// Package llm generates the next interview question plus a short
// analysis of the candidate's latest answer, via a ranked chain of
// language-model providers ending in a static question bank.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/service/fallback"
)

// HistoryTurn is one prior question/answer pair.
type HistoryTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TurnRequest carries everything a provider needs to produce the next turn.
type TurnRequest struct {
	SystemPrompt  string
	Transcript    string
	History       []HistoryTurn
	Stage         string
	Experience    string
	ResponseCount int
}

// Turn is the generated next question and per-turn analysis.
type Turn struct {
	NextQuestion string
	Analysis     models.Analysis
}

// Generator produces the next interview turn.
type Generator interface {
	Name() string
	Available() bool
	NextTurn(ctx context.Context, req TurnRequest) (*Turn, error)
}

// Chain is a ranked list of generators tried in priority order. The
// terminal static generator always succeeds, so the workflow never fails
// for lack of an AI provider.
type Chain struct {
	generators []Generator
}

// NewChain builds a chain from generators in priority order.
func NewChain(generators ...Generator) *Chain {
	return &Chain{generators: generators}
}

// NextTurn runs the chain and returns the first successful turn plus the
// name of the generator that produced it.
func (c *Chain) NextTurn(ctx context.Context, req TurnRequest) (*Turn, string, error) {
	return fallback.Run(ctx, "llm", c.generators, func(ctx context.Context, g Generator) (*Turn, error) {
		return g.NextTurn(ctx, req)
	})
}

// turnPrompt is the shared user prompt for the Claude and OpenAI providers.
func turnPrompt(req TurnRequest) string {
	history, _ := json.Marshal(req.History)
	return fmt.Sprintf(`Current stage: %s
Experience level: %s
Conversation history: %s
Latest response: "%s"

Generate the next interview question and analysis. Return JSON with:
- next_question: The next question to ask
- analysis: Brief analysis of the response (2-3 sentences)
- strengths: Array of 1-2 key strengths identified
- areas_to_probe: Array of 1-2 areas to explore further`,
		req.Stage, req.Experience, history, req.Transcript)
}

// turnPayload is the JSON shape both AI providers are asked to return.
type turnPayload struct {
	NextQuestion string   `json:"next_question"`
	Analysis     string   `json:"analysis"`
	Strengths    []string `json:"strengths"`
	AreasToProbe []string `json:"areas_to_probe"`
}

// parseTurn decodes a provider's JSON reply into a Turn.
func parseTurn(content string) (*Turn, error) {
	var payload turnPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("parse turn JSON: %w", err)
	}
	if payload.NextQuestion == "" {
		return nil, fmt.Errorf("turn has no next question")
	}
	return &Turn{
		NextQuestion: payload.NextQuestion,
		Analysis: models.Analysis{
			Summary:      payload.Analysis,
			Strengths:    payload.Strengths,
			AreasToProbe: payload.AreasToProbe,
		},
	}, nil
}
