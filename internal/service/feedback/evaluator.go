package feedback

import (
	"context"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/service/fallback"
)

// EvalRequest carries the interview context the evaluation runs against.
type EvalRequest struct {
	Transcript      string
	Position        string
	Company         string
	Experience      string
	TechStack       []string
	DurationSeconds int
}

// Evaluation is the raw AI evaluation before aggregation.
type Evaluation struct {
	Scores           []models.CategoryScore `json:"scores"`
	Strengths        []string               `json:"strengths"`
	Improvements     []string               `json:"improvements"`
	DetailedFeedback string                 `json:"detailedFeedback"`
	Recommendations  []string               `json:"recommendations"`
}

// Evaluator produces a transcript evaluation. Implementations are ranked
// in a fallback chain ending in the structured evaluator, so evaluation
// as a whole never fails.
type Evaluator interface {
	Name() string
	Available() bool
	Evaluate(ctx context.Context, req EvalRequest) (*Evaluation, error)
}

// Chain is a ranked list of evaluators tried in order.
type Chain struct {
	evaluators []Evaluator
}

// NewChain builds the evaluator chain: Gemini when configured, then the
// deterministic structured evaluator as the terminal member.
func NewChain(geminiAPIKey string) *Chain {
	return &Chain{
		evaluators: []Evaluator{
			NewGemini(geminiAPIKey),
			NewStructured(),
		},
	}
}

// NewChainWith builds a chain from explicit evaluators, in priority order.
func NewChainWith(evaluators ...Evaluator) *Chain {
	return &Chain{evaluators: evaluators}
}

// Evaluate runs the chain and returns the first successful evaluation
// plus the name of the evaluator that produced it.
func (c *Chain) Evaluate(ctx context.Context, req EvalRequest) (*Evaluation, string, error) {
	return fallback.Run(ctx, "feedback", c.evaluators, func(ctx context.Context, e Evaluator) (*Evaluation, error) {
		return e.Evaluate(ctx, req)
	})
}
