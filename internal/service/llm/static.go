package llm

import (
	"context"

	"ai-interview-service/internal/models"
)

// questionBank holds per-stage fallback questions, cycled by response count.
var questionBank = map[string][]string{
	"introduction": {
		"Can you tell me more about your educational background?",
		"What are your key strengths that make you suitable for this role?",
	},
	"technical": {
		"Can you describe a challenging technical problem you've solved?",
		"What technologies are you most proficient in?",
		"How do you stay updated with industry trends?",
	},
	"scenario": {
		"How would you handle a situation where you disagree with your team's approach?",
		"Describe a time when you had to meet a tight deadline.",
	},
	"closing": {
		"What questions do you have about the role or company?",
		"Where do you see yourself in five years?",
	},
}

// Static is the terminal generator: a fixed question bank keyed by stage.
// It is always available and never errors.
type Static struct{}

// NewStatic creates the static question-bank generator.
func NewStatic() *Static {
	return &Static{}
}

func (s *Static) Name() string    { return "static" }
func (s *Static) Available() bool { return true }

// NextTurn picks bank[stage][responseCount % len(bank[stage])]. Stages
// without a bank entry use the introduction questions.
func (s *Static) NextTurn(_ context.Context, req TurnRequest) (*Turn, error) {
	questions, ok := questionBank[req.Stage]
	if !ok {
		questions = questionBank["introduction"]
	}

	return &Turn{
		NextQuestion: questions[req.ResponseCount%len(questions)],
		Analysis: models.Analysis{
			Summary:      "The candidate provided a comprehensive response demonstrating good understanding.",
			Strengths:    []string{"Clear communication", "Relevant experience"},
			AreasToProbe: []string{"Technical depth", "Specific examples"},
		},
	}, nil
}
