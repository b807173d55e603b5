package feedback

import (
	"context"
	"fmt"
	"strings"

	"ai-interview-service/internal/models"
)

// evaluationCriteria drives the structured fallback evaluation.
type criterion struct {
	label   string
	factors []string
}

var evaluationCriteria = []criterion{
	{"Communication Skills", []string{"clarity", "articulation", "structure", "active listening"}},
	{"Technical Knowledge", []string{"depth", "accuracy", "practical application", "terminology"}},
	{"Problem Solving", []string{"analytical thinking", "approach", "creativity", "trade-off awareness"}},
	{"Cultural & Role Fit", []string{"alignment", "enthusiasm", "collaboration", "adaptability"}},
	{"Confidence & Clarity", []string{"self-assurance", "honesty", "professionalism", "composure"}},
}

// Structured is the terminal evaluator: a deterministic evaluation
// derived from transcript shape alone, used when no AI provider is
// configured or every one of them failed.
type Structured struct{}

// NewStructured creates the structured fallback evaluator.
func NewStructured() *Structured {
	return &Structured{}
}

func (s *Structured) Name() string    { return "structured" }
func (s *Structured) Available() bool { return true }

// Evaluate scores the transcript from the average candidate response
// length: base score min(70 + avgLen/50, 85), applied to every category.
func (s *Structured) Evaluate(_ context.Context, req EvalRequest) (*Evaluation, error) {
	var candidateLines []string
	for _, line := range strings.Split(req.Transcript, "\n") {
		if strings.HasPrefix(line, "Candidate:") {
			candidateLines = append(candidateLines, line)
		}
	}

	var avgLen float64
	if len(candidateLines) > 0 {
		var total int
		for _, line := range candidateLines {
			total += len(line)
		}
		avgLen = float64(total) / float64(len(candidateLines))
	}

	baseScore := 70 + avgLen/50
	if baseScore > 85 {
		baseScore = 85
	}

	scores := make([]models.CategoryScore, 0, len(evaluationCriteria))
	for _, c := range evaluationCriteria {
		strengths := make([]string, 0, 2)
		for _, f := range c.factors[:2] {
			strengths = append(strengths, "Good "+f)
		}
		improvements := make([]string, 0, 2)
		for _, f := range c.factors[2:4] {
			improvements = append(improvements, "Could improve "+f)
		}
		scores = append(scores, models.CategoryScore{
			Category:     c.label,
			Score:        int(baseScore),
			Feedback:     fmt.Sprintf("The candidate demonstrated %s throughout the interview.", strings.ToLower(c.label)),
			Strengths:    strengths,
			Improvements: improvements,
		})
	}

	return &Evaluation{
		Scores: scores,
		Strengths: []string{
			"Engaged actively throughout the interview",
			"Provided structured responses to questions",
			"Showed interest in the role and company",
			"Maintained professional demeanor",
		},
		Improvements: []string{
			"Could provide more specific technical examples",
			"Expand on problem-solving methodology",
			"Ask more clarifying questions when needed",
		},
		DetailedFeedback: fmt.Sprintf(
			"The candidate completed a %s interview for %s level position. The interview demonstrated solid foundational knowledge and communication skills. The candidate engaged well with the questions and maintained a professional approach throughout the discussion. There are opportunities to strengthen technical depth and provide more specific examples from past experiences.",
			req.Position, req.Experience),
		Recommendations: []string{
			"Practice articulating technical concepts with more precision",
			"Prepare specific examples that demonstrate problem-solving skills",
			"Research the company and role more thoroughly for future interviews",
		},
	}, nil
}
