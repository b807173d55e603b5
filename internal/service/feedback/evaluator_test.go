package feedback

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type failingEvaluator struct {
	calls int
}

func (f *failingEvaluator) Name() string    { return "failing" }
func (f *failingEvaluator) Available() bool { return true }
func (f *failingEvaluator) Evaluate(context.Context, EvalRequest) (*Evaluation, error) {
	f.calls++
	return nil, errors.New("upstream unavailable")
}

func TestChain_FallsBackToStructured(t *testing.T) {
	failing := &failingEvaluator{}
	chain := NewChainWith(failing, NewStructured())

	eval, name, err := chain.Evaluate(context.Background(), EvalRequest{
		Transcript: "Interviewer: Hello\n\nCandidate: I have five years of Go experience.",
		Position:   "Backend Engineer",
		Experience: "mid",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "structured" {
		t.Errorf("expected structured evaluator to answer, got %s", name)
	}
	if failing.calls != 1 {
		t.Errorf("expected failing evaluator to be tried once, got %d", failing.calls)
	}
	if len(eval.Scores) != 5 {
		t.Errorf("expected 5 category scores, got %d", len(eval.Scores))
	}
}

func TestChain_UnconfiguredGeminiSkipped(t *testing.T) {
	chain := NewChain("")

	_, name, err := chain.Evaluate(context.Background(), EvalRequest{Transcript: "Candidate: hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "structured" {
		t.Errorf("expected structured evaluator, got %s", name)
	}
}

func TestStructured_ScoreBounds(t *testing.T) {
	s := NewStructured()

	long := "Candidate: " + strings.Repeat("a very long and detailed answer ", 100)
	eval, err := s.Evaluate(context.Background(), EvalRequest{Transcript: long})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, cs := range eval.Scores {
		if cs.Score != 85 {
			t.Errorf("expected long answers to cap at 85, got %d for %s", cs.Score, cs.Category)
		}
	}

	eval, err = s.Evaluate(context.Background(), EvalRequest{Transcript: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, cs := range eval.Scores {
		if cs.Score != 70 {
			t.Errorf("expected empty transcript base score 70, got %d for %s", cs.Score, cs.Category)
		}
	}
}

func TestParseEvaluation_MarkdownFences(t *testing.T) {
	payload := "```json\n{\"scores\":[{\"category\":\"Technical Knowledge\",\"score\":75,\"feedback\":\"ok\",\"strengths\":[],\"improvements\":[]}],\"strengths\":[],\"improvements\":[],\"detailedFeedback\":\"fine\",\"recommendations\":[]}\n```"

	eval, err := parseEvaluation(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.Scores) != 1 || eval.Scores[0].Score != 75 {
		t.Errorf("unexpected evaluation: %+v", eval)
	}
}

func TestParseEvaluation_InvalidJSON(t *testing.T) {
	if _, err := parseEvaluation("not json at all"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseEvaluation_EmptyScores(t *testing.T) {
	if _, err := parseEvaluation(`{"scores":[]}`); err == nil {
		t.Error("expected error for evaluation without scores")
	}
}
