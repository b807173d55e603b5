package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-pro:generateContent"

// fencedJSON matches a JSON payload wrapped in a markdown code block,
// which Gemini emits despite being asked for bare JSON.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Gemini evaluates transcripts with the Google Generative Language API.
type Gemini struct {
	apiKey     string
	httpClient *http.Client
}

// NewGemini creates a Gemini evaluator. Available only when an API key
// is configured.
func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (g *Gemini) Name() string    { return "gemini" }
func (g *Gemini) Available() bool { return g.apiKey != "" }

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Evaluate sends the evaluation prompt to Gemini and parses the JSON
// evaluation out of the response text.
func (g *Gemini) Evaluate(ctx context.Context, req EvalRequest) (*Evaluation, error) {
	prompt := evaluationSystemPrompt(req) + "\n\n" + evaluationUserPrompt(req.Transcript)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.3,
			MaxOutputTokens: 2000,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiEndpoint+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, payload)
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return parseEvaluation(gr.Candidates[0].Content.Parts[0].Text)
}

// parseEvaluation extracts the evaluation JSON, stripping markdown fences
// when present.
func parseEvaluation(text string) (*Evaluation, error) {
	jsonText := strings.TrimSpace(text)
	if m := fencedJSON.FindStringSubmatch(jsonText); m != nil {
		jsonText = m[1]
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(jsonText), &eval); err != nil {
		return nil, fmt.Errorf("parse evaluation JSON: %w", err)
	}
	if len(eval.Scores) == 0 {
		return nil, fmt.Errorf("evaluation has no category scores")
	}
	return &eval, nil
}

func evaluationSystemPrompt(req EvalRequest) string {
	return fmt.Sprintf(`You are an expert technical interviewer evaluating a candidate's performance in a job interview.

Context:
- Position: %s
- Company: %s
- Experience Level: %s
- Tech Stack: %s
- Interview Duration: %d minutes

Your task is to provide a comprehensive, professional evaluation of the candidate's performance.
Be thorough, specific, and constructive in your feedback. Focus on actual responses from the transcript.

Evaluation Categories:
1. Communication Skills (clarity, articulation, structure)
2. Technical Knowledge (depth, accuracy, practical application)
3. Problem Solving (analytical thinking, approach, creativity)
4. Cultural & Role Fit (alignment, enthusiasm, collaboration)
5. Confidence & Clarity (self-assurance, honesty, professionalism)

For each category, provide:
- A score from 0-100
- Specific feedback with examples from the interview
- 2-3 strengths
- 2-3 areas for improvement

Also provide:
- Overall strengths (3-5 bullet points)
- Key areas for improvement (3-5 bullet points)
- Detailed summary (2-3 paragraphs)
- Specific recommendations for the candidate's growth`,
		req.Position, req.Company, req.Experience,
		strings.Join(req.TechStack, ", "), req.DurationSeconds/60)
}

func evaluationUserPrompt(transcript string) string {
	return fmt.Sprintf(`Please evaluate this interview transcript and provide detailed feedback:

%s

Return your evaluation in the following JSON format:
{
  "scores": [
    {
      "category": "Communication Skills",
      "score": 0-100,
      "feedback": "detailed feedback",
      "strengths": ["strength1", "strength2"],
      "improvements": ["improvement1", "improvement2"]
    }
  ],
  "strengths": ["overall strength 1", "overall strength 2"],
  "improvements": ["improvement area 1", "improvement area 2"],
  "detailedFeedback": "2-3 paragraph detailed analysis",
  "recommendations": ["specific recommendation 1", "specific recommendation 2"]
}`, transcript)
}
