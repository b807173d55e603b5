// Package models defines the data structures for interview sessions,
// responses and feedback.
package models

import "time"

// Session status values.
const (
	StatusActive     = "active"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// InterviewSession is one end-to-end interview attempt by a user.
type InterviewSession struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name,omitempty"`
	Position     string          `json:"position"`
	Company      string          `json:"company"`
	Role         string          `json:"role,omitempty"`
	Difficulty   string          `json:"difficulty,omitempty"`
	Experience   string          `json:"experience"`
	Status       string          `json:"status"`
	Stage        string          `json:"stage"`
	FeedbackID   string          `json:"feedback_id,omitempty"`
	OverallScore int             `json:"overall_score,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	Metadata     SessionMetadata `json:"metadata"`
}

// SessionMetadata is the free-form per-session state updated on every turn.
type SessionMetadata struct {
	SystemPrompt    string  `json:"system_prompt,omitempty"`
	CurrentQuestion string  `json:"current_question,omitempty"`
	Progress        float64 `json:"progress"`
	QuestionCount   int     `json:"question_count"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	TotalQuestions  int     `json:"total_questions,omitempty"`
}

// Analysis is the per-turn evaluation of a candidate answer.
type Analysis struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	AreasToProbe []string `json:"areas_to_probe"`
}

// ResponseRecord is one answer turn within a session. Immutable after
// creation; rows are ordered by timestamp.
type ResponseRecord struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Analysis    Analysis  `json:"analysis"`
	Stage       string    `json:"stage"`
	Timestamp   time.Time `json:"timestamp"`
}

// CategoryScore is a per-category evaluation with a 0-100 score.
type CategoryScore struct {
	Category     string   `json:"category"`
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// FeedbackRecord is the final, one-time scored evaluation of a completed
// session. Created exactly once; never mutated.
type FeedbackRecord struct {
	ID                   string           `json:"id"`
	InterviewID          string           `json:"interview_id"`
	UserID               string           `json:"user_id"`
	OverallScore         int              `json:"overall_score"`
	Scores               []CategoryScore  `json:"scores"`
	Strengths            []string         `json:"strengths"`
	Improvements         []string         `json:"improvements"`
	DetailedFeedback     string           `json:"detailed_feedback"`
	HiringRecommendation string           `json:"hiring_recommendation"`
	Transcript           string           `json:"transcript"`
	DurationSeconds      int              `json:"duration_seconds"`
	Metadata             FeedbackMetadata `json:"metadata"`
	CreatedAt            time.Time        `json:"created_at"`
}

// FeedbackMetadata captures the interview context the feedback was
// generated against.
type FeedbackMetadata struct {
	Position       string   `json:"position"`
	Company        string   `json:"company"`
	Experience     string   `json:"experience"`
	TechStack      []string `json:"techStack"`
	MessageCount   int      `json:"messageCount"`
	EvaluationDate string   `json:"evaluationDate"`
}

// Message is one turn of the interview transcript as submitted by the
// client for feedback generation.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
