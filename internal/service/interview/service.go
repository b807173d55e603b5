package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-interview-service/internal/events"
	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/feedback"
	"ai-interview-service/internal/service/llm"
	"ai-interview-service/internal/service/stage"
	"ai-interview-service/internal/store"
)

// ErrInvalidRequest marks client input errors. Handlers map it to 400.
var ErrInvalidRequest = errors.New("invalid request")

// systemPromptTemplate is rendered into each session's metadata at start.
const systemPromptTemplate = `You are an AI interviewer conducting a professional voice-based job interview. ` +
	`The candidate's name is {{name}}, applying for {{position}} at {{company}}, with {{experience}} experience. ` +
	`Ask one question at a time, adapting to the user's previous answer and experience level. ` +
	`Keep tone natural and professional. Follow the stages introduction, technical, scenario, and closing. ` +
	`Generate contextually relevant follow-up questions. ` +
	`Return structured JSON output containing the next question, short analysis of the last response, and stage label.`

// Store is the persistence surface the workflow depends on.
type Store interface {
	CreateSession(ctx context.Context, s *models.InterviewSession) error
	GetSession(ctx context.Context, id string) (*models.InterviewSession, error)
	ListResponses(ctx context.Context, interviewID string) ([]models.ResponseRecord, error)
	InsertResponse(ctx context.Context, r *models.ResponseRecord) error
	UpdateSessionProgress(ctx context.Context, id, stage string, progress float64, questionCount int, nextQuestion string) error
	SaveFeedback(ctx context.Context, fb *models.FeedbackRecord) error
	ListSessions(ctx context.Context, userID string, q store.HistoryQuery) ([]models.InterviewSession, int, error)
}

// Transcriber is the transcription chain surface.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (transcript, provider string, err error)
}

// TurnGenerator is the question-generation chain surface.
type TurnGenerator interface {
	NextTurn(ctx context.Context, req llm.TurnRequest) (turn *llm.Turn, provider string, err error)
}

// TranscriptEvaluator is the feedback-evaluation chain surface.
type TranscriptEvaluator interface {
	Evaluate(ctx context.Context, req feedback.EvalRequest) (eval *feedback.Evaluation, evaluator string, err error)
}

// Service runs the interview workflow. It holds no per-interview state;
// each request reconstructs what it needs from persisted rows.
type Service struct {
	store       Store
	transcriber Transcriber
	generator   TurnGenerator
	evaluator   TranscriptEvaluator
	publisher   *events.Publisher
	metrics     *metrics.Metrics
}

// New creates the workflow service.
func New(st Store, transcriber Transcriber, generator TurnGenerator, evaluator TranscriptEvaluator, publisher *events.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		store:       st,
		transcriber: transcriber,
		generator:   generator,
		evaluator:   evaluator,
		publisher:   publisher,
		metrics:     m,
	}
}

// StartRequest creates a new interview session.
type StartRequest struct {
	UserID     string   `json:"user_id"`
	UserName   string   `json:"user_name"`
	Company    string   `json:"company"`
	Position   string   `json:"position"`
	Role       string   `json:"role"`
	Difficulty string   `json:"difficulty"`
	Experience string   `json:"experience"`
	TechStack  []string `json:"tech_stack"`
}

// StartResult is the created session plus the opening question.
type StartResult struct {
	Session       *models.InterviewSession `json:"session"`
	FirstQuestion string                   `json:"first_question"`
}

// Start creates a session in the collecting state and returns the first
// question for the candidate's experience level.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	opening := firstQuestion(req)
	session := &models.InterviewSession{
		ID:         fmt.Sprintf("voice_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		UserID:     req.UserID,
		UserName:   req.UserName,
		Company:    req.Company,
		Position:   req.Position,
		Role:       req.Role,
		Difficulty: req.Difficulty,
		Experience: req.Experience,
		Status:     models.StatusActive,
		Stage:      string(stage.Introduction),
		StartedAt:  now,
		CreatedAt:  now,
		Metadata: models.SessionMetadata{
			SystemPrompt: renderSystemPrompt(req),
			// The pending question the next answer will respond to.
			CurrentQuestion: opening,
		},
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.metrics.RecordSessionStarted()
	sessionLogger := logging.WithSession(session.ID, session.UserID)
	sessionLogger.Info().
		Str("position", session.Position).
		Str("company", session.Company).
		Msg("Interview session started")

	return &StartResult{
		Session:       session,
		FirstQuestion: opening,
	}, nil
}

// TurnResult is the outcome of one processed audio response.
type TurnResult struct {
	ResponseID   string          `json:"response_id"`
	Transcript   string          `json:"transcript"`
	Analysis     models.Analysis `json:"analysis"`
	NextQuestion string          `json:"next_question"`
	Stage        string          `json:"stage"`
	Progress     float64         `json:"progress"`
}

// ProcessAudio runs one turn: transcribe the recording, estimate the
// stage, generate the next question, persist the response and the
// updated session progress.
//
// Concurrent submissions for the same session are not serialized; the
// progress update is last writer wins at the database.
func (s *Service) ProcessAudio(ctx context.Context, sessionID string, audio []byte) (*TurnResult, error) {
	start := time.Now()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !LifecycleFromStatus(session.Status).CanRecordResponse() {
		return nil, ErrAlreadyCompleted
	}

	transcript, sttProvider, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	s.metrics.RecordTranscription(sttProvider)
	if sttProvider == "mock" {
		providerLogger := logging.WithProvider(sessionID, sttProvider)
		providerLogger.Warn().
			Msg("All transcription providers failed or unconfigured, serving mock transcript")
	}

	previous, err := s.store.ListResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// 1-based count including the response just submitted
	responseCount := len(previous) + 1
	st, progress := stage.ForResponseCount(responseCount)

	history := make([]llm.HistoryTurn, 0, len(previous))
	for _, r := range previous {
		history = append(history, llm.HistoryTurn{Question: r.Question, Answer: r.Answer})
	}

	turn, llmProvider, err := s.generator.NextTurn(ctx, llm.TurnRequest{
		SystemPrompt:  session.Metadata.SystemPrompt,
		Transcript:    transcript,
		History:       history,
		Stage:         string(st),
		Experience:    session.Experience,
		ResponseCount: responseCount,
	})
	if err != nil {
		return nil, fmt.Errorf("generate next turn: %w", err)
	}
	s.metrics.RecordTurnGenerated(llmProvider)

	// The question this answer was responding to, persisted by Start or
	// by the previous turn's progress update.
	currentQuestion := session.Metadata.CurrentQuestion

	record := &models.ResponseRecord{
		ID:          uuid.NewString(),
		InterviewID: sessionID,
		Question:    currentQuestion,
		Answer:      transcript,
		Analysis:    turn.Analysis,
		Stage:       string(st),
		Timestamp:   time.Now().UTC(),
	}
	if err := s.store.InsertResponse(ctx, record); err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}

	if err := s.store.UpdateSessionProgress(ctx, sessionID, string(st), progress, responseCount, turn.NextQuestion); err != nil {
		return nil, fmt.Errorf("update session progress: %w", err)
	}

	// Best effort; publish failures must not fail the turn.
	_ = s.publisher.PublishResponse(ctx, sessionID, events.ResponseRecorded{
		EventType:     "interview.response.recorded",
		InterviewID:   sessionID,
		ResponseID:    record.ID,
		Stage:         string(st),
		Progress:      progress,
		ResponseCount: responseCount,
		Provider:      sttProvider,
		Timestamp:     time.Now().UnixMilli(),
	})

	s.metrics.RecordResponseProcessed(time.Since(start).Seconds())
	sessionLogger := logging.WithSession(sessionID, session.UserID)
	sessionLogger.Info().
		Str("stage", string(st)).
		Float64("progress", progress).
		Int("responseCount", responseCount).
		Str("sttProvider", sttProvider).
		Str("llmProvider", llmProvider).
		Msg("Response processed")

	return &TurnResult{
		ResponseID:   record.ID,
		Transcript:   transcript,
		Analysis:     turn.Analysis,
		NextQuestion: turn.NextQuestion,
		Stage:        string(st),
		Progress:     progress,
	}, nil
}

// FeedbackRequest is the client's request to evaluate a finished interview.
type FeedbackRequest struct {
	InterviewID string           `json:"interviewId"`
	UserID      string           `json:"userId"`
	Messages    []models.Message `json:"messages"`
	Position    string           `json:"position"`
	Company     string           `json:"company"`
	Experience  string           `json:"experience"`
	TechStack   []string         `json:"techStack"`
	Duration    int              `json:"duration"`
}

// Validate checks required fields before any persistence work happens.
func (r *FeedbackRequest) Validate() error {
	if r.InterviewID == "" || r.UserID == "" || len(r.Messages) == 0 {
		return fmt.Errorf("%w: missing required fields", ErrInvalidRequest)
	}
	return nil
}

// FeedbackResult is returned to the client after feedback is persisted.
type FeedbackResult struct {
	Success              bool   `json:"success"`
	FeedbackID           string `json:"feedbackId"`
	OverallScore         int    `json:"overallScore"`
	HiringRecommendation string `json:"hiringRecommendation"`
}

// GenerateFeedback runs the evaluating → completed transition: evaluate
// the transcript, aggregate scores, and persist the feedback record
// together with the session completion in a single transaction.
func (s *Service) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*FeedbackResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	session, err := s.store.GetSession(ctx, req.InterviewID)
	if err != nil {
		return nil, err
	}

	// Completion is owned here: a session that already completed cannot
	// be evaluated again, regardless of what the stage estimate says.
	lifecycle := LifecycleFromStatus(session.Status)
	if err := lifecycle.BeginEvaluation(); err != nil {
		return nil, err
	}

	transcript := formatTranscript(req.Messages)

	eval, evaluator, err := s.evaluator.Evaluate(ctx, feedback.EvalRequest{
		Transcript:      transcript,
		Position:        req.Position,
		Company:         req.Company,
		Experience:      req.Experience,
		TechStack:       req.TechStack,
		DurationSeconds: req.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate transcript: %w", err)
	}

	overall := feedback.OverallScore(eval.Scores)
	recommendation := feedback.HiringRecommendation(overall)

	now := time.Now().UTC()
	record := &models.FeedbackRecord{
		ID:                   uuid.NewString(),
		InterviewID:          req.InterviewID,
		UserID:               req.UserID,
		OverallScore:         overall,
		Scores:               eval.Scores,
		Strengths:            eval.Strengths,
		Improvements:         eval.Improvements,
		DetailedFeedback:     eval.DetailedFeedback,
		HiringRecommendation: recommendation,
		Transcript:           transcript,
		DurationSeconds:      req.Duration,
		Metadata: models.FeedbackMetadata{
			Position:       req.Position,
			Company:        req.Company,
			Experience:     req.Experience,
			TechStack:      req.TechStack,
			MessageCount:   len(req.Messages),
			EvaluationDate: now.Format(time.RFC3339),
		},
		CreatedAt: now,
	}

	// Single transaction: the feedback row and the session completion
	// cannot diverge on partial failure.
	if err := s.store.SaveFeedback(ctx, record); err != nil {
		return nil, fmt.Errorf("save feedback: %w", err)
	}
	if err := lifecycle.Complete(); err != nil {
		return nil, err
	}

	_ = s.publisher.PublishFeedback(ctx, req.InterviewID, events.FeedbackGenerated{
		EventType:            "interview.feedback.generated",
		InterviewID:          req.InterviewID,
		FeedbackID:           record.ID,
		UserID:               req.UserID,
		OverallScore:         overall,
		HiringRecommendation: recommendation,
		Evaluator:            evaluator,
		Timestamp:            now.UnixMilli(),
	})

	s.metrics.RecordFeedback(evaluator, overall)
	sessionLogger := logging.WithSession(req.InterviewID, req.UserID)
	sessionLogger.Info().
		Int("overallScore", overall).
		Str("evaluator", evaluator).
		Msg("Feedback generated, interview completed")

	return &FeedbackResult{
		Success:              true,
		FeedbackID:           record.ID,
		OverallScore:         overall,
		HiringRecommendation: recommendation,
	}, nil
}

// Pagination describes one page of history results.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Statistics summarizes the returned page of sessions.
type Statistics struct {
	TotalInterviews      int `json:"totalInterviews"`
	CompletedInterviews  int `json:"completedInterviews"`
	InProgressInterviews int `json:"inProgressInterviews"`
	AverageScore         int `json:"averageScore"`
	TotalDuration        int `json:"totalDuration"`
	TotalQuestions       int `json:"totalQuestions"`
}

// HistoryResult is one page of a user's interview history.
type HistoryResult struct {
	Sessions   []models.InterviewSession `json:"sessions"`
	Pagination Pagination                `json:"pagination"`
	Statistics Statistics                `json:"statistics"`
}

// History returns a paginated, filtered session list plus aggregate
// statistics over the returned page.
func (s *Service) History(ctx context.Context, userID string, q store.HistoryQuery) (*HistoryResult, error) {
	q.Normalize()

	sessions, total, err := s.store.ListSessions(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	stats := Statistics{TotalInterviews: total}
	var scoreSum int
	for _, session := range sessions {
		if session.Status == models.StatusCompleted {
			stats.CompletedInterviews++
			scoreSum += session.OverallScore
			stats.TotalDuration += session.Metadata.DurationMinutes
			stats.TotalQuestions += session.Metadata.TotalQuestions
		} else {
			stats.InProgressInterviews++
		}
	}
	if stats.CompletedInterviews > 0 {
		stats.AverageScore = (scoreSum + stats.CompletedInterviews/2) / stats.CompletedInterviews
	}

	totalPages := (total + q.PageSize - 1) / q.PageSize
	if sessions == nil {
		sessions = []models.InterviewSession{}
	}
	return &HistoryResult{
		Sessions: sessions,
		Pagination: Pagination{
			Page:       q.Page,
			PageSize:   q.PageSize,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    total > q.Page*q.PageSize,
		},
		Statistics: stats,
	}, nil
}

// formatTranscript renders the message list as labeled turns.
func formatTranscript(messages []models.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "Candidate"
		if msg.Role == "assistant" {
			speaker = "Interviewer"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n\n")
}

func renderSystemPrompt(req StartRequest) string {
	r := strings.NewReplacer(
		"{{name}}", req.UserName,
		"{{position}}", req.Position,
		"{{company}}", req.Company,
		"{{experience}}", req.Experience,
	)
	return r.Replace(systemPromptTemplate)
}

// firstQuestion returns the opening question for the candidate's
// experience level.
func firstQuestion(req StartRequest) string {
	switch req.Experience {
	case "mid":
		return fmt.Sprintf("Good to meet you, %s. Thank you for your interest in the %s role at %s. With your experience level, I'm curious to hear about your career journey. Could you walk me through your relevant experience and what brings you to this opportunity?",
			req.UserName, req.Position, req.Company)
	case "senior":
		return fmt.Sprintf("Welcome %s. I appreciate you taking the time to discuss the %s position at %s. Given your senior-level experience, I'd like to start by understanding your leadership philosophy and how you've applied it in your recent roles.",
			req.UserName, req.Position, req.Company)
	case "lead":
		return fmt.Sprintf("Hello %s, thank you for considering the %s role at %s. As someone with extensive experience, I'm interested in your strategic vision. Could you share how you've driven organizational change and innovation in your previous positions?",
			req.UserName, req.Position, req.Company)
	default:
		return fmt.Sprintf("Hello %s! Welcome to your interview for the %s position at %s. I'm excited to learn about your background and aspirations. To start, could you tell me what attracted you to this role and %s?",
			req.UserName, req.Position, req.Company, req.Company)
	}
}
