package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ai-interview-service/internal/events"
	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/feedback"
	"ai-interview-service/internal/service/llm"
	"ai-interview-service/internal/service/stt"
	sttmock "ai-interview-service/internal/service/stt/mock"
	"ai-interview-service/internal/store"
)

// fakeStore is an in-memory Store for workflow tests.
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string]*models.InterviewSession
	responses map[string][]models.ResponseRecord
	feedback  map[string]*models.FeedbackRecord

	insertResponseErr error
	saveFeedbackErr   error
	writes            int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[string]*models.InterviewSession),
		responses: make(map[string][]models.ResponseRecord),
		feedback:  make(map[string]*models.FeedbackRecord),
	}
}

func (f *fakeStore) CreateSession(_ context.Context, s *models.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) ListResponses(_ context.Context, interviewID string) ([]models.ResponseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ResponseRecord{}, f.responses[interviewID]...), nil
}

func (f *fakeStore) InsertResponse(_ context.Context, r *models.ResponseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertResponseErr != nil {
		return f.insertResponseErr
	}
	f.writes++
	f.responses[r.InterviewID] = append(f.responses[r.InterviewID], *r)
	return nil
}

func (f *fakeStore) UpdateSessionProgress(_ context.Context, id, stage string, progress float64, questionCount int, nextQuestion string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	if s, ok := f.sessions[id]; ok {
		s.Stage = stage
		s.Metadata.Progress = progress
		s.Metadata.QuestionCount = questionCount
		s.Metadata.CurrentQuestion = nextQuestion
	}
	return nil
}

func (f *fakeStore) SaveFeedback(_ context.Context, fb *models.FeedbackRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveFeedbackErr != nil {
		return f.saveFeedbackErr
	}
	f.writes++
	copied := *fb
	f.feedback[fb.InterviewID] = &copied
	if s, ok := f.sessions[fb.InterviewID]; ok {
		s.Status = models.StatusCompleted
		s.FeedbackID = fb.ID
		s.OverallScore = fb.OverallScore
		s.Metadata.DurationMinutes = fb.DurationSeconds / 60
		s.Metadata.TotalQuestions = s.Metadata.QuestionCount
	}
	return nil
}

func (f *fakeStore) ListSessions(_ context.Context, userID string, _ store.HistoryQuery) ([]models.InterviewSession, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InterviewSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func newTestService(fs *fakeStore) *Service {
	return New(
		fs,
		stt.NewChain(sttmock.New()),
		llm.NewChain(llm.NewStatic()),
		feedback.NewChainWith(feedback.NewStructured()),
		events.New(&events.Config{Enabled: false}),
		metrics.DefaultMetrics,
	)
}

func seedSession(fs *fakeStore, id, userID string) {
	fs.sessions[id] = &models.InterviewSession{
		ID:         id,
		UserID:     userID,
		Position:   "Backend Engineer",
		Company:    "Acme",
		Experience: "mid",
		Status:     models.StatusActive,
		Stage:      "introduction",
	}
}

func TestProcessAudio_UnknownSession(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.ProcessAudio(context.Background(), "missing", []byte("audio"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessAudio_FirstTurn(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)

	result, err := svc.ProcessAudio(context.Background(), "voice_1", []byte("audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Transcript != sttmock.Transcript {
		t.Errorf("unexpected transcript %q", result.Transcript)
	}
	if result.Stage != "introduction" {
		t.Errorf("expected introduction stage for first turn, got %s", result.Stage)
	}
	if result.Progress != 12.5 {
		t.Errorf("expected progress 12.5, got %v", result.Progress)
	}
	if result.NextQuestion == "" {
		t.Error("expected a next question")
	}
	if result.ResponseID == "" {
		t.Error("expected a response ID")
	}

	if got := len(fs.responses["voice_1"]); got != 1 {
		t.Fatalf("expected 1 persisted response, got %d", got)
	}
	rec := fs.responses["voice_1"][0]
	if rec.Answer != sttmock.Transcript {
		t.Errorf("persisted answer mismatch: %q", rec.Answer)
	}
	if rec.Question != "" {
		t.Errorf("session seeded without an opening question should record an empty question, got %q", rec.Question)
	}

	if fs.sessions["voice_1"].Metadata.QuestionCount != 1 {
		t.Errorf("expected question_count 1, got %d", fs.sessions["voice_1"].Metadata.QuestionCount)
	}
}

func TestProcessAudio_StageAdvancesWithHistory(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)

	ctx := context.Background()
	var results []*TurnResult
	for i := 0; i < 4; i++ {
		result, err := svc.ProcessAudio(ctx, "voice_1", []byte("audio"))
		if err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
		results = append(results, result)
	}

	// Fourth response lands in the technical band.
	last := results[3]
	if last.Stage != "technical" {
		t.Errorf("expected technical stage on turn 4, got %s", last.Stage)
	}
	if last.Progress != 50 {
		t.Errorf("expected progress 50 on turn 4, got %v", last.Progress)
	}

	// Each turn records the previous turn's generated question.
	recs := fs.responses["voice_1"]
	for i := 1; i < len(recs); i++ {
		if recs[i].Question == "" {
			t.Errorf("turn %d should carry the previous generated question", i+1)
		}
		if recs[i].Question != results[i-1].NextQuestion {
			t.Errorf("turn %d question = %q, want turn %d's next question %q",
				i+1, recs[i].Question, i, results[i-1].NextQuestion)
		}
	}
}

func TestProcessAudio_RecordsOpeningQuestion(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	started, err := svc.Start(context.Background(), StartRequest{
		UserID:     "user-1",
		UserName:   "Jordan",
		Position:   "Backend Engineer",
		Company:    "Acme",
		Experience: "mid",
	})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if _, err := svc.ProcessAudio(context.Background(), started.Session.ID, []byte("audio")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs := fs.responses[started.Session.ID]
	if len(recs) != 1 {
		t.Fatalf("expected 1 persisted response, got %d", len(recs))
	}
	if recs[0].Question != started.FirstQuestion {
		t.Errorf("first answer should record the opening question, got %q", recs[0].Question)
	}
}

func TestProcessAudio_CompletedSessionRejected(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	fs.sessions["voice_1"].Status = models.StatusCompleted
	svc := newTestService(fs)

	_, err := svc.ProcessAudio(context.Background(), "voice_1", []byte("audio"))
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}
	if len(fs.responses["voice_1"]) != 0 {
		t.Error("completed session must not accept new responses")
	}
}

func TestProcessAudio_ConcurrentSubmissions(t *testing.T) {
	// Two simultaneous submissions must not crash; the final persisted
	// question_count reflects at least one of the two writes. The exact
	// value is non-deterministic (last writer wins) and not asserted.
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ProcessAudio(context.Background(), "voice_1", []byte("audio")); err != nil {
				t.Errorf("concurrent ProcessAudio failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := len(fs.responses["voice_1"]); got != 2 {
		t.Errorf("expected 2 persisted responses, got %d", got)
	}
	qc := fs.sessions["voice_1"].Metadata.QuestionCount
	if qc != 1 && qc != 2 {
		t.Errorf("question_count must reflect one of the writes, got %d", qc)
	}
}

func TestGenerateFeedback_EmptyMessagesNoWrites(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)
	writesBefore := fs.writes

	_, err := svc.GenerateFeedback(context.Background(), FeedbackRequest{
		InterviewID: "voice_1",
		UserID:      "user-1",
		Messages:    []models.Message{},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if fs.writes != writesBefore {
		t.Errorf("expected no writes, got %d extra", fs.writes-writesBefore)
	}
}

func TestGenerateFeedback_MissingIDs(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.GenerateFeedback(context.Background(), FeedbackRequest{
		Messages: []models.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestGenerateFeedback_HappyPath(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)

	result, err := svc.GenerateFeedback(context.Background(), FeedbackRequest{
		InterviewID: "voice_1",
		UserID:      "user-1",
		Messages: []models.Message{
			{Role: "assistant", Content: "Tell me about yourself."},
			{Role: "user", Content: "I build distributed systems in Go."},
		},
		Position:   "Backend Engineer",
		Company:    "Acme",
		Experience: "mid",
		Duration:   600,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FeedbackID == "" {
		t.Error("expected a feedback ID")
	}
	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("overall score out of range: %d", result.OverallScore)
	}
	if result.HiringRecommendation == "" {
		t.Error("expected a hiring recommendation")
	}

	fb := fs.feedback["voice_1"]
	if fb == nil {
		t.Fatal("expected persisted feedback")
	}
	if fb.OverallScore != feedback.OverallScore(fb.Scores) {
		t.Errorf("persisted overall score %d does not match weighted aggregation of its scores", fb.OverallScore)
	}
	if !strings.Contains(fb.Transcript, "Interviewer: Tell me about yourself.") {
		t.Errorf("transcript not formatted with speaker labels: %q", fb.Transcript)
	}
	if fs.sessions["voice_1"].Status != models.StatusCompleted {
		t.Error("session must be completed atomically with the feedback write")
	}
}

func TestGenerateFeedback_AlreadyCompleted(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	fs.sessions["voice_1"].Status = models.StatusCompleted
	svc := newTestService(fs)

	_, err := svc.GenerateFeedback(context.Background(), FeedbackRequest{
		InterviewID: "voice_1",
		UserID:      "user-1",
		Messages:    []models.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestGenerateFeedback_PersistenceFailurePropagates(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	fs.saveFeedbackErr = errors.New("db down")
	svc := newTestService(fs)

	_, err := svc.GenerateFeedback(context.Background(), FeedbackRequest{
		InterviewID: "voice_1",
		UserID:      "user-1",
		Messages:    []models.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Errorf("expected persistence error to propagate, got %v", err)
	}
	if fs.sessions["voice_1"].Status == models.StatusCompleted {
		t.Error("session must not complete when the feedback write fails")
	}
}

func TestStart_CreatesSessionWithRenderedPrompt(t *testing.T) {
	fs := newFakeStore()
	svc := newTestService(fs)

	result, err := svc.Start(context.Background(), StartRequest{
		UserID:     "user-1",
		UserName:   "Jordan",
		Company:    "Acme",
		Position:   "Backend Engineer",
		Experience: "senior",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Session.Status != models.StatusActive {
		t.Errorf("expected active status, got %s", result.Session.Status)
	}
	if result.Session.Stage != "introduction" {
		t.Errorf("expected introduction stage, got %s", result.Session.Stage)
	}
	prompt := result.Session.Metadata.SystemPrompt
	if !strings.Contains(prompt, "Jordan") || !strings.Contains(prompt, "Backend Engineer") {
		t.Errorf("system prompt not rendered: %q", prompt)
	}
	if !strings.Contains(result.FirstQuestion, "leadership philosophy") {
		t.Errorf("expected senior-level first question, got %q", result.FirstQuestion)
	}
	if _, ok := fs.sessions[result.Session.ID]; !ok {
		t.Error("session not persisted")
	}
}

func TestStart_RequiresUserID(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Start(context.Background(), StartRequest{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestHistory_Statistics(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	seedSession(fs, "voice_2", "user-1")
	fs.sessions["voice_2"].Status = models.StatusCompleted
	fs.sessions["voice_2"].OverallScore = 80
	fs.sessions["voice_2"].Metadata.DurationMinutes = 30
	fs.sessions["voice_2"].Metadata.TotalQuestions = 8
	svc := newTestService(fs)

	result, err := svc.History(context.Background(), "user-1", store.HistoryQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Statistics.TotalInterviews != 2 {
		t.Errorf("expected 2 total interviews, got %d", result.Statistics.TotalInterviews)
	}
	if result.Statistics.CompletedInterviews != 1 {
		t.Errorf("expected 1 completed, got %d", result.Statistics.CompletedInterviews)
	}
	if result.Statistics.InProgressInterviews != 1 {
		t.Errorf("expected 1 in progress, got %d", result.Statistics.InProgressInterviews)
	}
	if result.Statistics.AverageScore != 80 {
		t.Errorf("expected average score 80, got %d", result.Statistics.AverageScore)
	}
	if result.Statistics.TotalDuration != 30 {
		t.Errorf("expected total duration 30, got %d", result.Statistics.TotalDuration)
	}
}

func TestHistory_StatisticsAfterFullFlow(t *testing.T) {
	fs := newFakeStore()
	seedSession(fs, "voice_1", "user-1")
	svc := newTestService(fs)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.ProcessAudio(ctx, "voice_1", []byte("audio")); err != nil {
			t.Fatalf("turn %d failed: %v", i+1, err)
		}
	}
	if _, err := svc.GenerateFeedback(ctx, FeedbackRequest{
		InterviewID: "voice_1",
		UserID:      "user-1",
		Messages:    []models.Message{{Role: "user", Content: "answer"}},
		Duration:    1800,
	}); err != nil {
		t.Fatalf("generate feedback failed: %v", err)
	}

	result, err := svc.History(ctx, "user-1", store.HistoryQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Statistics.TotalQuestions != 3 {
		t.Errorf("expected 3 total questions after completion, got %d", result.Statistics.TotalQuestions)
	}
	if result.Statistics.TotalDuration != 30 {
		t.Errorf("expected 30 minutes total duration, got %d", result.Statistics.TotalDuration)
	}
}

func TestFormatTranscript(t *testing.T) {
	got := formatTranscript([]models.Message{
		{Role: "assistant", Content: "Why Go?"},
		{Role: "user", Content: "Concurrency."},
	})
	want := "Interviewer: Why Go?\n\nCandidate: Concurrency."
	if got != want {
		t.Errorf("formatTranscript = %q, want %q", got, want)
	}
}
