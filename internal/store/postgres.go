package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"ai-interview-service/internal/models"
)

// Postgres implements interview persistence over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Msg("Database connection established")
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks the database connection, for readiness probes.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// CreateSession inserts a new interview session row.
func (p *Postgres) CreateSession(ctx context.Context, s *models.InterviewSession) error {
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return fmt.Errorf("marshal session metadata: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO interview_sessions
			(id, user_id, user_name, position, company, role, difficulty,
			 experience, status, stage, started_at, created_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.UserID, s.UserName, s.Position, s.Company, s.Role, s.Difficulty,
		s.Experience, s.Status, s.Stage, s.StartedAt, s.CreatedAt, metadata)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession loads one session by ID. Returns ErrNotFound for unknown IDs.
func (p *Postgres) GetSession(ctx context.Context, id string) (*models.InterviewSession, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, user_id, user_name, position, company, role, difficulty,
		       experience, status, stage, COALESCE(feedback_id, ''),
		       COALESCE(overall_score, 0), started_at, completed_at,
		       created_at, metadata
		FROM interview_sessions
		WHERE id = $1`, id)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return s, nil
}

// ListResponses returns a session's responses in insertion order.
func (p *Postgres) ListResponses(ctx context.Context, interviewID string) ([]models.ResponseRecord, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, interview_id, question, answer, analysis, stage, timestamp
		FROM interview_responses
		WHERE interview_id = $1
		ORDER BY timestamp ASC`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("select responses: %w", err)
	}
	defer rows.Close()

	var responses []models.ResponseRecord
	for rows.Next() {
		var r models.ResponseRecord
		var analysis []byte
		if err := rows.Scan(&r.ID, &r.InterviewID, &r.Question, &r.Answer, &analysis, &r.Stage, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal(analysis, &r.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// InsertResponse appends one response record.
func (p *Postgres) InsertResponse(ctx context.Context, r *models.ResponseRecord) error {
	analysis, err := json.Marshal(r.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO interview_responses
			(id, interview_id, question, answer, analysis, stage, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.InterviewID, r.Question, r.Answer, analysis, r.Stage, r.Timestamp)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// UpdateSessionProgress records the stage estimate, turn counters and the
// pending question after a processed response. Last writer wins;
// concurrent submissions for the same session are not serialized.
func (p *Postgres) UpdateSessionProgress(ctx context.Context, id, stage string, progress float64, questionCount int, nextQuestion string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE interview_sessions
		SET stage = $2,
		    metadata = metadata
		        || jsonb_build_object('progress', $3::float8)
		        || jsonb_build_object('question_count', $4::int)
		        || jsonb_build_object('current_question', $5::text)
		WHERE id = $1`,
		id, stage, progress, questionCount, nextQuestion)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return nil
}

// SaveFeedback persists the feedback record and completes the session in
// a single transaction, so feedback and session status cannot diverge on
// partial failure.
func (p *Postgres) SaveFeedback(ctx context.Context, fb *models.FeedbackRecord) error {
	scores, err := json.Marshal(fb.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	strengths, err := json.Marshal(fb.Strengths)
	if err != nil {
		return fmt.Errorf("marshal strengths: %w", err)
	}
	improvements, err := json.Marshal(fb.Improvements)
	if err != nil {
		return fmt.Errorf("marshal improvements: %w", err)
	}
	metadata, err := json.Marshal(fb.Metadata)
	if err != nil {
		return fmt.Errorf("marshal feedback metadata: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO interview_feedback
			(id, interview_id, user_id, overall_score, scores, strengths,
			 improvements, detailed_feedback, hiring_recommendation,
			 transcript, duration_seconds, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		fb.ID, fb.InterviewID, fb.UserID, fb.OverallScore, scores, strengths,
		improvements, fb.DetailedFeedback, fb.HiringRecommendation,
		fb.Transcript, fb.DurationSeconds, metadata, fb.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	// Freeze the history aggregates on the session row: minutes spent and
	// the question count reached while collecting.
	_, err = tx.Exec(ctx, `
		UPDATE interview_sessions
		SET feedback_id = $2,
		    overall_score = $3,
		    status = $4,
		    completed_at = $5,
		    metadata = metadata
		        || jsonb_build_object('duration_minutes', $6::int)
		        || jsonb_build_object('total_questions', COALESCE((metadata->>'question_count')::int, 0))
		WHERE id = $1`,
		fb.InterviewID, fb.ID, fb.OverallScore, models.StatusCompleted, fb.CreatedAt,
		fb.DurationSeconds/60)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit feedback tx: %w", err)
	}
	return nil
}

// ListSessions returns one page of a user's sessions plus the unfiltered
// total matching the query.
func (p *Postgres) ListSessions(ctx context.Context, userID string, q HistoryQuery) ([]models.InterviewSession, int, error) {
	q.Normalize()

	where := "WHERE user_id = $1"
	args := []any{userID}
	if q.Difficulty != "" {
		args = append(args, q.Difficulty)
		where += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	if q.Role != "" {
		args = append(args, q.Role)
		where += fmt.Sprintf(" AND role = $%d", len(args))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM interview_sessions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	// SortBy/SortOrder are normalized against a whitelist above, so they
	// are safe to interpolate.
	offset := (q.Page - 1) * q.PageSize
	args = append(args, q.PageSize, offset)
	query := fmt.Sprintf(`
		SELECT id, user_id, user_name, position, company, role, difficulty,
		       experience, status, stage, COALESCE(feedback_id, ''),
		       COALESCE(overall_score, 0), started_at, completed_at,
		       created_at, metadata
		FROM interview_sessions
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		where, q.SortBy, q.SortOrder, len(args)-1, len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.InterviewSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.InterviewSession, error) {
	var s models.InterviewSession
	var metadata []byte
	var completedAt *time.Time

	err := row.Scan(&s.ID, &s.UserID, &s.UserName, &s.Position, &s.Company,
		&s.Role, &s.Difficulty, &s.Experience, &s.Status, &s.Stage,
		&s.FeedbackID, &s.OverallScore, &s.StartedAt, &completedAt,
		&s.CreatedAt, &metadata)
	if err != nil {
		return nil, err
	}

	s.CompletedAt = completedAt
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal session metadata: %w", err)
		}
	}
	return &s, nil
}
