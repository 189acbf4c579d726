package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AI INTERACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InteractionRepository records tutor conversations and finished trailer
// tasks for later review on the parent dashboard.
type InteractionRepository struct {
	conn *Connection
}

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(conn *Connection) *InteractionRepository {
	return &InteractionRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tutor messages
// ─────────────────────────────────────────────────────────────────────────────

// TutorMessage is one stored tutor exchange.
type TutorMessage struct {
	ID        string
	LearnerID string
	Audience  shared.Audience
	Question  string
	Answer    string
	CreatedAt time.Time
}

// SaveTutorMessage stores a tutor exchange.
func (r *InteractionRepository) SaveTutorMessage(ctx context.Context, msg TutorMessage) error {
	query := `
		INSERT INTO tutor_messages (learner_id, audience, question, answer)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query,
		msg.LearnerID,
		string(msg.Audience),
		msg.Question,
		msg.Answer,
	)
	if err != nil {
		return fmt.Errorf("failed to save tutor message: %w", err)
	}
	return nil
}

// TutorMessages returns recent tutor exchanges of a learner, newest first.
func (r *InteractionRepository) TutorMessages(ctx context.Context, learnerID string, limit int) ([]TutorMessage, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, learner_id, audience, question, answer, created_at
		FROM tutor_messages
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tutor messages: %w", err)
	}
	defer rows.Close()

	var messages []TutorMessage
	for rows.Next() {
		var (
			m        TutorMessage
			audience string
		)
		if err := rows.Scan(&m.ID, &m.LearnerID, &audience, &m.Question, &m.Answer, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tutor message: %w", err)
		}
		m.Audience = shared.Audience(audience)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Trailer tasks
// ─────────────────────────────────────────────────────────────────────────────

// TrailerTaskRecord is one stored trailer generation task.
type TrailerTaskRecord struct {
	ID            string
	LearnerID     string
	Status        string
	VideoURL      string
	FailureReason string
	CreatedAt     time.Time
	FinishedAt    time.Time
}

// SaveTrailerTask upserts a trailer task record.
func (r *InteractionRepository) SaveTrailerTask(ctx context.Context, record TrailerTaskRecord) error {
	query := `
		INSERT INTO trailer_tasks (id, learner_id, status, video_url, failure_reason, created_at, finished_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			video_url = EXCLUDED.video_url,
			failure_reason = EXCLUDED.failure_reason,
			finished_at = EXCLUDED.finished_at
	`

	var finishedAt *time.Time
	if !record.FinishedAt.IsZero() {
		finishedAt = &record.FinishedAt
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.LearnerID,
		record.Status,
		record.VideoURL,
		record.FailureReason,
		createdAt,
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save trailer task: %w", err)
	}
	return nil
}

// TrailerTasks returns recent trailer tasks of a learner, newest first.
func (r *InteractionRepository) TrailerTasks(ctx context.Context, learnerID string, limit int) ([]TrailerTaskRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, learner_id, status, COALESCE(video_url, ''), COALESCE(failure_reason, ''),
			   created_at, COALESCE(finished_at, 'epoch'::timestamptz)
		FROM trailer_tasks
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trailer tasks: %w", err)
	}
	defer rows.Close()

	var records []TrailerTaskRecord
	for rows.Next() {
		var rec TrailerTaskRecord
		if err := rows.Scan(&rec.ID, &rec.LearnerID, &rec.Status, &rec.VideoURL, &rec.FailureReason, &rec.CreatedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trailer task: %w", err)
		}
		if rec.FinishedAt.Unix() == 0 {
			rec.FinishedAt = time.Time{}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
