// Package service adapts infrastructure clients to the application ports.
package service

import (
	"context"
	"log/slog"

	"github.com/aikidslabs/ai-kids-hub/internal/application/command"
	"github.com/aikidslabs/ai-kids-hub/internal/application/query"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/external/gemini"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/postgres"
)

// TutorAdapter adapts the gemini.Client to the command.TutorService port.
// API failures degrade to the canned fallback line; the child never sees
// a transport error.
type TutorAdapter struct {
	client *gemini.Client
	logger *slog.Logger
}

// NewTutorAdapter creates a new TutorAdapter.
func NewTutorAdapter(client *gemini.Client, logger *slog.Logger) *TutorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TutorAdapter{client: client, logger: logger}
}

// Ask implements command.TutorService.
func (a *TutorAdapter) Ask(ctx context.Context, question string, audience shared.Audience) (string, bool) {
	answer, err := a.client.AskTutor(ctx, question, audience)
	if err != nil {
		a.logger.Warn("tutor request degraded to fallback",
			"audience", audience.String(),
			"error", err,
		)
		return gemini.FallbackAnswer, true
	}
	return answer, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Transcript
// ─────────────────────────────────────────────────────────────────────────────

// TranscriptAdapter bridges tutor exchanges to the Postgres transcript,
// serving both the write port of the ask command and the read port of
// the parent overview.
type TranscriptAdapter struct {
	repo *postgres.InteractionRepository
}

// NewTranscriptAdapter creates a new TranscriptAdapter.
func NewTranscriptAdapter(repo *postgres.InteractionRepository) *TranscriptAdapter {
	return &TranscriptAdapter{repo: repo}
}

// SaveExchange implements command.TutorTranscript.
func (a *TranscriptAdapter) SaveExchange(ctx context.Context, learnerID string, audience shared.Audience, question, answer string) error {
	return a.repo.SaveTutorMessage(ctx, postgres.TutorMessage{
		LearnerID: learnerID,
		Audience:  audience,
		Question:  question,
		Answer:    answer,
	})
}

// RecentTutorMessages implements query.TranscriptSource.
func (a *TranscriptAdapter) RecentTutorMessages(ctx context.Context, learnerID string, limit int) ([]query.TranscriptEntry, error) {
	messages, err := a.repo.TutorMessages(ctx, learnerID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]query.TranscriptEntry, 0, len(messages))
	for _, msg := range messages {
		out = append(out, query.TranscriptEntry{
			Audience:  msg.Audience.String(),
			Question:  msg.Question,
			Answer:    msg.Answer,
			CreatedAt: msg.CreatedAt,
		})
	}
	return out, nil
}

var (
	_ command.TutorService    = (*TutorAdapter)(nil)
	_ command.TutorTranscript = (*TranscriptAdapter)(nil)
	_ query.TranscriptSource  = (*TranscriptAdapter)(nil)
)
