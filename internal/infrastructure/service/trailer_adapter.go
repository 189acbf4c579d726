package service

import (
	"context"

	"github.com/aikidslabs/ai-kids-hub/internal/application/command"
	"github.com/aikidslabs/ai-kids-hub/internal/application/task"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/external/gemini"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/postgres"
)

// TrailerAdapter adapts the gemini.Client to the trailer ports: it builds
// the Veo prompts for the start command and runs the generation for the
// task manager.
type TrailerAdapter struct {
	client *gemini.Client
}

// NewTrailerAdapter creates a new TrailerAdapter.
func NewTrailerAdapter(client *gemini.Client) *TrailerAdapter {
	return &TrailerAdapter{client: client}
}

// SeasonTrailerPrompt implements command.TrailerPrompter.
func (a *TrailerAdapter) SeasonTrailerPrompt() string {
	return gemini.SeasonTrailerPrompt
}

// ModuleVideoPrompt implements command.TrailerPrompter.
func (a *TrailerAdapter) ModuleVideoPrompt(moduleTitle string) string {
	return gemini.ModuleVideoPrompt(moduleTitle)
}

// GenerateVideo implements task.VideoGenerator.
func (a *TrailerAdapter) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	return a.client.GenerateVideo(ctx, prompt)
}

// ─────────────────────────────────────────────────────────────────────────────
// Archive
// ─────────────────────────────────────────────────────────────────────────────

// TrailerArchive persists finished trailer tasks to Postgres for the
// parent dashboard history.
type TrailerArchive struct {
	repo *postgres.InteractionRepository
}

// NewTrailerArchive creates a new TrailerArchive.
func NewTrailerArchive(repo *postgres.InteractionRepository) *TrailerArchive {
	return &TrailerArchive{repo: repo}
}

// ArchiveTask implements task.Archiver.
func (a *TrailerArchive) ArchiveTask(ctx context.Context, t task.Task) error {
	return a.repo.SaveTrailerTask(ctx, postgres.TrailerTaskRecord{
		ID:            t.ID,
		LearnerID:     t.LearnerID,
		Status:        string(t.Status),
		VideoURL:      t.VideoURL,
		FailureReason: t.FailureReason,
		CreatedAt:     t.CreatedAt,
		FinishedAt:    t.FinishedAt,
	})
}

var (
	_ command.TrailerPrompter = (*TrailerAdapter)(nil)
	_ task.VideoGenerator     = (*TrailerAdapter)(nil)
	_ task.Archiver           = (*TrailerArchive)(nil)
)
