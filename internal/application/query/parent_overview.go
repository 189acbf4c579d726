package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARENT OVERVIEW QUERY
// The dashboard behind the parental gate: per-season completion, the tutor
// transcript and recent activity, with timestamps rendered for São Paulo
// so they read naturally for the family. The HTTP layer enforces the gate;
// this query only assembles data.
// ══════════════════════════════════════════════════════════════════════════════

// TranscriptEntry is one archived tutor exchange.
type TranscriptEntry struct {
	Audience  string    `json:"audience"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptSource exposes the archived tutor exchanges, newest first.
type TranscriptSource interface {
	RecentTutorMessages(ctx context.Context, learnerID string, limit int) ([]TranscriptEntry, error)
}

// ParentOverviewQuery identifies the child profile to report on.
type ParentOverviewQuery struct {
	// LearnerID is the child profile.
	LearnerID string

	// TranscriptLimit bounds the tutor transcript (default 10, max 50).
	TranscriptLimit int
}

// Validate validates the query parameters.
func (q *ParentOverviewQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("parent_overview: learner_id is required")
	}
	if q.TranscriptLimit <= 0 {
		q.TranscriptLimit = 10
	}
	if q.TranscriptLimit > 50 {
		q.TranscriptLimit = 50
	}
	return nil
}

// SeasonProgressDTO is the completion state of one season.
type SeasonProgressDTO struct {
	Season    int    `json:"season"`
	Title     string `json:"title"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// ParentOverviewDTO is the dashboard view.
type ParentOverviewDTO struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name"`

	XP               int `json:"xp"`
	Level            int `json:"level"`
	BadgesUnlocked   int `json:"badges_unlocked"`
	BadgesTotal      int `json:"badges_total"`
	CompletedModules int `json:"completed_modules"`
	TotalModules     int `json:"total_modules"`

	Seasons    []SeasonProgressDTO `json:"seasons"`
	Transcript []TranscriptEntry   `json:"transcript"`

	// LastActivity is the most recent progress update, zero when the
	// child has no progress yet.
	LastActivity          time.Time `json:"last_activity,omitempty"`
	LastActivityRelative  string    `json:"last_activity_relative,omitempty"`
	LastActivityWeekday   string    `json:"last_activity_weekday,omitempty"`
	LastActivityToday     bool      `json:"last_activity_today"`
	LastActivityScreenOK  bool      `json:"last_activity_within_screen_time"`
	TutorInteractionCount int       `json:"tutor_interaction_count"`

	GeneratedAt time.Time `json:"generated_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ParentOverviewHandler handles the ParentOverviewQuery.
type ParentOverviewHandler struct {
	learnerRepo  learner.Repository
	progressRepo progress.Repository
	transcripts  TranscriptSource
}

// NewParentOverviewHandler creates a new ParentOverviewHandler.
// The transcript source may be nil; the transcript section is then empty.
func NewParentOverviewHandler(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	transcripts TranscriptSource,
) *ParentOverviewHandler {
	return &ParentOverviewHandler{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		transcripts:  transcripts,
	}
}

// Handle executes the parent overview query.
func (h *ParentOverviewHandler) Handle(ctx context.Context, q ParentOverviewQuery) (*ParentOverviewDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("parent_overview: %w", err)
	}

	l, err := h.learnerRepo.GetByID(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("parent_overview: failed to load learner: %w", err)
	}

	tracker, err := h.progressRepo.Load(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("parent_overview: failed to load progress: %w", err)
	}

	dto := &ParentOverviewDTO{
		LearnerID:             l.ID,
		LearnerName:           l.Name,
		XP:                    l.XP.Int(),
		Level:                 l.Level().Int(),
		BadgesUnlocked:        len(l.Badges),
		BadgesTotal:           len(learner.Badges()),
		CompletedModules:      tracker.CompletedCount(),
		TotalModules:          catalog.TotalItems,
		Seasons:               seasonBreakdown(tracker),
		Transcript:            []TranscriptEntry{},
		TutorInteractionCount: l.TutorInteractions,
		GeneratedAt:           timeutil.Now(),
	}

	if last := lastActivity(tracker); !last.IsZero() {
		dto.LastActivity = last
		dto.LastActivityRelative = timeutil.FormatRelative(last)
		dto.LastActivityWeekday = timeutil.WeekdayNamePt(last)
		dto.LastActivityToday = timeutil.IsToday(last)
		dto.LastActivityScreenOK = timeutil.IsScreenTime(last)
	}

	if h.transcripts != nil {
		transcript, err := h.transcripts.RecentTutorMessages(ctx, q.LearnerID, q.TranscriptLimit)
		if err != nil {
			return nil, fmt.Errorf("parent_overview: failed to load transcript: %w", err)
		}
		dto.Transcript = transcript
	}

	return dto, nil
}

// seasonBreakdown computes per-season completion from the tracker.
func seasonBreakdown(tracker *progress.Tracker) []SeasonProgressDTO {
	out := make([]SeasonProgressDTO, 0, catalog.SeasonCount)
	for s := 1; s <= catalog.SeasonCount; s++ {
		completed := tracker.CompletedInSeason(s)
		out = append(out, SeasonProgressDTO{
			Season:    s,
			Title:     catalog.CategoryName(s),
			Completed: completed,
			Total:     catalog.ModulesPerSeason,
			Percent:   completed * 100 / catalog.ModulesPerSeason,
		})
	}
	return out
}

// lastActivity returns the newest UpdatedAt across all records.
func lastActivity(tracker *progress.Tracker) time.Time {
	var last time.Time
	for _, r := range tracker.Records() {
		if r.UpdatedAt.After(last) {
			last = r.UpdatedAt
		}
	}
	return last
}
