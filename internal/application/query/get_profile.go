package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROFILE QUERY
// The header read: name, avatar, XP with the derived level, and the badge
// shelf. The badge shelf always lists the full catalog, with owned badges
// flagged, so the UI can render locked slots.
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileQuery identifies the learner.
type GetProfileQuery struct {
	// LearnerID is the profile to read.
	LearnerID string

	// IncludeProgress adds the completed-module counter.
	IncludeProgress bool
}

// Validate validates the query parameters.
func (q *GetProfileQuery) Validate() error {
	if q.LearnerID == "" {
		return errors.New("get_profile: learner_id is required")
	}
	return nil
}

// BadgeDTO is one badge slot on the shelf.
type BadgeDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Unlocked    bool   `json:"unlocked"`
}

// ProfileDTO is the profile view.
type ProfileDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`

	XP                  int    `json:"xp"`
	Level               int    `json:"level"`
	LevelTitle          string `json:"level_title"`
	ProgressToNextLevel int    `json:"progress_to_next_level"`

	Badges            []BadgeDTO `json:"badges"`
	TutorInteractions int        `json:"tutor_interactions"`
	ParentGateSet     bool       `json:"parent_gate_set"`

	// CompletedModules is filled when IncludeProgress is set.
	CompletedModules int `json:"completed_modules,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetProfileHandler handles the GetProfileQuery.
type GetProfileHandler struct {
	learnerRepo  learner.Repository
	learnerCache learner.Cache
	progressRepo progress.Repository
}

// NewGetProfileHandler creates a new GetProfileHandler.
// The cache may be nil.
func NewGetProfileHandler(learnerRepo learner.Repository, learnerCache learner.Cache, progressRepo progress.Repository) *GetProfileHandler {
	return &GetProfileHandler{
		learnerRepo:  learnerRepo,
		learnerCache: learnerCache,
		progressRepo: progressRepo,
	}
}

// Handle executes the get profile query.
func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*ProfileDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	l, err := h.loadLearner(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_profile: %w", err)
	}

	dto := &ProfileDTO{
		ID:                  l.ID,
		Name:                l.Name,
		Avatar:              l.Avatar,
		Role:                string(l.Role),
		XP:                  l.XP.Int(),
		Level:               l.Level().Int(),
		LevelTitle:          l.Level().Title(),
		ProgressToNextLevel: l.XP.ProgressToNextLevel(),
		Badges:              badgeShelf(l),
		TutorInteractions:   l.TutorInteractions,
		ParentGateSet:       l.HasParentPIN(),
		CreatedAt:           l.CreatedAt,
	}

	if q.IncludeProgress {
		tracker, err := h.progressRepo.Load(ctx, q.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("get_profile: failed to load progress: %w", err)
		}
		dto.CompletedModules = tracker.CompletedCount()
	}

	return dto, nil
}

// loadLearner reads through the cache when one is wired.
func (h *GetProfileHandler) loadLearner(ctx context.Context, id string) (*learner.Learner, error) {
	if h.learnerCache != nil {
		if l, err := h.learnerCache.Get(ctx, id); err == nil {
			return l, nil
		}
	}

	l, err := h.learnerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.learnerCache != nil {
		_ = h.learnerCache.Set(ctx, l, 0)
	}
	return l, nil
}

// badgeShelf renders the full badge catalog with ownership flags.
func badgeShelf(l *learner.Learner) []BadgeDTO {
	all := learner.Badges()
	out := make([]BadgeDTO, 0, len(all))
	for _, b := range all {
		out = append(out, BadgeDTO{
			ID:          b.ID,
			Title:       b.Title,
			Icon:        b.Icon,
			Description: b.Description,
			Color:       string(b.Color),
			Unlocked:    l.HasBadge(b.ID),
		})
	}
	return out
}
