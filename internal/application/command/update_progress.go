// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROGRESS COMMAND
// Advances a learner's progress on a catalog item. Progress is monotonic:
// a value at or below the stored one is acknowledged but changes nothing.
// Crossing the 100 boundary triggers the achievement flow synchronously,
// so the response carries every toast the update earned.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressCommand contains the data to advance progress on one item.
type UpdateProgressCommand struct {
	// LearnerID is the profile whose progress advances.
	LearnerID string

	// ItemID is the catalog item, "{season}-{module}".
	ItemID string

	// Value is the raw progress percentage. Values above 100 clamp to 100.
	Value int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpdateProgressCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("update_progress: learner_id is required")
	}
	if c.ItemID == "" {
		return errors.New("update_progress: item_id is required")
	}
	if c.Value < 0 {
		return shared.ErrNegativeProgress
	}
	return nil
}

// UpdateProgressResult contains the outcome of a progress update.
type UpdateProgressResult struct {
	// ItemID is the updated item.
	ItemID string

	// OldValue is the progress before the update.
	OldValue int

	// NewValue is the progress after the update.
	NewValue int

	// Changed is false when the update was a monotonic no-op.
	Changed bool

	// JustCompleted is true exactly when this update crossed the 100 boundary.
	JustCompleted bool

	// Achievements holds the rewards this update earned, nil unless the
	// item just completed.
	Achievements *saga.AchievementResult

	// UpdatedAt is when the update was processed.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProgressHandler handles the UpdateProgressCommand.
type UpdateProgressHandler struct {
	learnerRepo   learner.Repository
	progressRepo  progress.Repository
	progressCache progress.Cache
	catalog       *catalog.Catalog
	achievements  *saga.AchievementFlow
	publisher     shared.EventPublisher
}

// NewUpdateProgressHandler creates a new UpdateProgressHandler.
// The progress cache and publisher may be nil.
func NewUpdateProgressHandler(
	learnerRepo learner.Repository,
	progressRepo progress.Repository,
	progressCache progress.Cache,
	cat *catalog.Catalog,
	achievements *saga.AchievementFlow,
	publisher shared.EventPublisher,
) *UpdateProgressHandler {
	return &UpdateProgressHandler{
		learnerRepo:   learnerRepo,
		progressRepo:  progressRepo,
		progressCache: progressCache,
		catalog:       cat,
		achievements:  achievements,
		publisher:     publisher,
	}
}

// Handle executes the update progress command.
func (h *UpdateProgressHandler) Handle(ctx context.Context, cmd UpdateProgressCommand) (*UpdateProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_progress: validation failed: %w", err)
	}

	itemID, err := shared.ParseItemID(cmd.ItemID)
	if err != nil {
		return nil, fmt.Errorf("update_progress: %w", err)
	}

	// The item must exist in the catalog; the client can not track
	// progress on items the hub never generated.
	if _, err := h.catalog.Get(itemID); err != nil {
		return nil, fmt.Errorf("update_progress: %w", err)
	}

	tracker, err := h.progressRepo.Load(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("update_progress: failed to load progress: %w", err)
	}

	update, err := tracker.Update(itemID, cmd.Value)
	if err != nil {
		return nil, fmt.Errorf("update_progress: %w", err)
	}

	result := &UpdateProgressResult{
		ItemID:        cmd.ItemID,
		OldValue:      update.OldValue.Int(),
		NewValue:      update.NewValue.Int(),
		Changed:       update.Changed,
		JustCompleted: update.JustCompleted,
		UpdatedAt:     time.Now().UTC(),
	}

	if !update.Changed {
		return result, nil
	}

	record, _ := tracker.Record(itemID)
	if err := h.progressRepo.SaveRecord(ctx, cmd.LearnerID, record); err != nil {
		return nil, fmt.Errorf("update_progress: failed to save progress: %w", err)
	}
	if h.progressCache != nil {
		// Drop the snapshot instead of patching it; the next browse
		// rebuilds it from the repository.
		_ = h.progressCache.Invalidate(ctx, cmd.LearnerID)
	}

	if h.publisher != nil {
		event := shared.NewProgressUpdatedEvent(cmd.LearnerID, cmd.ItemID, result.OldValue, result.NewValue)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.publisher.Publish(event)
	}

	if !update.JustCompleted {
		return result, nil
	}

	if h.publisher != nil {
		event := shared.NewModuleCompletedEvent(cmd.LearnerID, cmd.ItemID, itemID.Season(), itemID.Module())
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.publisher.Publish(event)
	}

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("update_progress: failed to load learner: %w", err)
	}

	awards, err := h.achievements.OnModuleCompleted(ctx, saga.ModuleCompletedInput{
		Learner:       l,
		ItemID:        itemID,
		Progress:      tracker,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("update_progress: achievement flow: %w", err)
	}
	result.Achievements = awards

	return result, nil
}
