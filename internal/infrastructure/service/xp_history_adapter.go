package service

import (
	"context"

	"github.com/aikidslabs/ai-kids-hub/internal/application/eventhandler"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/postgres"
)

// XPHistoryAdapter writes XP changes to the Postgres audit trail.
type XPHistoryAdapter struct {
	repo *postgres.LearnerRepository
}

// NewXPHistoryAdapter creates a new XPHistoryAdapter.
func NewXPHistoryAdapter(repo *postgres.LearnerRepository) *XPHistoryAdapter {
	return &XPHistoryAdapter{repo: repo}
}

// RecordXPChange implements eventhandler.XPHistorySink.
func (a *XPHistoryAdapter) RecordXPChange(ctx context.Context, learnerID string, oldXP, newXP int, reason, itemID string) error {
	return a.repo.RecordXPChange(ctx, postgres.XPHistoryEntry{
		LearnerID: learnerID,
		OldXP:     oldXP,
		NewXP:     newXP,
		Delta:     newXP - oldXP,
		Reason:    reason,
		ItemID:    itemID,
	})
}

var _ eventhandler.XPHistorySink = (*XPHistoryAdapter)(nil)
