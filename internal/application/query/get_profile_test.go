package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

func TestGetProfile(t *testing.T) {
	learners := memory.NewLearnerStore()
	progressStore := memory.NewProgressStore()
	ctx := context.Background()

	l := learner.NewLearner("learner-1")
	_, err := l.AddXP(250)
	require.NoError(t, err)
	_, err = l.UnlockBadge(learner.BadgeFirstStep)
	require.NoError(t, err)
	require.NoError(t, learners.Create(ctx, l))

	tracker, err := progressStore.Load(ctx, "learner-1")
	require.NoError(t, err)
	_, err = tracker.Update(shared.NewItemID(1, 1), 100)
	require.NoError(t, err)
	_, err = tracker.Update(shared.NewItemID(1, 2), 60)
	require.NoError(t, err)
	require.NoError(t, progressStore.Save(ctx, tracker))

	h := NewGetProfileHandler(learners, nil, progressStore)

	dto, err := h.Handle(ctx, GetProfileQuery{LearnerID: "learner-1", IncludeProgress: true})
	require.NoError(t, err)

	assert.Equal(t, "learner-1", dto.ID)
	assert.Equal(t, learner.DefaultXP+250, dto.XP)
	assert.Equal(t, (learner.DefaultXP+250)/100, dto.Level)
	assert.Equal(t, 1, dto.CompletedModules, "only the 100%% item counts")
	assert.False(t, dto.ParentGateSet)

	// The shelf always shows the full badge catalog, flagging what is held.
	require.Len(t, dto.Badges, len(learner.Badges()))
	unlocked := 0
	for _, b := range dto.Badges {
		if b.Unlocked {
			unlocked++
			assert.Equal(t, learner.BadgeFirstStep, b.ID)
		}
	}
	assert.Equal(t, 1, unlocked)
}

func TestGetProfileNotFound(t *testing.T) {
	h := NewGetProfileHandler(memory.NewLearnerStore(), nil, memory.NewProgressStore())

	_, err := h.Handle(context.Background(), GetProfileQuery{LearnerID: "ghost"})
	require.ErrorIs(t, err, shared.ErrLearnerNotFound)
}

func TestGetProfileRequiresLearnerID(t *testing.T) {
	h := NewGetProfileHandler(memory.NewLearnerStore(), nil, memory.NewProgressStore())

	_, err := h.Handle(context.Background(), GetProfileQuery{})
	require.Error(t, err)
}
