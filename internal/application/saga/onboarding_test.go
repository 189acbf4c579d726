package saga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

func newOnboardingFixture(t *testing.T) (*OnboardingSaga, *memory.LearnerStore, *memory.ProgressStore, *notification.Queue) {
	t.Helper()

	learners := memory.NewLearnerStore()
	progressStore := memory.NewProgressStore()
	queue := notification.NewQueue(notification.WithTTL(time.Minute))
	t.Cleanup(queue.Close)

	return NewOnboardingSaga(learners, progressStore, queue, nil), learners, progressStore, queue
}

func TestOnboardingCreatesProfile(t *testing.T) {
	saga, learners, _, _ := newOnboardingFixture(t)

	result, err := saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1", Name: "Leo"})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "Leo", result.Learner.Name)

	stored, err := learners.GetByID(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.Equal(t, "Leo", stored.Name)
}

func TestOnboardingSeedsStarterProgress(t *testing.T) {
	saga, _, progressStore, _ := newOnboardingFixture(t)

	result, err := saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1"})
	require.NoError(t, err)
	require.True(t, result.Created)

	// A fresh profile starts with the demo modules of season 1.
	assert.Equal(t, 100, result.Tracker.Get(shared.NewItemID(1, 1)).Int())
	assert.Equal(t, 100, result.Tracker.Get(shared.NewItemID(1, 2)).Int())
	assert.Equal(t, 45, result.Tracker.Get(shared.NewItemID(1, 3)).Int())

	// The seed is persisted, not just held in memory.
	tracker, err := progressStore.Load(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.Equal(t, 100, tracker.Get(shared.NewItemID(1, 1)).Int())
	assert.Equal(t, 45, tracker.Get(shared.NewItemID(1, 3)).Int())
}

func TestOnboardingSeedAwardsNothing(t *testing.T) {
	saga, learners, _, queue := newOnboardingFixture(t)

	_, err := saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1"})
	require.NoError(t, err)

	// The demo modules bypass the achievement flow entirely.
	stored, err := learners.GetByID(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.Equal(t, shared.XP(learner.DefaultXP), stored.XP)
	assert.Empty(t, stored.Badges)

	// Only the welcome toast is queued, no XP or badge toasts.
	toasts := queue.List("kid-1")
	require.Len(t, toasts, 1)
	assert.Contains(t, toasts[0].Title, "Bem-vindo")
}

func TestOnboardingExistingProfileIsNotReseeded(t *testing.T) {
	saga, _, progressStore, _ := newOnboardingFixture(t)

	first, err := saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1"})
	require.NoError(t, err)
	require.True(t, first.Created)

	// The learner moves past the seeded value.
	tracker, err := progressStore.Load(context.Background(), "kid-1")
	require.NoError(t, err)
	_, err = tracker.Update(shared.NewItemID(1, 3), 80)
	require.NoError(t, err)
	require.NoError(t, progressStore.Save(context.Background(), tracker))

	second, err := saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1"})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, 80, second.Tracker.Get(shared.NewItemID(1, 3)).Int())
}

func TestOnboardingConfiguresParentPIN(t *testing.T) {
	saga, learners, _, _ := newOnboardingFixture(t)

	result, err := saga.Execute(context.Background(), OnboardingInput{
		LearnerID: "kid-1",
		ParentPIN: "1234",
	})
	require.NoError(t, err)
	assert.True(t, result.PINConfigured)

	stored, err := learners.GetByID(context.Background(), "kid-1")
	require.NoError(t, err)
	assert.True(t, stored.HasParentPIN())
}

func TestOnboardingRejectsBadInput(t *testing.T) {
	saga, _, _, _ := newOnboardingFixture(t)

	_, err := saga.Execute(context.Background(), OnboardingInput{})
	assert.Error(t, err)

	_, err = saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1", ParentPIN: "12"})
	assert.Error(t, err)

	_, err = saga.Execute(context.Background(), OnboardingInput{LearnerID: "kid-1", ParentPIN: "12ab"})
	assert.Error(t, err)
}
