package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

type recorderPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recorderPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recorderPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type progressFixture struct {
	handler     *UpdateProgressHandler
	learnerRepo *memory.LearnerStore
	publisher   *recorderPublisher
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()

	learnerRepo := memory.NewLearnerStore()
	progressRepo := memory.NewProgressStore()
	queue := notification.NewQueue(notification.WithTTL(time.Minute))
	t.Cleanup(queue.Close)
	pub := &recorderPublisher{}

	require.NoError(t, learnerRepo.Create(context.Background(), learner.NewLearner("learner-1")))

	flow := saga.NewAchievementFlow(learnerRepo, queue, pub)
	handler := NewUpdateProgressHandler(learnerRepo, progressRepo, nil, catalog.Generate(), flow, pub)

	return &progressFixture{handler: handler, learnerRepo: learnerRepo, publisher: pub}
}

func TestUpdateProgressAdvances(t *testing.T) {
	f := newProgressFixture(t)

	result, err := f.handler.Handle(context.Background(), UpdateProgressCommand{
		LearnerID: "learner-1",
		ItemID:    "1-1",
		Value:     40,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.OldValue)
	assert.Equal(t, 40, result.NewValue)
	assert.True(t, result.Changed)
	assert.False(t, result.JustCompleted)
	assert.Nil(t, result.Achievements)
	assert.Contains(t, f.publisher.types(), shared.EventProgressUpdated)
}

func TestUpdateProgressMonotonicNoOp(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, UpdateProgressCommand{LearnerID: "learner-1", ItemID: "1-1", Value: 60})
	require.NoError(t, err)

	result, err := f.handler.Handle(ctx, UpdateProgressCommand{LearnerID: "learner-1", ItemID: "1-1", Value: 30})
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Equal(t, 60, result.OldValue)
	assert.Equal(t, 60, result.NewValue)
}

func TestUpdateProgressCompletionRunsFlow(t *testing.T) {
	f := newProgressFixture(t)

	result, err := f.handler.Handle(context.Background(), UpdateProgressCommand{
		LearnerID: "learner-1",
		ItemID:    "1-1",
		Value:     100,
	})
	require.NoError(t, err)

	assert.True(t, result.JustCompleted)
	require.NotNil(t, result.Achievements)
	assert.Equal(t, learner.ModuleCompletionXP, result.Achievements.XPAwarded)
	require.Len(t, result.Achievements.Badges, 1)
	assert.Equal(t, learner.BadgeFirstStep, result.Achievements.Badges[0].ID)

	stored, err := f.learnerRepo.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 500, stored.XP.Int())

	assert.Contains(t, f.publisher.types(), shared.EventModuleCompleted)
}

func TestUpdateProgressRecompletionIsNoOp(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	_, err := f.handler.Handle(ctx, UpdateProgressCommand{LearnerID: "learner-1", ItemID: "1-1", Value: 100})
	require.NoError(t, err)

	result, err := f.handler.Handle(ctx, UpdateProgressCommand{LearnerID: "learner-1", ItemID: "1-1", Value: 100})
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.False(t, result.JustCompleted)
	assert.Nil(t, result.Achievements)

	// No double payout.
	stored, err := f.learnerRepo.GetByID(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 500, stored.XP.Int())
}

func TestUpdateProgressClampsAbove100(t *testing.T) {
	f := newProgressFixture(t)

	result, err := f.handler.Handle(context.Background(), UpdateProgressCommand{
		LearnerID: "learner-1",
		ItemID:    "2-3",
		Value:     250,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, result.NewValue)
	assert.True(t, result.JustCompleted)
}

func TestUpdateProgressUnknownItem(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.handler.Handle(context.Background(), UpdateProgressCommand{
		LearnerID: "learner-1",
		ItemID:    "21-1",
		Value:     10,
	})
	require.ErrorIs(t, err, shared.ErrItemNotFound)
}

func TestUpdateProgressRejectsNegative(t *testing.T) {
	f := newProgressFixture(t)

	_, err := f.handler.Handle(context.Background(), UpdateProgressCommand{
		LearnerID: "learner-1",
		ItemID:    "1-1",
		Value:     -5,
	})
	require.ErrorIs(t, err, shared.ErrNegativeProgress)
}
