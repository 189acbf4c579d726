package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/application/saga"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/notification"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

type fakeTutor struct {
	answer   string
	degraded bool
	seen     []shared.Audience
}

func (f *fakeTutor) Ask(ctx context.Context, question string, audience shared.Audience) (string, bool) {
	f.seen = append(f.seen, audience)
	return f.answer, f.degraded
}

type fakeTranscript struct {
	questions []string
	answers   []string
}

func (f *fakeTranscript) SaveExchange(ctx context.Context, learnerID string, audience shared.Audience, question, answer string) error {
	f.questions = append(f.questions, question)
	f.answers = append(f.answers, answer)
	return nil
}

func newTutorFixture(t *testing.T, tutor *fakeTutor, transcript *fakeTranscript) (*AskTutorHandler, *memory.LearnerStore) {
	t.Helper()

	repo := memory.NewLearnerStore()
	require.NoError(t, repo.Create(context.Background(), learner.NewLearner("learner-1")))

	queue := notification.NewQueue(notification.WithTTL(time.Minute))
	t.Cleanup(queue.Close)

	flow := saga.NewAchievementFlow(repo, queue, nil)
	// Avoid wrapping a typed nil *fakeTranscript into a non-nil interface,
	// which would defeat the handler's nil check.
	var ts TutorTranscript
	if transcript != nil {
		ts = transcript
	}
	return NewAskTutorHandler(repo, tutor, ts, flow, nil), repo
}

func TestAskTutorFirstInteractionUnlocksBadge(t *testing.T) {
	tutor := &fakeTutor{answer: "Redes neurais são como cérebros de robôs!"}
	transcript := &fakeTranscript{}
	handler, repo := newTutorFixture(t, tutor, transcript)

	result, err := handler.Handle(context.Background(), AskTutorCommand{
		LearnerID: "learner-1",
		Question:  "O que é uma rede neural?",
	})
	require.NoError(t, err)

	assert.Equal(t, tutor.answer, result.Answer)
	assert.Equal(t, "child", result.Audience)
	assert.False(t, result.Degraded)
	assert.True(t, result.FirstInteraction)
	require.NotNil(t, result.Achievements)
	require.Len(t, result.Achievements.Badges, 1)
	assert.Equal(t, learner.BadgeAITalker, result.Achievements.Badges[0].ID)

	stored, err := repo.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TutorInteractions)
	assert.True(t, stored.HasBadge(learner.BadgeAITalker))

	assert.Equal(t, []string{"O que é uma rede neural?"}, transcript.questions)
}

func TestAskTutorSecondInteractionPersistsCounter(t *testing.T) {
	handler, repo := newTutorFixture(t, &fakeTutor{answer: "ok"}, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, AskTutorCommand{LearnerID: "learner-1", Question: "primeira"})
	require.NoError(t, err)

	result, err := handler.Handle(ctx, AskTutorCommand{LearnerID: "learner-1", Question: "segunda"})
	require.NoError(t, err)

	assert.False(t, result.FirstInteraction)
	assert.Nil(t, result.Achievements)

	stored, err := repo.GetByID(ctx, "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TutorInteractions)
}

func TestAskTutorAdultAudience(t *testing.T) {
	tutor := &fakeTutor{answer: "Uma rede neural é um aproximador de funções."}
	handler, _ := newTutorFixture(t, tutor, nil)

	result, err := handler.Handle(context.Background(), AskTutorCommand{
		LearnerID: "learner-1",
		Question:  "Explique redes neurais.",
		Audience:  "adult",
	})
	require.NoError(t, err)

	assert.Equal(t, "adult", result.Audience)
	require.Len(t, tutor.seen, 1)
	assert.Equal(t, shared.AudienceAdult, tutor.seen[0])
}

func TestAskTutorDegradedStillCounts(t *testing.T) {
	tutor := &fakeTutor{answer: "Neo está recarregando os circuitos...", degraded: true}
	handler, repo := newTutorFixture(t, tutor, nil)

	result, err := handler.Handle(context.Background(), AskTutorCommand{
		LearnerID: "learner-1",
		Question:  "Oi Neo!",
	})
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.True(t, result.FirstInteraction)

	stored, err := repo.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TutorInteractions)
}

func TestAskTutorRejectsBlankQuestion(t *testing.T) {
	handler, _ := newTutorFixture(t, &fakeTutor{answer: "ok"}, nil)

	_, err := handler.Handle(context.Background(), AskTutorCommand{
		LearnerID: "learner-1",
		Question:  "   ",
	})
	require.ErrorIs(t, err, shared.ErrEmptyValue)
}
