package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// progressStub implements ProgressView with fixed season counts.
type progressStub map[int]int

func (p progressStub) CompletedInSeason(season int) int { return p[season] }

func TestChecker_FirstCompletion(t *testing.T) {
	l := NewLearner("learner-1")
	c := NewChecker()

	awards := c.OnModuleCompleted(l, 3, progressStub{3: 1})
	require.Len(t, awards, 2)
	assert.Equal(t, ModuleCompletionXP, awards[0].XP)
	assert.Equal(t, BadgeFirstStep, awards[1].BadgeID)
}

func TestChecker_SecondCompletion_NoBadge(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)
	c := NewChecker()

	awards := c.OnModuleCompleted(l, 3, progressStub{3: 2})
	require.Len(t, awards, 1)
	assert.Equal(t, ModuleCompletionXP, awards[0].XP)
}

func TestChecker_SeasonMastery_Order(t *testing.T) {
	l := NewLearner("learner-1")
	c := NewChecker()

	// Completing the last Season 1 item pays out in a strict order:
	// completion XP, first-step badge, mastery XP, mastery badge.
	awards := c.OnModuleCompleted(l, Season1, progressStub{Season1: ModulesPerSeason})
	require.Len(t, awards, 4)
	assert.Equal(t, ModuleCompletionXP, awards[0].XP)
	assert.Equal(t, BadgeFirstStep, awards[1].BadgeID)
	assert.Equal(t, SeasonMasteryXP, awards[2].XP)
	assert.Equal(t, BadgeSeason1Master, awards[3].BadgeID)
}

func TestChecker_SeasonMastery_FiresOnce(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)
	_, err = l.UnlockBadge(BadgeSeason1Master)
	require.NoError(t, err)
	c := NewChecker()

	// Season 1 stays fully complete, but mastery must not pay out again.
	awards := c.OnModuleCompleted(l, Season1, progressStub{Season1: ModulesPerSeason})
	require.Len(t, awards, 1)
	assert.Equal(t, ModuleCompletionXP, awards[0].XP)
}

func TestChecker_SeasonMastery_RequiresAllItems(t *testing.T) {
	l := NewLearner("learner-1")
	c := NewChecker()

	awards := c.OnModuleCompleted(l, Season1, progressStub{Season1: ModulesPerSeason - 1})
	for _, a := range awards {
		assert.NotEqual(t, BadgeSeason1Master, a.BadgeID)
		assert.NotEqual(t, SeasonMasteryXP, a.XP)
	}
}

func TestChecker_DataExplorer(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)
	c := NewChecker()

	// Four Big Data modules are not enough.
	awards := c.OnModuleCompleted(l, BigDataSeason, progressStub{BigDataSeason: 4})
	require.Len(t, awards, 1)

	// The fifth unlocks data_explorer with no extra XP.
	awards = c.OnModuleCompleted(l, BigDataSeason, progressStub{BigDataSeason: 5})
	require.Len(t, awards, 2)
	assert.Equal(t, BadgeDataExplorer, awards[1].BadgeID)
	assert.Zero(t, awards[1].XP)
}

func TestChecker_EthicsHero(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)
	c := NewChecker()

	awards := c.OnModuleCompleted(l, EthicsSeason, progressStub{EthicsSeason: ModulesPerSeason})
	require.Len(t, awards, 2)
	assert.Equal(t, BadgeEthicsHero, awards[1].BadgeID)
}

func TestChecker_OnTutorInteraction(t *testing.T) {
	l := NewLearner("learner-1")
	c := NewChecker()

	award := c.OnTutorInteraction(l)
	require.NotNil(t, award)
	assert.Equal(t, BadgeAITalker, award.BadgeID)

	_, err := l.UnlockBadge(BadgeAITalker)
	require.NoError(t, err)
	assert.Nil(t, c.OnTutorInteraction(l))
}
