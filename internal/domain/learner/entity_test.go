package learner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func TestNewLearner_Defaults(t *testing.T) {
	l := NewLearner("learner-1")
	assert.Equal(t, "Leo", l.Name)
	assert.Equal(t, RoleChild, l.Role)
	assert.Equal(t, shared.XP(450), l.XP)
	assert.Equal(t, shared.Level(4), l.Level())
	assert.Empty(t, l.Badges)
	assert.False(t, l.HasParentPIN())
}

func TestLearner_AddXP_LevelBoundary(t *testing.T) {
	l := NewLearner("learner-1")

	// 450 -> 500 crosses exactly one level boundary.
	gain, err := l.AddXP(50)
	require.NoError(t, err)
	assert.Equal(t, 500, gain.NewTotal)
	assert.Equal(t, shared.Level(4), gain.OldLevel)
	assert.Equal(t, shared.Level(5), gain.NewLevel)
	assert.True(t, gain.LeveledUp())
}

func TestLearner_AddXP_NoLevelUpWithinLevel(t *testing.T) {
	l := NewLearner("learner-1")
	gain, err := l.AddXP(49)
	require.NoError(t, err)
	assert.Equal(t, 499, gain.NewTotal)
	assert.False(t, gain.LeveledUp())
}

func TestLearner_AddXP_MultipleLevels(t *testing.T) {
	l := NewLearner("learner-1")
	gain, err := l.AddXP(250)
	require.NoError(t, err)
	assert.Equal(t, shared.Level(7), gain.NewLevel)
	assert.True(t, gain.LeveledUp())
}

func TestLearner_AddXP_RejectsNegative(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.AddXP(-10)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
	assert.Equal(t, shared.XP(450), l.XP)
}

func TestLearner_UnlockBadge(t *testing.T) {
	l := NewLearner("learner-1")

	badge, err := l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)
	assert.Equal(t, "Primeiro Passo", badge.Title)
	assert.Equal(t, "🚀", badge.Icon)
	assert.Equal(t, ColorCyan, badge.Color)
	assert.True(t, l.HasBadge(BadgeFirstStep))

	// Unlocking again is an error, not a duplicate.
	_, err = l.UnlockBadge(BadgeFirstStep)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	assert.Len(t, l.Badges, 1)
}

func TestLearner_UnlockBadge_Unknown(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge("no_such_badge")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLearner_UnlockedBadges_Order(t *testing.T) {
	l := NewLearner("learner-1")
	_, err := l.UnlockBadge(BadgeAITalker)
	require.NoError(t, err)
	_, err = l.UnlockBadge(BadgeFirstStep)
	require.NoError(t, err)

	unlocked := l.UnlockedBadges()
	require.Len(t, unlocked, 2)
	assert.Equal(t, BadgeAITalker, unlocked[0].ID)
	assert.Equal(t, BadgeFirstStep, unlocked[1].ID)
}

func TestLearner_RecordTutorInteraction(t *testing.T) {
	l := NewLearner("learner-1")
	assert.True(t, l.RecordTutorInteraction())
	assert.False(t, l.RecordTutorInteraction())
	assert.Equal(t, 2, l.TutorInteractions)
}

func TestBadges_Catalog(t *testing.T) {
	all := Badges()
	require.Len(t, all, 5)

	ids := make([]string, 0, len(all))
	for _, b := range all {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{
		BadgeFirstStep, BadgeSeason1Master, BadgeAITalker, BadgeDataExplorer, BadgeEthicsHero,
	}, ids)

	badge, ok := BadgeByID(BadgeEthicsHero)
	require.True(t, ok)
	assert.Equal(t, "Herói da Ética", badge.Title)
	assert.Equal(t, ColorMagenta, badge.Color)
}
