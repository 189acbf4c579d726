package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func TestTracker_Update_Advances(t *testing.T) {
	tr := NewTracker("learner-1")

	res, err := tr.Update("1-1", 40)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, shared.ProgressValue(0), res.OldValue)
	assert.Equal(t, shared.ProgressValue(40), res.NewValue)
	assert.False(t, res.JustCompleted)
	assert.Equal(t, shared.ProgressValue(40), tr.Get("1-1"))
}

func TestTracker_Update_MonotonicNoOp(t *testing.T) {
	tr := NewTracker("learner-1")
	_, err := tr.Update("1-1", 60)
	require.NoError(t, err)

	// A lower value changes nothing.
	res, err := tr.Update("1-1", 30)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, shared.ProgressValue(60), res.NewValue)
	assert.Equal(t, shared.ProgressValue(60), tr.Get("1-1"))

	// Neither does an equal one.
	res, err = tr.Update("1-1", 60)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestTracker_Update_ClampsAboveHundred(t *testing.T) {
	tr := NewTracker("learner-1")
	res, err := tr.Update("1-1", 250)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, shared.CompleteProgress, res.NewValue)
	assert.True(t, res.JustCompleted)
}

func TestTracker_Update_RejectsNegative(t *testing.T) {
	tr := NewTracker("learner-1")
	_, err := tr.Update("1-1", -5)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)
	assert.Equal(t, shared.ProgressValue(0), tr.Get("1-1"))
}

func TestTracker_Update_RejectsBadItemID(t *testing.T) {
	tr := NewTracker("learner-1")
	_, err := tr.Update("not-an-id", 50)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestTracker_Update_CompletionTransitionFiresOnce(t *testing.T) {
	tr := NewTracker("learner-1")

	res, err := tr.Update("2-7", 100)
	require.NoError(t, err)
	assert.True(t, res.JustCompleted)

	rec, ok := tr.Record("2-7")
	require.True(t, ok)
	assert.False(t, rec.CompletedAt.IsZero())

	// Re-sending 100 is a no-op and must not re-fire the transition.
	res, err = tr.Update("2-7", 100)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.JustCompleted)
}

func TestTracker_Update_PartialThenComplete(t *testing.T) {
	tr := NewTracker("learner-1")

	res, err := tr.Update("3-3", 45)
	require.NoError(t, err)
	assert.False(t, res.JustCompleted)

	res, err = tr.Update("3-3", 100)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.JustCompleted)
	assert.Equal(t, shared.ProgressValue(45), res.OldValue)
}

func TestTracker_CompletedCounts(t *testing.T) {
	tr := NewTracker("learner-1")
	mustUpdate(t, tr, "1-1", 100)
	mustUpdate(t, tr, "1-2", 100)
	mustUpdate(t, tr, "1-3", 45)
	mustUpdate(t, tr, "2-1", 100)

	assert.Equal(t, 3, tr.CompletedCount())
	assert.Equal(t, 2, tr.CompletedInSeason(1))
	assert.Equal(t, 1, tr.CompletedInSeason(2))
	assert.Equal(t, 0, tr.CompletedInSeason(3))
}

func TestTracker_Records_Ordered(t *testing.T) {
	tr := NewTracker("learner-1")
	mustUpdate(t, tr, "2-1", 10)
	mustUpdate(t, tr, "1-10", 20)
	mustUpdate(t, tr, "1-2", 30)

	records := tr.Records()
	require.Len(t, records, 3)
	assert.Equal(t, shared.ItemID("1-2"), records[0].ItemID)
	assert.Equal(t, shared.ItemID("1-10"), records[1].ItemID)
	assert.Equal(t, shared.ItemID("2-1"), records[2].ItemID)
}

func TestRestore_RoundTrip(t *testing.T) {
	tr := NewTracker("learner-1")
	mustUpdate(t, tr, "1-1", 100)
	mustUpdate(t, tr, "1-3", 45)

	restored := Restore("learner-1", tr.Records())
	assert.Equal(t, tr.Snapshot(), restored.Snapshot())
	assert.Equal(t, tr.CompletedCount(), restored.CompletedCount())
}

func mustUpdate(t *testing.T, tr *Tracker, id shared.ItemID, value int) {
	t.Helper()
	_, err := tr.Update(id, value)
	require.NoError(t, err)
}
