// Package progress tracks per-item completion for a learner. Progress only
// moves forward: an update below the stored value is a silent no-op, values
// above 100 clamp to 100, and the 100 boundary marks the completion
// transition the achievement flow keys on.
package progress

import (
	"sort"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// Record is the stored progress of one catalog item for one learner.
type Record struct {
	// ItemID identifies the catalog item.
	ItemID shared.ItemID

	// Value is the current progress, 0-100.
	Value shared.ProgressValue

	// UpdatedAt is when the value last advanced.
	UpdatedAt time.Time

	// CompletedAt is when the value first reached 100. Zero if incomplete.
	CompletedAt time.Time
}

// IsComplete reports whether the item has been fully watched or played.
func (r Record) IsComplete() bool {
	return r.Value.IsComplete()
}

// UpdateResult describes the outcome of an Update call.
type UpdateResult struct {
	// ItemID identifies the updated item.
	ItemID shared.ItemID

	// OldValue is the progress before the update.
	OldValue shared.ProgressValue

	// NewValue is the progress after the update.
	NewValue shared.ProgressValue

	// Changed is false when the update was a monotonic no-op.
	Changed bool

	// JustCompleted is true exactly when this update crossed the 100 boundary.
	JustCompleted bool
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Tracker is the progress aggregate of a single learner.
// It is not safe for concurrent use; callers serialize access.
type Tracker struct {
	// LearnerID identifies the owner.
	LearnerID string

	records map[shared.ItemID]Record
}

// NewTracker creates an empty tracker for a learner.
func NewTracker(learnerID string) *Tracker {
	return &Tracker{
		LearnerID: learnerID,
		records:   make(map[shared.ItemID]Record),
	}
}

// Restore rebuilds a tracker from persisted records.
func Restore(learnerID string, records []Record) *Tracker {
	t := NewTracker(learnerID)
	for _, r := range records {
		t.records[r.ItemID] = r
	}
	return t
}

// Update advances the progress of an item. Raw values above 100 clamp to
// 100 and negative values are rejected. Values at or below the stored one
// leave the record untouched and come back with Changed=false.
func (t *Tracker) Update(itemID shared.ItemID, rawValue int) (UpdateResult, error) {
	if !itemID.IsValid() {
		return UpdateResult{}, shared.ErrInvalidItemID
	}

	value, err := shared.NewProgressValue(rawValue)
	if err != nil {
		return UpdateResult{}, err
	}

	current := t.records[itemID]
	result := UpdateResult{
		ItemID:   itemID,
		OldValue: current.Value,
		NewValue: current.Value,
	}

	if value <= current.Value {
		return result, nil
	}

	now := time.Now()
	record := Record{
		ItemID:      itemID,
		Value:       value,
		UpdatedAt:   now,
		CompletedAt: current.CompletedAt,
	}
	if value.IsComplete() && !current.Value.IsComplete() {
		record.CompletedAt = now
		result.JustCompleted = true
	}
	t.records[itemID] = record

	result.NewValue = value
	result.Changed = true
	return result, nil
}

// Get returns the progress of an item, zero if never touched.
func (t *Tracker) Get(itemID shared.ItemID) shared.ProgressValue {
	return t.records[itemID].Value
}

// Record returns the full stored record of an item.
func (t *Tracker) Record(itemID shared.ItemID) (Record, bool) {
	r, ok := t.records[itemID]
	return r, ok
}

// Records returns all stored records, ordered by item ID
// (season first, then module).
func (t *Tracker) Records() []Record {
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].ItemID.Season(), out[j].ItemID.Season()
		if si != sj {
			return si < sj
		}
		return out[i].ItemID.Module() < out[j].ItemID.Module()
	})
	return out
}

// Snapshot returns progress values keyed by item ID, for the browse join.
func (t *Tracker) Snapshot() map[shared.ItemID]shared.ProgressValue {
	out := make(map[shared.ItemID]shared.ProgressValue, len(t.records))
	for id, r := range t.records {
		out[id] = r.Value
	}
	return out
}

// CompletedCount returns how many items have reached full progress.
func (t *Tracker) CompletedCount() int {
	n := 0
	for _, r := range t.records {
		if r.IsComplete() {
			n++
		}
	}
	return n
}

// CompletedInSeason returns how many items of the given 1-based season
// are complete.
func (t *Tracker) CompletedInSeason(season int) int {
	n := 0
	for id, r := range t.records {
		if id.Season() == season && r.IsComplete() {
			n++
		}
	}
	return n
}
