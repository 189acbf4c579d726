package memory

import (
	"context"
	"sync"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ProgressStore is an in-memory implementation of progress.Repository.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]map[shared.ItemID]progress.Record
}

// NewProgressStore creates an empty ProgressStore.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[string]map[shared.ItemID]progress.Record),
	}
}

// Load returns the tracker of a learner. A learner with no stored progress
// gets an empty tracker.
func (s *ProgressStore) Load(ctx context.Context, learnerID string) (*progress.Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[learnerID]
	if !ok {
		return progress.NewTracker(learnerID), nil
	}

	records := make([]progress.Record, 0, len(stored))
	for _, r := range stored {
		records = append(records, r)
	}

	return progress.Restore(learnerID, records), nil
}

// Save persists the full tracker state, replacing what was stored before.
func (s *ProgressStore) Save(ctx context.Context, tracker *progress.Tracker) error {
	if tracker == nil {
		return shared.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(map[shared.ItemID]progress.Record)
	for _, r := range tracker.Records() {
		stored[r.ItemID] = r
	}
	s.records[tracker.LearnerID] = stored

	return nil
}

// SaveRecord persists a single record.
func (s *ProgressStore) SaveRecord(ctx context.Context, learnerID string, record progress.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[learnerID]
	if !ok {
		stored = make(map[shared.ItemID]progress.Record)
		s.records[learnerID] = stored
	}
	stored[record.ItemID] = record

	return nil
}

// Delete removes all progress of a learner. Missing learners are a no-op.
func (s *ProgressStore) Delete(ctx context.Context, learnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, learnerID)
	return nil
}
