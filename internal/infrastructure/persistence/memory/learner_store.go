// Package memory provides mutex-protected in-memory implementations of the
// domain repositories. They back single-instance deployments and tests, and
// serve as the fallback when Postgres is disabled in configuration.
package memory

import (
	"context"
	"sync"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// LearnerStore is an in-memory implementation of learner.Repository.
type LearnerStore struct {
	mu       sync.RWMutex
	learners map[string]learner.Learner
}

// NewLearnerStore creates an empty LearnerStore.
func NewLearnerStore() *LearnerStore {
	return &LearnerStore{
		learners: make(map[string]learner.Learner),
	}
}

// Create stores a new learner.
func (s *LearnerStore) Create(ctx context.Context, l *learner.Learner) error {
	if l == nil {
		return shared.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.learners[l.ID]; ok {
		return shared.ErrAlreadyExists
	}

	s.learners[l.ID] = clone(l)
	return nil
}

// GetByID returns a learner by ID.
func (s *LearnerStore) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}

	out := clone(&l)
	return &out, nil
}

// Update persists profile changes.
func (s *LearnerStore) Update(ctx context.Context, l *learner.Learner) error {
	if l == nil {
		return shared.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.learners[l.ID]; !ok {
		return shared.ErrLearnerNotFound
	}

	s.learners[l.ID] = clone(l)
	return nil
}

// Delete removes a learner profile. Deleting a missing learner is a no-op.
func (s *LearnerStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.learners, id)
	return nil
}

// Len returns the number of stored learners.
func (s *LearnerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.learners)
}

// clone copies a learner so callers cannot mutate stored state through
// shared slices.
func clone(l *learner.Learner) learner.Learner {
	out := *l
	out.Badges = append([]string(nil), l.Badges...)
	out.ParentPINHash = append([]byte(nil), l.ParentPINHash...)
	return out
}
