package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

func newGateFixture(t *testing.T) (*SetParentPINHandler, *VerifyParentHandler, *recorderPublisher) {
	t.Helper()

	repo := memory.NewLearnerStore()
	require.NoError(t, repo.Create(context.Background(), learner.NewLearner("learner-1")))

	pub := &recorderPublisher{}
	return NewSetParentPINHandler(repo), NewVerifyParentHandler(repo, pub), pub
}

func TestParentGateSetAndVerify(t *testing.T) {
	set, verify, pub := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, set.Handle(ctx, SetParentPINCommand{LearnerID: "learner-1", PIN: "1234"}))

	result, err := verify.Handle(ctx, VerifyParentCommand{LearnerID: "learner-1", PIN: "1234"})
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Contains(t, pub.types(), shared.EventParentVerified)
}

func TestParentGateWrongPIN(t *testing.T) {
	set, verify, _ := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, set.Handle(ctx, SetParentPINCommand{LearnerID: "learner-1", PIN: "1234"}))

	_, err := verify.Handle(ctx, VerifyParentCommand{LearnerID: "learner-1", PIN: "9999"})
	require.ErrorIs(t, err, shared.ErrParentPINMismatch)
}

func TestParentGateNotConfigured(t *testing.T) {
	_, verify, _ := newGateFixture(t)

	_, err := verify.Handle(context.Background(), VerifyParentCommand{LearnerID: "learner-1", PIN: "1234"})
	require.ErrorIs(t, err, shared.ErrParentPINNotSet)
}

func TestParentGateRotationRequiresCurrentPIN(t *testing.T) {
	set, verify, _ := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, set.Handle(ctx, SetParentPINCommand{LearnerID: "learner-1", PIN: "1234"}))

	// Rotating without proving the current PIN fails.
	err := set.Handle(ctx, SetParentPINCommand{LearnerID: "learner-1", PIN: "5678"})
	require.ErrorIs(t, err, shared.ErrParentPINMismatch)

	// With the current PIN the rotation goes through.
	require.NoError(t, set.Handle(ctx, SetParentPINCommand{
		LearnerID:  "learner-1",
		PIN:        "5678",
		CurrentPIN: "1234",
	}))

	_, err = verify.Handle(ctx, VerifyParentCommand{LearnerID: "learner-1", PIN: "1234"})
	require.ErrorIs(t, err, shared.ErrParentPINMismatch)

	result, err := verify.Handle(ctx, VerifyParentCommand{LearnerID: "learner-1", PIN: "5678"})
	require.NoError(t, err)
	assert.True(t, result.Verified)
}

func TestParentGatePINShape(t *testing.T) {
	set, _, _ := newGateFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		pin  string
	}{
		{"too short", "123"},
		{"too long", "123456789"},
		{"non-digit", "12ab"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := set.Handle(ctx, SetParentPINCommand{LearnerID: "learner-1", PIN: tt.pin})
			assert.Error(t, err)
		})
	}
}
