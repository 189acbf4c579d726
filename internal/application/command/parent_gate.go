package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARENT GATE COMMANDS
// The parental gate protects the dashboard and the trailer generator.
// PINs are stored as bcrypt hashes on the learner profile; the gate
// never sees or stores the plain PIN beyond the request lifetime.
// ══════════════════════════════════════════════════════════════════════════════

// PIN length bounds accepted by the gate.
const (
	MinPINLength = 4
	MaxPINLength = 8
)

// validatePIN checks the PIN shape shared by both gate commands.
func validatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return fmt.Errorf("parent_gate: PIN must be %d-%d digits", MinPINLength, MaxPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return errors.New("parent_gate: PIN must be digits only")
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SET PARENT PIN
// ─────────────────────────────────────────────────────────────────────────────

// SetParentPINCommand configures or rotates the gate PIN.
type SetParentPINCommand struct {
	// LearnerID is the profile the gate protects.
	LearnerID string

	// PIN is the new PIN, digits only.
	PIN string

	// CurrentPIN must match the stored PIN when one is already set.
	CurrentPIN string
}

// Validate validates the command.
func (c SetParentPINCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("parent_gate: learner_id is required")
	}
	return validatePIN(c.PIN)
}

// SetParentPINHandler handles the SetParentPINCommand.
type SetParentPINHandler struct {
	learnerRepo learner.Repository
	bcryptCost  int
}

// NewSetParentPINHandler creates a new SetParentPINHandler.
func NewSetParentPINHandler(learnerRepo learner.Repository) *SetParentPINHandler {
	return &SetParentPINHandler{
		learnerRepo: learnerRepo,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

// Handle executes the set parent PIN command.
func (h *SetParentPINHandler) Handle(ctx context.Context, cmd SetParentPINCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("parent_gate: validation failed: %w", err)
	}

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return fmt.Errorf("parent_gate: failed to load learner: %w", err)
	}

	// Rotating an existing PIN requires proving the current one.
	if l.HasParentPIN() {
		if err := bcrypt.CompareHashAndPassword(l.ParentPINHash, []byte(cmd.CurrentPIN)); err != nil {
			return shared.ErrParentPINMismatch
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.PIN), h.bcryptCost)
	if err != nil {
		return fmt.Errorf("parent_gate: failed to hash PIN: %w", err)
	}

	l.SetParentPINHash(hash)
	if err := h.learnerRepo.Update(ctx, l); err != nil {
		return fmt.Errorf("parent_gate: failed to update learner: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// VERIFY PARENT
// ─────────────────────────────────────────────────────────────────────────────

// VerifyParentCommand checks a PIN against the gate.
type VerifyParentCommand struct {
	// LearnerID is the profile the gate protects.
	LearnerID string

	// PIN is the attempt.
	PIN string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c VerifyParentCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("parent_gate: learner_id is required")
	}
	if c.PIN == "" {
		return shared.ErrEmptyValue
	}
	return nil
}

// VerifyParentResult contains the gate decision.
type VerifyParentResult struct {
	// Verified is true when the PIN matched.
	Verified bool

	// VerifiedAt is when the gate accepted the PIN.
	VerifiedAt time.Time
}

// VerifyParentHandler handles the VerifyParentCommand.
type VerifyParentHandler struct {
	learnerRepo learner.Repository
	publisher   shared.EventPublisher
}

// NewVerifyParentHandler creates a new VerifyParentHandler.
// The publisher may be nil.
func NewVerifyParentHandler(learnerRepo learner.Repository, publisher shared.EventPublisher) *VerifyParentHandler {
	return &VerifyParentHandler{learnerRepo: learnerRepo, publisher: publisher}
}

// Handle executes the verify parent command. A wrong PIN comes back as
// shared.ErrParentPINMismatch, a missing gate as shared.ErrParentPINNotSet.
func (h *VerifyParentHandler) Handle(ctx context.Context, cmd VerifyParentCommand) (*VerifyParentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("parent_gate: validation failed: %w", err)
	}

	l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("parent_gate: failed to load learner: %w", err)
	}

	if !l.HasParentPIN() {
		return nil, shared.ErrParentPINNotSet
	}

	if err := bcrypt.CompareHashAndPassword(l.ParentPINHash, []byte(cmd.PIN)); err != nil {
		return nil, shared.ErrParentPINMismatch
	}

	result := &VerifyParentResult{
		Verified:   true,
		VerifiedAt: time.Now().UTC(),
	}

	if h.publisher != nil {
		event := shared.NewParentVerifiedEvent(cmd.LearnerID, result.VerifiedAt)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		_ = h.publisher.Publish(event)
	}

	return result, nil
}
