// Package notification contains the toast notification model of AI Kids Hub.
// Toasts are short-lived overlay cards: XP gains, level-ups and badge
// unlocks. Every toast expires on its own after a fixed TTL unless the
// learner dismisses it first.
package notification

import (
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Kind distinguishes XP toasts from badge toasts.
type Kind string

const (
	// KindXP covers XP gains and level-ups.
	KindXP Kind = "xp"

	// KindBadge covers badge unlocks.
	KindBadge Kind = "badge"
)

// IsValid checks if the kind is one of the known values.
func (k Kind) IsValid() bool {
	return k == KindXP || k == KindBadge
}

// Color is the accent color of the toast card.
type Color string

const (
	ColorCyan    Color = "cyan"
	ColorMagenta Color = "magenta"
	ColorYellow  Color = "yellow"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOAST ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Toast is a single notification card.
type Toast struct {
	// ID is the unique toast identifier, assigned by the queue on push.
	ID string `json:"id"`

	// LearnerID is the recipient.
	LearnerID string `json:"learner_id"`

	// Kind is the toast category.
	Kind Kind `json:"type"`

	// Title is the headline, e.g. "+50 XP" or "Emblema Desbloqueado!".
	Title string `json:"title"`

	// Subtitle is the secondary line.
	Subtitle string `json:"subtitle"`

	// Icon is an optional emoji, set for badge toasts.
	Icon string `json:"icon,omitempty"`

	// Color is the accent color of the card.
	Color Color `json:"color"`

	// CreatedAt is when the toast was pushed.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is when the toast auto-dismisses.
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate checks the toast fields before it enters the queue.
func (t Toast) Validate() error {
	if !t.Kind.IsValid() {
		return shared.ErrInvalidKind
	}
	if t.Title == "" {
		return shared.WrapError("notification", "Validate", shared.ErrEmptyValue, "toast title is empty", nil)
	}
	return nil
}

// NewXPToast builds the toast shown for every XP gain.
func NewXPToast(learnerID string, amount int) Toast {
	return Toast{
		LearnerID: learnerID,
		Kind:      KindXP,
		Title:     fmt.Sprintf("+%d XP", amount),
		Subtitle:  "Progressão Neural",
		Color:     ColorCyan,
	}
}

// NewLevelUpToast builds the toast shown when the level increases.
func NewLevelUpToast(learnerID string, newLevel int) Toast {
	return Toast{
		LearnerID: learnerID,
		Kind:      KindXP,
		Title:     "Nível Subiu!",
		Subtitle:  fmt.Sprintf("Você alcançou o Nível %d", newLevel),
		Color:     ColorYellow,
	}
}

// NewBadgeToast builds the toast shown when a badge unlocks.
func NewBadgeToast(learnerID string, badge learner.Badge) Toast {
	return Toast{
		LearnerID: learnerID,
		Kind:      KindBadge,
		Title:     "Emblema Desbloqueado!",
		Subtitle:  badge.Title,
		Icon:      badge.Icon,
		Color:     Color(badge.Color),
	}
}
