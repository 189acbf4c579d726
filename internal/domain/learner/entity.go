// Package learner contains the learner profile aggregate: XP, level,
// unlocked badges and the parental gate PIN. Levels are derived from XP,
// never stored, so profile state can not drift from the XP total.
package learner

import (
	"strings"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// Role distinguishes the child profile from the supervising parent.
type Role string

const (
	RoleChild  Role = "child"
	RoleParent Role = "parent"
)

// Default profile values for a fresh install.
const (
	DefaultName   = "Leo"
	DefaultAvatar = "https://picsum.photos/seed/user123/200"
	DefaultXP     = 450
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER AGGREGATE
// ══════════════════════════════════════════════════════════════════════════════

// Learner is the profile aggregate.
type Learner struct {
	// ID is the profile identifier.
	ID string

	// Name is the display name.
	Name string

	// Avatar is the profile picture URL.
	Avatar string

	// Role is the profile role. The catalog always renders for the child;
	// the parent role exists for the dashboard surface.
	Role Role

	// XP is the accumulated experience total. Level is derived from it.
	XP shared.XP

	// Badges holds unlocked badge IDs in unlock order.
	Badges []string

	// ParentPINHash is the bcrypt hash of the parental gate PIN.
	// Empty until a parent sets one.
	ParentPINHash []byte

	// TutorInteractions counts messages sent to the tutor.
	TutorInteractions int

	// CreatedAt is when the profile was created.
	CreatedAt time.Time

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time
}

// NewLearner creates a learner with the default fresh-install profile.
func NewLearner(id string) *Learner {
	now := time.Now()
	return &Learner{
		ID:        id,
		Name:      DefaultName,
		Avatar:    DefaultAvatar,
		Role:      RoleChild,
		XP:        DefaultXP,
		Badges:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Level returns the current level, derived from XP.
func (l *Learner) Level() shared.Level {
	return l.XP.Level()
}

// XPGain describes the outcome of an AddXP call.
type XPGain struct {
	// Amount is the XP added.
	Amount int

	// NewTotal is the XP total after the gain.
	NewTotal int

	// OldLevel is the level before the gain.
	OldLevel shared.Level

	// NewLevel is the level after the gain.
	NewLevel shared.Level
}

// LeveledUp reports whether the gain crossed a level boundary.
func (g XPGain) LeveledUp() bool {
	return g.NewLevel > g.OldLevel
}

// AddXP adds experience points. Negative amounts are rejected.
func (l *Learner) AddXP(amount int) (XPGain, error) {
	if amount < 0 {
		return XPGain{}, shared.ErrInvalidXPAmount
	}

	gain := XPGain{
		Amount:   amount,
		OldLevel: l.Level(),
	}
	l.XP = l.XP.Add(amount)
	l.UpdatedAt = time.Now()

	gain.NewTotal = l.XP.Int()
	gain.NewLevel = l.Level()
	return gain, nil
}

// HasBadge reports whether the badge is already unlocked.
func (l *Learner) HasBadge(badgeID string) bool {
	for _, b := range l.Badges {
		if b == badgeID {
			return true
		}
	}
	return false
}

// UnlockBadge adds a badge to the profile. Unlocking an unknown badge or
// one already owned is an error.
func (l *Learner) UnlockBadge(badgeID string) (Badge, error) {
	badge, ok := BadgeByID(badgeID)
	if !ok {
		return Badge{}, shared.ErrBadgeNotFound
	}
	if l.HasBadge(badgeID) {
		return Badge{}, shared.ErrBadgeAlreadyOwned
	}
	l.Badges = append(l.Badges, badgeID)
	l.UpdatedAt = time.Now()
	return badge, nil
}

// UnlockedBadges returns the full badge definitions in unlock order.
func (l *Learner) UnlockedBadges() []Badge {
	out := make([]Badge, 0, len(l.Badges))
	for _, id := range l.Badges {
		if badge, ok := BadgeByID(id); ok {
			out = append(out, badge)
		}
	}
	return out
}

// RecordTutorInteraction bumps the tutor message counter and reports
// whether this was the first interaction ever.
func (l *Learner) RecordTutorInteraction() bool {
	l.TutorInteractions++
	l.UpdatedAt = time.Now()
	return l.TutorInteractions == 1
}

// SetParentPINHash stores the bcrypt hash of the parental gate PIN.
func (l *Learner) SetParentPINHash(hash []byte) {
	l.ParentPINHash = hash
	l.UpdatedAt = time.Now()
}

// HasParentPIN reports whether the parental gate has been configured.
func (l *Learner) HasParentPIN() bool {
	return len(l.ParentPINHash) > 0
}

// Rename changes the display name. Blank names are rejected.
func (l *Learner) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrEmptyValue
	}
	l.Name = name
	l.UpdatedAt = time.Now()
	return nil
}
