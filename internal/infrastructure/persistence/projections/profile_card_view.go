// Package projections implements read models for CQRS pattern.
package projections

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CARD VIEW - Denormalized Read Model for the Header Chip
// ══════════════════════════════════════════════════════════════════════════════

// ProfileCardView holds the denormalized profile cards the header chip and
// the parent dashboard read on every page. It is kept current by the event
// dispatcher instead of re-deriving XP, level and badge counts per request.
type ProfileCardView struct {
	mu sync.RWMutex

	// cards holds all profile cards indexed by learner ID.
	cards map[string]*ProfileCard

	// lastUpdated is the timestamp of the last update.
	lastUpdated time.Time

	// version is incremented on each update.
	version int64
}

// ProfileCard is a compact denormalized view of a learner profile.
type ProfileCard struct {
	LearnerID string `json:"learner_id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`

	XP                  int    `json:"xp"`
	Level               int    `json:"level"`
	LevelTitle          string `json:"level_title"`
	ProgressToNextLevel int    `json:"progress_to_next_level"`

	BadgesUnlocked int      `json:"badges_unlocked"`
	RecentBadges   []string `json:"recent_badges"`

	CompletedModules  int `json:"completed_modules"`
	TutorInteractions int `json:"tutor_interactions"`

	LastActivityAt time.Time `json:"last_activity_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int64     `json:"version"`
}

// recentBadgeShelfSize bounds the badge strip on the card.
const recentBadgeShelfSize = 3

// NewProfileCardView creates a new empty profile card view.
func NewProfileCardView() *ProfileCardView {
	return &ProfileCardView{
		cards:       make(map[string]*ProfileCard),
		lastUpdated: time.Now().UTC(),
		version:     1,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILD / REBUILD OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// BuildCard constructs a ProfileCard from the learner aggregate and the
// completed module count of the progress tracker.
func (pv *ProfileCardView) BuildCard(l *learner.Learner, completedModules int) (*ProfileCard, error) {
	if l == nil {
		return nil, fmt.Errorf("projections: learner is required to build card")
	}

	card := &ProfileCard{
		LearnerID:           l.ID,
		Name:                l.Name,
		Avatar:              l.Avatar,
		XP:                  l.XP.Int(),
		Level:               l.Level().Int(),
		LevelTitle:          l.Level().Title(),
		ProgressToNextLevel: l.XP.ProgressToNextLevel(),
		BadgesUnlocked:      len(l.Badges),
		RecentBadges:        recentBadges(l.Badges),
		CompletedModules:    completedModules,
		TutorInteractions:   l.TutorInteractions,
		LastActivityAt:      l.UpdatedAt,
		UpdatedAt:           time.Now().UTC(),
		Version:             1,
	}
	return card, nil
}

// UpsertCard inserts or updates a profile card.
func (pv *ProfileCardView) UpsertCard(card *ProfileCard) error {
	if card == nil {
		return fmt.Errorf("projections: cannot upsert nil card")
	}

	pv.mu.Lock()
	defer pv.mu.Unlock()

	card.UpdatedAt = time.Now().UTC()
	card.Version++
	pv.cards[card.LearnerID] = card

	pv.lastUpdated = time.Now().UTC()
	pv.version++
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE OPERATIONS (driven by the event dispatcher)
// ══════════════════════════════════════════════════════════════════════════════

// ApplyXPGain updates the XP fields from an XP gained event.
func (pv *ProfileCardView) ApplyXPGain(learnerID string, newTotal int) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if card, exists := pv.cards[learnerID]; exists {
		card.XP = newTotal
		level := shared.XP(newTotal).Level()
		card.Level = level.Int()
		card.LevelTitle = level.Title()
		card.ProgressToNextLevel = shared.XP(newTotal).ProgressToNextLevel()
		pv.touch(card)
	}
}

// ApplyBadgeUnlock appends a badge from a badge unlocked event.
func (pv *ProfileCardView) ApplyBadgeUnlock(learnerID, badgeID string) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if card, exists := pv.cards[learnerID]; exists {
		card.BadgesUnlocked++
		card.RecentBadges = append(card.RecentBadges, badgeID)
		if len(card.RecentBadges) > recentBadgeShelfSize {
			card.RecentBadges = card.RecentBadges[len(card.RecentBadges)-recentBadgeShelfSize:]
		}
		pv.touch(card)
	}
}

// ApplyModuleCompleted bumps the completed module counter.
func (pv *ProfileCardView) ApplyModuleCompleted(learnerID string) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if card, exists := pv.cards[learnerID]; exists {
		card.CompletedModules++
		pv.touch(card)
	}
}

// ApplyTutorInteraction bumps the tutor message counter.
func (pv *ProfileCardView) ApplyTutorInteraction(learnerID string) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if card, exists := pv.cards[learnerID]; exists {
		card.TutorInteractions++
		pv.touch(card)
	}
}

// DeleteCard removes a profile card from the view.
func (pv *ProfileCardView) DeleteCard(learnerID string) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if _, exists := pv.cards[learnerID]; exists {
		delete(pv.cards, learnerID)
		pv.version++
	}
}

// touch stamps a card after a mutation. Callers hold the write lock.
func (pv *ProfileCardView) touch(card *ProfileCard) {
	now := time.Now().UTC()
	card.LastActivityAt = now
	card.UpdatedAt = now
	card.Version++
	pv.lastUpdated = now
	pv.version++
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetByLearnerID returns a profile card by learner ID.
func (pv *ProfileCardView) GetByLearnerID(ctx context.Context, learnerID string) (*ProfileCard, error) {
	pv.mu.RLock()
	defer pv.mu.RUnlock()

	if card, exists := pv.cards[learnerID]; exists {
		return card.clone(), nil
	}
	return nil, fmt.Errorf("projections: profile card not found for ID %s", learnerID)
}

// GetAll returns all profile cards, highest XP first.
func (pv *ProfileCardView) GetAll(ctx context.Context) ([]*ProfileCard, error) {
	pv.mu.RLock()
	defer pv.mu.RUnlock()

	all := make([]*ProfileCard, 0, len(pv.cards))
	for _, card := range pv.cards {
		all = append(all, card.clone())
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].XP > all[j].XP
	})
	return all, nil
}

// Count returns the total number of profile cards.
func (pv *ProfileCardView) Count() int {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	return len(pv.cards)
}

// Exists checks if a profile card exists.
func (pv *ProfileCardView) Exists(learnerID string) bool {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	_, exists := pv.cards[learnerID]
	return exists
}

// GetVersion returns the current version.
func (pv *ProfileCardView) GetVersion() int64 {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	return pv.version
}

// GetLastUpdated returns when the view was last updated.
func (pv *ProfileCardView) GetLastUpdated() time.Time {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	return pv.lastUpdated
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

// clone creates a deep copy of a ProfileCard.
func (c *ProfileCard) clone() *ProfileCard {
	if c == nil {
		return nil
	}
	cardCopy := *c
	if c.RecentBadges != nil {
		cardCopy.RecentBadges = make([]string, len(c.RecentBadges))
		copy(cardCopy.RecentBadges, c.RecentBadges)
	}
	return &cardCopy
}

// recentBadges keeps the tail of the unlock-ordered badge list.
func recentBadges(badges []string) []string {
	if len(badges) <= recentBadgeShelfSize {
		return append([]string(nil), badges...)
	}
	return append([]string(nil), badges[len(badges)-recentBadgeShelfSize:]...)
}
