package learner

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT CHECKER
// Evaluates which rewards a domain event unlocks. The checker only decides,
// it never mutates the learner; the achievement flow applies the awards so
// that XP toasts, badge toasts and level-up toasts come out in a fixed order.
// ══════════════════════════════════════════════════════════════════════════════

// Season numbers with dedicated badge tracks.
const (
	// Season1 completion awards the mastery badge.
	Season1 = 1
	// EthicsSeason is "Temporada 7: Ética em Silício".
	EthicsSeason = 7
	// BigDataSeason is "Temporada 12: Big Data Galáctico".
	BigDataSeason = 12

	// ModulesPerSeason mirrors the catalog shape.
	ModulesPerSeason = 20

	// DataExplorerThreshold is how many Big Data modules unlock data_explorer.
	DataExplorerThreshold = 5
)

// XP amounts.
const (
	// ModuleCompletionXP is granted every time an item first reaches 100.
	ModuleCompletionXP = 50
	// SeasonMasteryXP is granted once, when Season 1 is fully complete.
	SeasonMasteryXP = 200
)

// Award is a single reward decided by the checker. Either XP or BadgeID is
// set, never both; order inside the returned slice is the emission order.
type Award struct {
	// XP is the amount to grant, zero for badge awards.
	XP int

	// BadgeID is the badge to unlock, empty for XP awards.
	BadgeID string

	// Source labels the award origin for events and logs.
	Source string
}

// ProgressView is the read-side of the progress tracker the checker needs.
type ProgressView interface {
	// CompletedInSeason returns the completed item count of a 1-based season.
	CompletedInSeason(season int) int
}

// Checker evaluates achievement rules.
type Checker struct{}

// NewChecker creates an achievement checker.
func NewChecker() *Checker {
	return &Checker{}
}

// OnModuleCompleted returns the awards for an item that just reached 100.
// The progress view must already include the completing item.
//
// Emission order: completion XP, first-step badge, mastery XP, mastery
// badge, then the supplemental track badges.
func (c *Checker) OnModuleCompleted(l *Learner, season int, view ProgressView) []Award {
	awards := []Award{
		{XP: ModuleCompletionXP, Source: "module_completion"},
	}

	if !l.HasBadge(BadgeFirstStep) {
		awards = append(awards, Award{BadgeID: BadgeFirstStep, Source: "module_completion"})
	}

	// Season 1 mastery pays out exactly once, gated on the badge.
	if season == Season1 &&
		!l.HasBadge(BadgeSeason1Master) &&
		view.CompletedInSeason(Season1) == ModulesPerSeason {
		awards = append(awards,
			Award{XP: SeasonMasteryXP, Source: "season_mastery"},
			Award{BadgeID: BadgeSeason1Master, Source: "season_mastery"},
		)
	}

	if season == BigDataSeason &&
		!l.HasBadge(BadgeDataExplorer) &&
		view.CompletedInSeason(BigDataSeason) >= DataExplorerThreshold {
		awards = append(awards, Award{BadgeID: BadgeDataExplorer, Source: "big_data_track"})
	}

	if season == EthicsSeason &&
		!l.HasBadge(BadgeEthicsHero) &&
		view.CompletedInSeason(EthicsSeason) == ModulesPerSeason {
		awards = append(awards, Award{BadgeID: BadgeEthicsHero, Source: "ethics_track"})
	}

	return awards
}

// OnTutorInteraction returns the award for a tutor message, nil when the
// talker badge is already owned.
func (c *Checker) OnTutorInteraction(l *Learner) *Award {
	if l.HasBadge(BadgeAITalker) {
		return nil
	}
	return &Award{BadgeID: BadgeAITalker, Source: "tutor_interaction"}
}
