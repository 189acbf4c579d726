package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports per-learner bucketing, age-group targeting, and time-boxed
// activation windows.
//
// The generative features (tutor chat, Veo trailers) burn API quota, so
// they ship behind flags that can be dialed down without a redeploy.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	learnerOverrides map[string]map[string]bool // learnerID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Learners are assigned based on hash of their ID
	RolloutPercent int

	// Age group targeting (e.g., "L", "10", "12")
	// Empty means all age groups
	TargetAgeRatings []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	LearnerID string

	AgeRating string // learner's age rating bracket
	IsParent  bool   // evaluated behind the parent gate
}

// Predefined feature flag names.
const (
	// === Catalog Features ===
	FeatureCatalogSearch     = "catalog.search"      // free-text search bar
	FeatureCatalogAgeFilter  = "catalog.age_filter"  // age rating filter chips
	FeatureCatalogTypeFilter = "catalog.type_filter" // content type filter

	// === Tutor Features (Gemini quota) ===
	FeatureTutorChat      = "tutor.chat"       // Neural tutor chat
	FeatureTutorAdultMode = "tutor.adult_mode" // technical persona for parents

	// === Trailer Features (Veo quota) ===
	FeatureTrailerSeason = "trailer.season" // hub-wide season trailer
	FeatureTrailerModule = "trailer.module" // per-module synthesis videos

	// === Notification Features ===
	FeatureNotifyXPToasts    = "notify.xp_toasts"    // +XP toast cards
	FeatureNotifyBadgeToasts = "notify.badge_toasts" // badge unlock cards
	FeatureNotifyLevelUp     = "notify.level_up"     // level up celebration

	// === Parent Features ===
	FeatureParentOverview = "parent.overview" // PIN-gated dashboard
	FeatureParentDigest   = "parent.digest"   // scheduled digest snapshots

	// === Experimental Features ===
	FeatureExperimentalProfileCards = "experimental.profile_cards" // projection-backed cards
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:         make(map[string]*Feature),
		learnerOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Catalog features - free, enabled everywhere
	ff.features[FeatureCatalogSearch] = &Feature{
		Name:           FeatureCatalogSearch,
		Description:    "Free-text catalog search",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCatalogAgeFilter] = &Feature{
		Name:           FeatureCatalogAgeFilter,
		Description:    "Age rating filter chips",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCatalogTypeFilter] = &Feature{
		Name:           FeatureCatalogTypeFilter,
		Description:    "Content type filter",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Tutor features - core to the product, but quota-bound
	ff.features[FeatureTutorChat] = &Feature{
		Name:           FeatureTutorChat,
		Description:    "Gemini tutor chat",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTutorAdultMode] = &Feature{
		Name:           FeatureTutorAdultMode,
		Description:    "Technical tutor persona for parents",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Trailer features - the most expensive calls in the product
	ff.features[FeatureTrailerSeason] = &Feature{
		Name:           FeatureTrailerSeason,
		Description:    "Hub-wide Veo season trailer",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTrailerModule] = &Feature{
		Name:           FeatureTrailerModule,
		Description:    "Per-module Veo synthesis videos",
		Enabled:        true,
		RolloutPercent: 50, // Gradual rollout while watching quota
	}

	// Notification features
	ff.features[FeatureNotifyXPToasts] = &Feature{
		Name:           FeatureNotifyXPToasts,
		Description:    "XP gain toast cards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyBadgeToasts] = &Feature{
		Name:           FeatureNotifyBadgeToasts,
		Description:    "Badge unlock toast cards",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyLevelUp] = &Feature{
		Name:           FeatureNotifyLevelUp,
		Description:    "Level up celebration toast",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Parent features
	ff.features[FeatureParentOverview] = &Feature{
		Name:           FeatureParentOverview,
		Description:    "PIN-gated parent dashboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureParentDigest] = &Feature{
		Name:           FeatureParentDigest,
		Description:    "Scheduled parent digest snapshots",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalProfileCards] = &Feature{
		Name:           FeatureExperimentalProfileCards,
		Description:    "Projection-backed profile cards",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_TUTOR_CHAT=true
// Example: FEATURE_TRAILER_MODULE=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "tutor.chat" -> "FEATURE_TUTOR_CHAT"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check learner overrides first
	if ctx != nil && ctx.LearnerID != "" {
		if overrides, ok := ff.learnerOverrides[ctx.LearnerID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Parents behind the gate see everything
	if ctx != nil && ctx.IsParent {
		return true
	}

	// Check if feature is enabled at all
	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check age rating targeting
	if len(feature.TargetAgeRatings) > 0 && ctx != nil && ctx.AgeRating != "" {
		match := false
		for _, a := range feature.TargetAgeRatings {
			if a == ctx.AgeRating {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.LearnerID != "" {
		return ff.isInRollout(ctx.LearnerID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a learner is in the rollout percentage.
// Uses consistent hashing so learners stay in their bucket.
func (ff *FeatureFlags) isInRollout(learnerID, featureName string, percent int) bool {
	// Create a consistent hash for this learner+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(learnerID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetLearnerOverride sets a feature override for a specific learner.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetLearnerOverride(learnerID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.learnerOverrides[learnerID]; !ok {
		ff.learnerOverrides[learnerID] = make(map[string]bool)
	}
	ff.learnerOverrides[learnerID][featureName] = enabled
}

// ClearLearnerOverrides removes all overrides for a learner.
func (ff *FeatureFlags) ClearLearnerOverrides(learnerID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.learnerOverrides, learnerID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		// Return a copy
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// GenerativeFeaturesEnabled checks if any quota-burning feature is on.
func (ff *FeatureFlags) GenerativeFeaturesEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureTutorChat, ctx) ||
		ff.IsEnabled(FeatureTrailerSeason, ctx) ||
		ff.IsEnabled(FeatureTrailerModule, ctx)
}

// NotificationsEnabled checks if any toast kind is enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyXPToasts, ctx) ||
		ff.IsEnabled(FeatureNotifyBadgeToasts, ctx) ||
		ff.IsEnabled(FeatureNotifyLevelUp, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
