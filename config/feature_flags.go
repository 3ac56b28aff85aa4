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
// Supports percentage rollout, per-user overrides, and time-based activation.
//
// Philosophy: a scoring engine changes behavior. Every motivational
// mechanic here should be possible to dial back without a redeploy.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string // platform user ID (UUID)
	IsAdmin bool
}

// Predefined feature flag names.
const (
	// === Prediction Features ===
	FeaturePredictionRecommendations = "prediction.recommendations" // Personalized study tips
	FeaturePredictionWeakAreas       = "prediction.weak_areas"      // Weak area detection
	FeaturePredictionMotivation      = "prediction.motivation"      // Motivation level in response

	// === Leaderboard Features ===
	FeatureLeaderboardWeekly = "leaderboard.weekly" // Weekly ranking window
	FeatureLeaderboardStreak = "leaderboard.streak" // Streak-based ranking

	// === Gamification Features ===
	FeatureGamificationStreaks = "gamification.streaks" // Daily streaks
	FeatureGamificationBadges  = "gamification.badges"  // Badge awarding
	FeatureGamificationLevels  = "gamification.levels"  // XP level progression

	// === Experimental Features ===
	FeatureExperimentalRiskAlerts = "experimental.risk_alerts" // Push alerts on high risk
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	// Initialize all features with defaults
	ff.initializeDefaults()

	// Load overrides from environment
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Prediction features - core product, enabled by default
	ff.features[FeaturePredictionRecommendations] = &Feature{
		Name:           FeaturePredictionRecommendations,
		Description:    "Include study recommendations in predictions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePredictionWeakAreas] = &Feature{
		Name:           FeaturePredictionWeakAreas,
		Description:    "Detect weak areas from score history",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeaturePredictionMotivation] = &Feature{
		Name:           FeaturePredictionMotivation,
		Description:    "Attach motivation level to predictions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Leaderboard features
	ff.features[FeatureLeaderboardWeekly] = &Feature{
		Name:           FeatureLeaderboardWeekly,
		Description:    "Weekly points ranking window",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardStreak] = &Feature{
		Name:           FeatureLeaderboardStreak,
		Description:    "Streak-based leaderboard",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Gamification features
	ff.features[FeatureGamificationStreaks] = &Feature{
		Name:           FeatureGamificationStreaks,
		Description:    "Track daily login streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationBadges] = &Feature{
		Name:           FeatureGamificationBadges,
		Description:    "Award badges for milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureGamificationLevels] = &Feature{
		Name:           FeatureGamificationLevels,
		Description:    "XP-based level progression",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalRiskAlerts] = &Feature{
		Name:           FeatureExperimentalRiskAlerts,
		Description:    "Proactive alerts for high-risk students",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_GAMIFICATION_BADGES=true
// Example: FEATURE_EXPERIMENTAL_RISK_ALERTS=25 (25% rollout)
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
// "gamification.badges" -> "FEATURE_GAMIFICATION_BADGES"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
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

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	// Create a consistent hash for this user+feature combination
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
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
