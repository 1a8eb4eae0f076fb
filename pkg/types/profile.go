package types

import "time"

// TraitValue is the value of one personality trait: either an enumerated
// level ("high", "very_casual", ...) or a numeric frequency in [0,1].
// Exactly one of the two fields is meaningful.
type TraitValue struct {
	Level     string  `json:"level,omitempty"`
	Frequency float64 `json:"frequency,omitempty"`
}

// LevelTrait builds an enumerated trait value.
func LevelTrait(level string) TraitValue { return TraitValue{Level: level} }

// FrequencyTrait builds a numeric trait value.
func FrequencyTrait(f float64) TraitValue { return TraitValue{Frequency: f} }

// Profile is one user's personality: a mutable trait map created lazily with
// DefaultTraits on first access and mutated in place by the trait-update
// heuristics. Profiles are never deleted by the core.
type Profile struct {
	UserID      string                `json:"user_id"`
	Traits      map[string]TraitValue `json:"traits"`
	CreatedAt   time.Time             `json:"created_at"`
	LastUpdated time.Time             `json:"last_updated"`
}

// Trait names used by the built-in update heuristics.
const (
	TraitEmpathyLevel = "empathy_level"
	TraitFormality    = "formality"
)

// DefaultTraits returns the documented default trait set for a new profile.
// These are fixed constants, not sampled.
func DefaultTraits() map[string]TraitValue {
	return map[string]TraitValue{
		"name":                     LevelTrait("Echo"),
		"tone":                     LevelTrait("friendly"),
		TraitFormality:             LevelTrait("casual"),
		TraitEmpathyLevel:          LevelTrait("high"),
		"humor_level":              LevelTrait("medium"),
		"curiosity_level":          LevelTrait("high"),
		"memory_recall_frequency":  FrequencyTrait(0.3),
		"emotional_responsiveness": LevelTrait("adaptive"),
		"conversation_style":       LevelTrait("reflective"),
	}
}
