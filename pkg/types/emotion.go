package types

// The fixed emotion taxonomy used by classification, trait rules and
// insights. Every label the classifier adapter emits is one of these.
const (
	EmotionJoy         = "joy"
	EmotionSadness     = "sadness"
	EmotionAnger       = "anger"
	EmotionFear        = "fear"
	EmotionSurprise    = "surprise"
	EmotionDisgust     = "disgust"
	EmotionNeutral     = "neutral"
	EmotionExcitement  = "excitement"
	EmotionAnxiety     = "anxiety"
	EmotionStress      = "stress"
	EmotionContentment = "contentment"
	EmotionLove        = "love"
	EmotionNostalgia   = "nostalgia"
)

// Taxonomy lists the full classification label set in canonical order.
var Taxonomy = []string{
	EmotionJoy, EmotionSadness, EmotionAnger, EmotionFear,
	EmotionSurprise, EmotionDisgust, EmotionNeutral,
	EmotionExcitement, EmotionAnxiety, EmotionStress,
	EmotionContentment, EmotionLove, EmotionNostalgia,
}

// PositiveEmotions and NegativeEmotions partition the taxonomy for mood-trend
// and insight computations. Neutral and nostalgia sit in neither set.
var (
	PositiveEmotions = map[string]bool{
		EmotionJoy:         true,
		EmotionExcitement:  true,
		EmotionLove:        true,
		EmotionContentment: true,
		EmotionSurprise:    true,
	}
	NegativeEmotions = map[string]bool{
		EmotionSadness: true,
		EmotionAnger:   true,
		EmotionFear:    true,
		EmotionAnxiety: true,
		EmotionStress:  true,
		EmotionDisgust: true,
	}
)

// EmotionAnalysis is the result of classifying one piece of text. It is
// transient: attached to memories as EmotionDetails but never persisted on
// its own. AllEmotions is a normalized distribution summing to 1, or empty
// when the input was blank or unclassifiable.
type EmotionAnalysis struct {
	DominantEmotion string             `json:"dominant_emotion"`
	Confidence      float64            `json:"confidence"`
	AllEmotions     map[string]float64 `json:"all_emotions,omitempty"`
}

// NeutralAnalysis is the fail-soft result: blank input, classifier outage,
// or nothing mappable onto the taxonomy.
func NeutralAnalysis() EmotionAnalysis {
	return EmotionAnalysis{
		DominantEmotion: EmotionNeutral,
		Confidence:      1.0,
		AllEmotions:     map[string]float64{},
	}
}

// ResponseStyle is the hint handed back to the caller's language-model layer
// after a turn. It is a pure lookup keyed by dominant emotion.
type ResponseStyle struct {
	Tone           string `json:"tone"`
	ResponseLength string `json:"response_length"`
	EmojiFrequency string `json:"emoji_frequency"`
	EmpathyLevel   string `json:"empathy_level"`
}

// ConversationPattern summarises emotional trends over an ordered
// interaction history.
type ConversationPattern struct {
	// MoodTrend is "positive", "negative" or "stable", judged from the
	// last five entries.
	MoodTrend string `json:"mood_trend"`

	// EmotionalVariety is distinct emotions seen divided by taxonomy size.
	EmotionalVariety float64 `json:"emotional_variety"`

	// DominantPattern is the most frequent emotion over the full history.
	DominantPattern string `json:"dominant_pattern"`

	// RecentHistory holds the last ten emotion labels, oldest first.
	RecentHistory []string `json:"recent_history,omitempty"`
}
