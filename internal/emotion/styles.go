package emotion

import "github.com/echosoul/echosoul/pkg/types"

// responseStyles is the fixed lookup table for response hints. Emotions not
// listed fall back to the neutral row.
var responseStyles = map[string]types.ResponseStyle{
	types.EmotionJoy: {
		Tone:           "enthusiastic",
		ResponseLength: "medium",
		EmojiFrequency: "high",
		EmpathyLevel:   "celebratory",
	},
	types.EmotionSadness: {
		Tone:           "gentle",
		ResponseLength: "longer",
		EmojiFrequency: "low",
		EmpathyLevel:   "high",
	},
	types.EmotionAnxiety: {
		Tone:           "calm",
		ResponseLength: "medium",
		EmojiFrequency: "medium",
		EmpathyLevel:   "reassuring",
	},
	types.EmotionAnger: {
		Tone:           "neutral",
		ResponseLength: "shorter",
		EmojiFrequency: "none",
		EmpathyLevel:   "understanding",
	},
	types.EmotionLove: {
		Tone:           "warm",
		ResponseLength: "medium",
		EmojiFrequency: "high",
		EmpathyLevel:   "reciprocal",
	},
	types.EmotionNeutral: {
		Tone:           "balanced",
		ResponseLength: "medium",
		EmojiFrequency: "medium",
		EmpathyLevel:   "normal",
	},
}

// ResponseStyle returns the response hint for the given dominant emotion.
// Confidence is accepted for future tuning but the current policy is
// table-only.
func (a *Analyzer) ResponseStyle(emotion string, confidence float64) types.ResponseStyle {
	_ = confidence
	if style, ok := responseStyles[emotion]; ok {
		return style
	}
	return responseStyles[types.EmotionNeutral]
}
