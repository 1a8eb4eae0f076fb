package emotion

import "github.com/echosoul/echosoul/pkg/types"

// sentimentWeights scores each emotion on a [-1, 1] valence scale.
var sentimentWeights = map[string]float64{
	types.EmotionJoy:         1.0,
	types.EmotionLove:        1.0,
	types.EmotionExcitement:  0.9,
	types.EmotionContentment: 0.8,
	types.EmotionSurprise:    0.3,
	types.EmotionNeutral:     0.5,
	types.EmotionSadness:     -0.8,
	types.EmotionAnger:       -0.9,
	types.EmotionFear:        -0.7,
	types.EmotionAnxiety:     -0.6,
	types.EmotionStress:      -0.5,
	types.EmotionDisgust:     -0.9,
}

// SentimentScore collapses an emotion distribution into a single score in
// [0, 1], 0.5 being neutral. An empty distribution is neutral.
func SentimentScore(analysis types.EmotionAnalysis) float64 {
	if len(analysis.AllEmotions) == 0 {
		return 0.5
	}

	var score, weight float64
	for emo, confidence := range analysis.AllEmotions {
		w, ok := sentimentWeights[emo]
		if !ok {
			continue
		}
		score += w * confidence
		if w < 0 {
			weight += -w * confidence
		} else {
			weight += w * confidence
		}
	}

	if weight <= 0 {
		return 0.5
	}

	// Scale [-1, 1] to [0, 1].
	return (score/weight + 1) / 2
}
