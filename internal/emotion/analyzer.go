// Package emotion adapts an external text-classification service to the
// fixed emotion taxonomy. The adapter never fails past its boundary: blank
// input, classifier outages and unmappable outputs all collapse to the
// neutral result.
package emotion

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/llm"
	"github.com/echosoul/echosoul/pkg/types"
)

// synonyms maps raw classifier labels onto the taxonomy. Scores for labels
// that map to the same entry accumulate before re-normalisation.
var synonyms = map[string]string{
	"joy":       types.EmotionJoy,
	"happy":     types.EmotionJoy,
	"happiness": types.EmotionJoy,

	"sadness": types.EmotionSadness,
	"sad":     types.EmotionSadness,
	"grief":   types.EmotionSadness,

	"anger": types.EmotionAnger,
	"angry": types.EmotionAnger,
	"rage":  types.EmotionAnger,

	"fear":   types.EmotionFear,
	"afraid": types.EmotionFear,
	"scared": types.EmotionFear,

	"surprise":  types.EmotionSurprise,
	"surprised": types.EmotionSurprise,

	"disgust":   types.EmotionDisgust,
	"disgusted": types.EmotionDisgust,

	"neutral": types.EmotionNeutral,

	"excitement": types.EmotionExcitement,
	"excited":    types.EmotionExcitement,

	"anxiety": types.EmotionAnxiety,
	"anxious": types.EmotionAnxiety,
	"nervous": types.EmotionAnxiety,
	"worried": types.EmotionAnxiety,

	"stress":   types.EmotionStress,
	"stressed": types.EmotionStress,

	"contentment": types.EmotionContentment,
	"content":     types.EmotionContentment,
	"calm":        types.EmotionContentment,

	"love":      types.EmotionLove,
	"affection": types.EmotionLove,
	"caring":    types.EmotionLove,

	"nostalgia": types.EmotionNostalgia,
	"nostalgic": types.EmotionNostalgia,
}

// mapLabel resolves a raw classifier label to a taxonomy entry. Exact
// synonym matches win; otherwise a substring pass catches compound labels
// such as "very nervous". Unmappable labels return "".
func mapLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if mapped, ok := synonyms[label]; ok {
		return mapped
	}
	for syn, mapped := range synonyms {
		if strings.Contains(label, syn) {
			return mapped
		}
	}
	return ""
}

// Analyzer classifies text and derives response hints and conversation
// patterns. Safe for concurrent use.
type Analyzer struct {
	classifier llm.TextClassifier
	log        zerolog.Logger
}

// NewAnalyzer wraps a classifier client. A nil classifier is allowed: every
// Analyze call then yields the neutral result, which keeps the core usable
// offline.
func NewAnalyzer(classifier llm.TextClassifier, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		classifier: classifier,
		log:        log.With().Str("component", "emotion").Logger(),
	}
}

// Analyze maps text to an emotion distribution. Empty or whitespace-only
// input returns the neutral result without invoking the classifier; so does
// any classifier failure or an output with nothing mappable.
func (a *Analyzer) Analyze(ctx context.Context, text string) types.EmotionAnalysis {
	if strings.TrimSpace(text) == "" {
		return types.NeutralAnalysis()
	}

	if a.classifier == nil {
		return types.NeutralAnalysis()
	}

	raw, err := a.classifier.Classify(ctx, text)
	if err != nil {
		a.log.Warn().Err(err).Msg("classifier unavailable, falling back to neutral")
		return types.NeutralAnalysis()
	}

	scores := make(map[string]float64)
	for _, ls := range raw {
		mapped := mapLabel(ls.Label)
		if mapped == "" {
			continue
		}
		scores[mapped] += ls.Score
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	if total <= 0 {
		return types.NeutralAnalysis()
	}
	for k, v := range scores {
		scores[k] = v / total
	}

	dominant, confidence := "", 0.0
	for k, v := range scores {
		if v > confidence {
			dominant, confidence = k, v
		}
	}

	return types.EmotionAnalysis{
		DominantEmotion: dominant,
		Confidence:      confidence,
		AllEmotions:     scores,
	}
}
