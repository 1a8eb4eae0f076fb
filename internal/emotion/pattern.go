package emotion

import "github.com/echosoul/echosoul/pkg/types"

// trendWindow is how many trailing entries the mood trend looks at.
const trendWindow = 5

// recentHistorySize is how many trailing emotions Pattern echoes back.
const recentHistorySize = 10

// Pattern summarises emotional trends over an ordered interaction history
// (oldest first). An empty history yields the stable/neutral default.
func (a *Analyzer) Pattern(history []string) types.ConversationPattern {
	emotions := make([]string, 0, len(history))
	for _, e := range history {
		if e != "" {
			emotions = append(emotions, e)
		}
	}

	if len(emotions) == 0 {
		return types.ConversationPattern{
			MoodTrend:       "stable",
			DominantPattern: types.EmotionNeutral,
		}
	}

	distinct := make(map[string]bool)
	counts := make(map[string]int)
	dominant, best := "", 0
	for _, e := range emotions {
		distinct[e] = true
		counts[e]++
		// Ties break toward the first emotion to reach the count.
		if counts[e] > best {
			dominant, best = e, counts[e]
		}
	}

	recent := emotions
	if len(recent) > trendWindow {
		recent = recent[len(recent)-trendWindow:]
	}
	var pos, neg int
	for _, e := range recent {
		switch {
		case types.PositiveEmotions[e]:
			pos++
		case types.NegativeEmotions[e]:
			neg++
		}
	}

	trend := "stable"
	switch {
	case pos > neg:
		trend = "positive"
	case neg > pos:
		trend = "negative"
	}

	tail := emotions
	if len(tail) > recentHistorySize {
		tail = tail[len(tail)-recentHistorySize:]
	}

	return types.ConversationPattern{
		MoodTrend:        trend,
		EmotionalVariety: float64(len(distinct)) / float64(len(types.Taxonomy)),
		DominantPattern:  dominant,
		RecentHistory:    tail,
	}
}
