// Package timeline derives emotional statistics and insights from a window
// of memories. Everything here is a pure function of its input: nothing is
// persisted, nothing is mutated.
package timeline

import (
	"time"

	"github.com/echosoul/echosoul/pkg/types"
)

// statEmotions is the emotion set the statistics divide diversity by. It is
// narrower than the classification taxonomy: disgust and nostalgia are
// classified but not tracked as timeline dimensions.
var statEmotions = []string{
	types.EmotionJoy, types.EmotionSadness, types.EmotionAnger,
	types.EmotionFear, types.EmotionSurprise, types.EmotionLove,
	types.EmotionAnxiety, types.EmotionStress, types.EmotionNeutral,
	types.EmotionExcitement, types.EmotionContentment,
}

// weekdays in the fixed Monday-first tie-break order.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Statistics computes TimelineStatistics over an ordered window of memories.
// An empty window yields a neutral zero-value result, never an error.
func Statistics(window []types.Memory) types.TimelineStatistics {
	stats := types.TimelineStatistics{
		TotalMemories:       len(window),
		EmotionDistribution: make(map[string]int),
		EmotionByKind:       make(map[types.MemoryKind]map[string]int),
		DominantEmotion:     types.EmotionNeutral,
		Insights:            []string{},
	}

	if len(window) == 0 {
		return stats
	}

	dayCounts := make(map[time.Weekday]int)
	best := 0
	for _, m := range window {
		emo := m.Emotion
		if emo == "" {
			emo = types.EmotionNeutral
		}

		stats.EmotionDistribution[emo]++
		// First emotion to reach the top count wins ties.
		if stats.EmotionDistribution[emo] > best {
			best = stats.EmotionDistribution[emo]
			stats.DominantEmotion = emo
		}

		byKind := stats.EmotionByKind[m.Kind]
		if byKind == nil {
			byKind = make(map[string]int)
			stats.EmotionByKind[m.Kind] = byKind
		}
		byKind[emo]++

		// Entries without a usable timestamp are excluded from day
		// patterns rather than failing the whole pass.
		if !m.Timestamp.IsZero() {
			dayCounts[m.Timestamp.Weekday()]++
		}
	}

	bestDay := 0
	for _, day := range weekdays {
		if dayCounts[day] > bestDay {
			bestDay = dayCounts[day]
			stats.MostEmotionalDay = day.String()
		}
	}

	stats.EmotionalDiversity = float64(len(stats.EmotionDistribution)) / float64(len(statEmotions))
	stats.Insights = insights(stats.EmotionDistribution, window)

	return stats
}
