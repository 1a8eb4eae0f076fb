package types

// TimelineStatistics is derived on demand from a window of memories.
// It is never persisted: always a pure function of its input window.
type TimelineStatistics struct {
	TotalMemories int `json:"total_memories"`

	// EmotionDistribution maps emotion label to occurrence count.
	EmotionDistribution map[string]int `json:"emotion_distribution"`

	// DominantEmotion is the label with the highest count, "neutral" for an
	// empty window.
	DominantEmotion string `json:"dominant_emotion"`

	// EmotionByKind breaks the distribution down per memory kind.
	EmotionByKind map[MemoryKind]map[string]int `json:"emotion_by_kind"`

	// MostEmotionalDay is the weekday ("Monday".."Sunday") with the most
	// emotion-tagged entries; empty for an empty window.
	MostEmotionalDay string `json:"most_emotional_day,omitempty"`

	// EmotionalDiversity is distinct emotions seen divided by the size of
	// the statistics emotion set.
	EmotionalDiversity float64 `json:"emotional_diversity"`

	// Insights holds at most three ranked natural-language statements.
	Insights []string `json:"insights"`
}
