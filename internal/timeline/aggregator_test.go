package timeline

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echosoul/echosoul/pkg/types"
)

func mem(emotion string, ts time.Time) types.Memory {
	return types.Memory{
		Kind:      types.KindConversation,
		Content:   "entry",
		Emotion:   emotion,
		Timestamp: ts,
	}
}

func TestStatistics_EmptyWindow(t *testing.T) {
	got := Statistics(nil)

	assert.Zero(t, got.TotalMemories)
	assert.Equal(t, types.EmotionNeutral, got.DominantEmotion)
	assert.Empty(t, got.EmotionDistribution)
	assert.Empty(t, got.MostEmotionalDay)
	assert.Zero(t, got.EmotionalDiversity)
	assert.Empty(t, got.Insights)
}

func TestStatistics_JoyJoySadness(t *testing.T) {
	base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) // a Monday
	window := []types.Memory{
		mem("joy", base),
		mem("joy", base.AddDate(0, 0, 1)),
		mem("sadness", base.AddDate(0, 0, 2)),
	}

	got := Statistics(window)

	assert.Equal(t, 3, got.TotalMemories)
	assert.Equal(t, "joy", got.DominantEmotion)
	assert.Equal(t, map[string]int{"joy": 2, "sadness": 1}, got.EmotionDistribution)
	assert.InDelta(t, 2.0/11.0, got.EmotionalDiversity, 1e-9)
	require.NotEmpty(t, got.Insights)
	assert.Contains(t, got.Insights[0], "joy")
	assert.Contains(t, got.Insights[0], "66.7%")
}

func TestStatistics_EmotionByKind(t *testing.T) {
	ts := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	window := []types.Memory{
		{Kind: types.KindConversation, Emotion: "joy", Timestamp: ts},
		{Kind: types.KindJournal, Emotion: "joy", Timestamp: ts},
		{Kind: types.KindJournal, Emotion: "fear", Timestamp: ts},
	}

	got := Statistics(window)
	assert.Equal(t, 1, got.EmotionByKind[types.KindConversation]["joy"])
	assert.Equal(t, 1, got.EmotionByKind[types.KindJournal]["joy"])
	assert.Equal(t, 1, got.EmotionByKind[types.KindJournal]["fear"])
}

func TestStatistics_MostEmotionalDay(t *testing.T) {
	mon := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	wed := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	window := []types.Memory{
		mem("joy", wed),
		mem("sadness", wed),
		mem("joy", mon),
	}

	got := Statistics(window)
	assert.Equal(t, "Wednesday", got.MostEmotionalDay)
}

func TestStatistics_DayTieBreaksMondayFirst(t *testing.T) {
	mon := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	fri := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
	window := []types.Memory{mem("joy", fri), mem("sadness", mon)}

	got := Statistics(window)
	assert.Equal(t, "Monday", got.MostEmotionalDay)
}

func TestStatistics_ZeroTimestampSkippedForDays(t *testing.T) {
	window := []types.Memory{mem("joy", time.Time{})}
	got := Statistics(window)
	assert.Empty(t, got.MostEmotionalDay)
	assert.Equal(t, 1, got.EmotionDistribution["joy"])
}

func TestStatistics_UntaggedCountsAsNeutral(t *testing.T) {
	ts := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	got := Statistics([]types.Memory{mem("", ts)})
	assert.Equal(t, types.EmotionNeutral, got.DominantEmotion)
	assert.Equal(t, 1, got.EmotionDistribution[types.EmotionNeutral])
}

func TestInsights_CappedAtThree(t *testing.T) {
	base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	// 12 entries so rule 4 is eligible; rules 1-3 already fill the quota.
	var window []types.Memory
	for i := 0; i < 12; i++ {
		window = append(window, mem("joy", base.Add(time.Duration(i)*time.Hour)))
	}

	got := Statistics(window)
	assert.Len(t, got.Insights, 3)
	assert.Contains(t, got.Insights[0], "joy")
}

func TestInsights_DiversityRules(t *testing.T) {
	base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	low := Statistics([]types.Memory{mem("joy", base), mem("sadness", base)})
	assert.Contains(t, strings.Join(low.Insights, "\n"), "few core feelings")

	wide := []string{"joy", "sadness", "anger", "fear", "surprise", "love", "anxiety", "stress"}
	var window []types.Memory
	for _, e := range wide {
		window = append(window, mem(e, base))
	}
	high := Statistics(window)
	assert.Contains(t, strings.Join(high.Insights, "\n"), "wide range of emotions")
}

func TestInsights_BalanceThreshold(t *testing.T) {
	base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	// 3 positive vs 2 negative: 3 <= 2*1.5, so the window is balanced.
	window := []types.Memory{
		mem("joy", base), mem("joy", base), mem("love", base),
		mem("sadness", base), mem("anger", base),
	}
	got := Statistics(window)
	assert.Contains(t, strings.Join(got.Insights, "\n"), "balanced emotional perspective")

	// 4 positive vs 1 negative clears the 1.5x bar.
	window = append(window[:3], mem("excitement", base), mem("sadness", base))
	got = Statistics(window)
	assert.Contains(t, strings.Join(got.Insights, "\n"), "lean toward positive")
}

func TestInsights_FirstInsightAlwaysPresent(t *testing.T) {
	base := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	for n := 1; n <= 15; n++ {
		var window []types.Memory
		for i := 0; i < n; i++ {
			window = append(window, mem("contentment", base))
		}
		got := Statistics(window)
		require.NotEmpty(t, got.Insights, fmt.Sprintf("window of %d", n))
		assert.Contains(t, got.Insights[0], "contentment")
		assert.LessOrEqual(t, len(got.Insights), 3)
	}
}
