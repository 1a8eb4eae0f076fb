package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmpathyNudge_FiresAboveThreshold(t *testing.T) {
	// 8 of 10 non-neutral: rule fires.
	emotions := []string{
		"joy", "sadness", "anger", "joy", "fear",
		"love", "anxiety", "stress", "neutral", "neutral",
	}
	level, ok := EmpathyNudge(emotions)
	assert.True(t, ok)
	assert.Equal(t, EmpathyVeryHigh, level)
}

func TestEmpathyNudge_ExactThresholdDoesNotFire(t *testing.T) {
	// Exactly 7 of 10 non-neutral: the rule requires strictly more.
	emotions := []string{
		"joy", "sadness", "anger", "joy", "fear",
		"love", "anxiety", "neutral", "neutral", "neutral",
	}
	_, ok := EmpathyNudge(emotions)
	assert.False(t, ok)
}

func TestEmpathyNudge_NeedsFullWindow(t *testing.T) {
	emotions := []string{"joy", "joy", "joy", "joy", "joy", "joy", "joy", "joy", "joy"}
	_, ok := EmpathyNudge(emotions)
	assert.False(t, ok, "rule must not fire with fewer than 10 interactions")
}

func TestEmpathyNudge_EmptyEmotionCountsAsNeutral(t *testing.T) {
	emotions := []string{"joy", "joy", "joy", "joy", "joy", "joy", "joy", "", "", ""}
	_, ok := EmpathyNudge(emotions)
	assert.False(t, ok)
}

func TestFormalityNudge_Informal(t *testing.T) {
	level, ok := FormalityNudge("hey, lol that was wild")
	assert.True(t, ok)
	assert.Equal(t, FormalityVeryCasual, level)
}

func TestFormalityNudge_Formal(t *testing.T) {
	level, ok := FormalityNudge("Therefore, regarding your proposal, I concur. However, timing matters.")
	assert.True(t, ok)
	assert.Equal(t, FormalityFormal, level)
}

func TestFormalityNudge_TieLeavesUnchanged(t *testing.T) {
	_, ok := FormalityNudge("hey, therefore we proceed")
	assert.False(t, ok)
}

func TestFormalityNudge_NoMatchesLeavesUnchanged(t *testing.T) {
	_, ok := FormalityNudge("the weather is pleasant today")
	assert.False(t, ok)
}

func TestFormalityNudge_CaseInsensitive(t *testing.T) {
	level, ok := FormalityNudge("LOL HEY what is up")
	assert.True(t, ok)
	assert.Equal(t, FormalityVeryCasual, level)
}

func TestFormalityNudge_WholeWordsOnly(t *testing.T) {
	// "lollipop" must not count as "lol".
	_, ok := FormalityNudge("a lollipop and a heyday")
	assert.False(t, ok)
}
