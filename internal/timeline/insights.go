package timeline

import (
	"fmt"

	"github.com/echosoul/echosoul/pkg/types"
)

// maxInsights caps the insight list. The rule cascade below runs in fixed
// order and is truncated here, so later rules drop out silently once the
// quota is filled.
const maxInsights = 3

// leanThreshold is the dominance factor for calling the whole window
// positive- or negative-leaning.
const leanThreshold = 1.5

// recentWindow is the size of the trailing slice rule 4 examines.
const recentWindow = 10

func insights(distribution map[string]int, window []types.Memory) []string {
	var out []string

	total := 0
	for _, n := range distribution {
		total += n
	}
	if total == 0 {
		return out
	}

	// Rule 1: top emotion and its share. Ties resolve the same way the
	// dominant-emotion pass does: first to reach the top count.
	top, topCount := "", 0
	counts := make(map[string]int, len(distribution))
	for _, m := range window {
		emo := m.Emotion
		if emo == "" {
			emo = types.EmotionNeutral
		}
		counts[emo]++
		if counts[emo] > topCount {
			top, topCount = emo, counts[emo]
		}
	}
	percentage := float64(topCount) / float64(total) * 100
	out = append(out, fmt.Sprintf("You most frequently experience %s (%.1f%% of memories)", top, percentage))

	// Rule 2: diversity extremes.
	switch distinct := len(distribution); {
	case distinct >= 8:
		out = append(out, "You express a wide range of emotions, showing emotional diversity")
	case distinct <= 3:
		out = append(out, "Your emotional expressions tend to focus on a few core feelings")
	}

	// Rule 3: positive/negative balance with the 1.5x dominance threshold.
	var pos, neg int
	for emo, n := range distribution {
		switch {
		case types.PositiveEmotions[emo]:
			pos += n
		case types.NegativeEmotions[emo]:
			neg += n
		}
	}
	switch {
	case float64(pos) > float64(neg)*leanThreshold:
		out = append(out, "Your memories lean toward positive experiences")
	case float64(neg) > float64(pos)*leanThreshold:
		out = append(out, "You've been processing more challenging emotions lately")
	default:
		out = append(out, "You maintain a balanced emotional perspective")
	}

	// Rule 4: recent trend over the last ten entries, simple majority.
	if len(window) >= recentWindow {
		recent := window[len(window)-recentWindow:]
		var rpos, rneg int
		for _, m := range recent {
			switch {
			case types.PositiveEmotions[m.Emotion]:
				rpos++
			case types.NegativeEmotions[m.Emotion]:
				rneg++
			}
		}
		switch {
		case rpos > rneg:
			out = append(out, "Recently, you've been in a more positive emotional space")
		case rneg > rpos:
			out = append(out, "Lately, you've been working through more complex emotions")
		}
	}

	if len(out) > maxInsights {
		out = out[:maxInsights]
	}
	return out
}
