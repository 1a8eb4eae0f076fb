// Package profile holds the trait-update heuristics that nudge a user's
// personality profile after each turn. The rules are monotonic nudges, not
// reversible inferences: no rule ever lowers empathy once raised.
package profile

import (
	"strings"

	"github.com/echosoul/echosoul/pkg/types"
)

const (
	// empathyWindow is how many trailing interactions the empathy rule
	// examines; it only fires once at least this many exist.
	empathyWindow = 10

	// empathyThreshold is the non-neutral count that triggers the raise.
	empathyThreshold = 7

	// EmpathyVeryHigh is the level the empathy rule raises to.
	EmpathyVeryHigh = "very_high"

	// Formality levels the formality rule can set.
	FormalityVeryCasual = "very_casual"
	FormalityFormal     = "formal"
)

// formalWords and informalWords are the fixed scan lists for the formality
// rule. Matching is case-insensitive on whole words.
var (
	formalWords = []string{
		"therefore", "however", "moreover", "furthermore", "nevertheless",
		"regarding", "accordingly", "consequently", "sincerely", "respectfully",
	}
	informalWords = []string{
		"lol", "lmao", "haha", "hey", "yeah", "yep", "nah", "gonna",
		"wanna", "dunno", "omg", "btw", "sup", "cool",
	}
)

// EmpathyNudge applies the empathy rule to the trailing interaction
// emotions (newest or oldest first — only counts matter). It returns the
// new level and true when more than empathyThreshold of the last
// empathyWindow interactions carried a non-neutral emotion. With fewer than
// empathyWindow interactions the rule never fires.
func EmpathyNudge(recentEmotions []string) (string, bool) {
	if len(recentEmotions) < empathyWindow {
		return "", false
	}

	window := recentEmotions[:empathyWindow]
	nonNeutral := 0
	for _, e := range window {
		if e != "" && e != types.EmotionNeutral {
			nonNeutral++
		}
	}

	if nonNeutral > empathyThreshold {
		return EmpathyVeryHigh, true
	}
	return "", false
}

// FormalityNudge scans one utterance for formal vs. informal vocabulary.
// It returns the new level and true when one list strictly outnumbers the
// other; ties leave formality unchanged.
func FormalityNudge(utterance string) (string, bool) {
	words := tokenize(utterance)

	var formal, informal int
	for _, w := range words {
		if contains(formalWords, w) {
			formal++
		}
		if contains(informalWords, w) {
			informal++
		}
	}

	switch {
	case informal > formal:
		return FormalityVeryCasual, true
	case formal > informal:
		return FormalityFormal, true
	}
	return "", false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'')
	})
}

func contains(list []string, word string) bool {
	for _, w := range list {
		if w == word {
			return true
		}
	}
	return false
}
