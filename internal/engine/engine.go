// Package engine is the caller-facing orchestration layer: it ties one
// user's memory store, personality profile and emotion analyzer together
// behind a synchronous API. The language-model reply itself is the caller's
// business; the engine hands back retrieved context and a response-style
// hint and keeps the durable state consistent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/echosoul/echosoul/internal/emotion"
	"github.com/echosoul/echosoul/internal/profile"
	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/internal/timeline"
	"github.com/echosoul/echosoul/pkg/types"
)

// patternHistorySize is how many trailing conversation memories feed the
// pattern summary.
const patternHistorySize = 50

// contextLimit is the default retrieved-context size for a turn.
const contextLimit = 5

// Engine orchestrates one user's memory, profile and emotional state.
type Engine struct {
	userID   string
	store    storage.MemoryStore
	profiles storage.ProfileStore
	analyzer *emotion.Analyzer
	log      zerolog.Logger
}

// New builds an engine for one user over an already-bound store.
func New(userID string, store storage.MemoryStore, profiles storage.ProfileStore, analyzer *emotion.Analyzer, log zerolog.Logger) *Engine {
	return &Engine{
		userID:   userID,
		store:    store,
		profiles: profiles,
		analyzer: analyzer,
		log:      log.With().Str("component", "engine").Str("user_id", userID).Logger(),
	}
}

// TurnResult is everything a caller needs to compose a reply: the stored
// memory's ID, the emotional read of the utterance, the retrieved context,
// the style hint, and the (possibly nudged) profile.
type TurnResult struct {
	MemoryID string                 `json:"memory_id"`
	Emotion  types.EmotionAnalysis  `json:"emotion"`
	Style    types.ResponseStyle    `json:"style"`
	Context  []storage.ScoredMemory `json:"context"`
	Profile  *types.Profile         `json:"profile"`
}

// StoreMemory persists a memory in the partition selected by vault. When the
// memory carries no emotion yet, the analyzer labels it first so the label
// is embedded alongside the content.
func (e *Engine) StoreMemory(ctx context.Context, m *types.Memory, vault bool) (string, error) {
	if m == nil {
		return "", storage.ErrInvalidInput
	}
	if m.Emotion == "" {
		analysis := e.analyzer.Analyze(ctx, m.Content)
		m.Emotion = analysis.DominantEmotion
		m.EmotionDetails = &analysis
	}
	return e.store.Store(ctx, m, vault)
}

// RetrieveMemories runs a similarity search over the plain partition.
func (e *Engine) RetrieveMemories(ctx context.Context, query string, opts storage.RetrieveOptions) ([]storage.ScoredMemory, error) {
	return e.store.Retrieve(ctx, query, opts)
}

// ListTimeline returns plain memories in the range, oldest first.
func (e *Engine) ListTimeline(ctx context.Context, r storage.TimelineRange) ([]types.Memory, error) {
	return e.store.ListTimeline(ctx, r)
}

// ListVaultMemories decrypts and returns the user's vault.
func (e *Engine) ListVaultMemories(ctx context.Context) ([]types.Memory, error) {
	return e.store.ListVault(ctx)
}

// CountMemories returns the plain-partition record count.
func (e *Engine) CountMemories(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// GetOrCreateProfile returns the user's profile, creating the default one on
// first access.
func (e *Engine) GetOrCreateProfile(ctx context.Context) (*types.Profile, error) {
	return e.profiles.Load(ctx, e.userID)
}

// SetTrait overwrites one profile trait.
func (e *Engine) SetTrait(ctx context.Context, name string, value types.TraitValue) error {
	return e.profiles.SetTrait(ctx, e.userID, name, value)
}

// AnalyzeEmotion classifies a piece of text. Never errors; outages and
// unmappable output degrade to neutral.
func (e *Engine) AnalyzeEmotion(ctx context.Context, text string) types.EmotionAnalysis {
	return e.analyzer.Analyze(ctx, text)
}

// SummarizePattern summarises the emotional trend of the trailing
// conversation history.
func (e *Engine) SummarizePattern(ctx context.Context) (types.ConversationPattern, error) {
	recent, err := e.store.ListRecent(ctx, types.KindConversation, patternHistorySize)
	if err != nil {
		return types.ConversationPattern{}, err
	}
	// ListRecent is newest-first; the pattern reads oldest-first.
	history := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, recent[i].Emotion)
	}
	return e.analyzer.Pattern(history), nil
}

// ComputeTimelineStatistics aggregates emotion statistics and insights over
// the plain memories in the range.
func (e *Engine) ComputeTimelineStatistics(ctx context.Context, r storage.TimelineRange) (types.TimelineStatistics, error) {
	window, err := e.store.ListTimeline(ctx, r)
	if err != nil {
		return types.TimelineStatistics{}, err
	}
	return timeline.Statistics(window), nil
}

// ProcessTurn runs the full per-utterance pipeline: classify, retrieve
// context, nudge traits, pick a style hint, and persist the utterance as a
// conversation memory. A retrieval outage degrades to an empty context; a
// failure to persist the memory is fatal to the turn.
func (e *Engine) ProcessTurn(ctx context.Context, utterance string) (*TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, fmt.Errorf("%w: utterance is required", storage.ErrInvalidInput)
	}

	analysis := e.analyzer.Analyze(ctx, utterance)

	retrieved, err := e.store.Retrieve(ctx, utterance, storage.RetrieveOptions{Limit: contextLimit})
	if err != nil {
		if !errors.Is(err, storage.ErrEmbeddingUnavailable) {
			return nil, err
		}
		e.log.Warn().Err(err).Msg("context retrieval degraded; continuing without context")
		retrieved = []storage.ScoredMemory{}
	}

	prof, err := e.profiles.Load(ctx, e.userID)
	if err != nil {
		return nil, err
	}
	if err := e.nudgeTraits(ctx, prof, utterance, analysis.DominantEmotion); err != nil {
		return nil, err
	}

	style := e.analyzer.ResponseStyle(analysis.DominantEmotion, analysis.Confidence)

	memoryID, err := e.store.Store(ctx, &types.Memory{
		Kind:           types.KindConversation,
		Content:        utterance,
		Emotion:        analysis.DominantEmotion,
		EmotionDetails: &analysis,
	}, false)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		MemoryID: memoryID,
		Emotion:  analysis,
		Style:    style,
		Context:  retrieved,
		Profile:  prof,
	}, nil
}

// nudgeTraits applies the empathy and formality heuristics for one turn and
// persists any change, mutating prof in place.
func (e *Engine) nudgeTraits(ctx context.Context, prof *types.Profile, utterance, currentEmotion string) error {
	recent, err := e.store.ListRecent(ctx, types.KindConversation, profileHistorySize-1)
	if err != nil {
		return err
	}
	// Current turn first, then stored history newest-first.
	emotions := make([]string, 0, len(recent)+1)
	emotions = append(emotions, currentEmotion)
	for _, m := range recent {
		emotions = append(emotions, m.Emotion)
	}

	if level, ok := profile.EmpathyNudge(emotions); ok {
		// The empathy rule only ever raises; skip the write when already there.
		if prof.Traits[types.TraitEmpathyLevel].Level != level {
			if err := e.profiles.SetTrait(ctx, e.userID, types.TraitEmpathyLevel, types.LevelTrait(level)); err != nil {
				return err
			}
			prof.Traits[types.TraitEmpathyLevel] = types.LevelTrait(level)
			e.log.Debug().Str("trait", types.TraitEmpathyLevel).Str("level", level).Msg("trait nudged")
		}
	}

	if level, ok := profile.FormalityNudge(utterance); ok {
		if prof.Traits[types.TraitFormality].Level != level {
			if err := e.profiles.SetTrait(ctx, e.userID, types.TraitFormality, types.LevelTrait(level)); err != nil {
				return err
			}
			prof.Traits[types.TraitFormality] = types.LevelTrait(level)
			e.log.Debug().Str("trait", types.TraitFormality).Str("level", level).Msg("trait nudged")
		}
	}
	return nil
}

// profileHistorySize is the empathy rule's window: the current utterance
// plus this many minus one stored turns.
const profileHistorySize = 10
