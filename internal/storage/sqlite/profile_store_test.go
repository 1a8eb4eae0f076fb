package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/pkg/types"
)

func newTestProfileStore(t *testing.T) *ProfileStore {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProfileStore(db)
}

func TestLoadCreatesDefaultProfile(t *testing.T) {
	store := newTestProfileStore(t)
	ctx := context.Background()

	p, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.UserID != "user-1" {
		t.Errorf("user = %q", p.UserID)
	}
	if p.Traits["name"].Level != "Echo" {
		t.Errorf("name trait = %+v", p.Traits["name"])
	}
	if p.Traits[types.TraitEmpathyLevel].Level != "high" {
		t.Errorf("empathy = %+v", p.Traits[types.TraitEmpathyLevel])
	}
	if p.Traits["memory_recall_frequency"].Frequency != 0.3 {
		t.Errorf("recall frequency = %+v", p.Traits["memory_recall_frequency"])
	}

	if p.CreatedAt.IsZero() {
		t.Error("created_at not set on create")
	}

	// A second load returns the persisted profile, not a fresh default.
	again, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if len(again.Traits) != len(p.Traits) {
		t.Errorf("trait counts differ: %d vs %d", len(again.Traits), len(p.Traits))
	}
	if again.CreatedAt.IsZero() {
		t.Error("created_at lost on reload")
	}
	if d := again.CreatedAt.Sub(p.CreatedAt); d < -time.Second || d > time.Second {
		t.Errorf("created_at changed across loads: %v vs %v", again.CreatedAt, p.CreatedAt)
	}
}

func TestSetTraitPersists(t *testing.T) {
	store := newTestProfileStore(t)
	ctx := context.Background()

	if err := store.SetTrait(ctx, "user-1", types.TraitFormality, types.LevelTrait("very_casual")); err != nil {
		t.Fatalf("SetTrait: %v", err)
	}

	p, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Traits[types.TraitFormality].Level != "very_casual" {
		t.Errorf("formality = %+v", p.Traits[types.TraitFormality])
	}
	// The other defaults survive the update.
	if p.Traits["tone"].Level != "friendly" {
		t.Errorf("tone = %+v", p.Traits["tone"])
	}
}

func TestSetTraitIdempotent(t *testing.T) {
	store := newTestProfileStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.SetTrait(ctx, "user-1", types.TraitEmpathyLevel, types.LevelTrait("very_high")); err != nil {
			t.Fatalf("SetTrait #%d: %v", i, err)
		}
	}
	p, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Traits[types.TraitEmpathyLevel].Level != "very_high" {
		t.Errorf("empathy = %+v", p.Traits[types.TraitEmpathyLevel])
	}
}

func TestSetTraitConcurrentWritersKeepBothTraits(t *testing.T) {
	store := newTestProfileStore(t)
	ctx := context.Background()

	// Materialize the row first so both writers race on the UPDATE alone.
	if _, err := store.Load(ctx, "user-1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = store.SetTrait(ctx, "user-1", types.TraitEmpathyLevel, types.LevelTrait("very_high"))
	}()
	go func() {
		defer wg.Done()
		errs[1] = store.SetTrait(ctx, "user-1", types.TraitFormality, types.LevelTrait("formal"))
	}()
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("SetTrait #%d: %v", i, err)
		}
	}

	p, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Traits[types.TraitEmpathyLevel].Level != "very_high" {
		t.Errorf("empathy = %+v", p.Traits[types.TraitEmpathyLevel])
	}
	if p.Traits[types.TraitFormality].Level != "formal" {
		t.Errorf("formality = %+v", p.Traits[types.TraitFormality])
	}
}

func TestProfileValidation(t *testing.T) {
	store := newTestProfileStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty user: err = %v", err)
	}
	if err := store.SetTrait(ctx, "", "x", types.LevelTrait("y")); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty user: err = %v", err)
	}
	if err := store.SetTrait(ctx, "u", "", types.LevelTrait("y")); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty trait name: err = %v", err)
	}
}
