package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/echosoul/echosoul/internal/storage"
	"github.com/echosoul/echosoul/pkg/types"
)

// ProfileStore implements storage.ProfileStore on PostgreSQL.
type ProfileStore struct {
	db *DB
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore builds a profile store over a shared DB.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Load returns the user's profile, creating it with the default traits when
// it does not exist yet.
func (s *ProfileStore) Load(ctx context.Context, userID string) (*types.Profile, error) {
	if userID == "" {
		return nil, storage.ErrInvalidInput
	}

	var (
		traitsJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := s.db.db.QueryRowContext(ctx,
		`SELECT traits, created_at, updated_at FROM profiles WHERE user_id = $1`, userID,
	).Scan(&traitsJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return s.create(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read profile: %v", storage.ErrStorageIO, err)
	}

	var traits map[string]types.TraitValue
	if err := json.Unmarshal([]byte(traitsJSON), &traits); err != nil {
		return nil, fmt.Errorf("%w: traits: %v", storage.ErrMalformedRecord, err)
	}
	return &types.Profile{
		UserID:      userID,
		Traits:      traits,
		CreatedAt:   createdAt,
		LastUpdated: updatedAt,
	}, nil
}

func (s *ProfileStore) create(ctx context.Context, userID string) (*types.Profile, error) {
	profile := &types.Profile{
		UserID:      userID,
		Traits:      types.DefaultTraits(),
		CreatedAt:   time.Now().UTC(),
		LastUpdated: time.Now().UTC(),
	}
	traitsJSON, err := json.Marshal(profile.Traits)
	if err != nil {
		return nil, fmt.Errorf("marshal traits: %w", err)
	}

	_, err = s.db.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, traits, created_at, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, string(traitsJSON), profile.CreatedAt, profile.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create profile: %v", storage.ErrStorageIO, err)
	}
	return profile, nil
}

// SetTrait overwrites one trait value and bumps the profile's update stamp.
// The write is a single jsonb_set UPDATE, so concurrent writers touching
// different traits cannot clobber each other.
func (s *ProfileStore) SetTrait(ctx context.Context, userID, name string, value types.TraitValue) error {
	if userID == "" || name == "" {
		return storage.ErrInvalidInput
	}

	// Ensures the row exists.
	if _, err := s.Load(ctx, userID); err != nil {
		return err
	}

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal trait: %w", err)
	}
	_, err = s.db.db.ExecContext(ctx,
		`UPDATE profiles SET traits = jsonb_set(traits, ARRAY[$2], $3::jsonb, true), updated_at = $4 WHERE user_id = $1`,
		userID, name, string(valueJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: update profile: %v", storage.ErrStorageIO, err)
	}
	return nil
}
