// internal/profiles/store.go
package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/identity"
)

const keyPrefix = "mappingProfile"

// KV is the string key/value persistence a Store needs.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetIfAbsent writes value only when key has no value and reports whether
	// it wrote.
	SetIfAbsent(ctx context.Context, key, value string) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Store persists at most one Profile per (source, teamID).
type Store struct {
	kv    KV
	clock Clock
	newID func() string
}

// NewStore returns a Store over kv. A nil clock uses wall time.
func NewStore(kv KV, clock Clock) *Store {
	if clock == nil {
		clock = realClock{}
	}
	return &Store{kv: kv, clock: clock, newID: uuid.NewString}
}

// Key returns the persistence key for a (source, teamID) pair.
func Key(source identity.Source, teamID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, source, teamID)
}

// Load returns the stored profile. A missing profile is reported with
// found=false and a nil error.
func (s *Store) Load(ctx context.Context, source identity.Source, teamID string) (*Profile, bool, error) {
	key := Key(source, teamID)
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrStorage, key, err)
	}
	if !found {
		return nil, false, nil
	}

	profile, err := decode(raw)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("Stored mapping profile is corrupt")
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCorruptProfile, key, err)
	}
	return profile, true, nil
}

// GetOrCreate returns the stored profile or creates an empty one. When two
// callers race, both receive the profile that was written first.
func (s *Store) GetOrCreate(ctx context.Context, source identity.Source, teamID string) (*Profile, error) {
	if existing, found, err := s.Load(ctx, source, teamID); err != nil || found {
		return existing, err
	}

	now := s.clock.Now()
	profile := &Profile{
		MappingProfileID: s.newID(),
		Source:           source,
		TeamID:           teamID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Map:              map[string]catalog.StatKey{},
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: encode profile: %v", ErrStorage, err)
	}

	key := Key(source, teamID)
	created, err := s.kv.SetIfAbsent(ctx, key, string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorage, key, err)
	}
	if !created {
		existing, found, err := s.Load(ctx, source, teamID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s vanished after concurrent create", ErrStorage, key)
		}
		return existing, nil
	}

	log.Ctx(ctx).Info().
		Str("mapping_profile_id", profile.MappingProfileID).
		Str("source", string(source)).
		Str("team_id", teamID).
		Msg("Mapping profile created")
	return profile, nil
}

// Save overwrites the stored profile for profile's (source, teamID). It
// does not touch UpdatedAt; callers stamp it when they edit the map.
func (s *Store) Save(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	toWrite := *profile
	if toWrite.Map == nil {
		toWrite.Map = map[string]catalog.StatKey{}
	}
	raw, err := json.Marshal(toWrite)
	if err != nil {
		return fmt.Errorf("%w: encode profile: %v", ErrStorage, err)
	}

	key := Key(profile.Source, profile.TeamID)
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrStorage, key, err)
	}
	return nil
}

func decode(raw string) (*Profile, error) {
	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, err
	}
	if profile.MappingProfileID == "" || profile.Source == "" || profile.TeamID == "" {
		return nil, fmt.Errorf("missing identity fields")
	}
	if profile.Map == nil {
		profile.Map = map[string]catalog.StatKey{}
	}
	return &profile, nil
}
