// internal/events/store.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound    = errors.New("event not found")
	ErrDuplicateID = errors.New("event id already exists")
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Store holds calendar events in memory. Newly added team events go to the
// front, matching how the calendar shows recent additions first.
type Store struct {
	mu       sync.RWMutex
	team     []TeamEvent
	personal []PersonalEvent
	clock    Clock
}

// NewStore seeds a Store with initial events in the given order.
func NewStore(initial []TeamEvent, clock Clock) *Store {
	if clock == nil {
		clock = realClock{}
	}
	team := make([]TeamEvent, len(initial))
	copy(team, initial)
	return &Store{team: team, clock: clock}
}

func newEventID() string {
	return "evt_" + uuid.NewString()
}

// Add validates ev, assigns an id when it has none and stamps CreatedAt.
func (s *Store) Add(ctx context.Context, ev TeamEvent) (TeamEvent, error) {
	if err := ev.Validate(); err != nil {
		return TeamEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = newEventID()
	} else if s.indexLocked(ev.ID) >= 0 {
		return TeamEvent{}, fmt.Errorf("%w: %s", ErrDuplicateID, ev.ID)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.clock.Now()
	}

	s.team = append([]TeamEvent{ev}, s.team...)

	log.Ctx(ctx).Info().
		Str("event_id", ev.ID).
		Str("team_id", ev.TeamID()).
		Str("kind", string(ev.Kind)).
		Msg("Team event added")
	return ev, nil
}

// Update replaces the event with ev.ID in place. The creator fields and team
// are kept from the stored event; UpdatedAt is stamped.
func (s *Store) Update(ctx context.Context, ev TeamEvent) (TeamEvent, error) {
	if err := ev.Validate(); err != nil {
		return TeamEvent{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(ev.ID)
	if i < 0 {
		return TeamEvent{}, fmt.Errorf("%w: %s", ErrNotFound, ev.ID)
	}
	existing := s.team[i]
	if existing.TeamID() != ev.TeamID() {
		return TeamEvent{}, fmt.Errorf("%w: cannot move event to another team", ErrInvalidEvent)
	}

	ev.CreatedBy = existing.CreatedBy
	ev.CreatedAt = existing.CreatedAt
	now := s.clock.Now()
	ev.UpdatedAt = &now
	s.team[i] = ev

	log.Ctx(ctx).Info().Str("event_id", ev.ID).Msg("Team event updated")
	return ev, nil
}

func (s *Store) Get(id string) (TeamEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.team[i], true
	}
	return TeamEvent{}, false
}

// All returns every team event in store order.
func (s *Store) All() []TeamEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TeamEvent, len(s.team))
	copy(out, s.team)
	return out
}

// ListForTeams returns the events of the given teams sorted by start time.
func (s *Store) ListForTeams(teamIDs ...string) []TeamEvent {
	wanted := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	var out []TeamEvent
	for _, ev := range s.team {
		if _, ok := wanted[ev.TeamID()]; ok {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sortByStart(out)
	return out
}

func (s *Store) ListForTeam(teamID string) []TeamEvent {
	return s.ListForTeams(teamID)
}

// AddPersonal stores a personal event for its owner.
func (s *Store) AddPersonal(ctx context.Context, ev PersonalEvent) (PersonalEvent, error) {
	if err := ev.Validate(); err != nil {
		return PersonalEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if ev.ID == "" {
		ev.ID = newEventID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
	s.personal = append([]PersonalEvent{ev}, s.personal...)

	log.Ctx(ctx).Info().Str("event_id", ev.ID).Str("owner_user_id", ev.Visibility.OwnerUserID).Msg("Personal event added")
	return ev, nil
}

// ListPersonal returns a user's own personal events sorted by start time.
func (s *Store) ListPersonal(ownerUserID string) []PersonalEvent {
	s.mu.RLock()
	var out []PersonalEvent
	for _, ev := range s.personal {
		if ev.Visibility.OwnerUserID == ownerUserID {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

// SharedWithStaff returns personal events of the given owners that were
// shared with team staff, sorted by start time.
func (s *Store) SharedWithStaff(ownerUserIDs ...string) []PersonalEvent {
	owners := make(map[string]struct{}, len(ownerUserIDs))
	for _, id := range ownerUserIDs {
		owners[id] = struct{}{}
	}

	s.mu.RLock()
	var out []PersonalEvent
	for _, ev := range s.personal {
		if _, ok := owners[ev.Visibility.OwnerUserID]; ok && ev.ShareWithTeamStaff {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

func (s *Store) indexLocked(id string) int {
	for i, ev := range s.team {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

func sortByStart(evs []TeamEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		return evs[i].StartAt.Before(evs[j].StartAt)
	})
}
