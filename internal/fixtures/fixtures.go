// internal/fixtures/fixtures.go
package fixtures

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/estrellaangel/VolleyTech/internal/events"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

// Ref is a pre-confirmed link between a vendor identity and a player.
type Ref struct {
	PlayerID         string          `yaml:"player_id"`
	Source           identity.Source `yaml:"source"`
	ExternalPlayerID string          `yaml:"external_player_id,omitempty"`
	FullName         string          `yaml:"full_name,omitempty"`
	JerseyNumber     *int            `yaml:"jersey_number,omitempty"`
	TeamLabel        string          `yaml:"team_label,omitempty"`
	SeasonLabel      string          `yaml:"season_label,omitempty"`
	DisplayName      string          `yaml:"display_name,omitempty"`
	Notes            string          `yaml:"notes,omitempty"`
}

type document struct {
	Teams         []roster.Team         `yaml:"teams"`
	Users         []roster.User         `yaml:"users"`
	Memberships   []roster.Membership   `yaml:"memberships"`
	GuardianLinks []roster.GuardianLink `yaml:"guardian_links"`
	Players       []roster.Player       `yaml:"players"`
	Events        []events.TeamEvent    `yaml:"events"`
	Refs          []Ref                 `yaml:"refs"`
}

// Fixtures is a validated seed file.
type Fixtures struct {
	Directory *roster.Directory
	Events    []events.TeamEvent
	Refs      []Ref
}

func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document. Every event must belong to a
// known team.
func Parse(data []byte) (*Fixtures, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	dir := &roster.Directory{
		Teams:         doc.Teams,
		Users:         doc.Users,
		Memberships:   doc.Memberships,
		GuardianLinks: doc.GuardianLinks,
		Players:       doc.Players,
	}
	if err := dir.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid roster fixtures: %w", err)
	}

	for _, ev := range doc.Events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		if _, ok := dir.Team(ev.TeamID()); !ok {
			return nil, fmt.Errorf("event %s: %w: %s", ev.ID, roster.ErrUnknownTeam, ev.TeamID())
		}
	}

	return &Fixtures{Directory: dir, Events: doc.Events, Refs: doc.Refs}, nil
}

// SeedRefs links each fixture ref through resolver. Refs that already exist
// for the same player are left as they are.
func SeedRefs(ctx context.Context, resolver *identity.Resolver, refs []Ref) (int, error) {
	for i, ref := range refs {
		_, err := resolver.Link(ctx, identity.LinkRequest{
			PlayerID: ref.PlayerID,
			Identity: identity.RowIdentity{
				Source:           ref.Source,
				ExternalPlayerID: ref.ExternalPlayerID,
				FullName:         ref.FullName,
				JerseyNumber:     ref.JerseyNumber,
				TeamLabel:        ref.TeamLabel,
				SeasonLabel:      ref.SeasonLabel,
			},
			DisplayNameFromSource: ref.DisplayName,
			Notes:                 ref.Notes,
		})
		if err != nil {
			return i, fmt.Errorf("seed ref for %s: %w", ref.PlayerID, err)
		}
	}
	log.Ctx(ctx).Info().Int("refs", len(refs)).Msg("External player refs seeded")
	return len(refs), nil
}
