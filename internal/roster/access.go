// internal/roster/access.go
package roster

import (
	"context"
	"fmt"
	"sort"

	"github.com/estrellaangel/VolleyTech/internal/identity"
)

// Directory is a read-only snapshot of teams, people and their
// relationships. Lookups are linear; rosters are small.
type Directory struct {
	Teams         []Team
	Users         []User
	Memberships   []Membership
	GuardianLinks []GuardianLink
	Players       []Player
}

func (d *Directory) User(id string) (User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (d *Directory) Team(id string) (Team, bool) {
	for _, t := range d.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// VisibleTeamIDs returns the teams a user belongs to directly plus the teams
// of any linked kids, without duplicates, in first-seen order.
func (d *Directory) VisibleTeamIDs(userID string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(teamID string) {
		if _, ok := seen[teamID]; ok {
			return
		}
		seen[teamID] = struct{}{}
		out = append(out, teamID)
	}

	for _, m := range d.Memberships {
		if m.UserID == userID && m.IsActive {
			add(m.TeamID)
		}
	}
	for _, kid := range d.LinkedKids(userID) {
		add(kid.TeamID)
	}
	return out
}

// LinkedKids returns the player profiles a parent is linked to.
func (d *Directory) LinkedKids(userID string) []Player {
	linked := make(map[string]struct{})
	for _, gl := range d.GuardianLinks {
		if gl.ParentUserID == userID {
			linked[gl.PlayerID] = struct{}{}
		}
	}

	var out []Player
	for _, p := range d.Players {
		if _, ok := linked[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RoleForTeam returns the highest-privilege active role the user holds on
// the team. ok is false when the user has no active membership there.
func (d *Directory) RoleForTeam(userID, teamID string) (Role, bool) {
	var best Role
	found := false
	for _, m := range d.Memberships {
		if m.UserID != userID || m.TeamID != teamID || !m.IsActive {
			continue
		}
		if !found || m.Role.Outranks(best) {
			best = m.Role
			found = true
		}
	}
	return best, found
}

// TeamPlayers returns the active players on a team ordered by jersey number.
func (d *Directory) TeamPlayers(teamID string) []Player {
	var out []Player
	for _, p := range d.Players {
		if p.TeamID == teamID && p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JerseyNumber < out[j].JerseyNumber
	})
	return out
}

// RosterPlayers adapts TeamPlayers for link suggestions.
func (d *Directory) RosterPlayers(ctx context.Context, teamID string) ([]identity.RosterPlayer, error) {
	if _, ok := d.Team(teamID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
	}
	players := d.TeamPlayers(teamID)
	out := make([]identity.RosterPlayer, 0, len(players))
	for _, p := range players {
		out = append(out, identity.RosterPlayer{
			ID:           p.ID,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			JerseyNumber: p.JerseyNumber,
		})
	}
	return out, nil
}

// TeamAudience returns the users who should hear about a team's events:
// active members and guardians of active players. Each user appears once.
func (d *Directory) TeamAudience(teamID string) []User {
	ids := make(map[string]struct{})
	for _, m := range d.Memberships {
		if m.TeamID == teamID && m.IsActive {
			ids[m.UserID] = struct{}{}
		}
	}
	onTeam := make(map[string]struct{})
	for _, p := range d.TeamPlayers(teamID) {
		onTeam[p.ID] = struct{}{}
	}
	for _, gl := range d.GuardianLinks {
		if _, ok := onTeam[gl.PlayerID]; ok {
			ids[gl.ParentUserID] = struct{}{}
		}
	}

	var out []User
	for _, u := range d.Users {
		if _, ok := ids[u.ID]; ok {
			out = append(out, u)
		}
	}
	return out
}
