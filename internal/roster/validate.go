// internal/roster/validate.go
package roster

import (
	"fmt"
	"strings"
)

// Normalize fills derived ids, normalizes phone numbers and checks that every
// reference points at a known team, user or player.
func (d *Directory) Normalize() error {
	teams := make(map[string]struct{}, len(d.Teams))
	for _, t := range d.Teams {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("team %q has no id", t.Name)
		}
		teams[t.ID] = struct{}{}
	}
	users := make(map[string]struct{}, len(d.Users))
	for _, u := range d.Users {
		users[u.ID] = struct{}{}
	}

	for i := range d.Memberships {
		m := &d.Memberships[i]
		if !m.Role.Valid() {
			return fmt.Errorf("%w: %q for %s", ErrInvalidRole, m.Role, m.UserID)
		}
		if _, ok := teams[m.TeamID]; !ok {
			return fmt.Errorf("%w: membership %s:%s", ErrUnknownTeam, m.TeamID, m.UserID)
		}
		if _, ok := users[m.UserID]; !ok {
			return fmt.Errorf("%w: membership %s:%s", ErrUnknownUser, m.TeamID, m.UserID)
		}
		if m.ID == "" {
			m.ID = m.TeamID + ":" + m.UserID
		}
	}

	players := make(map[string]struct{}, len(d.Players))
	for i := range d.Players {
		p := &d.Players[i]
		if _, ok := teams[p.TeamID]; !ok {
			return fmt.Errorf("%w: player %s", ErrUnknownTeam, p.ID)
		}
		if p.Position == "" {
			p.Position = PositionUnknown
		}
		phone, err := NormalizePhone(p.Phone)
		if err != nil {
			return fmt.Errorf("player %s: %w", p.ID, err)
		}
		p.Phone = phone
		players[p.ID] = struct{}{}
	}

	for i := range d.GuardianLinks {
		gl := &d.GuardianLinks[i]
		if _, ok := users[gl.ParentUserID]; !ok {
			return fmt.Errorf("%w: guardian %s", ErrUnknownUser, gl.ParentUserID)
		}
		if _, ok := players[gl.PlayerID]; !ok {
			return fmt.Errorf("guardian link %s: unknown player %s", gl.ParentUserID, gl.PlayerID)
		}
		if gl.ID == "" {
			gl.ID = gl.ParentUserID + ":" + gl.PlayerID
		}
	}
	return nil
}
