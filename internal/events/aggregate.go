// internal/events/aggregate.go
package events

import (
	"sort"
	"time"
)

// Kid is the part of a linked player profile the parent calendar needs.
type Kid struct {
	PlayerID string
	TeamID   string
}

// ParentEntry is one team event shown for one kid. A parent with two kids on
// the same team sees the event twice, once per kid.
type ParentEntry struct {
	Event    TeamEvent `json:"event"`
	PlayerID string    `json:"playerId"`
	TeamID   string    `json:"teamId"`
}

// AggregateForParent fans team events out per kid and sorts by start time.
func AggregateForParent(teamEvents []TeamEvent, kids []Kid) []ParentEntry {
	kidsByTeam := make(map[string][]Kid)
	for _, kid := range kids {
		kidsByTeam[kid.TeamID] = append(kidsByTeam[kid.TeamID], kid)
	}

	var out []ParentEntry
	for _, ev := range teamEvents {
		for _, kid := range kidsByTeam[ev.TeamID()] {
			out = append(out, ParentEntry{Event: ev, PlayerID: kid.PlayerID, TeamID: kid.TeamID})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Event.StartAt.Before(out[j].Event.StartAt)
	})
	return out
}

// DueAlert is an enabled alert whose fire time has arrived.
type DueAlert struct {
	Event  TeamEvent `json:"event"`
	Alert  Alert     `json:"alert"`
	FireAt time.Time `json:"fireAt"`
}

// DueAlerts returns the enabled alerts that fire in (from, to], ordered by
// fire time. Running it over consecutive windows reports each alert once.
func DueAlerts(teamEvents []TeamEvent, from, to time.Time) []DueAlert {
	var out []DueAlert
	for _, ev := range teamEvents {
		for _, alert := range ev.Alerts {
			if !alert.Enabled {
				continue
			}
			fireAt := ev.StartAt.Add(-time.Duration(alert.MinutesBefore) * time.Minute)
			if fireAt.After(from) && !fireAt.After(to) {
				out = append(out, DueAlert{Event: ev, Alert: alert, FireAt: fireAt})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}
