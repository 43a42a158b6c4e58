// internal/identity/candidates.go
package identity

import (
	"sort"

	"github.com/estrellaangel/VolleyTech/internal/normalize"
)

// RosterPlayer is the slice of an internal player needed to suggest links.
type RosterPlayer struct {
	ID           string
	FirstName    string
	LastName     string
	JerseyNumber int
}

type CandidateReason string

const (
	ReasonNameAndJersey CandidateReason = "name_and_jersey"
	ReasonName          CandidateReason = "name"
	ReasonJersey        CandidateReason = "jersey"
)

// Candidate is a roster player that may match an unresolved row.
type Candidate struct {
	PlayerID string          `json:"playerId"`
	Reason   CandidateReason `json:"reason"`
}

// MatchRoster ranks roster players that could be the person in row: name and
// jersey first, then name only, then jersey only. Names are compared with
// diacritics folded and "Last, First" exports are accepted. Players with no
// signal are omitted.
func MatchRoster(row RowIdentity, players []RosterPlayer) []Candidate {
	rowName := normalize.Fold(row.FullName)
	rowNameSwapped := normalize.Fold(swapLastFirst(row.FullName))

	var out []Candidate
	for _, player := range players {
		playerName := normalize.Fold(player.FirstName + " " + player.LastName)
		nameMatch := rowName != "" && (playerName == rowName || playerName == rowNameSwapped)
		jerseyMatch := row.JerseyNumber != nil && *row.JerseyNumber == player.JerseyNumber

		switch {
		case nameMatch && jerseyMatch:
			out = append(out, Candidate{PlayerID: player.ID, Reason: ReasonNameAndJersey})
		case nameMatch:
			out = append(out, Candidate{PlayerID: player.ID, Reason: ReasonName})
		case jerseyMatch:
			out = append(out, Candidate{PlayerID: player.ID, Reason: ReasonJersey})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return reasonRank(out[i].Reason) < reasonRank(out[j].Reason)
	})
	return out
}

func reasonRank(reason CandidateReason) int {
	switch reason {
	case ReasonNameAndJersey:
		return 0
	case ReasonName:
		return 1
	default:
		return 2
	}
}

// swapLastFirst turns "Toberman, Caroline" into "Caroline Toberman".
func swapLastFirst(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ',' {
			return name[i+1:] + " " + name[:i]
		}
	}
	return name
}
