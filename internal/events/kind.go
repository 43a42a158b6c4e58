// internal/events/kind.go
package events

type Kind string

const (
	KindPractice   Kind = "practice"
	KindTournament Kind = "tournament"
	KindGames      Kind = "games"
	KindMeeting    Kind = "meeting"
	KindOther      Kind = "other"
)

var kinds = []Kind{KindPractice, KindTournament, KindGames, KindMeeting, KindOther}

func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) Label() string {
	switch k {
	case KindGames:
		return "Game"
	case KindPractice:
		return "Practice"
	case KindTournament:
		return "Tournament"
	case KindMeeting:
		return "Meeting"
	default:
		return "Other"
	}
}

// Palette is the calendar color set for a kind.
type Palette struct {
	Background string `json:"background"`
	Text       string `json:"text"`
	Dot        string `json:"dot"`
}

func (k Kind) Palette() Palette {
	switch k {
	case KindGames:
		return Palette{Background: "#DBEAFE", Text: "#1D4ED8", Dot: "#2563EB"}
	case KindPractice:
		return Palette{Background: "#DCFCE7", Text: "#15803D", Dot: "#16A34A"}
	case KindTournament:
		return Palette{Background: "#FEF3C7", Text: "#B45309", Dot: "#F59E0B"}
	default:
		return Palette{Background: "#F3F4F6", Text: "#374151", Dot: "#6B7280"}
	}
}
