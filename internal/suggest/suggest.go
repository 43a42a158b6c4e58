// internal/suggest/suggest.go
package suggest

import (
	"strings"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/normalize"
)

// Scores and cut-offs. Saved profiles were confirmed against these values,
// so they are part of the observable behavior.
const (
	ScoreExact    = 1.0
	ScoreContains = 0.85
	ScorePartial  = 0.6
	MinPartialLen = 3
	Threshold     = 0.7
)

// Suggestion is a best-effort guess. Key is nil when the best score is
// below Threshold; Confidence is reported either way.
type Suggestion struct {
	Key        *catalog.StatKey `json:"key"`
	Confidence float64          `json:"confidence"`
}

// Matched reports whether the suggestion carries a key.
func (s Suggestion) Matched() bool {
	return s.Key != nil
}

// ColumnSuggestion pairs a source column with its suggestion.
type ColumnSuggestion struct {
	Column string `json:"column"`
	Suggestion
}

type synonym struct {
	key        catalog.StatKey
	normalized string
}

// Suggester scores headers against one catalog.
type Suggester struct {
	synonyms []synonym
}

// New prepares a Suggester for c, keeping catalog and synonym order.
func New(c *catalog.Catalog) *Suggester {
	s := &Suggester{}
	c.Each(func(stat catalog.Stat) bool {
		for _, syn := range stat.Synonyms {
			s.synonyms = append(s.synonyms, synonym{key: stat.Key, normalized: normalize.Header(syn)})
		}
		return true
	})
	return s
}

var defaultSuggester = New(catalog.Default())

// Suggest scores header against the default catalog.
func Suggest(header string) Suggestion {
	return defaultSuggester.Suggest(header)
}

// SuggestHeaders scores every header against the default catalog.
func SuggestHeaders(headers []string) []ColumnSuggestion {
	return defaultSuggester.SuggestHeaders(headers)
}

func (s *Suggester) Suggest(header string) Suggestion {
	col := normalize.Header(header)

	var bestKey catalog.StatKey
	bestScore := 0.0
	for _, syn := range s.synonyms {
		score := scoreMatch(col, syn.normalized)
		// Strictly greater: the first stat in catalog order wins ties.
		if score > bestScore {
			bestKey = syn.key
			bestScore = score
		}
	}

	if bestScore < Threshold {
		return Suggestion{Confidence: bestScore}
	}
	return Suggestion{Key: &bestKey, Confidence: bestScore}
}

func (s *Suggester) SuggestHeaders(headers []string) []ColumnSuggestion {
	out := make([]ColumnSuggestion, 0, len(headers))
	for _, header := range headers {
		out = append(out, ColumnSuggestion{Column: header, Suggestion: s.Suggest(header)})
	}
	return out
}

func scoreMatch(col, syn string) float64 {
	switch {
	case col == syn:
		return ScoreExact
	case strings.Contains(col, syn):
		return ScoreContains
	case strings.Contains(syn, col) && len(col) >= MinPartialLen:
		return ScorePartial
	default:
		return 0
	}
}
