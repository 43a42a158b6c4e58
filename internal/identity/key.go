// internal/identity/key.go
package identity

import (
	"strconv"
	"strings"

	"github.com/estrellaangel/VolleyTech/internal/normalize"
)

// KeySeparator joins external key segments. Segment values are not escaped.
const KeySeparator = "|"

// KeyInput carries the identity fields read from an export row. Empty
// labels and a nil jersey become empty segments.
type KeyInput struct {
	Source       Source
	FullName     string
	JerseyNumber *int
	TeamLabel    string
	SeasonLabel  string
}

// BuildKey returns "source|season|team|name|jersey". The output is persisted
// and compared byte for byte, so the format is fixed.
func BuildKey(in KeyInput) string {
	jersey := ""
	if in.JerseyNumber != nil {
		jersey = strconv.Itoa(*in.JerseyNumber)
	}

	return strings.Join([]string{
		string(in.Source),
		labelSegment(in.SeasonLabel),
		labelSegment(in.TeamLabel),
		normalize.Name(in.FullName),
		jersey,
	}, KeySeparator)
}

// KeyHasSeparatorConflict reports whether a segment of in would contain the
// separator, which makes the built key ambiguous to split.
func KeyHasSeparatorConflict(in KeyInput) bool {
	for _, segment := range []string{string(in.Source), labelSegment(in.SeasonLabel), labelSegment(in.TeamLabel)} {
		if strings.Contains(segment, KeySeparator) {
			return true
		}
	}
	return false
}

func labelSegment(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
