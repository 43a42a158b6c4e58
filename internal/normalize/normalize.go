// internal/normalize/normalize.go
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var headerSeparatorRe = regexp.MustCompile(`[^a-z0-9]+`)

// Name produces the canonical form of a person's name used inside external
// identity keys. Keys built from it are persisted, so its output for a given
// input must never change.
//
// It lowercases, keeps only a-z, whitespace, apostrophes and hyphens, then
// collapses whitespace runs into single spaces with no leading or trailing
// space. Letters outside a-z (including accented ones) are dropped.
func Name(raw string) string {
	lowered := strings.ToLower(raw)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r == '\'', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	// Fields also drops leading and trailing space, which keeps Name idempotent.
	return strings.Join(strings.Fields(b.String()), " ")
}

// Header canonicalizes a spreadsheet column name for synonym comparison:
// lowercase, every run of characters outside a-z0-9 becomes one space, and
// surrounding spaces are trimmed.
func Header(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimSpace(headerSeparatorRe.ReplaceAllString(lowered, " "))
}

// Fold strips diacritics before applying Name, so "José" and "Jose" compare
// equal. It is for fuzzy roster matching only; identity keys use Name.
func Fold(raw string) string {
	decomposed := norm.NFD.String(raw)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return Name(b.String())
}
