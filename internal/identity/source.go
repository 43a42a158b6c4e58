// internal/identity/source.go
package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Source names the vendor a stat export came from.
type Source string

const (
	SourceBalltime Source = "balltime"
	SourceHudl     Source = "hudl"
)

var (
	ErrUnknownSource   = errors.New("unknown stat source")
	ErrInvalidIdentity = errors.New("row identity needs an external player id or a name")
	ErrInvalidLink     = errors.New("invalid external link")
	ErrKeyConflict     = errors.New("external identity already linked to a different player")
)

// Sources lists the supported vendors.
func Sources() []Source {
	return []Source{SourceBalltime, SourceHudl}
}

// ParseSource accepts a vendor name case-insensitively.
func ParseSource(raw string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceBalltime:
		return SourceBalltime, nil
	case SourceHudl:
		return SourceHudl, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, raw)
	}
}
