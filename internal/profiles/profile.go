// internal/profiles/profile.go
package profiles

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/identity"
)

var (
	ErrStorage        = errors.New("mapping profile storage failed")
	ErrCorruptProfile = fmt.Errorf("%w: corrupt mapping profile", ErrStorage)
	ErrInvalidProfile = errors.New("invalid mapping profile")
)

// Profile is a coach-confirmed mapping from one vendor's column names to
// canonical stat keys, scoped to a team. Columns absent from Map are
// ignored on import.
type Profile struct {
	MappingProfileID string                     `json:"mappingProfileId"`
	Source           identity.Source            `json:"source"`
	TeamID           string                     `json:"teamId"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
	Map              map[string]catalog.StatKey `json:"map"`
}

// Validate checks identity fields and that every mapped value is a
// catalog key.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.MappingProfileID) == "" {
		return fmt.Errorf("%w: mappingProfileId is required", ErrInvalidProfile)
	}
	if _, err := identity.ParseSource(string(p.Source)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if strings.TrimSpace(p.TeamID) == "" {
		return fmt.Errorf("%w: teamId is required", ErrInvalidProfile)
	}

	var unknown []string
	for column, key := range p.Map {
		if !catalog.Valid(key) {
			unknown = append(unknown, fmt.Sprintf("%s=%s", column, key))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: unknown stat keys %s", ErrInvalidProfile, strings.Join(unknown, ", "))
	}
	return nil
}

// Columns returns the mapped source columns sorted for stable output.
func (p Profile) Columns() []string {
	columns := make([]string, 0, len(p.Map))
	for column := range p.Map {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// Unmapped returns the headers that have no entry in the profile, in input order.
func (p Profile) Unmapped(headers []string) []string {
	var out []string
	for _, header := range headers {
		if _, ok := p.Map[header]; !ok {
			out = append(out, header)
		}
	}
	return out
}
