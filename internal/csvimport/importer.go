// internal/csvimport/importer.go
package csvimport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/mapping"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
	"github.com/estrellaangel/VolleyTech/internal/suggest"
)

// RosterSource lists the internal players of a team for link suggestions.
type RosterSource interface {
	RosterPlayers(ctx context.Context, teamID string) ([]identity.RosterPlayer, error)
}

type Options struct {
	Source      identity.Source
	TeamID      string
	TeamLabel   string
	SeasonLabel string
	// ExternalIDColumn names the source column holding the vendor's player
	// id, when the export has one.
	ExternalIDColumn string
	// AcceptSuggestions adds every confident suggestion for an unmapped
	// column to the profile and saves it before rows are applied.
	AcceptSuggestions bool
	// Coerce converts mapped values to their catalog types.
	Coerce bool
}

type RowResult struct {
	Row         int                  `json:"row"`
	Record      mapping.Record       `json:"record"`
	FieldErrors []mapping.FieldError `json:"fieldErrors,omitempty"`
	Resolution  *identity.Resolution `json:"resolution,omitempty"`
	Candidates  []identity.Candidate `json:"candidates,omitempty"`
	Error       string               `json:"error,omitempty"`
}

type Result struct {
	Profile     *profiles.Profile          `json:"profile"`
	Suggestions []suggest.ColumnSuggestion `json:"suggestions,omitempty"`
	Accepted    []string                   `json:"accepted,omitempty"`
	Rows        []RowResult                `json:"rows"`
	Warnings    []Warning                  `json:"warnings,omitempty"`
	Matched     int                        `json:"matched"`
	Unmatched   int                        `json:"unmatched"`
	Ambiguous   int                        `json:"ambiguous"`
}

type Importer struct {
	profiles  *profiles.Store
	resolver  *identity.Resolver
	suggester *suggest.Suggester
	catalog   *catalog.Catalog
	roster    RosterSource
	now       func() time.Time
}

// NewImporter wires the import pipeline. roster may be nil, in which case
// unmatched rows carry no candidates.
func NewImporter(store *profiles.Store, resolver *identity.Resolver, roster RosterSource) *Importer {
	c := catalog.Default()
	return &Importer{
		profiles:  store,
		resolver:  resolver,
		suggester: suggest.New(c),
		catalog:   c,
		roster:    roster,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run imports table for one team and source. Problems with individual rows
// are reported on the row; storage failures abort the run.
func (im *Importer) Run(ctx context.Context, table *Table, opts Options) (*Result, error) {
	if table == nil {
		return nil, ErrNoRows
	}
	logger := log.Ctx(ctx).With().
		Str("source", string(opts.Source)).
		Str("team_id", opts.TeamID).
		Logger()

	profile, err := im.profiles.GetOrCreate(ctx, opts.Source, opts.TeamID)
	if err != nil {
		return nil, fmt.Errorf("load mapping profile: %w", err)
	}

	result := &Result{Profile: profile, Warnings: table.Warnings}

	unmapped := profile.Unmapped(table.Headers)
	if opts.ExternalIDColumn != "" {
		unmapped = without(unmapped, opts.ExternalIDColumn)
	}
	result.Suggestions = im.suggester.SuggestHeaders(unmapped)

	if opts.AcceptSuggestions {
		for _, s := range result.Suggestions {
			if !s.Matched() {
				continue
			}
			profile.Map[s.Column] = *s.Key
			result.Accepted = append(result.Accepted, s.Column)
		}
		if len(result.Accepted) > 0 {
			profile.UpdatedAt = im.now()
			if err := im.profiles.Save(ctx, profile); err != nil {
				return nil, fmt.Errorf("save mapping profile: %w", err)
			}
			logger.Info().Strs("columns", result.Accepted).Msg("Accepted column suggestions")
		}
	}

	var roster []identity.RosterPlayer
	rosterLoaded := false
	idIndex := indexOf(table.Headers, opts.ExternalIDColumn)

	for i, values := range table.Rows {
		row := RowResult{Row: table.Line(i)}
		row.Record = mapping.ApplyColumns(table.Headers, values, profile)

		if opts.Coerce {
			typed, fieldErrs := mapping.Coerce(row.Record, im.catalog)
			row.Record = typed
			row.FieldErrors = fieldErrs
		}

		rowID := im.rowIdentity(row.Record, opts)
		if idIndex >= 0 && idIndex < len(values) {
			rowID.ExternalPlayerID = strings.TrimSpace(values[idIndex])
		}

		resolution, err := im.resolver.Resolve(ctx, rowID)
		switch {
		case errors.Is(err, identity.ErrInvalidIdentity):
			row.Error = "row has no player name or external id"
			result.Rows = append(result.Rows, row)
			continue
		case err != nil:
			return nil, fmt.Errorf("resolve row %d: %w", row.Row, err)
		}
		row.Resolution = &resolution

		switch resolution.Status {
		case identity.StatusMatched:
			result.Matched++
		case identity.StatusAmbiguous:
			result.Ambiguous++
		case identity.StatusUnmatched:
			result.Unmatched++
			if im.roster != nil {
				if !rosterLoaded {
					roster, err = im.roster.RosterPlayers(ctx, opts.TeamID)
					if err != nil {
						return nil, fmt.Errorf("load roster: %w", err)
					}
					rosterLoaded = true
				}
				row.Candidates = identity.MatchRoster(rowID, roster)
			}
		}
		result.Rows = append(result.Rows, row)
	}

	logger.Info().
		Int("rows", len(result.Rows)).
		Int("matched", result.Matched).
		Int("unmatched", result.Unmatched).
		Int("ambiguous", result.Ambiguous).
		Msg("Import finished")
	return result, nil
}

func (im *Importer) rowIdentity(record mapping.Record, opts Options) identity.RowIdentity {
	rowID := identity.RowIdentity{
		Source:      opts.Source,
		TeamLabel:   opts.TeamLabel,
		SeasonLabel: opts.SeasonLabel,
	}
	if name, ok := record[catalog.PlayerName]; ok {
		rowID.FullName = fmt.Sprint(name)
	}
	if jersey, ok := jerseyNumber(record[catalog.JerseyNumber]); ok {
		rowID.JerseyNumber = &jersey
	}
	return rowID
}

// jerseyNumber accepts raw cells such as "7" or "#7" and coerced int64 values.
func jerseyNumber(value any) (int, bool) {
	switch v := value.(type) {
	case int64:
		return int(v), true
	case int:
		return v, true
	case string:
		s := strings.TrimPrefix(strings.TrimSpace(v), "#")
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func indexOf(headers []string, column string) int {
	if column == "" {
		return -1
	}
	for i, h := range headers {
		if h == column {
			return i
		}
	}
	return -1
}

func without(columns []string, drop string) []string {
	out := columns[:0:0]
	for _, c := range columns {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}
