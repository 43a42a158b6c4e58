// internal/mapping/apply.go
package mapping

import (
	"sort"

	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
)

// Row is one export row keyed by source column name.
type Row map[string]any

// Record is a row re-keyed to canonical stats. Values pass through untouched.
type Record map[catalog.StatKey]any

// Apply re-keys row through profile.Map and drops unmapped columns. When two
// columns map to the same stat, the column that sorts last wins; use
// ApplyColumns when source column order must decide.
func Apply(row Row, profile *profiles.Profile) Record {
	out := make(Record)
	if profile == nil {
		return out
	}

	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, column := range columns {
		if key, ok := profile.Map[column]; ok {
			out[key] = row[column]
		}
	}
	return out
}

// ApplyColumns re-keys a positional row. values[i] belongs to headers[i];
// later columns win on duplicate targets and missing trailing values are
// skipped.
func ApplyColumns(headers, values []string, profile *profiles.Profile) Record {
	out := make(Record)
	if profile == nil {
		return out
	}
	for i, header := range headers {
		if i >= len(values) {
			break
		}
		if key, ok := profile.Map[header]; ok {
			out[key] = values[i]
		}
	}
	return out
}
