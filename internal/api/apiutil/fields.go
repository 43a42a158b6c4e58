// internal/api/apiutil/fields.go
package apiutil

import (
	"net/http"
	"strings"

	"github.com/estrellaangel/VolleyTech/internal/identity"
)

// RequiredString trims raw and reports a FieldError when it is empty.
func RequiredString(raw, field string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	return value, nil
}

// PathValue reads a required path wildcard.
func PathValue(r *http.Request, name string) (string, error) {
	return RequiredString(r.PathValue(name), name)
}

// SourceField parses a vendor source and reports a FieldError for unknown
// values.
func SourceField(raw, field string) (identity.Source, error) {
	source, err := identity.ParseSource(strings.TrimSpace(raw))
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be one of " + sourceList()}
	}
	return source, nil
}

func sourceList() string {
	sources := identity.Sources()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
