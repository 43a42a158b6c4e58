// internal/api/imports/handlers.go
package imports

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/apiutil"
	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/csvimport"
)

var (
	importer *csvimport.Importer
	initOnce sync.Once
)

const maxUploadBytes = 8 << 20

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(im *csvimport.Importer) {
	if im == nil {
		log.Warn().Msg("imports.InitHandlers called with nil importer")
		return
	}
	initOnce.Do(func() {
		importer = im
	})
}

// POST /api/v1/imports/{source}/{teamId}
// The body is the raw CSV export. Query flags: accept, coerce, teamLabel,
// season, externalIdColumn.
func HandleImport(w http.ResponseWriter, r *http.Request) {
	if importer == nil {
		apiutil.WriteError(w, r, errors.New("import handlers not initialized"))
		return
	}
	source, err := apiutil.SourceField(r.PathValue("source"), "source")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	teamID, err := apiutil.PathValue(r, "teamId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	session, err := authz.RequireRosterEditor(r.Context(), teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	query := r.URL.Query()
	opts := csvimport.Options{
		Source:           source,
		TeamID:           teamID,
		TeamLabel:        query.Get("teamLabel"),
		SeasonLabel:      query.Get("season"),
		ExternalIDColumn: query.Get("externalIdColumn"),
	}
	for name, dst := range map[string]*bool{"accept": &opts.AcceptSuggestions, "coerce": &opts.Coerce} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: name, Reason: "must be a boolean"}))
			return
		}
		*dst = v
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if len(data) > maxUploadBytes {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusRequestEntityTooLarge, Message: "Export is too large"})
		return
	}

	table, err := csvimport.Parse(data)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	result, err := importer.Run(r.Context(), table, opts)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("user_id", session.User.ID).
		Str("team_id", teamID).
		Str("source", string(source)).
		Int("rows", len(result.Rows)).
		Msg("Stat export imported")
	if err := apiutil.WriteJSON(w, http.StatusOK, result); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write import result")
	}
}
