// internal/api/mappings/handlers.go
package mappings

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/apiutil"
	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/mapping"
	"github.com/estrellaangel/VolleyTech/internal/profiles"
	"github.com/estrellaangel/VolleyTech/internal/suggest"
)

var (
	store       *profiles.Store
	statCatalog *catalog.Catalog
	suggester   *suggest.Suggester
	initOnce    sync.Once

	now = func() time.Time { return time.Now().UTC() }
)

const maxApplyRows = 5000

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *profiles.Store, c *catalog.Catalog) {
	if s == nil {
		log.Warn().Msg("mappings.InitHandlers called with nil profile store")
		return
	}
	if c == nil {
		c = catalog.Default()
	}
	initOnce.Do(func() {
		store = s
		statCatalog = c
		suggester = suggest.New(c)
	})
}

func loadStore() *profiles.Store {
	return store
}

type suggestRequest struct {
	Headers []string `json:"headers"`
}

type suggestResponse struct {
	Suggestions []suggest.ColumnSuggestion `json:"suggestions"`
}

type updateProfileRequest struct {
	Map map[string]catalog.StatKey `json:"map"`
}

type applyRequest struct {
	Source string        `json:"source"`
	TeamID string        `json:"teamId"`
	Rows   []mapping.Row `json:"rows"`
	Coerce bool          `json:"coerce"`
}

type appliedRow struct {
	Record      mapping.Record       `json:"record"`
	FieldErrors []mapping.FieldError `json:"fieldErrors,omitempty"`
}

type applyResponse struct {
	MappingProfileID string       `json:"mappingProfileId"`
	Rows             []appliedRow `json:"rows"`
}

// POST /api/v1/mappings/suggest
func HandleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if len(req.Headers) == 0 {
		apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: "headers", Reason: "must not be empty"}))
		return
	}

	var suggestions []suggest.ColumnSuggestion
	if suggester != nil {
		suggestions = suggester.SuggestHeaders(req.Headers)
	} else {
		suggestions = suggest.SuggestHeaders(req.Headers)
	}
	resp := suggestResponse{Suggestions: suggestions}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write suggestions")
	}
}

// GET /api/v1/mappings/profiles/{source}/{teamId}
func HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	profileStore := loadStore()
	if profileStore == nil {
		apiutil.WriteError(w, r, errors.New("mapping handlers not initialized"))
		return
	}
	source, teamID, err := profilePath(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if _, err := authz.RequireTeam(r.Context(), teamID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	profile, found, err := profileStore.Load(r.Context(), source, teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !found {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Mapping profile not found"})
		return
	}
	writeProfile(w, r, http.StatusOK, profile)
}

// POST /api/v1/mappings/profiles/{source}/{teamId}
func HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	profileStore := loadStore()
	if profileStore == nil {
		apiutil.WriteError(w, r, errors.New("mapping handlers not initialized"))
		return
	}
	source, teamID, err := profilePath(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if _, err := authz.RequireRosterEditor(r.Context(), teamID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	profile, err := profileStore.GetOrCreate(r.Context(), source, teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	writeProfile(w, r, http.StatusOK, profile)
}

// PUT /api/v1/mappings/profiles/{source}/{teamId}
// The body's map replaces the stored one wholesale.
func HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profileStore := loadStore()
	if profileStore == nil {
		apiutil.WriteError(w, r, errors.New("mapping handlers not initialized"))
		return
	}
	source, teamID, err := profilePath(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	session, err := authz.RequireRosterEditor(r.Context(), teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req updateProfileRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if req.Map == nil {
		req.Map = map[string]catalog.StatKey{}
	}
	for column, key := range req.Map {
		if !statCatalog.Valid(key) {
			apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: "map." + column, Reason: "is not a catalog stat"}))
			return
		}
	}

	profile, err := profileStore.GetOrCreate(r.Context(), source, teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	profile.Map = req.Map
	profile.UpdatedAt = now()
	if err := profileStore.Save(r.Context(), profile); err != nil {
		if errors.Is(err, profiles.ErrInvalidProfile) {
			apiutil.WriteError(w, r, apiutil.BadRequest(err))
			return
		}
		apiutil.WriteError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("mapping_profile_id", profile.MappingProfileID).
		Str("user_id", session.User.ID).
		Int("columns", len(profile.Map)).
		Msg("Mapping profile updated")
	writeProfile(w, r, http.StatusOK, profile)
}

// POST /api/v1/mappings/apply
func HandleApply(w http.ResponseWriter, r *http.Request) {
	profileStore := loadStore()
	if profileStore == nil {
		apiutil.WriteError(w, r, errors.New("mapping handlers not initialized"))
		return
	}

	var req applyRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	source, err := apiutil.SourceField(req.Source, "source")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	teamID, err := apiutil.RequiredString(req.TeamID, "teamId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if len(req.Rows) > maxApplyRows {
		apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: "rows", Reason: "has too many rows"}))
		return
	}
	if _, err := authz.RequireTeam(r.Context(), teamID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	profile, found, err := profileStore.Load(r.Context(), source, teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !found {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Mapping profile not found"})
		return
	}

	resp := applyResponse{MappingProfileID: profile.MappingProfileID, Rows: make([]appliedRow, 0, len(req.Rows))}
	for _, row := range req.Rows {
		out := appliedRow{Record: mapping.Apply(row, profile)}
		if req.Coerce {
			out.Record, out.FieldErrors = mapping.Coerce(out.Record, statCatalog)
		}
		resp.Rows = append(resp.Rows, out)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write applied rows")
	}
}

func profilePath(r *http.Request) (identity.Source, string, error) {
	source, err := apiutil.SourceField(r.PathValue("source"), "source")
	if err != nil {
		return "", "", err
	}
	teamID, err := apiutil.PathValue(r, "teamId")
	if err != nil {
		return "", "", err
	}
	return source, teamID, nil
}

func writeProfile(w http.ResponseWriter, r *http.Request, status int, profile *profiles.Profile) {
	if err := apiutil.WriteJSON(w, status, profile); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write mapping profile")
	}
}
