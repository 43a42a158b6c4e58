// internal/api/identities/handlers.go
package identities

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/apiutil"
	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/identity"
	"github.com/estrellaangel/VolleyTech/internal/normalize"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

var (
	resolver  *identity.Resolver
	directory *roster.Directory
	initOnce  sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(r *identity.Resolver, dir *roster.Directory) {
	if r == nil || dir == nil {
		log.Warn().Msg("identities.InitHandlers called with nil dependency")
		return
	}
	initOnce.Do(func() {
		resolver = r
		directory = dir
	})
}

type keyResponse struct {
	ExternalKey       string `json:"externalKey"`
	SeparatorConflict bool   `json:"separatorConflict,omitempty"`
}

type resolveResponse struct {
	identity.Resolution
	RosterCandidates []identity.Candidate `json:"rosterCandidates,omitempty"`
}

type linkRequest struct {
	TeamID string `json:"teamId"`
	identity.LinkRequest
}

// POST /api/v1/identities/key
func HandleKey(w http.ResponseWriter, r *http.Request) {
	var row identity.RowIdentity
	if err := apiutil.DecodeJSON(r, &row); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	source, err := apiutil.SourceField(string(row.Source), "source")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if normalize.Name(row.FullName) == "" {
		apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: "fullName", Reason: "must contain letters"}))
		return
	}

	in := identity.KeyInput{
		Source:       source,
		FullName:     row.FullName,
		JerseyNumber: row.JerseyNumber,
		TeamLabel:    row.TeamLabel,
		SeasonLabel:  row.SeasonLabel,
	}
	resp := keyResponse{
		ExternalKey:       identity.BuildKey(in),
		SeparatorConflict: identity.KeyHasSeparatorConflict(in),
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write identity key")
	}
}

// POST /api/v1/identities/resolve
// A match stamps lastMatchedAt on the ref, so only roster editors of the
// session team may resolve. Unmatched rows carry roster candidates the
// coach can pick from.
func HandleResolve(w http.ResponseWriter, r *http.Request) {
	if resolver == nil {
		apiutil.WriteError(w, r, errors.New("identity handlers not initialized"))
		return
	}
	session, err := authz.RequireSession(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := authz.RequireRosterEditor(r.Context(), session.TeamID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var row identity.RowIdentity
	if err := apiutil.DecodeJSON(r, &row); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	res, err := resolver.Resolve(r.Context(), row)
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}

	resp := resolveResponse{Resolution: res}
	if res.Status == identity.StatusUnmatched {
		players, err := directory.RosterPlayers(r.Context(), session.TeamID)
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}
		resp.RosterCandidates = identity.MatchRoster(row, players)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write resolution")
	}
}

// POST /api/v1/identities/links
func HandleLink(w http.ResponseWriter, r *http.Request) {
	if resolver == nil {
		apiutil.WriteError(w, r, errors.New("identity handlers not initialized"))
		return
	}

	var req linkRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	teamID, err := apiutil.RequiredString(req.TeamID, "teamId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	session, err := authz.RequireRosterEditor(r.Context(), teamID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !onTeam(teamID, req.PlayerID) {
		apiutil.WriteError(w, r, apiutil.BadRequest(apiutil.FieldError{Field: "playerId", Reason: "is not on this team"}))
		return
	}

	ref, err := resolver.Link(r.Context(), req.LinkRequest)
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().
		Str("user_id", session.User.ID).
		Str("team_id", teamID).
		Str("player_id", ref.PlayerID).
		Msg("Player linked to external identity")
	if err := apiutil.WriteJSON(w, http.StatusCreated, ref); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write external ref")
	}
}

type playerRefsResponse struct {
	PlayerID string                       `json:"playerId"`
	Refs     []identity.ExternalPlayerRef `json:"refs"`
}

// GET /api/v1/identities/players/{playerId}/refs
// Lists the vendor identities linked to a player on the session team.
func HandlePlayerRefs(w http.ResponseWriter, r *http.Request) {
	if resolver == nil {
		apiutil.WriteError(w, r, errors.New("identity handlers not initialized"))
		return
	}
	session, err := authz.RequireSession(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := authz.RequireTeam(r.Context(), session.TeamID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	playerID, err := apiutil.PathValue(r, "playerId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	if !onTeam(session.TeamID, playerID) {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Player not found"})
		return
	}

	refs, err := resolver.PlayerRefs(r.Context(), playerID)
	if err != nil {
		writeIdentityError(w, r, err)
		return
	}
	if refs == nil {
		refs = []identity.ExternalPlayerRef{}
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, playerRefsResponse{PlayerID: playerID, Refs: refs}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write player refs")
	}
}

func onTeam(teamID, playerID string) bool {
	for _, p := range directory.TeamPlayers(teamID) {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func writeIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrKeyConflict):
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: err.Error(), Err: err})
	case errors.Is(err, identity.ErrUnknownSource),
		errors.Is(err, identity.ErrInvalidIdentity),
		errors.Is(err, identity.ErrInvalidLink):
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
	default:
		apiutil.WriteError(w, r, err)
	}
}
