// internal/api/events/handlers.go
package events

import (
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/apiutil"
	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/events"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

var (
	store     *events.Store
	directory *roster.Directory
	initOnce  sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(s *events.Store, dir *roster.Directory) {
	if s == nil || dir == nil {
		log.Warn().Msg("events.InitHandlers called with nil dependency")
		return
	}
	initOnce.Do(func() {
		store = s
		directory = dir
	})
}

type listResponse struct {
	TeamEvents     []events.TeamEvent     `json:"teamEvents"`
	PersonalEvents []events.PersonalEvent `json:"personalEvents"`
	// SharedEvents are team members' personal events shared with staff.
	SharedEvents []events.PersonalEvent `json:"sharedEvents,omitempty"`
	// KidEvents is the parent view: each team event once per linked kid.
	KidEvents []events.ParentEntry `json:"kidEvents,omitempty"`
}

// GET /api/v1/events
// Without a session team the caller sees every team they can see.
func HandleListEvents(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		apiutil.WriteError(w, r, errors.New("event handlers not initialized"))
		return
	}
	session, err := authz.RequireSession(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	teamIDs := directory.VisibleTeamIDs(session.User.ID)
	if session.TeamID != "" {
		teamIDs = []string{session.TeamID}
	}

	resp := listResponse{
		TeamEvents:     orEmpty(store.ListForTeams(teamIDs...)),
		PersonalEvents: orEmpty(store.ListPersonal(session.User.ID)),
	}

	if session.TeamID != "" && roster.CanEditTeamEvents(session.Role) {
		audience := directory.TeamAudience(session.TeamID)
		ids := make([]string, 0, len(audience))
		for _, u := range audience {
			if u.ID != session.User.ID {
				ids = append(ids, u.ID)
			}
		}
		resp.SharedEvents = store.SharedWithStaff(ids...)
	}

	var kids []events.Kid
	for _, p := range directory.LinkedKids(session.User.ID) {
		if session.TeamID == "" || p.TeamID == session.TeamID {
			kids = append(kids, events.Kid{PlayerID: p.ID, TeamID: p.TeamID})
		}
	}
	if len(kids) > 0 {
		resp.KidEvents = events.AggregateForParent(resp.TeamEvents, kids)
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write events")
	}
}

// POST /api/v1/events
func HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		apiutil.WriteError(w, r, errors.New("event handlers not initialized"))
		return
	}

	var ev events.TeamEvent
	if err := apiutil.DecodeJSON(r, &ev); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	session, err := authz.RequireEventEditor(r.Context(), ev.TeamID())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ev.CreatedBy = session.User.ID
	ev.UpdatedBy = ""
	ev.UpdatedAt = nil
	created, err := store.Add(r.Context(), ev)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write created event")
	}
}

// PUT /api/v1/events/{eventId}
func HandleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		apiutil.WriteError(w, r, errors.New("event handlers not initialized"))
		return
	}
	eventID, err := apiutil.PathValue(r, "eventId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}

	existing, ok := store.Get(eventID)
	if !ok {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Event not found"})
		return
	}
	session, err := authz.RequireEventEditor(r.Context(), existing.TeamID())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var ev events.TeamEvent
	if err := apiutil.DecodeJSON(r, &ev); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	ev.ID = eventID
	if ev.Visibility.TeamID == "" {
		ev.Visibility = existing.Visibility
	}
	ev.UpdatedBy = session.User.ID

	updated, err := store.Update(r.Context(), ev)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write updated event")
	}
}

// POST /api/v1/events/personal
// The event always belongs to the caller.
func HandleCreatePersonalEvent(w http.ResponseWriter, r *http.Request) {
	if store == nil {
		apiutil.WriteError(w, r, errors.New("event handlers not initialized"))
		return
	}
	session, err := authz.RequireSession(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var ev events.PersonalEvent
	if err := apiutil.DecodeJSON(r, &ev); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
		return
	}
	ev.Visibility = events.PersonalVisibility{OwnerUserID: session.User.ID}
	ev.CreatedBy = session.User.ID
	ev.UpdatedBy = ""

	created, err := store.AddPersonal(r.Context(), ev)
	if err != nil {
		writeEventError(w, r, err)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write personal event")
	}
}

func writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrInvalidEvent):
		apiutil.WriteError(w, r, apiutil.BadRequest(err))
	case errors.Is(err, events.ErrDuplicateID):
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusConflict, Message: err.Error(), Err: err})
	case errors.Is(err, events.ErrNotFound):
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusNotFound, Message: "Event not found", Err: err})
	default:
		apiutil.WriteError(w, r, err)
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
