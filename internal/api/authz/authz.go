// internal/api/authz/authz.go
package authz

import (
	"context"
	"errors"

	"github.com/estrellaangel/VolleyTech/internal/roster"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Session is the caller and the team they are acting on. Role is empty when
// the user can see the team without holding a membership, as a parent does
// through a linked kid.
type Session struct {
	User   roster.User
	TeamID string
	Role   roster.Role
}

type sessionContextKey struct{}

func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext retrieves the Session stored in ctx.
// It returns nil if ctx is nil, if no session is stored, or if the stored value has a different type.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok {
		return nil
	}
	return session
}

// RequireSession returns the session or ErrUnauthenticated.
func RequireSession(ctx context.Context) (*Session, error) {
	session := SessionFromContext(ctx)
	if session == nil {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// RequireTeam checks that the session is acting on teamID.
func RequireTeam(ctx context.Context, teamID string) (*Session, error) {
	session, err := RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.TeamID == "" || session.TeamID != teamID {
		return nil, ErrForbidden
	}
	return session, nil
}

// RequireEventEditor allows coaches and directors of teamID.
func RequireEventEditor(ctx context.Context, teamID string) (*Session, error) {
	session, err := RequireTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !roster.CanEditTeamEvents(session.Role) {
		return nil, ErrForbidden
	}
	return session, nil
}

// RequireRosterEditor allows coaches and directors of teamID. Mapping
// profiles and player links count as roster data.
func RequireRosterEditor(ctx context.Context, teamID string) (*Session, error) {
	session, err := RequireTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !roster.CanEditRoster(session.Role) {
		return nil, ErrForbidden
	}
	return session, nil
}
