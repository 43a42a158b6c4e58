// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	corslib "github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api/authz"
	"github.com/estrellaangel/VolleyTech/internal/roster"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderTeamID    = "X-Team-ID"
	HeaderRequestID = "X-Request-ID"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

type requestIDKey struct{}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WithRequestID reuses a well-formed incoming X-Request-ID and otherwise
// generates one.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		logger := log.With().Str("request_id", requestID).Logger()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithCORS allows the given origins to call the JSON API from a browser.
// An empty list disables CORS handling.
func WithCORS(origins []string) Middleware {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := corslib.New(corslib.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderUserID, HeaderTeamID, HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	})
	return c.Handler
}

// WithSession attaches an authz.Session for the caller named in X-User-ID,
// acting on the team in X-Team-ID. Requests without a user pass through
// anonymously; handlers that need a session reject them.
func WithSession(dir *roster.Directory) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			logger := log.Ctx(r.Context())
			user, ok := dir.User(userID)
			if !ok {
				logger.Warn().Str("user_id", userID).Msg("Session rejected: unknown user")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			session := &authz.Session{User: user}
			if teamID := strings.TrimSpace(r.Header.Get(HeaderTeamID)); teamID != "" {
				if !slices.Contains(dir.VisibleTeamIDs(userID), teamID) {
					logger.Warn().Str("user_id", userID).Str("team_id", teamID).Msg("Session rejected: team not visible")
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
				session.TeamID = teamID
				session.Role, _ = dir.RoleForTeam(userID, teamID)
			}

			ctx := authz.ContextWithSession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
